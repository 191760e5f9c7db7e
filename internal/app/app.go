package app

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chargesure/internal/cache"
	"chargesure/internal/config"
	"chargesure/internal/connectivity"
	"chargesure/internal/db"
	httpserver "chargesure/internal/http"
	"chargesure/internal/http/handlers"
	"chargesure/internal/repository"
	"chargesure/internal/service"
	"chargesure/internal/store"
	"chargesure/internal/ws"
)

// App wires the station finder's dependencies.
type App struct {
	server  *httpserver.Server
	service *service.StationsService
	monitor *connectivity.Monitor
	hub     *ws.Hub
	db      *sql.DB
	redis   *redis.Client
	local   *store.SQLiteStore
	logger  *zap.Logger
}

// New constructs application components.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	redisClient, err := cache.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	local, err := store.OpenSQLite(cfg.Local.Path)
	if err != nil {
		redisClient.Close()
		sqlDB.Close()
		return nil, err
	}

	stationRepo := repository.NewStationRepository(sqlDB)
	ratingRepo := repository.NewRatingRepository(sqlDB)
	reportRepo := repository.NewReportRepository(sqlDB)

	stationCache := cache.NewStationCache(redisClient, cfg.Redis.CacheTTL)
	feed := cache.NewChangeFeed(redisClient, logger)

	// Connectivity tracks the station database: when it is unreachable,
	// status updates queue locally and reads fall back to the snapshot.
	monitor := connectivity.NewMonitor(
		connectivity.PingerFunc(sqlDB.PingContext),
		cfg.Sync.ProbeInterval,
		logger,
	)

	hub := ws.NewHub(logger)

	svc := service.New(service.Deps{
		Store:           stationRepo,
		Cache:           stationCache,
		Feed:            feed,
		Ratings:         ratingRepo,
		Reports:         reportRepo,
		Hub:             hub,
		LocalKV:         local,
		Signal:          monitor,
		Logger:          logger,
		SyncDebounce:    cfg.Sync.Debounce,
		RefreshInterval: cfg.Sync.RefreshInterval,
	})

	recents := store.NewRecents(local)
	favorites := store.NewFavorites(local)

	routes := httpserver.Routes{
		Stations:          handlers.NewStationsHandler(svc),
		StationByID:       handlers.NewStationByIDHandler(svc),
		StationSearch:     handlers.NewStationSearchHandler(svc),
		ChargerStatus:     handlers.NewStatusUpdateHandler(svc),
		ChargerRating:     handlers.NewRatingHandler(svc),
		ChargerUserRating: handlers.NewUserRatingHandler(svc),
		ChargerVerify:     handlers.NewChargerVerifyHandler(svc),
		ChargerReports:    handlers.NewChargerReportsHandler(svc),
		SyncPending:       handlers.NewSyncPendingHandler(svc),
		SyncNow:           handlers.NewSyncNowHandler(svc),
		Recents:           handlers.NewRecentsHandler(recents),
		RecentsAdd:        handlers.NewRecentsAddHandler(svc, recents),
		RecentsClear:      handlers.NewRecentsClearHandler(recents),
		Favorites:         handlers.NewFavoritesHandler(favorites),
		FavoriteAdd:       handlers.NewFavoriteAddHandler(favorites),
		FavoriteRemove:    handlers.NewFavoriteRemoveHandler(favorites),
		Live:              hub.Handler(),
		Health:            handlers.NewHealthHandler(),
	}

	router := httpserver.NewRouter(routes)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:  server,
		service: svc,
		monitor: monitor,
		hub:     hub,
		db:      sqlDB,
		redis:   redisClient,
		local:   local,
		logger:  logger,
	}, nil
}

// Run starts the connectivity probe, the service background loops, and the
// HTTP server; it blocks until ctx is done or the server fails.
func (a *App) Run(ctx context.Context) error {
	go a.monitor.Run(ctx)
	go a.service.Run(ctx)
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	a.hub.Close()
	if err := a.local.Close(); err != nil {
		a.logger.Warn("failed to close local store", zap.Error(err))
	}
	if err := a.redis.Close(); err != nil {
		a.logger.Warn("failed to close redis client", zap.Error(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close db", zap.Error(err))
	}
}
