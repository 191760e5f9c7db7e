package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"chargesure/internal/cache"
	"chargesure/internal/connectivity"
	"chargesure/internal/models"
	"chargesure/internal/queue"
	"chargesure/internal/repository"
	"chargesure/internal/store"
)

// StationStore is the repository surface the service reads and writes.
type StationStore interface {
	List(ctx context.Context, bounds *models.Bounds) ([]models.Station, error)
	Get(ctx context.Context, stationID string) (*models.Station, error)
	Search(ctx context.Context, text string, bounds *models.Bounds) ([]models.Station, error)
	SetChargerStatus(ctx context.Context, chargerID string, status models.ChargerStatus, ts time.Time) (repository.StatusChange, error)
	VerifyCharger(ctx context.Context, chargerID string, at time.Time) error
}

// Snapshot is the fallback cache of the full station list.
type Snapshot interface {
	Save(ctx context.Context, stations []models.Station) error
	Load(ctx context.Context) ([]models.Station, error)
	Invalidate(ctx context.Context) error
}

// Feed carries accepted charger changes between instances.
type Feed interface {
	Publish(ctx context.Context, change cache.ChargerChange)
	Subscribe(ctx context.Context, fn func(cache.ChargerChange)) func()
}

// Ratings is the charger vote store.
type Ratings interface {
	Rate(ctx context.Context, chargerID, userRef string, value repository.RatingValue) (bool, error)
	UserRating(ctx context.Context, chargerID, userRef string) (repository.RatingValue, error)
}

// Reports is the status-change audit trail.
type Reports interface {
	Append(ctx context.Context, report repository.StatusReport) error
	Recent(ctx context.Context, chargerID string, limit int) ([]repository.StatusReport, error)
}

// Broadcaster fans events out to live clients.
type Broadcaster interface {
	Broadcast(event interface{})
}

// ErrInvalidStatus rejects client-submitted statuses outside the closed enum.
var ErrInvalidStatus = errors.New("invalid charger status")

// Deps is the explicit dependency set for the service; everything is
// injected so the pipeline and queue are testable without bootstrapping the
// whole application.
type Deps struct {
	Store           StationStore
	Cache           Snapshot
	Feed            Feed
	Ratings         Ratings
	Reports         Reports
	Hub             Broadcaster
	LocalKV         store.KV
	Signal          connectivity.Signal
	Logger          *zap.Logger
	SyncDebounce    time.Duration
	RefreshInterval time.Duration
}

// StationsService is the application core: station reads with stale
// fallback, the status-update protocol, ratings, reports, and the offline
// queue.
type StationsService struct {
	store   StationStore
	cache   Snapshot
	feed    Feed
	ratings Ratings
	reports Reports
	hub     Broadcaster
	signal  connectivity.Signal
	logger  *zap.Logger
	queue   *queue.Queue

	refreshInterval time.Duration
	refreshing      atomic.Bool
}

// New wires the service and its offline queue.
func New(d Deps) *StationsService {
	s := &StationsService{
		store:           d.Store,
		cache:           d.Cache,
		feed:            d.Feed,
		ratings:         d.Ratings,
		reports:         d.Reports,
		hub:             d.Hub,
		signal:          d.Signal,
		logger:          d.Logger,
		refreshInterval: d.RefreshInterval,
	}
	if s.refreshInterval <= 0 {
		s.refreshInterval = 5 * time.Minute
	}
	// The queue replays through the same write path as direct updates so
	// replayed mutations are audited and broadcast identically.
	s.queue = queue.New(d.LocalKV, replayTarget{s}, d.Signal, d.SyncDebounce, d.Logger)
	return s
}

// replayTarget adapts the service's write path to the queue's RemoteStore.
type replayTarget struct {
	s *StationsService
}

func (r replayTarget) SetChargerStatus(ctx context.Context, chargerID string, status models.ChargerStatus, ts time.Time) error {
	return r.s.applyStatus(ctx, chargerID, status, ts, "offline-sync", "")
}

// ListResult carries a station listing plus whether it came from the stale
// fallback cache.
type ListResult struct {
	Stations []models.Station
	Stale    bool
}

// List returns stations, optionally scoped to a bounding box. When the
// upstream store fails an unbounded read falls back to the cached snapshot,
// marked stale — the worst case is a stale view, never a blank map.
func (s *StationsService) List(ctx context.Context, bounds *models.Bounds) (ListResult, error) {
	stations, err := s.store.List(ctx, bounds)
	if err == nil {
		if bounds == nil {
			if cacheErr := s.cache.Save(ctx, stations); cacheErr != nil {
				s.logger.Warn("failed to cache station snapshot", zap.Error(cacheErr))
			}
		}
		return ListResult{Stations: stations}, nil
	}

	s.logger.Warn("station fetch failed, trying cached snapshot", zap.Error(err))
	cached, cacheErr := s.cache.Load(ctx)
	if cacheErr != nil {
		return ListResult{}, err
	}
	if bounds != nil {
		scoped := make([]models.Station, 0, len(cached))
		for _, st := range cached {
			if bounds.Contains(st.Latitude, st.Longitude) {
				scoped = append(scoped, st)
			}
		}
		cached = scoped
	}
	return ListResult{Stations: cached, Stale: true}, nil
}

// Get returns one station by id.
func (s *StationsService) Get(ctx context.Context, stationID string) (*models.Station, error) {
	return s.store.Get(ctx, stationID)
}

// Search returns stations matching the text, optionally scoped to a
// bounding box.
func (s *StationsService) Search(ctx context.Context, text string, bounds *models.Bounds) ([]models.Station, error) {
	return s.store.Search(ctx, text, bounds)
}

// UpdateResult reports how a status submission was handled.
type UpdateResult struct {
	// Queued means the update sits in the offline queue awaiting
	// connectivity rather than being applied.
	Queued  bool
	Pending int
}

// UpdateChargerStatus is the single entry point for user status
// submissions. Offline submissions and transient failures are queued — a
// user report is never silently lost. Permanent rejections surface to the
// caller immediately.
func (s *StationsService) UpdateChargerStatus(ctx context.Context, chargerID string, status models.ChargerStatus, reportedBy, notes string) (UpdateResult, error) {
	if !status.Valid() {
		return UpdateResult{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	if !s.signal.Online() {
		s.queue.Enqueue(chargerID, status)
		return UpdateResult{Queued: true, Pending: s.queue.PendingCount()}, nil
	}

	err := s.applyStatus(ctx, chargerID, status, time.Now().UTC(), reportedBy, notes)
	if err == nil {
		return UpdateResult{}, nil
	}
	if errors.Is(err, models.ErrChargerNotFound) {
		return UpdateResult{}, err
	}

	// Transient failure: keep the report and let the sync loop deliver it.
	s.logger.Warn("direct status update failed, queueing",
		zap.String("charger_id", chargerID), zap.Error(err))
	s.queue.Enqueue(chargerID, status)
	return UpdateResult{Queued: true, Pending: s.queue.PendingCount()}, nil
}

// applyStatus performs the remote mutation, audits it, and broadcasts it.
// Stale replays are acknowledged without an audit row or broadcast.
func (s *StationsService) applyStatus(ctx context.Context, chargerID string, status models.ChargerStatus, ts time.Time, reportedBy, notes string) error {
	change, err := s.store.SetChargerStatus(ctx, chargerID, status, ts)
	if err != nil {
		return err
	}
	if !change.Applied {
		return nil
	}

	if err := s.reports.Append(ctx, repository.StatusReport{
		ChargerID:  chargerID,
		OldStatus:  change.Previous,
		NewStatus:  status,
		ReportedBy: reportedBy,
		Notes:      notes,
		ReportedAt: ts,
	}); err != nil {
		s.logger.Warn("failed to record status report", zap.Error(err))
	}

	s.feed.Publish(ctx, cache.ChargerChange{
		ChargerID: chargerID,
		StationID: change.StationID,
		Status:    status,
		Timestamp: ts,
	})

	// The snapshot predates this change; drop it so the fallback cannot
	// resurrect the old status. The next full read re-saves it.
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate station snapshot", zap.Error(err))
	}
	return nil
}

// ConfirmCharger records a user confirmation that the listed status is
// accurate, feeding the charger's trust counters.
func (s *StationsService) ConfirmCharger(ctx context.Context, chargerID string) error {
	return s.store.VerifyCharger(ctx, chargerID, time.Now().UTC())
}

// RateCharger submits a thumb vote; returns whether a vote remains after
// toggle semantics.
func (s *StationsService) RateCharger(ctx context.Context, chargerID, userRef string, value repository.RatingValue) (bool, error) {
	return s.ratings.Rate(ctx, chargerID, userRef, value)
}

// UserRating returns the user's current vote for a charger, "" when absent.
func (s *StationsService) UserRating(ctx context.Context, chargerID, userRef string) (repository.RatingValue, error) {
	return s.ratings.UserRating(ctx, chargerID, userRef)
}

// RecentReports returns the newest status reports for a charger.
func (s *StationsService) RecentReports(ctx context.Context, chargerID string, limit int) ([]repository.StatusReport, error) {
	return s.reports.Recent(ctx, chargerID, limit)
}

// PendingUpdates exposes the offline queue size for UI badges.
func (s *StationsService) PendingUpdates() int {
	return s.queue.PendingCount()
}

// PendingQueue returns the queued updates themselves.
func (s *StationsService) PendingQueue() []queue.PendingUpdate {
	return s.queue.Pending()
}

// Online reports the current connectivity estimate.
func (s *StationsService) Online() bool {
	return s.signal.Online()
}

// SyncNow triggers a manual queue sync (the retry affordance).
func (s *StationsService) SyncNow(ctx context.Context) {
	s.queue.Sync(ctx)
}

// OnSync registers a sync-event listener.
func (s *StationsService) OnSync(fn func(queue.SyncEvent)) func() {
	return s.queue.Subscribe(fn)
}

// Run starts the background machinery: the offline queue's reconnect
// trigger, the change-feed fan-out to live clients, and the periodic
// snapshot refresh. Blocks until ctx is done.
func (s *StationsService) Run(ctx context.Context) {
	go s.queue.Start(ctx)

	unsubscribe := s.feed.Subscribe(ctx, func(change cache.ChargerChange) {
		s.hub.Broadcast(change)
	})
	defer unsubscribe()

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

// refresh re-pulls the full station list into the snapshot cache. Overlapping
// ticks are skipped rather than stacked.
func (s *StationsService) refresh(ctx context.Context) {
	if !s.refreshing.CompareAndSwap(false, true) {
		return
	}
	defer s.refreshing.Store(false)

	stations, err := s.store.List(ctx, nil)
	if err != nil {
		s.logger.Warn("background refresh failed", zap.Error(err))
		return
	}
	if err := s.cache.Save(ctx, stations); err != nil {
		s.logger.Warn("failed to refresh station snapshot", zap.Error(err))
	}
}
