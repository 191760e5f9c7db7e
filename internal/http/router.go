package httpserver

import "net/http"

// Routes groups handlers.
type Routes struct {
	Stations          http.HandlerFunc
	StationByID       http.HandlerFunc
	StationSearch     http.HandlerFunc
	ChargerStatus     http.HandlerFunc
	ChargerRating     http.HandlerFunc
	ChargerUserRating http.HandlerFunc
	ChargerVerify     http.HandlerFunc
	ChargerReports    http.HandlerFunc
	SyncPending       http.HandlerFunc
	SyncNow           http.HandlerFunc
	Recents           http.HandlerFunc
	RecentsAdd        http.HandlerFunc
	RecentsClear      http.HandlerFunc
	Favorites         http.HandlerFunc
	FavoriteAdd       http.HandlerFunc
	FavoriteRemove    http.HandlerFunc
	Live              http.HandlerFunc
	Health            http.HandlerFunc
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.Stations != nil {
		mux.Handle("GET /stations", routes.Stations)
	}
	if routes.StationSearch != nil {
		mux.Handle("GET /stations/search", routes.StationSearch)
	}
	if routes.StationByID != nil {
		mux.Handle("GET /stations/{stationID}", routes.StationByID)
	}
	if routes.ChargerStatus != nil {
		mux.Handle("POST /chargers/{chargerID}/status", routes.ChargerStatus)
	}
	if routes.ChargerRating != nil {
		mux.Handle("POST /chargers/{chargerID}/rating", routes.ChargerRating)
	}
	if routes.ChargerUserRating != nil {
		mux.Handle("GET /chargers/{chargerID}/rating", routes.ChargerUserRating)
	}
	if routes.ChargerVerify != nil {
		mux.Handle("POST /chargers/{chargerID}/verify", routes.ChargerVerify)
	}
	if routes.ChargerReports != nil {
		mux.Handle("GET /chargers/{chargerID}/reports", routes.ChargerReports)
	}
	if routes.SyncPending != nil {
		mux.Handle("GET /sync/pending", routes.SyncPending)
	}
	if routes.SyncNow != nil {
		mux.Handle("POST /sync/now", routes.SyncNow)
	}
	if routes.Recents != nil {
		mux.Handle("GET /recents", routes.Recents)
	}
	if routes.RecentsAdd != nil {
		mux.Handle("POST /recents", routes.RecentsAdd)
	}
	if routes.RecentsClear != nil {
		mux.Handle("DELETE /recents", routes.RecentsClear)
	}
	if routes.Favorites != nil {
		mux.Handle("GET /favorites", routes.Favorites)
	}
	if routes.FavoriteAdd != nil {
		mux.Handle("POST /favorites/{stationID}", routes.FavoriteAdd)
	}
	if routes.FavoriteRemove != nil {
		mux.Handle("DELETE /favorites/{stationID}", routes.FavoriteRemove)
	}
	if routes.Live != nil {
		mux.Handle("GET /ws", routes.Live)
	}
	if routes.Health != nil {
		mux.Handle("GET /health", routes.Health)
	}
	return mux
}
