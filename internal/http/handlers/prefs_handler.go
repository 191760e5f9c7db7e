package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"chargesure/internal/models"
	"chargesure/internal/service"
	"chargesure/internal/store"
)

// NewRecentsHandler returns the GET /recents handler.
func NewRecentsHandler(recents *store.Recents) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := recents.List()
		if entries == nil {
			entries = []store.RecentStation{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"recents": entries})
	}
}

type recentRequest struct {
	StationID string `json:"station_id"`
}

// NewRecentsAddHandler returns the POST /recents handler. The station is
// resolved so the stored entry carries its display name and address.
func NewRecentsAddHandler(svc *service.StationsService, recents *store.Recents) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StationID == "" {
			writeError(w, http.StatusBadRequest, "station_id is required")
			return
		}

		station, err := svc.Get(r.Context(), req.StationID)
		if errors.Is(err, models.ErrStationNotFound) {
			writeError(w, http.StatusNotFound, "station not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "failed to load station")
			return
		}

		if err := recents.Add(station.StationID, station.Name, station.Address); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to record visit")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// NewRecentsClearHandler returns the DELETE /recents handler.
func NewRecentsClearHandler(recents *store.Recents) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recents.Clear()
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// NewFavoritesHandler returns the GET /favorites handler.
func NewFavoritesHandler(favorites *store.Favorites) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := favorites.List()
		if ids == nil {
			ids = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"favorites": ids})
	}
}

// NewFavoriteAddHandler returns the POST /favorites/{stationID} handler.
func NewFavoriteAddHandler(favorites *store.Favorites) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := favorites.Add(r.PathValue("stationID")); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to save favorite")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// NewFavoriteRemoveHandler returns the DELETE /favorites/{stationID} handler.
func NewFavoriteRemoveHandler(favorites *store.Favorites) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := favorites.Remove(r.PathValue("stationID")); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to remove favorite")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
