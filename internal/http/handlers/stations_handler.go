package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"chargesure/internal/filter"
	"chargesure/internal/models"
	"chargesure/internal/service"
)

var (
	errBadBounds   = errors.New("north, south, east and west must be supplied together as numbers")
	errBadLocation = errors.New("lat and lon must be supplied together as numbers")
)

// NewStationsHandler returns the GET /stations handler: bounded or unbounded
// listing with server-side filtering and ranking.
func NewStationsHandler(svc *service.StationsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		bounds, err := parseBounds(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		location, err := parseLocation(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		result, err := svc.List(r.Context(), bounds)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "failed to load stations")
			return
		}

		stations := filter.Apply(result.Stations, parseFilter(q), location)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"stations": stations,
			"count":    len(stations),
			"stale":    result.Stale,
		})
	}
}

// NewStationByIDHandler returns the GET /stations/{stationID} handler.
func NewStationByIDHandler(svc *service.StationsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		station, err := svc.Get(r.Context(), r.PathValue("stationID"))
		if errors.Is(err, models.ErrStationNotFound) {
			writeError(w, http.StatusNotFound, "station not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "failed to load station")
			return
		}
		writeJSON(w, http.StatusOK, station)
	}
}

// NewStationSearchHandler returns the GET /stations/search handler.
func NewStationSearchHandler(svc *service.StationsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		text := q.Get("q")
		if text == "" {
			writeError(w, http.StatusBadRequest, "q is required")
			return
		}
		bounds, err := parseBounds(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		location, locErr := parseLocation(q)
		if locErr != nil {
			writeError(w, http.StatusBadRequest, locErr.Error())
			return
		}

		stations, err := svc.Search(r.Context(), text, bounds)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "search failed")
			return
		}

		// Ranking only; the store already narrowed by text.
		stations = filter.Apply(stations, models.DefaultFilterState(), location)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"stations": stations,
			"count":    len(stations),
		})
	}
}

// NewChargerReportsHandler returns the GET /chargers/{chargerID}/reports
// handler.
func NewChargerReportsHandler(svc *service.StationsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		reports, err := svc.RecentReports(r.Context(), r.PathValue("chargerID"), limit)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "failed to load reports")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"reports": reports})
	}
}
