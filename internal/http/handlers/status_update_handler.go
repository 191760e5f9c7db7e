package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"chargesure/internal/models"
	"chargesure/internal/repository"
	"chargesure/internal/service"
)

type statusUpdateRequest struct {
	Status     string `json:"status"`
	ReportedBy string `json:"reported_by"`
	Notes      string `json:"notes"`
}

// NewStatusUpdateHandler returns the POST /chargers/{chargerID}/status
// handler implementing the crowd-sourced status-update protocol.
func NewStatusUpdateHandler(svc *service.StationsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statusUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		status := models.ChargerStatus(req.Status)
		result, err := svc.UpdateChargerStatus(r.Context(), r.PathValue("chargerID"), status, req.ReportedBy, req.Notes)
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, "status must be Available, In Use or Out of Service")
			return
		case errors.Is(err, models.ErrChargerNotFound):
			writeError(w, http.StatusNotFound, "charger not found")
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "failed to update charger status")
			return
		}

		if result.Queued {
			writeJSON(w, http.StatusAccepted, map[string]interface{}{
				"status":  "queued",
				"pending": result.Pending,
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type ratingRequest struct {
	Rating  string `json:"rating"`
	UserRef string `json:"user_ref"`
}

// NewRatingHandler returns the POST /chargers/{chargerID}/rating handler.
func NewRatingHandler(svc *service.StationsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ratingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if req.Rating != "up" && req.Rating != "down" {
			writeError(w, http.StatusBadRequest, "rating must be up or down")
			return
		}
		if req.UserRef == "" {
			writeError(w, http.StatusBadRequest, "user_ref is required")
			return
		}

		voted, err := svc.RateCharger(r.Context(), r.PathValue("chargerID"), req.UserRef, repository.RatingValue(req.Rating))
		if errors.Is(err, models.ErrChargerNotFound) {
			writeError(w, http.StatusNotFound, "charger not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to submit rating")
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"voted": voted})
	}
}

// NewUserRatingHandler returns the GET /chargers/{chargerID}/rating handler:
// the caller's current vote, empty when none.
func NewUserRatingHandler(svc *service.StationsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userRef := r.URL.Query().Get("user_ref")
		if userRef == "" {
			writeError(w, http.StatusBadRequest, "user_ref is required")
			return
		}

		rating, err := svc.UserRating(r.Context(), r.PathValue("chargerID"), userRef)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load rating")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"rating": string(rating)})
	}
}

// NewChargerVerifyHandler returns the POST /chargers/{chargerID}/verify
// handler: a user confirmation that the listed status is accurate.
func NewChargerVerifyHandler(svc *service.StationsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := svc.ConfirmCharger(r.Context(), r.PathValue("chargerID"))
		if errors.Is(err, models.ErrChargerNotFound) {
			writeError(w, http.StatusNotFound, "charger not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to record verification")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
