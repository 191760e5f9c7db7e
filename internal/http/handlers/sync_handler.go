package handlers

import (
	"net/http"

	"chargesure/internal/queue"
	"chargesure/internal/service"
)

// NewSyncPendingHandler returns the GET /sync/pending handler exposing the
// offline queue contents.
func NewSyncPendingHandler(svc *service.StationsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pending := svc.PendingQueue()
		if pending == nil {
			pending = []queue.PendingUpdate{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"online":  svc.Online(),
			"pending": pending,
			"count":   len(pending),
		})
	}
}

// NewSyncNowHandler returns the POST /sync/now handler, the manual retry
// affordance. The sync runs in the foreground so the response reflects the
// post-sync queue size.
func NewSyncNowHandler(svc *service.StationsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.SyncNow(r.Context())
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"online":  svc.Online(),
			"pending": svc.PendingUpdates(),
		})
	}
}
