package handlers

import (
	"net/http"

	"veoprompt/pkg/api"
)

// ---------------------------------------------------------
// Internal Endpoints
// These are guarded by the admin secret, not by user keys.
// ---------------------------------------------------------

// QueueDepth handles GET /internal/queue/depth.
func (h *Handlers) QueueDepth(w http.ResponseWriter, r *http.Request) {
	depth, err := h.store.Count(r.Context())
	if err != nil {
		h.serverError(w, r, "Failed to count queue", err)
		return
	}
	h.respondJson(w, http.StatusOK, api.QueueDepthResponse{Depth: depth})
}
