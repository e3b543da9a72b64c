package handlers

import (
	"net/http"

	"veoprompt/pkg/api"
)

// Healthz answers as long as the process can serve HTTP.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	h.respondJson(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

// Readyz reports whether the controller can take traffic. Both checks hit
// Postgres: the connection itself and the video queue table.
func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthResponse{Status: "ready", Checks: map[string]string{}}

	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn("readiness: database ping failed", "error", err)
		resp.Status = "unavailable"
		resp.Checks["database"] = "down"
		h.respondJson(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Checks["database"] = "ok"

	depth, err := h.store.Count(r.Context())
	if err != nil {
		h.logger.Warn("readiness: queue count failed", "error", err)
		resp.Status = "unavailable"
		resp.Checks["queue"] = "down"
		h.respondJson(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Checks["queue"] = "ok"
	resp.QueueDepth = &depth

	h.respondJson(w, http.StatusOK, resp)
}
