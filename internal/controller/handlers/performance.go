package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"veoprompt/internal/store"
	"veoprompt/pkg/api"
)

// GetPerformance handles GET /performance/{video_id}.
func (h *Handlers) GetPerformance(w http.ResponseWriter, r *http.Request) {
	video, ok := h.ownedVideo(w, r, "video_id")
	if !ok {
		return
	}

	perf, err := h.store.GetPerformance(r.Context(), video.ID)
	if errors.Is(err, store.ErrNotFound) {
		h.httpError(w, "Performance metrics not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, r, "Failed to load performance", err)
		return
	}
	h.respondJson(w, http.StatusOK, toPerformanceResponse(perf))
}

// UpdatePerformance handles PATCH /performance/{video_id}.
// Only the fields present in the body are changed.
func (h *Handlers) UpdatePerformance(w http.ResponseWriter, r *http.Request) {
	video, ok := h.ownedVideo(w, r, "video_id")
	if !ok {
		return
	}

	var req api.UpdatePerformanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	for _, v := range []*int64{req.Views, req.Likes, req.Shares, req.Comments} {
		if v != nil && *v < 0 {
			h.httpError(w, "Metrics must not be negative", http.StatusBadRequest)
			return
		}
	}
	if req.WatchTimeAvg != nil && *req.WatchTimeAvg < 0 {
		h.httpError(w, "Metrics must not be negative", http.StatusBadRequest)
		return
	}

	h.savePerformance(w, r, video, store.PerformanceUpdate{
		Views:        req.Views,
		Likes:        req.Likes,
		Shares:       req.Shares,
		Comments:     req.Comments,
		WatchTimeAvg: req.WatchTimeAvg,
	})
}

// SyncPerformance handles POST /performance/{video_id}/sync.
// It pulls the post's insights from the social platform and stores them.
func (h *Handlers) SyncPerformance(w http.ResponseWriter, r *http.Request) {
	video, ok := h.ownedVideo(w, r, "video_id")
	if !ok {
		return
	}
	if video.SocialPostID == nil || *video.SocialPostID == "" {
		h.httpError(w, "Video has not been published", http.StatusConflict)
		return
	}

	metrics, ok := h.insights.GetInsights(r.Context(), *video.SocialPostID)
	if !ok {
		h.httpError(w, "Failed to fetch insights", http.StatusBadGateway)
		return
	}

	var update store.PerformanceUpdate
	for name, dst := range map[string]**int64{
		"views":    &update.Views,
		"likes":    &update.Likes,
		"comments": &update.Comments,
		"shares":   &update.Shares,
	} {
		if v, found := metrics[name]; found {
			*dst = &v
		}
	}

	h.savePerformance(w, r, video, update)
}

func (h *Handlers) savePerformance(w http.ResponseWriter, r *http.Request, video *store.VideoJob, update store.PerformanceUpdate) {
	perf, err := h.store.UpdatePerformance(r.Context(), video.ID, update)
	if errors.Is(err, store.ErrNotFound) {
		h.httpError(w, "Performance metrics not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, r, "Failed to update performance", err)
		return
	}
	h.respondJson(w, http.StatusOK, toPerformanceResponse(perf))
}
