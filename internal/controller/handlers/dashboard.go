package handlers

import (
	"net/http"

	"veoprompt/internal/controller/middleware"
	"veoprompt/internal/store"
	"veoprompt/pkg/api"
)

// DashboardStats handles GET /dashboard/stats.
func (h *Handlers) DashboardStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	stats, err := h.store.GetDashboardStats(r.Context(), userID)
	if err != nil {
		h.serverError(w, r, "Failed to load dashboard", err)
		return
	}

	resp := api.DashboardStatsResponse{
		TotalPrompts:     stats.TotalPrompts,
		VideosProcessing: stats.VideosByStatus[store.VideoStatusQueued] + stats.VideosByStatus[store.VideoStatusProcessing],
		VideosCompleted:  stats.VideosByStatus[store.VideoStatusCompleted],
		VideosFailed:     stats.VideosByStatus[store.VideoStatusFailed],
		TotalViews:       stats.TotalViews,
		TotalLikes:       stats.TotalLikes,
	}
	for _, n := range stats.VideosByStatus {
		resp.TotalVideos += n
	}
	h.respondJson(w, http.StatusOK, resp)
}

// RecentActivity handles GET /dashboard/recent.
func (h *Handlers) RecentActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	prompts, err := h.store.ListPrompts(r.Context(), userID, recentLimit, 0)
	if err != nil {
		h.serverError(w, r, "Failed to list prompts", err)
		return
	}
	videos, err := h.store.ListVideos(r.Context(), userID, recentLimit, 0)
	if err != nil {
		h.serverError(w, r, "Failed to list videos", err)
		return
	}

	resp := api.RecentActivityResponse{
		RecentPrompts: make([]api.PromptSummary, 0, len(prompts)),
		RecentVideos:  make([]api.VideoSummary, 0, len(videos)),
	}
	for _, p := range prompts {
		resp.RecentPrompts = append(resp.RecentPrompts, api.PromptSummary{
			ID:        p.ID.String(),
			Niche:     p.Request.Niche,
			Platform:  p.Request.Platform,
			Status:    string(p.Status),
			CreatedAt: p.CreatedAt,
		})
	}
	for _, v := range videos {
		resp.RecentVideos = append(resp.RecentVideos, api.VideoSummary{
			ID:        v.ID.String(),
			Status:    string(v.Status),
			VideoURL:  v.VideoURL,
			CreatedAt: v.CreatedAt,
		})
	}
	h.respondJson(w, http.StatusOK, resp)
}
