package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"veoprompt/internal/controller/middleware"
	"veoprompt/internal/store"
	"veoprompt/pkg/api"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// VideoResolution is the portrait resolution recorded on new video jobs.
const VideoResolution = "1080x1920"

// GenerateVideo handles POST /videos/generate.
// Creates the queued video job, marks the prompt generating and enqueues the
// job in one transaction, so workers can pull it to run.
func (h *Handlers) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.GenerateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	promptID, err := uuid.Parse(req.PromptID)
	if err != nil {
		h.httpError(w, "Invalid prompt id", http.StatusBadRequest)
		return
	}

	p, ok := h.loadPrompt(w, r, promptID, userID)
	if !ok {
		return
	}

	video := &store.VideoJob{
		ID:         uuid.New(),
		UserID:     userID,
		PromptID:   p.ID,
		Status:     store.VideoStatusQueued,
		Duration:   p.Request.VideoLength,
		Resolution: VideoResolution,
		Platform:   p.Request.Platform,
		CreatedAt:  time.Now().UTC(),
	}

	// Carry the request's trace into the worker.
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	payload, err := json.Marshal(store.QueuePayload{
		VideoID:  video.ID,
		PromptID: p.ID,
		UserID:   userID,
		Context:  store.ContextFromPrompt(p),
		Trace:    carrier,
	})
	if err != nil {
		h.serverError(w, r, "Failed to encode job", err)
		return
	}

	tx, err := h.store.BeginTx(ctx)
	if err != nil {
		h.serverError(w, r, "Internal database error", err)
		return
	}
	defer tx.Rollback()

	if err := h.store.CreateVideo(ctx, tx, video); err != nil {
		h.serverError(w, r, "Failed to create video", err)
		return
	}
	if err := h.store.UpdatePromptStatus(ctx, tx, p.ID, store.PromptStatusGenerating); err != nil {
		h.serverError(w, r, "Failed to update prompt", err)
		return
	}
	if _, err := h.store.Enqueue(ctx, tx, video.ID, payload, time.Now()); err != nil {
		h.serverError(w, r, "Failed to enqueue", err)
		return
	}

	if err := tx.Commit(); err != nil {
		h.serverError(w, r, "Failed to commit transaction", err)
		return
	}

	h.respondJson(w, http.StatusCreated, toVideoResponse(video))
}

// ListVideos handles GET /videos.
func (h *Handlers) ListVideos(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit, offset := page(r)
	videos, err := h.store.ListVideos(r.Context(), userID, limit, offset)
	if err != nil {
		h.serverError(w, r, "Failed to list videos", err)
		return
	}

	resp := make([]api.VideoResponse, 0, len(videos))
	for i := range videos {
		resp = append(resp, toVideoResponse(&videos[i]))
	}
	h.respondJson(w, http.StatusOK, resp)
}

// GetVideo handles GET /videos/{id}.
func (h *Handlers) GetVideo(w http.ResponseWriter, r *http.Request) {
	video, ok := h.ownedVideo(w, r, "id")
	if !ok {
		return
	}
	h.respondJson(w, http.StatusOK, toVideoResponse(video))
}

// ownedVideo loads the video named by the path value and checks it belongs to
// the caller. It writes the error response itself.
func (h *Handlers) ownedVideo(w http.ResponseWriter, r *http.Request, name string) (*store.VideoJob, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	id, ok := pathID(r, name)
	if !ok {
		h.httpError(w, "Invalid video id", http.StatusBadRequest)
		return nil, false
	}

	video, err := h.store.GetVideoByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && video.UserID != userID) {
		h.httpError(w, "Video not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		h.serverError(w, r, "Failed to load video", err)
		return nil, false
	}
	return video, true
}
