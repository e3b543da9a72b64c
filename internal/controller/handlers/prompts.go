package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"veoprompt/internal/controller/middleware"
	"veoprompt/internal/logger"
	"veoprompt/internal/store"
	"veoprompt/pkg/api"

	"github.com/google/uuid"
)

// GeneratePrompt handles POST /prompts/generate.
// The prompt is stored as a draft even when the LLM fell back to the default template.
func (h *Handlers) GeneratePrompt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.GeneratePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	videoReq, err := videoRequest(req)
	if err != nil {
		h.httpError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var projectID *uuid.UUID
	if req.ProjectID != "" {
		id, err := uuid.Parse(req.ProjectID)
		if err != nil {
			h.httpError(w, "Invalid project id", http.StatusBadRequest)
			return
		}
		if _, ok := h.loadProject(w, r, id, userID); !ok {
			return
		}
		projectID = &id
	}

	result := h.prompts.Generate(ctx, videoReq)
	if !result.Success {
		logger.FromContext(ctx, h.logger).Warn("prompt generation fell back to default", "error", result.Error)
	}

	now := time.Now().UTC()
	p := &store.Prompt{
		ID:         uuid.New(),
		UserID:     userID,
		ProjectID:  projectID,
		Request:    videoReq,
		Structured: result.Prompt,
		RawText:    result.RawText,
		Status:     store.PromptStatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.store.CreatePrompt(ctx, nil, p); err != nil {
		h.serverError(w, r, "Failed to save prompt", err)
		return
	}

	h.respondJson(w, http.StatusCreated, toPromptResponse(p))
}

// videoRequest applies defaults and validates the request.
func videoRequest(req api.GeneratePromptRequest) (store.VideoRequest, error) {
	out := store.VideoRequest{
		Niche:       strings.TrimSpace(req.Niche),
		Platform:    strings.ToLower(strings.TrimSpace(req.Platform)),
		VideoLength: req.VideoLength,
		Tone:        strings.TrimSpace(req.Tone),
		Goal:        strings.TrimSpace(req.Goal),
		CustomIdea:  strings.TrimSpace(req.CustomIdea),
	}
	if out.Niche == "" {
		return out, errors.New("Niche is required")
	}
	if out.Platform == "" {
		out.Platform = api.DefaultPlatform
	}
	if out.VideoLength == 0 {
		out.VideoLength = api.DefaultVideoLength
	}
	if out.Tone == "" {
		out.Tone = api.DefaultTone
	}
	if out.Goal == "" {
		out.Goal = api.DefaultGoal
	}
	if out.VideoLength < api.MinVideoLength || out.VideoLength > api.MaxVideoLength {
		return out, fmt.Errorf("video_length must be between %d and %d seconds", api.MinVideoLength, api.MaxVideoLength)
	}
	return out, nil
}

// ListPrompts handles GET /prompts.
func (h *Handlers) ListPrompts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit, offset := page(r)
	prompts, err := h.store.ListPrompts(r.Context(), userID, limit, offset)
	if err != nil {
		h.serverError(w, r, "Failed to list prompts", err)
		return
	}

	resp := make([]api.PromptResponse, 0, len(prompts))
	for i := range prompts {
		resp = append(resp, toPromptResponse(&prompts[i]))
	}
	h.respondJson(w, http.StatusOK, resp)
}

// GetPrompt handles GET /prompts/{id}.
func (h *Handlers) GetPrompt(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedPrompt(w, r)
	if !ok {
		return
	}
	h.respondJson(w, http.StatusOK, toPromptResponse(p))
}

// ApprovePrompt handles PATCH /prompts/{id}/approve.
func (h *Handlers) ApprovePrompt(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedPrompt(w, r)
	if !ok {
		return
	}

	if err := h.store.UpdatePromptStatus(r.Context(), nil, p.ID, store.PromptStatusApproved); err != nil {
		h.serverError(w, r, "Failed to approve prompt", err)
		return
	}
	h.respondJson(w, http.StatusOK, api.MessageResponse{Message: "Prompt approved"})
}

// ownedPrompt loads the {id} prompt and checks it belongs to the caller.
// It writes the error response itself.
func (h *Handlers) ownedPrompt(w http.ResponseWriter, r *http.Request) (*store.Prompt, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	id, ok := pathID(r, "id")
	if !ok {
		h.httpError(w, "Invalid prompt id", http.StatusBadRequest)
		return nil, false
	}

	return h.loadPrompt(w, r, id, userID)
}

func (h *Handlers) loadPrompt(w http.ResponseWriter, r *http.Request, id, userID uuid.UUID) (*store.Prompt, bool) {
	p, err := h.store.GetPromptByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && p.UserID != userID) {
		h.httpError(w, "Prompt not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		h.serverError(w, r, "Failed to load prompt", err)
		return nil, false
	}
	return p, true
}
