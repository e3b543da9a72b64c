package handlers

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"veoprompt/internal/auth"
	"veoprompt/internal/controller/middleware"
	"veoprompt/internal/store"
	"veoprompt/pkg/api"

	"github.com/google/uuid"
)

// CreateUser handles POST /users.
// It registers a user and returns its API key. The key is never shown again.
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req api.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		h.httpError(w, "Name and email are required", http.StatusBadRequest)
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		h.httpError(w, "Invalid email address", http.StatusBadRequest)
		return
	}
	if req.RateLimit < 0 || req.RateLimitBurst < 0 {
		h.httpError(w, "Rate limits must not be negative", http.StatusBadRequest)
		return
	}

	key, err := auth.GenerateKey()
	if err != nil {
		h.serverError(w, r, "Failed to generate API key", err)
		return
	}

	user := &store.User{
		ID:             uuid.New(),
		Name:           req.Name,
		Email:          req.Email,
		RateLimit:      req.RateLimit,
		RateLimitBurst: req.RateLimitBurst,
		CreatedAt:      time.Now().UTC(),
	}
	if err := h.store.CreateUser(r.Context(), user, auth.HashKey(key)); err != nil {
		h.serverError(w, r, "Failed to create user", err)
		return
	}

	h.respondJson(w, http.StatusCreated, api.CreateUserResponse{
		ID:     user.ID.String(),
		Name:   user.Name,
		Email:  user.Email,
		APIKey: key,
	})
}

// Me handles GET /me.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	h.respondJson(w, http.StatusOK, toUserResponse(user))
}
