// Package handlers contains HTTP handlers for the controller API.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"veoprompt/internal/logger"
	"veoprompt/internal/prompt"
	"veoprompt/internal/store"
	"veoprompt/pkg/api"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
	recentLimit     = 5
)

// StoreFactory combines the interfaces needed for the controller to function.
type StoreFactory interface {
	BeginTx(ctx context.Context) (store.Tx, error)
	Ping(ctx context.Context) error
	store.UserStore
	store.ProjectStore
	store.PromptStore
	store.VideoStore
	store.PerformanceStore
	store.DashboardStore
	store.Queue
}

// PromptGenerator produces structured prompts. *prompt.Generator satisfies it.
type PromptGenerator interface {
	Generate(ctx context.Context, req store.VideoRequest) prompt.Result
}

// InsightsFetcher reads post metrics from the social platform.
// *social.Publisher satisfies it.
type InsightsFetcher interface {
	GetInsights(ctx context.Context, postID string) (map[string]int64, bool)
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	store    StoreFactory
	prompts  PromptGenerator
	insights InsightsFetcher
	logger   *slog.Logger
}

// New creates a new Handlers instance.
func New(s StoreFactory, prompts PromptGenerator, insights InsightsFetcher, logger *slog.Logger) *Handlers {
	return &Handlers{
		store:    s,
		prompts:  prompts,
		insights: insights,
		logger:   logger.With("component", "handlers"),
	}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}

// serverError logs err with the request id and hides it from the client.
func (h *Handlers) serverError(w http.ResponseWriter, r *http.Request, message string, err error) {
	logger.FromContext(r.Context(), h.logger).Error(message, "error", err, "path", r.URL.Path)
	h.httpError(w, message, http.StatusInternalServerError)
}

// pathID parses the {id} path value.
func pathID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	return id, err == nil
}

// page reads limit and offset query parameters.
func page(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, maxPageSize)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
