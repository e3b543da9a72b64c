package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"veoprompt/internal/controller/middleware"
	"veoprompt/internal/store"
	"veoprompt/pkg/api"

	"github.com/google/uuid"
)

// CreateProject handles POST /projects.
func (h *Handlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		h.httpError(w, "Name is required", http.StatusBadRequest)
		return
	}

	p := &store.Project{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.store.CreateProject(r.Context(), p); err != nil {
		h.serverError(w, r, "Failed to create project", err)
		return
	}

	h.respondJson(w, http.StatusCreated, toProjectResponse(p))
}

// ListProjects handles GET /projects. It returns up to maxPageSize projects,
// newest first.
func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	projects, err := h.store.ListProjects(r.Context(), userID, maxPageSize)
	if err != nil {
		h.serverError(w, r, "Failed to list projects", err)
		return
	}

	resp := make([]api.ProjectResponse, 0, len(projects))
	for i := range projects {
		resp = append(resp, toProjectResponse(&projects[i]))
	}
	h.respondJson(w, http.StatusOK, resp)
}

// loadProject fetches a project and checks it belongs to userID. A project
// owned by someone else is reported as not found.
func (h *Handlers) loadProject(w http.ResponseWriter, r *http.Request, id, userID uuid.UUID) (*store.Project, bool) {
	p, err := h.store.GetProjectByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && p.UserID != userID) {
		h.httpError(w, "Project not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		h.serverError(w, r, "Failed to load project", err)
		return nil, false
	}
	return p, true
}
