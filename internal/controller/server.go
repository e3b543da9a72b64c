// Package controller contains the controller-specific logic for the HTTP API.
package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"veoprompt/internal/controller/handlers"
	"veoprompt/internal/controller/middleware"
)

// Options configures the routes that depend on deployment settings.
type Options struct {
	// AdminSecret guards user registration and the internal endpoints.
	// When empty those routes always answer 403.
	AdminSecret string

	// Server-wide default request rate for users without their own limit.
	RateLimit      float64
	RateLimitBurst int

	// MetricsHandler is mounted on /metrics when set.
	MetricsHandler http.Handler
}

// Server is the HTTP server for the controller API.
type Server struct {
	httpServer *http.Server
}

// New creates a new controller server.
func New(addr string, h *handlers.Handlers, users middleware.UserLookup, opts Options, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           Routes(h, users, opts, logger),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			// Prompt generation waits on the LLM.
			WriteTimeout: 90 * time.Second,
		},
	}
}

// Routes builds the full handler tree. It is separate from New so tests can
// serve it with httptest.
func Routes(h *handlers.Handlers, users middleware.UserLookup, opts Options, logger *slog.Logger) http.Handler {
	authMW := middleware.AuthMiddleware(users)
	limiter := middleware.NewRateLimiter(middleware.WithDefaultLimit(opts.RateLimit, opts.RateLimitBurst))
	adminMW := middleware.RequireAdmin(opts.AdminSecret)

	// Authenticate first so the limiter can key on the user.
	user := func(fn http.HandlerFunc) http.Handler {
		return authMW(limiter.Middleware()(fn))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	if opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", opts.MetricsHandler)
	}

	// Registration is an operator action.
	mux.Handle("POST /users", adminMW(http.HandlerFunc(h.CreateUser)))

	mux.Handle("GET /me", user(h.Me))

	mux.Handle("POST /projects", user(h.CreateProject))
	mux.Handle("GET /projects", user(h.ListProjects))

	mux.Handle("POST /prompts/generate", user(h.GeneratePrompt))
	mux.Handle("GET /prompts", user(h.ListPrompts))
	mux.Handle("GET /prompts/{id}", user(h.GetPrompt))
	mux.Handle("PATCH /prompts/{id}/approve", user(h.ApprovePrompt))

	mux.Handle("POST /videos/generate", user(h.GenerateVideo))
	mux.Handle("GET /videos", user(h.ListVideos))
	mux.Handle("GET /videos/{id}", user(h.GetVideo))

	mux.Handle("GET /performance/{video_id}", user(h.GetPerformance))
	mux.Handle("PATCH /performance/{video_id}", user(h.UpdatePerformance))
	mux.Handle("POST /performance/{video_id}/sync", user(h.SyncPerformance))

	mux.Handle("GET /dashboard/stats", user(h.DashboardStats))
	mux.Handle("GET /dashboard/recent", user(h.RecentActivity))

	// Internal endpoints
	// These are meant for operators and monitoring, not end users.
	mux.Handle("GET /internal/queue/depth", adminMW(http.HandlerFunc(h.QueueDepth)))

	var handler http.Handler = mux
	handler = middleware.AccessLog(logger)(handler)
	handler = middleware.RequestID(handler)
	return middleware.Tracing(handler)
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
