package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"veoprompt/internal/controller/middleware"
	"veoprompt/internal/prompt"
	"veoprompt/internal/store"

	"github.com/google/uuid"
)

// Mock transaction
type mockTx struct {
	committed  bool
	rolledBack bool
}

func (m *mockTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (m *mockTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (m *mockTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (m *mockTx) Commit() error {
	m.committed = true
	return nil
}

func (m *mockTx) Rollback() error {
	if !m.committed {
		m.rolledBack = true
	}
	return nil
}

// Mock Store
type mockStore struct {
	beginTxErr error
	pingErr    error
	tx         *mockTx

	// User Hooks
	createUserErr   error
	createdUser     *store.User
	createdUserHash string

	// Project Hooks
	createProjectErr  error
	createdProject    *store.Project
	getProjectResp    *store.Project
	listProjectsResp  []store.Project
	listProjectsErr   error
	listProjectsLimit int

	// Prompt Hooks
	createPromptErr    error
	createdPrompt      *store.Prompt
	getPromptResp      *store.Prompt
	getPromptErr       error
	listPromptsResp    []store.Prompt
	listPromptsErr     error
	updatePromptErr    error
	updatedPromptState store.PromptStatus
	updatePromptTx     store.DBTransaction

	// Video Hooks
	createVideoErr  error
	createdVideo    *store.VideoJob
	getVideoResp    *store.VideoJob
	getVideoErr     error
	listVideosResp  []store.VideoJob
	listVideosErr   error
	enqueueErr      error
	enqueuedPayload json.RawMessage

	// Performance Hooks
	getPerfResp    *store.Performance
	getPerfErr     error
	updatePerfErr  error
	capturedUpdate store.PerformanceUpdate

	// Dashboard Hooks
	statsResp *store.DashboardStats
	statsErr  error

	countResp int64
	countErr  error

	// Spies (to verify arguments passed by handlers)
	capturedLimit  int
	capturedOffset int
}

func (m *mockStore) BeginTx(ctx context.Context) (store.Tx, error) {
	if m.beginTxErr != nil {
		return nil, m.beginTxErr
	}
	m.tx = &mockTx{}
	return m.tx, nil
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *mockStore) CreateUser(ctx context.Context, user *store.User, hashedKey string) error {
	m.createdUser = user
	m.createdUserHash = hashedKey
	return m.createUserErr
}

func (m *mockStore) GetUserByID(ctx context.Context, id uuid.UUID) (*store.User, error) {
	return nil, store.ErrNotFound
}

func (m *mockStore) GetUserByAPIKeyHash(ctx context.Context, hash string) (*store.User, error) {
	return nil, store.ErrNotFound
}

func (m *mockStore) CreateProject(ctx context.Context, p *store.Project) error {
	m.createdProject = p
	return m.createProjectErr
}

func (m *mockStore) GetProjectByID(ctx context.Context, id uuid.UUID) (*store.Project, error) {
	if m.getProjectResp == nil || m.getProjectResp.ID != id {
		return nil, store.ErrNotFound
	}
	return m.getProjectResp, nil
}

func (m *mockStore) ListProjects(ctx context.Context, userID uuid.UUID, limit int) ([]store.Project, error) {
	m.listProjectsLimit = limit
	return m.listProjectsResp, m.listProjectsErr
}

func (m *mockStore) CreatePrompt(ctx context.Context, tx store.DBTransaction, p *store.Prompt) error {
	m.createdPrompt = p
	return m.createPromptErr
}

func (m *mockStore) GetPromptByID(ctx context.Context, id uuid.UUID) (*store.Prompt, error) {
	if m.getPromptErr != nil {
		return nil, m.getPromptErr
	}
	if m.getPromptResp == nil {
		return nil, store.ErrNotFound
	}
	return m.getPromptResp, nil
}

func (m *mockStore) ListPrompts(ctx context.Context, userID uuid.UUID, limit, offset int) ([]store.Prompt, error) {
	m.capturedLimit = limit
	m.capturedOffset = offset
	return m.listPromptsResp, m.listPromptsErr
}

func (m *mockStore) UpdatePromptStatus(ctx context.Context, tx store.DBTransaction, id uuid.UUID, status store.PromptStatus) error {
	m.updatedPromptState = status
	m.updatePromptTx = tx
	return m.updatePromptErr
}

func (m *mockStore) CreateVideo(ctx context.Context, tx store.DBTransaction, video *store.VideoJob) error {
	m.createdVideo = video
	return m.createVideoErr
}

func (m *mockStore) GetVideoByID(ctx context.Context, id uuid.UUID) (*store.VideoJob, error) {
	if m.getVideoErr != nil {
		return nil, m.getVideoErr
	}
	if m.getVideoResp == nil {
		return nil, store.ErrNotFound
	}
	return m.getVideoResp, nil
}

func (m *mockStore) ListVideos(ctx context.Context, userID uuid.UUID, limit, offset int) ([]store.VideoJob, error) {
	m.capturedLimit = limit
	m.capturedOffset = offset
	return m.listVideosResp, m.listVideosErr
}

func (m *mockStore) MarkVideoProcessing(ctx context.Context, id uuid.UUID) error { return nil }

func (m *mockStore) CompleteVideo(ctx context.Context, id uuid.UUID, outcome store.VideoOutcome) error {
	return nil
}

func (m *mockStore) FailVideo(ctx context.Context, id uuid.UUID, errMsg string) error { return nil }

func (m *mockStore) FailStuckVideos(ctx context.Context, startedBefore time.Time, errMsg string) ([]uuid.UUID, error) {
	return nil, nil
}

func (m *mockStore) CreatePerformance(ctx context.Context, videoID uuid.UUID) error { return nil }

func (m *mockStore) GetPerformance(ctx context.Context, videoID uuid.UUID) (*store.Performance, error) {
	if m.getPerfErr != nil {
		return nil, m.getPerfErr
	}
	if m.getPerfResp == nil {
		return nil, store.ErrNotFound
	}
	return m.getPerfResp, nil
}

func (m *mockStore) UpdatePerformance(ctx context.Context, videoID uuid.UUID, update store.PerformanceUpdate) (*store.Performance, error) {
	m.capturedUpdate = update
	if m.updatePerfErr != nil {
		return nil, m.updatePerfErr
	}
	perf := &store.Performance{VideoID: videoID, UpdatedAt: time.Now()}
	if update.Views != nil {
		perf.Views = *update.Views
	}
	if update.Likes != nil {
		perf.Likes = *update.Likes
	}
	if update.Comments != nil {
		perf.Comments = *update.Comments
	}
	if update.Shares != nil {
		perf.Shares = *update.Shares
	}
	if update.WatchTimeAvg != nil {
		perf.WatchTimeAvg = *update.WatchTimeAvg
	}
	return perf, nil
}

func (m *mockStore) GetDashboardStats(ctx context.Context, userID uuid.UUID) (*store.DashboardStats, error) {
	return m.statsResp, m.statsErr
}

func (m *mockStore) Enqueue(ctx context.Context, tx store.DBTransaction, videoID uuid.UUID, payload json.RawMessage, visibleAfter time.Time) (int64, error) {
	m.enqueuedPayload = payload
	return 1, m.enqueueErr
}

func (m *mockStore) DequeueBatch(ctx context.Context, limit int) ([]store.QueueItem, error) {
	return nil, nil
}

func (m *mockStore) Complete(ctx context.Context, tx store.DBTransaction, videoID uuid.UUID) error {
	return nil
}

func (m *mockStore) Fail(ctx context.Context, tx store.DBTransaction, videoID uuid.UUID, errMsg string) error {
	return nil
}

func (m *mockStore) SetVisibleAfter(ctx context.Context, tx store.DBTransaction, videoID uuid.UUID, visibleAfter time.Time) error {
	return nil
}

func (m *mockStore) Count(ctx context.Context) (int64, error) {
	return m.countResp, m.countErr
}

// mockGenerator implements PromptGenerator.
type mockGenerator struct {
	result   *prompt.Result
	received store.VideoRequest
}

func (m *mockGenerator) Generate(ctx context.Context, req store.VideoRequest) prompt.Result {
	m.received = req
	if m.result != nil {
		return *m.result
	}
	return prompt.Result{Success: true, Prompt: prompt.Default(req), RawText: "{}"}
}

// mockInsights implements InsightsFetcher.
type mockInsights struct {
	metrics map[string]int64
	ok      bool
	postID  string
}

func (m *mockInsights) GetInsights(ctx context.Context, postID string) (map[string]int64, bool) {
	m.postID = postID
	return m.metrics, m.ok
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHandlers(s *mockStore) *Handlers {
	return New(s, &mockGenerator{}, &mockInsights{}, discardLogger())
}

// asUser attaches an authenticated user to the request.
func asUser(r *http.Request, userID uuid.UUID) *http.Request {
	return r.WithContext(middleware.NewContextWithUser(r.Context(), &store.User{ID: userID, Name: "tester"}))
}
