package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidTransition is returned when a status update would move a video
// backwards or out of a terminal state.
var ErrInvalidTransition = errors.New("invalid video status transition")

// DBTransaction defines the methods shared by *sql.DB and *sql.Tx
// This allows us to pass either a connection pool or an active transaction to the repository methods.
type DBTransaction interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Tx interface {
	DBTransaction
	Commit() error
	Rollback() error
}

// UserStore handles retrieving user information for authentication.
type UserStore interface {
	// CreateUser inserts a new user together with the hash of its API key.
	CreateUser(ctx context.Context, user *User, hashedKey string) error

	// GetUserByID returns a user by its ID.
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetUserByAPIKeyHash returns a user by its API key hash.
	GetUserByAPIKeyHash(ctx context.Context, hash string) (*User, error)
}

// ProjectStore persists the projects prompts are grouped under.
type ProjectStore interface {
	CreateProject(ctx context.Context, project *Project) error
	GetProjectByID(ctx context.Context, id uuid.UUID) (*Project, error)
	// ListProjects returns a user's projects, newest first.
	ListProjects(ctx context.Context, userID uuid.UUID, limit int) ([]Project, error)
}

// PromptStore persists generated prompts.
type PromptStore interface {
	CreatePrompt(ctx context.Context, tx DBTransaction, prompt *Prompt) error
	GetPromptByID(ctx context.Context, id uuid.UUID) (*Prompt, error)
	ListPrompts(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Prompt, error)
	UpdatePromptStatus(ctx context.Context, tx DBTransaction, id uuid.UUID, status PromptStatus) error
}

// VideoStore persists video jobs. Status writes enforce the
// queued -> processing -> completed|failed order.
type VideoStore interface {
	CreateVideo(ctx context.Context, tx DBTransaction, video *VideoJob) error
	GetVideoByID(ctx context.Context, id uuid.UUID) (*VideoJob, error)
	ListVideos(ctx context.Context, userID uuid.UUID, limit, offset int) ([]VideoJob, error)

	// MarkVideoProcessing moves a queued (or redelivered processing) video to processing.
	MarkVideoProcessing(ctx context.Context, id uuid.UUID) error

	// CompleteVideo writes the full terminal record of a processing video.
	CompleteVideo(ctx context.Context, id uuid.UUID, outcome VideoOutcome) error

	// FailVideo marks a non-terminal video failed. It is a no-op for terminal videos.
	FailVideo(ctx context.Context, id uuid.UUID, errMsg string) error

	// FailStuckVideos fails every video still processing since before the cutoff
	// and returns their ids.
	FailStuckVideos(ctx context.Context, startedBefore time.Time, errMsg string) ([]uuid.UUID, error)
}

// PerformanceStore persists engagement metrics.
type PerformanceStore interface {
	CreatePerformance(ctx context.Context, videoID uuid.UUID) error
	GetPerformance(ctx context.Context, videoID uuid.UUID) (*Performance, error)
	UpdatePerformance(ctx context.Context, videoID uuid.UUID, update PerformanceUpdate) (*Performance, error)
}

// DashboardStore aggregates per-user activity.
type DashboardStore interface {
	GetDashboardStats(ctx context.Context, userID uuid.UUID) (*DashboardStats, error)
}
