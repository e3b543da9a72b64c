// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and Controller.
package api

import (
	"encoding/json"
	"time"
)

// Defaults applied to GeneratePromptRequest fields left empty.
const (
	DefaultPlatform    = "instagram"
	DefaultVideoLength = 30
	DefaultTone        = "cinematic"
	DefaultGoal        = "engagement"

	MinVideoLength = 5
	MaxVideoLength = 60
)

// CreateUserRequest is the request body for creating a new user.
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	// RateLimit is requests per second, 0 means the server default.
	RateLimit      int `json:"rate_limit,omitempty"`
	RateLimitBurst int `json:"rate_limit_burst,omitempty"`
}

// CreateUserResponse carries the API key. It is shown only once.
type CreateUserResponse struct {
	ID     string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	APIKey string `json:"api_key"`
}

// UserResponse describes the authenticated user.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateProjectRequest is the request body for POST /projects.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ProjectResponse represents a project.
type ProjectResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// GeneratePromptRequest is the request body for POST /prompts/generate.
type GeneratePromptRequest struct {
	Niche       string `json:"niche"`
	Platform    string `json:"platform,omitempty"`
	VideoLength int    `json:"video_length,omitempty"`
	Tone        string `json:"tone,omitempty"`
	Goal        string `json:"goal,omitempty"`
	CustomIdea  string `json:"custom_idea,omitempty"`
	// ProjectID optionally files the prompt under one of the caller's projects.
	ProjectID string `json:"project_id,omitempty"`
}

// PromptResponse represents a stored prompt.
type PromptResponse struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	ProjectID       *string         `json:"project_id"`
	Niche           string          `json:"niche"`
	Platform        string          `json:"platform"`
	VideoLength     int             `json:"video_length"`
	Tone            string          `json:"tone"`
	Goal            string          `json:"goal"`
	CustomIdea      string          `json:"custom_idea"`
	GeneratedPrompt json.RawMessage `json:"generated_prompt"`
	RawPromptText   string          `json:"raw_prompt_text"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// GenerateVideoRequest is the request body for POST /videos/generate.
type GenerateVideoRequest struct {
	PromptID string `json:"prompt_id"`
}

// VideoResponse represents a video job.
type VideoResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	PromptID        string     `json:"prompt_id"`
	Status          string     `json:"status"`
	VideoURL        *string    `json:"video_url"`
	Duration        int        `json:"duration"`
	Resolution      string     `json:"resolution"`
	Platform        string     `json:"platform"`
	CaptionText     *string    `json:"caption_text"`
	HashtagsUsed    []string   `json:"hashtags_used"`
	InstagramPostID *string    `json:"instagram_post_id"`
	PostURL         *string    `json:"post_url,omitempty"`
	PostedAt        *time.Time `json:"posted_at"`
	Error           *string    `json:"error_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at"`
}

// PerformanceResponse holds the engagement metrics of a video.
type PerformanceResponse struct {
	VideoID      string    `json:"video_id"`
	Views        int64     `json:"views"`
	Likes        int64     `json:"likes"`
	Shares       int64     `json:"shares"`
	Comments     int64     `json:"comments"`
	WatchTimeAvg float64   `json:"watch_time_avg"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UpdatePerformanceRequest is a partial update; omitted fields are kept.
type UpdatePerformanceRequest struct {
	Views        *int64   `json:"views,omitempty"`
	Likes        *int64   `json:"likes,omitempty"`
	Shares       *int64   `json:"shares,omitempty"`
	Comments     *int64   `json:"comments,omitempty"`
	WatchTimeAvg *float64 `json:"watch_time_avg,omitempty"`
}

// DashboardStatsResponse aggregates the caller's activity.
type DashboardStatsResponse struct {
	TotalPrompts     int64 `json:"total_prompts"`
	TotalVideos      int64 `json:"total_videos"`
	VideosProcessing int64 `json:"videos_processing"`
	VideosCompleted  int64 `json:"videos_completed"`
	VideosFailed     int64 `json:"videos_failed"`
	TotalViews       int64 `json:"total_views"`
	TotalLikes       int64 `json:"total_likes"`
}

// PromptSummary is a short prompt entry in the recent activity feed.
type PromptSummary struct {
	ID        string    `json:"id"`
	Niche     string    `json:"niche"`
	Platform  string    `json:"platform"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// VideoSummary is a short video entry in the recent activity feed.
type VideoSummary struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	VideoURL  *string   `json:"video_url"`
	CreatedAt time.Time `json:"created_at"`
}

// RecentActivityResponse is the response body for GET /dashboard/recent.
type RecentActivityResponse struct {
	RecentPrompts []PromptSummary `json:"recent_prompts"`
	RecentVideos  []VideoSummary  `json:"recent_videos"`
}

// HealthResponse is returned by the liveness and readiness probes.
type HealthResponse struct {
	Status     string            `json:"status"`
	Checks     map[string]string `json:"checks,omitempty"`
	QueueDepth *int64            `json:"queue_depth,omitempty"`
}

// QueueDepthResponse reports the number of queued or running video jobs.
type QueueDepthResponse struct {
	Depth int64 `json:"depth"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
