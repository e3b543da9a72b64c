// Package store contains the database layer for veoprompt.
package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// User owns prompts and videos. Requests authenticate with an API key whose
// hash is stored alongside the user.
type User struct {
	ID             uuid.UUID
	Name           string
	Email          string
	RateLimit      int // requests per second, 0 means the server default
	RateLimitBurst int
	CreatedAt      time.Time
}

// Project groups a user's prompts.
type Project struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Description string
	CreatedAt   time.Time
}

// VideoRequest is what a user asks for when generating a prompt.
type VideoRequest struct {
	Niche       string `json:"niche"`
	Platform    string `json:"platform"`
	VideoLength int    `json:"video_length"`
	Tone        string `json:"tone"`
	Goal        string `json:"goal"`
	CustomIdea  string `json:"custom_idea,omitempty"`
}

// Hook is the opening beat of a video.
type Hook struct {
	Description string `json:"description"`
	TextOverlay string `json:"text_overlay"`
	Emotion     string `json:"emotion"`
}

// Scene is one shot in the scene-by-scene breakdown.
type Scene struct {
	SceneNumber       int    `json:"scene_number"`
	DurationSeconds   int    `json:"duration_seconds"`
	VisualDescription string `json:"visual_description"`
	CameraMovement    string `json:"camera_movement"`
	TextOverlay       string `json:"text_overlay"`
	TransitionToNext  string `json:"transition_to_next"`
}

// VisualStyle describes the look of the whole video.
type VisualStyle struct {
	Cinematography string `json:"cinematography"`
	Lighting       string `json:"lighting"`
	ColorGrade     string `json:"color_grade"`
	Mood           string `json:"mood"`
}

// Audio describes the soundtrack.
type Audio struct {
	MusicStyle   string   `json:"music_style"`
	SoundEffects []string `json:"sound_effects"`
	Voiceover    string   `json:"voiceover"`
}

// PromptMetadata carries platform hints.
type PromptMetadata struct {
	AspectRatio          string   `json:"aspect_ratio"`
	TotalDuration        int      `json:"total_duration"`
	PlatformOptimization string   `json:"platform_optimization"`
	RetentionHooks       []string `json:"retention_hooks"`
}

// StructuredPrompt is the scene-by-scene prompt produced by the LLM.
type StructuredPrompt struct {
	Hook        Hook           `json:"hook"`
	Scenes      []Scene        `json:"scenes"`
	VisualStyle VisualStyle    `json:"visual_style"`
	Audio       Audio          `json:"audio"`
	Metadata    PromptMetadata `json:"metadata"`
}

// PromptStatus represents the lifecycle of a prompt.
type PromptStatus string

const (
	PromptStatusDraft      PromptStatus = "draft"
	PromptStatusApproved   PromptStatus = "approved"
	PromptStatusGenerating PromptStatus = "generating"
	PromptStatusCompleted  PromptStatus = "completed"
)

// Prompt is a persisted prompt generation.
type Prompt struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ProjectID  *uuid.UUID
	Request    VideoRequest
	Structured StructuredPrompt
	RawText    string
	Status     PromptStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PromptContext is the read-only snapshot handed to the pipeline.
type PromptContext struct {
	Niche       string           `json:"niche"`
	Platform    string           `json:"platform"`
	Tone        string           `json:"tone"`
	Goal        string           `json:"goal"`
	VideoLength int              `json:"video_length"`
	Prompt      StructuredPrompt `json:"prompt"`
}

// ContextFromPrompt builds the pipeline snapshot for a stored prompt.
func ContextFromPrompt(p *Prompt) PromptContext {
	return PromptContext{
		Niche:       p.Request.Niche,
		Platform:    p.Request.Platform,
		Tone:        p.Request.Tone,
		Goal:        p.Request.Goal,
		VideoLength: p.Request.VideoLength,
		Prompt:      p.Structured,
	}
}

// VideoStatus represents the state of a video job.
type VideoStatus string

const (
	VideoStatusQueued     VideoStatus = "queued"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusCompleted  VideoStatus = "completed"
	VideoStatusFailed     VideoStatus = "failed"
)

// IsTerminal reports whether no further transitions may happen.
func (s VideoStatus) IsTerminal() bool {
	return s == VideoStatusCompleted || s == VideoStatusFailed
}

// VideoJob tracks one video's generation lifecycle.
type VideoJob struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	PromptID     uuid.UUID
	Status       VideoStatus
	VideoURL     *string
	Duration     int
	Resolution   string
	Platform     string
	CaptionText  *string
	Hashtags     []string
	SocialPostID *string
	PostURL      *string
	PostedAt     *time.Time
	ErrorMessage *string
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// VideoOutcome is the full set of fields written when a job completes.
type VideoOutcome struct {
	VideoURL     string
	Duration     int
	CaptionText  string
	Hashtags     []string
	SocialPostID *string
	PostURL      *string
	PostedAt     *time.Time
	Platform     string
}

// Performance holds engagement metrics for a video.
type Performance struct {
	VideoID      uuid.UUID
	Views        int64
	Likes        int64
	Shares       int64
	Comments     int64
	WatchTimeAvg float64
	UpdatedAt    time.Time
}

// PerformanceUpdate is a partial metrics update. Nil fields are left as they are.
type PerformanceUpdate struct {
	Views        *int64
	Likes        *int64
	Shares       *int64
	Comments     *int64
	WatchTimeAvg *float64
}

// DashboardStats aggregates a user's activity.
type DashboardStats struct {
	TotalPrompts   int64
	VideosByStatus map[VideoStatus]int64
	TotalViews     int64
	TotalLikes     int64
}

// QueuePayload is what the controller enqueues for the worker.
type QueuePayload struct {
	VideoID  uuid.UUID         `json:"video_id"`
	PromptID uuid.UUID         `json:"prompt_id"`
	UserID   uuid.UUID         `json:"user_id"`
	Context  PromptContext     `json:"context"`
	Trace    map[string]string `json:"trace,omitempty"`
}
