// Package render turns a text prompt into a playable video through an
// asynchronous text-to-video backend.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	AspectRatio = "9:16"
	Resolution  = "1080p"
)

// ErrNoBackend is reported when no Submitter is configured.
var ErrNoBackend = errors.New("render: no backend configured")

// Args are the parameters of one render submission.
type Args struct {
	Prompt      string
	Duration    int // seconds
	AspectRatio string
	Resolution  string
}

// Output is what a finished render produced.
type Output struct {
	VideoURL string
	Duration int
}

// Submitter starts renders on a backend.
type Submitter interface {
	Submit(ctx context.Context, model string, args Args) (Handle, error)
}

// Handle represents a submitted render.
type Handle interface {
	ID() string
	// Await blocks until the render finishes or ctx is done.
	Await(ctx context.Context) (Output, error)
}

// Result is the outcome of Render. Error is set when Success is false.
type Result struct {
	Success  bool
	VideoURL string
	Duration int
	Error    string
}

// QuantizeDuration maps a requested length to a clip length the backend
// supports: 5s up to 30s, 10s beyond.
func QuantizeDuration(seconds int) int {
	if seconds <= 30 {
		return 5
	}
	return 10
}

type Renderer struct {
	submitter Submitter
	model     string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewRenderer creates a Renderer. timeout bounds the wait for one render; zero
// means five minutes. A nil submitter makes every render fail.
func NewRenderer(submitter Submitter, model string, timeout time.Duration, logger *slog.Logger) *Renderer {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Renderer{
		submitter: submitter,
		model:     model,
		timeout:   timeout,
		logger:    logger.With("component", "renderer"),
	}
}

func (r *Renderer) Render(ctx context.Context, promptText string, targetSeconds int) Result {
	duration := QuantizeDuration(targetSeconds)

	out, err := r.render(ctx, promptText, duration)
	if err != nil {
		r.logger.Error("render failed", "model", r.model, "duration", duration, "error", err)
		return Result{Success: false, Error: err.Error()}
	}

	if out.Duration <= 0 {
		out.Duration = duration
	}
	return Result{Success: true, VideoURL: out.VideoURL, Duration: out.Duration}
}

func (r *Renderer) render(ctx context.Context, promptText string, duration int) (Output, error) {
	if r.submitter == nil {
		return Output{}, ErrNoBackend
	}

	handle, err := r.submitter.Submit(ctx, r.model, Args{
		Prompt:      promptText,
		Duration:    duration,
		AspectRatio: AspectRatio,
		Resolution:  Resolution,
	})
	if err != nil {
		return Output{}, fmt.Errorf("submit render: %w", err)
	}
	r.logger.Info("render submitted", "task_id", handle.ID(), "duration", duration)

	awaitCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := handle.Await(awaitCtx)
	if err != nil {
		return Output{}, fmt.Errorf("await render %s: %w", handle.ID(), err)
	}
	if out.VideoURL == "" {
		return Output{}, fmt.Errorf("render %s finished without a video url", handle.ID())
	}
	return out, nil
}
