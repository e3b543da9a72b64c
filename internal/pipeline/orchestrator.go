// Package pipeline runs one video job from queued to a terminal state:
// render, caption, publish, then persist. Each external step degrades to a
// fallback instead of aborting; only store failures end in failed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"veoprompt/internal/caption"
	"veoprompt/internal/events"
	"veoprompt/internal/observability"
	"veoprompt/internal/render"
	"veoprompt/internal/social"
	"veoprompt/internal/store"
)

const topicMaxRunes = 100

// Store is the persistence the pipeline writes to.
type Store interface {
	MarkVideoProcessing(ctx context.Context, id uuid.UUID) error
	CompleteVideo(ctx context.Context, id uuid.UUID, outcome store.VideoOutcome) error
	FailVideo(ctx context.Context, id uuid.UUID, errMsg string) error
	UpdatePromptStatus(ctx context.Context, tx store.DBTransaction, id uuid.UUID, status store.PromptStatus) error
	CreatePerformance(ctx context.Context, videoID uuid.UUID) error
}

type Renderer interface {
	Render(ctx context.Context, promptText string, targetSeconds int) render.Result
}

type Captioner interface {
	Generate(ctx context.Context, req caption.Request) caption.Result
}

// Publisher is satisfied by *social.Publisher.
type Publisher interface {
	MockMode() bool
	CreateContainer(ctx context.Context, videoURL, captionText string, hashtags []string) (string, bool)
	GetContainerStatus(ctx context.Context, containerID string) (social.ContainerStatus, bool)
	PublishReel(ctx context.Context, containerID, captionText string, hashtags []string) social.PublishResult
}

// Config tunes the orchestrator.
type Config struct {
	// PlaceholderURL replaces the video when rendering fails.
	PlaceholderURL string
	// PollAttempts and PollInterval bound the wait for a live container.
	PollAttempts int
	PollInterval time.Duration
}

// Job is one unit of work taken from the queue.
type Job struct {
	VideoID  uuid.UUID
	PromptID uuid.UUID
	UserID   uuid.UUID
	Context  store.PromptContext
}

type Orchestrator struct {
	store     Store
	renderer  Renderer
	captions  Captioner
	publisher Publisher
	notifier  events.Publisher
	metrics   *observability.PipelineMetrics
	config    Config
	tracer    trace.Tracer
	logger    *slog.Logger

	followUpAttempts int
	followUpBackoff  time.Duration
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

func WithNotifier(n events.Publisher) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

func WithMetrics(m *observability.PipelineMetrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New creates an Orchestrator. The publisher is shared with every job it runs.
func New(s Store, r Renderer, c Captioner, p Publisher, cfg Config, logger *slog.Logger, opts ...Option) *Orchestrator {
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 30
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}

	o := &Orchestrator{
		store:     s,
		renderer:  r,
		captions:  c,
		publisher: p,
		notifier:  events.NoopPublisher{},
		config:    cfg,
		tracer:    otel.Tracer("veoprompt-pipeline"),
		logger:    logger.With("component", "orchestrator"),

		followUpAttempts: 3,
		followUpBackoff:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run drives job to completed or failed. It returns an error only when an
// unexpected failure occurred; by then the video has already been marked
// failed.
func (o *Orchestrator) Run(ctx context.Context, job Job) error {
	ctx, span := o.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("video.id", job.VideoID.String()),
			attribute.String("prompt.id", job.PromptID.String()),
			attribute.String("video.platform", job.Context.Platform),
		),
	)
	defer span.End()

	log := o.logger.With("video_id", job.VideoID)
	start := time.Now()

	outcome, err := o.run(ctx, job, log)
	if errors.Is(err, errAlreadyTerminal) {
		log.Info("video already finished, skipping")
		return nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("video generation failed", "error", err)

		// Record the failure even if the job context was cancelled.
		failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if ferr := o.store.FailVideo(failCtx, job.VideoID, err.Error()); ferr != nil {
			log.Error("failed to mark video failed", "error", ferr)
			err = fmt.Errorf("%w (marking failed: %v)", err, ferr)
		}

		o.metrics.VideoFailed(ctx)
		o.notify(failCtx, job, events.VideoEvent{Status: string(store.VideoStatusFailed), Error: err.Error()})
		return err
	}

	o.metrics.VideoCompleted(ctx, outcome.Platform, time.Since(start))
	o.notify(ctx, job, events.VideoEvent{
		Status:   string(store.VideoStatusCompleted),
		VideoURL: outcome.VideoURL,
		PostID:   deref(outcome.SocialPostID),
		PostURL:  deref(outcome.PostURL),
	})
	log.Info("video generation completed", "duration", outcome.Duration, "posted", outcome.SocialPostID != nil)
	return nil
}

var errAlreadyTerminal = errors.New("video already terminal")

func (o *Orchestrator) run(ctx context.Context, job Job, log *slog.Logger) (store.VideoOutcome, error) {
	pc := job.Context

	if err := o.store.MarkVideoProcessing(ctx, job.VideoID); err != nil {
		if errors.Is(err, store.ErrInvalidTransition) {
			return store.VideoOutcome{}, errAlreadyTerminal
		}
		return store.VideoOutcome{}, fmt.Errorf("mark processing: %w", err)
	}

	videoURL, duration := o.renderVideo(ctx, pc, log)

	captionResult := o.captions.Generate(ctx, caption.Request{
		Niche:       pc.Niche,
		Tone:        pc.Tone,
		Platform:    pc.Platform,
		VideoLength: pc.VideoLength,
		Goal:        pc.Goal,
		VideoTopic:  VideoTopic(pc),
	})
	if !captionResult.Success {
		log.Warn("using fallback caption", "error", captionResult.Error)
	}

	outcome := store.VideoOutcome{
		VideoURL:    videoURL,
		Duration:    duration,
		CaptionText: captionResult.Caption,
		Hashtags:    captionResult.Hashtags,
		Platform:    pc.Platform,
	}

	if post := o.publish(ctx, videoURL, captionResult, log); post.Success {
		outcome.SocialPostID = &post.PostID
		outcome.PostURL = &post.PostURL
		outcome.PostedAt = &post.PostedAt
	}

	if err := o.store.CompleteVideo(ctx, job.VideoID, outcome); err != nil {
		return outcome, fmt.Errorf("complete video: %w", err)
	}

	// The video is completed from here on; follow-up writes cannot fail it.
	o.finishCompleted(ctx, job, log)
	return outcome, nil
}

// finishCompleted marks the prompt completed and creates the zeroed
// performance record, retrying each write a few times.
func (o *Orchestrator) finishCompleted(ctx context.Context, job Job, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if err := o.retry(ctx, func(ctx context.Context) error {
		return o.store.UpdatePromptStatus(ctx, nil, job.PromptID, store.PromptStatusCompleted)
	}); err != nil {
		log.Error("failed to mark prompt completed", "prompt_id", job.PromptID, "error", err)
	}
	if err := o.retry(ctx, func(ctx context.Context) error {
		return o.store.CreatePerformance(ctx, job.VideoID)
	}); err != nil {
		log.Error("failed to create performance record", "error", err)
	}
}

func (o *Orchestrator) retry(ctx context.Context, fn func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= o.followUpAttempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == o.followUpAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(o.followUpBackoff * time.Duration(attempt)):
		}
	}
	return err
}

func (o *Orchestrator) renderVideo(ctx context.Context, pc store.PromptContext, log *slog.Logger) (string, int) {
	ctx, span := o.tracer.Start(ctx, "pipeline.render")
	defer span.End()

	res := o.renderer.Render(ctx, BuildRenderPrompt(pc.Prompt), pc.VideoLength)
	if !res.Success {
		log.Warn("render failed, using placeholder video", "error", res.Error)
		span.SetAttributes(attribute.Bool("render.fallback", true))
		o.metrics.RenderFallback(ctx)
		return o.config.PlaceholderURL, pc.VideoLength
	}
	return res.VideoURL, res.Duration
}

// publish never fails the job; an unsuccessful result only leaves the social
// fields empty.
func (o *Orchestrator) publish(ctx context.Context, videoURL string, c caption.Result, log *slog.Logger) social.PublishResult {
	ctx, span := o.tracer.Start(ctx, "pipeline.publish")
	defer span.End()

	containerID, ok := o.publisher.CreateContainer(ctx, videoURL, c.Caption, c.Hashtags)
	if !ok {
		log.Warn("container creation failed, skipping publish")
		o.metrics.PublishFailure(ctx)
		return social.PublishResult{Error: "container creation failed"}
	}

	// Checked after CreateContainer, which may have switched to mock mode.
	if !o.publisher.MockMode() {
		if !o.waitForContainer(ctx, containerID, log) {
			log.Warn("container not ready, publishing anyway", "container_id", containerID)
		}
	}

	res := o.publisher.PublishReel(ctx, containerID, c.Caption, c.Hashtags)
	if !res.Success {
		log.Warn("publish failed", "container_id", containerID, "error", res.Error)
		o.metrics.PublishFailure(ctx)
		return res
	}
	span.SetAttributes(attribute.String("social.post_id", res.PostID))
	return res
}

// waitForContainer polls until the container is FINISHED, reports ERROR, the
// attempts run out, or ctx is done.
func (o *Orchestrator) waitForContainer(ctx context.Context, containerID string, log *slog.Logger) bool {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for attempt := 1; attempt <= o.config.PollAttempts; attempt++ {
		if attempt > 1 {
			timer.Reset(o.config.PollInterval)
		}
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
		}

		status, ok := o.publisher.GetContainerStatus(ctx, containerID)
		if !ok {
			continue
		}
		switch status.StatusCode {
		case social.StatusFinished:
			return true
		case social.StatusError:
			log.Warn("container processing failed", "container_id", containerID)
			return false
		}
	}
	return false
}

func (o *Orchestrator) notify(ctx context.Context, job Job, event events.VideoEvent) {
	event.VideoID = job.VideoID.String()
	event.UserID = job.UserID.String()
	event.PromptID = job.PromptID.String()
	event.OccurredAt = time.Now().UTC()

	if err := o.notifier.PublishVideo(ctx, event); err != nil {
		o.logger.Warn("failed to publish video event", "video_id", job.VideoID, "error", err)
	}
}

// BuildRenderPrompt joins the hook, up to three scene visuals, the
// cinematography and the mood into one text prompt.
func BuildRenderPrompt(p store.StructuredPrompt) string {
	parts := make([]string, 0, 6)
	if p.Hook.Description != "" {
		parts = append(parts, p.Hook.Description)
	}
	for i, scene := range p.Scenes {
		if i == 3 {
			break
		}
		if scene.VisualDescription != "" {
			parts = append(parts, scene.VisualDescription)
		}
	}
	if p.VisualStyle.Cinematography != "" {
		parts = append(parts, "Style: "+p.VisualStyle.Cinematography)
	}
	if p.VisualStyle.Mood != "" {
		parts = append(parts, "Mood: "+p.VisualStyle.Mood)
	}
	return strings.Join(parts, ". ")
}

// VideoTopic is the hook description cut to 100 runes, or the niche when the
// prompt has no hook.
func VideoTopic(pc store.PromptContext) string {
	desc := strings.TrimSpace(pc.Prompt.Hook.Description)
	if desc == "" {
		return pc.Niche
	}
	if r := []rune(desc); len(r) > topicMaxRunes {
		return string(r[:topicMaxRunes])
	}
	return desc
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
