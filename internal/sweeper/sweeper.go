// Package sweeper periodically fails videos whose worker stopped reporting.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"veoprompt/internal/events"
	"veoprompt/internal/observability"
)

// StuckMessage is stored as the error of every swept video.
const StuckMessage = "video generation timed out"

// Store is the subset of the video store the sweeper needs.
type Store interface {
	FailStuckVideos(ctx context.Context, startedBefore time.Time, errMsg string) ([]uuid.UUID, error)
}

// Sweeper runs a single gocron job. Runs never overlap.
type Sweeper struct {
	store      Store
	interval   time.Duration
	stuckAfter time.Duration
	notifier   events.Publisher
	metrics    *observability.PipelineMetrics
	logger     *slog.Logger
	now        func() time.Time

	scheduler *gocron.Scheduler
	mu        sync.Mutex
	running   bool
}

// Option customizes a Sweeper.
type Option func(*Sweeper)

// WithNotifier publishes a failed event for every swept video.
func WithNotifier(n events.Publisher) Option {
	return func(s *Sweeper) { s.notifier = n }
}

func WithMetrics(m *observability.PipelineMetrics) Option {
	return func(s *Sweeper) { s.metrics = m }
}

func New(s Store, interval, stuckAfter time.Duration, logger *slog.Logger, opts ...Option) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if stuckAfter <= 0 {
		stuckAfter = 30 * time.Minute
	}

	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	sw := &Sweeper{
		store:      s,
		interval:   interval,
		stuckAfter: stuckAfter,
		notifier:   events.NoopPublisher{},
		logger:     logger.With("component", "sweeper"),
		now:        time.Now,
		scheduler:  scheduler,
	}
	for _, opt := range opts {
		opt(sw)
	}
	return sw
}

// Start schedules the sweep and returns immediately. The first sweep runs at
// once. ctx bounds every sweep; cancel it before calling Stop.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if _, err := s.scheduler.Every(s.interval).Do(func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("stuck video sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.scheduler.StartAsync()
	s.running = true
	s.logger.Info("sweeper started", "interval", s.interval, "stuck_after", s.stuckAfter)
	return nil
}

func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.scheduler.Stop()
	s.running = false
	s.logger.Info("sweeper stopped")
}

// Sweep fails every video processing since before now minus stuckAfter.
func (s *Sweeper) Sweep(ctx context.Context) ([]uuid.UUID, error) {
	cutoff := s.now().Add(-s.stuckAfter)

	ids, err := s.store.FailStuckVideos(ctx, cutoff, StuckMessage)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		s.logger.Warn("failed stuck video", "video_id", id, "started_before", cutoff)
		s.metrics.VideoFailed(ctx)
		event := events.VideoEvent{
			VideoID:    id.String(),
			Status:     "failed",
			Error:      StuckMessage,
			OccurredAt: s.now().UTC(),
		}
		if err := s.notifier.PublishVideo(ctx, event); err != nil {
			s.logger.Warn("failed to publish video event", "video_id", id, "error", err)
		}
	}
	return ids, nil
}
