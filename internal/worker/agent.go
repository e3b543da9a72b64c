// Package worker pulls queued video jobs and runs them through the pipeline.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"veoprompt/internal/pipeline"
	"veoprompt/internal/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// AgentConfig holds configuration for the worker agent.
type AgentConfig struct {
	ID                  string
	Concurrency         int
	PollInterval        time.Duration
	MaxBackoff          time.Duration // Maximum backoff when queue is empty (default: 30s)
	HeartbeatInterval   time.Duration // Interval between heartbeat calls (default: 2m)
	VisibilityExtension time.Duration // How long to extend visibility on heartbeat (default: 5m)
	MaxAttempts         int           // Deliveries allowed before a job is failed (default: 3)
	JobTimeout          time.Duration // Upper bound for one pipeline run (default: 30m)
}

// Queue is the part of store.Queue the agent uses.
type Queue interface {
	DequeueBatch(ctx context.Context, limit int) ([]store.QueueItem, error)
	Complete(ctx context.Context, tx store.DBTransaction, videoID uuid.UUID) error
	Fail(ctx context.Context, tx store.DBTransaction, videoID uuid.UUID, errMsg string) error
	SetVisibleAfter(ctx context.Context, tx store.DBTransaction, videoID uuid.UUID, visibleAfter time.Time) error
}

// Runner executes one job. *pipeline.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, job pipeline.Job) error
}

// Task describes a job currently running on this agent.
type Task struct {
	VideoID   uuid.UUID
	Attempt   int
	StartedAt time.Time
}

type task struct {
	Task
	cancel context.CancelFunc
}

// Agent is the main worker agent that runs the pull-loop for video jobs.
type Agent struct {
	queue  Queue
	runner Runner
	config AgentConfig
	logger *slog.Logger
	done   chan struct{}

	mu    sync.Mutex
	tasks map[uuid.UUID]*task
}

// New creates a new worker agent.
func New(q Queue, r Runner, config AgentConfig, logger *slog.Logger) *Agent {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}

	if config.PollInterval <= 0 {
		config.PollInterval = 1 * time.Second
	}

	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 30 * time.Second
	}

	if config.HeartbeatInterval <= 0 {
		config.HeartbeatInterval = 2 * time.Minute
	}

	if config.VisibilityExtension <= 0 {
		config.VisibilityExtension = 5 * time.Minute
	}

	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}

	if config.JobTimeout <= 0 {
		config.JobTimeout = 30 * time.Minute
	}

	return &Agent{
		queue:  q,
		runner: r,
		config: config,
		logger: logger.With("component", "worker", "agent_id", config.ID),
		done:   make(chan struct{}),
		tasks:  make(map[uuid.UUID]*task),
	}
}

// Run starts the main pull-loop. It blocks until the context is cancelled.
// On SIGTERM, it stops dequeuing new work and allows in-flight jobs to finish.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("agent starting", "concurrency", a.config.Concurrency)

	// Semaphore to limit concurrency
	sem := make(chan struct{}, a.config.Concurrency)
	var wg sync.WaitGroup

	// Channel to signal when a slot becomes available (adaptive polling)
	pollNow := make(chan struct{}, 1)

	// Current backoff duration (increases on empty queue, resets on work found)
	currentBackoff := a.config.PollInterval

	triggerPoll := func() {
		select {
		case pollNow <- struct{}{}:
		default:
			// Already a poll pending
		}
	}

	triggerPoll()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("context cancelled, waiting for running jobs to finish", "in_flight", len(sem))
			wg.Wait()
			close(a.done)
			return ctx.Err()

		case <-time.After(currentBackoff):
			triggerPoll()

		case <-pollNow:
			availableSlots := a.config.Concurrency - len(sem)
			if availableSlots <= 0 {
				continue
			}

			items, err := a.queue.DequeueBatch(ctx, availableSlots)
			if err != nil {
				a.logger.Error("dequeue failed", "error", err)
				continue
			}

			if len(items) == 0 {
				// Empty queue - increase backoff (exponential, capped at MaxBackoff)
				currentBackoff = currentBackoff * 2
				if currentBackoff > a.config.MaxBackoff {
					currentBackoff = a.config.MaxBackoff
				}
				continue
			}

			currentBackoff = a.config.PollInterval

			a.logger.Debug("claimed video jobs", "count", len(items))

			for _, item := range items {
				sem <- struct{}{}

				wg.Add(1)
				go func(item store.QueueItem) {
					defer wg.Done()
					defer func() {
						<-sem
						// A slot is free again, poll right away.
						triggerPoll()
					}()
					a.processItem(ctx, item)
				}(item)
			}

			// If we got jobs and there are still slots available, poll again immediately
			if len(items) < availableSlots {
				triggerPoll()
			}
		}
	}
}

// Done returns a channel that is closed when the agent has fully stopped.
func (a *Agent) Done() <-chan struct{} {
	return a.done
}

// InFlight lists the jobs running on this agent, oldest first.
func (a *Agent) InFlight() []Task {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Task, 0, len(a.tasks))
	for _, t := range a.tasks {
		out = append(out, t.Task)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Cancel stops the running job for videoID. It reports whether one was found.
func (a *Agent) Cancel(videoID uuid.UUID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	t, ok := a.tasks[videoID]
	if ok {
		t.cancel()
	}
	return ok
}

func (a *Agent) register(item store.QueueItem, cancel context.CancelFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tasks[item.VideoID] = &task{
		Task:   Task{VideoID: item.VideoID, Attempt: item.Attempt, StartedAt: time.Now()},
		cancel: cancel,
	}
}

func (a *Agent) unregister(videoID uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.tasks, videoID)
}

// processItem runs a single job that has already been dequeued.
func (a *Agent) processItem(ctx context.Context, item store.QueueItem) {
	log := a.logger.With("video_id", item.VideoID, "attempt", item.Attempt)

	var payload store.QueuePayload
	if err := json.Unmarshal(item.Payload, &payload); err != nil || payload.VideoID == uuid.Nil {
		if err == nil {
			err = fmt.Errorf("missing video_id")
		}
		log.Error("invalid job payload", "error", err)
		a.fail(item.VideoID, fmt.Sprintf("Invalid payload: %v", err), log)
		return
	}

	// A job that keeps coming back has crashed its worker before.
	if item.Attempt > a.config.MaxAttempts {
		log.Warn("job exceeded max attempts", "max_attempts", a.config.MaxAttempts)
		a.fail(item.VideoID, fmt.Sprintf("Exceeded max attempts (%d)", a.config.MaxAttempts), log)
		return
	}

	traceCtx := ctx
	if payload.Trace != nil {
		traceCtx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(payload.Trace))
	}

	tracer := otel.Tracer("worker-agent")
	spanCtx, span := tracer.Start(traceCtx, "process_video",
		trace.WithAttributes(
			attribute.String("video.id", payload.VideoID.String()),
			attribute.String("prompt.id", payload.PromptID.String()),
			attribute.String("user.id", payload.UserID.String()),
			attribute.Int("queue.attempt", item.Attempt),
		),
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
	defer span.End()

	// The job outlives the poll context so SIGTERM drains instead of aborting.
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(spanCtx), a.config.JobTimeout)
	defer cancel()

	a.register(item, cancel)
	defer a.unregister(item.VideoID)

	heartbeatCtx, cancelHeartbeat := context.WithCancel(context.Background())
	defer cancelHeartbeat()
	go a.runHeartbeat(heartbeatCtx, item.VideoID, log)

	log.Info("processing video job")

	err := a.runner.Run(jobCtx, pipeline.Job{
		VideoID:  payload.VideoID,
		PromptID: payload.PromptID,
		UserID:   payload.UserID,
		Context:  payload.Context,
	})
	if err != nil {
		// The pipeline has already recorded the failure on the video.
		span.RecordError(err)
		log.Error("video job failed", "error", err)
	}

	if err := a.queue.Complete(context.Background(), nil, item.VideoID); err != nil {
		log.Error("failed to remove job from queue", "error", err)
	}
}

func (a *Agent) fail(videoID uuid.UUID, msg string, log *slog.Logger) {
	if err := a.queue.Fail(context.Background(), nil, videoID, msg); err != nil {
		log.Error("failed to fail job", "error", err)
	}
}

// runHeartbeat refreshes the visibility timeout periodically while a job is executing.
// This prevents long-running jobs from being picked up by another worker.
func (a *Agent) runHeartbeat(ctx context.Context, videoID uuid.UUID, log *slog.Logger) {
	ticker := time.NewTicker(a.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			visibleAfter := time.Now().Add(a.config.VisibilityExtension)
			if err := a.queue.SetVisibleAfter(context.Background(), nil, videoID, visibleAfter); err != nil {
				log.Warn("heartbeat failed", "error", err)
			}
		}
	}
}
