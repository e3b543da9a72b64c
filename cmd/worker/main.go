// Package main is the entry point for the veoprompt worker.
// The worker pulls queued video jobs and runs them through the pipeline:
// render, caption, publish, record. It also sweeps jobs stuck in processing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"veoprompt/internal/caption"
	"veoprompt/internal/config"
	"veoprompt/internal/events"
	"veoprompt/internal/llm"
	"veoprompt/internal/logger"
	"veoprompt/internal/observability"
	"veoprompt/internal/pipeline"
	"veoprompt/internal/render"
	"veoprompt/internal/social"
	"veoprompt/internal/store/postgres"
	"veoprompt/internal/sweeper"
	"veoprompt/internal/worker"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file (default: veoprompt.yaml in current directory)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	fatal := func(msg string, err error) {
		logger.Error(msg, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerOptions{
		ServiceName: "veoprompt-worker",
		Endpoint:    cfg.OTELEndpoint,
		SampleRatio: cfg.OTELSampleRatio,
	})
	if err != nil {
		fatal("failed to init tracing", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("failed to shutdown tracer", "error", err)
		}
	}()

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics(ctx, "veoprompt-worker")
	if err != nil {
		fatal("failed to init metrics", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			logger.Warn("failed to shutdown metrics", "error", err)
		}
	}()

	pipelineMetrics, err := observability.NewPipelineMetrics(otel.Meter("veoprompt-worker"))
	if err != nil {
		fatal("failed to register pipeline metrics", err)
	}

	store, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal("failed to connect to database", err)
	}
	defer store.Close()

	chat, err := llm.NewChat(ctx, llm.GeminiConfig{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel}, logger)
	if err != nil {
		fatal("failed to create llm client", err)
	}

	// Without an Ark key every render degrades to the placeholder video.
	var submitter render.Submitter
	if cfg.ArkAPIKey != "" {
		submitter = render.NewArkSubmitter(cfg.ArkAPIKey, cfg.ArkBaseURL, cfg.RenderPollInterval, logger)
	} else {
		logger.Warn("no ark api key configured, renders will use the placeholder video")
	}

	publisher := social.NewPublisher(social.Config{
		AccessToken:       cfg.InstagramAccessToken,
		BusinessAccountID: cfg.InstagramBusinessAccountID,
		GraphURL:          cfg.GraphAPIURL,
		RateLimit:         cfg.GraphRateLimit,
		MockDelay:         cfg.MockPublishDelay,
	}, logger)

	notifier := newNotifier(cfg, logger)
	defer notifier.close()

	orchestrator := pipeline.New(
		store,
		render.NewRenderer(submitter, cfg.ArkModel, cfg.RenderTimeout, logger),
		caption.NewGenerator(chat, logger),
		publisher,
		pipeline.Config{
			PlaceholderURL: cfg.PlaceholderURL,
			PollAttempts:   cfg.PublishPollAttempts,
			PollInterval:   cfg.PublishPollInterval,
		},
		logger,
		pipeline.WithNotifier(notifier.Publisher),
		pipeline.WithMetrics(pipelineMetrics),
	)

	sw := sweeper.New(store, cfg.SweeperInterval, cfg.SweeperStuckAfter, logger,
		sweeper.WithNotifier(notifier.Publisher),
		sweeper.WithMetrics(pipelineMetrics),
	)
	if err := sw.Start(ctx); err != nil {
		fatal("failed to start sweeper", err)
	}
	defer sw.Stop()

	agent := worker.New(store, orchestrator, worker.AgentConfig{
		ID:                  workerID(),
		Concurrency:         cfg.WorkerConcurrency,
		PollInterval:        cfg.WorkerPollInterval,
		MaxBackoff:          cfg.WorkerMaxBackoff,
		HeartbeatInterval:   cfg.WorkerHeartbeatInterval,
		VisibilityExtension: cfg.WorkerVisibilityExtension,
		MaxAttempts:         cfg.WorkerMaxAttempts,
		JobTimeout:          cfg.WorkerJobTimeout,
	}, logger)

	logger.Info("worker started", "concurrency", cfg.WorkerConcurrency, "mock_publish", publisher.MockMode())
	go agent.Run(ctx)

	// Start a dedicated metrics server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricsHandler)
		addr := fmt.Sprintf(":%d", cfg.MetricsPort)
		logger.Info("worker metrics listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker", "in_flight", len(agent.InFlight()))
	cancel()

	<-agent.Done()
}

type notifier struct {
	events.Publisher
	close func()
}

// newNotifier publishes video events to NATS when a URL is configured.
// Events are best effort, so a failed connection only disables them.
func newNotifier(cfg *config.Config, logger *slog.Logger) notifier {
	noop := notifier{Publisher: events.NoopPublisher{}, close: func() {}}
	if cfg.NATSURL == "" {
		return noop
	}

	nc, err := events.Connect(cfg.NATSURL, logger)
	if err != nil {
		logger.Warn("video events disabled", "error", err)
		return noop
	}
	return notifier{
		Publisher: events.NewNATSPublisher(nc, cfg.NATSSubjectPrefix, logger),
		close:     func() { nc.Drain() },
	}
}

func workerID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "worker"
	}
	return host + "-" + uuid.NewString()[:8]
}
