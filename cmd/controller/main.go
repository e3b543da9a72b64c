// Package main is the entry point for the veoprompt controller.
// The controller serves the HTTP API and enqueues video jobs for the workers.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"veoprompt/internal/config"
	"veoprompt/internal/controller"
	"veoprompt/internal/controller/handlers"
	"veoprompt/internal/llm"
	"veoprompt/internal/logger"
	"veoprompt/internal/observability"
	"veoprompt/internal/prompt"
	"veoprompt/internal/social"
	"veoprompt/internal/store/postgres"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

func main() {
	// Parse flags
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	configPath := flag.String("config", "", "Path to config file (default: veoprompt.yaml in current directory)")
	flag.Parse()

	// Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	fatal := func(msg string, err error) {
		logger.Error(msg, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Connect to Postgres (the "Store")
	store, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal("failed to connect to database", err)
	}
	defer store.Close()

	if *migrateFlag {
		logger.Info("running database migrations")
		version, err := postgres.Migrate(store.DB())
		if err != nil {
			fatal("migration failed", err)
		}
		logger.Info("migrations completed", "schema_version", version)
	}

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerOptions{
		ServiceName: "veoprompt-controller",
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
	metricsHandler, shutdownMetrics, err := observability.InitMetrics(ctx, "veoprompt-controller")
	if err != nil {
		fatal("failed to init metrics", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			logger.Warn("failed to shutdown metrics", "error", err)
		}
	}()

	// Use an Observable Gauge (Async) that queries the DB only when scraped.
	meter := otel.Meter("veoprompt-controller")
	_, err = meter.Int64ObservableGauge("veoprompt.queue.depth",
		metric.WithDescription("Current number of video jobs in the queue"),
		metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
			count, err := store.Count(ctx)
			if err != nil {
				logger.Warn("failed to count queue depth", "error", err)
				return nil // Don't crash metrics scrape on DB error
			}
			obs.Observe(count)
			return nil
		}),
	)
	if err != nil {
		logger.Warn("failed to register queue depth metric", "error", err)
	}

	chat, err := llm.NewChat(ctx, llm.GeminiConfig{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel}, logger)
	if err != nil {
		fatal("failed to create llm client", err)
	}

	publisher := social.NewPublisher(social.Config{
		AccessToken:       cfg.InstagramAccessToken,
		BusinessAccountID: cfg.InstagramBusinessAccountID,
		GraphURL:          cfg.GraphAPIURL,
		RateLimit:         cfg.GraphRateLimit,
	}, logger)

	h := handlers.New(store, prompt.NewGenerator(chat, logger), publisher, logger)

	// Start Server
	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := controller.New(addr, h, store, controller.Options{
		AdminSecret:    cfg.AdminSecret,
		RateLimit:      cfg.RateLimit,
		RateLimitBurst: cfg.RateLimitBurst,
		MetricsHandler: metricsHandler,
	}, logger)

	if cfg.AdminSecret == "" {
		logger.Warn("ADMIN_SECRET not set, user registration and internal endpoints are disabled")
	}

	go func() {
		logger.Info("veoprompt controller starting", "addr", addr)
		if err := srv.Run(ctx); err != nil {
			logger.Error("server stopped", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down controller")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		fatal("server forced to shutdown", err)
	}
	logger.Info("server exited properly")
}
