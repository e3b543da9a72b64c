// Package config loads service configuration from a yaml file, a .env file and
// environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values for the application.
type Config struct {
	DatabaseURL string
	HTTPPort    int
	MetricsPort int

	// URL of the controller API, used by the CLI and worker health checks
	ControllerURL string

	WorkerConcurrency         int
	WorkerPollInterval        time.Duration
	WorkerMaxBackoff          time.Duration
	WorkerHeartbeatInterval   time.Duration
	WorkerVisibilityExtension time.Duration
	WorkerMaxAttempts         int
	WorkerJobTimeout          time.Duration

	OTELEndpoint    string
	OTELSampleRatio float64
	LogLevel        string
	LogFile         string

	GeminiAPIKey string
	GeminiModel  string

	ArkAPIKey          string
	ArkBaseURL         string
	ArkModel           string
	RenderTimeout      time.Duration
	RenderPollInterval time.Duration
	PlaceholderURL     string

	InstagramAccessToken       string
	InstagramBusinessAccountID string
	GraphAPIURL                string
	GraphRateLimit             float64
	PublishPollAttempts        int
	PublishPollInterval        time.Duration
	MockPublishDelay           time.Duration

	NATSURL           string
	NATSSubjectPrefix string

	SweeperInterval   time.Duration
	SweeperStuckAfter time.Duration

	AdminSecret    string
	RateLimit      float64
	RateLimitBurst int
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"database_url":                  "DATABASE_URL",
	"http_port":                     "PORT",
	"metrics_port":                  "METRICS_PORT",
	"controller_url":                "CONTROLLER_URL",
	"worker_concurrency":            "WORKER_CONCURRENCY",
	"worker_poll_interval":          "WORKER_POLL_INTERVAL",
	"worker_max_backoff":            "WORKER_MAX_BACKOFF",
	"worker_heartbeat_interval":     "WORKER_HEARTBEAT_INTERVAL",
	"worker_visibility_extension":   "WORKER_VISIBILITY_EXTENSION",
	"worker_max_attempts":           "WORKER_MAX_ATTEMPTS",
	"worker_job_timeout":            "WORKER_JOB_TIMEOUT",
	"otel_endpoint":                 "OTEL_EXPORTER_OTLP_ENDPOINT",
	"otel_sample_ratio":             "OTEL_TRACES_SAMPLER_ARG",
	"log_level":                     "LOG_LEVEL",
	"log_file":                      "LOG_FILE",
	"gemini_api_key":                "GEMINI_API_KEY",
	"gemini_model":                  "GEMINI_MODEL",
	"ark_api_key":                   "ARK_API_KEY",
	"ark_base_url":                  "ARK_BASE_URL",
	"ark_model":                     "ARK_MODEL",
	"render_timeout":                "RENDER_TIMEOUT",
	"render_poll_interval":          "RENDER_POLL_INTERVAL",
	"placeholder_video_url":         "PLACEHOLDER_VIDEO_URL",
	"instagram_access_token":        "INSTAGRAM_ACCESS_TOKEN",
	"instagram_business_account_id": "INSTAGRAM_BUSINESS_ACCOUNT_ID",
	"graph_api_url":                 "GRAPH_API_URL",
	"graph_rate_limit":              "GRAPH_RATE_LIMIT",
	"publish_poll_attempts":         "PUBLISH_POLL_ATTEMPTS",
	"publish_poll_interval":         "PUBLISH_POLL_INTERVAL",
	"mock_publish_delay":            "MOCK_PUBLISH_DELAY",
	"nats_url":                      "NATS_URL",
	"nats_subject_prefix":           "NATS_SUBJECT_PREFIX",
	"sweeper_interval":              "SWEEPER_INTERVAL",
	"sweeper_stuck_after":           "SWEEPER_STUCK_AFTER",
	"admin_secret":                  "ADMIN_SECRET",
	"rate_limit":                    "RATE_LIMIT",
	"rate_limit_burst":              "RATE_LIMIT_BURST",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_port", 6161)
	v.SetDefault("metrics_port", 6162)
	v.SetDefault("controller_url", "http://localhost:6161")

	v.SetDefault("worker_concurrency", 1)
	v.SetDefault("worker_poll_interval", time.Second)
	v.SetDefault("worker_max_backoff", 30*time.Second)
	v.SetDefault("worker_heartbeat_interval", 2*time.Minute)
	v.SetDefault("worker_visibility_extension", 5*time.Minute)
	v.SetDefault("worker_max_attempts", 3)
	v.SetDefault("worker_job_timeout", 30*time.Minute)

	v.SetDefault("otel_endpoint", "localhost:4317")
	v.SetDefault("otel_sample_ratio", 1.0)
	v.SetDefault("log_level", "info")

	v.SetDefault("gemini_model", "gemini-2.5-flash")

	v.SetDefault("ark_base_url", "https://ark.cn-beijing.volces.com/api/v3")
	v.SetDefault("ark_model", "doubao-seedance-1-0-pro-250528")
	v.SetDefault("render_timeout", 5*time.Minute)
	v.SetDefault("render_poll_interval", 5*time.Second)
	v.SetDefault("placeholder_video_url", "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ForBiggerBlazes.mp4")

	v.SetDefault("graph_api_url", "https://graph.facebook.com/v18.0")
	v.SetDefault("graph_rate_limit", 5.0)
	v.SetDefault("publish_poll_attempts", 30)
	v.SetDefault("publish_poll_interval", 2*time.Second)
	v.SetDefault("mock_publish_delay", time.Second)

	v.SetDefault("nats_subject_prefix", "veoprompt.videos")

	v.SetDefault("sweeper_interval", time.Minute)
	v.SetDefault("sweeper_stuck_after", 30*time.Minute)

	v.SetDefault("rate_limit", 10.0)
	v.SetDefault("rate_limit_burst", 20)
}

// Load reads configuration. When path is empty it looks for veoprompt.yaml in
// the working directory and silently skips it if absent. A .env file in the
// working directory is loaded into the process environment first.
func Load(path string) (*Config, error) {
	// Existing environment variables win over .env entries.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("veoprompt")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{
		DatabaseURL:   v.GetString("database_url"),
		HTTPPort:      v.GetInt("http_port"),
		MetricsPort:   v.GetInt("metrics_port"),
		ControllerURL: v.GetString("controller_url"),

		WorkerConcurrency:         v.GetInt("worker_concurrency"),
		WorkerPollInterval:        v.GetDuration("worker_poll_interval"),
		WorkerMaxBackoff:          v.GetDuration("worker_max_backoff"),
		WorkerHeartbeatInterval:   v.GetDuration("worker_heartbeat_interval"),
		WorkerVisibilityExtension: v.GetDuration("worker_visibility_extension"),
		WorkerMaxAttempts:         v.GetInt("worker_max_attempts"),
		WorkerJobTimeout:          v.GetDuration("worker_job_timeout"),

		OTELEndpoint:    v.GetString("otel_endpoint"),
		OTELSampleRatio: v.GetFloat64("otel_sample_ratio"),
		LogLevel:        strings.ToLower(v.GetString("log_level")),
		LogFile:         v.GetString("log_file"),

		GeminiAPIKey: v.GetString("gemini_api_key"),
		GeminiModel:  v.GetString("gemini_model"),

		ArkAPIKey:          v.GetString("ark_api_key"),
		ArkBaseURL:         v.GetString("ark_base_url"),
		ArkModel:           v.GetString("ark_model"),
		RenderTimeout:      v.GetDuration("render_timeout"),
		RenderPollInterval: v.GetDuration("render_poll_interval"),
		PlaceholderURL:     v.GetString("placeholder_video_url"),

		InstagramAccessToken:       v.GetString("instagram_access_token"),
		InstagramBusinessAccountID: v.GetString("instagram_business_account_id"),
		GraphAPIURL:                strings.TrimRight(v.GetString("graph_api_url"), "/"),
		GraphRateLimit:             v.GetFloat64("graph_rate_limit"),
		PublishPollAttempts:        v.GetInt("publish_poll_attempts"),
		PublishPollInterval:        v.GetDuration("publish_poll_interval"),
		MockPublishDelay:           v.GetDuration("mock_publish_delay"),

		NATSURL:           v.GetString("nats_url"),
		NATSSubjectPrefix: v.GetString("nats_subject_prefix"),

		SweeperInterval:   v.GetDuration("sweeper_interval"),
		SweeperStuckAfter: v.GetDuration("sweeper_stuck_after"),

		AdminSecret:    v.GetString("admin_secret"),
		RateLimit:      v.GetFloat64("rate_limit"),
		RateLimitBurst: v.GetInt("rate_limit_burst"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database_url is required (env: DATABASE_URL)")
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log_level %q (want debug, info, warn or error)", cfg.LogLevel)
	}

	if cfg.PublishPollAttempts < 0 {
		return nil, fmt.Errorf("publish_poll_attempts must not be negative")
	}

	if cfg.OTELSampleRatio < 0 || cfg.OTELSampleRatio > 1 {
		return nil, fmt.Errorf("otel_sample_ratio must be between 0 and 1, got %v", cfg.OTELSampleRatio)
	}

	return cfg, nil
}
