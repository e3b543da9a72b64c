package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
	if err.Error() != "database_url is required (env: DATABASE_URL)" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != 6161 {
		t.Errorf("expected HTTPPort 6161, got %d", cfg.HTTPPort)
	}
	if cfg.ControllerURL != "http://localhost:6161" {
		t.Errorf("expected ControllerURL http://localhost:6161, got %s", cfg.ControllerURL)
	}
	if cfg.WorkerVisibilityExtension != 5*time.Minute {
		t.Errorf("expected WorkerVisibilityExtension 5m, got %v", cfg.WorkerVisibilityExtension)
	}
	if cfg.WorkerMaxAttempts != 3 {
		t.Errorf("expected WorkerMaxAttempts 3, got %d", cfg.WorkerMaxAttempts)
	}
	if cfg.WorkerJobTimeout != 30*time.Minute {
		t.Errorf("expected WorkerJobTimeout 30m, got %v", cfg.WorkerJobTimeout)
	}
	if cfg.WorkerPollInterval != time.Second {
		t.Errorf("expected WorkerPollInterval 1s, got %v", cfg.WorkerPollInterval)
	}
	if cfg.PublishPollAttempts != 30 {
		t.Errorf("expected PublishPollAttempts 30, got %d", cfg.PublishPollAttempts)
	}
	if cfg.PublishPollInterval != 2*time.Second {
		t.Errorf("expected PublishPollInterval 2s, got %v", cfg.PublishPollInterval)
	}
	if cfg.GraphAPIURL != "https://graph.facebook.com/v18.0" {
		t.Errorf("unexpected GraphAPIURL %s", cfg.GraphAPIURL)
	}
	if cfg.SweeperStuckAfter != 30*time.Minute {
		t.Errorf("expected SweeperStuckAfter 30m, got %v", cfg.SweeperStuckAfter)
	}
	if cfg.PlaceholderURL == "" {
		t.Error("expected a default placeholder video URL")
	}
	if cfg.OTELEndpoint != "localhost:4317" {
		t.Errorf("expected OTELEndpoint localhost:4317, got %s", cfg.OTELEndpoint)
	}
	if cfg.OTELSampleRatio != 1.0 {
		t.Errorf("expected OTELSampleRatio 1.0, got %v", cfg.OTELSampleRatio)
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://custom/db")
	t.Setenv("PORT", "9999")
	t.Setenv("WORKER_CONCURRENCY", "5")
	t.Setenv("WORKER_POLL_INTERVAL", "2s")
	t.Setenv("INSTAGRAM_ACCESS_TOKEN", "token")
	t.Setenv("GRAPH_API_URL", "http://graph.local/")
	t.Setenv("PUBLISH_POLL_ATTEMPTS", "4")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DatabaseURL != "postgres://custom/db" {
		t.Errorf("expected DatabaseURL from env, got %s", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != 9999 {
		t.Errorf("expected HTTPPort 9999, got %d", cfg.HTTPPort)
	}
	if cfg.WorkerConcurrency != 5 {
		t.Errorf("expected WorkerConcurrency 5, got %d", cfg.WorkerConcurrency)
	}
	if cfg.WorkerPollInterval != 2*time.Second {
		t.Errorf("expected WorkerPollInterval 2s, got %v", cfg.WorkerPollInterval)
	}
	if cfg.InstagramAccessToken != "token" {
		t.Errorf("expected InstagramAccessToken from env, got %q", cfg.InstagramAccessToken)
	}
	if cfg.GraphAPIURL != "http://graph.local" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.GraphAPIURL)
	}
	if cfg.PublishPollAttempts != 4 {
		t.Errorf("expected PublishPollAttempts 4, got %d", cfg.PublishPollAttempts)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected LogLevel debug, got %s", cfg.LogLevel)
	}
}

func TestLoad_InvalidSampleRatio(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "1.5")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for sample ratio above 1")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("LOG_LEVEL", "verbose")

	if _, err := Load(""); err == nil {
		t.Error("expected error for invalid log level")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "veoprompt-test-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	configContent := `
database_url: "postgres://config-file/db"
http_port: 7777
worker_concurrency: 10
render_timeout: 90s
`
	if _, err := tmpFile.WriteString(configContent); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	tmpFile.Close()

	// Empty env vars are treated as unset.
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("WORKER_CONCURRENCY", "")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DatabaseURL != "postgres://config-file/db" {
		t.Errorf("expected DatabaseURL from config file, got %s", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != 7777 {
		t.Errorf("expected HTTPPort 7777, got %d", cfg.HTTPPort)
	}
	if cfg.WorkerConcurrency != 10 {
		t.Errorf("expected WorkerConcurrency 10, got %d", cfg.WorkerConcurrency)
	}
	if cfg.RenderTimeout != 90*time.Second {
		t.Errorf("expected RenderTimeout 90s, got %v", cfg.RenderTimeout)
	}
}

func TestLoad_EnvOverridesConfigFile(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "veoprompt-test-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	configContent := `
database_url: "postgres://from-file/db"
http_port: 7777
`
	if _, err := tmpFile.WriteString(configContent); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	tmpFile.Close()

	t.Setenv("DATABASE_URL", "postgres://from-env/db")
	t.Setenv("PORT", "8888")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DatabaseURL != "postgres://from-env/db" {
		t.Errorf("expected DatabaseURL from env, got %s", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != 8888 {
		t.Errorf("expected HTTPPort 8888 from env, got %d", cfg.HTTPPort)
	}
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	_, err := Load("/nonexistent/path/to/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent config file")
	}
}
