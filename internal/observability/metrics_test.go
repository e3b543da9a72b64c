package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
)

// newScraper installs a fresh meter provider and returns a function that
// fetches the current /metrics exposition.
func newScraper(t *testing.T) func() string {
	t.Helper()

	handler, shutdown, err := InitMetrics(context.Background(), "veoprompt-test")
	if err != nil {
		t.Fatalf("InitMetrics failed: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = shutdown(ctx)
	})

	return func() string {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("scrape returned %d", rr.Code)
		}
		return rr.Body.String()
	}
}

func TestInitMetrics_ExposesRuntimeAndInstruments(t *testing.T) {
	scrape := newScraper(t)

	counter, err := otel.Meter("test-meter").Int64Counter("veoprompt_test_requests")
	if err != nil {
		t.Fatalf("failed to create counter: %v", err)
	}
	counter.Add(context.Background(), 42)

	body := scrape()
	for _, want := range []string{
		"go_goroutines",
		"process_",
		"veoprompt_test_requests",
		`service_name="veoprompt-test"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in scrape output", want)
		}
	}
	if !strings.Contains(body, " 42") {
		t.Errorf("expected counter value 42 in output:\n%s", body)
	}
}

func TestInitMetrics_SeparateRegistries(t *testing.T) {
	// A second init must not collide with the first registration.
	newScraper(t)
	scrape := newScraper(t)

	if !strings.Contains(scrape(), "go_goroutines") {
		t.Error("expected runtime metrics on the second registry")
	}
}

func TestPipelineMetrics_Exported(t *testing.T) {
	scrape := newScraper(t)
	ctx := context.Background()

	m, err := NewPipelineMetrics(otel.Meter("veoprompt-test"))
	if err != nil {
		t.Fatalf("NewPipelineMetrics failed: %v", err)
	}
	m.VideoCompleted(ctx, "instagram", 3*time.Second)
	m.RenderFallback(ctx)
	m.PublishFailure(ctx)
	m.VideoFailed(ctx)

	body := scrape()
	for _, name := range []string{
		"veoprompt_videos_completed",
		"veoprompt_videos_failed",
		"veoprompt_render_fallbacks",
		"veoprompt_publish_failures",
		"veoprompt_pipeline_duration",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("expected %s in output", name)
		}
	}
}

func TestPipelineMetrics_NilIsNoop(t *testing.T) {
	var m *PipelineMetrics
	ctx := context.Background()

	m.VideoCompleted(ctx, "instagram", time.Second)
	m.VideoFailed(ctx)
	m.RenderFallback(ctx)
	m.PublishFailure(ctx)
}
