package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics records video pipeline outcomes. A nil *PipelineMetrics is
// valid and records nothing.
type PipelineMetrics struct {
	completed       metric.Int64Counter
	failed          metric.Int64Counter
	renderFallbacks metric.Int64Counter
	publishFailures metric.Int64Counter
	duration        metric.Float64Histogram
}

// NewPipelineMetrics registers the pipeline instruments on meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	m := &PipelineMetrics{}
	var err error

	if m.completed, err = meter.Int64Counter("veoprompt.videos.completed",
		metric.WithDescription("Videos that reached the completed state")); err != nil {
		return nil, fmt.Errorf("failed to create completed counter: %w", err)
	}
	if m.failed, err = meter.Int64Counter("veoprompt.videos.failed",
		metric.WithDescription("Videos that reached the failed state")); err != nil {
		return nil, fmt.Errorf("failed to create failed counter: %w", err)
	}
	if m.renderFallbacks, err = meter.Int64Counter("veoprompt.render.fallbacks",
		metric.WithDescription("Renders that fell back to the placeholder video")); err != nil {
		return nil, fmt.Errorf("failed to create render fallback counter: %w", err)
	}
	if m.publishFailures, err = meter.Int64Counter("veoprompt.publish.failures",
		metric.WithDescription("Social publishes that did not produce a post")); err != nil {
		return nil, fmt.Errorf("failed to create publish failure counter: %w", err)
	}
	if m.duration, err = meter.Float64Histogram("veoprompt.pipeline.duration",
		metric.WithDescription("Wall time of one pipeline run"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return m, nil
}

func (m *PipelineMetrics) VideoCompleted(ctx context.Context, platform string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("platform", platform))
	m.completed.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *PipelineMetrics) VideoFailed(ctx context.Context) {
	if m == nil {
		return
	}
	m.failed.Add(ctx, 1)
}

func (m *PipelineMetrics) RenderFallback(ctx context.Context) {
	if m == nil {
		return
	}
	m.renderFallbacks.Add(ctx, 1)
}

func (m *PipelineMetrics) PublishFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.publishFailures.Add(ctx, 1)
}
