package render

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockSubmitter struct {
	SubmitFunc func(ctx context.Context, model string, args Args) (Handle, error)
	calls      []Args
}

func (m *mockSubmitter) Submit(ctx context.Context, model string, args Args) (Handle, error) {
	m.calls = append(m.calls, args)
	return m.SubmitFunc(ctx, model, args)
}

type mockHandle struct {
	AwaitFunc func(ctx context.Context) (Output, error)
}

func (h *mockHandle) ID() string { return "task-1" }

func (h *mockHandle) Await(ctx context.Context) (Output, error) {
	return h.AwaitFunc(ctx)
}

func TestQuantizeDuration(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 5},
		{5, 5},
		{20, 5},
		{30, 5},
		{31, 10},
		{60, 10},
		{600, 10},
	}
	for _, tt := range tests {
		if got := QuantizeDuration(tt.in); got != tt.want {
			t.Errorf("QuantizeDuration(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRender_Success(t *testing.T) {
	sub := &mockSubmitter{SubmitFunc: func(ctx context.Context, model string, args Args) (Handle, error) {
		if model != "seedance" {
			t.Errorf("got model %q", model)
		}
		return &mockHandle{AwaitFunc: func(ctx context.Context) (Output, error) {
			return Output{VideoURL: "https://cdn.example.com/v.mp4"}, nil
		}}, nil
	}}

	r := NewRenderer(sub, "seedance", time.Second, discardLogger())
	res := r.Render(context.Background(), "Steam rises. Beans pour", 20)

	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}
	if res.VideoURL != "https://cdn.example.com/v.mp4" || res.Duration != 5 {
		t.Errorf("unexpected result %+v", res)
	}
	if len(sub.calls) != 1 {
		t.Fatalf("expected one submission, got %d", len(sub.calls))
	}
	if got := sub.calls[0]; got.AspectRatio != "9:16" || got.Resolution != "1080p" || got.Duration != 5 {
		t.Errorf("unexpected args %+v", got)
	}
}

func TestRender_Failures(t *testing.T) {
	tests := []struct {
		name string
		sub  Submitter
	}{
		{"no backend", nil},
		{"submit error", &mockSubmitter{SubmitFunc: func(ctx context.Context, model string, args Args) (Handle, error) {
			return nil, errors.New("quota exceeded")
		}}},
		{"await error", &mockSubmitter{SubmitFunc: func(ctx context.Context, model string, args Args) (Handle, error) {
			return &mockHandle{AwaitFunc: func(ctx context.Context) (Output, error) {
				return Output{}, errors.New("task failed")
			}}, nil
		}}},
		{"empty url", &mockSubmitter{SubmitFunc: func(ctx context.Context, model string, args Args) (Handle, error) {
			return &mockHandle{AwaitFunc: func(ctx context.Context) (Output, error) {
				return Output{}, nil
			}}, nil
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewRenderer(tt.sub, "m", time.Second, discardLogger()).Render(context.Background(), "p", 45)
			if res.Success {
				t.Fatal("expected failure")
			}
			if res.Error == "" {
				t.Error("expected error text")
			}
		})
	}
}

func TestRender_AwaitBoundedByTimeout(t *testing.T) {
	sub := &mockSubmitter{SubmitFunc: func(ctx context.Context, model string, args Args) (Handle, error) {
		return &mockHandle{AwaitFunc: func(ctx context.Context) (Output, error) {
			<-ctx.Done()
			return Output{}, ctx.Err()
		}}, nil
	}}

	start := time.Now()
	res := NewRenderer(sub, "m", 50*time.Millisecond, discardLogger()).Render(context.Background(), "p", 10)
	if res.Success {
		t.Fatal("expected timeout failure")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("render wait not bounded, took %v", elapsed)
	}
}
