package render

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
	"github.com/volcengine/volcengine-go-sdk/volcengine"
)

// Content generation task states reported by Ark.
const (
	taskSucceeded = "succeeded"
	taskFailed    = "failed"
	taskCancelled = "cancelled"
	taskExpired   = "expired"
)

// taskAPI is the subset of the Ark content generation API used here.
type taskAPI interface {
	createTask(ctx context.Context, model, text string) (string, error)
	getTask(ctx context.Context, id string) (status, videoURL string, err error)
}

type arkTasks struct {
	client *arkruntime.Client
}

func (a arkTasks) createTask(ctx context.Context, modelID, text string) (string, error) {
	resp, err := a.client.CreateContentGenerationTask(ctx, model.CreateContentGenerationTaskRequest{
		Model: modelID,
		Content: []*model.CreateContentGenerationContentItem{
			{
				Type: model.ContentGenerationContentItemTypeText,
				Text: volcengine.String(text),
			},
		},
	})
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (a arkTasks) getTask(ctx context.Context, id string) (string, string, error) {
	req := model.GetContentGenerationTaskRequest{}
	req.ID = id

	resp, err := a.client.GetContentGenerationTask(ctx, req)
	if err != nil {
		return "", "", err
	}
	status := strings.ToLower(resp.Status)
	if status != taskSucceeded {
		return status, "", nil
	}
	return status, resp.Content.VideoURL, nil
}

// ArkSubmitter renders through the Ark content generation API.
type ArkSubmitter struct {
	api          taskAPI
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewArkSubmitter creates a submitter. An empty baseURL uses the SDK default.
func NewArkSubmitter(apiKey, baseURL string, pollInterval time.Duration, logger *slog.Logger) *ArkSubmitter {
	var client *arkruntime.Client
	if baseURL != "" {
		client = arkruntime.NewClientWithApiKey(apiKey, arkruntime.WithBaseUrl(baseURL))
	} else {
		client = arkruntime.NewClientWithApiKey(apiKey)
	}
	return newArkSubmitter(arkTasks{client: client}, pollInterval, logger)
}

func newArkSubmitter(api taskAPI, pollInterval time.Duration, logger *slog.Logger) *ArkSubmitter {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &ArkSubmitter{
		api:          api,
		pollInterval: pollInterval,
		logger:       logger.With("component", "ark"),
	}
}

// Submit creates a content generation task. Ark reads generation parameters
// from flags appended to the text prompt.
func (s *ArkSubmitter) Submit(ctx context.Context, modelID string, args Args) (Handle, error) {
	text := fmt.Sprintf("%s --ratio %s --resolution %s --duration %d",
		strings.TrimSpace(args.Prompt), args.AspectRatio, args.Resolution, args.Duration)

	id, err := s.api.createTask(ctx, modelID, text)
	if err != nil {
		return nil, fmt.Errorf("create content generation task: %w", err)
	}
	if id == "" {
		return nil, fmt.Errorf("create content generation task: empty task id")
	}

	return &arkHandle{
		api:      s.api,
		id:       id,
		duration: args.Duration,
		interval: s.pollInterval,
		logger:   s.logger,
	}, nil
}

type arkHandle struct {
	api      taskAPI
	id       string
	duration int
	interval time.Duration
	logger   *slog.Logger
}

func (h *arkHandle) ID() string { return h.id }

// Await polls the task until it reaches a terminal state. Transient poll errors
// are logged and retried until ctx expires.
func (h *arkHandle) Await(ctx context.Context) (Output, error) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return Output{}, ctx.Err()
		case <-timer.C:
		}

		status, videoURL, err := h.api.getTask(ctx, h.id)
		switch {
		case err != nil:
			h.logger.Warn("failed to poll render task", "task_id", h.id, "error", err)
		case status == taskSucceeded:
			return Output{VideoURL: videoURL, Duration: h.duration}, nil
		case status == taskFailed || status == taskCancelled || status == taskExpired:
			return Output{}, fmt.Errorf("render task %s %s", h.id, status)
		default:
			h.logger.Debug("render task pending", "task_id", h.id, "status", status)
		}

		timer.Reset(h.interval)
	}
}
