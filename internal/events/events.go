// Package events announces terminal video states to other services.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// VideoEvent is published once a video reaches completed or failed.
type VideoEvent struct {
	VideoID    string    `json:"video_id"`
	UserID     string    `json:"user_id"`
	PromptID   string    `json:"prompt_id"`
	Status     string    `json:"status"`
	VideoURL   string    `json:"video_url,omitempty"`
	PostID     string    `json:"post_id,omitempty"`
	PostURL    string    `json:"post_url,omitempty"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher sends video events.
type Publisher interface {
	PublishVideo(ctx context.Context, event VideoEvent) error
}

// conn is the part of *nats.Conn used for publishing.
type conn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes events on "<prefix>.<status>".
type NATSPublisher struct {
	nc     conn
	prefix string
	logger *slog.Logger
}

func NewNATSPublisher(nc *nats.Conn, prefix string, logger *slog.Logger) *NATSPublisher {
	return newNATSPublisher(nc, prefix, logger)
}

func newNATSPublisher(nc conn, prefix string, logger *slog.Logger) *NATSPublisher {
	if prefix == "" {
		prefix = "veoprompt.videos"
	}
	return &NATSPublisher{
		nc:     nc,
		prefix: strings.TrimSuffix(prefix, "."),
		logger: logger.With("component", "nats_publisher"),
	}
}

// Connect dials NATS with reconnects enabled.
func Connect(url string, logger *slog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("veoprompt"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return nc, nil
}

func (p *NATSPublisher) PublishVideo(ctx context.Context, event VideoEvent) error {
	subject := p.prefix + "." + event.Status

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal video event: %w", err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish video event: %w", err)
	}

	p.logger.DebugContext(ctx, "video event sent", "subject", subject, "video_id", event.VideoID)
	return nil
}

// NoopPublisher drops events. It is used when NATS is not configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishVideo(context.Context, VideoEvent) error { return nil }

var (
	_ Publisher = (*NATSPublisher)(nil)
	_ Publisher = NoopPublisher{}
)
