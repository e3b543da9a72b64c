// Package llm wraps the chat model used to draft prompts and captions.
package llm

import (
	"context"
	"errors"
	"log/slog"
)

// Chat sends one system instruction and one user message and returns the raw
// model text.
type Chat interface {
	Send(ctx context.Context, system, user string) (string, error)
}

// ChatFunc adapts a function to the Chat interface.
type ChatFunc func(ctx context.Context, system, user string) (string, error)

func (f ChatFunc) Send(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

// ErrNotConfigured is returned by Offline.
var ErrNotConfigured = errors.New("llm: no model configured")

// Offline always fails, so generators fall back to their templates.
var Offline Chat = ChatFunc(func(context.Context, string, string) (string, error) {
	return "", ErrNotConfigured
})

// NewChat returns a Gemini client, or Offline when no API key is set.
func NewChat(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (Chat, error) {
	if cfg.APIKey == "" {
		logger.Warn("no gemini api key configured, using template fallbacks")
		return Offline, nil
	}
	return NewGemini(ctx, cfg, logger)
}
