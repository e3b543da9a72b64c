// Package caption writes post captions and hashtag sets for finished videos.
package caption

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"veoprompt/internal/llm"
)

const (
	minHashtags = 5
	maxHashtags = 10
)

// DefaultHashtags is used when the model is unavailable and to pad short sets.
var DefaultHashtags = []string{"#viral", "#trending", "#reels", "#explore", "#fyp"}

// SystemInstruction is sent with every caption request.
const SystemInstruction = `You are a social media copywriter for short-form vertical video.
Write one caption of at most 125 characters that stops the scroll and fits the requested tone,
plus between 5 and 10 relevant hashtags mixing broad and niche tags.

Always respond in valid JSON format with this exact structure:
{
    "caption": "caption text",
    "hashtags": ["#tag1", "#tag2"]
}`

var errEmptyCaption = errors.New("model returned an empty caption")

// Request describes the video a caption is written for.
type Request struct {
	Niche       string
	Tone        string
	Platform    string
	VideoLength int
	Goal        string
	VideoTopic  string
}

// Result always carries a usable caption and hashtags; Success reports whether
// they came from the model.
type Result struct {
	Success  bool
	Caption  string
	Hashtags []string
	Error    string
}

type Generator struct {
	chat   llm.Chat
	logger *slog.Logger
}

func NewGenerator(chat llm.Chat, logger *slog.Logger) *Generator {
	return &Generator{chat: chat, logger: logger.With("component", "caption_generator")}
}

type response struct {
	Caption  string          `json:"caption"`
	Hashtags json.RawMessage `json:"hashtags"`
}

func (g *Generator) Generate(ctx context.Context, req Request) Result {
	raw, err := g.chat.Send(ctx, SystemInstruction, buildUserText(req))
	if err != nil {
		g.logger.Error("caption generation failed", "niche", req.Niche, "error", err)
		return Fallback(req, err)
	}

	var resp response
	if err := llm.ParseJSON(raw, &resp); err != nil {
		g.logger.Error("caption response not parseable", "niche", req.Niche, "error", err)
		return Fallback(req, err)
	}

	text := strings.TrimSpace(resp.Caption)
	if text == "" {
		g.logger.Warn("caption response had no caption", "niche", req.Niche)
		return Fallback(req, errEmptyCaption)
	}

	return Result{
		Success:  true,
		Caption:  text,
		Hashtags: fitHashtags(NormalizeHashtags(decodeHashtags(resp.Hashtags))),
	}
}

// Fallback builds the template caption for req.
func Fallback(req Request, err error) Result {
	res := Result{
		Caption:  fmt.Sprintf("Check out this amazing %s content!", req.Niche),
		Hashtags: append([]string(nil), DefaultHashtags...),
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// NormalizeHashtags trims each tag, drops blanks and ensures a single leading
// '#'. Applying it twice gives the same result.
func NormalizeHashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimLeft(strings.TrimSpace(tag), "#")
		tag = strings.Join(strings.Fields(tag), "")
		if tag == "" {
			continue
		}
		out = append(out, "#"+tag)
	}
	return out
}

// decodeHashtags accepts only a JSON list; anything else yields no tags.
// Non-string entries are skipped.
func decodeHashtags(raw json.RawMessage) []string {
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	tags := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			tags = append(tags, s)
		}
	}
	return tags
}

// fitHashtags dedupes tags and keeps the set between minHashtags and
// maxHashtags, padding from DefaultHashtags.
func fitHashtags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, maxHashtags)
	add := func(tag string) {
		key := strings.ToLower(tag)
		if seen[key] || len(out) >= maxHashtags {
			return
		}
		seen[key] = true
		out = append(out, tag)
	}
	for _, tag := range tags {
		add(tag)
	}
	for _, tag := range DefaultHashtags {
		if len(out) >= minHashtags {
			break
		}
		add(tag)
	}
	return out
}

func buildUserText(req Request) string {
	topic := req.VideoTopic
	if topic == "" {
		topic = req.Niche
	}

	var b strings.Builder
	b.WriteString("Write a caption and hashtags for this short-form video:\n\n")
	fmt.Fprintf(&b, "NICHE: %s\n", req.Niche)
	fmt.Fprintf(&b, "VIDEO TOPIC: %s\n", topic)
	fmt.Fprintf(&b, "PLATFORM: %s\n", req.Platform)
	fmt.Fprintf(&b, "VIDEO LENGTH: %d seconds\n", req.VideoLength)
	fmt.Fprintf(&b, "TONE: %s\n", req.Tone)
	fmt.Fprintf(&b, "GOAL: %s\n", req.Goal)
	return b.String()
}
