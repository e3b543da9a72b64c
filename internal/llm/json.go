package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResponse is returned when the model text is blank after cleanup.
var ErrEmptyResponse = errors.New("llm: empty response")

// StripFences removes an optional markdown code fence (```json or ```) around
// the model text.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ExtractObject returns the text from the first '{' to the last '}' of s.
// Text without such a span is returned unchanged.
func ExtractObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

// ParseJSON strips code fences from raw, drops any prose around the outermost
// JSON object and decodes it into v.
func ParseJSON(raw string, v any) error {
	s := ExtractObject(StripFences(raw))
	if s == "" {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("failed to parse model response: %w", err)
	}
	return nil
}
