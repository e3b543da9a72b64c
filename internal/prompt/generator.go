// Package prompt drafts scene-by-scene video prompts with an LLM and falls
// back to a deterministic template when the model cannot be used.
package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"veoprompt/internal/llm"
	"veoprompt/internal/store"
)

// SystemInstruction is sent with every prompt request.
const SystemInstruction = `You are an expert AI Video Prompt Engineer specialized in creating highly optimized, cinematic video prompts for short-form content platforms like Instagram Reels, YouTube Shorts, and TikTok.

Your task is to generate detailed, scene-by-scene video prompts that maximize viewer retention and engagement. Every prompt you create must follow this structure:

1. HOOK (First 3 seconds) - The most critical element. Must immediately capture attention.
2. SCENE BREAKDOWN - Detailed visual descriptions scene by scene
3. VISUAL STYLE - Specific cinematography, lighting, and color grading
4. CAMERA MOVEMENTS - Dynamic shots, transitions
5. TEXT OVERLAYS - Safe for mobile, impactful copy
6. PACING & EMOTION - Rhythm and emotional arc
7. AUDIO SUGGESTIONS - Music style, sound effects
8. CONSTRAINTS - Always vertical 9:16, no watermarks, subtitle-friendly

Your prompts should be specific enough for AI video generation tools to produce consistent, high-quality results.

Always respond in valid JSON format with this exact structure:
{
    "hook": {
        "description": "visual description of first 3 seconds",
        "text_overlay": "attention-grabbing text",
        "emotion": "emotion to evoke"
    },
    "scenes": [
        {
            "scene_number": 1,
            "duration_seconds": 5,
            "visual_description": "detailed visual",
            "camera_movement": "type of movement",
            "text_overlay": "optional text",
            "transition_to_next": "transition type"
        }
    ],
    "visual_style": {
        "cinematography": "style description",
        "lighting": "lighting setup",
        "color_grade": "color palette",
        "mood": "overall mood"
    },
    "audio": {
        "music_style": "genre/tempo",
        "sound_effects": ["effect1", "effect2"],
        "voiceover": "if applicable"
    },
    "metadata": {
        "aspect_ratio": "9:16",
        "total_duration": 30,
        "platform_optimization": "platform name",
        "retention_hooks": ["hook1", "hook2"]
    }
}`

// Result is the outcome of one generation. Prompt is always schema-complete,
// even when Success is false.
type Result struct {
	Success bool
	Prompt  store.StructuredPrompt
	RawText string
	Error   string
}

// Generator turns a VideoRequest into a StructuredPrompt.
type Generator struct {
	chat   llm.Chat
	logger *slog.Logger
}

func NewGenerator(chat llm.Chat, logger *slog.Logger) *Generator {
	return &Generator{chat: chat, logger: logger.With("component", "prompt_generator")}
}

// Generate calls the model once. Any failure yields the default template.
func (g *Generator) Generate(ctx context.Context, req store.VideoRequest) Result {
	raw, err := g.chat.Send(ctx, SystemInstruction, BuildUserText(req))
	if err != nil {
		g.logger.Error("prompt generation failed", "niche", req.Niche, "error", err)
		return fallback(req, err)
	}

	var p store.StructuredPrompt
	if err := llm.ParseJSON(raw, &p); err != nil {
		g.logger.Error("prompt response not parseable", "niche", req.Niche, "error", err)
		return fallback(req, err)
	}

	return Result{
		Success: true,
		Prompt:  complete(p, Default(req)),
		RawText: raw,
	}
}

// BuildUserText renders the request as the user message.
func BuildUserText(req store.VideoRequest) string {
	var b strings.Builder
	b.WriteString("Create a highly engaging short-form video prompt with these specifications:\n\n")
	fmt.Fprintf(&b, "NICHE/TOPIC: %s\n", req.Niche)
	fmt.Fprintf(&b, "TARGET PLATFORM: %s\n", req.Platform)
	fmt.Fprintf(&b, "VIDEO LENGTH: %d seconds\n", req.VideoLength)
	fmt.Fprintf(&b, "TONE: %s\n", req.Tone)
	fmt.Fprintf(&b, "GOAL: %s\n", req.Goal)
	if req.CustomIdea != "" {
		fmt.Fprintf(&b, "CUSTOM IDEA: %s\n", req.CustomIdea)
	}
	fmt.Fprintf(&b, "\nGenerate a complete video prompt following the exact JSON structure specified. "+
		"Make it highly specific, visually compelling, and optimized for maximum engagement and retention on %s.", req.Platform)
	return b.String()
}

// Default is the template used when the model is unavailable.
func Default(req store.VideoRequest) store.StructuredPrompt {
	return store.StructuredPrompt{
		Hook: store.Hook{
			Description: fmt.Sprintf("Captivating %s opening shot", req.Niche),
			TextOverlay: fmt.Sprintf("You won't believe this %s secret...", req.Niche),
			Emotion:     "curiosity",
		},
		Scenes: []store.Scene{{
			SceneNumber:       1,
			DurationSeconds:   req.VideoLength / 3,
			VisualDescription: fmt.Sprintf("Dynamic %s content establishing shot", req.Niche),
			CameraMovement:    "slow zoom",
			TextOverlay:       "",
			TransitionToNext:  "smooth fade",
		}},
		VisualStyle: store.VisualStyle{
			Cinematography: req.Tone,
			Lighting:       "professional studio",
			ColorGrade:     "modern cinematic",
			Mood:           req.Tone,
		},
		Audio: store.Audio{
			MusicStyle:   fmt.Sprintf("%s background track", req.Tone),
			SoundEffects: []string{},
			Voiceover:    "optional narration",
		},
		Metadata: store.PromptMetadata{
			AspectRatio:          "9:16",
			TotalDuration:        req.VideoLength,
			PlatformOptimization: req.Platform,
			RetentionHooks:       []string{"opening hook", "mid-video reveal"},
		},
	}
}

func fallback(req store.VideoRequest, err error) Result {
	return Result{
		Success: false,
		Prompt:  Default(req),
		RawText: fmt.Sprintf("Generated default template for %s", req.Niche),
		Error:   err.Error(),
	}
}

// complete fills sections the model left out from def.
func complete(p, def store.StructuredPrompt) store.StructuredPrompt {
	if p.Hook.Description == "" {
		p.Hook = def.Hook
	}
	if len(p.Scenes) == 0 {
		p.Scenes = def.Scenes
	}
	for i := range p.Scenes {
		if p.Scenes[i].SceneNumber == 0 {
			p.Scenes[i].SceneNumber = i + 1
		}
	}
	if p.VisualStyle == (store.VisualStyle{}) {
		p.VisualStyle = def.VisualStyle
	}
	if p.Audio.MusicStyle == "" && p.Audio.Voiceover == "" {
		p.Audio.MusicStyle = def.Audio.MusicStyle
		p.Audio.Voiceover = def.Audio.Voiceover
	}
	if p.Audio.SoundEffects == nil {
		p.Audio.SoundEffects = []string{}
	}
	if p.Metadata.AspectRatio == "" {
		p.Metadata.AspectRatio = def.Metadata.AspectRatio
	}
	if p.Metadata.TotalDuration == 0 {
		p.Metadata.TotalDuration = def.Metadata.TotalDuration
	}
	if p.Metadata.PlatformOptimization == "" {
		p.Metadata.PlatformOptimization = def.Metadata.PlatformOptimization
	}
	if p.Metadata.RetentionHooks == nil {
		p.Metadata.RetentionHooks = def.Metadata.RetentionHooks
	}
	return p
}
