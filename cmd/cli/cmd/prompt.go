package cmd

import (
	"bytes"
	"encoding/json"

	"veoprompt/pkg/api"

	"github.com/spf13/cobra"
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Generate and manage video prompts",
}

var promptGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a structured video prompt",
	Long: `Generate a scene-by-scene video prompt from a short brief.
Omitted fields use the server defaults (instagram, 30s, cinematic, engagement).

Example:
  veoctl prompt generate --niche "specialty coffee" --tone cozy --length 20`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		niche, _ := flags.GetString("niche")
		platform, _ := flags.GetString("platform")
		length, _ := flags.GetInt("length")
		tone, _ := flags.GetString("tone")
		goal, _ := flags.GetString("goal")
		idea, _ := flags.GetString("idea")
		project, _ := flags.GetString("project")
		raw, _ := flags.GetBool("json")

		if niche == "" {
			cmd.Println("Error: --niche is required")
			return
		}

		client := newClient(cmd)
		if client == nil {
			return
		}

		p, err := client.GeneratePrompt(api.GeneratePromptRequest{
			Niche:       niche,
			Platform:    platform,
			VideoLength: length,
			Tone:        tone,
			Goal:        goal,
			CustomIdea:  idea,
			ProjectID:   project,
		})
		if err != nil {
			printError(cmd, err)
			return
		}

		printPrompt(cmd, p, raw)
	},
}

var promptGetCmd = &cobra.Command{
	Use:   "get [prompt_id]",
	Short: "Show a prompt",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		raw, _ := cmd.Flags().GetBool("json")

		client := newClient(cmd)
		if client == nil {
			return
		}

		p, err := client.GetPrompt(args[0])
		if err != nil {
			printError(cmd, err)
			return
		}
		printPrompt(cmd, p, raw)
	},
}

var promptListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your prompts, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		client := newClient(cmd)
		if client == nil {
			return
		}

		prompts, err := client.ListPrompts(limit, offset)
		if err != nil {
			printError(cmd, err)
			return
		}
		if len(prompts) == 0 {
			cmd.Println("No prompts yet.")
			return
		}

		for _, p := range prompts {
			cmd.Printf("%s  %-24s %-10s %3ds  %s\n", p.ID, truncate(p.Niche, 24), p.Platform, p.VideoLength, colorizeStatus(p.Status))
		}
	},
}

var promptApproveCmd = &cobra.Command{
	Use:   "approve [prompt_id]",
	Short: "Approve a prompt for video generation",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient(cmd)
		if client == nil {
			return
		}

		if err := client.ApprovePrompt(args[0]); err != nil {
			printError(cmd, err)
			return
		}
		cmd.Printf("✓ Prompt %s approved\n", args[0])
	},
}

// promptView is the part of the generated prompt shown in the terminal.
type promptView struct {
	Hook struct {
		Description string `json:"description"`
		TextOverlay string `json:"text_overlay"`
	} `json:"hook"`
	Scenes []struct {
		SceneNumber       int    `json:"scene_number"`
		DurationSeconds   int    `json:"duration_seconds"`
		VisualDescription string `json:"visual_description"`
	} `json:"scenes"`
}

func printPrompt(cmd *cobra.Command, p *api.PromptResponse, raw bool) {
	if raw {
		var out bytes.Buffer
		if err := json.Indent(&out, p.GeneratedPrompt, "", "  "); err != nil {
			cmd.Println(string(p.GeneratedPrompt))
			return
		}
		cmd.Println(out.String())
		return
	}

	header(cmd, statusIcon(p.Status), "Prompt Details")
	field(cmd, "ID", p.ID)
	field(cmd, "Status", colorizeStatus(p.Status))
	field(cmd, "Niche", p.Niche)
	field(cmd, "Platform", p.Platform)
	field(cmd, "Length", formatSeconds(p.VideoLength))
	field(cmd, "Tone", p.Tone)
	field(cmd, "Goal", p.Goal)
	if p.ProjectID != nil {
		field(cmd, "Project", *p.ProjectID)
	}
	field(cmd, "Created", formatTimeWithRelative(&p.CreatedAt))

	var view promptView
	if err := json.Unmarshal(p.GeneratedPrompt, &view); err != nil {
		return
	}
	cmd.Println()
	field(cmd, "Hook", view.Hook.Description)
	if view.Hook.TextOverlay != "" {
		field(cmd, "Overlay", view.Hook.TextOverlay)
	}
	for _, s := range view.Scenes {
		cmd.Printf("  %s%d.%s [%ds] %s\n", colorCyan, s.SceneNumber, colorReset, s.DurationSeconds, s.VisualDescription)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func init() {
	flags := promptGenerateCmd.Flags()
	flags.StringP("niche", "n", "", "Content niche, e.g. \"home workouts\" (required)")
	flags.StringP("platform", "p", "", "Target platform (default instagram)")
	flags.IntP("length", "l", 0, "Video length in seconds, 5 to 60 (default 30)")
	flags.String("tone", "", "Tone of voice (default cinematic)")
	flags.String("goal", "", "Content goal (default engagement)")
	flags.String("idea", "", "Optional custom idea to build around")
	flags.String("project", "", "File the prompt under this project id")
	flags.Bool("json", false, "Print the generated prompt as JSON")

	promptGetCmd.Flags().Bool("json", false, "Print the generated prompt as JSON")

	promptListCmd.Flags().Int("limit", 20, "Maximum number of prompts")
	promptListCmd.Flags().Int("offset", 0, "Number of prompts to skip")

	promptCmd.AddCommand(promptGenerateCmd, promptGetCmd, promptListCmd, promptApproveCmd)
	rootCmd.AddCommand(promptCmd)
}
