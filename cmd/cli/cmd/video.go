package cmd

import (
	"fmt"
	"strings"
	"time"

	"veoprompt/pkg/api"

	"github.com/spf13/cobra"
)

var videoCmd = &cobra.Command{
	Use:   "video",
	Short: "Generate and inspect videos",
}

var videoGenerateCmd = &cobra.Command{
	Use:   "generate [prompt_id]",
	Short: "Queue a video for a prompt",
	Long: `Queue a video job for a prompt. A worker renders it, writes the caption
and publishes it. With --wait the command polls until the video is done.

Example:
  veoctl video generate 3f1c... --wait`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		wait, _ := cmd.Flags().GetBool("wait")
		interval, _ := cmd.Flags().GetDuration("interval")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		client := newClient(cmd)
		if client == nil {
			return
		}

		video, err := client.GenerateVideo(args[0])
		if err != nil {
			printError(cmd, err)
			return
		}
		cmd.Printf("🚀 Video queued!\nID: %s\n", video.ID)

		if !wait {
			return
		}

		video, err = waitForVideo(client, video.ID, interval, timeout)
		if err != nil {
			printError(cmd, err)
			return
		}
		cmd.Println()
		printVideo(cmd, video)
	},
}

var videoStatusCmd = &cobra.Command{
	Use:   "status [video_id]",
	Short: "Get status of a video",
	Long:  `Retrieve detailed status for a video job, including its state (queued, processing, completed, failed), the video URL, caption and Instagram post.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient(cmd)
		if client == nil {
			return
		}

		video, err := client.GetVideo(args[0])
		if err != nil {
			printError(cmd, err)
			return
		}
		printVideo(cmd, video)
	},
}

var videoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your videos, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		client := newClient(cmd)
		if client == nil {
			return
		}

		videos, err := client.ListVideos(limit, offset)
		if err != nil {
			printError(cmd, err)
			return
		}
		if len(videos) == 0 {
			cmd.Println("No videos yet.")
			return
		}

		for _, v := range videos {
			cmd.Printf("%s  %-12s %3ds  %s\n", v.ID, v.Platform, v.Duration, colorizeStatus(v.Status))
		}
	},
}

// waitForVideo polls until the video reaches a terminal state.
func waitForVideo(client *Client, videoID string, interval, timeout time.Duration) (*api.VideoResponse, error) {
	deadline := time.Now().Add(timeout)
	for {
		video, err := client.GetVideo(videoID)
		if err != nil {
			return nil, err
		}
		if video.Status == "completed" || video.Status == "failed" {
			return video, nil
		}
		if time.Now().After(deadline) {
			return video, fmt.Errorf("timed out waiting for video %s (status %s)", videoID, video.Status)
		}
		time.Sleep(interval)
	}
}

func printVideo(cmd *cobra.Command, video *api.VideoResponse) {
	header(cmd, statusIcon(video.Status), "Video Details")
	field(cmd, "ID", video.ID)
	field(cmd, "Prompt", video.PromptID)
	field(cmd, "Status", colorizeStatus(video.Status))
	field(cmd, "Video", orDash(video.VideoURL))
	field(cmd, "Duration", formatSeconds(video.Duration))
	field(cmd, "Resolution", video.Resolution)

	if video.Error != nil {
		field(cmd, "Error", colorRed+*video.Error+colorReset)
	}
	if video.CaptionText != nil {
		field(cmd, "Caption", *video.CaptionText)
	}
	if len(video.HashtagsUsed) > 0 {
		field(cmd, "Hashtags", strings.Join(video.HashtagsUsed, " "))
	}
	field(cmd, "Post", orDash(video.InstagramPostID))
	if video.PostURL != nil {
		field(cmd, "Post URL", *video.PostURL)
	}

	field(cmd, "Created", formatTimeWithRelative(&video.CreatedAt))
	if video.CompletedAt != nil {
		field(cmd, "Finished", formatTimeWithRelative(video.CompletedAt)+" "+colorCyan+"("+formatDuration(video.CompletedAt.Sub(video.CreatedAt))+")"+colorReset)
	} else {
		field(cmd, "Finished", "-")
	}
}

func init() {
	flags := videoGenerateCmd.Flags()
	flags.BoolP("wait", "w", false, "Wait until the video is completed or failed")
	flags.Duration("interval", 5*time.Second, "Polling interval with --wait")
	flags.Duration("timeout", 30*time.Minute, "Give up waiting after this long")

	videoListCmd.Flags().Int("limit", 20, "Maximum number of videos")
	videoListCmd.Flags().Int("offset", 0, "Number of videos to skip")

	videoCmd.AddCommand(videoGenerateCmd, videoStatusCmd, videoListCmd)
	rootCmd.AddCommand(videoCmd)
}
