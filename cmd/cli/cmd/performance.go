package cmd

import (
	"veoprompt/pkg/api"

	"github.com/spf13/cobra"
)

var performanceCmd = &cobra.Command{
	Use:     "performance",
	Aliases: []string{"perf"},
	Short:   "Show and update engagement metrics",
}

var performanceGetCmd = &cobra.Command{
	Use:   "get [video_id]",
	Short: "Show the metrics of a video",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient(cmd)
		if client == nil {
			return
		}

		perf, err := client.GetPerformance(args[0])
		if err != nil {
			printError(cmd, err)
			return
		}
		printPerformance(cmd, perf)
	},
}

var performanceSyncCmd = &cobra.Command{
	Use:   "sync [video_id]",
	Short: "Pull the latest metrics from Instagram",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient(cmd)
		if client == nil {
			return
		}

		perf, err := client.SyncPerformance(args[0])
		if err != nil {
			printError(cmd, err)
			return
		}
		cmd.Println("✓ Metrics synced")
		printPerformance(cmd, perf)
	},
}

var performanceSetCmd = &cobra.Command{
	Use:   "set [video_id]",
	Short: "Record metrics by hand",
	Long: `Record metrics for a video. Only the flags given are changed.

Example:
  veoctl performance set 3f1c... --views 1200 --likes 85`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()

		var req api.UpdatePerformanceRequest
		for name, dst := range map[string]**int64{
			"views":    &req.Views,
			"likes":    &req.Likes,
			"shares":   &req.Shares,
			"comments": &req.Comments,
		} {
			if flags.Changed(name) {
				v, _ := flags.GetInt64(name)
				*dst = &v
			}
		}
		if flags.Changed("watch-time") {
			v, _ := flags.GetFloat64("watch-time")
			req.WatchTimeAvg = &v
		}

		if req == (api.UpdatePerformanceRequest{}) {
			cmd.Println("Error: set at least one of --views, --likes, --shares, --comments, --watch-time")
			return
		}

		client := newClient(cmd)
		if client == nil {
			return
		}

		perf, err := client.UpdatePerformance(args[0], req)
		if err != nil {
			printError(cmd, err)
			return
		}
		printPerformance(cmd, perf)
	},
}

func printPerformance(cmd *cobra.Command, perf *api.PerformanceResponse) {
	header(cmd, "📈", "Performance")
	field(cmd, "Video", perf.VideoID)
	field(cmd, "Views", perf.Views)
	field(cmd, "Likes", perf.Likes)
	field(cmd, "Comments", perf.Comments)
	field(cmd, "Shares", perf.Shares)
	field(cmd, "Watch time", formatWatchTime(perf.WatchTimeAvg))
	field(cmd, "Updated", formatTimeWithRelative(&perf.UpdatedAt))
}

func init() {
	flags := performanceSetCmd.Flags()
	flags.Int64("views", 0, "View count")
	flags.Int64("likes", 0, "Like count")
	flags.Int64("shares", 0, "Share count")
	flags.Int64("comments", 0, "Comment count")
	flags.Float64("watch-time", 0, "Average watch time in seconds")

	performanceCmd.AddCommand(performanceGetCmd, performanceSyncCmd, performanceSetCmd)
	rootCmd.AddCommand(performanceCmd)
}
