package cmd

import (
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show totals and recent activity",
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient(cmd)
		if client == nil {
			return
		}

		stats, err := client.DashboardStats()
		if err != nil {
			printError(cmd, err)
			return
		}
		recent, err := client.RecentActivity()
		if err != nil {
			printError(cmd, err)
			return
		}

		header(cmd, "📊", "Dashboard")
		field(cmd, "Prompts", stats.TotalPrompts)
		field(cmd, "Videos", stats.TotalVideos)
		field(cmd, "In progress", stats.VideosProcessing)
		field(cmd, "Completed", stats.VideosCompleted)
		field(cmd, "Failed", stats.VideosFailed)
		field(cmd, "Views", stats.TotalViews)
		field(cmd, "Likes", stats.TotalLikes)

		if len(recent.RecentPrompts) > 0 {
			cmd.Printf("\n%sRecent prompts%s\n", colorBold, colorReset)
			for _, p := range recent.RecentPrompts {
				cmd.Printf("  %s  %-24s %s\n", p.ID, truncate(p.Niche, 24), colorizeStatus(p.Status))
			}
		}
		if len(recent.RecentVideos) > 0 {
			cmd.Printf("\n%sRecent videos%s\n", colorBold, colorReset)
			for _, v := range recent.RecentVideos {
				cmd.Printf("  %s  %s  %s\n", v.ID, colorizeStatus(v.Status), orDash(v.VideoURL))
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
