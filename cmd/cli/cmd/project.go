package cmd

import (
	"veoprompt/pkg/api"

	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Group prompts into projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project",
	Long: `Create a project. Pass its id to "prompt generate --project" to file
prompts under it.

Example:
  veoctl project create --name "Spring launch" --description "Reels for the new blend"`,
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")

		if name == "" {
			cmd.Println("Error: --name is required")
			return
		}

		client := newClient(cmd)
		if client == nil {
			return
		}

		p, err := client.CreateProject(api.CreateProjectRequest{Name: name, Description: description})
		if err != nil {
			printError(cmd, err)
			return
		}
		cmd.Printf("✓ Project created!\nID: %s\nName: %s\n", p.ID, p.Name)
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your projects, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient(cmd)
		if client == nil {
			return
		}

		projects, err := client.ListProjects()
		if err != nil {
			printError(cmd, err)
			return
		}
		if len(projects) == 0 {
			cmd.Println("No projects yet.")
			return
		}

		for _, p := range projects {
			cmd.Printf("%s  %-24s %s\n", p.ID, truncate(p.Name, 24), truncate(p.Description, 40))
		}
	},
}

func init() {
	projectCreateCmd.Flags().String("name", "", "Project name (required)")
	projectCreateCmd.Flags().String("description", "", "Optional description")

	projectCmd.AddCommand(projectCreateCmd, projectListCmd)
	rootCmd.AddCommand(projectCmd)
}
