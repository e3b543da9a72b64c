package cmd

import (
	"veoprompt/pkg/api"

	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a user and print its API key",
	Long: `Register a user. Requires the controller's admin secret as the token.
The API key is printed once and cannot be recovered.

Example:
  veoctl user create --name "Ada" --email ada@example.com --token $ADMIN_SECRET`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		name, _ := flags.GetString("name")
		email, _ := flags.GetString("email")
		rateLimit, _ := flags.GetInt("rate-limit")
		burst, _ := flags.GetInt("rate-limit-burst")

		if name == "" || email == "" {
			cmd.Println("Error: --name and --email are required")
			return
		}

		client := newClient(cmd)
		if client == nil {
			return
		}

		result, err := client.CreateUser(api.CreateUserRequest{
			Name:           name,
			Email:          email,
			RateLimit:      rateLimit,
			RateLimitBurst: burst,
		})
		if err != nil {
			printError(cmd, err)
			return
		}

		cmd.Printf("✓ User created!\nID: %s\nAPI key: %s\n", result.ID, result.APIKey)
		cmd.Println("Store the key now, it will not be shown again.")
	},
}

var userMeCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the user that owns the API key",
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient(cmd)
		if client == nil {
			return
		}

		user, err := client.Me()
		if err != nil {
			printError(cmd, err)
			return
		}

		field(cmd, "ID", user.ID)
		field(cmd, "Name", user.Name)
		field(cmd, "Email", user.Email)
		field(cmd, "Created", formatTimeWithRelative(&user.CreatedAt))
	},
}

func init() {
	flags := userCreateCmd.Flags()
	flags.StringP("name", "n", "", "Display name (required)")
	flags.StringP("email", "e", "", "Email address (required)")
	flags.Int("rate-limit", 0, "Requests per second, 0 uses the server default")
	flags.Int("rate-limit-burst", 0, "Burst size, 0 uses the server default")

	userCmd.AddCommand(userCreateCmd, userMeCmd)
	rootCmd.AddCommand(userCmd)
}
