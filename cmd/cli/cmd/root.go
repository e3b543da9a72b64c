package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "veoctl",
	Short: "veoctl is a command line tool for the veoprompt API",
	Long: `veoctl is the command-line interface for veoprompt.

veoprompt turns a short brief (niche, tone, goal) into a structured video prompt,
renders it into a short vertical video, writes a caption and publishes the result
to Instagram Reels. Rendering and publishing run on background workers.

Common workflows:

  Draft a prompt:
    veoctl prompt generate --niche "specialty coffee" --tone cozy

  Approve it and start the video:
    veoctl prompt approve <prompt-id>
    veoctl video generate <prompt-id> --wait

  Check a video:
    veoctl video status <video-id>

  Pull engagement numbers from Instagram:
    veoctl performance sync <video-id>

Configuration:
  Set the API endpoint and credentials via environment variables or a config file:
    VEOPROMPT_URL      API endpoint (default: http://localhost:6161)
    VEOPROMPT_TOKEN    API key (vp_...) or, for "user create", the admin secret`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".veoctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".veoctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "VEOPROMPT_VARNAME"
	viper.SetEnvPrefix("VEOPROMPT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newClient builds a client from the configured url and token. It prints a
// hint and returns nil when no token is set.
func newClient(cmd *cobra.Command) *Client {
	token := viper.GetString("token")
	if token == "" {
		cmd.Println("API token not found. Please set it using the --token flag or the VEOPROMPT_TOKEN environment variable")
		return nil
	}
	return NewClient(viper.GetString("url"), token)
}

// printError reports a failed API call.
func printError(cmd *cobra.Command, err error) {
	if apiErr, ok := err.(*APIError); ok {
		cmd.Printf("Error (%d): %s\n", apiErr.StatusCode, apiErr.Message)
		return
	}
	cmd.Printf("Error: %v\n", err)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.veoctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:6161", "veoprompt controller URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "API key for authentication")
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
}
