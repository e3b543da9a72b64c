// Package main is the entry point for the veoprompt CLI.
// veoctl is the terminal tool for the veoprompt API.
package main

import (
	"os"

	"veoprompt/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
