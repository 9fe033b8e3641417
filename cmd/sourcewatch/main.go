// Package main is the entry point for the sourcewatch CLI.
//
// sourcewatch can be used either as a library (SDK) or as a standalone
// binary. This CLI provides the standalone binary approach: it polls a
// single remote resource from the terminal until the resource reaches a
// terminal state.
//
// Usage:
//
//	sourcewatch watch --id src_123 --secret src_client_secret_x --base-url https://api.example.com
//	sourcewatch validate -c config.yaml # Validate configuration
//	sourcewatch version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "sourcewatch",
	Short: "Poll a remote resource until it reaches a terminal state",
	Long: `sourcewatch polls the status of a remote resource (for example a
payment source awaiting user action) until it becomes terminal, the
attempt cap is exhausted, or the process is interrupted.

Quick start:
  sourcewatch watch --id src_123 --secret src_client_secret_x \
      --base-url https://api.example.com

With a config file:
  sourcewatch watch --id src_123 --secret src_client_secret_x -c config.yaml

Example config:
  base_url: https://api.example.com
  initial_delay: 1500ms
  max_delay: 24s
  max_attempts: 20`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this sourcewatch binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sourcewatch %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
