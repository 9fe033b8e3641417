package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sourcewatch/sourcewatch/config"
)

// validateCmd validates a config file without polling anything.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a sourcewatch configuration file without polling anything.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  sourcewatch validate -c config.yaml
  sourcewatch validate --config /etc/sourcewatch/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Base URL:      %s\n", cfg.BaseURL)
	if cfg.RequestTimeout != 0 {
		fmt.Printf("  Timeout:       %s\n", cfg.RequestTimeout.Duration())
	}
	if cfg.InitialDelay != 0 {
		fmt.Printf("  Initial delay: %s\n", cfg.InitialDelay.Duration())
	}
	if cfg.MaxDelay != 0 {
		fmt.Printf("  Max delay:     %s\n", cfg.MaxDelay.Duration())
	}
	if cfg.MaxAttempts != 0 {
		fmt.Printf("  Max attempts:  %d\n", cfg.MaxAttempts)
	}
	fmt.Printf("  Headers:       %d\n", len(cfg.Headers))

	return nil
}
