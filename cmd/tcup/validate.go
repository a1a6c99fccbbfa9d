package main

import (
	"fmt"

	"github.com/jpalmerr/tcup"
	"github.com/jpalmerr/tcup/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a tcup configuration file without starting the server.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  tcup validate -c tcup.yaml`,
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

	// extractor patterns and password hashes are only checked by the SDK
	opts, err := config.BuildOptions(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := tcup.New(opts...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	chatKey := "not set"
	if cfg.Chat.APIKey != "" {
		chatKey = "set"
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:          %d\n", cfg.Port)
	fmt.Printf("  Poll interval: %s\n", cfg.PollInterval.Duration())
	fmt.Printf("  Storage:       %s\n", cfg.Storage.Driver)
	fmt.Printf("  Backend:       %s (timeout %s)\n", cfg.Backend.BaseURL, cfg.Backend.Timeout.Duration())
	fmt.Printf("  Users:         %d\n", len(cfg.Users))
	fmt.Printf("  Probes:        %d\n", len(cfg.Probes))
	fmt.Printf("  Chat:          port %d, API key %s\n", cfg.Chat.Port, chatKey)

	return nil
}
