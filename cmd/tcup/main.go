// Package main is the entry point for the tcup CLI.
//
// tcup can be embedded as a library (SDK) or run as a standalone binary with
// YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	tcup serve -c tcup.yaml      # Start the dashboard
//	tcup chat -c tcup.yaml       # Start the chat proxy
//	tcup validate -c tcup.yaml   # Validate configuration
//	tcup hash-password           # Hash a dashboard password
//	tcup version                 # Show version info
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "tcup",
	Short: "An operations dashboard with guarded navigation and a chat proxy",
	Long: `tcup serves an operations dashboard: realtime probes against an ops
backend, monitor-config management and per-browser login, plus an optional
chat proxy to an LLM API.

Quick start:
  1. Hash a password: tcup hash-password
  2. Create a config file (tcup.yaml)
  3. Run: tcup serve -c tcup.yaml
  4. Open http://localhost:8080 in your browser

Example config:
  port: 8080
  backend:
    base_url: http://localhost:5000
  users:
    - username: admin
      password_hash: ${TCUP_ADMIN_HASH}
  probes:
    - name: CPU高负载阈值
      path: /api/status
      value: avg:cpu_data.cpu_percent`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this tcup binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tcup %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
