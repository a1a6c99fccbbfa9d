package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/tcup"
	"github.com/jpalmerr/tcup/config"
	"github.com/spf13/cobra"
)

// shutdownTimeout bounds how long serve waits after a signal.
const shutdownTimeout = 10 * time.Second

// serveCmd starts the dashboard server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Start the tcup dashboard server.

The server will:
  - Load configuration from the specified YAML file
  - Open the configured storage for monitor configs and login flags
  - Start polling all configured probes against the ops backend
  - Serve the dashboard UI on the configured port

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  tcup serve -c tcup.yaml
  tcup serve --config /etc/tcup/tcup.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("config loaded",
		"probes", len(cfg.Probes),
		"users", len(cfg.Users),
		"storage", cfg.Storage.Driver,
	)
	logger.Info("starting server",
		"port", cfg.Port,
		"poll_interval", cfg.PollInterval.Duration().String(),
		"backend", cfg.Backend.BaseURL,
	)

	opts, err := config.BuildOptions(cfg)
	if err != nil {
		return fmt.Errorf("failed to build options: %w", err)
	}
	opts = append(opts, tcup.WithLogger(logger))

	board, err := tcup.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create board: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- board.Start(ctx) }()

	return awaitShutdown(ctx, done, logger)
}

// awaitShutdown waits for the board to return. Once ctx is cancelled the
// board gets shutdownTimeout to drain before the command gives up on it.
func awaitShutdown(ctx context.Context, done <-chan error, logger *slog.Logger) error {
	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		timer := time.NewTimer(shutdownTimeout)
		defer timer.Stop()
		select {
		case err = <-done:
		case <-timer.C:
			logger.Warn("shutdown timed out", "timeout", shutdownTimeout.String(), "action", "forcing exit")
			return nil
		}
	}

	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
