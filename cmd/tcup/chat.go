package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/tcup/config"
	"github.com/jpalmerr/tcup/internal/chat"
	"github.com/jpalmerr/tcup/widget"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// chatCmd starts the chat proxy.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the chat proxy",
	Long: `Start the tcup chat proxy.

The proxy serves the chat widget and forwards POST /api/chat messages to the
LLM API. It runs as its own process, independent of the dashboard.

Variables from the env file (default .env) are loaded before the config is
read. Without a config file the API key is read from ANTHROPIC_API_KEY. A
missing key does not stop the server; chat requests then fail with a
missing-credentials error.

Example:
  tcup chat
  tcup chat -c tcup.yaml --env /etc/tcup/chat.env`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("config", "c", "", "path to config file")
	chatCmd.Flags().String("env", ".env", "env file to load before reading the config")
	chatCmd.Flags().IntP("port", "p", 0, "listen port (overrides config)")
}

func runChat(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	envFile, _ := cmd.Flags().GetString("env")
	if err := loadEnvFile(envFile); err != nil {
		return err
	}

	chatCfg, err := loadChatConfig(cmd)
	if err != nil {
		return err
	}
	if chatCfg.APIKey == "" {
		logger.Warn("no API key configured, chat requests will fail", "env", "ANTHROPIC_API_KEY")
	}

	srv := newChatServer(chatCfg, widget.Assets(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start chat server: %w", err)
	}
	logger.Info("chat server listening", "url", fmt.Sprintf("http://localhost:%d", chatCfg.Port))

	<-ctx.Done()
	logger.Info("shutdown complete")
	return nil
}

// loadEnvFile loads KEY=value pairs into the environment. A missing file is
// not an error; variables already set are not overridden.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// loadChatConfig reads the chat section of the config file, or builds one
// from the environment when no file is given.
func loadChatConfig(cmd *cobra.Command) (config.ChatConfig, error) {
	var cc config.ChatConfig

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return cc, fmt.Errorf("failed to load config: %w", err)
		}
		cc = cfg.Chat
	} else {
		cc.Port = chat.DefaultPort
	}

	if cc.APIKey == "" {
		cc.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cc.Port = port
	}
	if cc.Port < 1 || cc.Port > 65535 {
		return cc, fmt.Errorf("port must be between 1 and 65535, got %d", cc.Port)
	}
	return cc, nil
}

func newChatServer(cc config.ChatConfig, assets fs.FS, logger *slog.Logger) *chat.Server {
	var opts []chat.CompleterOption
	if cc.Model != "" {
		opts = append(opts, chat.WithModel(cc.Model))
	}
	if cc.MaxTokens > 0 {
		opts = append(opts, chat.WithMaxTokens(int64(cc.MaxTokens)))
	}

	completer := chat.NewAnthropicCompleter(cc.APIKey, opts...)
	handler := chat.NewHandler(completer, chat.NewRenderer(), logger)
	return chat.NewServer(handler, assets, cc.Port, logger)
}
