package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/jpalmerr/tcup/config"
	"github.com/jpalmerr/tcup/internal/chat"
	"github.com/spf13/cobra"
)

// newChatFlags returns a command carrying the chat flags, parsed from args.
func newChatFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "chat"}
	cmd.Flags().StringP("config", "c", "", "")
	cmd.Flags().String("env", ".env", "")
	cmd.Flags().IntP("port", "p", 0, "")
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return cmd
}

// unsetEnv removes key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	_ = os.Unsetenv(key)
}

func TestLoadEnvFile(t *testing.T) {
	unsetEnv(t, "TCUP_CHAT_TEST_VALUE")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TCUP_CHAT_TEST_VALUE=from-file\n"), 0644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	if err := loadEnvFile(path); err != nil {
		t.Fatalf("loadEnvFile() error = %v", err)
	}
	if got := os.Getenv("TCUP_CHAT_TEST_VALUE"); got != "from-file" {
		t.Errorf("TCUP_CHAT_TEST_VALUE = %q, want from-file", got)
	}
}

func TestLoadEnvFile_MissingFileIsIgnored(t *testing.T) {
	if err := loadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("loadEnvFile() error = %v, want nil", err)
	}
	if err := loadEnvFile(""); err != nil {
		t.Errorf("loadEnvFile(\"\") error = %v, want nil", err)
	}
}

func TestLoadChatConfig(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-key")

	configPath := filepath.Join(t.TempDir(), "tcup.yaml")
	if err := os.WriteFile(configPath, []byte("chat:\n  port: 3100\n  api_key: file-key\n  model: claude-test\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	tests := []struct {
		name     string
		args     []string
		wantPort int
		wantKey  string
		wantErr  string
	}{
		{name: "no config uses env", wantPort: chat.DefaultPort, wantKey: "env-key"},
		{name: "port flag", args: []string{"--port", "4000"}, wantPort: 4000, wantKey: "env-key"},
		{name: "config file", args: []string{"-c", configPath}, wantPort: 3100, wantKey: "file-key"},
		{name: "flag overrides config", args: []string{"-c", configPath, "-p", "4100"}, wantPort: 4100, wantKey: "file-key"},
		{name: "bad port", args: []string{"-p", "70000"}, wantErr: "port must be between"},
		{name: "missing config", args: []string{"-c", "/nonexistent/tcup.yaml"}, wantErr: "failed to load config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc, err := loadChatConfig(newChatFlags(t, tt.args...))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("loadChatConfig() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("loadChatConfig() error = %v", err)
			}
			if cc.Port != tt.wantPort {
				t.Errorf("Port = %d, want %d", cc.Port, tt.wantPort)
			}
			if cc.APIKey != tt.wantKey {
				t.Errorf("APIKey = %q, want %q", cc.APIKey, tt.wantKey)
			}
		})
	}
}

func TestNewChatServer_MissingKey(t *testing.T) {
	assets := fstest.MapFS{"index.html": {Data: []byte("<title>chat</title>")}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := newChatServer(config.ChatConfig{Port: chat.DefaultPort}, assets, logger)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/chat", "application/json", strings.NewReader(`{"message":"hi"}`))
	if err != nil {
		t.Fatalf("POST /api/chat error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("POST /api/chat status = %d, want 500", resp.StatusCode)
	}

	page, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	defer page.Body.Close()
	body, _ := io.ReadAll(page.Body)
	if page.StatusCode != http.StatusOK || !strings.Contains(string(body), "chat") {
		t.Errorf("GET / = %d %q", page.StatusCode, body)
	}
}

func TestHashFromReader(t *testing.T) {
	hash, err := hashFromReader(strings.NewReader("s3cret\n"))
	if err != nil {
		t.Fatalf("hashFromReader() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("hash = %q, want a bcrypt hash", hash)
	}

	if _, err := hashFromReader(strings.NewReader("\n")); err == nil {
		t.Error("hashFromReader(empty) expected error")
	}
}
