package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jpalmerr/tcup/internal/session"
)

// executeValidateCmd runs the validate command with the given config path
// and returns captured stdout and any error.
func executeValidateCmd(t *testing.T, configPath string) (string, error) {
	t.Helper()

	// capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	rootCmd.SetArgs([]string{"validate", "-c", configPath})
	err := rootCmd.Execute()

	_ = w.Close()
	os.Stdout = old
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)

	return buf.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tcup.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestRunValidate_ValidConfig(t *testing.T) {
	hash, err := session.HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	t.Setenv("TCUP_TEST_ADMIN_HASH", hash)

	configPath := writeConfig(t, `
port: 8080
poll_interval: 10s
storage:
  driver: file
  path: /tmp/tcup-slots.json
backend:
  base_url: http://ops:5000
  timeout: 2s
users:
  - username: admin
    password_hash: ${TCUP_TEST_ADMIN_HASH}
probes:
  - name: CPU高负载阈值
    path: /api/status
    value: avg:cpu_data.cpu_percent
  - name: 内存使用率告警
    path: /api/status
    value: json:memory_data.basic_info.percent
`)

	output, err := executeValidateCmd(t, configPath)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}

	expectedPhrases := []string{
		"Config is valid!",
		"Port:          8080",
		"Poll interval: 10s",
		"Storage:       file",
		"Backend:       http://ops:5000 (timeout 2s)",
		"Users:         1",
		"Probes:        2",
		"Chat:          port 3000, API key not set",
	}

	for _, phrase := range expectedPhrases {
		if !strings.Contains(output, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, output)
		}
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	configPath := writeConfig(t, `
port: 8080
probes:
  - name: ""
    path: /api/status
`)

	_, err := executeValidateCmd(t, configPath)
	if err == nil {
		t.Fatal("validate command expected error for invalid config, got nil")
	}

	if !strings.Contains(err.Error(), "name is required") {
		t.Errorf("error should mention 'name is required', got: %v", err)
	}
}

func TestRunValidate_PlaintextPassword(t *testing.T) {
	configPath := writeConfig(t, `
users:
  - username: admin
    password_hash: secret
`)

	_, err := executeValidateCmd(t, configPath)
	if err == nil {
		t.Fatal("validate command expected error for plaintext password, got nil")
	}

	if !strings.Contains(err.Error(), "not a bcrypt hash") {
		t.Errorf("error should mention 'not a bcrypt hash', got: %v", err)
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	_, err := executeValidateCmd(t, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("validate command expected error for missing file, got nil")
	}

	if !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("error should mention 'failed to read', got: %v", err)
	}
}
