package tcup

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func testHash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() error = %v", err)
	}
	return string(h)
}

func TestNew_Defaults(t *testing.T) {
	b, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if b.Port() != 8080 {
		t.Errorf("Port() = %d, want 8080", b.Port())
	}
	if b.PollingInterval() != 15*time.Second {
		t.Errorf("PollingInterval() = %v, want 15s", b.PollingInterval())
	}
	if b.LandingPath() != "/realtime" {
		t.Errorf("LandingPath() = %q, want /realtime", b.LandingPath())
	}
	if b.maxConcurrency != 10 {
		t.Errorf("maxConcurrency = %d, want 10", b.maxConcurrency)
	}
	if b.storageDriver != "memory" {
		t.Errorf("storageDriver = %q, want memory", b.storageDriver)
	}
	if b.backendURL != "http://localhost:5000" || b.backendTimeout != 5*time.Second {
		t.Errorf("backend = %q %v, want http://localhost:5000 5s", b.backendURL, b.backendTimeout)
	}
	if len(b.Probes()) != 0 {
		t.Errorf("len(Probes()) = %d, want 0", len(b.Probes()))
	}
}

func TestNew_DuplicateProbeNames(t *testing.T) {
	p1, _ := NewProbe("CPU", "/api/status")
	p2, _ := NewProbe("CPU", "/api/cpu")

	_, err := New(WithProbes(p1, p2))
	if err == nil {
		t.Fatal("New() expected error for duplicate probe names, got nil")
	}
	if !strings.Contains(err.Error(), "duplicate probe name") {
		t.Errorf("New() error = %v, want error containing 'duplicate probe name'", err)
	}
}

func TestNew_OptionErrors(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero interval", WithPollingInterval(0)},
		{"negative interval", WithPollingInterval(-time.Second)},
		{"port zero", WithPort(0)},
		{"port too large", WithPort(65536)},
		{"zero concurrency", WithMaxConcurrency(0)},
		{"nil logger", WithLogger(nil)},
		{"relative landing path", WithLandingPath("realtime")},
		{"unknown storage", WithStorage("redis", "localhost")},
		{"file storage without path", WithStorage("file", "")},
		{"postgres without dsn", WithStorage("postgres", "")},
		{"backend without scheme", WithBackend("localhost:5000")},
		{"backend ftp", WithBackend("ftp://example.com")},
		{"zero backend timeout", WithBackendTimeout(0)},
		{"empty username", WithUser("", "$2a$10$abcdefghijklmnopqrstuv")},
		{"plain password", WithUser("admin", "secret")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opt); err == nil {
				t.Error("New() expected error, got nil")
			}
		})
	}
}

func TestNew_Options(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	hash := testHash(t, "secret")

	b, err := New(
		WithPort(9090),
		WithPollingInterval(30*time.Second),
		WithMaxConcurrency(3),
		WithLogger(logger),
		WithTitle("Ops"),
		WithLandingPath("/check"),
		WithStorage("file", "/tmp/tcup.json"),
		WithBackend("http://ops.internal:5000/"),
		WithBackendTimeout(2*time.Second),
		WithUser("admin", hash),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if b.Port() != 9090 || b.PollingInterval() != 30*time.Second || b.maxConcurrency != 3 {
		t.Errorf("board = port %d interval %v concurrency %d", b.Port(), b.PollingInterval(), b.maxConcurrency)
	}
	if b.logger != logger {
		t.Error("logger not applied")
	}
	if b.title != "Ops" || b.LandingPath() != "/check" {
		t.Errorf("title %q landing %q", b.title, b.LandingPath())
	}
	if b.storageDriver != "file" || b.storageLocation != "/tmp/tcup.json" {
		t.Errorf("storage = %q %q", b.storageDriver, b.storageLocation)
	}
	if b.backendURL != "http://ops.internal:5000" {
		t.Errorf("backendURL = %q, want trailing slash trimmed", b.backendURL)
	}
	if b.backendTimeout != 2*time.Second {
		t.Errorf("backendTimeout = %v", b.backendTimeout)
	}
	if b.users["admin"] != hash {
		t.Error("user not registered")
	}
}

func TestWithSampleCallback_NilIgnored(t *testing.T) {
	b, err := New(WithSampleCallback(nil))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(b.sampleCallbacks) != 0 {
		t.Errorf("len(sampleCallbacks) = %d, want 0", len(b.sampleCallbacks))
	}
}

func TestProbes_ReturnsCopy(t *testing.T) {
	p, _ := NewProbe("CPU", "/api/status")
	b, err := New(WithProbe(p))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	probes := b.Probes()
	probes[0] = Probe{}

	if b.Probes()[0].Name() != "CPU" {
		t.Error("Probes() exposed internal slice")
	}
}
