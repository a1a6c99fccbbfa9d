package tcup

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jpalmerr/tcup/internal/slot"
	"golang.org/x/crypto/bcrypt"
)

// boardConfig holds mutable state during Board construction.
type boardConfig struct {
	title           string
	probes          []Probe
	pollingInterval time.Duration
	port            int
	maxConcurrency  int
	logger          *slog.Logger
	sampleCallbacks []func(Sample)
	landingPath     string
	storageDriver   string
	storageLocation string
	backendURL      string
	backendTimeout  time.Duration
	users           map[string]string
}

// Option configures a [Board] during construction. Options return an error
// if validation fails.
type Option func(*boardConfig) error

// WithProbe adds a single [Probe] to the polling list.
func WithProbe(p Probe) Option {
	return func(cfg *boardConfig) error {
		cfg.probes = append(cfg.probes, p)
		return nil
	}
}

// WithProbes adds several probes at once.
func WithProbes(probes ...Probe) Option {
	return func(cfg *boardConfig) error {
		cfg.probes = append(cfg.probes, probes...)
		return nil
	}
}

// WithPollingInterval sets how often probes are polled. Defaults to 15
// seconds.
//
// Returns an error if the duration is zero or negative.
func WithPollingInterval(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d <= 0 {
			return errors.New("polling interval must be positive")
		}
		cfg.pollingInterval = d
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server. Defaults to 8080.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *boardConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithMaxConcurrency sets how many probes are polled simultaneously.
// Defaults to 10.
//
// Returns an error if the value is zero or negative.
func WithMaxConcurrency(n int) Option {
	return func(cfg *boardConfig) error {
		if n <= 0 {
			return errors.New("max concurrency must be positive")
		}
		cfg.maxConcurrency = n
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *boardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithSampleCallback registers a function called for every probe sample,
// after the sample has reached the realtime feed.
//
// Callbacks run synchronously on a single goroutine in registration order
// and must not block. Panics are recovered and logged. Nil callbacks are
// ignored.
//
// Example:
//
//	board, err := tcup.New(
//	    tcup.WithProbe(cpu),
//	    tcup.WithSampleCallback(func(s tcup.Sample) {
//	        if s.Status == tcup.StatusBreach {
//	            log.Printf("ALERT: %s at %.1f", s.ProbeName, s.Value)
//	        }
//	    }),
//	)
func WithSampleCallback(cb func(Sample)) Option {
	return func(cfg *boardConfig) error {
		if cb == nil {
			return nil
		}
		cfg.sampleCallbacks = append(cfg.sampleCallbacks, cb)
		return nil
	}
}

// WithTitle sets the dashboard title. Defaults to "tCup 智能运维".
func WithTitle(title string) Option {
	return func(cfg *boardConfig) error {
		cfg.title = title
		return nil
	}
}

// WithLandingPath sets where a logged-in user visiting the login page is
// sent. Defaults to /realtime.
func WithLandingPath(path string) Option {
	return func(cfg *boardConfig) error {
		if !strings.HasPrefix(path, "/") {
			return errors.New("landing path must start with /")
		}
		cfg.landingPath = path
		return nil
	}
}

// WithStorage selects where monitor configs and login flags are kept.
//
// Drivers: "memory" (default, lost on exit), "file" (location is a JSON file
// path), "postgres" (pgx, location is a connection string) and "sql"
// (database/sql with lib/pq, location is a connection string).
func WithStorage(driver, location string) Option {
	return func(cfg *boardConfig) error {
		switch driver {
		case slot.DriverMemory:
		case slot.DriverFile, slot.DriverPostgres, slot.DriverSQL:
			if location == "" {
				return fmt.Errorf("storage driver %q requires a location", driver)
			}
		default:
			return fmt.Errorf("unknown storage driver %q", driver)
		}
		cfg.storageDriver = driver
		cfg.storageLocation = location
		return nil
	}
}

// WithBackend sets the base URL of the ops backend that probes poll and the
// dashboard proxies to. Defaults to http://localhost:5000.
func WithBackend(baseURL string) Option {
	return func(cfg *boardConfig) error {
		u, err := url.Parse(baseURL)
		if err != nil {
			return fmt.Errorf("invalid backend URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return errors.New("backend URL must have a scheme (http:// or https://)")
		}
		cfg.backendURL = strings.TrimSuffix(baseURL, "/")
		return nil
	}
}

// WithBackendTimeout sets the timeout of each backend request. Defaults to
// 5 seconds.
func WithBackendTimeout(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d <= 0 {
			return errors.New("backend timeout must be positive")
		}
		cfg.backendTimeout = d
		return nil
	}
}

// WithUser adds a dashboard login. passwordHash must be a bcrypt hash.
//
// Example:
//
//	hash, _ := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.DefaultCost)
//	board, err := tcup.New(tcup.WithUser("admin", string(hash)))
func WithUser(username, passwordHash string) Option {
	return func(cfg *boardConfig) error {
		if username == "" {
			return errors.New("username cannot be empty")
		}
		if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
			return fmt.Errorf("user %q: password hash is not a bcrypt hash", username)
		}
		if cfg.users == nil {
			cfg.users = make(map[string]string)
		}
		cfg.users[username] = passwordHash
		return nil
	}
}
