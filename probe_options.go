package tcup

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// probeConfig holds mutable state during probe construction.
type probeConfig struct {
	method    string
	valuePath string
	extractor ValueExtractor
	config    string
	interval  time.Duration
}

// ProbeOption configures a [Probe] during construction.
type ProbeOption func(*probeConfig) error

// WithMethod sets the HTTP method used to poll. Only GET, HEAD and POST are
// accepted.
func WithMethod(method string) ProbeOption {
	return func(cfg *probeConfig) error {
		m := strings.ToUpper(method)
		switch m {
		case http.MethodGet, http.MethodHead, http.MethodPost:
			cfg.method = m
			return nil
		}
		return errors.New("method must be GET, HEAD or POST")
	}
}

// WithValuePath reads the value at a gjson path, for example
// "memory_data.basic_info.percent". Clears any extractor set before it.
func WithValuePath(path string) ProbeOption {
	return func(cfg *probeConfig) error {
		if path == "" {
			return errors.New("value path cannot be empty")
		}
		cfg.valuePath = path
		cfg.extractor = nil
		return nil
	}
}

// WithExtractor sets a custom [ValueExtractor]. Clears any value path set
// before it.
func WithExtractor(e ValueExtractor) ProbeOption {
	return func(cfg *probeConfig) error {
		if e == nil {
			return errors.New("extractor cannot be nil")
		}
		cfg.extractor = e
		cfg.valuePath = ""
		return nil
	}
}

// WithConfig names the monitor config whose threshold applies, when it
// differs from the probe name.
func WithConfig(name string) ProbeOption {
	return func(cfg *probeConfig) error {
		cfg.config = name
		return nil
	}
}

// WithInterval overrides the board-wide polling interval for this probe.
//
// Returns an error if the interval is below one second.
func WithInterval(d time.Duration) ProbeOption {
	return func(cfg *probeConfig) error {
		if d < time.Second {
			return errors.New("interval must be at least 1 second")
		}
		cfg.interval = d
		return nil
	}
}
