package tcup

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// Probe is a backend path polled for a numeric reading.
//
// Probe is immutable after creation via [NewProbe]. Options such as
// [WithMethod], [WithValuePath], [WithExtractor], [WithConfig] and
// [WithInterval] configure it.
type Probe struct {
	name      string
	path      string
	method    string
	valuePath string
	extractor ValueExtractor
	config    string
	interval  time.Duration
}

// Name returns the probe's display name.
func (p Probe) Name() string {
	return p.name
}

// Path returns the backend path, relative to the backend base URL.
func (p Probe) Path() string {
	return p.path
}

// Method returns the HTTP method used to poll. Defaults to GET.
func (p Probe) Method() string {
	return p.method
}

// ValuePath returns the gjson path of the reading, or "" when an extractor
// is set or the default applies.
func (p Probe) ValuePath() string {
	return p.valuePath
}

// Extractor returns the probe's [ValueExtractor], or nil.
func (p Probe) Extractor() ValueExtractor {
	return p.extractor
}

// Config returns the name of the monitor config whose threshold applies.
// Defaults to the probe name.
func (p Probe) Config() string {
	if p.config == "" {
		return p.name
	}
	return p.config
}

// Interval returns the probe's custom polling interval, or 0 to use the
// board-wide interval.
func (p Probe) Interval() time.Duration {
	return p.interval
}

// NewProbe creates a [Probe] polling path on the ops backend.
//
// The path must be absolute ("/api/status"); the backend base URL is set on
// the board with [WithBackend].
//
// Example:
//
//	p, err := tcup.NewProbe("内存使用率告警", "/api/status",
//	    tcup.WithValuePath("memory_data.basic_info.percent"),
//	)
func NewProbe(name, path string, opts ...ProbeOption) (Probe, error) {
	if name == "" {
		return Probe{}, errors.New("probe name cannot be empty")
	}
	if !strings.HasPrefix(path, "/") {
		return Probe{}, errors.New("probe path must start with /")
	}

	cfg := &probeConfig{method: http.MethodGet}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Probe{}, err
		}
	}

	return Probe{
		name:      name,
		path:      path,
		method:    cfg.method,
		valuePath: cfg.valuePath,
		extractor: cfg.extractor,
		config:    cfg.config,
		interval:  cfg.interval,
	}, nil
}
