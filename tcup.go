package tcup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jpalmerr/tcup/dashboard"
	"github.com/jpalmerr/tcup/internal/configstore"
	"github.com/jpalmerr/tcup/internal/feed"
	"github.com/jpalmerr/tcup/internal/pending"
	"github.com/jpalmerr/tcup/internal/poller"
	"github.com/jpalmerr/tcup/internal/request"
	"github.com/jpalmerr/tcup/internal/router"
	"github.com/jpalmerr/tcup/internal/server"
	"github.com/jpalmerr/tcup/internal/session"
	"github.com/jpalmerr/tcup/internal/slot"
)

const (
	defaultPollingInterval = 15 * time.Second
	defaultPort            = 8080
	defaultMaxConcurrency  = 10
)

// Board is the dashboard application: route guards, config store, backend
// proxy and realtime probes behind one HTTP server.
//
// A Board is created using [New] with functional options and started with
// [Board.Start]:
//
//	board, err := tcup.New(tcup.WithProbe(p), tcup.WithUser("admin", hash))
//	if err != nil {
//	    slog.Error("failed to create board", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	board.Start(ctx) // blocks until context cancelled
type Board struct {
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

// New creates a [Board] with the given options.
//
// Defaults: polling every 15 seconds, port 8080, 10 concurrent polls, memory
// storage, backend http://localhost:5000 with a 5 second timeout. A board
// without probes still serves the dashboard; a board without users lets
// nobody past the login page.
//
// Returns an error if an option is invalid or two probes share a name.
func New(opts ...Option) (*Board, error) {
	cfg := &boardConfig{
		pollingInterval: defaultPollingInterval,
		port:            defaultPort,
		maxConcurrency:  defaultMaxConcurrency,
		landingPath:     router.DefaultLandingPath,
		storageDriver:   slot.DriverMemory,
		backendURL:      request.DefaultBaseURL,
		backendTimeout:  request.DefaultTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	// names key the scheduler's per-probe interval tracking
	seen := make(map[string]bool, len(cfg.probes))
	for _, p := range cfg.probes {
		if seen[p.name] {
			return nil, fmt.Errorf("duplicate probe name: %q", p.name)
		}
		seen[p.name] = true
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	users := make(map[string]string, len(cfg.users))
	for k, v := range cfg.users {
		users[k] = v
	}

	return &Board{
		title:           cfg.title,
		probes:          cfg.probes,
		pollingInterval: cfg.pollingInterval,
		port:            cfg.port,
		maxConcurrency:  cfg.maxConcurrency,
		logger:          logger,
		sampleCallbacks: cfg.sampleCallbacks,
		landingPath:     cfg.landingPath,
		storageDriver:   cfg.storageDriver,
		storageLocation: cfg.storageLocation,
		backendURL:      cfg.backendURL,
		backendTimeout:  cfg.backendTimeout,
		users:           users,
	}, nil
}

// Start opens storage, begins polling and serves the dashboard.
//
// Start blocks until ctx is cancelled and returns nil on graceful shutdown.
// It returns an error if storage cannot be opened or the HTTP server fails to
// start.
func (b *Board) Start(ctx context.Context) error {
	b.logger.Info("tcup starting", "probe_count", len(b.probes), "storage", b.storageDriver)
	b.logger.Info("polling configured", "interval", b.pollingInterval.String(), "backend", b.backendURL)
	b.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", b.port))

	if ctx.Err() != nil {
		return nil
	}
	if len(b.users) == 0 {
		b.logger.Warn("no users configured, login is impossible")
	}

	slots, err := slot.Open(ctx, b.storageDriver, b.storageLocation)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := slots.Close(); err != nil {
			b.logger.Error("failed to close storage", "error", err)
		}
	}()

	configs, err := configstore.Open(ctx, slots, configstore.WithLogger(b.logger))
	if err != nil {
		return fmt.Errorf("failed to load monitor configs: %w", err)
	}

	flags := session.NewFlags(slots)
	policy := router.NewPolicy(flags,
		router.WithLandingPath(b.landingPath),
		router.WithPolicyLogger(b.logger),
	)
	pool := pending.NewPool()
	nav := router.NewNavigator(router.NewTable(router.DefaultRoutes(policy)...), pool,
		router.WithGlobalGuard(policy.Global),
		router.WithNavigatorLogger(b.logger),
	)

	backend := request.NewClient(b.backendURL, request.WithTimeout(b.backendTimeout))
	defer backend.Close()

	samples := feed.NewMemoryFeed()

	scheduler := poller.NewScheduler(b.toPollerProbes(), backend, thresholdLookup(configs), b.pollingInterval, b.maxConcurrency, b.logger)
	scheduler.Start(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for s := range scheduler.Results() {
			// feed first; callbacks see data the dashboard already shows
			samples.Update(toFeedSample(s))

			if len(b.sampleCallbacks) > 0 {
				public := toPublicSample(s)
				for _, cb := range b.sampleCallbacks {
					invokeCallbackSafe(cb, public, b.logger)
				}
			}

			logAttrs := []any{
				"status", s.Status,
				"probe", s.Probe,
				"path", s.Path,
				"latency_ms", s.Latency.Milliseconds(),
			}
			if s.HasValue {
				logAttrs = append(logAttrs, "value", s.Value)
			}
			switch {
			case s.Error != nil:
				b.logger.Warn("poll completed with error", append(logAttrs, "error", s.Error.Error())...)
			case s.Status == poller.StatusBreach:
				b.logger.Warn("threshold breached", append(logAttrs, "threshold", s.Threshold)...)
			default:
				b.logger.Debug("poll completed", logAttrs...)
			}
		}
	}()

	cleanup := func() {
		scheduler.Stop()
		wg.Wait()
	}

	srv, err := server.New(server.Config{
		Navigator: nav,
		Policy:    policy,
		Flags:     flags,
		Users:     session.NewUsers(b.users),
		Configs:   configs,
		Feed:      samples,
		Backend:   backend,
		Pending:   pool,
		Assets:    dashboard.Assets,
		Port:      b.port,
		Title:     b.title,
		Logger:    b.logger,
	})
	if err != nil {
		cleanup()
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	cleanup()
	b.logger.Info("tcup stopped")
	return nil
}

// toPollerProbes converts the board's probes to the scheduler format.
func (b *Board) toPollerProbes() []poller.ProbeInfo {
	out := make([]poller.ProbeInfo, len(b.probes))
	for i, p := range b.probes {
		info := poller.ProbeInfo{
			Name:      p.name,
			Path:      p.path,
			Method:    p.method,
			ValuePath: p.valuePath,
			Config:    p.Config(),
			Interval:  p.interval,
		}
		switch {
		case p.extractor != nil:
			info.Extractor = poller.ValueExtractor(p.extractor)
		case p.valuePath == "":
			info.Extractor = poller.ValueExtractor(DefaultValueExtractor)
		}
		out[i] = info
	}
	return out
}

// thresholdLookup reads thresholds from the live config store, so edits in
// the dashboard apply on the next poll.
func thresholdLookup(configs *configstore.Store) poller.ThresholdFunc {
	return func(name string) (float64, bool) {
		c, ok := configs.FindByName(name)
		if !ok {
			return 0, false
		}
		return c.Threshold, true
	}
}

// Probes returns a copy of the configured probes.
func (b *Board) Probes() []Probe {
	cp := make([]Probe, len(b.probes))
	copy(cp, b.probes)
	return cp
}

// Port returns the configured HTTP port for the dashboard server.
func (b *Board) Port() int {
	return b.port
}

// PollingInterval returns the configured interval between polling cycles.
func (b *Board) PollingInterval() time.Duration {
	return b.pollingInterval
}

// LandingPath returns where logged-in users are sent from the login page.
func (b *Board) LandingPath() string {
	return b.landingPath
}

func toFeedSample(s poller.Sample) feed.Sample {
	out := feed.Sample{
		Probe:          s.Probe,
		Path:           s.Path,
		Config:         s.Config,
		Status:         s.Status,
		ResponseTimeMs: s.Latency.Milliseconds(),
		CheckedAt:      s.CheckedAt,
	}
	if s.HasValue {
		v := s.Value
		out.Value = &v
	}
	if s.HasThreshold {
		t := s.Threshold
		out.Threshold = &t
	}
	if s.Error != nil {
		e := s.Error.Error()
		out.Error = &e
	}
	return out
}

func toPublicSample(s poller.Sample) Sample {
	return Sample{
		ProbeName:    s.Probe,
		Path:         s.Path,
		Config:       s.Config,
		Status:       Status(s.Status),
		Value:        s.Value,
		HasValue:     s.HasValue,
		Threshold:    s.Threshold,
		HasThreshold: s.HasThreshold,
		Latency:      s.Latency,
		CheckedAt:    s.CheckedAt,
		Error:        s.Error,
		StatusCode:   s.StatusCode,
	}
}

// invokeCallbackSafe calls a sample callback with panic recovery.
func invokeCallbackSafe(cb func(Sample), s Sample, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("sample callback panicked",
				"panic", r,
				"probe", s.ProbeName,
			)
		}
	}()
	cb(s)
}
