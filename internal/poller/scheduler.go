package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jpalmerr/tcup/internal/request"
)

// Probe statuses.
const (
	StatusOK      = "ok"
	StatusBreach  = "breach"
	StatusDown    = "down"
	StatusUnknown = "unknown"
)

// DefaultValuePath is the JSON path read when a probe names none.
const DefaultValuePath = "value"

// Sample holds the outcome of polling a single probe.
type Sample struct {
	// Probe is the name of the polled probe.
	Probe string

	// Path is the backend path that was polled.
	Path string

	// Config is the name of the monitor config holding the threshold.
	Config string

	// Status is one of ok, breach, down or unknown.
	Status string

	// Value is the reading; meaningful only when HasValue is true.
	Value    float64
	HasValue bool

	// Threshold is the limit compared against; meaningful only when
	// HasThreshold is true.
	Threshold    float64
	HasThreshold bool

	// Latency is the time taken to complete the HTTP request.
	Latency time.Duration

	// CheckedAt is the timestamp when the poll was performed.
	CheckedAt time.Time

	// Error contains any error that occurred during polling.
	Error error

	// StatusCode is the HTTP status code returned by the backend.
	StatusCode int
}

// ValueExtractor reads a numeric value from a response body. The boolean is
// false when no value could be read.
type ValueExtractor func(body []byte) (float64, bool)

// ThresholdFunc returns the threshold of the monitor config named config.
type ThresholdFunc func(config string) (float64, bool)

// ProbeInfo contains the configuration needed to poll a single probe.
type ProbeInfo struct {
	// Name is the display name of the probe.
	Name string

	// Path is the backend path to poll, relative to the client's base URL.
	Path string

	// Method is the HTTP method. Empty defaults to GET.
	Method string

	// ValuePath is the gjson path of the reading. Ignored when Extractor is
	// set; empty means [DefaultValuePath].
	ValuePath string

	// Extractor overrides ValuePath.
	Extractor ValueExtractor

	// Config names the monitor config whose threshold applies. Empty means
	// the probe name.
	Config string

	// Interval is the custom polling interval for this probe.
	// If 0, the scheduler's global interval is used.
	Interval time.Duration
}

func (p ProbeInfo) configName() string {
	if p.Config != "" {
		return p.Config
	}
	return p.Name
}

// Scheduler manages periodic polling of multiple probes.
//
// Scheduler implements a worker pool pattern, polling configured probes
// at their respective intervals with configurable concurrency. Samples are
// emitted to a channel that can be consumed by the caller.
//
// The scheduler polls all probes immediately on start, then uses a
// tick-and-check pattern where it ticks at the GCD of all probe intervals
// and polls only probes that are due.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	probes         []ProbeInfo
	interval       time.Duration // global default interval
	maxConcurrency int
	client         *request.Client
	thresholds     ThresholdFunc
	results        chan Sample
	logger         *slog.Logger
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once

	// per-probe timing for tick-and-check pattern
	lastPolledAt map[string]time.Time
	baseInterval time.Duration
}

// NewScheduler creates a new polling [Scheduler].
//
// Parameters:
//   - probes: List of probes to poll
//   - client: Backend client the probes are sent through
//   - thresholds: Threshold lookup; nil disables breach detection
//   - interval: Time between polling cycles
//   - maxConcurrency: Maximum number of concurrent HTTP requests
//   - logger: Logger for scheduler events (panic recovery, etc.)
//
// The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop]. Samples are available via [Scheduler.Results].
func NewScheduler(probes []ProbeInfo, client *request.Client, thresholds ThresholdFunc, interval time.Duration, maxConcurrency int, logger *slog.Logger) *Scheduler {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		probes:         probes,
		interval:       interval,
		maxConcurrency: maxConcurrency,
		client:         client,
		thresholds:     thresholds,
		results:        make(chan Sample, len(probes)),
		logger:         logger,
	}
}

// Results returns a receive-only channel that emits [Sample] values.
//
// The channel is closed when the scheduler stops. Consumers should read from
// this channel until it is closed to receive all samples.
func (s *Scheduler) Results() <-chan Sample {
	return s.results
}

// calculateBaseInterval determines the tick interval for the scheduler.
// Uses the GCD of all probe intervals to ensure timely polling.
func (s *Scheduler) calculateBaseInterval() time.Duration {
	if len(s.probes) == 0 {
		return s.interval
	}

	intervals := make([]time.Duration, 0, len(s.probes))
	for _, p := range s.probes {
		if p.Interval > 0 {
			intervals = append(intervals, p.Interval)
		} else {
			intervals = append(intervals, s.interval)
		}
	}

	result := intervals[0]
	for _, d := range intervals[1:] {
		result = gcdDuration(result, d)
	}

	// floor at 1 second to prevent CPU thrashing
	if result < time.Second {
		result = time.Second
	}

	return result
}

// gcdDuration calculates the greatest common divisor of two durations.
func gcdDuration(a, b time.Duration) time.Duration {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Start begins the polling loop in a background goroutine.
//
// Start is non-blocking and returns immediately. The scheduler will:
//  1. Poll all probes immediately
//  2. Tick at the GCD of all probe intervals
//  3. Poll only probes that are due on each tick
//  4. Continue until [Scheduler.Stop] is called or the context is cancelled
//
// If ctx is nil, context.Background() is used as the parent context.
// Start is idempotent; subsequent calls after the first are no-ops.
// If Stop was called before Start, Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.lastPolledAt = make(map[string]time.Time, len(s.probes))
	s.baseInterval = s.calculateBaseInterval()

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	pollCtx := s.ctx // capture under lock to avoid race
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.closeOnce.Do(func() { close(s.results) })

		s.pollDueProbes(pollCtx, true)

		ticker := time.NewTicker(s.baseInterval)
		defer ticker.Stop()

		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
				s.pollDueProbes(pollCtx, false)
			}
		}
	}()
}

// Stop halts the scheduler and waits for all goroutines to complete.
//
// Stop cancels the scheduler's context and blocks until:
//   - The polling loop exits
//   - All in-flight requests complete
//   - The results channel is closed
//
// Stop is idempotent and safe to call multiple times. Calling Stop before
// Start is a safe no-op. The client is not closed; it belongs to the caller.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()

	// ensure channel is closed even if Start() was never called
	s.closeOnce.Do(func() { close(s.results) })
}

// pollDueProbes polls only probes that are due based on their intervals.
// If immediate is true, polls all probes regardless of timing.
//
// TIMING SEMANTIC: lastPolledAt is updated when a poll STARTS, not when it
// completes. This prevents concurrent polls of the same probe but means
// effective interval = configured interval + poll duration for slow probes.
func (s *Scheduler) pollDueProbes(ctx context.Context, immediate bool) {
	now := time.Now()
	due := make([]ProbeInfo, 0, len(s.probes))

	s.mu.Lock()
	for _, p := range s.probes {
		if immediate {
			due = append(due, p)
			s.lastPolledAt[p.Name] = now
			continue
		}

		interval := p.Interval
		if interval == 0 {
			interval = s.interval
		}

		lastPolled, exists := s.lastPolledAt[p.Name]
		if !exists || now.Sub(lastPolled) >= interval {
			due = append(due, p)
			s.lastPolledAt[p.Name] = now
		}
	}
	s.mu.Unlock()

	if len(due) == 0 {
		return
	}

	s.pollProbes(ctx, due)
}

// pollProbes polls a subset of probes concurrently, respecting maxConcurrency.
func (s *Scheduler) pollProbes(ctx context.Context, probes []ProbeInfo) {
	jobs := make(chan ProbeInfo, len(probes))

	var wg sync.WaitGroup
	for i := 0; i < s.maxConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				sample := s.pollProbe(ctx, p)
				select {
				case s.results <- sample:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for _, p := range probes {
		select {
		case jobs <- p:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		}
	}
	close(jobs)

	wg.Wait()
}

// pollProbe polls a single probe and returns the sample.
func (s *Scheduler) pollProbe(ctx context.Context, p ProbeInfo) Sample {
	resp := s.client.Fetch(ctx, p.Method, p.Path, nil, nil)

	sample := Sample{
		Probe:      p.Name,
		Path:       p.Path,
		Config:     p.configName(),
		Latency:    resp.Latency,
		CheckedAt:  time.Now(),
		StatusCode: resp.StatusCode,
		Error:      resp.Error,
	}

	if resp.Error != nil || resp.StatusCode >= 400 {
		sample.Status = StatusDown
		if sample.Error == nil {
			sample.Error = fmt.Errorf("backend returned status %d", resp.StatusCode)
		}
		return sample
	}

	extractor := p.Extractor
	if extractor == nil {
		path := p.ValuePath
		if path == "" {
			path = DefaultValuePath
		}
		extractor = func(body []byte) (float64, bool) { return JSONValue(body, path) }
	}

	value, ok, err := s.safeExtract(extractor, resp.Body)
	if err != nil {
		sample.Status = StatusDown
		sample.Error = err
		return sample
	}
	if !ok {
		sample.Status = StatusUnknown
		return sample
	}
	sample.Value, sample.HasValue = value, true

	if s.thresholds != nil {
		sample.Threshold, sample.HasThreshold = s.thresholds(sample.Config)
	}
	sample.Status = Evaluate(value, sample.Threshold, sample.HasThreshold)
	return sample
}

// Evaluate compares a reading with a threshold. A reading at or above the
// threshold is a breach; without a threshold every reading is ok.
func Evaluate(value, threshold float64, hasThreshold bool) string {
	if hasThreshold && value >= threshold {
		return StatusBreach
	}
	return StatusOK
}

// safeExtract calls the extractor with panic recovery.
// If the extractor panics, it logs the full stack trace with a correlation ID
// and returns a user-friendly error containing the ID.
func (s *Scheduler) safeExtract(extractor ValueExtractor, body []byte) (value float64, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			stack := debug.Stack()

			// log full context server-side for debugging
			s.logger.Error("extractor panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(stack),
			)

			value, ok = 0, false
			err = fmt.Errorf("extractor panic (correlation_id: %s)", correlationID)
		}
	}()
	value, ok = extractor(body)
	return value, ok, nil
}
