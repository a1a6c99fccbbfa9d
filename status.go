package tcup

import (
	"time"

	"github.com/jpalmerr/tcup/internal/poller"
)

// Status is the state of a probe reading.
type Status string

const (
	// StatusOK indicates the reading is below its threshold, or no threshold
	// applies.
	StatusOK Status = poller.StatusOK

	// StatusBreach indicates the reading is at or above its threshold.
	StatusBreach Status = poller.StatusBreach

	// StatusDown indicates the backend could not be reached or answered with
	// an error status.
	StatusDown Status = poller.StatusDown

	// StatusUnknown indicates the response held no readable value.
	StatusUnknown Status = poller.StatusUnknown
)

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}

// ValueExtractor reads a numeric value from a backend response body. The
// boolean is false when the body holds no readable value.
//
// # Panic Safety
//
// Extractors are called within a panic recovery boundary. A panicking
// extractor marks the sample [StatusDown] with an error carrying a
// correlation ID; the stack trace is logged server-side.
type ValueExtractor func(body []byte) (float64, bool)

// Sample holds the outcome of polling one probe.
type Sample struct {
	// ProbeName is the display name of the probe.
	ProbeName string

	// Path is the backend path that was polled.
	Path string

	// Config is the name of the monitor config the reading was compared with.
	Config string

	Status Status

	// Value is the reading; meaningful only when HasValue is true.
	Value    float64
	HasValue bool

	// Threshold is the limit in force; meaningful only when HasThreshold is
	// true.
	Threshold    float64
	HasThreshold bool

	// Latency is the time taken to complete the backend request.
	Latency time.Duration

	// CheckedAt is the timestamp when the poll was performed.
	CheckedAt time.Time

	// Error contains any error that occurred during polling.
	Error error

	// StatusCode is the HTTP status code returned by the backend.
	// Zero if the request failed before receiving a response.
	StatusCode int
}
