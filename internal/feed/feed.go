package feed

import "time"

// Sample is the latest reading of one probe, as served to the browser.
type Sample struct {
	// Probe is the probe's display name.
	Probe string `json:"probe"`

	// Path is the backend path that was polled.
	Path string `json:"path"`

	// Config names the monitor config the reading is compared with.
	Config string `json:"config"`

	// Status is ok, breach, down or unknown.
	Status string `json:"status"`

	// Value is the reading; nil when none could be read.
	Value *float64 `json:"value"`

	// Threshold is the limit in force; nil when no config matched.
	Threshold *float64 `json:"threshold"`

	// ResponseTimeMs is the request latency in milliseconds.
	ResponseTimeMs int64 `json:"response_time_ms"`

	// CheckedAt is the timestamp of the poll.
	CheckedAt time.Time `json:"checked_at"`

	// Error contains the error message if the poll failed.
	Error *string `json:"error"`
}

// Feed stores samples and notifies subscribers.
//
// Implementations must be safe for concurrent access.
type Feed interface {
	// Update stores a sample, keyed by Probe, and notifies all subscribers.
	Update(sample Sample)

	// GetAll returns a snapshot of the latest sample of every probe.
	GetAll() []Sample

	// Subscribe returns a buffered channel receiving new samples. Callers
	// must Unsubscribe when done.
	Subscribe() <-chan Sample

	// Unsubscribe removes a subscription and closes its channel.
	Unsubscribe(ch <-chan Sample)
}
