package feed

import (
	"sort"
	"sync"
)

const subscriberBuffer = 100

// MemoryFeed is an in-memory [Feed].
//
// Updates are sent non-blocking; if a subscriber's buffer is full, the sample
// is dropped for that subscriber.
type MemoryFeed struct {
	mu      sync.RWMutex
	samples map[string]Sample

	subMu       sync.RWMutex
	subscribers map[chan Sample]struct{}
}

// NewMemoryFeed creates an empty [MemoryFeed].
func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{
		samples:     make(map[string]Sample),
		subscribers: make(map[chan Sample]struct{}),
	}
}

// Update stores sample and notifies all subscribers.
func (m *MemoryFeed) Update(sample Sample) {
	m.mu.Lock()
	m.samples[sample.Probe] = sample
	m.mu.Unlock()

	m.notifySubscribers(sample)
}

// GetAll returns the latest sample of every probe, sorted by probe name.
func (m *MemoryFeed) GetAll() []Sample {
	m.mu.RLock()
	out := make([]Sample, 0, len(m.samples))
	for _, s := range m.samples {
		out = append(out, s)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Probe < out[j].Probe })
	return out
}

// Subscribe creates a subscription with a buffer of 100 samples.
func (m *MemoryFeed) Subscribe() <-chan Sample {
	ch := make(chan Sample, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel. Safe to call
// multiple times or with an unknown channel.
func (m *MemoryFeed) Unsubscribe(ch <-chan Sample) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (m *MemoryFeed) SubscriberCount() int {
	m.subMu.RLock()
	defer m.subMu.RUnlock()
	return len(m.subscribers)
}

func (m *MemoryFeed) notifySubscribers(sample Sample) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- sample:
		default:
			// slow subscriber, drop
		}
	}
}
