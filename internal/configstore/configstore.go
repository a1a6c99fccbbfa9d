package configstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jpalmerr/tcup/internal/slot"
)

// DefaultKey is the slot key holding the serialized collection.
const DefaultKey = "monitorConfigs"

// MonitorConfig is a named alert threshold.
type MonitorConfig struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Threshold   float64   `json:"threshold"`
	CreatedAt   time.Time `json:"created_at"`
}

// Draft holds the caller-supplied fields of a new [MonitorConfig].
type Draft struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Threshold   float64 `json:"threshold"`
}

// Store is the CRUD collection of [MonitorConfig] records.
//
// Store is safe for concurrent use. Every successful mutation is persisted
// before it becomes visible to readers.
type Store struct {
	slots  slot.Store
	key    string
	now    func() time.Time
	logger *slog.Logger

	mu      sync.RWMutex
	configs []MonitorConfig
	lastID  int64
}

// Option configures a [Store] during [Open].
type Option func(*Store)

// WithKey overrides the slot key. Defaults to [DefaultKey].
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock overrides the time source used for ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used to report fallbacks to seed data.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open loads the collection from slots.
//
// If the slot is absent, empty, null or malformed the collection starts from
// the seed records. Seeds are not written back until the first mutation.
// Only storage read failures other than a missing slot are returned.
func Open(ctx context.Context, slots slot.Store, opts ...Option) (*Store, error) {
	s := &Store{
		slots:  slots,
		key:    DefaultKey,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	raw, err := slots.Get(ctx, s.key)
	if err != nil && !errors.Is(err, slot.ErrNotFound) {
		return nil, fmt.Errorf("configstore: load %q: %w", s.key, err)
	}

	configs, ok := decode(raw)
	if !ok {
		if len(raw) > 0 {
			s.logger.Warn("persisted configs unreadable, using seed data", "key", s.key)
		}
		configs = seeds(s.now().UTC())
	}

	s.configs = configs
	for _, c := range configs {
		if c.ID > s.lastID {
			s.lastID = c.ID
		}
	}
	return s, nil
}

// decode parses a persisted collection. It reports false when the value
// should be replaced by seed data.
func decode(raw []byte) ([]MonitorConfig, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var configs []MonitorConfig
	if err := json.Unmarshal(raw, &configs); err != nil {
		return nil, false
	}
	// JSON null decodes to a nil slice; a persisted [] stays a valid empty list
	if configs == nil {
		return nil, false
	}
	return configs, true
}

// seeds returns the built-in default collection.
func seeds(now time.Time) []MonitorConfig {
	return []MonitorConfig{
		{
			ID:          1,
			Name:        "CPU高负载阈值",
			Description: "系统CPU利用率告警阈值",
			Threshold:   85.5,
			CreatedAt:   now,
		},
		{
			ID:          2,
			Name:        "内存使用率告警",
			Description: "内存占用率监控阈值",
			Threshold:   90.0,
			CreatedAt:   now,
		},
	}
}

// List returns a snapshot of the collection in insertion order.
func (s *Store) List() []MonitorConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]MonitorConfig, len(s.configs))
	copy(out, s.configs)
	return out
}

// Get returns the record with the given id.
func (s *Store) Get(id int64) (MonitorConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.configs {
		if c.ID == id {
			return c, true
		}
	}
	return MonitorConfig{}, false
}

// FindByName returns the first record whose name matches exactly.
func (s *Store) FindByName(name string) (MonitorConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.configs {
		if c.Name == name {
			return c, true
		}
	}
	return MonitorConfig{}, false
}

// Add assigns a fresh id and creation time to d, appends it and persists the
// collection. The only possible error is a persistence failure, in which case
// the collection is left unchanged.
func (s *Store) Add(ctx context.Context, d Draft) (MonitorConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	cfg := MonitorConfig{
		ID:          s.nextIDLocked(now),
		Name:        d.Name,
		Description: d.Description,
		Threshold:   d.Threshold,
		CreatedAt:   now,
	}

	next := make([]MonitorConfig, len(s.configs), len(s.configs)+1)
	copy(next, s.configs)
	next = append(next, cfg)

	if err := s.persistLocked(ctx, next); err != nil {
		return MonitorConfig{}, err
	}
	s.configs = next
	s.lastID = cfg.ID
	return cfg, nil
}

// Update replaces the record with cfg.ID in place. Id and creation time of the
// stored record are preserved; every other field comes from cfg.
//
// An unknown id is a silent no-op: Update returns false and nothing is
// written.
func (s *Store) Update(ctx context.Context, cfg MonitorConfig) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, c := range s.configs {
		if c.ID == cfg.ID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, nil
	}

	next := make([]MonitorConfig, len(s.configs))
	copy(next, s.configs)
	cfg.CreatedAt = next[idx].CreatedAt
	next[idx] = cfg

	if err := s.persistLocked(ctx, next); err != nil {
		return false, err
	}
	s.configs = next
	return true, nil
}

// Delete removes every record with the given id and persists the result. The
// collection is written even when nothing matched.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]MonitorConfig, 0, len(s.configs))
	for _, c := range s.configs {
		if c.ID != id {
			next = append(next, c)
		}
	}

	if err := s.persistLocked(ctx, next); err != nil {
		return err
	}
	s.configs = next
	return nil
}

// nextIDLocked derives an id from the wall clock, bumped past every id seen so
// far so that two adds in the same millisecond never collide.
func (s *Store) nextIDLocked(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	return id
}

func (s *Store) persistLocked(ctx context.Context, configs []MonitorConfig) error {
	data, err := json.Marshal(configs)
	if err != nil {
		return fmt.Errorf("configstore: encode: %w", err)
	}
	if err := s.slots.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("configstore: persist: %w", err)
	}
	return nil
}
