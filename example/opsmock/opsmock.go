// Package opsmock is a fake ops backend for demos and tests.
//
// It answers the endpoints the dashboard views and the default probes read:
// /api/status with drifting CPU, memory, disk and network figures, the check
// and prediction device pages, the NFT pages, and /api/private, which always
// answers 401 to show the login redirect.
package opsmock

import (
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// Devices lists the device ids served under /api/check and /api/prediction.
var Devices = []string{"M1D0", "M1D1", "M1D2", "M1D3"}

// Backend holds the drifting metric state.
type Backend struct {
	mu      sync.Mutex
	rng     *rand.Rand
	cpu     []float64
	memory  float64
	disk    float64
	sent    uint64
	recv    uint64
	latency time.Duration
	logger  *slog.Logger
}

// Option configures a [Backend].
type Option func(*Backend)

// WithSeed makes the generated figures reproducible.
func WithSeed(seed uint64) Option {
	return func(b *Backend) {
		b.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithLatency delays every response by d.
func WithLatency(d time.Duration) Option {
	return func(b *Backend) { b.latency = d }
}

// WithLogger sets the logger for breach transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a Backend with plausible starting figures.
func New(opts ...Option) *Backend {
	b := &Backend{
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		cpu:    []float64{35, 42, 28, 51},
		memory: 62,
		disk:   48,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Handler returns the backend routes.
func (b *Backend) Handler() http.Handler {
	r := chi.NewRouter()
	if b.latency > 0 {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				time.Sleep(b.latency)
				next.ServeHTTP(w, req)
			})
		})
	}

	r.Get("/api/status", b.handleStatus)
	r.Get("/api/get_cpu_usage", b.handleCPUUsage)
	r.Get("/api/check_memory", b.handleCheckMemory)
	r.Get("/api/check/{device}", b.handleDevice("check"))
	r.Get("/api/prediction/{device}", b.handleDevice("prediction"))
	r.Get("/api/nft-report", b.handleListing("report"))
	r.Get("/api/metaverse-hub", b.handleListing("hub"))
	r.Get("/api/nft-market", b.handleListing("market"))
	r.Get("/api/private", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "token expired"})
	})
	return r
}

// step advances every figure by a bounded random walk.
func (b *Backend) step() {
	for i := range b.cpu {
		b.cpu[i] = walk(b.rng, b.cpu[i], 8)
	}
	prev := b.memory
	b.memory = walk(b.rng, b.memory, 3)
	b.disk = walk(b.rng, b.disk, 0.5)
	b.sent += uint64(b.rng.IntN(64 << 10))
	b.recv += uint64(b.rng.IntN(256 << 10))

	if prev < 90 && b.memory >= 90 {
		b.logger.Info("memory above 90%", "percent", b.memory)
	}
}

func walk(rng *rand.Rand, v, spread float64) float64 {
	v += (rng.Float64()*2 - 1) * spread
	switch {
	case v < 1:
		return 1
	case v > 99:
		return 99
	}
	return v
}

func (b *Backend) handleStatus(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	b.step()
	cpu := make([]float64, len(b.cpu))
	copy(cpu, b.cpu)
	resp := map[string]any{
		"cpu_data": map[string]any{
			"cpu_percent": cpu,
			"cpu_count":   len(cpu),
		},
		"memory_data": map[string]any{
			"basic_info": map[string]any{
				"total":   16 << 30,
				"percent": b.memory,
			},
		},
		"disk_data": map[string]any{
			"disk_usage": map[string]any{
				"total":   512 << 30,
				"percent": b.disk,
			},
		},
		"network": map[string]any{
			"bytes_sent": b.sent,
			"bytes_recv": b.recv,
		},
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (b *Backend) handleCPUUsage(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "cpu_usage": "30%"})
}

func (b *Backend) handleCheckMemory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "memory_usage": "4GB/8GB"})
}

func (b *Backend) handleDevice(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		device := chi.URLParam(r, "device")
		if !knownDevice(device) {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "unknown device " + device})
			return
		}

		b.mu.Lock()
		readings := make([]float64, 12)
		for i := range readings {
			readings[i] = 20 + b.rng.Float64()*60
		}
		b.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]any{
			"device":   device,
			"kind":     kind,
			"readings": readings,
		})
	}
}

func (b *Backend) handleListing(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		b.mu.Lock()
		items := make([]map[string]any, 3)
		for i := range items {
			items[i] = map[string]any{
				"id":    i + 1,
				"kind":  kind,
				"price": float64(b.rng.IntN(10000)) / 100,
			}
		}
		b.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

func knownDevice(id string) bool {
	for _, d := range Devices {
		if d == id {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
