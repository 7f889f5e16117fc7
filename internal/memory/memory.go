package memory

import (
	"context"
	"math"
	"runtime"
	"runtime/debug"
	rtmetrics "runtime/metrics"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"hologram/internal/logging"
	"hologram/internal/metrics"
)

// Config tunes the backpressure monitor. Zero fields take DefaultConfig's
// values.
type Config struct {
	// MemoryLimitBytes is the soft limit; 0 falls back to GOMEMLIMIT.
	MemoryLimitBytes int64

	// PauseAt and ResumeAt are fractions of the limit. Workers stop taking
	// new files at PauseAt and restart once the heap falls below ResumeAt.
	PauseAt  float64
	ResumeAt float64

	CheckInterval time.Duration
}

// DefaultConfig leaves headroom for one in-flight RAW decode per worker
// above the pause threshold.
func DefaultConfig() Config {
	return Config{
		PauseAt:       0.85,
		ResumeAt:      0.7,
		CheckInterval: 2 * time.Second,
	}
}

const heapObjects = "/memory/classes/heap/objects:bytes"

// liveHeap reads live heap bytes without the stop-the-world of
// runtime.ReadMemStats, so it is cheap enough to poll during a scan.
func liveHeap() uint64 {
	s := []rtmetrics.Sample{{Name: heapObjects}}
	rtmetrics.Read(s)
	if s[0].Value.Kind() != rtmetrics.KindUint64 {
		return 0
	}
	return s[0].Value.Uint64()
}

// Monitor polls the heap and holds scan workers at Wait while it is above
// the pause threshold. Without a limit it never pauses.
type Monitor struct {
	cfg   Config
	limit int64
	heap  func() uint64

	mu   sync.Mutex
	last uint64
	// gate is non-nil while paused and closed on resume.
	gate chan struct{}

	stop     chan struct{}
	stopOnce sync.Once
}

func NewMonitor(cfg Config) *Monitor {
	def := DefaultConfig()
	if cfg.PauseAt <= 0 {
		cfg.PauseAt = def.PauseAt
	}
	if cfg.ResumeAt <= 0 || cfg.ResumeAt > cfg.PauseAt {
		cfg.ResumeAt = min(def.ResumeAt, cfg.PauseAt)
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = def.CheckInterval
	}

	limit := cfg.MemoryLimitBytes
	if limit == 0 {
		if l := debug.SetMemoryLimit(-1); l > 0 && l < math.MaxInt64 {
			limit = l
			logging.Info("Memory monitor using GOMEMLIMIT: %s", humanize.IBytes(uint64(l)))
		}
	}
	if limit == 0 {
		logging.Debug("Memory monitor: no limit configured, backpressure disabled")
	}

	return &Monitor{cfg: cfg, limit: limit, heap: liveHeap, stop: make(chan struct{})}
}

// Start polls in the background until Stop. It does nothing without a limit.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(m.cfg.CheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sample()
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends polling and releases every waiting worker.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Monitor) sample() {
	heap := m.heap()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = heap
	if m.limit <= 0 {
		return
	}

	ratio := float64(heap) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(ratio)

	switch {
	case m.gate == nil && ratio >= m.cfg.PauseAt:
		logging.Warn("Heap at %.1f%% of limit, pausing scan workers", ratio*100)
		m.gate = make(chan struct{})
		metrics.MemoryPaused.Set(1)
		metrics.MemoryGCPauses.Inc()
		go runtime.GC()
	case m.gate != nil && ratio < m.cfg.ResumeAt:
		logging.Info("Heap back to %.1f%% of limit, resuming scan workers", ratio*100)
		close(m.gate)
		m.gate = nil
		metrics.MemoryPaused.Set(0)
	}
}

// Wait returns nil immediately unless the monitor is paused, in which case
// it blocks until resume or Stop. It returns ctx.Err() if ctx ends first.
func (m *Monitor) Wait(ctx context.Context) error {
	m.mu.Lock()
	gate := m.gate
	m.mu.Unlock()
	if gate == nil {
		return nil
	}

	select {
	case <-gate:
		return nil
	case <-m.stop:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Monitor) IsPaused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gate != nil
}

// Usage is the most recent heap sample against the configured limit.
type Usage struct {
	Heap  uint64
	Limit int64
	Ratio float64
}

func (m *Monitor) Usage() Usage {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := Usage{Heap: m.last, Limit: m.limit}
	if m.limit > 0 {
		u.Ratio = float64(m.last) / float64(m.limit)
	}
	return u
}
