package metrics

import (
	"context"
	"sync"
	"time"

	"hologram/internal/logging"
)

// StatsProvider reports the shape of the current photo index.
// indexer.Engine implements it.
type StatsProvider interface {
	LibraryStats() LibraryStats
}

type LibraryStats struct {
	RawPhotos  int
	JpegPhotos int
	Pairs      int
	Cameras    int
	Lenses     int
}

// Collector refreshes the hologram_library_* gauges on an interval.
// Aggregating the index walks every photo, so it runs off the request path.
type Collector struct {
	provider StatsProvider
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Collector{provider: provider, interval: interval, done: make(chan struct{})}
}

// Start collects once immediately, then every interval until Stop.
func (c *Collector) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.run(ctx)
}

// Stop ends collection and waits for an in-flight pass. It is safe to call
// more than once, and before Start.
func (c *Collector) Stop() {
	c.once.Do(func() {
		if c.cancel == nil {
			close(c.done)
			return
		}
		c.cancel()
		<-c.done
	})
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		c.collect()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *Collector) collect() {
	if c.provider == nil {
		return
	}
	s := c.provider.LibraryStats()

	LibraryPhotos.WithLabelValues("RAW").Set(float64(s.RawPhotos))
	LibraryPhotos.WithLabelValues("JPEG").Set(float64(s.JpegPhotos))
	LibraryPairs.Set(float64(s.Pairs))
	LibraryDistinct.WithLabelValues("camera").Set(float64(s.Cameras))
	LibraryDistinct.WithLabelValues("lens").Set(float64(s.Lenses))

	logging.Debug("library gauges: raw=%d jpeg=%d pairs=%d cameras=%d lenses=%d",
		s.RawPhotos, s.JpegPhotos, s.Pairs, s.Cameras, s.Lenses)
}
