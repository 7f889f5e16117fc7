package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"hologram/internal/events"
	"hologram/internal/exif"
	"hologram/internal/filesystem"
	"hologram/internal/library"
	"hologram/internal/logging"
	"hologram/internal/media"
	"hologram/internal/metrics"
	"hologram/internal/query"
	"hologram/internal/workers"
)

const (
	// Upper bound on the default worker pool.
	maxWorkers = 32

	defaultProgressEvery = 1
	defaultChannelBuffer = 64
)

// ErrScanInProgress is returned when a scan is requested while another is
// running.
var ErrScanInProgress = errors.New("a scan is already in progress")

// Config configures an Engine.
type Config struct {
	// Workers is the per-file pool size. 0 sizes the pool from GOMAXPROCS.
	Workers int
	// ProgressEvery publishes a progress event after this many files.
	ProgressEvery  int
	SkipHidden     bool
	FollowSymlinks bool
	ChannelBuffer  int
	Retry          filesystem.RetryConfig
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		ProgressEvery:  defaultProgressEvery,
		SkipHidden:     true,
		FollowSymlinks: true,
		ChannelBuffer:  defaultChannelBuffer,
		Retry:          filesystem.DefaultRetryConfig(),
	}
}

// Deps are the collaborators an Engine drives. Broker and Memory are
// optional.
type Deps struct {
	Extractor   exif.Extractor
	Thumbnailer media.Thumbnailer
	Broker      *events.Broker
	Memory      Waiter
}

// ScanStats counts what a scan saw.
type ScanStats struct {
	Directories int `json:"directories"`
	Files       int `json:"files"`
	Skipped     int `json:"skipped"`
	Errors      int `json:"errors"`
	Pairs       int `json:"pairs"`
}

// ScanResult is the outcome of one scan. Photos is empty unless Outcome is
// completed.
type ScanResult struct {
	ScanID   string          `json:"scan_id"`
	Root     string          `json:"root"`
	Photos   []library.Photo `json:"photos"`
	Outcome  library.Outcome `json:"outcome"`
	Stats    ScanStats       `json:"stats"`
	Duration time.Duration   `json:"duration"`
}

// Engine runs scans and holds the index built by the last completed one.
type Engine struct {
	config Config
	deps   Deps

	scanMu   sync.Mutex
	scanning bool
	cancel   context.CancelFunc

	index    atomic.Pointer[library.Index]
	progress atomic.Value
}

// New creates an Engine with an empty index.
func New(config Config, deps Deps) *Engine {
	def := DefaultConfig()
	if config.ProgressEvery < 1 {
		config.ProgressEvery = def.ProgressEvery
	}
	if config.ChannelBuffer <= 0 {
		config.ChannelBuffer = def.ChannelBuffer
	}
	if config.Retry.MaxRetries == 0 && config.Retry.InitialBackoff == 0 {
		config.Retry = def.Retry
	}
	config.Workers = workers.Resolve(config.Workers, maxWorkers)

	if deps.Extractor == nil {
		deps.Extractor = exif.NewWithRetry(config.Retry)
	}

	e := &Engine{config: config, deps: deps}
	e.index.Store(library.NewIndex())
	e.progress.Store(library.ScanProgress{Phase: library.PhaseComplete})
	logging.Debug("Engine: %d workers, progress every %d files", config.Workers, config.ProgressEvery)
	return e
}

type scanIDKey struct{}

// WithScanID attaches a caller-chosen scan id to ctx so subscribers can
// filter events before the scan starts.
func WithScanID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, scanIDKey{}, id)
}

func scanIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(scanIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// ScanFolder indexes root without publishing events.
func (e *Engine) ScanFolder(ctx context.Context, root string) (*ScanResult, error) {
	return e.scan(ctx, root, false)
}

// ScanFolderWithProgress indexes root, publishing progress events and
// exactly one completion event to the broker.
func (e *Engine) ScanFolderWithProgress(ctx context.Context, root string) (*ScanResult, error) {
	return e.scan(ctx, root, true)
}

// Workers returns the resolved per-file pool size.
func (e *Engine) Workers() int {
	return e.config.Workers
}

// Index returns the index built by the last completed scan.
func (e *Engine) Index() *library.Index {
	return e.index.Load()
}

// Lookup returns the photo with the given id from the current index.
func (e *Engine) Lookup(id string) (library.Photo, bool) {
	return e.Index().Get(id)
}

// Progress returns the progress of the running scan, or the final
// progress of the last one.
func (e *Engine) Progress() library.ScanProgress {
	if p, ok := e.progress.Load().(library.ScanProgress); ok {
		return p
	}
	return library.ScanProgress{}
}

// IsScanning reports whether a scan is running.
func (e *Engine) IsScanning() bool {
	e.scanMu.Lock()
	defer e.scanMu.Unlock()
	return e.scanning
}

// Cancel stops the running scan. It reports whether there was one.
func (e *Engine) Cancel() bool {
	e.scanMu.Lock()
	defer e.scanMu.Unlock()
	if !e.scanning || e.cancel == nil {
		return false
	}
	logging.Info("Cancelling active scan")
	e.cancel()
	return true
}

// LibraryStats implements metrics.StatsProvider.
func (e *Engine) LibraryStats() metrics.LibraryStats {
	stats := query.AggregateIndex(e.Index())
	return metrics.LibraryStats{
		RawPhotos:  stats.RawCount,
		JpegPhotos: stats.JpegCount,
		Pairs:      stats.PairedCount,
		Cameras:    len(stats.Cameras),
		Lenses:     len(stats.Lenses),
	}
}

func (e *Engine) tryStart(cancel context.CancelFunc) bool {
	e.scanMu.Lock()
	defer e.scanMu.Unlock()
	if e.scanning {
		return false
	}
	e.scanning = true
	e.cancel = cancel
	return true
}

func (e *Engine) finish() {
	e.scanMu.Lock()
	e.scanning = false
	e.cancel = nil
	e.scanMu.Unlock()
}

// run carries the state of one scan.
type run struct {
	engine  *Engine
	id      string
	root    string
	publish bool

	processed int
	total     atomic.Int64
}

func (r *run) report(p library.ScanProgress) {
	r.engine.progress.Store(p)
	if r.publish && r.engine.deps.Broker != nil {
		r.engine.deps.Broker.PublishProgress(r.id, p)
	}
}

func (r *run) complete(result *ScanResult, err error) {
	final := library.NewScanProgress(library.PhaseComplete, r.processed, int(r.total.Load()), "")
	r.engine.progress.Store(final)
	if !r.publish || r.engine.deps.Broker == nil {
		return
	}
	ev := events.Event{
		Topic:    events.TopicComplete,
		ScanID:   r.id,
		Root:     r.root,
		Progress: final,
		Outcome:  result.Outcome,
		Photos:   len(result.Photos),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	r.engine.deps.Broker.Publish(ev)
}

func (e *Engine) scan(ctx context.Context, root string, publish bool) (*ScanResult, error) {
	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !e.tryStart(cancel) {
		metrics.ScansTotal.WithLabelValues("rejected").Inc()
		return nil, ErrScanInProgress
	}
	defer e.finish()

	metrics.ScanRunning.Set(1)
	defer metrics.ScanRunning.Set(0)

	start := time.Now()
	r := &run{engine: e, id: scanIDFrom(ctx), root: root, publish: publish}
	result := &ScanResult{ScanID: r.id, Root: root, Photos: []library.Photo{}}

	done := func(outcome library.Outcome, err error) (*ScanResult, error) {
		result.Outcome = outcome
		result.Duration = time.Since(start)
		metrics.ScansTotal.WithLabelValues(string(outcome)).Inc()
		r.complete(result, err)
		return result, err
	}

	abs, err := ValidateRoot(root, e.config.Retry)
	if err != nil {
		logging.Warn("Scan %s rejected: %v", r.id, err)
		_, err = done(library.OutcomeFailed, err)
		return nil, err
	}
	r.root, result.Root = abs, abs

	logging.Info("Starting scan %s of %s", r.id, abs)
	r.report(library.NewScanProgress(library.PhaseDiscovering, 0, 0, ""))

	photos, stats, err := e.process(scanCtx, r, abs)
	result.Stats = stats

	if scanCtx.Err() != nil {
		logging.Info("Scan %s cancelled after %d files", r.id, r.processed)
		return done(library.OutcomeCancelled, nil)
	}
	if err != nil {
		logging.Error("Scan %s failed: %v", r.id, err)
		_, err = done(library.OutcomeFailed, err)
		return nil, err
	}

	r.report(library.NewScanProgress(library.PhasePairing, r.processed, int(r.total.Load()), ""))
	idx, pairs := buildIndex(photos)
	result.Stats.Pairs = pairs
	result.Photos = idx.Snapshot()

	// A cancel that lands during pairing still discards the scan.
	if scanCtx.Err() != nil {
		result.Photos = []library.Photo{}
		return done(library.OutcomeCancelled, nil)
	}

	e.index.Store(idx)

	duration := time.Since(start)
	metrics.ScanLastDuration.Set(duration.Seconds())
	metrics.ScanLastTimestamp.Set(float64(time.Now().Unix()))

	var size int64
	for i := range result.Photos {
		size += result.Photos[i].FileSize
	}
	logging.Info("Scan %s completed in %v: %d photos (%s), %d pairs, %d skipped, %d errors",
		r.id, duration.Round(time.Millisecond), len(result.Photos), humanize.Bytes(uint64(size)),
		pairs, stats.Skipped, stats.Errors)

	return done(library.OutcomeCompleted, nil)
}

type discoverResult struct {
	stats DiscoverStats
	err   error
}

// process runs discovery and the worker pool. The calling goroutine is the
// only collector of results.
func (e *Engine) process(ctx context.Context, r *run, root string) ([]library.Photo, ScanStats, error) {
	pp := NewParallelProcessor(ParallelConfig{
		NumWorkers:    e.config.Workers,
		ChannelBuffer: e.config.ChannelBuffer,
		Retry:         e.config.Retry,
	}, e.deps.Extractor, e.deps.Thumbnailer, e.deps.Memory)
	pp.Start(ctx)

	opts := ScanOptions{
		SkipHidden:     e.config.SkipHidden,
		FollowSymlinks: e.config.FollowSymlinks,
		Retry:          e.config.Retry,
	}

	discovered := make(chan discoverResult, 1)
	go func() {
		defer pp.Close()
		stats, err := Discover(ctx, root, opts, func(c Candidate) error {
			r.total.Add(1)
			return pp.Submit(ctx, c)
		})
		discovered <- discoverResult{stats, err}
	}()

	var (
		stats         ScanStats
		photos        []library.Photo
		lastPublished int
	)
	for res := range pp.Results() {
		r.processed++
		if res.err != nil {
			stats.Errors++
			if ctx.Err() == nil {
				logging.Warn("Skipping %s: %v", res.candidate.Path, res.err)
			}
		} else if res.photo != nil {
			photos = append(photos, *res.photo)
		}

		if r.processed-lastPublished >= e.config.ProgressEvery {
			r.report(library.NewScanProgress(library.PhaseExtracting, r.processed, int(r.total.Load()), res.candidate.Path))
			lastPublished = r.processed
		}
	}

	if r.processed != lastPublished {
		r.report(library.NewScanProgress(library.PhaseExtracting, r.processed, int(r.total.Load()), ""))
	}

	d := <-discovered
	stats.Directories = d.stats.Directories
	stats.Skipped = d.stats.Skipped
	stats.Errors += d.stats.Errors
	stats.Files = len(photos)

	if d.err != nil && !errors.Is(d.err, context.Canceled) && !errors.Is(d.err, context.DeadlineExceeded) {
		return nil, stats, fmt.Errorf("discover %s: %w", root, d.err)
	}
	return photos, stats, nil
}

// buildIndex inserts photos into a fresh index and links resolved pairs.
func buildIndex(photos []library.Photo) (*library.Index, int) {
	idx := library.NewIndex()
	for i := range photos {
		idx.Put(photos[i])
	}

	pairs := 0
	for _, link := range ResolvePairs(photos) {
		if err := idx.Pair(link.RawID, link.JpegID); err != nil {
			logging.Warn("Pairing failed: %v", err)
			continue
		}
		pairs++
	}
	metrics.ScanPairsResolved.Add(float64(pairs))
	return idx, pairs
}
