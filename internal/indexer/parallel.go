package indexer

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/djherbis/times"

	"hologram/internal/exif"
	"hologram/internal/filesystem"
	"hologram/internal/library"
	"hologram/internal/logging"
	"hologram/internal/media"
	"hologram/internal/mediatypes"
	"hologram/internal/metrics"
)

// Waiter blocks while the process is under memory pressure.
type Waiter interface {
	Wait(ctx context.Context) error
}

// ParallelConfig configures the per-file worker pool.
type ParallelConfig struct {
	// NumWorkers is the number of parallel workers.
	NumWorkers int
	// ChannelBuffer is the size of the job and result channel buffers.
	ChannelBuffer int
	Retry         filesystem.RetryConfig
}

// fileResult is one processed candidate. photo is nil when the file was
// skipped.
type fileResult struct {
	candidate Candidate
	photo     *library.Photo
	err       error
}

// ParallelProcessor turns candidates into photos on a bounded pool of
// workers. Results arrive in completion order.
type ParallelProcessor struct {
	config    ParallelConfig
	extractor exif.Extractor
	thumbs    media.Thumbnailer
	memory    Waiter
	scanTime  time.Time

	jobs    chan Candidate
	results chan fileResult
	wg      sync.WaitGroup
}

// NewParallelProcessor creates a processor. memory may be nil.
func NewParallelProcessor(config ParallelConfig, extractor exif.Extractor, thumbs media.Thumbnailer, memory Waiter) *ParallelProcessor {
	if config.NumWorkers < 1 {
		config.NumWorkers = 1
	}
	if config.ChannelBuffer < 0 {
		config.ChannelBuffer = 0
	}
	return &ParallelProcessor{
		config:    config,
		extractor: extractor,
		thumbs:    thumbs,
		memory:    memory,
		scanTime:  time.Now(),
		jobs:      make(chan Candidate, config.ChannelBuffer),
		results:   make(chan fileResult, config.ChannelBuffer),
	}
}

// Start launches the workers. The results channel closes once Close has
// been called and every worker has drained.
func (pp *ParallelProcessor) Start(ctx context.Context) {
	logging.Debug("Starting %d scan workers", pp.config.NumWorkers)
	for i := 0; i < pp.config.NumWorkers; i++ {
		pp.wg.Add(1)
		go pp.worker(ctx, i)
	}
	go func() {
		pp.wg.Wait()
		close(pp.results)
	}()
}

// Submit queues c, blocking while the queue is full.
func (pp *ParallelProcessor) Submit(ctx context.Context, c Candidate) error {
	select {
	case pp.jobs <- c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close signals that no more candidates will be submitted.
func (pp *ParallelProcessor) Close() {
	close(pp.jobs)
}

// Results returns the result stream.
func (pp *ParallelProcessor) Results() <-chan fileResult {
	return pp.results
}

func (pp *ParallelProcessor) worker(ctx context.Context, id int) {
	defer pp.wg.Done()

	for c := range pp.jobs {
		// Cancellation is checked between files, never mid-file.
		if ctx.Err() != nil {
			continue
		}

		photo, err := pp.process(ctx, c)
		pp.results <- fileResult{candidate: c, photo: photo, err: err}
	}

	logging.Debug("Worker %d finished", id)
}

func observePhase(phase string, start time.Time) {
	metrics.ScanFileDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}

// process builds the Photo for one candidate. Only an unreadable file is
// an error; missing metadata or thumbnails degrade the record.
func (pp *ParallelProcessor) process(ctx context.Context, c Candidate) (*library.Photo, error) {
	if pp.memory != nil {
		if err := pp.memory.Wait(ctx); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	info, err := filesystem.StatWithRetry(c.Path, pp.config.Retry)
	observePhase("stat", start)
	if err != nil {
		metrics.ScanEntriesSkipped.WithLabelValues("stat").Inc()
		return nil, fmt.Errorf("stat %s: %w", c.Path, err)
	}
	c.Size = info.Size()
	c.ModTime = info.ModTime()

	start = time.Now()
	data, err := pp.extractor.Extract(c.Path)
	observePhase("exif", start)
	if err != nil {
		return nil, err
	}

	var thumbnail *string
	if pp.thumbs != nil {
		start = time.Now()
		thumbnail = pp.thumbs.Thumbnail(c.Path, c.Type, data.Orientation)
		observePhase("thumbnail", start)
	}

	metrics.ScanFilesProcessed.WithLabelValues(string(c.Type)).Inc()

	return &library.Photo{
		ID:         library.PhotoID(c.Path),
		FilePath:   c.Path,
		FileName:   filepath.Base(c.Path),
		FileSize:   c.Size,
		FileType:   c.Type,
		Format:     mediatypes.FormatName(c.Path),
		Thumbnail:  thumbnail,
		Exif:       data,
		CreatedAt:  createdAt(c.Path, pp.scanTime),
		ModifiedAt: c.ModTime.UTC(),
	}, nil
}

// createdAt returns the file's birth time where the platform records one,
// else fallback.
func createdAt(path string, fallback time.Time) time.Time {
	ts, err := times.Stat(path)
	if err != nil || !ts.HasBirthTime() {
		return fallback.UTC()
	}
	return ts.BirthTime().UTC()
}
