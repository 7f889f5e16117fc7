package handlers

import (
	"context"
	"sync/atomic"
	"time"

	"hologram/internal/events"
	"hologram/internal/filesystem"
	"hologram/internal/indexer"
	"hologram/internal/library"
	"hologram/internal/media"
	"hologram/internal/streaming"
)

// ScanEngine is the part of indexer.Engine the API drives.
type ScanEngine interface {
	ScanFolder(ctx context.Context, root string) (*indexer.ScanResult, error)
	ScanFolderWithProgress(ctx context.Context, root string) (*indexer.ScanResult, error)
	Cancel() bool
	Index() *library.Index
	Lookup(id string) (library.Photo, bool)
	Progress() library.ScanProgress
	IsScanning() bool
}

// ImageLoader loads full-resolution image bytes.
type ImageLoader interface {
	Load(path string) (media.Image, error)
}

type Handlers struct {
	engine    ScanEngine
	broker    *events.Broker
	loader    ImageLoader
	roots     *filesystem.VolumeResolver
	startTime time.Time
	ready     atomic.Bool

	// heartbeat is the idle interval between SSE keep-alive comments.
	heartbeat time.Duration
	stream    streaming.Config
}

// New creates the API handlers. roots limits which folders may be scanned
// or served; a nil or empty resolver allows every path.
func New(engine ScanEngine, broker *events.Broker, loader ImageLoader, roots *filesystem.VolumeResolver) *Handlers {
	return &Handlers{
		engine:    engine,
		broker:    broker,
		loader:    loader,
		roots:     roots,
		startTime: time.Now(),
		heartbeat: 15 * time.Second,
		stream:    streaming.DefaultConfig(),
	}
}

// SetReady marks the service ready (or not) for readiness probes.
func (h *Handlers) SetReady(ready bool) {
	h.ready.Store(ready)
}
