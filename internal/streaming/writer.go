package streaming

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"hologram/internal/logging"
)

// Sentinel errors for streaming operations.
var (
	// ErrWriteTimeout indicates that a write operation exceeded the configured timeout.
	// This typically occurs when a client is receiving data too slowly.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone indicates that the client disconnected before the stream completed.
	ErrClientGone = errors.New("client disconnected")

	// ErrStreamCanceled indicates that the stream was closed before the write.
	ErrStreamCanceled = errors.New("stream canceled")
)

// Config configures a Writer.
type Config struct {
	// WriteTimeout bounds each write to the client. 0 disables it.
	WriteTimeout time.Duration
	// ChunkSize splits large writes; each chunk gets its own deadline.
	// 0 writes as received.
	ChunkSize int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		WriteTimeout: 30 * time.Second,
		ChunkSize:    64 * 1024,
	}
}

// Writer wraps an http.ResponseWriter with per-write deadlines, so a
// client that stops reading releases the handler instead of holding it.
type Writer struct {
	w      http.ResponseWriter
	rc     *http.ResponseController
	ctx    context.Context
	config Config

	mu           sync.Mutex
	startTime    time.Time
	bytesWritten int64
	closed       bool
	// deadlines is false once the writer chain reports that write
	// deadlines are unsupported.
	deadlines bool
}

// NewWriter creates a Writer bound to the request context ctx.
func NewWriter(ctx context.Context, w http.ResponseWriter, config Config) *Writer {
	return &Writer{
		w:         w,
		rc:        http.NewResponseController(w),
		ctx:       ctx,
		config:    config,
		startTime: time.Now(),
		deadlines: config.WriteTimeout > 0,
	}
}

// Write implements io.Writer.
func (sw *Writer) Write(p []byte) (int, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.closed {
		return 0, ErrStreamCanceled
	}

	written := 0
	for len(p) > 0 {
		if err := sw.ctx.Err(); err != nil {
			return written, ErrClientGone
		}

		chunk := p
		if sw.config.ChunkSize > 0 && len(chunk) > sw.config.ChunkSize {
			chunk = p[:sw.config.ChunkSize]
		}

		sw.setDeadline()
		n, err := sw.w.Write(chunk)
		written += n
		sw.bytesWritten += int64(n)
		if err != nil {
			return written, sw.classify(err)
		}
		p = p[len(chunk):]
	}
	return written, nil
}

// Flush sends buffered data to the client.
func (sw *Writer) Flush() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.closed {
		return ErrStreamCanceled
	}
	sw.setDeadline()
	if err := sw.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return sw.classify(err)
	}
	return nil
}

func (sw *Writer) setDeadline() {
	if !sw.deadlines {
		return
	}
	if err := sw.rc.SetWriteDeadline(time.Now().Add(sw.config.WriteTimeout)); err != nil {
		if errors.Is(err, http.ErrNotSupported) {
			logging.Debug("Write deadlines unsupported by response writer")
		}
		sw.deadlines = false
	}
}

func (sw *Writer) classify(err error) error {
	switch {
	case errors.Is(err, os.ErrDeadlineExceeded):
		return ErrWriteTimeout
	case sw.ctx.Err() != nil:
		return ErrClientGone
	default:
		return err
	}
}

// Close clears the write deadline. Later writes fail with
// ErrStreamCanceled.
func (sw *Writer) Close() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.closed {
		return nil
	}
	sw.closed = true
	if !sw.deadlines {
		return nil
	}
	if err := sw.rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

// Stats returns streaming statistics
func (sw *Writer) Stats() (bytesWritten int64, duration time.Duration) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.bytesWritten, time.Since(sw.startTime)
}

// Send writes body to w in deadline-bounded chunks. Headers must already
// be set.
func Send(ctx context.Context, w http.ResponseWriter, body []byte, config Config) error {
	sw := NewWriter(ctx, w, config)
	defer func() {
		if err := sw.Close(); err != nil {
			logging.Debug("Failed to clear write deadline: %v", err)
		}
	}()

	_, err := sw.Write(body)

	bytesWritten, duration := sw.Stats()
	logging.Debug("Sent %d bytes in %v", bytesWritten, duration)
	return err
}
