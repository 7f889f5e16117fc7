package middleware

import (
	"compress/gzip"
	"io"
	"mime"
	"net/http"
	"slices"
	"strings"
	"sync"
)

// CompressionConfig holds configuration for the compression middleware
type CompressionConfig struct {
	// MinSize is the body size below which responses go out uncompressed.
	MinSize int
	// Level is a compress/gzip level.
	Level int
	// CompressibleTypes are media types eligible for gzip. Image bytes are
	// already compressed and never listed.
	CompressibleTypes []string
	// SkipPaths are never compressed: the event stream must flush each
	// event as written.
	SkipPaths []string
}

func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize:           1024,
		Level:             gzip.DefaultCompression,
		CompressibleTypes: []string{"application/json", "text/plain"},
		SkipPaths:         []string{"/api/events", "/metrics"},
	}
}

var gzipPools sync.Map // level -> *sync.Pool

func gzipPool(level int) *sync.Pool {
	if p, ok := gzipPools.Load(level); ok {
		return p.(*sync.Pool)
	}
	p, _ := gzipPools.LoadOrStore(level, &sync.Pool{New: func() any {
		w, err := gzip.NewWriterLevel(io.Discard, level)
		if err != nil {
			w = gzip.NewWriter(io.Discard)
		}
		return w
	}})
	return p.(*sync.Pool)
}

type compressMode int

const (
	undecided compressMode = iota
	passthrough
	compressing
)

// gzipResponseWriter holds back the first MinSize bytes so small photo
// lists and error bodies are not wrapped in gzip framing.
type gzipResponseWriter struct {
	http.ResponseWriter
	config  CompressionConfig
	mode    compressMode
	status  int
	pending []byte
	gz      *gzip.Writer
}

func newGzipResponseWriter(w http.ResponseWriter, config CompressionConfig) *gzipResponseWriter {
	return &gzipResponseWriter{ResponseWriter: w, config: config, status: http.StatusOK}
}

func (g *gzipResponseWriter) WriteHeader(status int) {
	if g.mode != undecided {
		return
	}
	g.status = status
	// Bodies of these types never compress, so stop buffering early and
	// let image bytes stream straight through.
	if !g.compressible() {
		g.decide(passthrough)
	}
}

func (g *gzipResponseWriter) Write(data []byte) (int, error) {
	switch g.mode {
	case passthrough:
		return g.ResponseWriter.Write(data)
	case compressing:
		return g.gz.Write(data)
	}

	if g.Header().Get("Content-Type") != "" && !g.compressible() {
		g.decide(passthrough)
		return g.ResponseWriter.Write(data)
	}
	g.pending = append(g.pending, data...)
	if len(g.pending) >= g.config.MinSize {
		if err := g.decide(g.choose()); err != nil {
			return 0, err
		}
	}
	return len(data), nil
}

func (g *gzipResponseWriter) compressible() bool {
	mediaType, _, err := mime.ParseMediaType(g.Header().Get("Content-Type"))
	if err != nil {
		return false
	}
	return slices.Contains(g.config.CompressibleTypes, strings.ToLower(mediaType))
}

func (g *gzipResponseWriter) choose() compressMode {
	if len(g.pending) >= g.config.MinSize && g.compressible() {
		return compressing
	}
	return passthrough
}

// decide commits the headers and flushes anything held back.
func (g *gzipResponseWriter) decide(mode compressMode) error {
	g.mode = mode
	pending := g.pending
	g.pending = nil

	if mode == passthrough {
		g.ResponseWriter.WriteHeader(g.status)
		if len(pending) == 0 {
			return nil
		}
		_, err := g.ResponseWriter.Write(pending)
		return err
	}

	h := g.Header()
	h.Del("Content-Length")
	h.Set("Content-Encoding", "gzip")
	h.Add("Vary", "Accept-Encoding")
	g.ResponseWriter.WriteHeader(g.status)

	g.gz = gzipPool(g.config.Level).Get().(*gzip.Writer)
	g.gz.Reset(g.ResponseWriter)
	_, err := g.gz.Write(pending)
	return err
}

func (g *gzipResponseWriter) Close() error {
	if g.mode == undecided {
		if err := g.decide(g.choose()); err != nil {
			return err
		}
	}
	if g.gz == nil {
		return nil
	}
	err := g.gz.Close()
	gzipPool(g.config.Level).Put(g.gz)
	g.gz = nil
	return err
}

func (g *gzipResponseWriter) Unwrap() http.ResponseWriter {
	return g.ResponseWriter
}

func (g *gzipResponseWriter) Flush() {
	if g.mode == undecided {
		_ = g.decide(g.choose())
	}
	if g.gz != nil {
		_ = g.gz.Flush()
	}
	if f, ok := g.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func acceptsGzip(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(enc), ";")
		if strings.EqualFold(name, "gzip") {
			return true
		}
	}
	return false
}

// Compression gzips JSON and text responses for clients that accept it.
// HEAD requests, event streams and skipped paths pass through untouched.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead || !acceptsGzip(r) ||
				strings.Contains(r.Header.Get("Accept"), "text/event-stream") ||
				hasPrefix(r.URL.Path, config.SkipPaths) {
				next.ServeHTTP(w, r)
				return
			}

			gzw := newGzipResponseWriter(w, config)
			defer gzw.Close()
			next.ServeHTTP(gzw, r)
		})
	}
}
