package media

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"os"
	"time"

	"hologram/internal/filesystem"
	"hologram/internal/library"
	"hologram/internal/logging"
	"hologram/internal/mediatypes"
	"hologram/internal/metrics"
	"hologram/internal/workers"
)

// Loader errors. Load wraps exactly one of them.
var (
	ErrNotFound    = errors.New("file not found")
	ErrUnsupported = errors.New("unsupported file type")
	ErrUnreadable  = errors.New("file unreadable")
	ErrUndecodable = errors.New("image could not be decoded")
)

// Image is a full-resolution, browser-displayable rendition of a photo.
type Image struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
}

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	UseVips bool
	// Quality of the JPEG produced for RAW files.
	Quality         int
	MaxDecodePixels int
	// MaxConcurrent bounds simultaneous decodes; each can hold a full
	// RAW frame in memory.
	MaxConcurrent int
	Retry         filesystem.RetryConfig
}

// DefaultLoaderConfig returns the standard loader settings.
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		UseVips:         true,
		Quality:         92,
		MaxDecodePixels: MaxImagePixels,
		MaxConcurrent:   workers.For(workers.CPUBound, 8),
		Retry:           filesystem.DefaultRetryConfig(),
	}
}

// Loader produces full-resolution images on demand. It keeps no state
// between calls.
type Loader struct {
	cfg LoaderConfig
	sem chan struct{}
}

func NewLoader(cfg LoaderConfig) *Loader {
	def := DefaultLoaderConfig()
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = def.Quality
	}
	if cfg.MaxDecodePixels <= 0 {
		cfg.MaxDecodePixels = def.MaxDecodePixels
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.Retry.MaxRetries == 0 && cfg.Retry.InitialBackoff == 0 {
		cfg.Retry = def.Retry
	}
	return &Loader{cfg: cfg, sem: make(chan struct{}, cfg.MaxConcurrent)}
}

// Load returns the full-resolution image at path. JPEG files are verified
// by decoding and returned byte for byte; RAW files are decoded and
// re-encoded as JPEG.
func (l *Loader) Load(path string) (img Image, err error) {
	l.sem <- struct{}{}
	defer func() { <-l.sem }()

	start := time.Now()
	fileType := mediatypes.Classify(path)
	defer func() {
		status := "success"
		if err != nil {
			status = loadStatus(err)
		}
		metrics.FullResLoadsTotal.WithLabelValues(string(fileType), status).Inc()
		metrics.FullResLoadDuration.Observe(time.Since(start).Seconds())
	}()

	info, err := filesystem.StatWithRetry(path, l.cfg.Retry)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Image{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Image{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if !info.Mode().IsRegular() {
		return Image{}, fmt.Errorf("%w: %s is not a regular file", ErrUnsupported, path)
	}

	switch fileType {
	case library.FileTypeJPEG:
		return l.loadJPEG(path)
	case library.FileTypeRaw:
		return l.loadRaw(path)
	default:
		return Image{}, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
}

func (l *Loader) loadJPEG(path string) (Image, error) {
	data, err := filesystem.ReadFileWithRetry(path, l.cfg.Retry)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	b := decoded.Bounds()

	return Image{
		Data:     data,
		MimeType: mediatypes.GetMimeType(".jpg"),
		Width:    b.Dx(),
		Height:   b.Dy(),
	}, nil
}

func (l *Loader) loadRaw(path string) (Image, error) {
	if l.cfg.UseVips && IsVipsAvailable() {
		data, w, h, err := exportWithVips(path, l.cfg.Quality)
		if err == nil {
			return Image{Data: data, MimeType: mediatypes.GetMimeType(".jpg"), Width: w, Height: h}, nil
		}
		logging.Debug("vips could not decode %s: %v", path, err)
	}

	decoded, err := LoadImageConstrained(path, l.cfg.Retry, l.cfg.MaxDecodePixels)
	if err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return Image{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		return Image{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	data, err := encodeJPEG(decoded, l.cfg.Quality)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	b := decoded.Bounds()
	return Image{
		Data:     data,
		MimeType: mediatypes.GetMimeType(".jpg"),
		Width:    b.Dx(),
		Height:   b.Dy(),
	}, nil
}

func loadStatus(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	case errors.Is(err, ErrUnreadable):
		return "unreadable"
	default:
		return "undecodable"
	}
}
