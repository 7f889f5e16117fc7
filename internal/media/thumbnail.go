package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"hologram/internal/exif"
	"hologram/internal/filesystem"
	"hologram/internal/library"
	"hologram/internal/logging"
	"hologram/internal/metrics"

	"github.com/disintegration/imaging"
)

// Thumbnail sources, also used as metric labels.
const (
	SourceEmbedded = "embedded"
	SourceVips     = "vips"
	SourceDecode   = "decode"
)

// ThumbnailConfig configures a ThumbnailGenerator.
type ThumbnailConfig struct {
	// MaxDimension bounds the long edge of the thumbnail.
	MaxDimension int
	Quality      int
	UseVips      bool
	// MinPreviewDimension is the smallest embedded preview long edge that
	// is used instead of decoding the image.
	MinPreviewDimension int
	MaxDecodePixels     int
	Retry               filesystem.RetryConfig
}

// DefaultThumbnailConfig returns the standard thumbnail settings.
func DefaultThumbnailConfig() ThumbnailConfig {
	return ThumbnailConfig{
		MaxDimension:        256,
		Quality:             80,
		UseVips:             true,
		MinPreviewDimension: 160,
		MaxDecodePixels:     MaxImagePixels,
		Retry:               filesystem.DefaultRetryConfig(),
	}
}

// Thumbnailer produces base64 JPEG thumbnails.
type Thumbnailer interface {
	Thumbnail(path string, fileType library.FileType, orientation *uint16) *string
}

// ThumbnailGenerator renders thumbnails from embedded previews, libvips or
// a full in-process decode, in that order.
type ThumbnailGenerator struct {
	cfg ThumbnailConfig
}

func NewThumbnailGenerator(cfg ThumbnailConfig) *ThumbnailGenerator {
	def := DefaultThumbnailConfig()
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = def.MaxDimension
	}
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = def.Quality
	}
	if cfg.MinPreviewDimension <= 0 {
		cfg.MinPreviewDimension = def.MinPreviewDimension
	}
	if cfg.MaxDecodePixels <= 0 {
		cfg.MaxDecodePixels = def.MaxDecodePixels
	}
	if cfg.Retry.MaxRetries == 0 && cfg.Retry.InitialBackoff == 0 {
		cfg.Retry = def.Retry
	}
	logging.Debug("ThumbnailGenerator: max %dpx, quality %d, vips %t", cfg.MaxDimension, cfg.Quality, cfg.UseVips)
	return &ThumbnailGenerator{cfg: cfg}
}

// Thumbnail returns the base64 (standard encoding) JPEG thumbnail of path,
// or nil when every strategy fails. Failures are logged, never returned.
func (g *ThumbnailGenerator) Thumbnail(path string, fileType library.FileType, orientation *uint16) *string {
	data, source, err := g.Generate(path, fileType, orientation)
	if err != nil {
		logging.Debug("Thumbnail failed for %s: %v", path, err)
		return nil
	}
	logging.Debug("Thumbnail for %s from %s (%d bytes)", filepath.Base(path), source, len(data))
	s := base64.StdEncoding.EncodeToString(data)
	return &s
}

// Generate returns the thumbnail JPEG bytes and the strategy that
// produced them.
func (g *ThumbnailGenerator) Generate(path string, fileType library.FileType, orientation *uint16) ([]byte, string, error) {
	if !fileType.Indexable() {
		return nil, "", fmt.Errorf("unsupported file type: %s", fileType)
	}

	var o uint16 = 1
	if orientation != nil {
		o = *orientation
	}

	var errs []error
	strategies := []struct {
		source string
		run    func() ([]byte, error)
	}{
		{SourceEmbedded, func() ([]byte, error) { return g.fromEmbedded(path, o) }},
		{SourceVips, func() ([]byte, error) { return g.fromVips(path) }},
		{SourceDecode, func() ([]byte, error) { return g.fromDecode(path) }},
	}

	for _, s := range strategies {
		if s.source == SourceVips && (!g.cfg.UseVips || !IsVipsAvailable()) {
			continue
		}
		start := time.Now()
		data, err := s.run()
		metrics.ThumbnailGenerationDuration.WithLabelValues(s.source).Observe(time.Since(start).Seconds())
		if err == nil {
			metrics.ThumbnailGenerationsTotal.WithLabelValues(s.source, "success").Inc()
			return data, s.source, nil
		}
		metrics.ThumbnailGenerationsTotal.WithLabelValues(s.source, "error").Inc()
		errs = append(errs, fmt.Errorf("%s: %w", s.source, err))
	}
	return nil, "", fmt.Errorf("all thumbnail strategies failed: %w", errors.Join(errs...))
}

func (g *ThumbnailGenerator) fromEmbedded(path string, orientation uint16) ([]byte, error) {
	f, err := filesystem.OpenWithRetry(path, g.cfg.Retry)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	preview, err := exif.EmbeddedPreview(f)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(preview))
	if err != nil {
		return nil, fmt.Errorf("embedded preview does not decode: %w", err)
	}
	b := img.Bounds()
	if max(b.Dx(), b.Dy()) < g.cfg.MinPreviewDimension {
		return nil, fmt.Errorf("embedded preview too small: %dx%d", b.Dx(), b.Dy())
	}
	return g.finish(orient(img, orientation))
}

func (g *ThumbnailGenerator) fromVips(path string) ([]byte, error) {
	return thumbnailWithVips(path, g.cfg.MaxDimension, g.cfg.Quality)
}

func (g *ThumbnailGenerator) fromDecode(path string) ([]byte, error) {
	img, err := LoadImageConstrained(path, g.cfg.Retry, g.cfg.MaxDecodePixels)
	if err != nil {
		return nil, err
	}
	return g.finish(img)
}

// finish fits img to the configured bound and encodes it.
func (g *ThumbnailGenerator) finish(img image.Image) ([]byte, error) {
	b := img.Bounds()
	w, h := fitWithin(b.Dx(), b.Dy(), g.cfg.MaxDimension)
	if w != b.Dx() || h != b.Dy() {
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}
	return encodeJPEG(img, g.cfg.Quality)
}
