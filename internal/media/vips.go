package media

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/davidbyttow/govips/v2/vips"

	"hologram/internal/logging"
)

// ErrVipsUnavailable is returned by the vips paths when libvips is not
// running.
var ErrVipsUnavailable = errors.New("libvips not available")

type vipsState int32

const (
	vipsStopped vipsState = iota
	vipsRunning
	// govips cannot start again after Shutdown.
	vipsClosed
)

var (
	vipsMu    sync.Mutex
	vipsPhase atomic.Int32
)

func currentVipsState() vipsState { return vipsState(vipsPhase.Load()) }

// vipsLogging picks the libvips verbosity for the application level and a
// handler that routes libvips messages into the logging package.
func vipsLogging(level logging.LogLevel) (vips.LogLevel, vips.LoggingHandlerFunction) {
	verbosity := map[logging.LogLevel]vips.LogLevel{
		logging.LevelDebug: vips.LogLevelInfo,
		logging.LevelInfo:  vips.LogLevelWarning,
		logging.LevelWarn:  vips.LogLevelError,
		logging.LevelError: vips.LogLevelCritical,
	}
	v, ok := verbosity[level]
	if !ok {
		v = vips.LogLevelWarning
	}

	return v, func(domain string, l vips.LogLevel, msg string) {
		if l > v {
			return
		}
		switch {
		case l <= vips.LogLevelCritical:
			logging.Error("vips %s: %s", domain, msg)
		case l == vips.LogLevelWarning:
			logging.Warn("vips %s: %s", domain, msg)
		default:
			logging.Debug("vips %s: %s", domain, msg)
		}
	}
}

// InitVips starts libvips. Repeated calls are no-ops; a call after
// ShutdownVips fails.
func InitVips() error {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	switch currentVipsState() {
	case vipsRunning:
		return nil
	case vipsClosed:
		return fmt.Errorf("%w: already shut down", ErrVipsUnavailable)
	}

	level, handler := vipsLogging(logging.GetLevel())
	vips.LoggingSettings(handler, level)

	// One thread per call: scan workers already provide the parallelism.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 << 20,
		MaxCacheSize:     100,
	})
	vipsPhase.Store(int32(vipsRunning))
	logging.Info("libvips %s started", vips.Version)
	return nil
}

func ShutdownVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if currentVipsState() != vipsRunning {
		return
	}
	vips.Shutdown()
	vipsPhase.Store(int32(vipsClosed))
	logging.Info("libvips stopped")
}

func IsVipsAvailable() bool {
	return currentVipsState() == vipsRunning
}

var vipsJPEGParams = vips.JpegExportParams{StripMetadata: true, OptimizeCoding: true}

// vipsImportParams rotates pixels upright by the EXIF orientation on load.
func vipsImportParams() *vips.ImportParams {
	params := vips.NewImportParams()
	params.AutoRotate.Set(true)
	return params
}

// withVipsImage loads path upright, applies edit and encodes the result as
// JPEG.
func withVipsImage(path string, quality int, edit func(*vips.ImageRef) error) ([]byte, *vips.ImageRef, error) {
	if !IsVipsAvailable() {
		return nil, nil, ErrVipsUnavailable
	}

	ref, err := vips.LoadImageFromFile(path, vipsImportParams())
	if err != nil {
		return nil, nil, fmt.Errorf("vips load %s: %w", filepath.Base(path), err)
	}
	if edit != nil {
		if err := edit(ref); err != nil {
			ref.Close()
			return nil, nil, err
		}
	}

	params := vipsJPEGParams
	params.Quality = quality
	out, _, err := ref.ExportJpeg(&params)
	if err != nil {
		ref.Close()
		return nil, nil, fmt.Errorf("vips jpeg export: %w", err)
	}
	return out, ref, nil
}

// thumbnailWithVips shrinks path to fit a maxDim box during decode.
func thumbnailWithVips(path string, maxDim, quality int) ([]byte, error) {
	out, ref, err := withVipsImage(path, quality, func(ref *vips.ImageRef) error {
		w, h := fitWithin(ref.Width(), ref.Height(), maxDim)
		logging.Debug("vips thumbnail %s: %dx%d -> %dx%d", filepath.Base(path), ref.Width(), ref.Height(), w, h)
		if err := ref.Thumbnail(w, h, vips.InterestingNone); err != nil {
			return fmt.Errorf("vips thumbnail: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ref.Close()
	return out, nil
}

// exportWithVips decodes path at full size and re-encodes it as JPEG.
func exportWithVips(path string, quality int) ([]byte, int, int, error) {
	out, ref, err := withVipsImage(path, quality, nil)
	if err != nil {
		return nil, 0, 0, err
	}
	defer ref.Close()
	return out, ref.Width(), ref.Height(), nil
}
