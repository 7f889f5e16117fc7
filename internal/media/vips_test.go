package media

import (
	"bytes"
	"errors"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"hologram/internal/exif/exiftest"
	"hologram/internal/library"
	"hologram/internal/logging"
)

// NOTE: govips cannot be restarted once vips.Shutdown() has been called.
// Tests that need vips run first; shutdown tests run last.

func TestVipsLoggingLevels(t *testing.T) {
	levels := []logging.LogLevel{
		logging.LevelDebug,
		logging.LevelInfo,
		logging.LevelWarn,
		logging.LevelError,
	}
	for _, level := range levels {
		_, handler := vipsLogging(level)
		if handler == nil {
			t.Errorf("vipsLogging(%v) returned nil handler", level)
		}
	}
}

func TestInitVipsIdempotency(t *testing.T) {
	if err := InitVips(); err != nil {
		t.Skipf("libvips not available in test environment: %v", err)
	}
	if err := InitVips(); err != nil {
		t.Errorf("Second InitVips() call failed: %v", err)
	}
	if !IsVipsAvailable() {
		t.Error("After successful InitVips, IsVipsAvailable should return true")
	}
}

func TestVipsImportParamsAutoRotate(t *testing.T) {
	if !vipsImportParams().AutoRotate.Get() {
		t.Error("vipsImportParams() AutoRotate = false, want true")
	}
}

func TestThumbnailWithVipsAppliesOrientation(t *testing.T) {
	if !IsVipsAvailable() {
		t.Skip("libvips not available in test environment")
	}

	data, err := exiftest.JPEG(exiftest.Tags{Orientation: 6}, exiftest.Gradient(400, 200))
	if err != nil {
		t.Fatalf("build fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "rotated.jpg")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	out, err := thumbnailWithVips(path, 100, 80)
	if err != nil {
		t.Fatalf("thumbnailWithVips() error = %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("vips output is not a JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() >= b.Dy() {
		t.Errorf("thumbnail = %dx%d, want portrait after orientation 6", b.Dx(), b.Dy())
	}
}

func TestThumbnailWithVips(t *testing.T) {
	if !IsVipsAvailable() {
		t.Skip("libvips not available in test environment")
	}

	dir := t.TempDir()
	path := createTestJPEG(t, dir, "vips.jpg", 2000, 1500)

	data, err := thumbnailWithVips(path, 256, 80)
	if err != nil {
		t.Fatalf("thumbnailWithVips() error = %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("vips output is not a JPEG: %v", err)
	}

	// vips rounds the short edge on its own.
	b := img.Bounds()
	if b.Dx() != 256 || b.Dy() < 190 || b.Dy() > 194 {
		t.Errorf("vips thumbnail = %dx%d, want 256x~192", b.Dx(), b.Dy())
	}

	cfg := DefaultThumbnailConfig()
	cfg.UseVips = true
	_, source, err := NewThumbnailGenerator(cfg).Generate(path, library.FileTypeJPEG, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if source != SourceVips {
		t.Errorf("source = %q, want %q", source, SourceVips)
	}
}

func TestThumbnailWithVipsMissingFile(t *testing.T) {
	if !IsVipsAvailable() {
		t.Skip("libvips not available in test environment")
	}
	if _, err := thumbnailWithVips(filepath.Join(t.TempDir(), "missing.jpg"), 256, 80); err == nil {
		t.Error("Expected error for missing file, got nil")
	}
}

// Tests that interact with shutdown should run last to avoid breaking other tests
func TestVipsUnavailableAfterShutdown(t *testing.T) {
	wasRunning := IsVipsAvailable()
	ShutdownVips()
	ShutdownVips()

	if wasRunning {
		if err := InitVips(); !errors.Is(err, ErrVipsUnavailable) {
			t.Errorf("InitVips() after shutdown error = %v, want ErrVipsUnavailable", err)
		}
	}

	if IsVipsAvailable() {
		t.Error("After ShutdownVips, IsVipsAvailable should return false")
	}

	path := createTestJPEG(t, t.TempDir(), "after.jpg", 100, 100)
	if _, err := thumbnailWithVips(path, 50, 80); !errors.Is(err, ErrVipsUnavailable) {
		t.Errorf("thumbnailWithVips() error = %v, want ErrVipsUnavailable", err)
	}
	if _, _, _, err := exportWithVips(path, 90); !errors.Is(err, ErrVipsUnavailable) {
		t.Errorf("exportWithVips() error = %v, want ErrVipsUnavailable", err)
	}
}

func BenchmarkIsVipsAvailable(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = IsVipsAvailable()
	}
}
