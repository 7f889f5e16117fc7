package media

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hologram/internal/exif/exiftest"
)

func testLoader() *Loader {
	cfg := DefaultLoaderConfig()
	cfg.UseVips = false
	return NewLoader(cfg)
}

func TestLoadJPEGReturnsOriginalBytes(t *testing.T) {
	dir := t.TempDir()
	path := createTestJPEG(t, dir, "IMG_0001.jpg", 640, 480)
	want, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	img, err := testLoader().Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !bytes.Equal(img.Data, want) {
		t.Error("Load() did not return the original file bytes")
	}
	if img.MimeType != "image/jpeg" {
		t.Errorf("MimeType = %q, want image/jpeg", img.MimeType)
	}
	if img.Width != 640 || img.Height != 480 {
		t.Errorf("dimensions = %dx%d, want 640x480", img.Width, img.Height)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	corrupt := writeTestFile(t, dir, "broken.jpg", []byte("\xFF\xD8\xFF garbage"))
	text := writeTestFile(t, dir, "notes.txt", []byte("hello"))
	raw := writeTestFile(t, dir, "IMG_0001.CR2", exiftest.TIFF(exiftest.Tags{Make: "Canon"}))
	sub := filepath.Join(dir, "album.jpg")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"missing file", filepath.Join(dir, "missing.jpg"), ErrNotFound},
		{"unsupported type", text, ErrUnsupported},
		{"directory", sub, ErrUnsupported},
		{"corrupt jpeg", corrupt, ErrUndecodable},
		{"raw without decoder", raw, ErrUndecodable},
	}

	loader := testLoader()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := loader.Load(tt.path)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Load() error = %v, want %v", err, tt.wantErr)
			}
			if img.Data != nil {
				t.Error("Load() returned partial data alongside an error")
			}
		})
	}
}

func TestLoadUnreadable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir := t.TempDir()
	path := createTestJPEG(t, dir, "locked.jpg", 10, 10)
	if err := os.Chmod(path, 0); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(path, 0o644)

	if _, err := testLoader().Load(path); !errors.Is(err, ErrUnreadable) {
		t.Errorf("Load() error = %v, want ErrUnreadable", err)
	}
}

func TestNewLoaderDefaults(t *testing.T) {
	l := NewLoader(LoaderConfig{})
	if l.cfg.Quality != 92 {
		t.Errorf("Quality = %d, want 92", l.cfg.Quality)
	}
	if l.cfg.MaxConcurrent < 1 || cap(l.sem) != l.cfg.MaxConcurrent {
		t.Errorf("MaxConcurrent = %d with semaphore %d, want a positive matching bound", l.cfg.MaxConcurrent, cap(l.sem))
	}

	l = NewLoader(LoaderConfig{MaxConcurrent: 2})
	if cap(l.sem) != 2 {
		t.Errorf("semaphore = %d, want 2", cap(l.sem))
	}
}
