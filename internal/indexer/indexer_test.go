package indexer

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"hologram/internal/events"
	"hologram/internal/library"
	"hologram/internal/query"
)

// stubExtractor returns fixed metadata and lets tests hook each call.
type stubExtractor struct {
	mu    sync.Mutex
	calls int
	fail  map[string]bool
	hook  func(call int, path string)
}

func (s *stubExtractor) Extract(path string) (library.ExifData, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	hook := s.hook
	s.mu.Unlock()

	if hook != nil {
		hook(call, path)
	}
	if s.fail[filepath.Base(path)] {
		return library.ExifData{}, errors.New("cannot open")
	}
	return library.ExifData{
		CameraMake:  library.Ptr("Canon"),
		CameraModel: library.Ptr("EOS R5"),
		ISO:         library.Ptr(uint32(100)),
	}, nil
}

type stubThumbnailer struct{}

func (stubThumbnailer) Thumbnail(string, library.FileType, *uint16) *string {
	return library.Ptr("dGh1bWI=")
}

func newTestEngine(ext *stubExtractor, broker *events.Broker) *Engine {
	cfg := DefaultConfig()
	cfg.Workers = 2
	return New(cfg, Deps{Extractor: ext, Thumbnailer: stubThumbnailer{}, Broker: broker})
}

func TestScanFolder(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "IMG_0001.CR2", "IMG_0001.JPG", "IMG_0002.JPG", "notes.txt")

	eng := newTestEngine(&stubExtractor{}, nil)
	result, err := eng.ScanFolder(context.Background(), root)
	if err != nil {
		t.Fatalf("ScanFolder() error = %v", err)
	}
	if result.Outcome != library.OutcomeCompleted {
		t.Errorf("Outcome = %s, want completed", result.Outcome)
	}
	if len(result.Photos) != 3 {
		t.Fatalf("ScanFolder() returned %d photos, want 3", len(result.Photos))
	}

	stats := query.Aggregate(result.Photos)
	if stats.TotalPhotos != 3 || stats.RawCount != 1 || stats.JpegCount != 2 || stats.PairedCount != 1 {
		t.Errorf("stats = %+v, want total 3, raw 1, jpeg 2, paired 1", stats)
	}
	if result.Stats.Pairs != 1 {
		t.Errorf("result.Stats.Pairs = %d, want 1", result.Stats.Pairs)
	}

	for _, p := range result.Photos {
		if p.ID != library.PhotoID(p.FilePath) {
			t.Errorf("%s ID = %s, want %s", p.FileName, p.ID, library.PhotoID(p.FilePath))
		}
		if p.Thumbnail == nil {
			t.Errorf("%s has no thumbnail", p.FileName)
		}
		if p.FileSize == 0 {
			t.Errorf("%s FileSize = 0", p.FileName)
		}
		if p.ModifiedAt.IsZero() || p.CreatedAt.IsZero() {
			t.Errorf("%s timestamps not set: created %v, modified %v", p.FileName, p.CreatedAt, p.ModifiedAt)
		}
		if p.Exif.CameraModel == nil || *p.Exif.CameraModel != "EOS R5" {
			t.Errorf("%s CameraModel = %v, want EOS R5", p.FileName, p.Exif.CameraModel)
		}
	}

	if eng.Index().Len() != 3 {
		t.Errorf("Index().Len() = %d, want 3", eng.Index().Len())
	}
	if got := eng.LibraryStats(); got.RawPhotos != 1 || got.JpegPhotos != 2 || got.Pairs != 1 {
		t.Errorf("LibraryStats() = %+v, want raw 1, jpeg 2, pairs 1", got)
	}

	raw, ok := eng.Lookup(library.PhotoID(filepath.Join(root, "IMG_0001.CR2")))
	if !ok {
		t.Fatal("Lookup() did not find IMG_0001.CR2")
	}
	if raw.PairedWith == nil || *raw.PairedWith != library.PhotoID(filepath.Join(root, "IMG_0001.JPG")) {
		t.Errorf("IMG_0001.CR2 PairedWith = %v, want IMG_0001.JPG", raw.PairedWith)
	}
	if eng.Progress().Phase != library.PhaseComplete {
		t.Errorf("Progress().Phase = %s, want complete", eng.Progress().Phase)
	}
}

func TestScanFolderStableIDs(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a/IMG_0001.JPG", "b/IMG_0001.JPG")

	eng := newTestEngine(&stubExtractor{}, nil)
	first, err := eng.ScanFolder(context.Background(), root)
	if err != nil {
		t.Fatalf("first ScanFolder() error = %v", err)
	}
	second, err := eng.ScanFolder(context.Background(), root)
	if err != nil {
		t.Fatalf("second ScanFolder() error = %v", err)
	}

	if len(first.Photos) != 2 || len(second.Photos) != 2 {
		t.Fatalf("got %d and %d photos, want 2 each", len(first.Photos), len(second.Photos))
	}
	if first.Photos[0].ID == first.Photos[1].ID {
		t.Error("photos with the same name in different folders share an ID")
	}
	for i := range first.Photos {
		if first.Photos[i].ID != second.Photos[i].ID {
			t.Errorf("ID of %s changed across scans", first.Photos[i].FilePath)
		}
	}
	if first.ScanID == second.ScanID {
		t.Error("two scans share a scan id")
	}
}

func TestScanFolderSkipsUnreadableFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "good.jpg", "bad.jpg")

	eng := newTestEngine(&stubExtractor{fail: map[string]bool{"bad.jpg": true}}, nil)
	result, err := eng.ScanFolder(context.Background(), root)
	if err != nil {
		t.Fatalf("ScanFolder() error = %v", err)
	}
	if len(result.Photos) != 1 || result.Photos[0].FileName != "good.jpg" {
		t.Errorf("ScanFolder() photos = %v, want only good.jpg", result.Photos)
	}
	if result.Stats.Errors != 1 {
		t.Errorf("Stats.Errors = %d, want 1", result.Stats.Errors)
	}
}

func TestScanFolderRootErrors(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "file.jpg")

	broker := events.NewBroker(16)
	defer broker.Close()
	sub := broker.Subscribe(events.TopicComplete)
	defer sub.Close()

	eng := newTestEngine(&stubExtractor{}, broker)
	ctx := WithScanID(context.Background(), "missing-root")

	_, err := eng.ScanFolderWithProgress(ctx, filepath.Join(root, "nope"))
	if !errors.Is(err, ErrRootNotFound) {
		t.Fatalf("ScanFolderWithProgress() error = %v, want ErrRootNotFound", err)
	}

	waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ev, err := sub.Await(waitCtx, "missing-root", nil)
	if err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	if ev.Outcome != library.OutcomeFailed || ev.Error == "" {
		t.Errorf("completion = %+v, want failed with an error", ev)
	}

	if _, err := eng.ScanFolder(context.Background(), filepath.Join(root, "file.jpg")); !errors.Is(err, ErrRootNotDirectory) {
		t.Errorf("ScanFolder(file) error = %v, want ErrRootNotDirectory", err)
	}
	if eng.IsScanning() {
		t.Error("IsScanning() = true after a rejected root")
	}
}

func TestScanFolderWithProgress(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.jpg", "b.jpg", "c.jpg", "d/e.CR2", "d/e.jpg")

	broker := events.NewBroker(8)
	defer broker.Close()
	sub := broker.Subscribe()
	defer sub.Close()

	eng := newTestEngine(&stubExtractor{}, broker)
	ctx := WithScanID(context.Background(), "scan-1")

	type outcome struct {
		result *ScanResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := eng.ScanFolderWithProgress(ctx, root)
		done <- outcome{r, err}
	}()

	var progress []library.ScanProgress
	waitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	complete, err := sub.Await(waitCtx, "scan-1", func(p library.ScanProgress) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatalf("Await() error = %v", err)
	}

	out := <-done
	if out.err != nil {
		t.Fatalf("ScanFolderWithProgress() error = %v", out.err)
	}
	if out.result.ScanID != "scan-1" {
		t.Errorf("ScanID = %q, want scan-1", out.result.ScanID)
	}
	if complete.Outcome != library.OutcomeCompleted || complete.Photos != 5 {
		t.Errorf("completion = %+v, want completed with 5 photos", complete)
	}

	if len(progress) == 0 {
		t.Fatal("no progress events received")
	}
	if progress[0].Phase != library.PhaseDiscovering {
		t.Errorf("first phase = %s, want discovering", progress[0].Phase)
	}
	if last := progress[len(progress)-1]; last.Phase != library.PhasePairing || last.Current != 5 || last.Total != 5 {
		t.Errorf("last progress = %+v, want pairing 5/5", last)
	}
	for i := 1; i < len(progress); i++ {
		if progress[i].Current < progress[i-1].Current {
			t.Errorf("progress went backwards: %d then %d", progress[i-1].Current, progress[i].Current)
		}
		if progress[i].Current > progress[i].Total {
			t.Errorf("progress %d exceeds total %d", progress[i].Current, progress[i].Total)
		}
	}

	select {
	case ev, ok := <-sub.Events():
		if ok {
			t.Errorf("unexpected event after completion: %+v", ev)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestScanFolderCancel(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.jpg", "b.jpg")

	ext := &stubExtractor{}
	eng := newTestEngine(ext, nil)
	if _, err := eng.ScanFolder(context.Background(), root); err != nil {
		t.Fatalf("initial ScanFolder() error = %v", err)
	}
	before := eng.Index()

	writeFiles(t, root, "c.jpg", "d.jpg", "e.jpg", "f.jpg")
	ext.mu.Lock()
	ext.calls = 0
	ext.hook = func(call int, _ string) {
		if call == 2 {
			eng.Cancel()
		}
	}
	ext.mu.Unlock()

	result, err := eng.ScanFolder(context.Background(), root)
	if err != nil {
		t.Fatalf("cancelled ScanFolder() error = %v, want nil", err)
	}
	if result.Outcome != library.OutcomeCancelled {
		t.Errorf("Outcome = %s, want cancelled", result.Outcome)
	}
	if len(result.Photos) != 0 {
		t.Errorf("cancelled scan returned %d photos", len(result.Photos))
	}
	if eng.Index() != before || eng.Index().Len() != 2 {
		t.Errorf("index changed by a cancelled scan: %d photos", eng.Index().Len())
	}
	if eng.Cancel() {
		t.Error("Cancel() = true with no scan running")
	}
}

func TestScanFolderContextCancelled(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.jpg")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTestEngine(&stubExtractor{}, nil).ScanFolder(ctx, root)
	if err != nil {
		t.Fatalf("ScanFolder() error = %v", err)
	}
	if result.Outcome != library.OutcomeCancelled {
		t.Errorf("Outcome = %s, want cancelled", result.Outcome)
	}
}

func TestScanInProgress(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.jpg")

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	ext := &stubExtractor{hook: func(int, string) {
		once.Do(func() { close(entered) })
		<-release
	}}
	eng := newTestEngine(ext, nil)

	done := make(chan error, 1)
	go func() {
		_, err := eng.ScanFolder(context.Background(), root)
		done <- err
	}()

	<-entered
	if !eng.IsScanning() {
		t.Error("IsScanning() = false during a scan")
	}
	if _, err := eng.ScanFolder(context.Background(), root); !errors.Is(err, ErrScanInProgress) {
		t.Errorf("concurrent ScanFolder() error = %v, want ErrScanInProgress", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first ScanFolder() error = %v", err)
	}
	if eng.IsScanning() {
		t.Error("IsScanning() = true after the scan returned")
	}
}
