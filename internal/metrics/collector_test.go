package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"hologram/internal/filesystem"
)

type mockStatsProvider struct {
	mu    sync.Mutex
	stats LibraryStats
	calls int
}

func (m *mockStatsProvider) LibraryStats() LibraryStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.stats
}

func (m *mockStatsProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestCollectorCollect(t *testing.T) {
	provider := &mockStatsProvider{stats: LibraryStats{RawPhotos: 12, JpegPhotos: 30, Pairs: 9, Cameras: 2, Lenses: 5}}
	c := NewCollector(provider, time.Hour)
	c.collect()

	if got := testutil.ToFloat64(LibraryPhotos.WithLabelValues("RAW")); got != 12 {
		t.Errorf("Expected 12 RAW photos, got %v", got)
	}
	if got := testutil.ToFloat64(LibraryPhotos.WithLabelValues("JPEG")); got != 30 {
		t.Errorf("Expected 30 JPEG photos, got %v", got)
	}
	if got := testutil.ToFloat64(LibraryPairs); got != 9 {
		t.Errorf("Expected 9 pairs, got %v", got)
	}
	if got := testutil.ToFloat64(LibraryDistinct.WithLabelValues("lens")); got != 5 {
		t.Errorf("Expected 5 lenses, got %v", got)
	}
}

func TestCollectorNilProvider(t *testing.T) {
	c := NewCollector(nil, time.Hour)
	c.collect()
}

func TestCollectorStopIsIdempotent(t *testing.T) {
	unstarted := NewCollector(nil, time.Hour)
	unstarted.Stop()
	unstarted.Stop()

	c := NewCollector(&mockStatsProvider{}, time.Hour)
	c.Start()
	c.Stop()
	c.Stop()
}

func TestCollectorStartStop(t *testing.T) {
	provider := &mockStatsProvider{}
	c := NewCollector(provider, 10*time.Millisecond)
	c.Start()

	deadline := time.Now().Add(time.Second)
	for provider.callCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	c.Stop()

	if provider.callCount() < 2 {
		t.Errorf("Expected at least 2 collections, got %d", provider.callCount())
	}
}

func TestFilesystemObserver(t *testing.T) {
	obs := NewFilesystemObserver()

	before := testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("test-vol", "read"))
	obs.ObserveOperation("test-vol", "read", 10*time.Millisecond, errors.New("boom"))
	obs.ObserveOperation("test-vol", "read", 10*time.Millisecond, nil)
	after := testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("test-vol", "read"))
	if after-before != 1 {
		t.Errorf("Expected 1 error recorded, got %v", after-before)
	}

	staleBefore := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("stat", "test-vol"))
	recoveredBefore := testutil.ToFloat64(FilesystemRetries.WithLabelValues("stat", "test-vol", "recovered"))
	obs.ObserveRetry(filesystem.RetryReport{
		Op: "stat", Volume: "test-vol", Stale: 2, Retries: 2,
		Outcome: filesystem.RetryRecovered, Duration: time.Millisecond,
	})
	if got := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("stat", "test-vol")); got-staleBefore != 2 {
		t.Errorf("Expected 2 stale errors recorded, got %v", got-staleBefore)
	}
	if got := testutil.ToFloat64(FilesystemRetries.WithLabelValues("stat", "test-vol", "recovered")); got-recoveredBefore != 1 {
		t.Errorf("Expected 1 recovered retry, got %v", got-recoveredBefore)
	}
}

func TestInitializeMetrics(t *testing.T) {
	InitializeMetrics([]string{"archive"})

	if n := testutil.CollectAndCount(ScansTotal); n != 4 {
		t.Errorf("Expected 4 scan outcome series, got %d", n)
	}
	if n := testutil.CollectAndCount(ThumbnailGenerationsTotal); n < 6 {
		t.Errorf("Expected at least 6 thumbnail series, got %d", n)
	}
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("1.2.3", "abc123", "go1.25")
	if got := testutil.ToFloat64(AppInfo.WithLabelValues("1.2.3", "abc123", "go1.25")); got != 1 {
		t.Errorf("Expected app info gauge 1, got %v", got)
	}
}
