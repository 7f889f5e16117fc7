package library

import (
	"errors"
	"sync"
	"testing"
)

func TestPhotoIDStable(t *testing.T) {
	a := PhotoID("/photos/2024/IMG_0001.CR2")
	b := PhotoID("/photos/2024/IMG_0001.CR2")
	c := PhotoID("/photos/2024/./IMG_0001.CR2")
	d := PhotoID("/photos/2024/IMG_0001.JPG")

	if a != b {
		t.Errorf("Expected identical IDs for the same path, got %s and %s", a, b)
	}
	if a != c {
		t.Errorf("Expected cleaned paths to share an ID, got %s and %s", a, c)
	}
	if a == d {
		t.Error("Expected different paths to produce different IDs")
	}
	if len(a) != 36 {
		t.Errorf("Expected UUID string, got %q", a)
	}
}

func newPhoto(path string, ft FileType) Photo {
	return Photo{ID: PhotoID(path), FilePath: path, FileType: ft}
}

func TestIndexPutGet(t *testing.T) {
	idx := NewIndex()
	p := newPhoto("/a/IMG_1.JPG", FileTypeJPEG)
	p.Exif.CameraMake = Ptr("Canon")
	idx.Put(p)

	got, ok := idx.Get(p.ID)
	if !ok {
		t.Fatal("Expected photo to be found")
	}
	*got.Exif.CameraMake = "Nikon"

	again, _ := idx.Get(p.ID)
	if *again.Exif.CameraMake != "Canon" {
		t.Error("Mutating a returned photo changed the Index")
	}

	if _, ok := idx.Get("missing"); ok {
		t.Error("Expected missing id to not be found")
	}
}

func TestIndexPutReplaces(t *testing.T) {
	idx := NewIndex()
	p := newPhoto("/a/IMG_1.JPG", FileTypeJPEG)
	p.FileSize = 1
	idx.Put(p)
	p.FileSize = 2
	idx.Put(p)

	if idx.Len() != 1 {
		t.Errorf("Expected 1 photo, got %d", idx.Len())
	}
	got, _ := idx.Get(p.ID)
	if got.FileSize != 2 {
		t.Errorf("Expected replaced size 2, got %d", got.FileSize)
	}
}

func TestIndexSnapshotOrder(t *testing.T) {
	idx := NewIndex()
	for _, path := range []string{"/c/3.jpg", "/a/1.jpg", "/b/2.jpg"} {
		idx.Put(newPhoto(path, FileTypeJPEG))
	}

	snap := idx.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("Expected 3 photos, got %d", len(snap))
	}
	for i, want := range []string{"/a/1.jpg", "/b/2.jpg", "/c/3.jpg"} {
		if snap[i].FilePath != want {
			t.Errorf("Snapshot[%d] = %s, expected %s", i, snap[i].FilePath, want)
		}
	}
}

func TestIndexPair(t *testing.T) {
	idx := NewIndex()
	raw := newPhoto("/a/IMG_1.CR2", FileTypeRaw)
	jpg := newPhoto("/a/IMG_1.JPG", FileTypeJPEG)
	other := newPhoto("/a/IMG_1.JPEG", FileTypeJPEG)
	idx.Put(raw)
	idx.Put(jpg)
	idx.Put(other)

	if err := idx.Pair(raw.ID, jpg.ID); err != nil {
		t.Fatalf("Pair failed: %v", err)
	}

	r, _ := idx.Get(raw.ID)
	j, _ := idx.Get(jpg.ID)
	if r.PairedWith == nil || *r.PairedWith != jpg.ID {
		t.Errorf("Expected RAW paired with %s, got %v", jpg.ID, r.PairedWith)
	}
	if j.PairedWith == nil || *j.PairedWith != raw.ID {
		t.Errorf("Expected JPEG paired with %s, got %v", raw.ID, j.PairedWith)
	}

	if err := idx.Pair(raw.ID, other.ID); !errors.Is(err, ErrAlreadyPaired) {
		t.Errorf("Expected ErrAlreadyPaired, got %v", err)
	}
	if err := idx.Pair(jpg.ID, "nope"); !errors.Is(err, ErrPhotoNotFound) {
		t.Errorf("Expected ErrPhotoNotFound, got %v", err)
	}
}

func TestIndexPairSameType(t *testing.T) {
	idx := NewIndex()
	a := newPhoto("/a/IMG_1.JPG", FileTypeJPEG)
	b := newPhoto("/a/IMG_1.JPEG", FileTypeJPEG)
	idx.Put(a)
	idx.Put(b)

	if err := idx.Pair(a.ID, b.ID); !errors.Is(err, ErrSameType) {
		t.Errorf("Expected ErrSameType, got %v", err)
	}
	got, _ := idx.Get(a.ID)
	if got.PairedWith != nil {
		t.Error("Expected failed pair to leave record untouched")
	}
}

func TestIndexConcurrentReaders(t *testing.T) {
	idx := NewIndex()
	for _, path := range []string{"/a/1.jpg", "/a/2.jpg", "/a/3.jpg"} {
		idx.Put(newPhoto(path, FileTypeJPEG))
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if len(idx.Snapshot()) != 3 {
					t.Error("Expected 3 photos in snapshot")
					return
				}
			}
		}()
	}
	wg.Wait()
}
