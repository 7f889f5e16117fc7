package library

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrPhotoNotFound is returned when an ID is not in the Index.
	ErrPhotoNotFound = errors.New("photo not found")
	// ErrAlreadyPaired is returned when either side of a pair already has
	// a sibling.
	ErrAlreadyPaired = errors.New("photo already paired")
	// ErrSameType is returned when both sides of a pair share a type class.
	ErrSameType = errors.New("paired photos must be one RAW and one JPEG")
)

// Index is the in-memory id -> Photo mapping built by a scan.
type Index struct {
	mu     sync.RWMutex
	photos map[string]Photo
}

// NewIndex creates an empty Index.
func NewIndex() *Index {
	return &Index{photos: make(map[string]Photo)}
}

// Put inserts p, replacing any record with the same ID.
func (idx *Index) Put(p Photo) {
	idx.mu.Lock()
	idx.photos[p.ID] = p.Clone()
	idx.mu.Unlock()
}

// Get returns a copy of the photo with the given ID.
func (idx *Index) Get(id string) (Photo, bool) {
	idx.mu.RLock()
	p, ok := idx.photos[id]
	idx.mu.RUnlock()
	if !ok {
		return Photo{}, false
	}
	return p.Clone(), true
}

// Len returns the number of photos held.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.photos)
}

// Snapshot returns copies of all photos ordered by file path.
func (idx *Index) Snapshot() []Photo {
	idx.mu.RLock()
	out := make([]Photo, 0, len(idx.photos))
	for _, p := range idx.photos {
		out = append(out, p.Clone())
	}
	idx.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].FilePath < out[j].FilePath
	})
	return out
}

// Pair links a and b symmetrically in a single update. Neither side may
// already be paired, and they must be one RAW and one JPEG.
func (idx *Index) Pair(aID, bID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	a, ok := idx.photos[aID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPhotoNotFound, aID)
	}
	b, ok := idx.photos[bID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPhotoNotFound, bID)
	}
	if a.PairedWith != nil || b.PairedWith != nil {
		return fmt.Errorf("%w: %s <-> %s", ErrAlreadyPaired, a.FileName, b.FileName)
	}
	if a.FileType == b.FileType {
		return fmt.Errorf("%w: %s and %s are both %s", ErrSameType, a.FileName, b.FileName, a.FileType)
	}

	a.PairedWith = Ptr(bID)
	b.PairedWith = Ptr(aID)
	idx.photos[aID] = a
	idx.photos[bID] = b
	return nil
}
