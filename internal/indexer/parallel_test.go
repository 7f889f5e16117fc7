package indexer

import (
	"context"
	"path/filepath"
	"testing"

	"hologram/internal/filesystem"
	"hologram/internal/library"
)

func TestParallelProcessorResults(t *testing.T) {
	root := t.TempDir()
	names := []string{"a.jpg", "b.jpg", "bad.jpg"}
	writeFiles(t, root, names...)

	pp := NewParallelProcessor(ParallelConfig{NumWorkers: 2, Retry: filesystem.DefaultRetryConfig()},
		&stubExtractor{fail: map[string]bool{"bad.jpg": true}}, stubThumbnailer{}, nil)
	ctx := context.Background()
	pp.Start(ctx)

	go func() {
		defer pp.Close()
		for _, name := range names {
			c := Candidate{Path: filepath.Join(root, name), Name: name, Type: library.FileTypeJPEG}
			if err := pp.Submit(ctx, c); err != nil {
				t.Errorf("Submit(%s) error = %v", name, err)
			}
		}
	}()

	var photos, failed int
	for res := range pp.Results() {
		switch {
		case res.err != nil:
			failed++
			if res.candidate.Name != "bad.jpg" {
				t.Errorf("unexpected error for %s: %v", res.candidate.Name, res.err)
			}
		case res.photo != nil:
			photos++
			if res.photo.ID != library.PhotoID(res.candidate.Path) {
				t.Errorf("photo %s has id %s, want the path-derived id", res.candidate.Name, res.photo.ID)
			}
		}
	}

	if photos != 2 || failed != 1 {
		t.Errorf("results = %d photos, %d errors, want 2 and 1", photos, failed)
	}
}
