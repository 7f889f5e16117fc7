package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/karrick/godirwalk"

	"hologram/internal/filesystem"
	"hologram/internal/library"
	"hologram/internal/logging"
	"hologram/internal/mediatypes"
	"hologram/internal/metrics"
)

// Root errors are request-level: the scan does not start.
var (
	ErrRootNotFound     = errors.New("scan root not found")
	ErrRootNotDirectory = errors.New("scan root is not a directory")
)

// ScanOptions controls discovery.
type ScanOptions struct {
	// SkipHidden skips files and directories starting with "."
	SkipHidden bool
	// FollowSymlinks descends into symlinked directories and indexes
	// symlinked files. Directory cycles are visited once.
	FollowSymlinks bool
	Retry          filesystem.RetryConfig
}

// DefaultScanOptions returns the options used when none are configured.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		SkipHidden:     true,
		FollowSymlinks: true,
		Retry:          filesystem.DefaultRetryConfig(),
	}
}

// Candidate is a discovered file pending extraction. Size and ModTime are
// zero until the file is stat'ed by a worker.
type Candidate struct {
	Path    string
	Name    string
	Dir     string
	Ext     string
	Type    library.FileType
	Size    int64
	ModTime time.Time
}

// DiscoverStats counts what a walk saw.
type DiscoverStats struct {
	Directories int
	Candidates  int
	Skipped     int
	Errors      int
}

// ValidateRoot resolves root to a clean absolute path and checks that it
// is an existing directory.
func ValidateRoot(root string, retry filesystem.RetryConfig) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", fmt.Errorf("%w: empty path", ErrRootNotFound)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRootNotFound, err)
	}

	info, err := filesystem.StatWithRetry(abs, retry)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrRootNotFound, abs)
		}
		return "", fmt.Errorf("%w: %v", ErrRootNotFound, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrRootNotDirectory, abs)
	}
	return abs, nil
}

// stopWalk carries an emit error out of the walk.
type stopWalk struct{ err error }

func (s stopWalk) Error() string { return s.err.Error() }
func (s stopWalk) Unwrap() error { return s.err }

// Discover walks root and calls emit for every RAW or JPEG file, in
// pre-order with entries of each directory sorted by name. Per-entry
// errors are counted and skipped. A cancelled ctx or an emit error stops
// the walk and is returned.
func Discover(ctx context.Context, root string, opts ScanOptions, emit func(Candidate) error) (DiscoverStats, error) {
	var stats DiscoverStats

	abs, err := ValidateRoot(root, opts.Retry)
	if err != nil {
		return stats, err
	}

	visited := make(map[string]struct{})
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		visited[real] = struct{}{}
	}

	skip := func(reason, path string) {
		stats.Skipped++
		metrics.ScanEntriesSkipped.WithLabelValues(reason).Inc()
		logging.Debug("Skipping %s (%s)", path, reason)
	}

	err = godirwalk.Walk(abs, &godirwalk.Options{
		FollowSymbolicLinks: opts.FollowSymlinks,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if err := ctx.Err(); err != nil {
				return stopWalk{err}
			}
			if path == abs {
				return nil
			}

			if opts.SkipHidden && strings.HasPrefix(de.Name(), ".") {
				skip("hidden", path)
				if de.IsDir() {
					return godirwalk.SkipThis
				}
				return nil
			}

			isDir, isFile := de.IsDir(), de.IsRegular()
			if de.IsSymlink() {
				if !opts.FollowSymlinks {
					skip("special", path)
					return godirwalk.SkipThis
				}
				target, err := os.Stat(path)
				if err != nil {
					stats.Errors++
					skip("error", path)
					logging.Warn("Broken symlink %s: %v", path, err)
					return godirwalk.SkipThis
				}
				isDir, isFile = target.IsDir(), target.Mode().IsRegular()
			}

			switch {
			case isDir:
				// Guard against symlink loops and directories reachable twice.
				if real, err := filepath.EvalSymlinks(path); err == nil {
					if _, seen := visited[real]; seen {
						skip("cycle", path)
						return godirwalk.SkipThis
					}
					visited[real] = struct{}{}
				}
				stats.Directories++
				return nil
			case !isFile:
				skip("special", path)
				return nil
			}

			fileType := mediatypes.Classify(path)
			if !fileType.Indexable() {
				skip("unsupported", path)
				return nil
			}

			stats.Candidates++
			c := Candidate{
				Path: path,
				Name: de.Name(),
				Dir:  filepath.Dir(path),
				Ext:  mediatypes.NormalizeExt(filepath.Ext(path)),
				Type: fileType,
			}
			if err := emit(c); err != nil {
				return stopWalk{err}
			}
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			var stop stopWalk
			if errors.As(err, &stop) || ctx.Err() != nil {
				return godirwalk.Halt
			}
			stats.Errors++
			skip("error", path)
			logging.Warn("Error accessing path %s: %v", path, err)
			return godirwalk.SkipNode
		},
	})

	if err != nil {
		var stop stopWalk
		if errors.As(err, &stop) {
			return stats, stop.err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stats, ctxErr
		}
		return stats, fmt.Errorf("walk %s: %w", abs, err)
	}
	return stats, nil
}

// Scan collects the candidates under root.
func Scan(ctx context.Context, root string, opts ScanOptions) ([]Candidate, error) {
	var out []Candidate
	_, err := Discover(ctx, root, opts, func(c Candidate) error {
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
