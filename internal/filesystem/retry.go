package filesystem

import (
	"cmp"
	"errors"
	"os"
	"syscall"
	"time"

	"hologram/internal/logging"
)

// RetryConfig bounds how long a stale handle is retried. Backoff doubles
// from InitialBackoff up to MaxBackoff.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// VolumeResolver labels metrics; nil uses the package default.
	VolumeResolver *VolumeResolver
}

// DefaultRetryConfig waits at most 50+100+200ms before giving up, short
// enough that one bad file does not stall a scan.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, InitialBackoff: 50 * time.Millisecond, MaxBackoff: 500 * time.Millisecond}
}

func (c RetryConfig) volume(path string) string {
	return cmp.Or(c.VolumeResolver, defaultResolver).Resolve(path)
}

// isStale reports an NFS stale file handle anywhere in err's chain.
func isStale(err error) bool {
	return errors.Is(err, syscall.ESTALE)
}

// withRetry runs fn, retrying with exponential backoff while it fails with
// ESTALE. Any other error is returned immediately. Calls that never saw a
// stale handle are not reported as retries.
func withRetry[T any](op, path string, config RetryConfig, fn func() (T, error)) (T, error) {
	start := time.Now()
	backoff := config.InitialBackoff
	report := RetryReport{Op: op, Outcome: RetryExhausted}

	var (
		v   T
		err error
	)
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		v, err = fn()
		if !isStale(err) {
			break
		}
		report.Stale++
		if attempt == config.MaxRetries {
			logging.Warn("NFS %s failed after %d retries for %s: %v", op, config.MaxRetries, path, err)
			break
		}

		report.Retries++
		logging.Debug("NFS %s stale file handle for %s, retrying in %v (attempt %d/%d)",
			op, path, backoff, attempt+1, config.MaxRetries)
		time.Sleep(backoff)
		backoff = min(backoff*2, config.MaxBackoff)
	}

	if report.Stale > 0 {
		observeRetry(report, path, config, start, err)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

func observeRetry(report RetryReport, path string, config RetryConfig, start time.Time, err error) {
	if err == nil {
		report.Outcome = RetryRecovered
		logging.Info("NFS %s succeeded on retry %d for %s", report.Op, report.Retries, path)
	}
	if obs := observe(); obs != nil {
		report.Volume = config.volume(path)
		report.Duration = time.Since(start)
		obs.ObserveRetry(report)
	}
}

// StatWithRetry performs os.Stat, retrying on NFS stale file handles.
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return timed("stat", path, config, func() (os.FileInfo, error) {
		return withRetry("stat", path, config, func() (os.FileInfo, error) {
			return os.Stat(path)
		})
	})
}

// OpenWithRetry performs os.Open, retrying on NFS stale file handles.
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	return timed("open", path, config, func() (*os.File, error) {
		return withRetry("open", path, config, func() (*os.File, error) {
			return os.Open(path)
		})
	})
}

// ReadFileWithRetry performs os.ReadFile, retrying on NFS stale file handles.
func ReadFileWithRetry(path string, config RetryConfig) ([]byte, error) {
	return timed("read", path, config, func() ([]byte, error) {
		return withRetry("read", path, config, func() ([]byte, error) {
			return os.ReadFile(path)
		})
	})
}
