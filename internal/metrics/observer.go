package metrics

import (
	"time"

	"hologram/internal/filesystem"
)

type filesystemObserver struct{}

// NewFilesystemObserver returns the filesystem.Observer that feeds the
// hologram_filesystem_* series. main installs it with filesystem.SetObserver.
func NewFilesystemObserver() filesystem.Observer {
	return filesystemObserver{}
}

func (filesystemObserver) ObserveOperation(volume, op string, elapsed time.Duration, err error) {
	FilesystemOperationDuration.WithLabelValues(volume, op).Observe(elapsed.Seconds())
	if err != nil {
		FilesystemOperationErrors.WithLabelValues(volume, op).Inc()
	}
}

func (filesystemObserver) ObserveRetry(r filesystem.RetryReport) {
	FilesystemStaleErrors.WithLabelValues(r.Op, r.Volume).Add(float64(r.Stale))
	FilesystemRetryAttempts.WithLabelValues(r.Op, r.Volume).Add(float64(r.Retries))
	FilesystemRetries.WithLabelValues(r.Op, r.Volume, string(r.Outcome)).Inc()
	FilesystemRetryDuration.WithLabelValues(r.Op, r.Volume).Observe(r.Duration.Seconds())
}
