package metrics

import "hologram/internal/filesystem"

// InitializeMetrics pre-populates the expected label combinations so every
// metric is exported from the first scrape. volumes are the configured
// library root labels.
func InitializeMetrics(volumes []string) {
	for _, outcome := range []string{"completed", "cancelled", "failed", "rejected"} {
		ScansTotal.WithLabelValues(outcome)
	}

	for _, t := range []string{"RAW", "JPEG"} {
		ScanFilesProcessed.WithLabelValues(t)
		LibraryPhotos.WithLabelValues(t)
		for _, status := range []string{"ok", "empty", "error"} {
			ExifExtractionsTotal.WithLabelValues(t, status)
		}
		for _, status := range []string{"success", "not_found", "unsupported", "unreadable", "undecodable"} {
			FullResLoadsTotal.WithLabelValues(t, status)
		}
	}

	for _, reason := range []string{"error", "hidden", "unsupported", "special", "stat"} {
		ScanEntriesSkipped.WithLabelValues(reason)
	}

	for _, phase := range []string{"stat", "exif", "thumbnail"} {
		ScanFileDuration.WithLabelValues(phase)
	}

	for _, source := range []string{"embedded", "vips", "decode"} {
		ThumbnailGenerationDuration.WithLabelValues(source)
		ThumbnailGenerationsTotal.WithLabelValues(source, "success")
		ThumbnailGenerationsTotal.WithLabelValues(source, "error")
	}

	for _, topic := range []string{"scan.progress", "scan.complete"} {
		EventsPublished.WithLabelValues(topic)
	}

	vols := append([]string{filesystem.UnknownVolume}, volumes...)
	for _, vol := range vols {
		for _, op := range []string{"stat", "open", "read"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
			for _, outcome := range []string{"recovered", "exhausted"} {
				FilesystemRetries.WithLabelValues(op, vol, outcome)
			}
		}
	}
}
