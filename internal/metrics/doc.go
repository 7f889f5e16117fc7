// Package metrics provides Prometheus instrumentation for hologram.
//
// All metrics are prefixed with "hologram_" and registered with promauto at
// package init. InitializeMetrics pre-populates label combinations so that
// dashboards see zero-valued series before the first scan.
//
// Categories:
//   - HTTP: request totals, durations and in-flight requests
//   - Scan: outcomes, per-file phase durations, skipped entries, pairs
//   - Extraction and thumbnails: status by file type and preview source
//   - Full-resolution loads: status by file type, duration
//   - Library: photos and pairs in the current index (refreshed by Collector)
//   - Events: published progress events and active subscribers
//   - Filesystem: ESTALE retries and operation errors per library root
//   - Memory: usage ratio and backpressure pauses
//
// The filesystem package reports through NewFilesystemObserver so it does
// not depend on this package.
package metrics
