package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hologram_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hologram_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hologram_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Image responses dominate; buckets run from a small JSON body to a
	// full-resolution RAW export.
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hologram_http_response_size_bytes",
			Help:    "HTTP response body size in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 10),
		},
		[]string{"method", "path"},
	)

	HTTPStreamsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hologram_http_streams_open",
			Help: "Number of open event-stream connections",
		},
	)
)

// Scan metrics
var (
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hologram_scans_total",
			Help: "Total number of folder scans by outcome",
		},
		[]string{"outcome"}, // "completed", "cancelled", "failed", "rejected"
	)

	ScanRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hologram_scan_running",
			Help: "Whether a scan is currently running (1 = running, 0 = idle)",
		},
	)

	ScanLastDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hologram_scan_last_duration_seconds",
			Help: "Duration of the last completed scan in seconds",
		},
	)

	ScanLastTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hologram_scan_last_timestamp",
			Help: "Unix timestamp of the last completed scan",
		},
	)

	ScanFilesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hologram_scan_files_processed_total",
			Help: "Total number of candidate files processed by type",
		},
		[]string{"type"}, // "RAW", "JPEG"
	)

	ScanEntriesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hologram_scan_entries_skipped_total",
			Help: "Total number of directory entries skipped during discovery",
		},
		[]string{"reason"}, // "error", "hidden", "unsupported", "special", "stat"
	)

	ScanFileDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hologram_scan_file_duration_seconds",
			Help:    "Per-file processing duration in seconds by phase",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"phase"}, // "stat", "exif", "thumbnail"
	)

	ScanPairsResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hologram_scan_pairs_resolved_total",
			Help: "Total number of RAW+JPEG pairs linked",
		},
	)
)

// Extraction metrics
var (
	ExifExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hologram_exif_extractions_total",
			Help: "Total number of metadata extractions by file type and status",
		},
		[]string{"type", "status"}, // status: "ok", "empty", "error"
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hologram_thumbnail_generations_total",
			Help: "Total number of thumbnail generations by source and status",
		},
		[]string{"source", "status"}, // source: "embedded", "vips", "decode"
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hologram_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)
)

// Full-resolution loader metrics
var (
	FullResLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hologram_fullres_loads_total",
			Help: "Total number of full-resolution image loads by type and status",
		},
		[]string{"type", "status"},
	)

	FullResLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hologram_fullres_load_duration_seconds",
			Help:    "Full-resolution load duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

// Library metrics
var (
	LibraryPhotos = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hologram_library_photos",
			Help: "Number of photos in the current index by type",
		},
		[]string{"type"},
	)

	LibraryPairs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hologram_library_pairs",
			Help: "Number of RAW+JPEG pairs in the current index",
		},
	)

	LibraryDistinct = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hologram_library_distinct",
			Help: "Number of distinct camera models and lenses in the current index",
		},
		[]string{"field"},
	)
)

// Progress event metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hologram_events_published_total",
			Help: "Total number of progress events published by topic",
		},
		[]string{"topic"},
	)

	EventSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hologram_event_subscribers",
			Help: "Number of active progress subscribers",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hologram_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hologram_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hologram_filesystem_retry_attempts_total",
			Help: "Total number of filesystem retry attempts after ESTALE",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hologram_filesystem_retries_total",
			Help: "Operations that hit ESTALE, by whether retrying recovered them",
		},
		[]string{"operation", "volume", "outcome"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hologram_filesystem_retry_duration_seconds",
			Help:    "Total duration of retried filesystem operations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hologram_filesystem_stale_errors_total",
			Help: "Total number of ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hologram_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hologram_memory_paused",
			Help: "Whether scan workers are paused for memory pressure (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hologram_memory_gc_pauses_total",
			Help: "Total number of times processing paused for memory pressure",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hologram_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
