// Package main provides the entry point for the Hologram photo indexing
// service.
//
// Hologram scans folders of RAW and JPEG photos, extracts their EXIF
// metadata, renders thumbnails and pairs each RAW file with the JPEG shot
// alongside it. The resulting index is served over a JSON API.
//
// # Application Lifecycle
//
//  1. Memory Configuration: Sets GOMEMLIMIT from MEMORY_LIMIT or GOMEMLIMIT
//  2. Configuration Loading: Reads environment variables and CONFIG_FILE
//  3. Image Pipeline: Initializes libvips when VIPS_ENABLED is set
//  4. Component Initialization:
//     - Memory Monitor: Pauses scan workers under heap pressure
//     - Event Broker: Fans scan progress out to subscribers
//     - Scan Engine: Walks folders and builds the photo index
//     - Metrics Collector: Refreshes library gauges
//  5. HTTP Server Setup: Configures routes and middleware, starts serving
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM
//
// # HTTP Server
//
// The main server (default port 8080) serves:
//
//   - POST /api/scan and /api/scan/progress: scan a folder
//   - DELETE /api/scan: cancel the running scan
//   - GET /api/events: scan progress as Server-Sent Events
//   - /api/photos, /api/photos/filter, /api/photos/stats, /api/stats
//   - /api/image and /api/photos/{id}/image: full-resolution images
//   - /health, /livez, /readyz and /version
//
// Prometheus metrics are served on METRICS_PORT (default 9090), or on the
// main port when both are equal.
//
// # Environment Variables
//
//   - PORT: Main HTTP server port (default: 8080)
//   - LIBRARY_ROOTS: Comma-separated folders that may be scanned or served
//   - SCAN_WORKERS: Per-file worker count (default: from CPUs)
//   - PROGRESS_EVERY: Files between progress events (default: 1)
//   - SKIP_HIDDEN, FOLLOW_SYMLINKS: Discovery options (default: true)
//   - THUMBNAIL_SIZE, THUMBNAIL_QUALITY: Thumbnail long edge and JPEG quality
//   - VIPS_ENABLED: Use libvips when available (default: true)
//   - METRICS_PORT, METRICS_ENABLED, METRICS_INTERVAL
//   - SHUTDOWN_TIMEOUT: Grace period for in-flight requests (default: 30s)
//   - LOG_LEVEL: Logging level (debug/info/warn/error)
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT: Heap limit configuration
//
// # Graceful Shutdown
//
//  1. Mark the service not ready
//  2. Cancel the running scan; the previous index is kept
//  3. Close the event broker, ending open event streams
//  4. Shutdown the HTTP servers
//  5. Stop the metrics collector and memory monitor
//  6. Shut down libvips
//
// The command-line client lives in cmd/hologram.
package main
