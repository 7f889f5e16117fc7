// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is loaded by [LoadConfig] through viper. Every key can be set
// as an environment variable or in a YAML file named by CONFIG_FILE; the
// environment wins.
//
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - METRICS_INTERVAL: Library gauge refresh interval (default: 1m)
//   - LIBRARY_ROOTS: Comma separated folders that may be scanned or served.
//     Empty allows any folder.
//   - SCAN_WORKERS: Per-file worker pool size (default: 1.5x GOMAXPROCS)
//   - PROGRESS_EVERY: Files between progress events (default: 1)
//   - SKIP_HIDDEN: Skip dot files and folders (default: true)
//   - FOLLOW_SYMLINKS: Follow symbolic links while scanning (default: true)
//   - EVENT_BUFFER: Per-subscriber event buffer (default: 64)
//   - THUMBNAIL_SIZE: Thumbnail long edge in pixels (default: 256)
//   - THUMBNAIL_QUALITY: Thumbnail JPEG quality (default: 80)
//   - VIPS_ENABLED: Use libvips when available (default: true)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: false)
//   - SHUTDOWN_TIMEOUT: Graceful shutdown deadline (default: 30s)
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT: see package memory
//
// # Build Information
//
// Version, Commit and BuildTime are injected at build time:
//
//	go build -ldflags "-X hologram/internal/startup.Version=1.0.0"
package startup
