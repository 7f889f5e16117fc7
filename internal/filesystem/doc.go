/*
Package filesystem wraps the file operations used while indexing with retry
logic for NFS stale file handle errors (ESTALE).

Photo libraries frequently live on network mounts. A scan touches every file
once for stat, once for metadata and once for the thumbnail, so a transient
ESTALE on a busy mount would otherwise silently drop photos from the index.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	data, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())

Only ESTALE is retried, with exponential backoff (50ms, 100ms, 200ms by
default, capped at MaxBackoff). Every other error is returned immediately.

A VolumeResolver labels paths by library root for metrics and tells the HTTP
layer whether a requested path is inside a configured root. Metrics are
reported through the Observer interface, implemented by internal/metrics.
*/
package filesystem
