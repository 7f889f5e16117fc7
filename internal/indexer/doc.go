// Package indexer scans folders into a photo index.
//
// A scan runs in three stages:
//   - Discovery walks the root with godirwalk, in sorted pre-order, and
//     classifies every file as RAW, JPEG or neither. Hidden entries are
//     skipped when configured; symlinked directories are followed once.
//   - A bounded pool of workers stats each candidate, extracts its EXIF
//     metadata and renders a thumbnail. A single collector gathers the
//     results and publishes progress.
//   - After the pool drains, RAW and JPEG files sharing a directory and a
//     case-insensitive stem are paired, and the new index replaces the
//     previous one.
//
// Only one scan runs at a time. A cancelled scan leaves the previous index
// in place. Per-file failures are logged and counted, never returned.
package indexer
