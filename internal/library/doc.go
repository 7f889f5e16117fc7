// Package library holds the records produced by a scan and the in-memory
// Photo Index that owns them.
//
// A Photo is one discovered RAW or JPEG file. Its ID is derived from the
// absolute path, so re-scanning an unchanged folder reproduces the same IDs.
// The Index has a single writer while a scan runs; readers always receive
// deep copies through Get and Snapshot.
package library
