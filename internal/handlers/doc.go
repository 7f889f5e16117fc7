/*
Package handlers is the HTTP face of the indexing engine.

Scans run synchronously on the request: POST /api/scan returns the indexed
photos once the walk, extraction and pairing have finished. Clients that
want live progress call POST /api/scan/progress with a scan_id and follow
GET /api/events?scan_id=... on a second connection. Only one scan runs at a
time; a second request gets 409.

Photo and image lookups use the index of the most recent completed scan.
Filter and stats requests take an explicit photo list or fall back to that
index. Every failure is a JSON object with a single "error" field.
*/
package handlers
