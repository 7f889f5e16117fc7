// Package middleware wraps the API router with access logging, Prometheus
// request metrics keyed by route template, and gzip for JSON bodies.
//
// Order matters: Metrics is installed with router.Use so mux has matched
// the route, while Logger and Compression wrap the whole router. The event
// stream and image bytes are never compressed.
package middleware
