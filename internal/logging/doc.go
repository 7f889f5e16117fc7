// Package logging is hologram's leveled logger: Debug for per-file
// indexing decisions, Info for scan lifecycle and startup, Warn for files
// that could not be read, Error for failed requests.
//
// The level comes from LOG_LEVEL, or DEBUG=true, on first use. SetLevel
// overrides it; the CLI does so for --log-level.
package logging
