// Package memory keeps scans of large RAW libraries inside their memory
// budget.
//
// ConfigureFromEnv derives GOMEMLIMIT from MEMORY_LIMIT (bytes or a size
// such as "4GiB") and MEMORY_RATIO, leaving headroom for libvips, which
// allocates outside the Go heap.
//
// Monitor samples live heap bytes from runtime/metrics on an interval. At
// Config.PauseAt it pauses: scan workers call Wait between files and block
// until the heap falls under Config.ResumeAt or the monitor stops. A
// cancelled scan context also releases them.
package memory
