package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"github.com/dustin/go-humanize"

	"hologram/internal/logging"
)

// DefaultMemoryRatio is the share of the container limit given to the Go
// heap. The rest is left for libvips and decode buffers allocated in C.
const DefaultMemoryRatio = 0.80

// Where GOMEMLIMIT came from.
const (
	SourceNone       = "none"
	SourceGoMemLimit = "GOMEMLIMIT"
	SourceContainer  = "MEMORY_LIMIT"
)

type ConfigResult struct {
	Configured     bool
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// ParseLimit parses a memory size: plain bytes, or a suffixed size such as
// "2GiB" or "512MB". Sizes beyond int64 saturate.
func ParseLimit(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return int64(min(n, math.MaxInt64)), nil
}

// ConfigureFromEnv applies a Go heap limit before the first large
// allocation. GOMEMLIMIT wins when set; otherwise MEMORY_LIMIT (the
// container limit) is scaled by MEMORY_RATIO.
func ConfigureFromEnv() ConfigResult {
	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		return fromGoMemLimit(env)
	}
	if env := os.Getenv("MEMORY_LIMIT"); env != "" {
		return fromContainer(env, os.Getenv("MEMORY_RATIO"))
	}
	logging.Debug("Neither GOMEMLIMIT nor MEMORY_LIMIT set, heap limit left unset")
	return ConfigResult{Source: SourceNone}
}

// fromGoMemLimit reports the limit the runtime already parsed from env.
func fromGoMemLimit(env string) ConfigResult {
	logging.Info("GOMEMLIMIT set via environment: %s", env)
	limit := debug.SetMemoryLimit(-1)
	if limit <= 0 || limit == math.MaxInt64 {
		return ConfigResult{Source: SourceNone}
	}
	return ConfigResult{Configured: true, Source: SourceGoMemLimit, GoMemLimit: limit}
}

func fromContainer(limitEnv, ratioEnv string) ConfigResult {
	container, err := ParseLimit(limitEnv)
	if err != nil || container <= 0 {
		logging.Warn("Failed to parse MEMORY_LIMIT %q: %v", limitEnv, err)
		return ConfigResult{Source: SourceNone}
	}

	ratio := parseRatio(ratioEnv)
	limit := int64(float64(container) * ratio)
	debug.SetMemoryLimit(limit)

	logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s container limit)",
		humanize.IBytes(uint64(limit)), ratio*100, humanize.IBytes(uint64(container)))

	return ConfigResult{
		Configured:     true,
		Source:         SourceContainer,
		ContainerLimit: container,
		GoMemLimit:     limit,
		Ratio:          ratio,
	}
}

// parseRatio accepts (0, 1]; anything else yields DefaultMemoryRatio.
func parseRatio(s string) float64 {
	if s == "" {
		return DefaultMemoryRatio
	}
	r, err := strconv.ParseFloat(s, 64)
	if err != nil || r <= 0 || r > 1 {
		logging.Warn("Invalid MEMORY_RATIO %q, using %.2f", s, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return r
}
