package workers

import (
	"os"
	"runtime"
	"strconv"
)

// OverrideEnv pins the pool size regardless of CPU count.
const OverrideEnv = "SCAN_WORKERS"

// Kind is what a pool's workers mostly wait on.
type Kind int

const (
	// CPUBound work decodes and resizes images.
	CPUBound Kind = iota
	// IOBound work stats files and reads headers.
	IOBound
	// Mixed work is a whole per-file scan task: header read, EXIF parse,
	// thumbnail decode.
	Mixed
)

// perCPU is how many workers of a kind one CPU keeps busy.
func (k Kind) perCPU() float64 {
	switch k {
	case IOBound:
		return 2
	case Mixed:
		return 1.5
	default:
		return 1
	}
}

func (k Kind) String() string {
	switch k {
	case IOBound:
		return "io"
	case Mixed:
		return "mixed"
	default:
		return "cpu"
	}
}

// For sizes a pool of kind k from GOMAXPROCS, which follows cgroup CPU
// quotas, unlike runtime.NumCPU. SCAN_WORKERS replaces the computed size.
// A positive limit caps the result either way.
func For(k Kind, limit int) int {
	n := fromEnv()
	if n == 0 {
		n = max(1, int(float64(runtime.GOMAXPROCS(0))*k.perCPU()))
	}
	return capAt(n, limit)
}

func fromEnv() int {
	n, err := strconv.Atoi(os.Getenv(OverrideEnv))
	if err != nil || n < 1 {
		return 0
	}
	return n
}

func capAt(n, limit int) int {
	if limit > 0 {
		return min(n, limit)
	}
	return n
}

// Resolve returns configured when positive, else For(Mixed, limit).
func Resolve(configured, limit int) int {
	if configured > 0 {
		return capAt(configured, limit)
	}
	return For(Mixed, limit)
}
