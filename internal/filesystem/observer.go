package filesystem

import "time"

// RetryOutcome is how a call that hit a stale handle finally ended.
type RetryOutcome string

const (
	RetryRecovered RetryOutcome = "recovered"
	RetryExhausted RetryOutcome = "exhausted"
)

// RetryReport summarizes one call that saw at least one ESTALE.
type RetryReport struct {
	Op       string // "stat", "open" or "read"
	Volume   string
	Stale    int
	Retries  int
	Outcome  RetryOutcome
	Duration time.Duration
}

// Observer receives filesystem measurements. internal/metrics implements it;
// this package cannot import metrics without a cycle.
type Observer interface {
	ObserveOperation(volume, op string, elapsed time.Duration, err error)
	ObserveRetry(report RetryReport)
}

// nil disables reporting
var defaultObserver Observer

// SetObserver installs the package-wide observer.
func SetObserver(o Observer) {
	defaultObserver = o
}

func observe() Observer {
	return defaultObserver
}

// timed runs fn and reports it as a single operation against path's volume.
func timed[T any](op, path string, config RetryConfig, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	if obs := observe(); obs != nil {
		obs.ObserveOperation(config.volume(path), op, time.Since(start), err)
	}
	return v, err
}
