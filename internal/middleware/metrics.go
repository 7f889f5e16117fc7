package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"hologram/internal/metrics"
)

// unmatchedRoute labels requests no mux route claimed, so 404 probes for
// arbitrary paths cannot grow the label set.
const unmatchedRoute = "unmatched"

// MetricsConfig selects which requests the metrics middleware records.
type MetricsConfig struct {
	// SkipPaths are not recorded at all (probes, the scrape endpoint).
	SkipPaths []string

	// StreamPaths are long-lived responses. They are counted and tracked
	// in the open-streams gauge but kept out of the latency and size
	// histograms, where a connection lifetime would swamp real requests.
	StreamPaths []string
}

func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		SkipPaths:   []string{"/metrics", "/health", "/healthz", "/livez", "/readyz"},
		StreamPaths: []string{"/api/events"},
	}
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Metrics records per-route request counts, latency and response size.
// Install it with router.Use so the route template is known.
func Metrics(config MetricsConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hasPrefix(r.URL.Path, config.SkipPaths) {
				next.ServeHTTP(w, r)
				return
			}

			stream := hasPrefix(r.URL.Path, config.StreamPaths)
			if stream {
				metrics.HTTPStreamsOpen.Inc()
				defer metrics.HTTPStreamsOpen.Dec()
			} else {
				metrics.HTTPRequestsInFlight.Inc()
				defer metrics.HTTPRequestsInFlight.Dec()
			}

			rec := record(w)
			start := time.Now()
			next.ServeHTTP(rec, r)

			route := routePath(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.Status())).Inc()
			if stream {
				return
			}
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			if r.Method != http.MethodHead {
				metrics.HTTPResponseSize.WithLabelValues(r.Method, route).Observe(float64(rec.bytes))
			}
		})
	}
}

// routePath returns the matched route template, e.g. /api/photos/{id}.
func routePath(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return unmatchedRoute
	}
	tmpl, err := route.GetPathTemplate()
	if err != nil {
		return unmatchedRoute
	}
	return tmpl
}
