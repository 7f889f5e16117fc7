package handlers

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hologram/internal/library"
	"hologram/internal/logging"
	"hologram/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusScanning = "scanning"
)

// HealthResponse is the body of /health. Progress is present while a scan
// runs and afterwards, once a scan has seen at least one file.
type HealthResponse struct {
	Status   string                `json:"status"`
	Ready    bool                  `json:"ready"`
	Version  string                `json:"version"`
	Uptime   string                `json:"uptime"`
	Scanning bool                  `json:"scanning"`
	Progress *library.ScanProgress `json:"progress,omitempty"`
	Photos   int                   `json:"photos"`
	Roots    []string              `json:"roots,omitempty"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

func (h *Handlers) health() (HealthResponse, int) {
	resp := HealthResponse{
		Ready:        h.ready.Load(),
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Scanning:     h.engine.IsScanning(),
		Photos:       h.engine.Index().Len(),
		Roots:        h.roots.Names(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}
	if p := h.engine.Progress(); resp.Scanning || p.Total > 0 {
		resp.Progress = &p
	}

	switch {
	case !resp.Ready:
		resp.Status = statusStarting
		return resp, http.StatusServiceUnavailable
	case resp.Scanning:
		resp.Status = statusScanning
	default:
		resp.Status = statusHealthy
	}
	// a running scan does not make the service unhealthy
	return resp, http.StatusOK
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	resp, code := h.health()
	writeJSONResponse(w, resp, code)
}

// writeProbe answers a Kubernetes-style probe; HEAD gets headers only.
func writeProbe(w http.ResponseWriter, r *http.Request, status string, code int) {
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		return
	}
	writeJSONStatus(w, status, code)
}

// LivenessCheck succeeds whenever the process can serve HTTP, including
// during startup and while a scan runs.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	writeProbe(w, r, "alive", http.StatusOK)
}

// ReadinessCheck fails before startup completes and once shutdown begins.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.ready.Load() {
		writeProbe(w, r, "ready", http.StatusOK)
		return
	}
	writeProbe(w, r, "not_ready", http.StatusServiceUnavailable)
}

func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONResponse(w, startup.GetBuildInfo(), http.StatusOK)
}

type promErrorLog struct{}

func (promErrorLog) Println(v ...interface{}) {
	logging.Error("metrics: %s", fmt.Sprint(v...))
}

// MetricsHandler serves the default registry, in OpenMetrics format when
// the scraper asks for it. A failing collector is logged and skipped.
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.InstrumentMetricHandler(prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
			ErrorLog:          promErrorLog{},
		}))
}
