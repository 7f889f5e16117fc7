package startup

import (
	"cmp"
	"fmt"
	"maps"
	"os"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"

	"hologram/internal/logging"
	"hologram/internal/memory"
)

const rule = "------------------------------------------------------------"

func section(title string, args ...any) {
	logging.Info("")
	logging.Info(rule)
	logging.Info(title, args...)
	logging.Info(rule)
}

func item(label string, value any) {
	logging.Info("  %-20s %v", label+":", value)
}

func ok(format string, args ...any) {
	logging.Info("  [OK] "+format, args...)
}

func printBanner() {
	fmt.Println(rule + `
    __  __      __
   / / / /___  / /___  ____ __________ _____ ___
  / /_/ / __ \/ / __ \/ __ '/ ___/ __ '/ __ '__ \
 / __  / /_/ / / /_/ / /_/ / /  / /_/ / / / / / /
/_/ /_/\____/_/\____/\__, /_/   \__,_/_/ /_/ /_/
                    /____/
` + rule)
	item("Version", Version)
	item("Commit", Commit)
	item("Build time", BuildTime)
	item("Started", time.Now().Format(time.RFC1123))
}

func logSystemInfo() {
	section("SYSTEM INFORMATION")
	procs, cpus := runtime.GOMAXPROCS(0), runtime.NumCPU()
	item("Go version", runtime.Version())
	item("OS/Arch", runtime.GOOS+"/"+runtime.GOARCH)
	if procs < cpus {
		item("CPUs", fmt.Sprintf("%d (GOMAXPROCS %d, container limit)", cpus, procs))
	} else {
		item("CPUs", cpus)
	}

	if !logging.IsDebugEnabled() {
		return
	}
	if host, err := os.Hostname(); err == nil {
		logging.Debug("  Hostname: %s", host)
	}
	if wd, err := os.Getwd(); err == nil {
		logging.Debug("  Working dir: %s", wd)
	}
}

// LogMemoryConfig reports where GOMEMLIMIT came from.
func LogMemoryConfig(result memory.ConfigResult) {
	section("MEMORY")
	switch result.Source {
	case memory.SourceGoMemLimit:
		item("GOMEMLIMIT", humanize.IBytes(uint64(result.GoMemLimit))+" (from environment)")
	case memory.SourceContainer:
		item("Container limit", humanize.IBytes(uint64(result.ContainerLimit)))
		item("GOMEMLIMIT", fmt.Sprintf("%s (%.0f%%)", humanize.IBytes(uint64(result.GoMemLimit)), result.Ratio*100))
	default:
		item("GOMEMLIMIT", "not configured")
		logging.Info("  Set MEMORY_LIMIT to enable scan backpressure")
	}
}

func LogVipsInit(enabled bool, err error) {
	section("IMAGE PIPELINE")
	switch {
	case !enabled:
		item("libvips", "disabled (VIPS_ENABLED=false)")
	case err != nil:
		logging.Warn("  libvips unavailable: %v", err)
		logging.Warn("  Thumbnails and RAW previews fall back to in-process decoding")
	default:
		ok("libvips initialized")
	}
}

func LogEngineInit(workers, progressEvery int) {
	section("SCAN ENGINE")
	item("Workers", workers)
	item("Progress every", fmt.Sprintf("%d files", progressEvery))
}

// RouteInfo is one method/path pair of a registered route.
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes flattens router into one entry per method. Routes without a
// method matcher are reported as "*".
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo
	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return err
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		for _, m := range methods {
			routes = append(routes, RouteInfo{Method: m, Path: path, Name: route.GetName()})
		}
		return nil
	})
	return routes, err
}

// getRouteGroup is the first path segment, or the first two under /api.
func getRouteGroup(path string) string {
	first, rest, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if first != "api" || rest == "" {
		return first
	}
	second, _, _ := strings.Cut(rest, "/")
	return "api/" + second
}

// LogHTTPRoutes lists the routes by group at debug level.
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	section("HTTP SERVER")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("  error walking routes: %v", err)
		}
		groups := make(map[string][]RouteInfo)
		for _, r := range routes {
			g := getRouteGroup(r.Path)
			groups[g] = append(groups[g], r)
		}
		logging.Debug("  %d routes", len(routes))
		for _, g := range slices.Sorted(maps.Keys(groups)) {
			logging.Debug("  [%s]", cmp.Or(g, "root"))
			for _, r := range groups[g] {
				logging.Debug("    %-6s %s", r.Method, r.Path)
			}
		}
	}

	if logHealthChecks {
		item("Health check logs", "on")
	} else {
		item("Health check logs", "off (LOG_HEALTH_CHECKS=true to enable)")
	}
}

// ServerConfig is what LogServerStarted prints.
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

func LogServerStarted(config ServerConfig) {
	section("SERVER STARTED in %v", config.StartupDuration.Round(time.Millisecond))
	item("API", "http://0.0.0.0:"+config.Port+"/api")
	item("Events", "http://0.0.0.0:"+config.Port+"/api/events")
	if config.MetricsEnabled {
		item("Metrics", "http://0.0.0.0:"+config.MetricsPort+"/metrics")
	} else {
		item("Metrics", "disabled")
	}
	logging.Info(rule)
}

// Shutdown logs the ordered steps of a graceful shutdown.
type Shutdown struct {
	start time.Time
}

func BeginShutdown(signal string) *Shutdown {
	section("SHUTDOWN (received %s)", signal)
	return &Shutdown{start: time.Now()}
}

// Step logs the outcome of one shutdown step. A failed step is logged and
// shutdown carries on.
func (s *Shutdown) Step(name string, err error) {
	if err != nil {
		logging.Warn("  %s: %v", name, err)
		return
	}
	ok("%s", name)
}

// Done logs the final heap sample and the total shutdown time.
func (s *Shutdown) Done(u memory.Usage) {
	if u.Limit > 0 {
		logging.Debug("  Heap at exit: %s of %s", humanize.IBytes(u.Heap), humanize.IBytes(uint64(u.Limit)))
	}
	ok("Shutdown complete in %v", time.Since(s.start).Round(time.Millisecond))
}

func LogFatal(format string, args ...any) {
	logging.Fatal(format, args...)
}
