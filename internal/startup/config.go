package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"hologram/internal/filesystem"
	"hologram/internal/logging"
)

// Config holds all application configuration
type Config struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	MetricsInterval time.Duration
	LogHealthChecks bool
	ShutdownTimeout time.Duration

	// LibraryRoots restricts scan and image paths. Empty allows any path.
	LibraryRoots []string

	ScanWorkers    int
	ProgressEvery  int
	SkipHidden     bool
	FollowSymlinks bool
	EventBuffer    int

	ThumbnailSize    int
	ThumbnailQuality int
	VipsEnabled      bool
}

// Configuration keys. Each is read from the environment variable of the
// same name, upper-cased, or from CONFIG_FILE.
const (
	keyPort             = "port"
	keyMetricsPort      = "metrics_port"
	keyMetricsEnabled   = "metrics_enabled"
	keyMetricsInterval  = "metrics_interval"
	keyLogHealthChecks  = "log_health_checks"
	keyShutdownTimeout  = "shutdown_timeout"
	keyLibraryRoots     = "library_roots"
	keyScanWorkers      = "scan_workers"
	keyProgressEvery    = "progress_every"
	keySkipHidden       = "skip_hidden"
	keyFollowSymlinks   = "follow_symlinks"
	keyEventBuffer      = "event_buffer"
	keyThumbnailSize    = "thumbnail_size"
	keyThumbnailQuality = "thumbnail_quality"
	keyVipsEnabled      = "vips_enabled"
)

// newViper returns a viper instance with defaults and environment binding.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(keyPort, "8080")
	v.SetDefault(keyMetricsPort, "9090")
	v.SetDefault(keyMetricsEnabled, true)
	v.SetDefault(keyMetricsInterval, "1m")
	v.SetDefault(keyLogHealthChecks, false)
	v.SetDefault(keyShutdownTimeout, "30s")
	v.SetDefault(keyLibraryRoots, "")
	v.SetDefault(keyScanWorkers, 0)
	v.SetDefault(keyProgressEvery, 1)
	v.SetDefault(keySkipHidden, true)
	v.SetDefault(keyFollowSymlinks, true)
	v.SetDefault(keyEventBuffer, 64)
	v.SetDefault(keyThumbnailSize, 256)
	v.SetDefault(keyThumbnailQuality, 80)
	v.SetDefault(keyVipsEnabled, true)
	v.AutomaticEnv()
	return v
}

// LoadConfig prints the banner, then loads and validates configuration from
// the environment and the optional YAML file named by CONFIG_FILE.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	v := newViper()
	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	config, err := decode(v)
	if err != nil {
		return nil, err
	}
	config.report(v.ConfigFileUsed())
	return config, nil
}

func (c *Config) report(file string) {
	section("CONFIGURATION")
	if file != "" {
		item("CONFIG_FILE", file)
	}
	for _, kv := range []struct {
		key string
		val any
	}{
		{keyPort, c.Port},
		{keyMetricsPort, c.MetricsPort},
		{keyMetricsEnabled, c.MetricsEnabled},
		{keyScanWorkers, workersString(c.ScanWorkers)},
		{keyProgressEvery, c.ProgressEvery},
		{keySkipHidden, c.SkipHidden},
		{keyFollowSymlinks, c.FollowSymlinks},
		{keyEventBuffer, c.EventBuffer},
		{keyThumbnailSize, c.ThumbnailSize},
		{keyThumbnailQuality, c.ThumbnailQuality},
		{keyVipsEnabled, c.VipsEnabled},
		{keyLogHealthChecks, c.LogHealthChecks},
		{keyShutdownTimeout, c.ShutdownTimeout},
		{"log_level", logging.GetLevel()},
	} {
		item(strings.ToUpper(kv.key), kv.val)
	}

	section("LIBRARY ROOTS")
	if len(c.LibraryRoots) == 0 {
		logging.Info("  No LIBRARY_ROOTS configured, any readable folder may be scanned")
	}
	for _, root := range c.LibraryRoots {
		if err := checkRoot(root); err != nil {
			logging.Warn("  %s: %v", root, err)
			continue
		}
		ok("%s", root)
	}
}

// decode reads every key from v and validates the result.
func decode(v *viper.Viper) (*Config, error) {
	config := &Config{
		Port:             v.GetString(keyPort),
		MetricsPort:      v.GetString(keyMetricsPort),
		MetricsEnabled:   v.GetBool(keyMetricsEnabled),
		MetricsInterval:  v.GetDuration(keyMetricsInterval),
		LogHealthChecks:  v.GetBool(keyLogHealthChecks),
		ShutdownTimeout:  v.GetDuration(keyShutdownTimeout),
		ScanWorkers:      v.GetInt(keyScanWorkers),
		ProgressEvery:    v.GetInt(keyProgressEvery),
		SkipHidden:       v.GetBool(keySkipHidden),
		FollowSymlinks:   v.GetBool(keyFollowSymlinks),
		EventBuffer:      v.GetInt(keyEventBuffer),
		ThumbnailSize:    v.GetInt(keyThumbnailSize),
		ThumbnailQuality: v.GetInt(keyThumbnailQuality),
		VipsEnabled:      v.GetBool(keyVipsEnabled),
	}

	if config.MetricsInterval <= 0 {
		logging.Warn("  Invalid METRICS_INTERVAL, using default: 1m")
		config.MetricsInterval = time.Minute
	}
	if config.ShutdownTimeout <= 0 {
		logging.Warn("  Invalid SHUTDOWN_TIMEOUT, using default: 30s")
		config.ShutdownTimeout = 30 * time.Second
	}
	if config.ProgressEvery < 1 {
		logging.Warn("  Invalid PROGRESS_EVERY %d, using 1", config.ProgressEvery)
		config.ProgressEvery = 1
	}
	if config.ScanWorkers < 0 {
		return nil, fmt.Errorf("SCAN_WORKERS must not be negative: %d", config.ScanWorkers)
	}
	if config.ThumbnailSize <= 0 {
		return nil, fmt.Errorf("THUMBNAIL_SIZE must be positive: %d", config.ThumbnailSize)
	}
	if config.ThumbnailQuality < 1 || config.ThumbnailQuality > 100 {
		return nil, fmt.Errorf("THUMBNAIL_QUALITY must be between 1 and 100: %d", config.ThumbnailQuality)
	}

	roots, err := libraryRoots(v.Get(keyLibraryRoots))
	if err != nil {
		return nil, err
	}
	config.LibraryRoots = roots
	return config, nil
}

// libraryRoots accepts a comma separated string (environment) or a list
// (YAML) and returns clean absolute paths.
func libraryRoots(raw any) ([]string, error) {
	var parts []string
	switch val := raw.(type) {
	case nil:
	case string:
		parts = strings.Split(val, ",")
	case []string:
		parts = val
	case []any:
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
	default:
		return nil, fmt.Errorf("LIBRARY_ROOTS has unsupported type %T", raw)
	}

	var roots []string
	seen := make(map[string]bool)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve library root %q: %w", p, err)
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		roots = append(roots, abs)
	}
	return roots, nil
}

// VolumeResolver labels each library root by its base name for filesystem
// metrics. Clashing names get a numeric suffix.
func (c *Config) VolumeResolver() *filesystem.VolumeResolver {
	volumes := make(map[string]string, len(c.LibraryRoots))
	for _, root := range c.LibraryRoots {
		name := filepath.Base(root)
		label := name
		for i := 2; volumes[label] != ""; i++ {
			label = fmt.Sprintf("%s-%d", name, i)
		}
		volumes[label] = root
	}
	return filesystem.NewVolumeResolver(volumes)
}

func checkRoot(path string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		if info, statErr := os.Stat(path); statErr == nil && !info.IsDir() {
			return fmt.Errorf("not a directory")
		}
		return fmt.Errorf("not accessible: %w", err)
	}

	dirs := 0
	for _, e := range entries {
		if e.IsDir() {
			dirs++
		}
	}
	logging.Debug("    %d files, %d folders at top level", len(entries)-dirs, dirs)
	return nil
}

func workersString(n int) string {
	if n == 0 {
		return "auto"
	}
	return strconv.Itoa(n)
}

