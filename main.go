package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"hologram/internal/events"
	"hologram/internal/exif"
	"hologram/internal/filesystem"
	"hologram/internal/handlers"
	"hologram/internal/indexer"
	"hologram/internal/logging"
	"hologram/internal/media"
	"hologram/internal/memory"
	"hologram/internal/metrics"
	"hologram/internal/middleware"
	"hologram/internal/startup"
)

func main() {
	startTime := time.Now()

	// Configure GOMEMLIMIT before anything allocates heavily
	memResult := memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	startup.LogMemoryConfig(memResult)

	volumes := config.VolumeResolver()
	filesystem.SetDefaultVolumeResolver(volumes)
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	metrics.InitializeMetrics(volumes.Names())
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)

	// libvips is optional; every image path has a pure-Go fallback
	var vipsErr error
	if config.VipsEnabled {
		vipsErr = media.InitVips()
	}
	startup.LogVipsInit(config.VipsEnabled, vipsErr)
	useVips := config.VipsEnabled && vipsErr == nil

	retry := filesystem.DefaultRetryConfig()

	monitor := memory.NewMonitor(memory.Config{MemoryLimitBytes: memResult.GoMemLimit})
	monitor.Start()

	broker := events.NewBroker(config.EventBuffer)

	thumbConfig := media.DefaultThumbnailConfig()
	thumbConfig.MaxDimension = config.ThumbnailSize
	thumbConfig.Quality = config.ThumbnailQuality
	thumbConfig.UseVips = useVips
	thumbConfig.Retry = retry

	loaderConfig := media.DefaultLoaderConfig()
	loaderConfig.UseVips = useVips
	loaderConfig.Retry = retry

	engine := indexer.New(indexer.Config{
		Workers:        config.ScanWorkers,
		ProgressEvery:  config.ProgressEvery,
		SkipHidden:     config.SkipHidden,
		FollowSymlinks: config.FollowSymlinks,
		Retry:          retry,
	}, indexer.Deps{
		Extractor:   exif.NewWithRetry(retry),
		Thumbnailer: media.NewThumbnailGenerator(thumbConfig),
		Broker:      broker,
		Memory:      monitor,
	})
	startup.LogEngineInit(engine.Workers(), config.ProgressEvery)

	collector := metrics.NewCollector(engine, config.MetricsInterval)
	collector.Start()

	h := handlers.New(engine, broker, media.NewLoader(loaderConfig), volumes)

	router := mux.NewRouter()
	router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	h.RegisterRoutes(router)

	// Metrics share the API port unless a separate one is configured
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		if config.MetricsPort == "" || config.MetricsPort == config.Port {
			router.Handle("/metrics", h.MetricsHandler()).Methods("GET")
			config.MetricsPort = config.Port
		} else {
			metricsRouter := mux.NewRouter()
			metricsRouter.Handle("/metrics", h.MetricsHandler()).Methods("GET")
			metricsSrv = &http.Server{
				Addr:              ":" + config.MetricsPort,
				Handler:           metricsRouter,
				ReadHeaderTimeout: 10 * time.Second,
			}
		}
	}

	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(router)

	handler := middleware.Compression(middleware.DefaultCompressionConfig())(loggedHandler)

	// WriteTimeout stays 0: scans and event streams outlive any fixed bound
	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	if metricsSrv != nil {
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		handleShutdown(srv, metricsSrv, &shutdownDeps{
			handlers:  h,
			engine:    engine,
			collector: collector,
			monitor:   monitor,
			broker:    broker,
			timeout:   config.ShutdownTimeout,
		})
	}()

	h.SetReady(true)
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := serve(srv.ListenAndServe, shutdownDone); err != nil {
		startup.LogFatal("Server error: %v", err)
	}
}

// serve runs listen until the server is shut down, then waits for the
// shutdown sequence to finish before returning.
func serve(listen func() error, shutdownDone <-chan struct{}) error {
	if err := listen(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-shutdownDone
	return nil
}

type shutdownDeps struct {
	handlers  *handlers.Handlers
	engine    *indexer.Engine
	collector *metrics.Collector
	monitor   *memory.Monitor
	broker    *events.Broker
	timeout   time.Duration
}

func handleShutdown(srv, metricsSrv *http.Server, deps *shutdownDeps) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	log := startup.BeginShutdown(sig.String())
	deps.handlers.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), deps.timeout)
	defer cancel()

	if deps.engine.Cancel() {
		log.Step("Active scan cancelled", nil)
	}

	// Closing the broker ends open event streams so Shutdown can drain
	deps.broker.Close()
	log.Step("Event broker closed", nil)

	log.Step("HTTP server stopped", srv.Shutdown(ctx))
	if metricsSrv != nil {
		log.Step("Metrics server stopped", metricsSrv.Shutdown(ctx))
	}

	deps.collector.Stop()
	deps.monitor.Stop()
	media.ShutdownVips()

	log.Done(deps.monitor.Usage())
}
