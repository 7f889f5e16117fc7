package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli"

	"hologram/internal/events"
	"hologram/internal/exif"
	"hologram/internal/filesystem"
	"hologram/internal/indexer"
	"hologram/internal/library"
	"hologram/internal/logging"
	"hologram/internal/media"
)

// exitCancelled matches the shell convention for SIGINT.
const exitCancelled = 130

func newEngine(c *cli.Context, broker *events.Broker) *indexer.Engine {
	retry := filesystem.DefaultRetryConfig()
	deps := indexer.Deps{
		Extractor: exif.NewWithRetry(retry),
		Broker:    broker,
	}

	if c.GlobalBool("thumbnails") {
		cfg := media.DefaultThumbnailConfig()
		cfg.Retry = retry
		if err := media.InitVips(); err != nil {
			logging.Debug("libvips unavailable, thumbnails use in-process decoding: %v", err)
			cfg.UseVips = false
		}
		deps.Thumbnailer = media.NewThumbnailGenerator(cfg)
	}

	return indexer.New(indexer.Config{
		Workers:        c.GlobalInt("workers"),
		SkipHidden:     c.GlobalBoolT("skip-hidden"),
		FollowSymlinks: c.GlobalBoolT("follow-symlinks"),
		Retry:          retry,
	}, deps)
}

// runScan scans the folder named by the first argument. Progress is drawn
// on stderr when it is a terminal.
func runScan(c *cli.Context) (*indexer.ScanResult, error) {
	root := c.Args().First()
	if root == "" {
		return nil, cli.NewExitError("a folder path is required", 2)
	}

	ctx, cancel := signalContext()
	defer cancel()
	defer media.ShutdownVips()

	display := newProgressDisplay(os.Stderr)
	if !display.enabled() {
		return checkOutcome(newEngine(c, nil).ScanFolder(ctx, root))
	}

	broker := events.NewBroker(0)
	defer broker.Close()
	sub := broker.Subscribe()
	defer sub.Close()

	scanID := uuid.NewString()
	ctx = indexer.WithScanID(ctx, scanID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := sub.Await(ctx, scanID, display.update); err != nil && !errors.Is(err, context.Canceled) {
			logging.Debug("progress stream ended: %v", err)
		}
	}()

	result, err := newEngine(c, broker).ScanFolderWithProgress(ctx, root)

	// The completion event is published before the scan returns.
	select {
	case <-done:
	case <-time.After(time.Second):
	}
	display.finish()

	return checkOutcome(result, err)
}

func checkOutcome(result *indexer.ScanResult, err error) (*indexer.ScanResult, error) {
	if err != nil {
		return nil, err
	}
	if result.Outcome == library.OutcomeCancelled {
		return nil, cli.NewExitError("scan cancelled", exitCancelled)
	}
	return result, nil
}
