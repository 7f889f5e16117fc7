package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"hologram/internal/logging"
	"hologram/internal/startup"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "hologram"
	app.Usage = "Index and query RAW and JPEG photo folders"
	app.Version = startup.Version
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "log-level",
			Value:  "warn",
			Usage:  "debug, info, warn or error",
			EnvVar: "LOG_LEVEL",
		},
		cli.IntFlag{
			Name:  "workers",
			Usage: "per-file worker count (0 sizes the pool from CPUs)",
		},
		cli.BoolTFlag{
			Name:  "skip-hidden",
			Usage: "skip dot files and directories",
		},
		cli.BoolTFlag{
			Name:  "follow-symlinks",
			Usage: "descend into symlinked directories",
		},
		cli.BoolFlag{
			Name:  "thumbnails",
			Usage: "generate thumbnails while scanning",
		},
	}
	app.Before = func(c *cli.Context) error {
		level, ok := logging.ParseLevel(c.GlobalString("log-level"))
		if !ok {
			return fmt.Errorf("unknown log level %q", c.GlobalString("log-level"))
		}
		logging.SetLevel(level)
		return nil
	}
	app.Commands = []cli.Command{
		ScanCommand,
		StatsCommand,
		FilterCommand,
		ShowCommand,
	}
	return app
}

// signalContext is cancelled on SIGINT or SIGTERM so an interrupted scan
// stops cleanly.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nInterrupted, cancelling scan...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
