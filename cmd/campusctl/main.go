// Command campusctl browses, registers for and manages campus events from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"campusevents/config"
	"campusevents/internal/adapters/telemetry"
	"campusevents/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	logger := config.NewLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("flushing traces", "error", err)
		}
	}()

	app, closeStore, err := cli.New(ctx, cfg, logger, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("closing credential store", "error", err)
		}
	}()

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		// Bare usage errors have already printed the command list.
		if err != cli.ErrUsage {
			fmt.Fprintln(os.Stderr, cli.Describe(err))
		}
		return 1
	}
	return 0
}
