package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/cadence/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadEnvFiles(".env"); err != nil {
		logger.Warn("failed to load .env", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{})
	if err := newApp(runner).Run(ctx, os.Args); err != nil {
		stop()
		runner.logger.Fatal("application error", "error", err)
	}
}
