package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weibo-harvest/internal/observability"
)

// GracefulShutdown derives a context from parent that is cancelled on
// SIGINT or SIGTERM. maxRun bounds the whole run; zero means no bound.
func GracefulShutdown(parent context.Context, logger *observability.Logger, maxRun time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	if maxRun > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, maxRun)
		parent := cancel
		cancel = func() {
			cancelTimeout()
			parent()
		}
	}

	// Канал для сигналов ОС
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
