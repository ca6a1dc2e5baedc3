package serverapp

import (
	"context"
	"log/slog"
	"time"

	"talawa-graphql/internal/logging"
)

// cleanupStack releases resources in reverse order of acquisition.
type cleanupStack struct {
	items []cleanupItem
}

type cleanupItem struct {
	name string
	fn   func(context.Context) error
}

func (s *cleanupStack) push(name string, fn func(context.Context) error) {
	s.items = append(s.items, cleanupItem{name: name, fn: fn})
}

// run calls every cleanup function even when earlier ones fail.
func (s *cleanupStack) run(ctx context.Context, logger *logging.Logger) {
	for i := len(s.items) - 1; i >= 0; i-- {
		item := s.items[i]
		logger.Debug("shutting down " + item.name)
		if err := item.fn(ctx); err != nil {
			logger.Warn("cleanup error",
				slog.String("component", item.name),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Shutdown drains the HTTP server and releases all resources within the
// configured shutdown timeout. It is safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a.shutdownOnce.Do(func() {
		a.stateMu.Lock()
		cleanup := a.cleanup
		a.started = false
		a.stateMu.Unlock()

		if a.cfg != nil && a.cfg.Server.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
			defer cancel()
		}

		start := time.Now()
		cleanup.run(ctx, a.logger)
		a.logger.Info("shutdown complete", slog.Duration("duration", time.Since(start)))
	})

	return nil
}
