package serverapp

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// Stop reasons returned by WaitForStop.
const (
	StopReasonSignal      = "signal"
	StopReasonServerError = "server_error"
)

// Start launches the HTTP server goroutine. It requires Init to have completed.
func (a *App) Start() (<-chan error, error) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()

	if !a.initialized {
		return nil, errors.New("app is not initialized")
	}
	if a.started {
		return a.serverErrors, nil
	}

	a.serverErrors = startServer(a.cfg, a.logger, a.srv, a.serverAddr)
	a.started = true
	return a.serverErrors, nil
}

// WaitForStop blocks until a signal arrives on stop or the server fails. A nil
// serverErrors falls back to the channel returned by Start.
func (a *App) WaitForStop(stop <-chan os.Signal, serverErrors <-chan error) (reason string, err error) {
	if serverErrors == nil {
		a.stateMu.Lock()
		if a.serverErrors != nil {
			serverErrors = a.serverErrors
		}
		a.stateMu.Unlock()
	}
	if stop == nil && serverErrors == nil {
		return "", errors.New("both stop and serverErrors channels are nil")
	}

	// Receiving from a nil channel blocks, so a missing source never fires.
	select {
	case err := <-serverErrors:
		if err == nil {
			return StopReasonServerError, errors.New("server stopped unexpectedly")
		}
		return StopReasonServerError, fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		a.logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		return StopReasonSignal, nil
	}
}
