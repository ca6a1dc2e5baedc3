// Package serverapp assembles the talawa-graphql server: telemetry providers,
// the MySQL pool, the GraphQL schema and the HTTP stack, with an ordered
// shutdown of everything it acquired.
package serverapp

import (
	"errors"
	"net/http"
	"sync"

	"talawa-graphql/internal/config"
	"talawa-graphql/internal/logging"
	"talawa-graphql/internal/observability"
)

// App owns runtime resources for the server lifecycle.
type App struct {
	cfg    *config.Config
	logger *logging.Logger

	// loggerProvider is created before App and shut down last.
	loggerProvider *observability.LoggerProvider

	handler    http.Handler
	serverAddr string
	srv        *http.Server
	cleanup    cleanupStack

	stateMu      sync.Mutex
	initialized  bool
	started      bool
	serverErrors chan error

	shutdownOnce sync.Once
}

// New creates an App lifecycle wrapper.
func New(cfg *config.Config, logger *logging.Logger) (*App, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("config is required")
	case logger == nil:
		return nil, errors.New("logger is required")
	}
	return &App{cfg: cfg, logger: logger}, nil
}

// AttachLoggerProvider hands the OTLP log provider to the app for shutdown.
func (a *App) AttachLoggerProvider(provider *observability.LoggerProvider) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	a.loggerProvider = provider
}

// Handler returns the fully wrapped HTTP handler. It is nil before Init.
func (a *App) Handler() http.Handler {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	return a.handler
}
