package serverapp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// Init builds every runtime resource in dependency order. It is idempotent.
// When a step fails, whatever the earlier steps acquired is released.
func (a *App) Init(ctx context.Context) (err error) {
	a.stateMu.Lock()
	done := a.initialized
	a.stateMu.Unlock()
	if done {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var cleanup cleanupStack
	defer func() {
		if err != nil {
			cleanup.run(context.Background(), a.logger)
		}
	}()

	if a.loggerProvider != nil {
		lp := a.loggerProvider
		cleanup.push("logger provider", func(ctx context.Context) error { return lp.Shutdown(ctx, a.logger.Logger) })
	}

	meterProvider, graphqlMetrics, authMetrics, err := initMetrics(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry metrics: %w", err)
	}
	if meterProvider != nil {
		cleanup.push("meter provider", func(ctx context.Context) error { return meterProvider.Shutdown(ctx, a.logger.Logger) })
	}

	tracerProvider, err := initTracing(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry tracing: %w", err)
	}
	if tracerProvider != nil {
		cleanup.push("tracer provider", func(ctx context.Context) error { return tracerProvider.Shutdown(ctx, a.logger.Logger) })
	}

	dbCfg := a.cfg.Database
	a.logger.Info("connecting to MySQL",
		slog.String("host", dbCfg.Host),
		slog.Int("port", dbCfg.Port),
		slog.String("database", dbCfg.Database),
		slog.Bool("dsn_present", dbCfg.ConnectionString != ""),
		slog.String("tls_mode", dbCfg.TLS.Mode),
	)
	db, dbStats, err := connectDB(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	cleanup.push("database", func(context.Context) error {
		if dbStats != nil {
			if err := dbStats.Unregister(); err != nil {
				a.logger.Warn("failed to unregister DB stats metrics", slog.String("error", err.Error()))
			}
		}
		return db.Close()
	})
	if err := configureDatabase(ctx, a.cfg, a.logger, db); err != nil {
		return fmt.Errorf("failed to verify database connection: %w", err)
	}

	executor := buildQueryExecutor(db)
	if dbCfg.AutoMigrate {
		if err := migrateDatabase(ctx, a.logger, executor); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	graphqlHandler, err := buildGraphQLHandler(ctx, a.cfg, a.logger, executor, graphqlMetrics, authMetrics)
	if err != nil {
		return fmt.Errorf("failed to initialize GraphQL handler: %w", err)
	}
	handler := wrapHTTPHandler(a.cfg, a.logger, buildRouter(a.cfg, a.logger, db, graphqlHandler, meterProvider))

	addr := fmt.Sprintf(":%d", a.cfg.Server.Port)
	srv := buildServer(a.cfg, handler, addr)
	cleanup.push("HTTP server", srv.Shutdown)

	a.publish(handler, addr, srv, cleanup)
	return nil
}

func (a *App) publish(handler http.Handler, addr string, srv *http.Server, cleanup cleanupStack) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	a.handler = handler
	a.serverAddr = addr
	a.srv = srv
	a.cleanup = cleanup
	a.initialized = true
}

