package serverapp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"talawa-graphql/internal/config"
	"talawa-graphql/internal/dbexec"
	"talawa-graphql/internal/logging"
	"talawa-graphql/internal/middleware"
	"talawa-graphql/internal/observability"
	"talawa-graphql/internal/resolver"
	"talawa-graphql/internal/store"

	"github.com/XSAM/otelsql"
	"github.com/graphql-go/handler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// maxRetryInterval caps the backoff between database connection attempts.
const maxRetryInterval = 30 * time.Second

func telemetryConfig(cfg *config.Config) observability.Config {
	return observability.Config{
		ServiceName:      cfg.Observability.ServiceName,
		ServiceVersion:   cfg.Observability.ServiceVersion,
		Environment:      cfg.Observability.Environment,
		TraceSampleRatio: cfg.Observability.TraceSampleRatio,
	}
}

func exporterConfig(o config.OTLPConfig) observability.ExporterConfig {
	return observability.ExporterConfig{
		Endpoint:          o.Endpoint,
		Protocol:          o.Protocol,
		Insecure:          o.Insecure,
		TLSCertFile:       o.TLSCertFile,
		TLSClientCertFile: o.TLSClientCertFile,
		TLSClientKeyFile:  o.TLSClientKeyFile,
		Headers:           o.Headers,
		Timeout:           o.Timeout,
		Compression:       o.Compression,
		RetryEnabled:      o.RetryEnabled,
		RetryMaxAttempts:  o.RetryMaxAttempts,
	}
}

// InitLogger builds the process logger and installs it as the slog default.
// When log export is enabled the returned provider must be shut down last.
func InitLogger(cfg *config.Config) (*logging.Logger, *observability.LoggerProvider, error) {
	loggerCfg := logging.Config{
		Level:  cfg.Observability.Logging.Level,
		Format: cfg.Observability.Logging.Format,
	}
	logger := logging.NewLogger(loggerCfg)
	slog.SetDefault(logger.Logger)

	if !cfg.Observability.Logging.ExportsEnabled {
		return logger, nil, nil
	}

	logsConfig := cfg.Observability.LogsOTLP()
	logger.Info("initializing OpenTelemetry logging",
		slog.String("otlp_endpoint", logsConfig.Endpoint),
		slog.String("otlp_protocol", logsConfig.Protocol),
		slog.Bool("insecure", logsConfig.Insecure),
	)

	loggerProvider, err := observability.InitLoggerProvider(context.Background(), telemetryConfig(cfg), exporterConfig(logsConfig))
	if err != nil {
		return nil, nil, err
	}

	loggerCfg.LoggerProvider = loggerProvider.Provider()
	logger = logging.NewLogger(loggerCfg)
	slog.SetDefault(logger.Logger)
	logger.Info("OpenTelemetry logging initialized")

	return logger, loggerProvider, nil
}

func initMetrics(cfg *config.Config, logger *logging.Logger) (*observability.MeterProvider, *observability.GraphQLMetrics, *observability.AuthMetrics, error) {
	if !cfg.Observability.MetricsEnabled {
		return nil, nil, nil, nil
	}

	meterProvider, err := observability.InitMeterProvider(telemetryConfig(cfg))
	if err != nil {
		return nil, nil, nil, err
	}

	graphqlMetrics, err := observability.InitMetrics(logger.Logger)
	if err != nil {
		return nil, nil, nil, err
	}

	authMetrics, err := observability.InitAuthMetrics()
	if err != nil {
		return nil, nil, nil, err
	}

	logger.Info("OpenTelemetry metrics initialized",
		slog.String("service_name", cfg.Observability.ServiceName),
		slog.String("environment", cfg.Observability.Environment),
	)
	return meterProvider, graphqlMetrics, authMetrics, nil
}

func initTracing(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*observability.TracerProvider, error) {
	if !cfg.Observability.TracingEnabled {
		return nil, nil
	}

	tracesConfig := cfg.Observability.TracesOTLP()
	tracerProvider, err := observability.InitTracerProvider(ctx, telemetryConfig(cfg), exporterConfig(tracesConfig))
	if err != nil {
		return nil, err
	}

	logger.Info("OpenTelemetry tracing initialized",
		slog.String("otlp_endpoint", tracesConfig.Endpoint),
		slog.String("otlp_protocol", tracesConfig.Protocol),
		slog.Float64("sample_ratio", cfg.Observability.TraceSampleRatio),
	)
	return tracerProvider, nil
}

func connectDB(cfg *config.Config, logger *logging.Logger) (*sql.DB, interface{ Unregister() error }, error) {
	if err := cfg.Database.RegisterTLS(); err != nil {
		return nil, nil, fmt.Errorf("failed to register database TLS config: %w", err)
	}

	dsn, err := cfg.Database.DSN()
	if err != nil {
		return nil, nil, err
	}

	if !cfg.Observability.MetricsEnabled && !cfg.Observability.TracingEnabled {
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, nil, err
		}
		return db, nil, nil
	}

	opts := []otelsql.Option{otelsql.WithAttributes(semconv.DBSystemMySQL)}
	if cfg.Observability.TracingEnabled {
		opts = append(opts, otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}))
	}

	db, err := otelsql.Open("mysql", dsn, opts...)
	if err != nil {
		return nil, nil, err
	}

	var dbStatsReg interface{ Unregister() error }
	if cfg.Observability.MetricsEnabled {
		dbStatsReg, err = otelsql.RegisterDBStatsMetrics(db, otelsql.WithAttributes(semconv.DBSystemMySQL))
		if err != nil {
			logger.Warn("failed to register DB stats metrics", slog.String("error", err.Error()))
		}
	}

	logger.Info("database instrumentation enabled",
		slog.Bool("metrics", cfg.Observability.MetricsEnabled),
		slog.Bool("tracing", cfg.Observability.TracingEnabled),
	)
	return db, dbStatsReg, nil
}

func configureDatabase(ctx context.Context, cfg *config.Config, logger *logging.Logger, db *sql.DB) error {
	db.SetMaxOpenConns(cfg.Database.Pool.MaxOpen)
	db.SetMaxIdleConns(cfg.Database.Pool.MaxIdle)
	db.SetConnMaxLifetime(cfg.Database.Pool.MaxLifetime)

	if err := waitForDatabase(ctx, cfg.Database.ConnectionTimeout, cfg.Database.ConnectionRetryInterval, logger, db.PingContext); err != nil {
		return err
	}

	logger.Info("connected to database",
		slog.Int("pool_max_open", cfg.Database.Pool.MaxOpen),
		slog.Int("pool_max_idle", cfg.Database.Pool.MaxIdle),
		slog.Duration("pool_max_lifetime", cfg.Database.Pool.MaxLifetime),
	)
	return nil
}

// waitForDatabase retries ping with exponential backoff until timeout. A zero
// timeout tries exactly once.
func waitForDatabase(ctx context.Context, timeout, interval time.Duration, logger *logging.Logger, ping func(context.Context) error) error {
	if timeout == 0 {
		return ping(ctx)
	}
	if interval <= 0 {
		interval = time.Second
	}

	deadline := time.Now().Add(timeout)
	for attempt := 1; ; attempt++ {
		err := ping(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info("database connection established", slog.Int("attempts", attempt))
			}
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("database not available after %v: %w", timeout, err)
		}

		logger.Warn("database not ready, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", interval),
			slog.String("error", err.Error()),
		)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		interval = min(interval*2, maxRetryInterval)
	}
}

func buildQueryExecutor(db *sql.DB) dbexec.QueryExecutor {
	return dbexec.NewStandardExecutor(db)
}

func migrateDatabase(ctx context.Context, logger *logging.Logger, executor dbexec.QueryExecutor) error {
	start := time.Now()
	if err := store.Migrate(ctx, executor); err != nil {
		return err
	}
	logger.Info("database schema ensured", slog.Duration("duration", time.Since(start)))
	return nil
}

func authConfig(cfg *config.Config) middleware.AuthConfig {
	return middleware.AuthConfig{
		Mode:          cfg.Auth.Mode,
		UserIDClaim:   cfg.Auth.UserIDClaim,
		ClockSkew:     cfg.Auth.ClockSkew,
		JWTSecret:     []byte(cfg.Auth.JWTSecret),
		JWTIssuer:     cfg.Auth.JWTIssuer,
		JWTAudience:   cfg.Auth.JWTAudience,
		OIDCIssuerURL: cfg.Auth.OIDCIssuerURL,
		OIDCAudience:  cfg.Auth.OIDCAudience,
		OIDCCAFile:    cfg.Auth.OIDCCAFile,
	}
}

// buildGraphQLHandler assembles the /graphql chain:
//
//	logging -> auth -> rate limit -> metrics -> depth limit -> mutation tx -> graphql
//
// The rate limiter keys on the current client, so it runs after auth. Depth
// is recorded through the metrics placed in the context by the metrics layer.
func buildGraphQLHandler(ctx context.Context, cfg *config.Config, logger *logging.Logger, executor dbexec.QueryExecutor, graphqlMetrics *observability.GraphQLMetrics, authMetrics *observability.AuthMetrics) (http.Handler, error) {
	schema, err := resolver.NewResolver(executor, store.New()).BuildGraphQLSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to build GraphQL schema: %w", err)
	}

	var h http.Handler = handler.New(&handler.Config{
		Schema:   &schema,
		Pretty:   true,
		GraphiQL: cfg.Server.GraphiQLEnabled,
	})

	h = middleware.MutationTransactionMiddleware(executor)(h)
	h = middleware.QueryDepthMiddleware(cfg.Server.GraphQLMaxDepth)(h)
	if graphqlMetrics != nil {
		h = middleware.GraphQLMetricsMiddleware(graphqlMetrics)(h)
	}
	h = middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Enabled: cfg.Server.RateLimitEnabled,
		RPS:     cfg.Server.RateLimitRPS,
		Burst:   cfg.Server.RateLimitBurst,
	})(h)

	auth, err := middleware.AuthMiddleware(ctx, authConfig(cfg), logger, authMetrics)
	if err != nil {
		return nil, err
	}
	h = auth(h)

	return middleware.LoggingMiddleware(logger)(h), nil
}

func buildRouter(cfg *config.Config, logger *logging.Logger, db *sql.DB, graphqlHandler http.Handler, meterProvider *observability.MeterProvider) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/graphql", graphqlHandler)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/graphql", http.StatusFound)
			return
		}
		http.NotFound(w, r)
	})
	mux.Handle("/health", middleware.LoggingMiddleware(logger)(healthHandler(db.PingContext, cfg.Server.HealthCheckTimeout)))

	if meterProvider != nil {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info("metrics endpoint enabled", slog.String("path", "/metrics"))
	}
	return mux
}

func wrapHTTPHandler(cfg *config.Config, logger *logging.Logger, h http.Handler) http.Handler {
	if cfg.Observability.MetricsEnabled || cfg.Observability.TracingEnabled {
		h = otelhttp.NewHandler(h, "http.server",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return httpRootSpanName(r)
			}),
		)
		logger.Info("HTTP instrumentation enabled")
	}

	return middleware.CORSMiddleware(middleware.CORSConfig{
		Enabled:          cfg.Server.CORSEnabled,
		AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
		AllowedMethods:   cfg.Server.CORSAllowedMethods,
		AllowedHeaders:   cfg.Server.CORSAllowedHeaders,
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: cfg.Server.CORSAllowCredentials,
		MaxAge:           cfg.Server.CORSMaxAge,
	})(h)
}

func httpRootSpanName(r *http.Request) string {
	if r == nil {
		return "HTTP /*"
	}
	method := strings.TrimSpace(r.Method)
	if method == "" {
		method = "HTTP"
	}
	return method + " " + normalizeHTTPSpanRoute(r.URL.Path)
}

// normalizeHTTPSpanRoute keeps span names low-cardinality.
func normalizeHTTPSpanRoute(rawPath string) string {
	switch rawPath {
	case "/", "/graphql", "/health", "/metrics":
		return rawPath
	default:
		return "/*"
	}
}

func buildServer(cfg *config.Config, h http.Handler, serverAddr string) *http.Server {
	return &http.Server{
		Addr:              serverAddr,
		Handler:           h,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

func startServer(cfg *config.Config, logger *logging.Logger, srv *http.Server, serverAddr string) chan error {
	serverErrors := make(chan error, 1)
	go func() {
		logAttrs := []any{
			slog.String("address", serverAddr),
			slog.String("graphql_endpoint", "/graphql"),
			slog.String("health_endpoint", "/health"),
			slog.Bool("graphiql", cfg.Server.GraphiQLEnabled),
			slog.Int("graphql_max_depth", cfg.Server.GraphQLMaxDepth),
			slog.String("auth_mode", cfg.Auth.Mode),
		}
		if cfg.Observability.MetricsEnabled {
			logAttrs = append(logAttrs, slog.String("metrics_endpoint", "/metrics"))
		}
		if cfg.Server.RateLimitEnabled {
			logAttrs = append(logAttrs,
				slog.Float64("rate_limit_rps", cfg.Server.RateLimitRPS),
				slog.Int("rate_limit_burst", cfg.Server.RateLimitBurst),
			)
		}
		logger.Info("server starting", logAttrs...)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("server failed: %w", err)
		}
	}()
	return serverErrors
}

type healthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// healthHandler reports whether the database answers a ping within timeout.
func healthHandler(ping func(context.Context) error, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqLogger := logging.FromContext(r.Context())
		w.Header().Set("Content-Type", "application/json")

		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		if err := ping(ctx); err != nil {
			reqLogger.Error("health check failed",
				slog.String("check", "database"),
				slog.String("error", err.Error()),
			)
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(healthStatus{Status: "unhealthy", Database: "failed"})
			return
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(healthStatus{Status: "healthy", Database: "ok"})
	}
}
