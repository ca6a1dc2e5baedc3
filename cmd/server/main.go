// Command server runs the Talawa GraphQL API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"talawa-graphql/internal/config"
	"talawa-graphql/internal/serverapp"

	"github.com/spf13/pflag"
)

var (
	// Version is set at build time via -ldflags "-X main.Version=...".
	Version = "dev"
	Commit  = "none"
)

var errInvalidConfig = errors.New("configuration validation failed")

func main() {
	if err := run(); err != nil {
		slog.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	pflag.Bool("version", false, "Print version and exit")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if showVersion, _ := pflag.CommandLine.GetBool("version"); showVersion {
		fmt.Println(versionString())
		return nil
	}

	if cfg.Observability.ServiceVersion == "" {
		cfg.Observability.ServiceVersion = Version
	}
	if err := reportValidation(slog.Default(), cfg.Validate()); err != nil {
		return err
	}

	logger, loggerProvider, err := serverapp.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	app, err := serverapp.New(cfg, logger)
	if err != nil {
		if loggerProvider != nil {
			_ = loggerProvider.Shutdown(context.Background(), logger.Logger)
		}
		return err
	}
	app.AttachLoggerProvider(loggerProvider)

	if err := app.Init(context.Background()); err != nil {
		return err
	}

	serverErrors, err := app.Start()
	if err != nil {
		_ = app.Shutdown(context.Background())
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	reason, waitErr := app.WaitForStop(stop, serverErrors)
	logger.Info("shutting down server gracefully", slog.String("reason", reason))

	if err := errors.Join(waitErr, app.Shutdown(context.Background())); err != nil {
		return err
	}
	logger.Info("server stopped gracefully")
	return nil
}

func versionString() string {
	return fmt.Sprintf("talawa-graphql %s (%s)", Version, Commit)
}

// reportValidation logs every finding and fails when any is an error.
func reportValidation(logger *slog.Logger, result *config.ValidationResult) error {
	for _, warn := range result.Warnings {
		logger.Warn("configuration warning",
			slog.String("field", warn.Field),
			slog.String("message", warn.Message),
			slog.String("hint", warn.Hint),
		)
	}
	if !result.HasErrors() {
		return nil
	}
	for _, err := range result.Errors {
		logger.Error("configuration error",
			slog.String("field", err.Field),
			slog.String("message", err.Message),
			slog.String("hint", err.Hint),
		)
	}
	return errInvalidConfig
}
