package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/easymo/generation-control-plane/app"
	"github.com/easymo/generation-control-plane/config"
	"github.com/easymo/generation-control-plane/internal/observability"
	"github.com/easymo/generation-control-plane/routes"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.New(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := initLogger()
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	if err := deps.Start(); err != nil {
		return fmt.Errorf("failed to start background services: %w", err)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      routes.SetupRoutes(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("api-gateway listening",
			zap.String("addr", cfg.Server.Address()),
			zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	if err := deps.Close(shutdownCtx); err != nil {
		logger.Error("dependency shutdown failed", zap.Error(err))
	}

	logger.Info("api-gateway stopped")
	return nil
}

// initLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func initLogger() (*zap.Logger, error) {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	format := os.Getenv("LOG_FORMAT")
	if format == "" {
		format = "json"
	}
	return observability.NewLogger(level, format)
}
