package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/antoniostano/compagnon/internal/app"
	"github.com/antoniostano/compagnon/internal/config"
	"github.com/antoniostano/compagnon/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		bootLog := logging.New("info", "console")
		bootLog.Fatal().Err(err).Msg("compagnon stopped")
	}
}

// run serves until ctx is cancelled. Configuration and wiring errors are
// returned before anything listens.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	built, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	defer func() {
		if err := built.Cleanup(); err != nil {
			logger.Warn().Err(err).Msg("cleanup failed")
		}
	}()

	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: built.API.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.BindAddr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown failed")
		_ = httpServer.Close()
	}

	logger.Info().Msg("shutdown complete")
	return nil
}
