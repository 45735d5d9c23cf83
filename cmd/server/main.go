package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/rlbelief/internal/api"
	"github.com/Harshitk-cp/rlbelief/internal/bootstrap"
	"github.com/Harshitk-cp/rlbelief/internal/buildconfig"
	"github.com/Harshitk-cp/rlbelief/internal/config"
	"go.uber.org/zap"
)

func main() {
	_ = config.Load()

	logger, err := bootstrap.NewLogger(config.LogLevel())
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := bootstrap.OpenBackend(ctx, logger)
	if err != nil {
		logger.Fatal("failed to open snapshot backend", zap.Error(err))
	}
	defer backend.Close()

	beliefs, rankings := bootstrap.Services(backend, logger)

	// Fail fast on a corrupt latest snapshot instead of on the first request.
	if _, err := beliefs.Snapshot(ctx); err != nil {
		logger.Fatal("failed to load beliefs", zap.Error(err))
	}

	app := api.NewApp(ctx, beliefs, rankings, logger, api.Options{
		APIKey:         config.APIKey(),
		RateLimitRPS:   config.RateLimitRPS(),
		RateLimitBurst: config.RateLimitBurst(),
		Ping:           backend.Ping,
	})

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", addr),
			zap.String("backend", backend.Kind),
			zap.String("version", buildconfig.Version()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
