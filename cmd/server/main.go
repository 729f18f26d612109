package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"buildops/internal/app"
	"buildops/internal/config"
	"buildops/internal/database"
	"buildops/internal/handlers"
	"buildops/internal/logging"
	"buildops/internal/server"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateServer()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, logger, app.NewContainer); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

type opener func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app.Container, error)

// run возвращает ошибку вместо выхода, чтобы отработали все defer.
func run(cfg *config.Config, logger *slog.Logger, open opener) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer container.Close()

	if err := database.Migrate(container.DB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if err := database.SeedAdmin(container.DB, cfg.AdminUsername, cfg.AdminPassword, logger); err != nil {
		return fmt.Errorf("admin seed failed: %w", err)
	}
	database.SeedDemoUsers(container.DB, logger)
	if _, err := database.SeedActivities(container.DB, logger); err != nil {
		logger.Warn("activity seed failed", "error", err)
	}

	h := handlers.New(container.DB, container.Store, container.Scorer, container.Predictor, container.Rescheduler, logger)
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           server.NewRouter(cfg, h, container.DB, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")

	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	default:
		return nil
	}
}
