package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/api"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/api/middleware"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/app"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/config"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/logging"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/scheduler"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/version"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	log.WithField("version", version.Version).Info("starting portfolio tracker")

	if os.Getenv(middleware.APIKeyEnv) == "" {
		log.Warnf("%s is not set, POST /api/snapshot will reject every request", middleware.APIKeyEnv)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize application")
	}
	defer a.Close()

	// Periodic snapshots
	var task *scheduler.ScheduledTask
	if cfg.Snapshot.Cron != "" {
		task, err = scheduler.NewSnapshotTask(cfg.Snapshot.Cron, a.Snapshot, log)
		if err != nil {
			log.WithError(err).Fatal("failed to schedule snapshots")
		}
		task.Start()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(a.Services(), cfg, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	<-ctx.Done()
	log.Info("shutting down server")

	if task != nil {
		task.Stop()
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}

	log.Info("server exited")
}
