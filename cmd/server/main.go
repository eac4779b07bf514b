// Package main is the entry point for the petracker service.
// It records one P/E ratio per security per trading day and serves the
// collected history over HTTP.
//
// Startup sequence:
// 1. Load configuration from the environment (.env supported)
// 2. Build the logger
// 3. Wire dependencies (database, clients, services, scheduler)
// 4. Start the HTTP server and arm the daily scheduler
// 5. On SIGINT/SIGTERM, disarm the scheduler and drain the server
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/petracker/internal/config"
	"github.com/aristath/petracker/internal/di"
	"github.com/aristath/petracker/internal/server"
	"github.com/aristath/petracker/pkg/logger"
)

// schedulerDrainTimeout bounds how long shutdown waits for an in-flight
// scheduled run before cancelling it
const schedulerDrainTimeout = 2 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("driver", cfg.DatabaseDriver).
		Str("data_dir", cfg.DataDir).
		Msg("Starting petracker")

	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	if err := container.Scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	if next, ok := container.Scheduler.NextRun(); ok {
		log.Info().Time("next_run", next).Msg("Daily acquisition scheduled")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	// The scheduler goes first so no run starts while the server drains
	stopCtx, stopCancel := context.WithTimeout(context.Background(), schedulerDrainTimeout)
	defer stopCancel()
	if err := container.Scheduler.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Scheduler stopped with error")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
