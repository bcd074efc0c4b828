package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vetting/internal/platform/config"
	"vetting/internal/platform/logger"
)

// main wires dependencies, starts the background workers and serves HTTP
// until SIGINT or SIGTERM.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logger.New("info", "json").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.AdminAPIToken == "" {
		log.Warn("ADMIN_API_TOKEN not set, admin routes will reject every request")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		log.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer a.close()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := a.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("history reconcile worker stopped", "error", err)
		}
	}()
	if err := a.sweeper.Start(cfg.Workers.ExpirySweepSchedule); err != nil {
		log.Error("failed to schedule expiry sweep", "error", err)
		stop()
		<-workerDone
		a.close()
		os.Exit(1)
	}

	go func() {
		log.Info("starting vetting service", "addr", cfg.Addr, "backends", a.String())
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	a.sweeper.Stop()
	// the worker drains what is left of the reconcile queue before returning
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn("reconcile worker did not drain before shutdown deadline")
	}
}
