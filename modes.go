package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"hotel-bookings/config"
	"hotel-bookings/storage"
	"hotel-bookings/utils"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron"
)

// watchInput re-runs the analysis whenever the raw CSV changes
func watchInput(ctx context.Context, cfg *config.Config, rerun func(string), logger *utils.Logger) error {
	monitor, err := storage.NewFileMonitor(cfg.Data.RawPath, cfg.Run.MinInterval, logger)
	if err != nil {
		return err
	}
	logger.Info("Watching %s for changes, press Ctrl+C to exit", cfg.Data.RawPath)
	return monitor.Watch(ctx, func(path string) {
		rerun("changed: " + path)
	})
}

// runSchedule re-runs the analysis on a cron spec such as "@every 1h"
func runSchedule(ctx context.Context, spec string, rerun func(string), logger *utils.Logger) error {
	c := cron.New()
	if err := c.AddFunc(spec, func() { rerun("schedule " + spec) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	c.Start()
	defer c.Stop()

	logger.Info("Scheduled analysis (%s), press Ctrl+C to exit", spec)
	<-ctx.Done()
	return nil
}

func serveMetrics(ctx context.Context, addr string, logger *utils.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Serving metrics on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Metrics server failed: %v", err)
	}
}
