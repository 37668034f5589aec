package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"hotel-bookings/config"
	"hotel-bookings/metrics"
	"hotel-bookings/services"
	"hotel-bookings/storage"
	"hotel-bookings/utils"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to YAML configuration file")
	flag.Parse()

	os.Exit(run(configPath))
}

// run returns the process exit code so that deferred cleanup always happens
func run(configPath string) int {
	// ================== Bootstrap ====================
	logger := utils.NewLogger()
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("Failed to load config: %v", err)
		return 1
	}
	logger.SetLevel(utils.ParseLevel(cfg.Logging.Level))

	logger.Info("Hotel Booking Cancellation Analysis")
	logger.Info("Input: %s | Mode: %s | Storage: %s", cfg.Data.RawPath, cfg.Run.Mode, cfg.Storage.Driver)
	logger.Info("Lead-time buckets: %s | Breakdowns: %v", cfg.Analysis.LeadTimeBuckets, cfg.Analysis.Breakdowns)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("Failed to register metrics: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// =================== Storage ========================================
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Cannot open %s storage: %v", cfg.Storage.Driver, err)
		return 1
	}
	if store != nil {
		defer store.Close()
		if err := store.CreateTables(ctx); err != nil {
			logger.Error("Failed to create DB tables: %v", err)
			return 1
		}
	}

	// =========== Pipeline ======================
	pipeline, err := services.NewPipeline(cfg, store, os.Stdout, logger)
	if err != nil {
		logger.Error("Invalid analysis configuration: %v", err)
		return 1
	}

	limiter := utils.NewRateLimiter(cfg.Run.MinInterval)
	limiter.Wait()
	if _, err := pipeline.Run(ctx); err != nil {
		logger.Error("Analysis failed: %v", err)
		if cfg.Run.Mode == config.ModeOnce {
			return 1
		}
	}
	if cfg.Run.Mode == config.ModeOnce {
		return 0
	}

	// ==== Long-running modes ============================
	go serveMetrics(ctx, cfg.Metrics.Address, logger)

	rerun := func(reason string) {
		limiter.Wait()
		logger.Info("Re-running analysis (%s)", reason)
		if _, err := pipeline.Run(ctx); err != nil {
			logger.Error("Analysis failed: %v", err)
		}
	}

	switch cfg.Run.Mode {
	case config.ModeWatch:
		err = watchInput(ctx, cfg, rerun, logger)
	case config.ModeSchedule:
		err = runSchedule(ctx, cfg.Run.Schedule, rerun, logger)
	}
	if err != nil {
		logger.Error("%s mode stopped: %v", cfg.Run.Mode, err)
		return 1
	}
	logger.Info("Shutting down")
	return 0
}

// openStore returns nil when persistence is disabled
func openStore(ctx context.Context, cfg *config.Config, logger *utils.Logger) (storage.RateStore, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pg, err := storage.NewPostgresWriter(ctx, cfg.Storage.DatabaseURL, cfg.Storage.MaxRetries, logger)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case config.DriverSQLite:
		lite, err := storage.NewSQLiteWriter(ctx, cfg.Storage.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return lite, nil
	default:
		return nil, nil
	}
}
