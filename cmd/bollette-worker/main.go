package main

import (
	"context"
	"os"
	"time"

	"bollette/internal/cli"
	applog "bollette/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal("Configuration validation failed", err)
	}

	logger, err := cli.SetupLogger(cfg, applog.ComponentWorker)
	if err != nil {
		cli.Fatal("Invalid log configuration", err)
	}
	logger.Info("Starting bollette-worker",
		applog.FieldOperation, applog.OpStartup,
		"backend", cfg.DataBackend,
		"dedup", cfg.DedupBackend,
		"config_file", cfg.ConfigFile)

	app, err := cli.NewApp(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize engine", applog.FieldError, err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.ApplySeed(context.Background()); err != nil {
		logger.Error("Failed to apply seed file", applog.FieldError, err)
		os.Exit(1)
	}

	scheduler := app.NewScheduler()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		logger.Info("Shutting down bollette-worker...", applog.FieldOperation, applog.OpShutdown)
		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Warn("Scheduler did not stop cleanly", applog.FieldError, err)
		}
	})

	logger.WithComponent(applog.ComponentScheduler).Info("Scheduler configured",
		"interval", cfg.ReconcileInterval,
		"horizon", cfg.HorizonSize,
		"concurrency", cfg.ReconcileConcurrency)

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start scheduler", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}
