package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/hifz/internal/config"
	"github.com/phrazzld/hifz/internal/metrics"
	"github.com/phrazzld/hifz/internal/platform/storage"
	"github.com/phrazzld/hifz/internal/reminder"
	"github.com/phrazzld/hifz/internal/service/memorization"
	"github.com/phrazzld/hifz/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// application holds the shared dependencies so they can be torn down
// together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	store    store.Store
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	memorizationService memorization.Service
	reminders           *reminder.Scheduler
}

// newApplication opens the configured store and assembles the services.
// The reminder scheduler is created but not started.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(app.registry)

	var err error
	app.store, err = storage.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}

	svcCfg, err := memorization.ConfigFromEngine(cfg.Engine, app.metrics)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("invalid engine configuration: %w", err)
	}
	app.memorizationService, err = memorization.NewService(app.store, svcCfg, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create memorization service: %w", err)
	}

	if cfg.Reminders.Enabled {
		app.reminders = reminder.New(
			app.store.Memorization(),
			app.memorizationService,
			reminder.NewLogNotifier(logger),
			cfg.Reminders,
			logger,
		)
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// Run starts background jobs and serves HTTP until a shutdown signal or
// ctx cancellation.
func (app *application) Run(ctx context.Context) error {
	if app.reminders != nil {
		if err := app.reminders.Start(); err != nil {
			app.cleanup()
			return fmt.Errorf("failed to start reminders: %w", err)
		}
	}

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops background jobs and closes the store.
func (app *application) cleanup() {
	if app.reminders != nil {
		app.reminders.Stop()
	}
	if app.store != nil {
		if err := app.store.Close(); err != nil {
			app.logger.Error("error closing store", slog.String("error", err.Error()))
		}
	}
	app.logger.Info("application shutdown completed")
}
