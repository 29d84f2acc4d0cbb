// Package storage opens the store.Store backend selected by configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/hifz/internal/config"
	"github.com/phrazzld/hifz/internal/platform/badger"
	"github.com/phrazzld/hifz/internal/platform/memory"
	"github.com/phrazzld/hifz/internal/platform/postgres"
	"github.com/phrazzld/hifz/internal/platform/sqlite"
	"github.com/phrazzld/hifz/internal/store"
)

// Open returns the backend named by cfg.Driver. PostgreSQL schemas are
// managed by goose migrations and must already be applied; SQLite and
// Badger create what they need on open.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (store.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Driver {
	case config.DriverMemory, "":
		logger.Warn("using in-memory store, data will not survive a restart")
		return memory.NewStore(logger), nil

	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		return postgres.NewStore(db, logger), nil

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("sqlite store opened", slog.String("path", cfg.SQLitePath))
		return sqlite.NewStore(db, logger), nil

	case config.DriverBadger:
		bcfg := badger.DefaultConfig(cfg.BadgerPath)
		bcfg.Logger = logger
		s, err := badger.NewStore(bcfg)
		if err != nil {
			return nil, err
		}
		logger.Info("badger store opened", slog.String("path", cfg.BadgerPath))
		return s, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
