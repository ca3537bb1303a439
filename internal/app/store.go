// Package app assembles the components shared by the api and worker binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mockskills/collabzone/internal/config"
	"github.com/mockskills/collabzone/internal/db"
	"github.com/mockskills/collabzone/internal/observability"
	"github.com/mockskills/collabzone/internal/repo/memory"
	"github.com/mockskills/collabzone/internal/repo/postgres"
	"github.com/mockskills/collabzone/internal/repo/sqlite"
	"github.com/mockskills/collabzone/internal/service"
)

// Store is the identity store plus readiness.
type Store interface {
	service.Store
	Ping(ctx context.Context) error
}

// OpenStore opens the configured driver. close releases it.
func OpenStore(ctx context.Context, cfg config.Config, log *slog.Logger, prom *observability.Prom) (store Store, close func(), err error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DBURL, cfg.DB.MaxConns)
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("db migrate: %w", err)
		}
		log.Info("store ready", "driver", cfg.StoreDriver)
		return postgres.NewRegistrationsRepo(pool, prom), pool.Close, nil

	case config.DriverSQLite:
		repo, err := sqlite.Open(cfg.SQLitePath, prom)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite open: %w", err)
		}
		log.Info("store ready", "driver", cfg.StoreDriver, "path", cfg.SQLitePath)
		return repo, func() { _ = repo.Close() }, nil

	case config.DriverMemory:
		log.Warn("using in-memory store; data is lost on restart")
		return memory.NewRegistrationsRepo(), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
