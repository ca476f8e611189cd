package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sheikh-saqib/personal-banking-ledger/internal/config"
	interfaces "github.com/sheikh-saqib/personal-banking-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/storage/postgres"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/storage/sqlite"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/storage/sqlstore"
)

// Open returns the ledger store selected by cfg. The caller owns the store
// and must Close it.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (interfaces.LedgerStore, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewMemoryLedgerStore(memory.WithLogger(logger)), nil

	case config.DriverSQLite:
		store, err := sqlite.NewSQLiteLedgerStore(ctx, cfg.Path, sqlstore.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.DriverPostgres:
		store, err := postgres.NewPostgresLedgerStore(ctx, cfg.DSN, sqlstore.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := store.Migrate(ctx); err != nil {
				store.Close()
				return nil, err
			}
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// Migrator is implemented by stores with a schema to create.
type Migrator interface {
	Migrate(ctx context.Context) error
}
