package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/personal-banking-ledger/internal/config"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/logging"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/storage/sqlstore"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	mem, err := Open(ctx, config.StorageConfig{Driver: config.DriverMemory}, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &memory.MemoryLedgerStore{}, mem)
	_, isMigrator := mem.(Migrator)
	assert.False(t, isMigrator)

	lite, err := Open(ctx, config.StorageConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "ledger.db"),
	}, logging.Discard())
	require.NoError(t, err)
	defer lite.Close()
	assert.IsType(t, &sqlstore.Store{}, lite)
	_, isMigrator = lite.(Migrator)
	assert.True(t, isMigrator)

	_, err = Open(ctx, config.StorageConfig{Driver: "csv"}, logging.Discard())
	assert.Error(t, err)
}
