package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	interfaces "github.com/sheikh-saqib/personal-banking-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/models"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/storage/sqlstore"
)

func openTestStore(t *testing.T, path string, opts ...sqlstore.Option) *sqlstore.Store {
	t.Helper()
	store, err := NewSQLiteLedgerStore(context.Background(), path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestDSN(t *testing.T) {
	dsn := DSN("/tmp/ledger.db")
	assert.Contains(t, dsn, "file:/tmp/ledger.db?")
	assert.Contains(t, dsn, "_foreign_keys=on")
	assert.Contains(t, dsn, "_journal_mode=WAL")
	assert.Contains(t, dsn, "_txlock=immediate")
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	clock := func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 600, time.FixedZone("X", 3600)) }

	store, err := NewSQLiteLedgerStore(ctx, path, sqlstore.WithClock(clock))
	require.NoError(t, err)
	_, err = store.CreateAccount(ctx, 1001, "Alice", decimal.RequireFromString("100.10"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened := openTestStore(t, path)
	acct, err := reopened.GetAccount(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, "Alice", acct.OwnerName)
	assert.Equal(t, "100.10", acct.Balance.StringFixed(2))

	var recs []models.TransactionRecord
	for rec, err := range reopened.ListTransactions(ctx, 1001) {
		require.NoError(t, err)
		recs = append(recs, rec)
	}
	require.Len(t, recs, 1)
	assert.Equal(t, models.TypeInitialDeposit, recs[0].Type)
	assert.Equal(t, time.Date(2026, 1, 2, 2, 4, 5, 0, time.UTC), recs[0].Timestamp)
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, store.Migrate(context.Background()))
	require.NoError(t, store.Ping(context.Background()))
}

func TestDuplicateAccountIsClassified(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, filepath.Join(t.TempDir(), "ledger.db"))

	_, err := store.CreateAccount(ctx, 5, "A", decimal.Zero)
	require.NoError(t, err)
	_, err = store.CreateAccount(ctx, 5, "B", decimal.Zero)
	assert.ErrorIs(t, err, models.ErrDuplicateAccount)
	assert.NotErrorIs(t, err, models.ErrStorageUnavailable)
}

func TestAdjustBalanceGuard(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, filepath.Join(t.TempDir(), "ledger.db"))
	_, err := store.CreateAccount(ctx, 1, "A", decimal.RequireFromString("3.00"))
	require.NoError(t, err)

	err = store.RunAtomic(ctx, []int64{1, 2}, func(tx interfaces.LedgerTx) error {
		_, err := tx.AdjustBalance(ctx, 2, decimal.NewFromInt(1))
		return err
	})
	assert.ErrorIs(t, err, models.ErrAccountNotFound)

	err = store.RunAtomic(ctx, []int64{1}, func(tx interfaces.LedgerTx) error {
		_, err := tx.AdjustBalance(ctx, 1, decimal.RequireFromString("-3.01"))
		return err
	})
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	acct, err := store.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "3.00", acct.Balance.StringFixed(2))
}

func TestAppendTransactionForUnknownAccount(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, filepath.Join(t.TempDir(), "ledger.db"))

	err := store.RunAtomic(ctx, []int64{9}, func(tx interfaces.LedgerTx) error {
		_, err := tx.AppendTransaction(ctx, models.TransactionRecord{
			AccountID: 9,
			Type:      models.TypeDeposit,
			Amount:    decimal.NewFromInt(1),
		})
		return err
	})
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteLedgerStore(ctx, filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.GetAccount(ctx, 1)
	assert.ErrorIs(t, err, models.ErrStorageUnavailable)
}

func TestListTransactionsNewestFirstAndRestartable(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, filepath.Join(t.TempDir(), "ledger.db"))
	_, err := store.CreateAccount(ctx, 1, "A", decimal.NewFromInt(1))
	require.NoError(t, err)

	for _, amt := range []int64{2, 3} {
		err := store.RunAtomic(ctx, []int64{1}, func(tx interfaces.LedgerTx) error {
			if _, err := tx.AdjustBalance(ctx, 1, decimal.NewFromInt(amt)); err != nil {
				return err
			}
			_, err := tx.AppendTransaction(ctx, models.TransactionRecord{AccountID: 1, Type: models.TypeDeposit, Amount: decimal.NewFromInt(amt)})
			return err
		})
		require.NoError(t, err)
	}

	seq := store.ListTransactions(ctx, 1)
	var first []string
	for rec, err := range seq {
		require.NoError(t, err)
		first = append(first, rec.Amount.StringFixed(2))
	}
	assert.Equal(t, []string{"3.00", "2.00", "1.00"}, first)

	// Stopping early must release the rows so the next write is not blocked.
	for rec, err := range seq {
		require.NoError(t, err)
		assert.Equal(t, "3.00", rec.Amount.StringFixed(2))
		break
	}
	err = store.RunAtomic(ctx, []int64{1}, func(tx interfaces.LedgerTx) error {
		if _, err := tx.AdjustBalance(ctx, 1, decimal.NewFromInt(4)); err != nil {
			return err
		}
		_, err := tx.AppendTransaction(ctx, models.TransactionRecord{AccountID: 1, Type: models.TypeDeposit, Amount: decimal.NewFromInt(4)})
		return err
	})
	require.NoError(t, err)

	// A second full range re-runs the query and sees the new record.
	var second []string
	for rec, err := range seq {
		require.NoError(t, err)
		second = append(second, rec.Amount.StringFixed(2))
	}
	assert.Equal(t, []string{"4.00", "3.00", "2.00", "1.00"}, second)
}

func TestAppendTransactionCounterpartyRule(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, filepath.Join(t.TempDir(), "ledger.db"))
	_, err := store.CreateAccount(ctx, 1, "A", decimal.NewFromInt(5))
	require.NoError(t, err)

	for _, rec := range []models.TransactionRecord{
		{AccountID: 1, Type: models.TypeTransferIn, Amount: decimal.NewFromInt(1)},
		{AccountID: 1, Type: models.TypeWithdraw, Amount: decimal.NewFromInt(1), CounterpartyAccountID: models.Counterparty(2)},
	} {
		err := store.RunAtomic(ctx, []int64{1}, func(tx interfaces.LedgerTx) error {
			_, err := tx.AppendTransaction(ctx, rec)
			return err
		})
		require.Error(t, err, rec.Type)
		assert.Contains(t, err.Error(), "counterparty")
	}
}

func TestAdjustBalanceRefusesAboveMaxBalance(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, filepath.Join(t.TempDir(), "ledger.db"))
	_, err := store.CreateAccount(ctx, 1, "A", models.MaxBalance)
	require.NoError(t, err)

	err = store.RunAtomic(ctx, []int64{1}, func(tx interfaces.LedgerTx) error {
		_, err := tx.AdjustBalance(ctx, 1, decimal.RequireFromString("0.01"))
		return err
	})
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
	assert.NotErrorIs(t, err, models.ErrStorageUnavailable)

	acct, err := store.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(models.MaxBalance))
}
