package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	interfaces "github.com/sheikh-saqib/personal-banking-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/models"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fixedClock() func() time.Time {
	ts := time.Date(2026, 3, 1, 9, 30, 15, 999, time.UTC)
	return func() time.Time { return ts }
}

func collect(t *testing.T, m *MemoryLedgerStore, id int64) []models.TransactionRecord {
	t.Helper()
	var out []models.TransactionRecord
	for rec, err := range m.ListTransactions(context.Background(), id) {
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

func TestCreateAccount(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLedgerStore(WithClock(fixedClock()))

	acct, err := m.CreateAccount(ctx, 1001, "Alice", d("100"))
	require.NoError(t, err)
	assert.Equal(t, int64(1001), acct.AccountID)
	assert.True(t, acct.Balance.Equal(d("100")))

	recs := collect(t, m, 1001)
	require.Len(t, recs, 1)
	assert.Equal(t, models.TypeInitialDeposit, recs[0].Type)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 30, 15, 0, time.UTC), recs[0].Timestamp)

	_, err = m.CreateAccount(ctx, 1001, "Mallory", decimal.Zero)
	assert.ErrorIs(t, err, models.ErrDuplicateAccount)

	got, err := m.GetAccount(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.OwnerName, "duplicate create must not overwrite")
}

func TestCreateAccountZeroBalanceHasNoHistory(t *testing.T) {
	m := NewMemoryLedgerStore()
	_, err := m.CreateAccount(context.Background(), 7, "Zed", decimal.Zero)
	require.NoError(t, err)
	assert.Empty(t, collect(t, m, 7))
}

func TestGetAccountNotFound(t *testing.T) {
	m := NewMemoryLedgerStore()
	_, err := m.GetAccount(context.Background(), 42)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)

	for _, err := range m.ListTransactions(context.Background(), 42) {
		assert.ErrorIs(t, err, models.ErrAccountNotFound)
	}
}

func TestAdjustBalanceRefusesOverdraft(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLedgerStore()
	_, err := m.CreateAccount(ctx, 1, "A", d("10"))
	require.NoError(t, err)

	err = m.RunAtomic(ctx, []int64{1}, func(tx interfaces.LedgerTx) error {
		_, err := tx.AdjustBalance(ctx, 1, d("-10.01"))
		return err
	})
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	err = m.RunAtomic(ctx, []int64{1}, func(tx interfaces.LedgerTx) error {
		acct, err := tx.AdjustBalance(ctx, 1, d("-10"))
		if err != nil {
			return err
		}
		assert.True(t, acct.Balance.IsZero())
		return nil
	})
	require.NoError(t, err)
}

func TestRunAtomicRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLedgerStore()
	_, err := m.CreateAccount(ctx, 1, "A", d("50"))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = m.RunAtomic(ctx, []int64{1}, func(tx interfaces.LedgerTx) error {
		if _, err := tx.AdjustBalance(ctx, 1, d("25")); err != nil {
			return err
		}
		if _, err := tx.AppendTransaction(ctx, models.TransactionRecord{AccountID: 1, Type: models.TypeDeposit, Amount: d("25")}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	acct, err := m.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(d("50")))
	assert.Len(t, collect(t, m, 1), 1)
}

func TestRunAtomicRejectsUnlockedAccounts(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLedgerStore()
	_, err := m.CreateAccount(ctx, 1, "A", d("5"))
	require.NoError(t, err)
	_, err = m.CreateAccount(ctx, 2, "B", d("5"))
	require.NoError(t, err)

	err = m.RunAtomic(ctx, []int64{1}, func(tx interfaces.LedgerTx) error {
		_, err := tx.AdjustBalance(ctx, 2, d("1"))
		return err
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not locked")
}

func TestRunAtomicCanceledContext(t *testing.T) {
	m := NewMemoryLedgerStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := m.RunAtomic(ctx, []int64{1}, func(tx interfaces.LedgerTx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestListTransactionsNewestFirstAndRestartable(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLedgerStore()
	_, err := m.CreateAccount(ctx, 1, "A", d("1"))
	require.NoError(t, err)

	for _, amt := range []string{"2", "3"} {
		err := m.RunAtomic(ctx, []int64{1}, func(tx interfaces.LedgerTx) error {
			if _, err := tx.AdjustBalance(ctx, 1, d(amt)); err != nil {
				return err
			}
			_, err := tx.AppendTransaction(ctx, models.TransactionRecord{AccountID: 1, Type: models.TypeDeposit, Amount: d(amt)})
			return err
		})
		require.NoError(t, err)
	}

	seq := m.ListTransactions(ctx, 1)
	var first []string
	for rec, err := range seq {
		require.NoError(t, err)
		first = append(first, rec.Amount.String())
	}
	assert.Equal(t, []string{"3", "2", "1"}, first)

	// Early stop, then a full second pass over the same sequence.
	for rec, err := range seq {
		require.NoError(t, err)
		assert.Equal(t, "3", rec.Amount.String())
		break
	}
	n := 0
	for _, err := range seq {
		require.NoError(t, err)
		n++
	}
	assert.Equal(t, 3, n)
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLedgerStore()
	_, err := m.CreateAccount(ctx, 1, "A", d("1"))
	require.NoError(t, err)
	require.NoError(t, m.Close())

	_, err = m.GetAccount(ctx, 1)
	assert.ErrorIs(t, err, models.ErrStorageUnavailable)
	_, err = m.CreateAccount(ctx, 2, "B", decimal.Zero)
	assert.ErrorIs(t, err, models.ErrStorageUnavailable)
}

func TestLockOrder(t *testing.T) {
	assert.Equal(t, []int64{1, 5, 9}, lockOrder([]int64{9, 1, 5, 1}))
}

func lockTableSize(m *MemoryLedgerStore) int {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()
	return len(m.locks)
}

func TestLockTableDrainsAfterUnits(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLedgerStore()
	_, err := m.CreateAccount(ctx, 1, "A", d("5"))
	require.NoError(t, err)

	for id := int64(999_000); id < 999_100; id++ {
		err := m.RunAtomic(ctx, []int64{id}, func(tx interfaces.LedgerTx) error {
			_, err := tx.AdjustBalance(ctx, id, d("1"))
			return err
		})
		require.ErrorIs(t, err, models.ErrAccountNotFound)
	}

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.RunAtomic(ctx, []int64{1, 2}, func(tx interfaces.LedgerTx) error {
				_, err := tx.AdjustBalance(ctx, 1, d("1"))
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Zero(t, lockTableSize(m))
	acct, err := m.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "55.00", acct.Balance.StringFixed(2))
}

func TestAppendTransactionCounterpartyRule(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLedgerStore()
	_, err := m.CreateAccount(ctx, 1, "A", d("5"))
	require.NoError(t, err)

	tests := []struct {
		name string
		rec  models.TransactionRecord
	}{
		{"transfer without counterparty", models.TransactionRecord{AccountID: 1, Type: models.TypeTransferOut, Amount: d("1")}},
		{"deposit with counterparty", models.TransactionRecord{AccountID: 1, Type: models.TypeDeposit, Amount: d("1"), CounterpartyAccountID: models.Counterparty(2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.RunAtomic(ctx, []int64{1}, func(tx interfaces.LedgerTx) error {
				_, err := tx.AppendTransaction(ctx, tt.rec)
				return err
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "counterparty")
		})
	}
	assert.Len(t, collect(t, m, 1), 1)
}

func TestAdjustBalanceRefusesAboveMaxBalance(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLedgerStore()
	_, err := m.CreateAccount(ctx, 1, "A", models.MaxBalance)
	require.NoError(t, err)

	err = m.RunAtomic(ctx, []int64{1}, func(tx interfaces.LedgerTx) error {
		_, err := tx.AdjustBalance(ctx, 1, d("0.01"))
		return err
	})
	assert.ErrorIs(t, err, models.ErrInvalidAmount)

	acct, err := m.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(models.MaxBalance))
}
