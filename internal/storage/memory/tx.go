package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	interfaces "github.com/sheikh-saqib/personal-banking-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/models"
)

// memoryTx stages the effects of one unit of work.
type memoryTx struct {
	store    *MemoryLedgerStore
	locked   map[int64]bool
	accounts map[int64]models.Account // staged snapshots, overlay on committed state
	records  []models.TransactionRecord
}

func (tx *memoryTx) checkLocked(accountID int64) error {
	if !tx.locked[accountID] {
		return fmt.Errorf("account %d is not locked by this unit", accountID)
	}
	return nil
}

func (tx *memoryTx) lookup(accountID int64) (models.Account, bool) {
	if acct, ok := tx.accounts[accountID]; ok {
		return acct, true
	}
	return tx.store.committedAccount(accountID)
}

func (tx *memoryTx) CreateAccount(ctx context.Context, accountID int64, ownerName string, initialBalance decimal.Decimal) (models.Account, error) {
	if err := tx.checkLocked(accountID); err != nil {
		return models.Account{}, err
	}
	if _, exists := tx.lookup(accountID); exists {
		return models.Account{}, fmt.Errorf("account %d: %w", accountID, models.ErrDuplicateAccount)
	}
	if initialBalance.IsNegative() {
		return models.Account{}, fmt.Errorf("opening balance %s: %w", initialBalance, models.ErrInvalidAmount)
	}

	acct := models.Account{AccountID: accountID, OwnerName: ownerName, Balance: initialBalance}
	tx.accounts[accountID] = acct

	if initialBalance.IsPositive() {
		if _, err := tx.AppendTransaction(ctx, models.TransactionRecord{
			AccountID: accountID,
			Type:      models.TypeInitialDeposit,
			Amount:    initialBalance,
		}); err != nil {
			return models.Account{}, err
		}
	}
	return acct, nil
}

func (tx *memoryTx) GetAccount(_ context.Context, accountID int64) (models.Account, error) {
	if err := tx.checkLocked(accountID); err != nil {
		return models.Account{}, err
	}
	acct, ok := tx.lookup(accountID)
	if !ok {
		return models.Account{}, fmt.Errorf("account %d: %w", accountID, models.ErrAccountNotFound)
	}
	return acct, nil
}

func (tx *memoryTx) AdjustBalance(_ context.Context, accountID int64, delta decimal.Decimal) (models.Account, error) {
	if err := tx.checkLocked(accountID); err != nil {
		return models.Account{}, err
	}
	acct, ok := tx.lookup(accountID)
	if !ok {
		return models.Account{}, fmt.Errorf("account %d: %w", accountID, models.ErrAccountNotFound)
	}

	if models.ExceedsMaxBalance(acct.Balance, delta) {
		return models.Account{}, fmt.Errorf("account %d balance %s, delta %s exceeds %s: %w",
			accountID, acct.Balance.StringFixed(2), delta.StringFixed(2), models.MaxBalance.StringFixed(2), models.ErrInvalidAmount)
	}
	next := acct.Balance.Add(delta)
	if next.IsNegative() {
		return models.Account{}, fmt.Errorf("account %d balance %s, delta %s: %w",
			accountID, acct.Balance.StringFixed(2), delta.StringFixed(2), models.ErrInsufficientFunds)
	}
	acct.Balance = next
	tx.accounts[accountID] = acct
	return acct, nil
}

func (tx *memoryTx) AppendTransaction(_ context.Context, record models.TransactionRecord) (models.TransactionRecord, error) {
	if err := tx.checkLocked(record.AccountID); err != nil {
		return models.TransactionRecord{}, err
	}
	if _, ok := tx.lookup(record.AccountID); !ok {
		return models.TransactionRecord{}, fmt.Errorf("account %d: %w", record.AccountID, models.ErrAccountNotFound)
	}
	if err := record.Validate(); err != nil {
		return models.TransactionRecord{}, err
	}

	record.ID = tx.store.assignID()
	record.Timestamp = tx.store.now().UTC().Truncate(time.Second)
	tx.records = append(tx.records, record)
	return record, nil
}

var _ interfaces.LedgerTx = (*memoryTx)(nil)
