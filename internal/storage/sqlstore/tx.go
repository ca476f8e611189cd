package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	interfaces "github.com/sheikh-saqib/personal-banking-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/models"
)

const (
	insertAccount = `INSERT INTO accounts (account_id, owner_name, balance) VALUES (?, ?, ?)`

	// The guard makes the balance check and the write one statement, so a
	// concurrent unit can never have validated against a stale balance.
	adjustBalance = `UPDATE accounts
		SET balance = balance + ?
		WHERE account_id = ? AND balance + ? >= 0
		RETURNING account_id, owner_name, balance`

	insertTransaction = `INSERT INTO transactions (account_id, type, amount, counterparty_account_id, date)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`
)

type sqlTx struct {
	store  *Store
	tx     *sqlx.Tx
	locked map[int64]bool
}

func (t *sqlTx) checkLocked(accountID int64) error {
	if !t.locked[accountID] {
		return fmt.Errorf("account %d is not locked by this unit", accountID)
	}
	return nil
}

func (t *sqlTx) CreateAccount(ctx context.Context, accountID int64, ownerName string, initialBalance decimal.Decimal) (models.Account, error) {
	if err := t.checkLocked(accountID); err != nil {
		return models.Account{}, err
	}
	if initialBalance.IsNegative() {
		return models.Account{}, fmt.Errorf("opening balance %s: %w", initialBalance, models.ErrInvalidAmount)
	}
	cents, err := toCents(initialBalance)
	if err != nil {
		return models.Account{}, err
	}

	if _, err := t.tx.ExecContext(ctx, t.tx.Rebind(insertAccount), accountID, ownerName, cents); err != nil {
		return models.Account{}, fmt.Errorf("account %d: %w", accountID, t.store.storageErr("create account", err))
	}

	if initialBalance.IsPositive() {
		if _, err := t.AppendTransaction(ctx, models.TransactionRecord{
			AccountID: accountID,
			Type:      models.TypeInitialDeposit,
			Amount:    initialBalance,
		}); err != nil {
			return models.Account{}, err
		}
	}
	return models.Account{AccountID: accountID, OwnerName: ownerName, Balance: fromCents(cents)}, nil
}

func (t *sqlTx) GetAccount(ctx context.Context, accountID int64) (models.Account, error) {
	if err := t.checkLocked(accountID); err != nil {
		return models.Account{}, err
	}
	return getAccount(ctx, t.store, t.tx, accountID)
}

func (t *sqlTx) AdjustBalance(ctx context.Context, accountID int64, delta decimal.Decimal) (models.Account, error) {
	if err := t.checkLocked(accountID); err != nil {
		return models.Account{}, err
	}
	cents, err := toCents(delta)
	if err != nil {
		return models.Account{}, err
	}

	// Credits are bounded by what a BIGINT balance can hold. The account is
	// locked for this unit, so the balance read here is the one updated below.
	if delta.IsPositive() {
		current, err := getAccount(ctx, t.store, t.tx, accountID)
		if err != nil {
			return models.Account{}, err
		}
		if models.ExceedsMaxBalance(current.Balance, delta) {
			return models.Account{}, fmt.Errorf("account %d balance %s, delta %s exceeds %s: %w",
				accountID, current.Balance.StringFixed(2), delta.StringFixed(2), models.MaxBalance.StringFixed(2), models.ErrInvalidAmount)
		}
	}

	var row accountRow
	err = t.tx.GetContext(ctx, &row, t.tx.Rebind(adjustBalance), cents, accountID, cents)
	if err == nil {
		return row.model(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, t.store.storageErr("adjust balance", err)
	}

	// No row matched: either the account is gone or the guard refused.
	current, err := getAccount(ctx, t.store, t.tx, accountID)
	if err != nil {
		return models.Account{}, err
	}
	return models.Account{}, fmt.Errorf("account %d balance %s, delta %s: %w",
		accountID, current.Balance.StringFixed(2), delta.StringFixed(2), models.ErrInsufficientFunds)
}

func (t *sqlTx) AppendTransaction(ctx context.Context, record models.TransactionRecord) (models.TransactionRecord, error) {
	if err := t.checkLocked(record.AccountID); err != nil {
		return models.TransactionRecord{}, err
	}
	if err := record.Validate(); err != nil {
		return models.TransactionRecord{}, err
	}
	cents, err := toCents(record.Amount)
	if err != nil {
		return models.TransactionRecord{}, err
	}

	var counterparty sql.NullInt64
	if record.CounterpartyAccountID != nil {
		counterparty = sql.NullInt64{Int64: *record.CounterpartyAccountID, Valid: true}
	}
	record.Timestamp = t.store.now().UTC().Truncate(time.Second)

	err = t.tx.GetContext(ctx, &record.ID, t.tx.Rebind(insertTransaction),
		record.AccountID, string(record.Type), cents, counterparty, record.Timestamp.Format(models.TimestampLayout))
	if err != nil {
		return models.TransactionRecord{}, fmt.Errorf("account %d: %w", record.AccountID, t.store.storageErr("append transaction", err))
	}
	return record, nil
}

var _ interfaces.LedgerTx = (*sqlTx)(nil)
