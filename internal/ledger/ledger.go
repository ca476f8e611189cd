package ledger

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	interfaces "github.com/sheikh-saqib/personal-banking-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/models"
)

// Ledger enforces the banking rules and turns each request into one atomic
// unit of work on the store. It keeps no state of its own between calls, so
// any number of Ledgers may share a store.
type Ledger struct {
	store     interfaces.LedgerStore
	publisher interfaces.EventPublisher // optional
	logger    *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithPublisher announces committed changes through p.
func WithPublisher(p interfaces.EventPublisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// NewLedger creates a Ledger on top of store.
func NewLedger(store interfaces.LedgerStore, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Receipt describes a committed deposit or withdrawal.
type Receipt struct {
	Account models.Account           `json:"account"`
	Record  models.TransactionRecord `json:"record"`
}

// TransferReceipt describes a committed transfer.
type TransferReceipt struct {
	From models.Account           `json:"from"`
	To   models.Account           `json:"to"`
	Out  models.TransactionRecord `json:"out"`
	In   models.TransactionRecord `json:"in"`
}

// CreateAccount opens an account with an optional opening deposit. Store
// errors such as ErrDuplicateAccount are returned unchanged.
func (l *Ledger) CreateAccount(ctx context.Context, accountID int64, ownerName string, initialDeposit decimal.Decimal) (models.Account, error) {
	if accountID <= 0 {
		return models.Account{}, fmt.Errorf("account %d: %w", accountID, models.ErrInvalidAccountID)
	}
	ownerName = strings.TrimSpace(ownerName)
	if ownerName == "" {
		return models.Account{}, models.ErrInvalidOwnerName
	}
	if !models.ValidOpeningBalance(initialDeposit) {
		return models.Account{}, fmt.Errorf("opening deposit %s: %w", initialDeposit, models.ErrInvalidAmount)
	}

	acct, err := l.store.CreateAccount(ctx, accountID, ownerName, initialDeposit)
	if err != nil {
		l.logFailure("create account", err, "account_id", accountID)
		return models.Account{}, err
	}

	l.logger.Info("account opened", "account_id", accountID, "opening_balance", initialDeposit.StringFixed(2))
	l.publishAccountOpened(ctx, acct)
	return acct, nil
}

// Deposit adds amount to the account and records a Deposit entry.
func (l *Ledger) Deposit(ctx context.Context, accountID int64, amount decimal.Decimal) (Receipt, error) {
	return l.move(ctx, "deposit", accountID, amount, models.TypeDeposit)
}

// Withdraw removes amount from the account and records a Withdraw entry. It
// fails with ErrInsufficientFunds, changing nothing, if the balance is short.
func (l *Ledger) Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (Receipt, error) {
	return l.move(ctx, "withdraw", accountID, amount, models.TypeWithdraw)
}

// move applies a single-account balance change and its record as one unit.
// Withdrawals debit; every other type credits.
func (l *Ledger) move(ctx context.Context, op string, accountID int64, amount decimal.Decimal, typ models.TransactionType) (Receipt, error) {
	if !models.ValidAmount(amount) {
		return Receipt{}, fmt.Errorf("%s %s: %w", op, amount, models.ErrInvalidAmount)
	}
	delta := amount
	if typ == models.TypeWithdraw {
		delta = amount.Neg()
	}
	if accountID <= 0 {
		return Receipt{}, fmt.Errorf("account %d: %w", accountID, models.ErrAccountNotFound)
	}

	var receipt Receipt
	err := l.store.RunAtomic(ctx, []int64{accountID}, func(tx interfaces.LedgerTx) error {
		acct, err := tx.AdjustBalance(ctx, accountID, delta)
		if err != nil {
			return err
		}
		rec, err := tx.AppendTransaction(ctx, models.TransactionRecord{
			AccountID: accountID,
			Type:      typ,
			Amount:    amount,
		})
		if err != nil {
			return err
		}
		receipt = Receipt{Account: acct, Record: rec}
		return nil
	})
	if err != nil {
		l.logFailure(op, err, "account_id", accountID, "amount", amount.StringFixed(2))
		return Receipt{}, err
	}

	l.logger.Info(op+" committed", "account_id", accountID, "amount", amount.StringFixed(2), "transaction_id", receipt.Record.ID)
	l.publishRecords(ctx, receipt.Record)
	return receipt, nil
}

// Transfer moves amount from one account to another. The debit, the credit
// and both history records commit together or not at all.
func (l *Ledger) Transfer(ctx context.Context, fromAccountID, toAccountID int64, amount decimal.Decimal) (TransferReceipt, error) {
	if fromAccountID == toAccountID {
		return TransferReceipt{}, fmt.Errorf("account %d: %w", fromAccountID, models.ErrSameAccountTransfer)
	}
	if !models.ValidAmount(amount) {
		return TransferReceipt{}, fmt.Errorf("transfer %s: %w", amount, models.ErrInvalidAmount)
	}
	for _, id := range []int64{fromAccountID, toAccountID} {
		if id <= 0 {
			return TransferReceipt{}, fmt.Errorf("account %d: %w", id, models.ErrAccountNotFound)
		}
	}

	var receipt TransferReceipt
	err := l.store.RunAtomic(ctx, []int64{fromAccountID, toAccountID}, func(tx interfaces.LedgerTx) error {
		// Resolve the receiver before touching money so a missing receiver
		// is reported as such rather than as a short sender.
		if _, err := tx.GetAccount(ctx, toAccountID); err != nil {
			return err
		}

		from, err := tx.AdjustBalance(ctx, fromAccountID, amount.Neg())
		if err != nil {
			return err
		}
		to, err := tx.AdjustBalance(ctx, toAccountID, amount)
		if err != nil {
			return err
		}
		out, err := tx.AppendTransaction(ctx, models.TransactionRecord{
			AccountID:             fromAccountID,
			Type:                  models.TypeTransferOut,
			Amount:                amount,
			CounterpartyAccountID: models.Counterparty(toAccountID),
		})
		if err != nil {
			return err
		}
		in, err := tx.AppendTransaction(ctx, models.TransactionRecord{
			AccountID:             toAccountID,
			Type:                  models.TypeTransferIn,
			Amount:                amount,
			CounterpartyAccountID: models.Counterparty(fromAccountID),
		})
		if err != nil {
			return err
		}
		receipt = TransferReceipt{From: from, To: to, Out: out, In: in}
		return nil
	})
	if err != nil {
		l.logFailure("transfer", err, "from", fromAccountID, "to", toAccountID, "amount", amount.StringFixed(2))
		return TransferReceipt{}, err
	}

	l.logger.Info("transfer committed", "from", fromAccountID, "to", toAccountID,
		"amount", amount.StringFixed(2), "out_id", receipt.Out.ID, "in_id", receipt.In.ID)
	l.publishRecords(ctx, receipt.Out, receipt.In)
	return receipt, nil
}

// GetAccount returns the account snapshot.
func (l *Ledger) GetAccount(ctx context.Context, accountID int64) (models.Account, error) {
	if accountID <= 0 {
		return models.Account{}, fmt.Errorf("account %d: %w", accountID, models.ErrAccountNotFound)
	}
	return l.store.GetAccount(ctx, accountID)
}

// GetBalance returns the account's current balance.
func (l *Ledger) GetBalance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	acct, err := l.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return acct.Balance, nil
}

// GetOwner returns the account owner's name.
func (l *Ledger) GetOwner(ctx context.Context, accountID int64) (string, error) {
	acct, err := l.GetAccount(ctx, accountID)
	if err != nil {
		return "", err
	}
	return acct.OwnerName, nil
}

// GetHistory returns the account's records, newest first. Ranging over the
// result again re-reads the store.
func (l *Ledger) GetHistory(ctx context.Context, accountID int64) iter.Seq2[models.TransactionRecord, error] {
	if accountID <= 0 {
		return func(yield func(models.TransactionRecord, error) bool) {
			yield(models.TransactionRecord{}, fmt.Errorf("account %d: %w", accountID, models.ErrAccountNotFound))
		}
	}
	return l.store.ListTransactions(ctx, accountID)
}

// Collect drains a history sequence into a slice, stopping at the first error.
func Collect(seq iter.Seq2[models.TransactionRecord, error]) ([]models.TransactionRecord, error) {
	var out []models.TransactionRecord
	for rec, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// logFailure logs rejected requests quietly and storage trouble loudly.
func (l *Ledger) logFailure(op string, err error, attrs ...any) {
	attrs = append(attrs, "error", err)
	if errors.Is(err, models.ErrStorageUnavailable) {
		l.logger.Error(op+" failed", attrs...)
		return
	}
	l.logger.Info(op+" rejected", attrs...)
}
