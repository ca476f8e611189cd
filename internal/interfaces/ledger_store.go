package interfaces

import (
	"context"
	"iter"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/personal-banking-ledger/internal/models"
)

// UnitOfWork is a group of store mutations that commit or roll back together.
type UnitOfWork func(tx LedgerTx) error

// LedgerStore owns all persisted ledger state.
type LedgerStore interface {
	// CreateAccount persists a new account and, for a positive opening
	// balance, its InitialDeposit record, in one atomic unit.
	CreateAccount(ctx context.Context, accountID int64, ownerName string, initialBalance decimal.Decimal) (models.Account, error)
	GetAccount(ctx context.Context, accountID int64) (models.Account, error)
	// ListTransactions yields an account's history newest first. Every range
	// over the returned sequence re-runs the query.
	ListTransactions(ctx context.Context, accountID int64) iter.Seq2[models.TransactionRecord, error]
	// RunAtomic locks accountIDs in ascending order and runs unit. Either all
	// of the unit's effects become visible together or none do.
	RunAtomic(ctx context.Context, accountIDs []int64, unit UnitOfWork) error
	Close() error
}

// LedgerTx is the view of the store inside a RunAtomic unit. Only the
// accounts passed to RunAtomic may be touched.
type LedgerTx interface {
	CreateAccount(ctx context.Context, accountID int64, ownerName string, initialBalance decimal.Decimal) (models.Account, error)
	GetAccount(ctx context.Context, accountID int64) (models.Account, error)
	// AdjustBalance applies balance += delta as one conditional write. It
	// fails with ErrInsufficientFunds instead of going negative.
	AdjustBalance(ctx context.Context, accountID int64, delta decimal.Decimal) (models.Account, error)
	// AppendTransaction assigns the record's ID and Timestamp and appends it.
	AppendTransaction(ctx context.Context, record models.TransactionRecord) (models.TransactionRecord, error)
}
