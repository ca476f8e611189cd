package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	interfaces "github.com/sheikh-saqib/personal-banking-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/models"
)

const (
	selectAccount = `SELECT account_id, owner_name, balance FROM accounts WHERE account_id = ?`

	selectHistory = `SELECT id, account_id, type, amount, counterparty_account_id, date
		FROM transactions
		WHERE account_id = ?
		ORDER BY id DESC`
)

type accountRow struct {
	AccountID int64  `db:"account_id"`
	OwnerName string `db:"owner_name"`
	Balance   int64  `db:"balance"`
}

func (r accountRow) model() models.Account {
	return models.Account{AccountID: r.AccountID, OwnerName: r.OwnerName, Balance: fromCents(r.Balance)}
}

type transactionRow struct {
	ID           int64         `db:"id"`
	AccountID    int64         `db:"account_id"`
	Type         string        `db:"type"`
	Amount       int64         `db:"amount"`
	Counterparty sql.NullInt64 `db:"counterparty_account_id"`
	Date         string        `db:"date"`
}

func (r transactionRow) model() (models.TransactionRecord, error) {
	ts, err := time.ParseInLocation(models.TimestampLayout, r.Date, time.UTC)
	if err != nil {
		return models.TransactionRecord{}, fmt.Errorf("transaction %d: parsing date %q: %w", r.ID, r.Date, err)
	}
	rec := models.TransactionRecord{
		ID:        r.ID,
		AccountID: r.AccountID,
		Type:      models.TransactionType(r.Type),
		Amount:    fromCents(r.Amount),
		Timestamp: ts,
	}
	if r.Counterparty.Valid {
		rec.CounterpartyAccountID = models.Counterparty(r.Counterparty.Int64)
	}
	return rec, nil
}

// Store is a database/sql implementation of interfaces.LedgerStore.
type Store struct {
	db      *sqlx.DB
	dialect Dialect
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to stamp appended records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for rollback diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New wraps an open database handle. The caller hands ownership of db to the
// Store; Close closes it.
func New(db *sql.DB, dialect Dialect, opts ...Option) *Store {
	s := &Store{
		db:      sqlx.NewDb(db, dialect.DriverName),
		dialect: dialect,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates the ledger tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.Schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return s.storageErr("migrate", err)
		}
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return s.storageErr("ping", err)
	}
	return nil
}

// RunAtomic implements interfaces.LedgerStore.
func (s *Store) RunAtomic(ctx context.Context, accountIDs []int64, unit interfaces.UnitOfWork) (err error) {
	dbTx, err := s.db.BeginTxx(ctx, s.dialect.TxOptions)
	if err != nil {
		return s.storageErr("begin", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := dbTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Error("rollback failed", "error", rbErr, "cause", err)
			err = errors.Join(err, fmt.Errorf("rollback: %w: %w", models.ErrStorageUnavailable, rbErr))
		}
	}()

	ids := slices.Clone(accountIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	if s.dialect.LockAccount != "" {
		lock := dbTx.Rebind(s.dialect.LockAccount)
		for _, id := range ids {
			if _, err = dbTx.ExecContext(ctx, lock, id); err != nil {
				return s.storageErr("lock account", err)
			}
		}
	}

	tx := &sqlTx{store: s, tx: dbTx, locked: make(map[int64]bool, len(ids))}
	for _, id := range ids {
		tx.locked[id] = true
	}

	if err = unit(tx); err != nil {
		return err
	}
	if err = dbTx.Commit(); err != nil {
		return s.storageErr("commit", err)
	}
	committed = true
	return nil
}

// CreateAccount implements interfaces.LedgerStore.
func (s *Store) CreateAccount(ctx context.Context, accountID int64, ownerName string, initialBalance decimal.Decimal) (models.Account, error) {
	var created models.Account
	err := s.RunAtomic(ctx, []int64{accountID}, func(tx interfaces.LedgerTx) error {
		var err error
		created, err = tx.CreateAccount(ctx, accountID, ownerName, initialBalance)
		return err
	})
	if err != nil {
		return models.Account{}, err
	}
	return created, nil
}

// GetAccount implements interfaces.LedgerStore.
func (s *Store) GetAccount(ctx context.Context, accountID int64) (models.Account, error) {
	return getAccount(ctx, s, s.db, accountID)
}

// ListTransactions implements interfaces.LedgerStore. Each range over the
// sequence runs a fresh query and streams rows as they are consumed.
func (s *Store) ListTransactions(ctx context.Context, accountID int64) iter.Seq2[models.TransactionRecord, error] {
	return func(yield func(models.TransactionRecord, error) bool) {
		if _, err := s.GetAccount(ctx, accountID); err != nil {
			yield(models.TransactionRecord{}, err)
			return
		}

		rows, err := s.db.QueryxContext(ctx, s.db.Rebind(selectHistory), accountID)
		if err != nil {
			yield(models.TransactionRecord{}, s.storageErr("list transactions", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var row transactionRow
			if err := rows.StructScan(&row); err != nil {
				yield(models.TransactionRecord{}, s.storageErr("scan transaction", err))
				return
			}
			rec, err := row.model()
			if err != nil {
				yield(models.TransactionRecord{}, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.TransactionRecord{}, s.storageErr("list transactions", err))
		}
	}
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// storageErr wraps a driver failure so it matches both the driver error and
// ErrStorageUnavailable, unless the dialect recognises it as a ledger error.
func (s *Store) storageErr(op string, err error) error {
	if s.dialect.Classify != nil {
		if sentinel := s.dialect.Classify(err); sentinel != nil {
			return fmt.Errorf("%s: %w", op, sentinel)
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, models.ErrStorageUnavailable, err)
}

func getAccount(ctx context.Context, s *Store, q sqlx.QueryerContext, accountID int64) (models.Account, error) {
	var row accountRow
	err := sqlx.GetContext(ctx, q, &row, s.db.Rebind(selectAccount), accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, fmt.Errorf("account %d: %w", accountID, models.ErrAccountNotFound)
	}
	if err != nil {
		return models.Account{}, s.storageErr("get account", err)
	}
	return row.model(), nil
}

var _ interfaces.LedgerStore = (*Store)(nil)
