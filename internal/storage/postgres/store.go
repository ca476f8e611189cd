package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/sheikh-saqib/personal-banking-ledger/internal/models"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/storage/sqlstore"
)

// Postgres SQLSTATE codes the ledger cares about.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		account_id BIGINT PRIMARY KEY CHECK (account_id > 0),
		owner_name TEXT NOT NULL CHECK (owner_name <> ''),
		balance    BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id                      BIGSERIAL PRIMARY KEY,
		account_id              BIGINT NOT NULL REFERENCES accounts (account_id),
		type                    TEXT NOT NULL CHECK (type IN ('InitialDeposit', 'Deposit', 'Withdraw', 'TransferOut', 'TransferIn')),
		amount                  BIGINT NOT NULL CHECK (amount > 0),
		counterparty_account_id BIGINT,
		date                    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS transactions_account_id_idx ON transactions (account_id, id DESC)`,
}

// Dialect is the Postgres flavour of the SQL ledger store. Accounts are
// row-locked in ascending id order, so units on disjoint accounts run in
// parallel and units sharing an account queue behind each other.
var Dialect = sqlstore.Dialect{
	DriverName:  "postgres",
	Schema:      schema,
	LockAccount: `SELECT account_id FROM accounts WHERE account_id = ? FOR UPDATE`,
	TxOptions:   &sql.TxOptions{Isolation: sql.LevelReadCommitted},
	Classify:    classify,
}

func classify(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}
	switch pqErr.Code {
	case uniqueViolation:
		return models.ErrDuplicateAccount
	case foreignKeyViolation:
		return models.ErrAccountNotFound
	}
	return nil
}

// NewPostgresLedgerStore opens and pings a Postgres database and returns a
// ledger store on top of it.
func NewPostgresLedgerStore(ctx context.Context, dsn string, opts ...sqlstore.Option) (*sqlstore.Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)

	store := sqlstore.New(db, Dialect, opts...)
	if err := store.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
