package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"github.com/mattn/go-sqlite3"

	"github.com/sheikh-saqib/personal-banking-ledger/internal/models"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/storage/sqlstore"
)

const maxOpenConns = 8

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		account_id INTEGER PRIMARY KEY CHECK (account_id > 0),
		owner_name TEXT NOT NULL CHECK (owner_name <> ''),
		balance    INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id                      INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id              INTEGER NOT NULL REFERENCES accounts (account_id),
		type                    TEXT NOT NULL CHECK (type IN ('InitialDeposit', 'Deposit', 'Withdraw', 'TransferOut', 'TransferIn')),
		amount                  INTEGER NOT NULL CHECK (amount > 0),
		counterparty_account_id INTEGER,
		date                    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS transactions_account_id_idx ON transactions (account_id, id DESC)`,
}

// Dialect is the SQLite flavour of the SQL ledger store. SQLite has a single
// writer, so every unit begins IMMEDIATE (see DSN) and units serialize on the
// database write lock instead of per-account row locks.
var Dialect = sqlstore.Dialect{
	DriverName: "sqlite3",
	Schema:     schema,
	Classify:   classify,
}

func classify(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return nil
	}
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
		return models.ErrDuplicateAccount
	case sqlite3.ErrConstraintForeignKey:
		return models.ErrAccountNotFound
	}
	return nil
}

// DSN builds a go-sqlite3 connection string for a database file with
// foreign keys on, WAL journaling and IMMEDIATE write transactions.
func DSN(path string) string {
	q := url.Values{}
	q.Set("_foreign_keys", "on")
	q.Set("_journal_mode", "WAL")
	q.Set("_busy_timeout", "10000")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

// NewSQLiteLedgerStore opens the database file at path, creating it if
// needed, and applies the ledger schema.
func NewSQLiteLedgerStore(ctx context.Context, path string, opts ...sqlstore.Option) (*sqlstore.Store, error) {
	db, err := sql.Open("sqlite3", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	// Writers queue on the database lock; keep the queue short.
	db.SetMaxOpenConns(maxOpenConns)

	store := sqlstore.New(db, Dialect, opts...)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
