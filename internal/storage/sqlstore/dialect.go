package sqlstore

import "database/sql"

// Dialect carries what differs between the SQL backends. Queries in this
// package are written with '?' placeholders and rebound per driver.
type Dialect struct {
	// DriverName is the database/sql driver the store is opened with.
	DriverName string
	// Schema is executed statement by statement by Migrate; it must be idempotent.
	Schema []string
	// LockAccount, when set, is executed once per account id, in ascending
	// id order, at the start of every unit of work.
	LockAccount string
	// TxOptions is passed to BeginTx.
	TxOptions *sql.TxOptions
	// Classify maps a driver error to a ledger sentinel
	// (ErrDuplicateAccount, ErrAccountNotFound) or returns nil.
	Classify func(err error) error
}
