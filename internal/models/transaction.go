package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the persisted form of TransactionRecord.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// TransactionType classifies a history entry.
type TransactionType string

const (
	TypeInitialDeposit TransactionType = "InitialDeposit"
	TypeDeposit        TransactionType = "Deposit"
	TypeWithdraw       TransactionType = "Withdraw"
	TypeTransferOut    TransactionType = "TransferOut"
	TypeTransferIn     TransactionType = "TransferIn"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeInitialDeposit, TypeDeposit, TypeWithdraw, TypeTransferOut, TypeTransferIn:
		return true
	}
	return false
}

// IsTransfer reports whether records of this type carry a counterparty.
func (t TransactionType) IsTransfer() bool {
	return t == TypeTransferOut || t == TypeTransferIn
}

// TransactionRecord is one immutable row of an account's history.
// ID and Timestamp are assigned by the store when the record is appended.
type TransactionRecord struct {
	ID                    int64           `json:"id"`
	AccountID             int64           `json:"account_id"`
	Type                  TransactionType `json:"type"`
	Amount                decimal.Decimal `json:"amount"`
	CounterpartyAccountID *int64          `json:"counterparty_account_id,omitempty"` // transfers only
	Timestamp             time.Time       `json:"timestamp"`
}

// String renders the record the way the history screen lists it,
// e.g. "TransferOut 20.00 -> 1002".
func (r TransactionRecord) String() string {
	s := fmt.Sprintf("%s %s", r.Type, r.Amount.StringFixed(2))
	if r.CounterpartyAccountID == nil {
		return s
	}
	switch r.Type {
	case TypeTransferOut:
		return fmt.Sprintf("%s -> %d", s, *r.CounterpartyAccountID)
	case TypeTransferIn:
		return fmt.Sprintf("%s <- %d", s, *r.CounterpartyAccountID)
	}
	return s
}

// Validate checks the fields a caller supplies before the record is
// appended. Transfer records must name a counterparty; no other record may.
func (r TransactionRecord) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("unknown transaction type %q", r.Type)
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("record amount %s: %w", r.Amount, ErrInvalidAmount)
	}
	switch {
	case r.Type.IsTransfer() && r.CounterpartyAccountID == nil:
		return fmt.Errorf("%s record for account %d has no counterparty", r.Type, r.AccountID)
	case !r.Type.IsTransfer() && r.CounterpartyAccountID != nil:
		return fmt.Errorf("%s record for account %d must not have a counterparty", r.Type, r.AccountID)
	}
	return nil
}

// Counterparty returns a pointer suitable for CounterpartyAccountID.
func Counterparty(accountID int64) *int64 {
	return &accountID
}
