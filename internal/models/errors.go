package models

import "errors"

// Ledger error taxonomy. Callers match with errors.Is; stores and the
// service wrap these with context.
var (
	ErrDuplicateAccount    = errors.New("account already exists")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidAmount       = errors.New("amount must be positive with at most two decimal places")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrSameAccountTransfer = errors.New("cannot transfer to the same account")
	ErrStorageUnavailable  = errors.New("storage unavailable")

	ErrInvalidAccountID = errors.New("account id must be positive")
	ErrInvalidOwnerName = errors.New("owner name must not be empty")
)
