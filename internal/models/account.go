package models

import (
	"github.com/shopspring/decimal"
)

// Account is a snapshot of a single bank account
type Account struct {
	AccountID int64           `json:"account_id"`
	OwnerName string          `json:"owner_name"`
	Balance   decimal.Decimal `json:"balance"` // never negative once committed
}
