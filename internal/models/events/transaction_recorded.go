package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecorded is published once per committed history record.
type TransactionRecorded struct {
	EventID               string          `json:"event_id"`
	TransactionID         int64           `json:"transaction_id"`
	AccountID             int64           `json:"account_id"`
	Type                  string          `json:"type"`
	Amount                decimal.Decimal `json:"amount"`
	CounterpartyAccountID *int64          `json:"counterparty_account_id,omitempty"`
	OccurredAt            time.Time       `json:"occurred_at"`
}
