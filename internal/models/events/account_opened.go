package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountOpened is published once an account and its opening deposit commit.
type AccountOpened struct {
	EventID        string          `json:"event_id"`
	AccountID      int64           `json:"account_id"`
	OwnerName      string          `json:"owner_name"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	OccurredAt     time.Time       `json:"occurred_at"`
}
