package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sheikh-saqib/personal-banking-ledger/internal/models"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/models/events"
)

const publishTimeout = 5 * time.Second

// Events go out after commit and are best effort: the ledger tables are the
// source of truth, so a failed publish is logged and never undoes a change.

func (l *Ledger) publishRecords(ctx context.Context, records ...models.TransactionRecord) {
	if l.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	for _, rec := range records {
		event := events.TransactionRecorded{
			EventID:               uuid.NewString(),
			TransactionID:         rec.ID,
			AccountID:             rec.AccountID,
			Type:                  string(rec.Type),
			Amount:                rec.Amount,
			CounterpartyAccountID: rec.CounterpartyAccountID,
			OccurredAt:            rec.Timestamp,
		}
		if err := l.publisher.Publish(ctx, events.TransactionRecordedType, event); err != nil {
			l.logger.Warn("failed to publish transaction event", "transaction_id", rec.ID, "error", err)
		}
	}
}

func (l *Ledger) publishAccountOpened(ctx context.Context, acct models.Account) {
	if l.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := events.AccountOpened{
		EventID:        uuid.NewString(),
		AccountID:      acct.AccountID,
		OwnerName:      acct.OwnerName,
		OpeningBalance: acct.Balance,
		OccurredAt:     time.Now().UTC(),
	}
	if err := l.publisher.Publish(ctx, events.AccountOpenedType, event); err != nil {
		l.logger.Warn("failed to publish account event", "account_id", acct.AccountID, "error", err)
	}
}
