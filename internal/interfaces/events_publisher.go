package interfaces

import "context"

// EventPublisher announces committed ledger changes to other systems.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, event any) error
	Close() error
}
