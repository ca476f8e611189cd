package events

import "time"

// Event types carried in Envelope.Type.
const (
	AccountOpenedType       = "account.opened"
	TransactionRecordedType = "transaction.recorded"
)

// Envelope is the wire form of every published event.
type Envelope struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}
