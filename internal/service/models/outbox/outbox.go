package outbox

import (
	"time"
)

// OutboxMessage is an event written in the same transaction as the state change it describes.
// The outbox worker delivers it to the configured broker.
type OutboxMessage struct {
	ID           int64
	EventID      string
	EventType    string
	ExchangeName string
	RoutingKey   string
	MessageKey   string
	Payload      []byte
	ContentType  string
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NextRetryAt  time.Time
}
