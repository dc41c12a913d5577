package ioutboxrepo

import (
	"context"
	"time"

	"github.com/corray333/food-ordering/internal/service/models/outbox"
)

// IOutboxRepository stores events until the outbox worker hands them to a broker.
type IOutboxRepository interface {
	Insert(ctx context.Context, msg outbox.OutboxMessage) error
	// GetPendingMessages returns messages due at now that still have retries left, oldest due first.
	GetPendingMessages(ctx context.Context, now time.Time, limit int) ([]outbox.OutboxMessage, error)
	Delete(ctx context.Context, id int64) error
	UpdateRetry(ctx context.Context, id int64, retryCount int, lastError string, nextRetryAt time.Time) error
}
