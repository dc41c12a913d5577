package inbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/corray333/food-ordering/internal/dal/interfaces/iinboxrepo"
	"github.com/corray333/food-ordering/internal/service/models/event"
	inboxmodel "github.com/corray333/food-ordering/internal/service/models/inbox"
	"github.com/corray333/food-ordering/internal/worker"
)

// service represents the service layer interface.
type service interface {
	Advance(ctx context.Context, placed event.OrderPlaced) error
}

// Worker retries messages the consumer could not process.
type Worker struct {
	inboxRepo     iinboxrepo.IInboxRepository
	service       service
	pollInterval  time.Duration
	batchSize     int
	retryInterval time.Duration
	now           func() time.Time
	stopCh        chan struct{}
}

// NewWorker creates a new inbox worker.
func NewWorker(
	inboxRepo iinboxrepo.IInboxRepository,
	service service,
	pollInterval time.Duration,
	batchSize int,
	retryInterval time.Duration,
) *Worker {
	return &Worker{
		inboxRepo:     inboxRepo,
		service:       service,
		pollInterval:  pollInterval,
		batchSize:     batchSize,
		retryInterval: retryInterval,
		now:           time.Now,
		stopCh:        make(chan struct{}),
	}
}

// Start begins processing messages from the inbox.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Inbox worker started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Inbox worker shutting down")
			return
		case <-w.stopCh:
			slog.Info("Inbox worker stopped")
			return
		case <-ticker.C:
			w.processMessages(ctx)
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}

// processMessages retries due inbox messages. Malformed payloads are dropped once their retries run out.
func (w *Worker) processMessages(ctx context.Context) {
	messages, err := w.inboxRepo.GetPendingMessages(ctx, w.now(), w.batchSize)
	if err != nil {
		slog.Error("Failed to get pending messages from inbox", "error", err)
		return
	}

	if len(messages) == 0 {
		return
	}

	slog.Info("Processing inbox messages", "count", len(messages))

	for _, msg := range messages {
		if ctx.Err() != nil {
			return
		}

		_, placed, err := event.DecodeOrderPlaced(msg.Payload)
		if err != nil {
			slog.Error("Failed to decode inbox message", "error", err, "inbox_id", msg.ID)

			if msg.RetryCount+1 >= msg.MaxRetries {
				slog.Warn("Max retries reached for malformed message, deleting",
					"inbox_id", msg.ID,
					"message_id", msg.MessageID,
				)
				if err := w.inboxRepo.Delete(ctx, msg.ID); err != nil {
					slog.Error("Failed to delete message from inbox", "inbox_id", msg.ID, "error", err)
				}

				continue
			}

			w.reschedule(ctx, msg, err)

			continue
		}

		if err := w.service.Advance(ctx, placed); err != nil {
			slog.Warn("Failed to process message from inbox, will retry",
				"inbox_id", msg.ID,
				"order_id", placed.OrderID,
				"error", err,
			)
			w.reschedule(ctx, msg, err)

			continue
		}

		if err := w.inboxRepo.Delete(ctx, msg.ID); err != nil {
			slog.Error("Failed to delete message from inbox after successful processing",
				"inbox_id", msg.ID,
				"error", err,
			)

			continue
		}

		slog.Info("Message successfully processed and removed from inbox",
			"inbox_id", msg.ID,
			"message_id", msg.MessageID,
			"order_id", placed.OrderID,
		)
	}
}

func (w *Worker) reschedule(ctx context.Context, msg inboxmodel.InboxMessage, cause error) {
	newRetryCount := msg.RetryCount + 1
	nextRetryAt := w.now().Add(worker.Backoff(newRetryCount, w.retryInterval))

	if err := w.inboxRepo.UpdateRetry(ctx, msg.ID, newRetryCount, cause.Error(), nextRetryAt); err != nil {
		slog.Error("Failed to update retry information", "inbox_id", msg.ID, "error", err)
	}
}
