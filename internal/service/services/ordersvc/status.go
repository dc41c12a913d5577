package ordersvc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/corray333/food-ordering/internal/service/errs"
	"github.com/corray333/food-ordering/internal/service/models/event"
	"github.com/corray333/food-ordering/internal/service/models/order"
	"github.com/corray333/food-ordering/internal/service/models/outbox"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// UpdateStatus overwrites the status of an order. Any member of the enumeration may follow any other.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, raw string) (*order.StatusSnapshot, error) {
	ctx, span := otel.Tracer("ordersvc").Start(ctx, "OrderService.UpdateStatus")
	defer span.End()

	span.SetAttributes(attribute.Int64("order_id", id), attribute.String("status", raw))

	status, err := order.ParseStatus(raw)
	if err != nil {
		return nil, err
	}

	work := s.newUOW()

	if err := work.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := work.Rollback(ctx); err != nil {
			slog.Error("Failed to rollback status update", "order_id", id, "error", err)
		}
	}()

	snap, err := work.OrderRepository().UpdateStatus(ctx, id, status, s.now().UTC().Truncate(time.Microsecond))
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, errs.NotFound("order", id)
	}

	if s.events != nil {
		payload := event.OrderStatusChanged{
			OrderID:   snap.OrderID,
			UserID:    snap.UserID,
			Status:    snap.Status.String(),
			ChangedAt: snap.UpdatedAt,
		}

		msg, err := s.newOutboxMessage(event.TypeOrderStatusChanged, s.events.StatusChangedRoutingKey, id, snap.UpdatedAt, payload)
		if err != nil {
			return nil, err
		}
		if err := work.OutboxRepository().Insert(ctx, msg); err != nil {
			return nil, err
		}
	}

	if err := work.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}

	slog.Info("Order status updated", "order_id", id, "status", status)

	s.cacheStatus(ctx, *snap)

	return snap, nil
}

// GetStatus reads the status through the cache, falling back to the database.
func (s *OrderService) GetStatus(ctx context.Context, id int64) (*order.StatusSnapshot, error) {
	ctx, span := otel.Tracer("ordersvc").Start(ctx, "OrderService.GetStatus")
	defer span.End()

	if s.statusCache != nil {
		snap, err := s.statusCache.Get(ctx, id)
		if err != nil {
			slog.Warn("Status cache read failed", "order_id", id, "error", err)
		}
		if snap != nil {
			span.SetAttributes(attribute.Bool("cache_hit", true))

			return snap, nil
		}
	}

	snap, err := s.newUOW().OrderRepository().GetStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, errs.NotFound("order", id)
	}

	s.cacheStatus(ctx, *snap)

	return snap, nil
}

// cacheStatus is best effort; the database stays the source of truth.
func (s *OrderService) cacheStatus(ctx context.Context, snap order.StatusSnapshot) {
	if s.statusCache == nil {
		return
	}

	if err := s.statusCache.Set(ctx, snap); err != nil {
		slog.Warn("Failed to cache order status", "order_id", snap.OrderID, "error", err)
	}
}

func (s *OrderService) newOutboxMessage(
	eventType string,
	routingKey string,
	orderID int64,
	at time.Time,
	payload any,
) (outbox.OutboxMessage, error) {
	env, err := event.NewEnvelope(eventType, s.events.Producer, orderID, at, payload)
	if err != nil {
		return outbox.OutboxMessage{}, err
	}

	body, err := json.Marshal(env)
	if err != nil {
		return outbox.OutboxMessage{}, fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	return outbox.OutboxMessage{
		EventID:      env.EventID,
		EventType:    eventType,
		ExchangeName: s.events.Exchange,
		RoutingKey:   routingKey,
		MessageKey:   strconv.FormatInt(orderID, 10),
		Payload:      body,
		ContentType:  "application/json",
		MaxRetries:   s.events.MaxRetries,
		CreatedAt:    at,
		UpdatedAt:    at,
		NextRetryAt:  at,
	}, nil
}
