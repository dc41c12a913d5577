package ordersvc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/corray333/food-ordering/internal/service/errs"
	"github.com/corray333/food-ordering/internal/service/models/event"
	"github.com/corray333/food-ordering/internal/service/models/money"
	"github.com/corray333/food-ordering/internal/service/models/order"
	"github.com/corray333/food-ordering/internal/service/models/orderitem"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const minAddressLength = 10

// PlaceOrder validates the cart against the catalog and stores the order with its items atomically.
// With an idempotency key a repeated request returns the order created by the first one.
func (s *OrderService) PlaceOrder(ctx context.Context, req order.PlaceRequest) (*order.Order, error) {
	ctx, span := otel.Tracer("ordersvc").Start(ctx, "OrderService.PlaceOrder")
	defer span.End()

	if req.UserID <= 0 {
		return nil, errs.ErrUnauthenticated
	}

	if req.IdempotencyKey == "" || s.idempotency == nil {
		return s.placeOrder(ctx, req)
	}

	span.SetAttributes(attribute.String("idempotency_key", req.IdempotencyKey))

	existingID, reserved, err := s.idempotency.Reserve(ctx, req.UserID, req.IdempotencyKey, s.inFlightTTL)
	if err != nil {
		return nil, err
	}
	if !reserved {
		if existingID == 0 {
			return nil, &errs.ConflictError{Reason: "a request with this idempotency key is already in progress"}
		}

		slog.Info("Replaying idempotent order placement", "order_id", existingID, "user_id", req.UserID)

		return s.GetOrderByID(ctx, req.UserID, existingID)
	}

	placed, err := s.placeOrder(ctx, req)
	// the key must be settled even when the caller has gone away
	keyCtx := context.WithoutCancel(ctx)
	if err != nil {
		if relErr := s.idempotency.Release(keyCtx, req.UserID, req.IdempotencyKey); relErr != nil {
			slog.Error("Failed to release idempotency key", "user_id", req.UserID, "error", relErr)
		}

		return nil, err
	}

	err = s.idempotency.Complete(keyCtx, req.UserID, req.IdempotencyKey, placed.ID, s.idempotencyTTL)
	if err != nil {
		// the order is committed; a retry with the same key sees "in progress" until the in-flight claim expires
		slog.Error("Failed to complete idempotency key", "order_id", placed.ID, "error", err)
	}

	return placed, nil
}

func (s *OrderService) placeOrder(ctx context.Context, req order.PlaceRequest) (*order.Order, error) {
	if len(req.Lines) == 0 {
		return nil, errs.Validation("items", "empty cart")
	}

	work := s.newUOW()

	if err := work.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := work.Rollback(ctx); err != nil {
			slog.Error("Failed to rollback order placement", "error", err)
		}
	}()

	ids := make([]int64, 0, len(req.Lines))
	seen := make(map[int64]struct{}, len(req.Lines))
	for _, line := range req.Lines {
		if _, ok := seen[line.MenuItemID]; ok {
			continue
		}
		seen[line.MenuItemID] = struct{}{}
		ids = append(ids, line.MenuItemID)
	}

	catalog, err := work.MenuRepository().GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, line := range req.Lines {
		if _, ok := catalog[line.MenuItemID]; !ok {
			return nil, errs.NotFound("menu item", line.MenuItemID)
		}
	}
	for _, line := range req.Lines {
		if item := catalog[line.MenuItemID]; !item.IsAvailable {
			return nil, &errs.UnavailableError{MenuItemID: item.ID, Name: item.Name}
		}
	}
	for i, line := range req.Lines {
		field := fmt.Sprintf("items[%d].quantity", i)
		if line.Quantity < 1 {
			return nil, errs.Validation(field, "quantity must be a positive integer")
		}
		if line.Quantity > maxLineQuantity {
			return nil, errs.Validation(field, fmt.Sprintf("quantity must be at most %d", maxLineQuantity))
		}
	}

	if err := validateDelivery(req); err != nil {
		return nil, err
	}

	// stored timestamps have microsecond precision
	now := s.now().UTC().Truncate(time.Microsecond)

	total := decimal.Zero
	items := make([]orderitem.OrderItem, 0, len(req.Lines))
	for _, line := range req.Lines {
		item := catalog[line.MenuItemID]
		lineTotal := money.LineTotal(item.Price, line.Quantity)
		total = total.Add(lineTotal)

		items = append(items, orderitem.OrderItem{
			MenuItemID: item.ID,
			Name:       item.Name,
			Quantity:   line.Quantity,
			Price:      item.Price,
			Total:      lineTotal,
			CreatedAt:  now,
		})
	}
	if _, err := money.ToCents(total); err != nil {
		return nil, errs.Validation("items", "order total is too large")
	}

	o, err := work.OrderRepository().Insert(ctx, order.Order{
		UserID:          req.UserID,
		Status:          order.StatusPending,
		Total:           total,
		Currency:        s.currency,
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		Phone:           strings.TrimSpace(req.Phone),
		Notes:           strings.TrimSpace(req.Notes),
		EstimatedTime:   s.estimatedTime,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return nil, err
	}

	for i := range items {
		items[i].OrderID = o.ID
	}
	o.Items, err = work.OrderItemRepository().BulkInsert(ctx, items)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		if err := s.writeOrderPlaced(ctx, work, o); err != nil {
			return nil, err
		}
	}

	if err := work.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	slog.Info("Order placed", "order_id", o.ID, "user_id", o.UserID, "total", o.Total.StringFixed(2), "items", len(o.Items))

	s.cacheStatus(ctx, order.StatusSnapshot{OrderID: o.ID, UserID: o.UserID, Status: o.Status, UpdatedAt: o.UpdatedAt})

	return &o, nil
}

func validateDelivery(req order.PlaceRequest) error {
	if utf8.RuneCountInString(strings.TrimSpace(req.DeliveryAddress)) < minAddressLength {
		return errs.Validation("deliveryAddress", fmt.Sprintf("delivery address must be at least %d characters", minAddressLength))
	}
	if strings.TrimSpace(req.Phone) == "" {
		return errs.Validation("phone", "phone is required")
	}

	return nil
}

func (s *OrderService) writeOrderPlaced(ctx context.Context, work unitOfWork, o order.Order) error {
	payload := event.OrderPlaced{
		OrderID:  o.ID,
		UserID:   o.UserID,
		Total:    o.Total,
		Currency: o.Currency.String(),
		Items:    make([]event.OrderPlacedItem, 0, len(o.Items)),
		PlacedAt: o.CreatedAt,
	}
	for _, it := range o.Items {
		payload.Items = append(payload.Items, event.OrderPlacedItem{
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
			Price:      it.Price,
		})
	}

	msg, err := s.newOutboxMessage(event.TypeOrderPlaced, s.events.PlacedRoutingKey, o.ID, o.CreatedAt, payload)
	if err != nil {
		return err
	}

	return work.OutboxRepository().Insert(ctx, msg)
}
