package ordersvc

import (
	"context"

	"github.com/corray333/food-ordering/internal/service/errs"
	"github.com/corray333/food-ordering/internal/service/models/order"
	"go.opentelemetry.io/otel"
)

// GetOrdersForUser lists the caller's orders, newest first, with their items.
func (s *OrderService) GetOrdersForUser(ctx context.Context, model order.QueryOrdersModel) ([]order.Order, error) {
	ctx, span := otel.Tracer("ordersvc").Start(ctx, "OrderService.GetOrdersForUser")
	defer span.End()

	if model.UserID <= 0 {
		return nil, errs.ErrUnauthenticated
	}
	if model.Offset < 0 {
		return nil, errs.Validation("offset", "offset must not be negative")
	}
	if model.Limit < 0 {
		return nil, errs.Validation("limit", "limit must not be negative")
	}

	if model.Limit == 0 {
		model.Limit = s.defaultLimit
	}
	if model.Limit > s.maxLimit {
		model.Limit = s.maxLimit
	}

	rows, err := s.newUOW().OrderRepository().QueryJoined(ctx, model)
	if err != nil {
		return nil, err
	}

	return order.Fold(rows), nil
}

// GetOrderByID returns the order only when userID owns it. Foreign orders are reported as missing.
func (s *OrderService) GetOrderByID(ctx context.Context, userID, id int64) (*order.Order, error) {
	ctx, span := otel.Tracer("ordersvc").Start(ctx, "OrderService.GetOrderByID")
	defer span.End()

	if userID <= 0 {
		return nil, errs.ErrUnauthenticated
	}

	rows, err := s.newUOW().OrderRepository().QueryJoined(ctx, order.QueryOrdersModel{
		UserID: userID,
		IDs:    []int64{id},
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}

	orders := order.Fold(rows)
	if len(orders) == 0 {
		return nil, errs.NotFound("order", id)
	}

	return &orders[0], nil
}
