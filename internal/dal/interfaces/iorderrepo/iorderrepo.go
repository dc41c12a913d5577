package iorderrepo

import (
	"context"
	"time"

	"github.com/corray333/food-ordering/internal/service/models/order"
)

type IOrderRepository interface {
	Insert(ctx context.Context, o order.Order) (order.Order, error)
	QueryJoined(ctx context.Context, filter order.QueryOrdersModel) ([]order.JoinedRow, error)
	// UpdateStatus returns nil when no order has the given id.
	UpdateStatus(ctx context.Context, id int64, status order.Status, at time.Time) (*order.StatusSnapshot, error)
	// GetStatus returns nil when no order has the given id.
	GetStatus(ctx context.Context, id int64) (*order.StatusSnapshot, error)
}
