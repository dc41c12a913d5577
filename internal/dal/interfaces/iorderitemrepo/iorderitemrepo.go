package iorderitemrepo

import (
	"context"

	"github.com/corray333/food-ordering/internal/service/models/orderitem"
)

type IOrderItemRepository interface {
	BulkInsert(ctx context.Context, items []orderitem.OrderItem) ([]orderitem.OrderItem, error)
}
