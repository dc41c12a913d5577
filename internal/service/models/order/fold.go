package order

import (
	"time"

	"github.com/corray333/food-ordering/internal/service/models/currency"
	"github.com/corray333/food-ordering/internal/service/models/money"
	"github.com/corray333/food-ordering/internal/service/models/orderitem"
)

// JoinedRow is one row of orders LEFT JOIN order_items LEFT JOIN menu_items.
// Item columns are nil when the order has no item on that row.
type JoinedRow struct {
	OrderID         int64
	UserID          int64
	Status          Status
	TotalCents      int64
	Currency        currency.Currency
	DeliveryAddress string
	Phone           string
	Notes           string
	EstimatedTime   string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	ItemID         *int64
	ItemMenuItemID *int64
	ItemName       *string
	ItemQuantity   *int32
	ItemPriceCents *int64
	ItemCreatedAt  *time.Time
}

func (r *JoinedRow) hasItem() bool {
	return r.ItemID != nil && r.ItemMenuItemID != nil && r.ItemQuantity != nil && r.ItemPriceCents != nil
}

func (r *JoinedRow) item() orderitem.OrderItem {
	price := money.FromCents(*r.ItemPriceCents)
	it := orderitem.OrderItem{
		ID:         *r.ItemID,
		OrderID:    r.OrderID,
		MenuItemID: *r.ItemMenuItemID,
		Quantity:   int(*r.ItemQuantity),
		Price:      price,
		Total:      money.LineTotal(price, int(*r.ItemQuantity)),
	}
	if r.ItemName != nil {
		it.Name = *r.ItemName
	}
	if r.ItemCreatedAt != nil {
		it.CreatedAt = *r.ItemCreatedAt
	}

	return it
}

// Fold collapses flat joined rows into one Order per distinct order id.
// Orders keep the position of their first row; items keep row order.
func Fold(rows []JoinedRow) []Order {
	orders := make([]Order, 0)
	index := make(map[int64]int)

	for i := range rows {
		row := &rows[i]

		pos, ok := index[row.OrderID]
		if !ok {
			pos = len(orders)
			index[row.OrderID] = pos
			orders = append(orders, Order{
				ID:              row.OrderID,
				UserID:          row.UserID,
				Status:          row.Status,
				Total:           money.FromCents(row.TotalCents),
				Currency:        row.Currency,
				DeliveryAddress: row.DeliveryAddress,
				Phone:           row.Phone,
				Notes:           row.Notes,
				EstimatedTime:   row.EstimatedTime,
				CreatedAt:       row.CreatedAt,
				UpdatedAt:       row.UpdatedAt,
				Items:           []orderitem.OrderItem{},
			})
		}

		if row.hasItem() {
			orders[pos].Items = append(orders[pos].Items, row.item())
		}
	}

	return orders
}
