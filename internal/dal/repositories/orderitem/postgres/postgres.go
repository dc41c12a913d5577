package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/food-ordering/internal/dal/postgres"
	"github.com/corray333/food-ordering/internal/service/models/money"
	"github.com/corray333/food-ordering/internal/service/models/orderitem"
)

// OrderItemRepository persists order lines.
type OrderItemRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewOrderItemRepository creates a new order item repository on a pool or a transaction.
func NewOrderItemRepository(conn postgres.GenericConn) *OrderItemRepository {
	return &OrderItemRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// lineKey identifies an inserted row by the values it was written with.
// Rows sharing a key are interchangeable, so any of them may take either id.
type lineKey struct {
	menuItemID int64
	quantity   int
	priceCents int64
}

// BulkInsert inserts all items in one statement and returns them with ids, in input order.
// Ids are matched on the returned column values, not on RETURNING row order.
func (r *OrderItemRepository) BulkInsert(
	ctx context.Context,
	items []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	if len(items) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	pending := make(map[lineKey][]int, len(items))
	qb := r.sb.Insert("order_items").
		Columns("order_id", "menu_item_id", "quantity", "price_cents", "created_at")
	for i, it := range items {
		cents, err := money.ToCents(it.Price)
		if err != nil {
			return nil, fmt.Errorf("failed to convert price of menu item %d: %w", it.MenuItemID, err)
		}

		key := lineKey{menuItemID: it.MenuItemID, quantity: it.Quantity, priceCents: cents}
		pending[key] = append(pending[key], i)
		qb = qb.Values(it.OrderID, it.MenuItemID, it.Quantity, cents, it.CreatedAt)
	}

	query, args, err := qb.Suffix("RETURNING id, menu_item_id, quantity, price_cents").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk insert order items: %w", err)
	}
	defer rows.Close()

	result := make([]orderitem.OrderItem, len(items))
	copy(result, items)
	matched := 0
	for rows.Next() {
		var (
			id       int64
			key      lineKey
			quantity int32
		)
		if err := rows.Scan(&id, &key.menuItemID, &quantity, &key.priceCents); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		key.quantity = int(quantity)

		idx := pending[key]
		if len(idx) == 0 {
			return nil, fmt.Errorf("bulk insert returned unexpected row for menu item %d", key.menuItemID)
		}
		result[idx[0]].ID = id
		pending[key] = idx[1:]
		matched++
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	if matched != len(items) {
		return nil, fmt.Errorf("bulk insert returned %d rows, want %d", matched, len(items))
	}

	return result, nil
}
