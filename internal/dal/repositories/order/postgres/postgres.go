package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/food-ordering/internal/dal/postgres"
	"github.com/corray333/food-ordering/internal/service/models/currency"
	"github.com/corray333/food-ordering/internal/service/models/money"
	"github.com/corray333/food-ordering/internal/service/models/order"
	"github.com/jackc/pgx/v5"
)

var ErrOwnerRequired = errors.New("order query without owner")

// OrderRepository persists orders.
type OrderRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewOrderRepository creates a new order repository on a pool or a transaction.
func NewOrderRepository(conn postgres.GenericConn) *OrderRepository {
	return &OrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert stores the order header and returns it with the generated id.
// Items are inserted separately by the order item repository.
func (r *OrderRepository) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	totalCents, err := money.ToCents(o.Total)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to convert order total %s: %w", o.Total, err)
	}

	query, args, err := r.sb.Insert("orders").
		Columns(
			"user_id",
			"status",
			"total_cents",
			"currency",
			"delivery_address",
			"phone",
			"notes",
			"estimated_time",
			"created_at",
			"updated_at",
		).
		Values(
			o.UserID,
			o.Status.String(),
			totalCents,
			o.Currency.String(),
			o.DeliveryAddress,
			o.Phone,
			o.Notes,
			o.EstimatedTime,
			o.CreatedAt,
			o.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, query, args...).Scan(&o.ID); err != nil {
		return order.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	return o, nil
}

// QueryJoined returns the flat join of the selected orders with their items and menu names.
// Limit and offset apply to orders before the join, so a page never splits an order.
func (r *OrderRepository) QueryJoined(
	ctx context.Context,
	filter order.QueryOrdersModel,
) ([]order.JoinedRow, error) {
	if filter.UserID <= 0 {
		return nil, ErrOwnerRequired
	}

	inner := r.sb.Select(
		"id",
		"user_id",
		"status",
		"total_cents",
		"currency",
		"delivery_address",
		"phone",
		"notes",
		"estimated_time",
		"created_at",
		"updated_at",
	).
		From("orders").
		Where(sq.Eq{"user_id": filter.UserID}).
		OrderBy("created_at DESC", "id DESC")

	if len(filter.IDs) > 0 {
		inner = inner.Where(sq.Eq{"id": filter.IDs})
	}
	if filter.Status != "" {
		inner = inner.Where(sq.Eq{"status": filter.Status.String()})
	}
	if filter.Limit > 0 {
		inner = inner.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		inner = inner.Offset(uint64(filter.Offset))
	}

	query, args, err := r.sb.Select(
		"o.id",
		"o.user_id",
		"o.status",
		"o.total_cents",
		"o.currency",
		"o.delivery_address",
		"o.phone",
		"o.notes",
		"o.estimated_time",
		"o.created_at",
		"o.updated_at",
		"oi.id",
		"oi.menu_item_id",
		"mi.name",
		"oi.quantity",
		"oi.price_cents",
		"oi.created_at",
	).
		FromSelect(inner, "o").
		LeftJoin("order_items oi ON oi.order_id = o.id").
		LeftJoin("menu_items mi ON mi.id = oi.menu_item_id").
		OrderBy("o.created_at DESC", "o.id DESC", "oi.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	result := make([]order.JoinedRow, 0)
	for rows.Next() {
		var (
			row    order.JoinedRow
			status string
			cur    string
		)
		err := rows.Scan(
			&row.OrderID,
			&row.UserID,
			&status,
			&row.TotalCents,
			&cur,
			&row.DeliveryAddress,
			&row.Phone,
			&row.Notes,
			&row.EstimatedTime,
			&row.CreatedAt,
			&row.UpdatedAt,
			&row.ItemID,
			&row.ItemMenuItemID,
			&row.ItemName,
			&row.ItemQuantity,
			&row.ItemPriceCents,
			&row.ItemCreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}

		row.Status = order.Status(status)
		row.Currency, err = currency.ParseCurrency(cur)
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", row.OrderID, err)
		}

		result = append(result, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// UpdateStatus overwrites the status and bumps updated_at.
func (r *OrderRepository) UpdateStatus(
	ctx context.Context,
	id int64,
	status order.Status,
	at time.Time,
) (*order.StatusSnapshot, error) {
	query, args, err := r.sb.Update("orders").
		Set("status", status.String()).
		Set("updated_at", at).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING id, user_id, status, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update query: %w", err)
	}

	return r.scanSnapshot(r.conn.QueryRow(ctx, query, args...))
}

// GetStatus reads the current status of any order.
func (r *OrderRepository) GetStatus(ctx context.Context, id int64) (*order.StatusSnapshot, error) {
	query, args, err := r.sb.Select("id", "user_id", "status", "updated_at").
		From("orders").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	return r.scanSnapshot(r.conn.QueryRow(ctx, query, args...))
}

func (r *OrderRepository) scanSnapshot(row pgx.Row) (*order.StatusSnapshot, error) {
	var (
		snap   order.StatusSnapshot
		status string
	)
	if err := row.Scan(&snap.OrderID, &snap.UserID, &status, &snap.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan order status: %w", err)
	}
	snap.Status = order.Status(status)

	return &snap, nil
}
