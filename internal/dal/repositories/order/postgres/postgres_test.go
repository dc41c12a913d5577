package postgresrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corray333/food-ordering/internal/service/models/money"
	"github.com/corray333/food-ordering/internal/service/models/order"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStop = errors.New("stop")

// recordingConn captures the last statement instead of talking to a database.
type recordingConn struct {
	sql  string
	args []any
	row  pgx.Row
}

func (c *recordingConn) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	c.sql, c.args = sql, args
	return nil, errStop
}

func (c *recordingConn) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	c.sql, c.args = sql, args
	if c.row != nil {
		return c.row
	}
	return errRow{err: errStop}
}

func (c *recordingConn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.sql, c.args = sql, args
	return pgconn.CommandTag{}, nil
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

func TestQueryJoined_PaginatesOrdersBeforeJoin(t *testing.T) {
	t.Parallel()

	conn := &recordingConn{}
	repo := NewOrderRepository(conn)

	_, err := repo.QueryJoined(context.Background(), order.QueryOrdersModel{
		UserID: 7,
		Status: order.StatusReady,
		Limit:  10,
		Offset: 5,
	})
	require.ErrorIs(t, err, errStop)

	assert.Contains(t, conn.sql, "FROM (SELECT id, user_id, status")
	assert.Contains(t, conn.sql, "WHERE user_id = $1 AND status = $2")
	assert.Contains(t, conn.sql, "ORDER BY created_at DESC, id DESC LIMIT 10 OFFSET 5) AS o")
	assert.Contains(t, conn.sql, "LEFT JOIN order_items oi ON oi.order_id = o.id")
	assert.Contains(t, conn.sql, "LEFT JOIN menu_items mi ON mi.id = oi.menu_item_id")
	assert.Contains(t, conn.sql, "ORDER BY o.created_at DESC, o.id DESC, oi.id ASC")
	assert.Equal(t, []any{int64(7), "ready"}, conn.args)
}

func TestQueryJoined_OwnershipIsPartOfPredicate(t *testing.T) {
	t.Parallel()

	conn := &recordingConn{}
	repo := NewOrderRepository(conn)

	_, err := repo.QueryJoined(context.Background(), order.QueryOrdersModel{UserID: 3, IDs: []int64{42}, Limit: 1})
	require.ErrorIs(t, err, errStop)

	assert.Contains(t, conn.sql, "WHERE user_id = $1 AND id IN ($2)")
	assert.Equal(t, []any{int64(3), int64(42)}, conn.args)
}

func TestQueryJoined_RequiresOwner(t *testing.T) {
	t.Parallel()

	conn := &recordingConn{}
	_, err := NewOrderRepository(conn).QueryJoined(context.Background(), order.QueryOrdersModel{IDs: []int64{1}})

	require.ErrorIs(t, err, ErrOwnerRequired)
	assert.Empty(t, conn.sql)
}

func TestUpdateStatus_NoRowsIsNil(t *testing.T) {
	t.Parallel()

	conn := &recordingConn{row: errRow{err: pgx.ErrNoRows}}
	snap, err := NewOrderRepository(conn).UpdateStatus(context.Background(), 99, order.StatusReady, time.Now())

	require.NoError(t, err)
	assert.Nil(t, snap)
	assert.Contains(t, conn.sql, "UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 RETURNING")
}

func TestInsert_ReturnsGeneratedID(t *testing.T) {
	t.Parallel()

	conn := &recordingConn{row: idRow{id: 11}}
	o, err := NewOrderRepository(conn).Insert(context.Background(), order.Order{UserID: 1, Status: order.StatusPending, Currency: "USD"})

	require.NoError(t, err)
	assert.Equal(t, int64(11), o.ID)
	assert.Contains(t, conn.sql, "INSERT INTO orders")
	assert.Contains(t, conn.sql, "RETURNING id")
}

type idRow struct{ id int64 }

func (r idRow) Scan(dest ...any) error {
	*(dest[0].(*int64)) = r.id
	return nil
}

func TestInsert_TotalOutOfRange(t *testing.T) {
	t.Parallel()

	conn := &recordingConn{}
	_, err := NewOrderRepository(conn).Insert(context.Background(), order.Order{
		UserID: 7,
		Status: order.StatusPending,
		Total:  money.LineTotal(money.FromCents(1299), 1<<62),
	})
	require.ErrorIs(t, err, money.ErrOutOfRange)
	assert.Empty(t, conn.sql)
}
