package ordersvc

import (
	"context"
	"os"
	"testing"

	"github.com/corray333/food-ordering/internal/dal/postgres"
	"github.com/corray333/food-ordering/internal/service/errs"
	"github.com/corray333/food-ordering/internal/service/models/order"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const migrationsDir = "../../../../migrations"

// newPostgresService runs against FOOD_TEST_DATABASE_URL and wipes the order tables first.
func newPostgresService(t *testing.T) (*OrderService, *pgxpool.Pool) {
	t.Helper()

	url := os.Getenv("FOOD_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FOOD_TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(pool, migrationsDir))

	_, err = pool.Exec(ctx, `TRUNCATE outbox, order_items, orders, menu_items, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `INSERT INTO users (name, email, password_hash) VALUES
		('Alice', 'alice@example.com', 'x'),
		('Bob', 'bob@example.com', 'x')`)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `INSERT INTO menu_items (name, price_cents, category, is_available) VALUES
		('Margherita', 1299, 'pizza', TRUE),
		('Seasonal Soup', 600, 'soup', FALSE),
		('Tiramisu', 750, 'dessert', TRUE)`)
	require.NoError(t, err)

	svc := MustNewOrderService(
		WithPostgresClient(postgres.NewClientFromPool(pool)),
		WithEvents(EventSettings{
			Producer:                "food-api",
			Exchange:                "food.orders",
			PlacedRoutingKey:        "order.placed",
			StatusChangedRoutingKey: "order.status_changed",
			MaxRetries:              5,
		}),
	)

	return svc, pool
}

func countRows(t *testing.T, pool *pgxpool.Pool, table string) int {
	t.Helper()

	var n int
	require.NoError(t, pool.QueryRow(context.Background(), "SELECT count(*) FROM "+table).Scan(&n))

	return n
}

func TestPostgres_PlaceAndReadBack(t *testing.T) {
	svc, pool := newPostgresService(t)
	ctx := context.Background()

	placed, err := svc.PlaceOrder(ctx, placeRequest(1,
		order.Line{MenuItemID: 1, Quantity: 2},
		order.Line{MenuItemID: 3, Quantity: 1},
	))
	require.NoError(t, err)
	assert.Equal(t, "33.48", placed.Total.StringFixed(2))

	got, err := svc.GetOrderByID(ctx, 1, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, placed.Total.StringFixed(2), got.Total.StringFixed(2))
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Margherita", got.Items[0].Name)

	_, err = svc.GetOrderByID(ctx, 2, placed.ID)
	assert.True(t, errs.IsNotFound(err))

	assert.Equal(t, 1, countRows(t, pool, "outbox"))
}

func TestPostgres_FailedPlacementWritesNothing(t *testing.T) {
	svc, pool := newPostgresService(t)
	ctx := context.Background()

	_, err := svc.PlaceOrder(ctx, placeRequest(1,
		order.Line{MenuItemID: 1, Quantity: 1},
		order.Line{MenuItemID: 2, Quantity: 1},
	))
	require.True(t, errs.IsUnavailable(err))

	_, err = svc.PlaceOrder(ctx, placeRequest(1, order.Line{MenuItemID: 999, Quantity: 1}))
	require.True(t, errs.IsNotFound(err))

	assert.Zero(t, countRows(t, pool, "orders"))
	assert.Zero(t, countRows(t, pool, "order_items"))
	assert.Zero(t, countRows(t, pool, "outbox"))
}

func TestPostgres_UpdateStatus(t *testing.T) {
	svc, pool := newPostgresService(t)
	ctx := context.Background()

	placed, err := svc.PlaceOrder(ctx, placeRequest(1, order.Line{MenuItemID: 1, Quantity: 1}))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, placed.ID, "bogus")
	require.True(t, errs.IsValidation(err))

	snap, err := svc.UpdateStatus(ctx, placed.ID, "delivered")
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, snap.Status)

	_, err = svc.UpdateStatus(ctx, placed.ID+100, "ready")
	assert.True(t, errs.IsNotFound(err))

	status, err := svc.GetStatus(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, status.Status)

	assert.Equal(t, 2, countRows(t, pool, "outbox"))
}
