package uow

import (
	"context"
	"errors"

	"github.com/corray333/food-ordering/internal/dal/interfaces/imenurepo"
	"github.com/corray333/food-ordering/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/food-ordering/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/food-ordering/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/food-ordering/internal/dal/postgres"
	menurepo "github.com/corray333/food-ordering/internal/dal/repositories/menu/postgres"
	orderrepo "github.com/corray333/food-ordering/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/corray333/food-ordering/internal/dal/repositories/orderitem/postgres"
	outboxrepo "github.com/corray333/food-ordering/internal/dal/repositories/outbox/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrTxNotStarted = errors.New("transaction not started")

// UnitOfWork hands out repositories bound to the pool until Begin,
// and to a single transaction afterwards.
type UnitOfWork struct {
	pool          *pgxpool.Pool
	tx            pgx.Tx
	menuRepo      imenurepo.IMenuRepository
	orderRepo     iorderrepo.IOrderRepository
	orderItemRepo iorderitemrepo.IOrderItemRepository
	outboxRepo    ioutboxrepo.IOutboxRepository
}

func NewUnitOfWork(client *postgres.Client) *UnitOfWork {
	u := &UnitOfWork{pool: client.Pool()}
	u.bind(client.Pool())

	return u
}

func (u *UnitOfWork) bind(conn postgres.GenericConn) {
	u.menuRepo = menurepo.NewMenuRepository(conn)
	u.orderRepo = orderrepo.NewOrderRepository(conn)
	u.orderItemRepo = orderitemrepo.NewOrderItemRepository(conn)
	u.outboxRepo = outboxrepo.NewOutboxRepository(conn)
}

func (u *UnitOfWork) MenuRepository() imenurepo.IMenuRepository {
	return u.menuRepo
}

func (u *UnitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *UnitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return u.orderItemRepo
}

func (u *UnitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return u.outboxRepo
}

// Begin starts a transaction and rebinds every repository onto it.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	tx, err := u.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}

	u.tx = tx
	u.bind(tx)

	return nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return ErrTxNotStarted
	}

	return u.tx.Commit(ctx)
}

// Rollback is safe to defer: after a commit it is a no-op.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}

	return err
}
