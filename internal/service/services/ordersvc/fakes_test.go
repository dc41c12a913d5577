package ordersvc

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/corray333/food-ordering/internal/dal/interfaces/imenurepo"
	"github.com/corray333/food-ordering/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/food-ordering/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/food-ordering/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/food-ordering/internal/service/errs"
	"github.com/corray333/food-ordering/internal/service/models/menuitem"
	"github.com/corray333/food-ordering/internal/service/models/money"
	"github.com/corray333/food-ordering/internal/service/models/order"
	"github.com/corray333/food-ordering/internal/service/models/orderitem"
	"github.com/corray333/food-ordering/internal/service/models/outbox"
)

func withUnitOfWork(factory func() unitOfWork) Option {
	return func(s *OrderService) {
		s.uowFactory = factory
	}
}

func withClock(now func() time.Time) Option {
	return func(s *OrderService) {
		s.now = now
	}
}

// memStore is the committed state shared by every fake unit of work.
type memStore struct {
	mu          sync.Mutex
	menu        map[int64]menuitem.MenuItem
	orders      []order.Order
	outbox      []outbox.OutboxMessage
	nextOrderID int64
	nextItemID  int64
	itemsErr    error
	statusReads int
}

func newMemStore(items ...menuitem.MenuItem) *memStore {
	s := &memStore{menu: make(map[int64]menuitem.MenuItem)}
	for _, it := range items {
		s.menu[it.ID] = it
	}

	return s
}

func (s *memStore) newUOW() unitOfWork {
	return &fakeUOW{store: s}
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.orders)
}

func (s *memStore) itemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, o := range s.orders {
		n += len(o.Items)
	}

	return n
}

func (s *memStore) outboxMessages() []outbox.OutboxMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]outbox.OutboxMessage(nil), s.outbox...)
}

func (s *memStore) status(id int64) order.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.orders {
		if o.ID == id {
			return o.Status
		}
	}

	return ""
}

// fakeUOW stages writes and applies them to the store on commit.
type fakeUOW struct {
	store     *memStore
	inTx      bool
	committed bool
	pending   []func(*memStore)
}

func (u *fakeUOW) Begin(context.Context) error {
	u.inTx = true
	return nil
}

func (u *fakeUOW) Commit(context.Context) error {
	if !u.inTx {
		return errors.New("transaction not started")
	}

	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	for _, apply := range u.pending {
		apply(u.store)
	}
	u.pending = nil
	u.committed = true

	return nil
}

func (u *fakeUOW) Rollback(context.Context) error {
	u.pending = nil
	return nil
}

func (u *fakeUOW) stage(apply func(*memStore)) {
	if !u.inTx {
		u.store.mu.Lock()
		apply(u.store)
		u.store.mu.Unlock()

		return
	}
	u.pending = append(u.pending, apply)
}

func (u *fakeUOW) MenuRepository() imenurepo.IMenuRepository {
	return fakeMenuRepo{store: u.store}
}

func (u *fakeUOW) OrderRepository() iorderrepo.IOrderRepository {
	return fakeOrderRepo{uow: u}
}

func (u *fakeUOW) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return fakeOrderItemRepo{uow: u}
}

func (u *fakeUOW) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return fakeOutboxRepo{uow: u}
}

type fakeMenuRepo struct {
	store *memStore
}

func (r fakeMenuRepo) ListAvailable(context.Context, menuitem.Filter) ([]menuitem.MenuItem, error) {
	return nil, errors.New("not used")
}

func (r fakeMenuRepo) GetByID(_ context.Context, id int64) (*menuitem.MenuItem, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	it, ok := r.store.menu[id]
	if !ok {
		return nil, errs.NotFound("menu item", id)
	}

	return &it, nil
}

func (r fakeMenuRepo) GetByIDs(_ context.Context, ids []int64) (map[int64]menuitem.MenuItem, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make(map[int64]menuitem.MenuItem, len(ids))
	for _, id := range ids {
		if it, ok := r.store.menu[id]; ok {
			out[id] = it
		}
	}

	return out, nil
}

func (r fakeMenuRepo) Categories(context.Context) ([]string, error) {
	return nil, errors.New("not used")
}

type fakeOrderRepo struct {
	uow *fakeUOW
}

func (r fakeOrderRepo) Insert(_ context.Context, o order.Order) (order.Order, error) {
	r.uow.store.mu.Lock()
	r.uow.store.nextOrderID++
	o.ID = r.uow.store.nextOrderID
	r.uow.store.mu.Unlock()

	stored := o
	stored.Items = []orderitem.OrderItem{}
	r.uow.stage(func(s *memStore) {
		s.orders = append(s.orders, stored)
	})

	return o, nil
}

func (r fakeOrderRepo) QueryJoined(_ context.Context, filter order.QueryOrdersModel) ([]order.JoinedRow, error) {
	if filter.UserID <= 0 {
		return nil, errors.New("order query without owner")
	}

	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make(map[int64]bool, len(filter.IDs))
	for _, id := range filter.IDs {
		ids[id] = true
	}

	selected := make([]order.Order, 0)
	for _, o := range s.orders {
		if o.UserID != filter.UserID {
			continue
		}
		if len(ids) > 0 && !ids[o.ID] {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		selected = append(selected, o)
	}

	sort.Slice(selected, func(i, j int) bool {
		if !selected[i].CreatedAt.Equal(selected[j].CreatedAt) {
			return selected[i].CreatedAt.After(selected[j].CreatedAt)
		}
		return selected[i].ID > selected[j].ID
	})

	if filter.Offset >= len(selected) {
		selected = nil
	} else {
		selected = selected[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(selected) {
		selected = selected[:filter.Limit]
	}

	rows := make([]order.JoinedRow, 0)
	for _, o := range selected {
		totalCents, err := money.ToCents(o.Total)
		if err != nil {
			return nil, err
		}
		base := order.JoinedRow{
			OrderID:         o.ID,
			UserID:          o.UserID,
			Status:          o.Status,
			TotalCents:      totalCents,
			Currency:        o.Currency,
			DeliveryAddress: o.DeliveryAddress,
			Phone:           o.Phone,
			Notes:           o.Notes,
			EstimatedTime:   o.EstimatedTime,
			CreatedAt:       o.CreatedAt,
			UpdatedAt:       o.UpdatedAt,
		}
		if len(o.Items) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, it := range o.Items {
			row := base
			id, menuID, name := it.ID, it.MenuItemID, it.Name
			cents, err := money.ToCents(it.Price)
			if err != nil {
				return nil, err
			}
			qty, at := int32(it.Quantity), it.CreatedAt
			row.ItemID, row.ItemMenuItemID, row.ItemName = &id, &menuID, &name
			row.ItemQuantity, row.ItemPriceCents, row.ItemCreatedAt = &qty, &cents, &at
			rows = append(rows, row)
		}
	}

	return rows, nil
}

func (r fakeOrderRepo) UpdateStatus(
	_ context.Context,
	id int64,
	status order.Status,
	at time.Time,
) (*order.StatusSnapshot, error) {
	s := r.uow.store
	s.mu.Lock()
	var snap *order.StatusSnapshot
	for _, o := range s.orders {
		if o.ID == id {
			snap = &order.StatusSnapshot{OrderID: id, UserID: o.UserID, Status: status, UpdatedAt: at}
		}
	}
	s.mu.Unlock()

	if snap == nil {
		return nil, nil
	}

	r.uow.stage(func(s *memStore) {
		for i := range s.orders {
			if s.orders[i].ID == id {
				s.orders[i].Status = status
				s.orders[i].UpdatedAt = at
			}
		}
	})

	return snap, nil
}

func (r fakeOrderRepo) GetStatus(_ context.Context, id int64) (*order.StatusSnapshot, error) {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.statusReads++
	for _, o := range s.orders {
		if o.ID == id {
			return &order.StatusSnapshot{OrderID: id, UserID: o.UserID, Status: o.Status, UpdatedAt: o.UpdatedAt}, nil
		}
	}

	return nil, nil
}

type fakeOrderItemRepo struct {
	uow *fakeUOW
}

func (r fakeOrderItemRepo) BulkInsert(_ context.Context, items []orderitem.OrderItem) ([]orderitem.OrderItem, error) {
	s := r.uow.store
	s.mu.Lock()
	if s.itemsErr != nil {
		s.mu.Unlock()
		return nil, s.itemsErr
	}
	out := make([]orderitem.OrderItem, len(items))
	for i, it := range items {
		s.nextItemID++
		it.ID = s.nextItemID
		out[i] = it
	}
	s.mu.Unlock()

	r.uow.stage(func(s *memStore) {
		for _, it := range out {
			for i := range s.orders {
				if s.orders[i].ID == it.OrderID {
					s.orders[i].Items = append(s.orders[i].Items, it)
				}
			}
		}
	})

	return out, nil
}

type fakeOutboxRepo struct {
	uow *fakeUOW
}

func (r fakeOutboxRepo) Insert(_ context.Context, msg outbox.OutboxMessage) error {
	r.uow.stage(func(s *memStore) {
		s.outbox = append(s.outbox, msg)
	})

	return nil
}

func (r fakeOutboxRepo) GetPendingMessages(context.Context, time.Time, int) ([]outbox.OutboxMessage, error) {
	return nil, nil
}

func (r fakeOutboxRepo) Delete(context.Context, int64) error {
	return nil
}

func (r fakeOutboxRepo) UpdateRetry(context.Context, int64, int, string, time.Time) error {
	return nil
}

type fakeIdempotency struct {
	mu   sync.Mutex
	keys map[string]int64

	reserveTTL    time.Duration
	completeTTL   time.Duration
	releaseCtxErr error
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{keys: make(map[string]int64)}
}

func (f *fakeIdempotency) Reserve(_ context.Context, _ int64, key string, ttl time.Duration) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reserveTTL = ttl

	if id, ok := f.keys[key]; ok {
		return id, false, nil
	}
	f.keys[key] = 0

	return 0, true, nil
}

func (f *fakeIdempotency) Complete(_ context.Context, _ int64, key string, orderID int64, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.completeTTL = ttl

	f.keys[key] = orderID

	return nil
}

func (f *fakeIdempotency) Release(ctx context.Context, _ int64, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.releaseCtxErr = ctx.Err()

	delete(f.keys, key)

	return nil
}

type fakeStatusCache struct {
	mu    sync.Mutex
	snaps map[int64]order.StatusSnapshot
}

func newFakeStatusCache() *fakeStatusCache {
	return &fakeStatusCache{snaps: make(map[int64]order.StatusSnapshot)}
}

func (c *fakeStatusCache) Get(_ context.Context, id int64) (*order.StatusSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, ok := c.snaps[id]
	if !ok {
		return nil, nil
	}

	return &snap, nil
}

func (c *fakeStatusCache) Set(_ context.Context, snap order.StatusSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snaps[snap.OrderID] = snap

	return nil
}
