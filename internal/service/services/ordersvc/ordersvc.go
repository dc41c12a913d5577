package ordersvc

import (
	"context"
	"math"
	"time"

	"github.com/corray333/food-ordering/internal/dal/interfaces/imenurepo"
	"github.com/corray333/food-ordering/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/food-ordering/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/food-ordering/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/food-ordering/internal/dal/postgres"
	"github.com/corray333/food-ordering/internal/dal/uow"
	"github.com/corray333/food-ordering/internal/service/models/currency"
	"github.com/corray333/food-ordering/internal/service/models/order"
)

const (
	defaultEstimatedTime  = "25-30 minutes"
	defaultLimit          = 10
	defaultMaxLimit       = 100
	defaultIdempotencyTTL = 24 * time.Hour
	defaultInFlightTTL    = time.Minute
	maxLineQuantity       = math.MaxInt32
)

// OrderService places orders and serves them back to their owners.
type OrderService struct {
	pgClient    *postgres.Client
	uowFactory  func() unitOfWork
	idempotency idempotencyStore
	statusCache statusCache
	events      *EventSettings

	currency       currency.Currency
	estimatedTime  string
	defaultLimit   int
	maxLimit       int
	idempotencyTTL time.Duration
	inFlightTTL    time.Duration
	now            func() time.Time
}

func (s *OrderService) newUOW() unitOfWork {
	if s.uowFactory != nil {
		return s.uowFactory()
	}

	return uow.NewUnitOfWork(s.pgClient)
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	MenuRepository() imenurepo.IMenuRepository
	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

type idempotencyStore interface {
	Reserve(ctx context.Context, userID int64, key string, ttl time.Duration) (int64, bool, error)
	Complete(ctx context.Context, userID int64, key string, orderID int64, ttl time.Duration) error
	Release(ctx context.Context, userID int64, key string) error
}

type statusCache interface {
	Get(ctx context.Context, orderID int64) (*order.StatusSnapshot, error)
	Set(ctx context.Context, snap order.StatusSnapshot) error
}

// EventSettings says where order events are addressed when they are written to the outbox.
type EventSettings struct {
	Producer                string
	Exchange                string
	PlacedRoutingKey        string
	StatusChangedRoutingKey string
	MaxRetries              int
}

// Option configures the OrderService.
type Option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...Option) *OrderService {
	s := &OrderService{
		currency:       currency.CurrencyUSD,
		estimatedTime:  defaultEstimatedTime,
		defaultLimit:   defaultLimit,
		maxLimit:       defaultMaxLimit,
		idempotencyTTL: defaultIdempotencyTTL,
		inFlightTTL:    defaultInFlightTTL,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.pgClient == nil && s.uowFactory == nil {
		panic("order service needs a postgres client")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
func WithPostgresClient(pgClient *postgres.Client) Option {
	return func(s *OrderService) {
		s.pgClient = pgClient
	}
}

// WithIdempotencyStore enables Idempotency-Key handling on placement.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithIdempotencyStore(store idempotencyStore, ttl time.Duration) Option {
	return func(s *OrderService) {
		s.idempotency = store
		if ttl > 0 {
			s.idempotencyTTL = ttl
		}
	}
}

// WithIdempotencyInFlightTTL bounds how long a key stays claimed by a placement that never finished.
func WithIdempotencyInFlightTTL(ttl time.Duration) Option {
	return func(s *OrderService) {
		if ttl > 0 {
			s.inFlightTTL = ttl
		}
	}
}

// WithStatusCache enables the read-through status cache.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithStatusCache(cache statusCache) Option {
	return func(s *OrderService) {
		s.statusCache = cache
	}
}

// WithEvents makes placement and status updates write events to the outbox.
func WithEvents(settings EventSettings) Option {
	return func(s *OrderService) {
		s.events = &settings
	}
}

func WithCurrency(c currency.Currency) Option {
	return func(s *OrderService) {
		s.currency = c
	}
}

func WithEstimatedTime(estimate string) Option {
	return func(s *OrderService) {
		if estimate != "" {
			s.estimatedTime = estimate
		}
	}
}

// WithPagination sets the default and maximum page size of order listings.
func WithPagination(defaultLimit, maxLimit int) Option {
	return func(s *OrderService) {
		if defaultLimit > 0 {
			s.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
	}
}
