package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/corray333/food-ordering/internal/service/models/order"
	"github.com/redis/go-redis/v9"
)

// order_status:{order_id} -> StatusSnapshot JSON
const keyOrderStatus = "order_status:%d"

// StatusCacheRepository caches order status snapshots for the admin API.
type StatusCacheRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewStatusCacheRepository(rdb redis.Cmdable, ttl time.Duration) *StatusCacheRepository {
	return &StatusCacheRepository{rdb: rdb, ttl: ttl}
}

// Get returns nil on a cache miss.
func (r *StatusCacheRepository) Get(ctx context.Context, orderID int64) (*order.StatusSnapshot, error) {
	raw, err := r.rdb.Get(ctx, fmt.Sprintf(keyOrderStatus, orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read status cache: %w", err)
	}

	var snap order.StatusSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode status cache: %w", err)
	}

	return &snap, nil
}

func (r *StatusCacheRepository) Set(ctx context.Context, snap order.StatusSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode status cache: %w", err)
	}

	if err := r.rdb.Set(ctx, fmt.Sprintf(keyOrderStatus, snap.OrderID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write status cache: %w", err)
	}

	return nil
}
