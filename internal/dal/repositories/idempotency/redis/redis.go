package redisrepo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// idem:order:create:{user_id}:{key} -> "pending" | order_id
	keyIdemOrderCreate = "idem:order:create:%d:%s"
	pendingMarker      = "pending"
)

// IdempotencyRepository remembers which order a client-supplied key produced.
type IdempotencyRepository struct {
	rdb redis.Cmdable
}

func NewIdempotencyRepository(rdb redis.Cmdable) *IdempotencyRepository {
	return &IdempotencyRepository{rdb: rdb}
}

func idemKey(userID int64, key string) string {
	return fmt.Sprintf(keyIdemOrderCreate, userID, key)
}

// Reserve claims key for the caller. When the key is already claimed it returns
// the order id stored for it, or 0 while the first request is still running.
func (r *IdempotencyRepository) Reserve(
	ctx context.Context,
	userID int64,
	key string,
	ttl time.Duration,
) (orderID int64, reserved bool, err error) {
	k := idemKey(userID, key)

	for attempt := 0; attempt < 2; attempt++ {
		ok, err := r.rdb.SetNX(ctx, k, pendingMarker, ttl).Result()
		if err != nil {
			return 0, false, fmt.Errorf("failed to reserve idempotency key: %w", err)
		}
		if ok {
			return 0, true, nil
		}

		val, err := r.rdb.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			// expired between SETNX and GET
			continue
		}
		if err != nil {
			return 0, false, fmt.Errorf("failed to read idempotency key: %w", err)
		}
		if val == pendingMarker {
			return 0, false, nil
		}

		id, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("corrupt idempotency value %q: %w", val, err)
		}

		return id, false, nil
	}

	return 0, false, nil
}

// Complete stores the created order id under key.
func (r *IdempotencyRepository) Complete(
	ctx context.Context,
	userID int64,
	key string,
	orderID int64,
	ttl time.Duration,
) error {
	if err := r.rdb.Set(ctx, idemKey(userID, key), orderID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to complete idempotency key: %w", err)
	}

	return nil
}

// Release frees key after a failed attempt so the client may retry.
func (r *IdempotencyRepository) Release(ctx context.Context, userID int64, key string) error {
	if err := r.rdb.Del(ctx, idemKey(userID, key)).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}

	return nil
}
