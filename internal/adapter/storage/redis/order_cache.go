package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// OrderCache implements ports.OrderIdempotencyCache using Redis. It is the
// fast path for duplicate webhook deliveries; the DB unique constraint stays
// the source of truth, so a cold or flushed cache only costs a round trip.
type OrderCache struct {
	client *goredis.Client
	prefix string
}

// NewOrderCache creates a new Redis-backed order idempotency cache.
func NewOrderCache(client *goredis.Client) *OrderCache {
	return &OrderCache{
		client: client,
		prefix: "order_idem:",
	}
}

// Get retrieves the cached order JSON for a delivery key.
// Returns nil, nil if the key does not exist.
func (c *OrderCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis order cache get: %w", err)
	}
	return val, nil
}

// Set stores the order JSON for a delivery key with TTL.
func (c *OrderCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.client.Set(ctx, c.prefix+key, value, ttl).Err()
	if err != nil {
		return fmt.Errorf("redis order cache set: %w", err)
	}
	return nil
}
