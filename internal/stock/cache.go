package stock

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// QuantityCache is a read-through cache for stock quantities. It only backs
// the HTTP read path; transactional reads always hit the database.
type QuantityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewQuantityCache constructs QuantityCache.
func NewQuantityCache(client *redis.Client, ttl time.Duration) *QuantityCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &QuantityCache{client: client, ttl: ttl}
}

func quantityKey(storeID, productID int64) string {
	return fmt.Sprintf("stock:qty:%d:%d", storeID, productID)
}

// Get returns the cached quantity and whether it was present.
func (c *QuantityCache) Get(ctx context.Context, storeID, productID int64) (float64, bool) {
	if c == nil || c.client == nil {
		return 0, false
	}
	val, err := c.client.Get(ctx, quantityKey(storeID, productID)).Result()
	if err != nil {
		return 0, false
	}
	qty, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return qty, true
}

// Set stores a quantity with the configured TTL.
func (c *QuantityCache) Set(ctx context.Context, storeID, productID int64, qty float64) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Set(ctx, quantityKey(storeID, productID), strconv.FormatFloat(qty, 'f', -1, 64), c.ttl).Err()
}

// Invalidate drops the cached quantity after a write.
func (c *QuantityCache) Invalidate(ctx context.Context, storeID, productID int64) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, quantityKey(storeID, productID)).Err()
}
