// Package cache provides the Redis-backed quote cache. Pricing is read-heavy
// and deal windows change rarely, so a short TTL absorbs most catalog reads.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kawanestudio/storefront/internal/domain/deal"
)

var _ deal.QuoteCache = (*QuoteCache)(nil)

// QuoteCache caches pricing quotes in Redis as JSON. Every failure is treated
// as a miss; the cache must never make pricing less available than no cache.
type QuoteCache struct {
	rdb *redis.Client
	ttl time.Duration
	lg  *zap.Logger
}

// NewQuoteCache creates a QuoteCache with the given TTL.
func NewQuoteCache(rdb *redis.Client, ttl time.Duration, lg *zap.Logger) *QuoteCache {
	return &QuoteCache{rdb: rdb, ttl: ttl, lg: lg}
}

func quoteKey(productID string) string {
	return "quote:" + productID
}

// Get returns the cached quote for a product, reporting false on a miss or
// any Redis failure.
func (c *QuoteCache) Get(ctx context.Context, productID string) (*deal.Quote, bool) {
	raw, err := c.rdb.Get(ctx, quoteKey(productID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.lg.Warn("quote cache get failed", zap.String("product_id", productID), zap.Error(err))
		}
		return nil, false
	}

	var q deal.Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		c.lg.Warn("quote cache decode failed", zap.String("product_id", productID), zap.Error(err))
		return nil, false
	}
	return &q, true
}

// Set stores the quote with the configured TTL, best-effort.
func (c *QuoteCache) Set(ctx context.Context, q *deal.Quote) {
	raw, err := json.Marshal(q)
	if err != nil {
		c.lg.Warn("quote cache encode failed", zap.String("product_id", q.ProductID), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, quoteKey(q.ProductID), raw, c.ttl).Err(); err != nil {
		c.lg.Warn("quote cache set failed", zap.String("product_id", q.ProductID), zap.Error(err))
	}
}
