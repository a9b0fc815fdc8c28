// Package pricecache publishes each symbol's last traded price to Redis so
// that other matching-engine instances (or read-only BBO services) can
// serve a recent price without routing through this process's lanes. It is
// a read-through cache of StopMonitor's last price, never a source of
// truth: a miss or a stale entry never blocks or alters matching.
package pricecache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultTTL = 30 * time.Second

// Cache wraps a Redis client scoped to one key prefix.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// New wraps an already-constructed redis.Client. client may be nil, in
// which case the returned Cache is a no-op — callers don't need a separate
// "is caching enabled" check at every call site.
func New(client *redis.Client, prefix string, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = "matching-engine:last-price:"
	}
	return &Cache{client: client, prefix: prefix, ttl: defaultTTL, logger: logger}
}

func (c *Cache) key(symbol string) string {
	return c.prefix + symbol
}

// SetLastPrice is called fire-and-forget from the owning lane after every
// trade; a Redis error here never propagates back into the matching path.
func (c *Cache) SetLastPrice(ctx context.Context, symbol string, price decimal.Decimal) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Set(ctx, c.key(symbol), price.String(), c.ttl).Err(); err != nil {
		c.logger.Warn("failed to publish last price to redis", zap.String("symbol", symbol), zap.Error(err))
	}
}

// GetLastPrice reads the most recently cached price for symbol. ok is false
// if caching is disabled or the key is absent or expired.
func (c *Cache) GetLastPrice(ctx context.Context, symbol string) (price decimal.Decimal, ok bool, err error) {
	if c == nil || c.client == nil {
		return decimal.Decimal{}, false, nil
	}
	raw, err := c.client.Get(ctx, c.key(symbol)).Result()
	if err == redis.Nil {
		return decimal.Decimal{}, false, nil
	}
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("read last price for %s: %w", symbol, err)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("parse cached last price for %s: %w", symbol, err)
	}
	return d, true, nil
}
