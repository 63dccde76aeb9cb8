package market

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"stockbot/types"

	"github.com/redis/go-redis/v9"
)

const quoteKeyPrefix = "stockbot:quote:"

// RedisQuoteCache shares fetched quotes between passes and processes so
// overlapping runs do not spend the rate-limited key twice.
type RedisQuoteCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisQuoteCache(client *redis.Client, ttl time.Duration) *RedisQuoteCache {
	return &RedisQuoteCache{client: client, ttl: ttl}
}

func (c *RedisQuoteCache) Get(ctx context.Context, ticker string) (*types.Quote, bool) {
	raw, err := c.client.Get(ctx, quoteKeyPrefix+ticker).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("quote cache read failed", "ticker", ticker, "error", err)
		}
		return nil, false
	}

	var q types.Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, false
	}
	return &q, true
}

func (c *RedisQuoteCache) Set(ctx context.Context, ticker string, q *types.Quote) {
	b, err := json.Marshal(q)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, quoteKeyPrefix+ticker, b, c.ttl).Err(); err != nil {
		slog.Warn("quote cache write failed", "ticker", ticker, "error", err)
	}
}
