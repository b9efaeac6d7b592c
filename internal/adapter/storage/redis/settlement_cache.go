package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// SettlementCache implements ports.SettlementCache. It remembers the
// serialized result of a completed settlement so replayed verifications
// can be answered without touching PostgreSQL.
type SettlementCache struct {
	client *goredis.Client
	prefix string
}

// NewSettlementCache creates a Redis-backed settlement cache.
func NewSettlementCache(client *goredis.Client) *SettlementCache {
	return &SettlementCache{
		client: client,
		prefix: "settlement:",
	}
}

// Get returns nil, nil on a miss.
func (c *SettlementCache) Get(ctx context.Context, orderID string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+orderID).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get settlement: %w", err)
	}
	return val, nil
}

func (c *SettlementCache) Set(ctx context.Context, orderID string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+orderID, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set settlement: %w", err)
	}
	return nil
}
