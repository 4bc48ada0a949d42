package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const cacheKey = "rates:latest"

// ErrCacheMiss is returned when no cached table exists.
var ErrCacheMiss = errors.New("rate cache miss")

// Cache persists the last good rate table between runs.
type Cache interface {
	Load(ctx context.Context) (*Table, error)
	Store(ctx context.Context, table *Table) error
}

// RedisCache keeps the table under a single key. The redis TTL matches the
// freshness window as a backstop; staleness is still checked on the
// timestamp so a table surviving past its TTL is never trusted.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Load(ctx context.Context) (*Table, error) {
	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("unmarshal rate table failed: %w", err)
	}
	return &table, nil
}

func (c *RedisCache) Store(ctx context.Context, table *Table) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("marshal rate table failed: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey, data, FreshFor).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}
