package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPreferences stores the selected display currency per session. No TTL:
// the preference outlives the cart.
type RedisPreferences struct {
	client *redis.Client
}

func NewRedisPreferences(client *redis.Client) *RedisPreferences {
	return &RedisPreferences{client: client}
}

func (r *RedisPreferences) Currency(ctx context.Context, sessionID string) (string, error) {
	code, err := r.client.Get(ctx, currencyKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return code, nil
}

func (r *RedisPreferences) SetCurrency(ctx context.Context, sessionID, code string) error {
	if err := r.client.Set(ctx, currencyKey(sessionID), code, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func currencyKey(sessionID string) string {
	return fmt.Sprintf("currency:%s", sessionID)
}
