package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const denylistKeyPrefix = "auth:revoked:"

// RedisDenylist stores revoked token ids as keys with a TTL matching
// the token expiry, so Redis handles expiry eviction itself.
type RedisDenylist struct {
	client *redis.Client
}

func NewRedisDenylist(client *redis.Client) *RedisDenylist {
	return &RedisDenylist{client: client}
}

func (d *RedisDenylist) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := d.client.Set(ctx, denylistKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("set revoked token: %w", err)
	}

	return nil
}

func (d *RedisDenylist) Contains(ctx context.Context, jti string) (bool, error) {
	count, err := d.client.Exists(ctx, denylistKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}

	return count > 0, nil
}
