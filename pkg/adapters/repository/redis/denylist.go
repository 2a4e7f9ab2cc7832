package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

// TokenDenylist stores revoked token ids with a TTL matching the token's
// remaining lifetime, so entries disappear once the token would fail anyway.
type TokenDenylist struct {
	client *redis.Client
}

func NewTokenDenylist(client *redis.Client) *TokenDenylist {
	return &TokenDenylist{client: client}
}

// NewClient parses a redis:// URL and checks the server is reachable.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func revokedKey(jti string) string {
	return fmt.Sprintf("revoked:%s", jti)
}

func (d *TokenDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return d.client.Set(ctx, revokedKey(jti), 1, ttl).Err()
}

func (d *TokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.client.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *TokenDenylist) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

var _ ports.TokenDenylist = (*TokenDenylist)(nil)
