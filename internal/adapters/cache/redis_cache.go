package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"coinvest-api/internal/core/domain"

	"github.com/redis/go-redis/v9"
)

const defaultPrincipalPrefix = "coinvest:principal:"

// RedisPrincipalCache stores principal snapshots as JSON in Redis
type RedisPrincipalCache struct {
	client *redis.Client
	prefix string
}

// NewRedisPrincipalCache creates a Redis-backed principal cache
func NewRedisPrincipalCache(client *redis.Client, prefix string) *RedisPrincipalCache {
	if prefix == "" {
		prefix = defaultPrincipalPrefix
	}
	return &RedisPrincipalCache{client: client, prefix: prefix}
}

// Get returns the cached principal, if any
func (c *RedisPrincipalCache) Get(ctx context.Context, userID string) (*domain.Principal, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var p domain.Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		// corrupt entry: treat as a miss and let the caller overwrite it
		return nil, false, nil
	}
	return &p, true, nil
}

// Set stores a principal for ttl
func (c *RedisPrincipalCache) Set(ctx context.Context, p *domain.Principal, ttl time.Duration) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+p.ID, raw, ttl).Err()
}

// Invalidate removes a principal
func (c *RedisPrincipalCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, c.prefix+userID).Err()
}
