package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Scope partitions idempotency keys. A response is replayed only to the same
// client on the same route for a byte-identical request body.
type Scope struct {
	Route  string
	Client string
	Body   []byte
}

// IdempotencyCache stores successful response bodies keyed by scope and the
// caller's Idempotency-Key header.
type IdempotencyCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyCache(client *redis.Client, ttl time.Duration) *IdempotencyCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &IdempotencyCache{client: client, ttl: ttl}
}

// Enabled reports whether a Redis client backs the cache.
func (c *IdempotencyCache) Enabled() bool {
	return c != nil && c.client != nil
}

func (c *IdempotencyCache) Get(ctx context.Context, scope Scope, key string) ([]byte, bool) {
	if !c.Enabled() || strings.TrimSpace(key) == "" {
		return nil, false
	}
	data, err := c.client.Get(ctx, c.prefixed(scope, key)).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *IdempotencyCache) Set(ctx context.Context, scope Scope, key string, value []byte) {
	if !c.Enabled() || strings.TrimSpace(key) == "" || len(value) == 0 {
		return
	}
	c.client.Set(ctx, c.prefixed(scope, key), value, c.ttl)
}

func (c *IdempotencyCache) prefixed(scope Scope, key string) string {
	sum := sha256.Sum256(scope.Body)
	return "idem:" + scope.Route + ":" + scope.Client + ":" + hex.EncodeToString(sum[:12]) + ":" + strings.TrimSpace(key)
}
