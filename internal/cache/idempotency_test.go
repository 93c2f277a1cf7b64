package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func imageScope(client, body string) Scope {
	return Scope{Route: "generateImage", Client: client, Body: []byte(body)}
}

func TestIdempotencyCacheRoundTrip(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	c := NewIdempotencyCache(client, time.Minute)
	ctx := context.Background()
	scope := imageScope("10.0.0.1", `{"prompt":"knight"}`)

	_, ok := c.Get(ctx, scope, "abc")
	require.False(t, ok)

	c.Set(ctx, scope, "abc", []byte(`{"success":true}`))
	data, ok := c.Get(ctx, scope, "abc")
	require.True(t, ok)
	require.JSONEq(t, `{"success":true}`, string(data))

	server.FastForward(2 * time.Minute)
	_, ok = c.Get(ctx, scope, "abc")
	require.False(t, ok, "entries expire after ttl")
}

func TestIdempotencyCacheScopes(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	c := NewIdempotencyCache(client, time.Minute)
	ctx := context.Background()
	stored := imageScope("10.0.0.1", `{"prompt":"knight","userId":"u-1"}`)
	c.Set(ctx, stored, "abc", []byte(`{"success":true}`))

	tests := []struct {
		name  string
		scope Scope
	}{
		{name: "other route", scope: Scope{Route: "generateVideo", Client: stored.Client, Body: stored.Body}},
		{name: "other client", scope: imageScope("10.0.0.2", string(stored.Body))},
		{name: "other body", scope: imageScope("10.0.0.1", `{"prompt":"dragon"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := c.Get(ctx, tt.scope, "abc")
			require.False(t, ok)
		})
	}
}

func TestIdempotencyCacheDisabled(t *testing.T) {
	c := NewIdempotencyCache(nil, 0)
	require.False(t, c.Enabled())
	scope := imageScope("10.0.0.1", "{}")
	c.Set(context.Background(), scope, "k", []byte("x"))
	_, ok := c.Get(context.Background(), scope, "k")
	require.False(t, ok)

	var nilCache *IdempotencyCache
	_, ok = nilCache.Get(context.Background(), scope, "k")
	require.False(t, ok)
}

func TestIdempotencyCacheIgnoresBlankKey(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	c := NewIdempotencyCache(client, time.Minute)
	c.Set(context.Background(), imageScope("10.0.0.1", "{}"), "  ", []byte("x"))
	require.Empty(t, server.Keys())
}
