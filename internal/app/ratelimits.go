package app

import (
	"context"
	"strings"

	"github.com/ncecere/ai_media_studio/internal/config"
	"github.com/ncecere/ai_media_studio/internal/limits"
)

// ClientLimitConfig converts the configured per-client limits.
func ClientLimitConfig(cfg config.RateLimitConfig) limits.LimitConfig {
	return limits.LimitConfig{
		RequestsPerMinute: cfg.RequestsPerMinute,
		ParallelRequests:  cfg.ParallelRequests,
	}
}

// AcquireClientLimit applies the per-client limits keyed by remote address.
// The returned release func is always safe to call.
func (c *Container) AcquireClientLimit(ctx context.Context, clientIP string) (func(), error) {
	noop := func() {}
	if c == nil || c.RateLimiter == nil || !c.ClientLimit.Enabled() {
		return noop, nil
	}
	clientIP = strings.TrimSpace(clientIP)
	if clientIP == "" {
		clientIP = "unknown"
	}
	release, err := c.RateLimiter.Acquire(ctx, "client:"+clientIP, c.ClientLimit)
	if err != nil {
		return noop, err
	}
	return release, nil
}
