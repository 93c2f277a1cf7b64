package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/ncecere/ai_media_studio/internal/archive"
	"github.com/ncecere/ai_media_studio/internal/cache"
	"github.com/ncecere/ai_media_studio/internal/config"
	"github.com/ncecere/ai_media_studio/internal/health"
	"github.com/ncecere/ai_media_studio/internal/limits"
	"github.com/ncecere/ai_media_studio/internal/media"
	"github.com/ncecere/ai_media_studio/internal/observability"
	"github.com/ncecere/ai_media_studio/internal/providers"
	"github.com/ncecere/ai_media_studio/internal/storage/blob"
)

// Container aggregates runtime dependencies for handlers.
type Container struct {
	Config        *config.Config
	Redis         *redis.Client
	Providers     *providers.Set
	Normalizer    *media.Normalizer
	RateLimiter   *limits.RateLimiter
	ClientLimit   limits.LimitConfig
	Idempotency   *cache.IdempotencyCache
	Archive       *archive.Archive
	HealthMon     *health.Monitor
	Observability *observability.Provider
}

// NewContainer builds a dependency container from the provided primitives.
// redisClient may be nil, which disables rate limits and idempotency replay.
func NewContainer(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	set, err := providers.Build(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init providers: %w", err)
	}

	obsProvider, err := observability.Setup(ctx, cfg.Observability)
	if err != nil {
		return nil, fmt.Errorf("setup observability: %w", err)
	}

	var store blob.Store
	if cfg.Archive.Enabled {
		store, err = blob.New(ctx, cfg.Archive)
		if err != nil {
			return nil, fmt.Errorf("init archive store: %w", err)
		}
	}

	monitor := health.NewMonitor(redisClient, set, cfg.Health)
	monitor.Start(ctx)

	for _, status := range set.Statuses() {
		if !status.Configured {
			slog.Warn("provider not configured; requests will fail until credentials are set", "provider", status.Name)
		}
	}

	return &Container{
		Config:        cfg,
		Redis:         redisClient,
		Providers:     set,
		Normalizer:    media.NewNormalizer(media.NewHTTPFetcher(cfg.Fetch)),
		RateLimiter:   limits.NewRateLimiter(redisClient),
		ClientLimit:   ClientLimitConfig(cfg.RateLimits),
		Idempotency:   cache.NewIdempotencyCache(redisClient, cfg.Idempotency.TTL),
		Archive:       archive.New(store),
		HealthMon:     monitor,
		Observability: obsProvider,
	}, nil
}
