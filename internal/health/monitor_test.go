package health

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ncecere/ai_media_studio/internal/config"
	"github.com/ncecere/ai_media_studio/internal/providers"
)

func TestCheckWithoutRedis(t *testing.T) {
	set, err := providers.Build(context.Background(), &config.Config{})
	require.NoError(t, err)

	m := NewMonitor(nil, set, config.HealthConfig{})
	report := m.Check(context.Background())

	require.Equal(t, StatusOK, report.Status)
	require.Empty(t, report.Checks)
	require.Len(t, report.Providers, len(providers.DefaultDefinitions()))
	for _, p := range report.Providers {
		require.False(t, p.Configured, p.Name)
	}
}

func TestCheckReportsRedisOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	m := NewMonitor(client, nil, config.HealthConfig{CheckInterval: time.Minute, Timeout: time.Second})

	report := m.Check(context.Background())
	require.Equal(t, StatusOK, report.Status)
	require.Equal(t, StatusOK, report.Checks["redis"].Status)

	mr.Close()
	report = m.Check(context.Background())
	require.Equal(t, StatusDegraded, report.Status)
	require.Equal(t, StatusError, report.Checks["redis"].Status)
	require.NotEmpty(t, report.Checks["redis"].Error)

	latest, ok := m.Latest()
	require.True(t, ok)
	require.Equal(t, StatusDegraded, latest.Status)
}

func TestLatestBeforeFirstCheck(t *testing.T) {
	m := NewMonitor(nil, nil, config.HealthConfig{})
	_, ok := m.Latest()
	require.False(t, ok)
}
