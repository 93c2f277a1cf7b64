package redisclient

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/ncecere/ai_media_studio/internal/config"
)

func TestNewWithoutURL(t *testing.T) {
	require.Nil(t, New(config.RedisConfig{}))
	require.Error(t, Ping(context.Background(), nil))
}

func TestNewParsesURLAndBareAddr(t *testing.T) {
	server := miniredis.RunT(t)

	for _, url := range []string{"redis://" + server.Addr() + "/0", server.Addr()} {
		client := New(config.RedisConfig{URL: url, PoolSize: 2})
		require.NotNil(t, client)
		require.NoError(t, Ping(context.Background(), client))
		require.Equal(t, 2, client.Options().PoolSize)
		require.NoError(t, client.Close())
	}
}
