package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ncecere/ai_media_studio/internal/config"
	"github.com/ncecere/ai_media_studio/internal/models"
)

func TestBuildWithoutCredentials(t *testing.T) {
	cfg := &config.Config{}
	require.NoError(t, cfg.Validate())

	set, err := Build(context.Background(), cfg)
	require.NoError(t, err)

	statuses := set.Statuses()
	require.Len(t, statuses, 3)
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.Name)
		require.False(t, s.Configured, s.Name)
	}
	require.Equal(t, []string{"faceswap", "gemini", "vertex"}, names)

	_, err = set.Gemini.Generate(context.Background(), models.GenerationRequest{})
	require.ErrorIs(t, err, ErrNotConfigured)
	require.EqualError(t, err, "AI_KEY is not configured")

	_, err = set.Vertex.Generate(context.Background(), models.GenerationRequest{Parts: []models.Part{models.TextPart("x")}})
	require.ErrorIs(t, err, ErrNotConfigured)

	_, err = set.FaceSwap.Swap(context.Background(), models.Upload{}, models.Upload{})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestBuildWithCredentials(t *testing.T) {
	cfg := &config.Config{}
	cfg.Providers.AIKey = "test-key"
	cfg.Providers.VertexProjectID = "studio"
	cfg.FaceSwap.URL = "http://faceswap.internal/swap"
	require.NoError(t, cfg.Validate())

	set, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	for _, s := range set.Statuses() {
		require.True(t, s.Configured, s.Name)
	}
}

func TestDefinitionsAreSorted(t *testing.T) {
	defs := DefaultDefinitions()
	for i := 1; i < len(defs); i++ {
		require.Less(t, defs[i-1].Name, defs[i].Name)
	}
}
