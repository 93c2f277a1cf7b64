package providers

import (
	"context"

	"github.com/ncecere/ai_media_studio/internal/adapters/faceswap"
	"github.com/ncecere/ai_media_studio/internal/config"
)

func init() {
	RegisterDefinition(Definition{
		Name:         "faceswap",
		Description:  "External face swap HTTP service",
		Capabilities: []string{"face_swap"},
		Builder:      buildFaceSwap,
	})
}

func buildFaceSwap(_ context.Context, cfg *config.Config, set *Set) (bool, error) {
	client := faceswap.New(faceswap.Config{
		URL:     cfg.FaceSwap.URL,
		APIKey:  cfg.FaceSwap.APIKey,
		Timeout: cfg.FaceSwap.Timeout,
	})
	set.FaceSwap = client
	return client.Configured(), nil
}
