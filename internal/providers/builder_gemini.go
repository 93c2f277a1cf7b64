package providers

import (
	"context"
	"strings"

	"github.com/ncecere/ai_media_studio/internal/adapters/gemini"
	"github.com/ncecere/ai_media_studio/internal/config"
)

func init() {
	RegisterDefinition(Definition{
		Name:         "gemini",
		Description:  "Google Generative AI (API key)",
		Capabilities: []string{"image_description", "storyboard"},
		Builder:      buildGemini,
	})
}

func buildGemini(ctx context.Context, cfg *config.Config, set *Set) (bool, error) {
	if strings.TrimSpace(cfg.Providers.AIKey) == "" {
		set.Gemini = unconfigured{err: gemini.MissingKeyError()}
		return false, nil
	}
	adapter, err := gemini.New(ctx, gemini.Options{
		APIKey: cfg.Providers.AIKey,
		Model:  cfg.Providers.GeminiModel,
	})
	if err != nil {
		return false, err
	}
	set.Gemini = adapter
	return true, nil
}
