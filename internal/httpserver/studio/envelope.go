package studio

import (
	"fmt"
	"time"

	"github.com/ncecere/ai_media_studio/internal/config"
	"github.com/ncecere/ai_media_studio/internal/models"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// Generation id prefixes per endpoint.
const (
	prefixImage   = "gen"
	prefixVideo   = "vid"
	prefixSwap    = "swap"
	prefixReshoot = "reshoot"
)

// newGenerationID is not unique across processes or within one millisecond.
func newGenerationID(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%d", prefix, now.UnixMilli())
}

func formatTimestamp(now time.Time) string {
	return now.UTC().Format(timestampLayout)
}

func defaultParams(cfg config.GenerationConfig) models.GenerationParams {
	temperature := cfg.Temperature
	topP := cfg.TopP
	topK := cfg.TopK
	maxTokens := cfg.MaxOutputTokens
	return models.GenerationParams{
		Temperature:     &temperature,
		TopP:            &topP,
		TopK:            &topK,
		MaxOutputTokens: &maxTokens,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
