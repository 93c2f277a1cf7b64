package providers

import (
	"context"
	"encoding/json"

	"github.com/ncecere/ai_media_studio/internal/adapters/faceswap"
	"github.com/ncecere/ai_media_studio/internal/models"
)

// ErrNotConfigured is matched by every missing-credential failure.
var ErrNotConfigured = models.ErrNotConfigured

// Generator performs one content generation call.
type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (models.GenerationOutput, error)
}

// RawGenerator forwards caller-built contents without reshaping them.
type RawGenerator interface {
	GenerateRaw(ctx context.Context, model string, contents json.RawMessage, params models.GenerationParams) (models.GenerationOutput, error)
}

// VertexGenerator is implemented by the Vertex AI adapter.
type VertexGenerator interface {
	Generator
	RawGenerator
}

// FaceSwapper relays an image pair to the external face swap service.
type FaceSwapper interface {
	Swap(ctx context.Context, modelImage, avatarImage models.Upload) (faceswap.Relay, error)
}

type unconfigured struct {
	err error
}

func (u unconfigured) Generate(context.Context, models.GenerationRequest) (models.GenerationOutput, error) {
	return models.GenerationOutput{}, u.err
}

func (u unconfigured) GenerateRaw(context.Context, string, json.RawMessage, models.GenerationParams) (models.GenerationOutput, error) {
	return models.GenerationOutput{}, u.err
}
