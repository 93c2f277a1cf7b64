package providers

import (
	"context"

	"github.com/ncecere/ai_media_studio/internal/adapters/vertex"
	"github.com/ncecere/ai_media_studio/internal/config"
)

func init() {
	RegisterDefinition(Definition{
		Name:         "vertex",
		Description:  "Google Vertex AI generateContent",
		Capabilities: []string{"face_swap_analysis", "virtual_reshoot"},
		Builder:      buildVertex,
	})
}

func buildVertex(_ context.Context, cfg *config.Config, set *Set) (bool, error) {
	p := cfg.Providers
	set.Vertex = vertex.New(vertex.Options{
		ProjectID:         p.VertexProjectID,
		Location:          p.VertexLocation,
		Model:             cfg.Models.Default,
		Endpoint:          p.VertexEndpoint,
		CredentialsBase64: p.VertexCredentialsB64,
		CredentialsFile:   p.GoogleCredentialsFile,
	})
	return p.VertexConfigured(), nil
}
