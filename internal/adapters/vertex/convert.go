package vertex

import (
	"errors"
	"strings"

	"github.com/ncecere/ai_media_studio/internal/models"
)

func buildGenerateContentRequest(req models.GenerationRequest) (vertexGenerateRequest, error) {
	parts := make([]vertexPart, 0, len(req.Parts))
	for _, p := range req.Parts {
		switch {
		case p.InlineData != nil:
			if p.InlineData.IsEmpty() {
				continue
			}
			data := *p.InlineData
			if data.MIMEType == "" {
				data.MIMEType = models.DefaultMIMEType
			}
			parts = append(parts, vertexPart{InlineData: &data})
		case strings.TrimSpace(p.Text) != "":
			parts = append(parts, vertexPart{Text: p.Text})
		}
	}
	if len(parts) == 0 {
		return vertexGenerateRequest{}, errors.New("vertex: request has no content parts")
	}
	return vertexGenerateRequest{
		Contents:         []vertexContent{{Role: "user", Parts: parts}},
		GenerationConfig: convertParams(req.Params),
	}, nil
}

func convertParams(p models.GenerationParams) *vertexGenerationConfig {
	if p.MaxOutputTokens == nil && p.Temperature == nil && p.TopP == nil && p.TopK == nil {
		return nil
	}
	return &vertexGenerationConfig{
		MaxOutputTokens: p.MaxOutputTokens,
		Temperature:     p.Temperature,
		TopP:            p.TopP,
		TopK:            p.TopK,
	}
}
