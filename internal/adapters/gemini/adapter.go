// Package gemini calls the Google Generative AI API with an API key.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/ncecere/ai_media_studio/internal/models"
)

// Options configure the Gemini adapter.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	// Models replaces the SDK model service; tests use it to avoid the network.
	Models Models
}

// Adapter generates content through the Generative AI API.
type Adapter struct {
	models Models
	model  string
}

// New builds the SDK client once. An empty key yields a configuration error.
func New(ctx context.Context, opts Options) (*Adapter, error) {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, errors.New("gemini: model id required")
	}
	if opts.Models != nil {
		return &Adapter{models: opts.Models, model: model}, nil
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, MissingKeyError()
	}
	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Adapter{models: &modelsWrapper{models: client.Models}, model: model}, nil
}

// MissingKeyError is returned for every call made without an API key.
func MissingKeyError() error {
	return &models.ConfigError{
		Setting: "AI_KEY",
		Message: "The Generative AI API key is missing on the server.",
		Hint:    "Set the AI_KEY environment variable and restart the service.",
	}
}

func (a *Adapter) Generate(ctx context.Context, req models.GenerationRequest) (models.GenerationOutput, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = a.model
	}
	contents, err := buildContents(req.Parts)
	if err != nil {
		return models.GenerationOutput{}, err
	}
	resp, err := a.models.GenerateContent(ctx, model, contents, buildConfig(req.Params))
	if err != nil {
		return models.GenerationOutput{}, fmt.Errorf("gemini generate content: %w", err)
	}
	return convertResponse(resp, model)
}

func buildContents(parts []models.Part) ([]*genai.Content, error) {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		switch {
		case p.InlineData != nil:
			if p.InlineData.IsEmpty() {
				continue
			}
			data, err := p.InlineData.Bytes()
			if err != nil {
				return nil, fmt.Errorf("gemini: decode inline data: %w", err)
			}
			out = append(out, genai.NewPartFromBytes(data, p.InlineData.MIMEType))
		case strings.TrimSpace(p.Text) != "":
			out = append(out, genai.NewPartFromText(p.Text))
		}
	}
	if len(out) == 0 {
		return nil, errors.New("gemini: request has no content parts")
	}
	return []*genai.Content{genai.NewContentFromParts(out, genai.Role(genai.RoleUser))}, nil
}

func buildConfig(params models.GenerationParams) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: params.Temperature,
		TopP:        params.TopP,
		TopK:        params.TopK,
	}
	if params.MaxOutputTokens != nil {
		cfg.MaxOutputTokens = *params.MaxOutputTokens
	}
	return cfg
}

func convertResponse(resp *genai.GenerateContentResponse, model string) (models.GenerationOutput, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return models.GenerationOutput{}, errors.New("gemini response missing candidates")
	}
	var (
		text         strings.Builder
		finishReason string
	)
	for _, candidate := range resp.Candidates {
		if candidate == nil {
			continue
		}
		if candidate.FinishReason != "" {
			finishReason = strings.ToLower(string(candidate.FinishReason))
		}
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought || part.Text == "" {
				continue
			}
			text.WriteString(part.Text)
		}
		break
	}
	out := models.GenerationOutput{
		Model:        model,
		Text:         text.String(),
		FinishReason: finishReason,
	}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if usage := resp.UsageMetadata; usage != nil {
		out.Usage = models.Usage{
			PromptTokens:     usage.PromptTokenCount,
			CompletionTokens: usage.CandidatesTokenCount,
			TotalTokens:      usage.TotalTokenCount,
		}
	}
	if strings.TrimSpace(out.Text) == "" {
		return out, errors.New("gemini response contained no text")
	}
	return out, nil
}
