package studio

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ncecere/ai_media_studio/internal/httpserver/httputil"
	"github.com/ncecere/ai_media_studio/internal/media"
	"github.com/ncecere/ai_media_studio/internal/models"
	"github.com/ncecere/ai_media_studio/internal/pipeline"
	"github.com/ncecere/ai_media_studio/internal/prompt"
)

type generateImageRequest struct {
	Prompt           string `json:"prompt"`
	Identity         any    `json:"identity"`
	CharacterName    string `json:"characterName"`
	DressImage       string `json:"dressImage"`
	Gender           string `json:"gender"`
	Country          string `json:"country"`
	SkinTone         string `json:"skinTone"`
	Style            string `json:"style"`
	AdditionalPrompt string `json:"additionalPrompt"`
}

type generateImageResponse struct {
	Success          bool   `json:"success"`
	GenerationID     string `json:"generationId"`
	Model            string `json:"model"`
	Description      string `json:"description"`
	Prompt           string `json:"prompt"`
	Identity         any    `json:"identity,omitempty"`
	CharacterName    string `json:"characterName,omitempty"`
	Gender           string `json:"gender,omitempty"`
	Country          string `json:"country,omitempty"`
	SkinTone         string `json:"skinTone,omitempty"`
	Style            string `json:"style,omitempty"`
	AdditionalPrompt string `json:"additionalPrompt,omitempty"`
	HasDressImage    bool   `json:"hasDressImage"`
	Timestamp        string `json:"timestamp"`
}

type generateVideoRequest struct {
	Prompt        string `json:"prompt"`
	CharacterName string `json:"characterName"`
	Origin        string `json:"origin"`
	Duration      int    `json:"duration"`
}

type generateVideoResponse struct {
	Success       bool   `json:"success"`
	GenerationID  string `json:"generationId"`
	Model         string `json:"model"`
	Storyboard    string `json:"storyboard"`
	Prompt        string `json:"prompt"`
	CharacterName string `json:"characterName,omitempty"`
	Origin        string `json:"origin,omitempty"`
	Duration      int    `json:"duration"`
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
}

func validatePrompt(p string) *httputil.Error {
	if strings.TrimSpace(p) == "" {
		return httputil.BadRequest("Prompt is required", nil)
	}
	return nil
}

func (h *handler) generateImage(c *fiber.Ctx) error {
	return pipeline.Run(c, h.container, pipeline.Endpoint[generateImageRequest]{
		Name:           "generateImage",
		Provider:       "gemini",
		FailureMessage: "Failed to generate image",
		Validate: func(req generateImageRequest) *httputil.Error {
			return validatePrompt(req.Prompt)
		},
		Execute: h.executeGenerateImage,
	})
}

func (h *handler) executeGenerateImage(ctx context.Context, req generateImageRequest) (pipeline.Result, error) {
	composed := prompt.Compose(req.Prompt, prompt.Attributes{
		Gender:            req.Gender,
		Origin:            req.Country,
		SkinTone:          req.SkinTone,
		Style:             req.Style,
		CharacterName:     req.CharacterName,
		AdditionalDetails: req.AdditionalPrompt,
	})

	var dress models.InlineData
	if strings.TrimSpace(req.DressImage) != "" {
		dress = media.ParseDataURL(strings.TrimSpace(req.DressImage))
	}
	hasDress := !dress.IsEmpty()

	parts := []models.Part{models.TextPart(prompt.ImageBrief(composed, hasDress))}
	if hasDress {
		parts = append(parts, models.DataPart(dress))
	}

	cfg := h.container.Config
	out, err := h.container.Providers.Gemini.Generate(ctx, models.GenerationRequest{
		Model:  cfg.Providers.GeminiModel,
		Parts:  parts,
		Params: defaultParams(cfg.Generation),
	})
	if err != nil {
		return pipeline.Result{Model: cfg.Providers.GeminiModel}, err
	}

	now := h.now()
	id := newGenerationID(prefixImage, now)
	model := firstNonEmpty(out.Model, cfg.Providers.GeminiModel)
	return pipeline.Result{
		GenerationID: id,
		Model:        model,
		Usage:        out.Usage,
		Envelope: generateImageResponse{
			Success:          true,
			GenerationID:     id,
			Model:            model,
			Description:      out.Text,
			Prompt:           composed,
			Identity:         req.Identity,
			CharacterName:    req.CharacterName,
			Gender:           req.Gender,
			Country:          req.Country,
			SkinTone:         req.SkinTone,
			Style:            req.Style,
			AdditionalPrompt: req.AdditionalPrompt,
			HasDressImage:    hasDress,
			Timestamp:        formatTimestamp(now),
		},
	}, nil
}

func (h *handler) generateVideo(c *fiber.Ctx) error {
	return pipeline.Run(c, h.container, pipeline.Endpoint[generateVideoRequest]{
		Name:           "generateVideo",
		Provider:       "gemini",
		FailureMessage: "Failed to generate video storyboard",
		Validate: func(req generateVideoRequest) *httputil.Error {
			return validatePrompt(req.Prompt)
		},
		Execute: h.executeGenerateVideo,
	})
}

func (h *handler) executeGenerateVideo(ctx context.Context, req generateVideoRequest) (pipeline.Result, error) {
	duration := req.Duration
	if duration <= 0 {
		duration = prompt.DefaultStoryboardSeconds
	}
	text := prompt.Storyboard(req.Prompt, duration, prompt.Attributes{
		Origin:        req.Origin,
		CharacterName: req.CharacterName,
	})

	cfg := h.container.Config
	out, err := h.container.Providers.Gemini.Generate(ctx, models.GenerationRequest{
		Model:  cfg.Providers.GeminiModel,
		Parts:  []models.Part{models.TextPart(text)},
		Params: defaultParams(cfg.Generation),
	})
	if err != nil {
		return pipeline.Result{Model: cfg.Providers.GeminiModel}, err
	}

	now := h.now()
	id := newGenerationID(prefixVideo, now)
	model := firstNonEmpty(out.Model, cfg.Providers.GeminiModel)
	return pipeline.Result{
		GenerationID: id,
		Model:        model,
		Usage:        out.Usage,
		Envelope: generateVideoResponse{
			Success:       true,
			GenerationID:  id,
			Model:         model,
			Storyboard:    out.Text,
			Prompt:        strings.TrimSpace(req.Prompt),
			CharacterName: req.CharacterName,
			Origin:        req.Origin,
			Duration:      duration,
			Status:        "storyboard_ready",
			Timestamp:     formatTimestamp(now),
		},
	}, nil
}
