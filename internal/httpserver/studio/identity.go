package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ncecere/ai_media_studio/internal/httpserver/httputil"
	"github.com/ncecere/ai_media_studio/internal/models"
	"github.com/ncecere/ai_media_studio/internal/pipeline"
	"github.com/ncecere/ai_media_studio/internal/prompt"
)

const (
	analysisNote = "Vertex AI Gemini models return a text analysis of the requested edit; " +
		"no edited image is produced by this endpoint."
	swapRecommendation = "Use /api/external-faceswap with model_image and avatar_image files " +
		"for pixel-level face replacement."
)

type swapFaceRequest struct {
	InputImages      []any                    `json:"inputImages"`
	ReferenceImages  []any                    `json:"referenceImages"`
	Prompt           string                   `json:"prompt"`
	UserID           any                      `json:"userId"`
	Model            string                   `json:"model"`
	Gender           string                   `json:"gender"`
	Origin           string                   `json:"origin"`
	Contents         json.RawMessage          `json:"contents"`
	GenerationConfig *models.GenerationParams `json:"generationConfig"`
}

// raw reports whether the caller sent a prebuilt {contents, generationConfig}
// body instead of the structured form.
func (r swapFaceRequest) raw() bool {
	trimmed := bytes.TrimSpace(r.Contents)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

type swapFaceResponse struct {
	Success             bool   `json:"success"`
	GenerationID        string `json:"generationId"`
	Model               string `json:"model"`
	AnalysisResponse    string `json:"analysisResponse"`
	Prompt              string `json:"prompt,omitempty"`
	UserID              any    `json:"userId,omitempty"`
	InputImageCount     int    `json:"inputImageCount"`
	ReferenceImageCount int    `json:"referenceImageCount"`
	Timestamp           string `json:"timestamp"`
	Note                string `json:"note"`
	Recommendation      string `json:"recommendation"`
}

type reshootRequest struct {
	BaseImages       []any                    `json:"baseImages"`
	AvatarImageURL   string                   `json:"avatarImageUrl"`
	Gender           string                   `json:"gender"`
	Origin           string                   `json:"origin"`
	Model            string                   `json:"model"`
	GenerationConfig *models.GenerationParams `json:"generationConfig"`
}

type reshootResponse struct {
	Success          bool   `json:"success"`
	GenerationID     string `json:"generationId"`
	Model            string `json:"model"`
	AnalysisResponse string `json:"analysisResponse"`
	BaseCount        int    `json:"baseCount"`
	AvatarImageURL   string `json:"avatarImageUrl"`
	Gender           string `json:"gender,omitempty"`
	Origin           string `json:"origin,omitempty"`
	Timestamp        string `json:"timestamp"`
	Note             string `json:"note"`
}

// resolveModel applies the default model and the allow-list.
func (h *handler) resolveModel(requested string) (string, *httputil.Error) {
	allowed := h.container.Config.Models
	model := strings.TrimSpace(requested)
	if model == "" {
		model = allowed.Default
	}
	if !allowed.IsAllowed(model) {
		return "", httputil.BadRequest(
			fmt.Sprintf("Unsupported model %q. Allowed models: %s", model, strings.Join(allowed.Allowed(), ", ")),
			fiber.Map{"allowedModels": allowed.Allowed()},
		)
	}
	return model, nil
}

func (h *handler) params(override *models.GenerationParams) models.GenerationParams {
	params := defaultParams(h.container.Config.Generation)
	if override != nil {
		params = params.Merge(*override)
	}
	return params
}

func (h *handler) swapFace(c *fiber.Ctx) error {
	return pipeline.Run(c, h.container, pipeline.Endpoint[swapFaceRequest]{
		Name:           "swap-face",
		Provider:       "vertex",
		FailureMessage: "Failed to process face swap",
		Validate:       h.validateSwapFace,
		Execute:        h.executeSwapFace,
	})
}

func (h *handler) validateSwapFace(req swapFaceRequest) *httputil.Error {
	if req.raw() {
		var contents []json.RawMessage
		if err := json.Unmarshal(req.Contents, &contents); err != nil || len(contents) == 0 {
			return httputil.BadRequest("contents must be a non-empty array", nil)
		}
	} else {
		hasInputs := len(req.InputImages) > 0
		hasRefs := len(req.ReferenceImages) > 0
		hasPrompt := strings.TrimSpace(req.Prompt) != ""
		if !hasInputs || !hasRefs || !hasPrompt {
			return httputil.BadRequest("Missing required fields", fiber.Map{
				"inputImages":     hasInputs,
				"referenceImages": hasRefs,
				"prompt":          hasPrompt,
			})
		}
	}
	_, apiErr := h.resolveModel(req.Model)
	return apiErr
}

func (h *handler) executeSwapFace(ctx context.Context, req swapFaceRequest) (pipeline.Result, error) {
	model, apiErr := h.resolveModel(req.Model)
	if apiErr != nil {
		return pipeline.Result{}, apiErr
	}

	var (
		out        models.GenerationOutput
		err        error
		inputCount int
		refCount   int
	)
	if req.raw() {
		out, err = h.container.Providers.Vertex.GenerateRaw(ctx, model, req.Contents, h.params(req.GenerationConfig))
	} else {
		var inputs, refs []models.InlineData
		inputs, err = h.normalizeImages(ctx, "inputImages", req.InputImages)
		if err != nil {
			return pipeline.Result{Model: model}, err
		}
		refs, err = h.normalizeImages(ctx, "referenceImages", req.ReferenceImages)
		if err != nil {
			return pipeline.Result{Model: model}, err
		}
		inputCount, refCount = len(inputs), len(refs)

		text, terr := prompt.FaceSwap(prompt.IdentityMeta{Gender: req.Gender, Origin: req.Origin}, req.Prompt)
		if terr != nil {
			return pipeline.Result{Model: model}, terr
		}
		parts := make([]models.Part, 0, inputCount+refCount+1)
		for _, d := range inputs {
			parts = append(parts, models.DataPart(d))
		}
		for _, d := range refs {
			parts = append(parts, models.DataPart(d))
		}
		parts = append(parts, models.TextPart(text))

		out, err = h.container.Providers.Vertex.Generate(ctx, models.GenerationRequest{
			Model:  model,
			Parts:  parts,
			Params: h.params(nil),
		})
	}
	if err != nil {
		return pipeline.Result{Model: model}, err
	}

	now := h.now()
	id := newGenerationID(prefixSwap, now)
	return pipeline.Result{
		GenerationID: id,
		Model:        model,
		Usage:        out.Usage,
		Envelope: swapFaceResponse{
			Success:             true,
			GenerationID:        id,
			Model:               model,
			AnalysisResponse:    out.Text,
			Prompt:              strings.TrimSpace(req.Prompt),
			UserID:              req.UserID,
			InputImageCount:     inputCount,
			ReferenceImageCount: refCount,
			Timestamp:           formatTimestamp(now),
			Note:                analysisNote,
			Recommendation:      swapRecommendation,
		},
	}, nil
}

func (h *handler) virtualReshoot(c *fiber.Ctx) error {
	return pipeline.Run(c, h.container, pipeline.Endpoint[reshootRequest]{
		Name:           "virtual-reshoot",
		Provider:       "vertex",
		FailureMessage: "Failed to process virtual reshoot",
		Validate:       h.validateReshoot,
		Execute:        h.executeReshoot,
	})
}

func (h *handler) validateReshoot(req reshootRequest) *httputil.Error {
	if len(req.BaseImages) == 0 {
		return httputil.BadRequest("baseImages is required", fiber.Map{"field": "baseImages"})
	}
	if strings.TrimSpace(req.AvatarImageURL) == "" {
		return httputil.BadRequest("avatarImageUrl is required", fiber.Map{"field": "avatarImageUrl"})
	}
	_, apiErr := h.resolveModel(req.Model)
	return apiErr
}

func (h *handler) executeReshoot(ctx context.Context, req reshootRequest) (pipeline.Result, error) {
	model, apiErr := h.resolveModel(req.Model)
	if apiErr != nil {
		return pipeline.Result{}, apiErr
	}

	bases, err := h.normalizeImages(ctx, "baseImages", req.BaseImages)
	if err != nil {
		return pipeline.Result{Model: model}, err
	}
	avatar, err := h.container.Normalizer.Normalize(ctx, strings.TrimSpace(req.AvatarImageURL))
	if err != nil {
		return pipeline.Result{Model: model}, fmt.Errorf("avatar image: %w", err)
	}
	if avatar.IsEmpty() {
		return pipeline.Result{Model: model}, httputil.BadRequest("avatarImageUrl contained no image data", fiber.Map{"field": "avatarImageUrl"})
	}

	text, err := prompt.VirtualReshoot(prompt.IdentityMeta{Gender: req.Gender, Origin: req.Origin})
	if err != nil {
		return pipeline.Result{Model: model}, err
	}
	parts := make([]models.Part, 0, len(bases)+2)
	for _, d := range bases {
		parts = append(parts, models.DataPart(d))
	}
	parts = append(parts, models.DataPart(avatar), models.TextPart(text))

	out, err := h.container.Providers.Vertex.Generate(ctx, models.GenerationRequest{
		Model:  model,
		Parts:  parts,
		Params: h.params(req.GenerationConfig),
	})
	if err != nil {
		return pipeline.Result{Model: model}, err
	}

	now := h.now()
	id := newGenerationID(prefixReshoot, now)
	return pipeline.Result{
		GenerationID: id,
		Model:        model,
		Usage:        out.Usage,
		Envelope: reshootResponse{
			Success:          true,
			GenerationID:     id,
			Model:            model,
			AnalysisResponse: out.Text,
			BaseCount:        len(bases),
			AvatarImageURL:   req.AvatarImageURL,
			Gender:           req.Gender,
			Origin:           req.Origin,
			Timestamp:        formatTimestamp(now),
			Note:             analysisNote,
		},
	}, nil
}

// normalizeImages drops unusable entries and rejects a field left with none.
func (h *handler) normalizeImages(ctx context.Context, field string, values []any) ([]models.InlineData, error) {
	normalized, err := h.container.Normalizer.NormalizeAll(ctx, values)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	usable := models.NonEmpty(normalized)
	if len(usable) == 0 {
		return nil, httputil.BadRequest(field+" contained no usable image data", fiber.Map{"field": field})
	}
	return usable, nil
}
