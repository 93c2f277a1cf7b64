package studio

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ncecere/ai_media_studio/internal/adapters/faceswap"
	"github.com/ncecere/ai_media_studio/internal/httpserver/httputil"
	"github.com/ncecere/ai_media_studio/internal/models"
	"github.com/ncecere/ai_media_studio/internal/pipeline"
	"github.com/ncecere/ai_media_studio/internal/uploads"
)

type faceSwapRequest struct {
	modelImage  models.Upload
	avatarImage models.Upload
	complete    bool
}

func (h *handler) externalFaceSwap(c *fiber.Ctx) error {
	return pipeline.Run(c, h.container, pipeline.Endpoint[faceSwapRequest]{
		Name:           "external-faceswap",
		Provider:       "faceswap",
		FailureMessage: "Face swap failed",
		Decode:         decodeFaceSwap,
		Validate: func(req faceSwapRequest) *httputil.Error {
			if !req.complete {
				return httputil.BadRequest("model_image and avatar_image files are required", nil)
			}
			return nil
		},
		Execute: h.executeFaceSwap,
	})
}

func decodeFaceSwap(c *fiber.Ctx) (faceSwapRequest, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return faceSwapRequest{}, httputil.BadRequest("multipart form required", nil)
	}
	files, err := uploads.FromForm(form)
	if err != nil {
		return faceSwapRequest{}, &httputil.Error{
			Status:  fiber.StatusBadRequest,
			Message: "uploaded files could not be read",
			Detail:  err.Error(),
		}
	}
	modelImage, hasModel := files.First(faceswap.ModelImageField)
	avatarImage, hasAvatar := files.First(faceswap.AvatarImageField)
	return faceSwapRequest{
		modelImage:  modelImage,
		avatarImage: avatarImage,
		complete:    hasModel && hasAvatar,
	}, nil
}

func (h *handler) executeFaceSwap(ctx context.Context, req faceSwapRequest) (pipeline.Result, error) {
	relay, err := h.container.Providers.FaceSwap.Swap(ctx, req.modelImage, req.avatarImage)
	if err != nil {
		if errors.Is(err, faceswap.ErrUnreachable) {
			return pipeline.Result{}, &httputil.Error{
				Status:  fiber.StatusBadGateway,
				Message: "Face swap service unreachable",
				Detail:  err.Error(),
			}
		}
		return pipeline.Result{}, err
	}
	return pipeline.Result{
		Relay: &pipeline.Relay{
			Status:      relay.StatusCode,
			ContentType: relay.ContentType,
			Body:        relay.Body,
		},
	}, nil
}
