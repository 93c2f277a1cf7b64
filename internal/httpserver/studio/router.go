package studio

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ncecere/ai_media_studio/internal/app"
	"github.com/ncecere/ai_media_studio/internal/archive"
	"github.com/ncecere/ai_media_studio/internal/httpserver/httputil"
	"github.com/ncecere/ai_media_studio/internal/pipeline"
)

// Register wires up the studio proxy routes under /api.
func Register(fapp *fiber.App, container *app.Container) {
	h := &handler{container: container, now: time.Now}
	group := fapp.Group("/api")

	post := func(path string, fn fiber.Handler) {
		group.Post(path, fn)
		group.All(path, methodNotAllowed)
	}
	post("/generateImage", h.generateImage)
	post("/generateVideo", h.generateVideo)
	post("/swap-face", h.swapFace)
	post("/virtual-reshoot", h.virtualReshoot)
	post("/external-faceswap", h.externalFaceSwap)

	group.Get("/generations/:id", h.getGeneration)
}

type handler struct {
	container *app.Container
	now       func() time.Time
}

func methodNotAllowed(c *fiber.Ctx) error {
	return httputil.WriteError(c, fiber.StatusMethodNotAllowed, "Method not allowed")
}

func (h *handler) getGeneration(c *fiber.Ctx) error {
	data, err := h.container.Archive.Load(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			return httputil.WriteError(c, fiber.StatusNotFound, archive.ErrNotFound.Error())
		}
		rc := pipeline.RequestContext(c)
		slog.Error("archive read failed", append(rc.LogAttrs(), "error", err)...)
		return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to read generation")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(data)
}
