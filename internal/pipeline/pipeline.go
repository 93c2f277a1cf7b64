package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ncecere/ai_media_studio/internal/app"
	"github.com/ncecere/ai_media_studio/internal/cache"
	"github.com/ncecere/ai_media_studio/internal/httpserver/httputil"
	"github.com/ncecere/ai_media_studio/internal/limits"
	"github.com/ncecere/ai_media_studio/internal/models"
	"github.com/ncecere/ai_media_studio/internal/requestctx"
)

// IdempotencyHeader names the request header that enables response replay.
const IdempotencyHeader = "Idempotency-Key"

// Relay is an upstream response written back verbatim. Relayed responses are
// neither archived nor cached.
type Relay struct {
	Status      int
	ContentType string
	Body        []byte
}

// Result is what an endpoint's Execute step produces.
type Result struct {
	GenerationID string
	Model        string
	Usage        models.Usage
	Envelope     any
	Relay        *Relay
}

// Endpoint describes one decode -> validate -> execute -> relay pass.
type Endpoint[T any] struct {
	// Name labels metrics, logs and idempotency keys.
	Name string
	// Provider labels upstream metrics.
	Provider string
	// FailureMessage is the "error" field for unexpected Execute failures.
	FailureMessage string

	// Decode defaults to DecodeJSON. A returned *httputil.Error is written
	// as-is; any other error becomes 400 "Invalid JSON body".
	Decode   func(c *fiber.Ctx) (T, error)
	Validate func(req T) *httputil.Error
	Execute  func(ctx context.Context, req T) (Result, error)
}

// DecodeJSON parses the request body into T.
func DecodeJSON[T any](c *fiber.Ctx) (T, error) {
	var req T
	err := json.Unmarshal(c.Body(), &req)
	return req, err
}

// Run executes ep against the current request.
func Run[T any](c *fiber.Ctx, container *app.Container, ep Endpoint[T]) error {
	rc := RequestContext(c)
	rc.Endpoint = ep.Name
	ctx := requestctx.WithContext(c.UserContext(), rc)
	obs := container.Observability

	idempotencyKey := strings.TrimSpace(c.Get(IdempotencyHeader))
	scope := cache.Scope{Route: ep.Name, Client: rc.ClientIP, Body: c.Body()}
	if idempotencyKey != "" {
		if data, ok := container.Idempotency.Get(ctx, scope, idempotencyKey); ok {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			c.Set("Idempotent-Replay", "true")
			return c.Status(fiber.StatusOK).Send(data)
		}
	}

	release, err := container.AcquireClientLimit(ctx, rc.ClientIP)
	if err != nil {
		if errors.Is(err, limits.ErrLimitExceeded) {
			obs.RecordRejection(ep.Name, "rate_limit")
			return httputil.WriteError(c, fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		slog.Error("rate limit check failed", append(rc.LogAttrs(), "error", err)...)
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}
	defer release()

	decode := ep.Decode
	if decode == nil {
		decode = DecodeJSON[T]
	}
	req, err := decode(c)
	if err != nil {
		obs.RecordRejection(ep.Name, "decode")
		var apiErr *httputil.Error
		if errors.As(err, &apiErr) {
			return httputil.WriteAPIError(c, apiErr)
		}
		return httputil.WriteError(c, fiber.StatusBadRequest, "Invalid JSON body")
	}

	if ep.Validate != nil {
		if apiErr := ep.Validate(req); apiErr != nil {
			obs.RecordRejection(ep.Name, "validation")
			return httputil.WriteAPIError(c, apiErr)
		}
	}

	execCtx := ctx
	if timeout := container.Config.Server.ProviderTimeout; timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := ep.Execute(execCtx, req)
	elapsed := time.Since(start)
	if err != nil {
		apiErr := failure(ep.FailureMessage, err)
		obs.RecordUpstream(ep.Name, ep.Provider, res.Model, apiErr.Status, elapsed, 0, 0)
		slog.Error("request failed", append(rc.LogAttrs(), "status", apiErr.Status, "error", err)...)
		return httputil.WriteAPIError(c, apiErr)
	}
	rc.GenerationID = res.GenerationID

	if res.Relay != nil {
		obs.RecordUpstream(ep.Name, ep.Provider, res.Model, res.Relay.Status, elapsed, 0, 0)
		if res.Relay.ContentType != "" {
			c.Set(fiber.HeaderContentType, res.Relay.ContentType)
		}
		return c.Status(res.Relay.Status).Send(res.Relay.Body)
	}

	obs.RecordUpstream(ep.Name, ep.Provider, res.Model, fiber.StatusOK, elapsed,
		int64(res.Usage.PromptTokens), int64(res.Usage.CompletionTokens))

	payload, err := json.Marshal(res.Envelope)
	if err != nil {
		slog.Error("encode response", append(rc.LogAttrs(), "error", err)...)
		return httputil.WriteAPIError(c, &httputil.Error{
			Status:  fiber.StatusInternalServerError,
			Message: ep.FailureMessage,
			Detail:  err.Error(),
		})
	}

	archiveEnvelope(ctx, container, rc, payload)
	if idempotencyKey != "" {
		container.Idempotency.Set(ctx, scope, idempotencyKey, payload)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(payload)
}

// RequestContext returns the request context stored by the server middleware,
// building one when the handler runs without it.
func RequestContext(c *fiber.Ctx) *requestctx.Context {
	if rc, ok := c.Locals(requestctx.FiberLocalsKey()).(*requestctx.Context); ok && rc != nil {
		return rc
	}
	requestID, _ := c.Locals("requestid").(string)
	rc := requestctx.New(requestID, c.IP(), time.Now())
	c.Locals(requestctx.FiberLocalsKey(), rc)
	return rc
}

func failure(message string, err error) *httputil.Error {
	var apiErr *httputil.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if cfgErr, ok := httputil.FromConfigError(err); ok {
		return cfgErr
	}
	if message == "" {
		message = "Request failed"
	}
	return &httputil.Error{
		Status:  fiber.StatusInternalServerError,
		Message: message,
		Detail:  err.Error(),
	}
}

func archiveEnvelope(ctx context.Context, container *app.Container, rc *requestctx.Context, payload []byte) {
	if !container.Archive.Enabled() || rc.GenerationID == "" {
		return
	}
	err := container.Archive.Save(ctx, rc.GenerationID, payload)
	container.Observability.RecordArchiveWrite(err == nil)
	if err != nil {
		slog.Warn("archive write failed", append(rc.LogAttrs(), "error", err)...)
	}
}
