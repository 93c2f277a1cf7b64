package requestctx

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const fiberLocalsKey = "requestctx"

// Key is the typed context key used for storing the RequestContext.
var Key contextKey = "ai-media-studio/requestctx"

// Context captures per-request correlation data used by handlers and logs.
type Context struct {
	RequestID    string
	ClientIP     string
	Endpoint     string
	GenerationID string
	StartedAt    time.Time
}

// New builds a request context, minting a request id when the caller did not
// supply one.
func New(requestID, clientIP string, now time.Time) *Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return &Context{
		RequestID: requestID,
		ClientIP:  strings.TrimSpace(clientIP),
		StartedAt: now,
	}
}

// LogAttrs returns the slog key/value pairs identifying the request.
func (rc *Context) LogAttrs() []any {
	if rc == nil {
		return nil
	}
	attrs := []any{"request_id", rc.RequestID}
	if rc.Endpoint != "" {
		attrs = append(attrs, "endpoint", rc.Endpoint)
	}
	if rc.GenerationID != "" {
		attrs = append(attrs, "generation_id", rc.GenerationID)
	}
	if rc.ClientIP != "" {
		attrs = append(attrs, "client_ip", rc.ClientIP)
	}
	return attrs
}

// WithContext embeds the request context into the parent context.
func WithContext(parent context.Context, rc *Context) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithValue(parent, Key, rc)
}

// FromContext retrieves the request context if present.
func FromContext(ctx context.Context) (*Context, bool) {
	if ctx == nil {
		return nil, false
	}
	rc, ok := ctx.Value(Key).(*Context)
	return rc, ok
}

// FiberLocalsKey returns the key used in fiber.Locals for request context storage.
func FiberLocalsKey() string {
	return fiberLocalsKey
}
