// Package faceswap forwards image pairs to an external face swap service.
package faceswap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ncecere/ai_media_studio/internal/models"
)

const (
	// ModelImageField carries the target photo.
	ModelImageField = "model_image"
	// AvatarImageField carries the face to transfer.
	AvatarImageField = "avatar_image"
)

// ErrUnreachable wraps transport failures talking to the service.
var ErrUnreachable = errors.New("face swap service unreachable")

// Config configures the client.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Relay is the upstream response, passed back to the caller unchanged.
type Relay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Client posts multipart requests to the face swap service.
type Client struct {
	client *resty.Client
	url    string
	apiKey string
}

// New builds a client. An empty URL yields a client whose calls fail with a
// configuration error.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &Client{
		client: resty.New().SetTimeout(cfg.Timeout),
		url:    strings.TrimSpace(cfg.URL),
		apiKey: strings.TrimSpace(cfg.APIKey),
	}
}

// Configured reports whether a service URL is set.
func (c *Client) Configured() bool {
	return c != nil && c.url != ""
}

// Swap sends modelImage and avatarImage and returns the upstream response
// whatever its status.
func (c *Client) Swap(ctx context.Context, modelImage, avatarImage models.Upload) (Relay, error) {
	if !c.Configured() {
		return Relay{}, &models.ConfigError{
			Setting: "FACESWAP_API_URL",
			Message: "The face swap service address is missing on the server.",
			Hint:    "Set FACESWAP_API_URL to the face swap endpoint and restart the service.",
		}
	}
	req := c.client.R().
		SetContext(ctx).
		SetMultipartField(ModelImageField, filename(modelImage, "model.jpg"), contentType(modelImage), modelImage.Reader()).
		SetMultipartField(AvatarImageField, filename(avatarImage, "avatar.jpg"), contentType(avatarImage), avatarImage.Reader())
	if c.apiKey != "" {
		req.SetAuthToken(c.apiKey)
	}
	resp, err := req.Post(c.url)
	if err != nil {
		return Relay{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	ct := resp.Header().Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return Relay{
		StatusCode:  resp.StatusCode(),
		ContentType: ct,
		Body:        resp.Body(),
	}, nil
}

func filename(u models.Upload, fallback string) string {
	if name := strings.TrimSpace(u.Filename); name != "" {
		return name
	}
	return fallback
}

func contentType(u models.Upload) string {
	if u.ContentType != "" {
		return u.ContentType
	}
	return models.DefaultMIMEType
}
