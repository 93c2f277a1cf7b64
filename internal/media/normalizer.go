package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/ncecere/ai_media_studio/internal/models"
)

// ErrRemoteDisabled is returned for URL inputs when no Fetcher is configured.
var ErrRemoteDisabled = errors.New("remote image urls are not supported here")

// Normalizer turns caller-supplied image references into inline data parts.
type Normalizer struct {
	fetcher Fetcher
}

// NewNormalizer returns a Normalizer. A nil fetcher rejects http(s) inputs.
func NewNormalizer(fetcher Fetcher) *Normalizer {
	return &Normalizer{fetcher: fetcher}
}

// Normalize accepts a data URL, raw base64 or an http(s) URL. Values that are
// not strings yield an empty placeholder so one bad entry does not abort a
// batch.
func (n *Normalizer) Normalize(ctx context.Context, v any) (models.InlineData, error) {
	s, ok := v.(string)
	if !ok {
		return models.InlineData{MIMEType: models.DefaultMIMEType}, nil
	}
	if IsRemoteURL(s) {
		return n.fetch(ctx, s)
	}
	return ParseDataURL(s), nil
}

// NormalizeAll normalizes values in order. Placeholders are kept so indexes
// line up with the input.
func (n *Normalizer) NormalizeAll(ctx context.Context, values []any) ([]models.InlineData, error) {
	out := make([]models.InlineData, 0, len(values))
	for i, v := range values {
		part, err := n.Normalize(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		out = append(out, part)
	}
	return out, nil
}

func (n *Normalizer) fetch(ctx context.Context, rawURL string) (models.InlineData, error) {
	if n == nil || n.fetcher == nil {
		return models.InlineData{}, ErrRemoteDisabled
	}
	obj, err := n.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return models.InlineData{}, err
	}
	mimeType := obj.ContentType
	if mimeType == "" {
		mimeType = models.DefaultMIMEType
	}
	return models.InlineData{
		MIMEType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(obj.Data),
	}, nil
}
