package media

import (
	"strings"

	"github.com/ncecere/ai_media_studio/internal/models"
)

const (
	dataURLPrefix   = "data:"
	base64Delimiter = ";base64,"
)

// ParseDataURL splits a data:<mime>;base64,<payload> string at the first
// ";base64," delimiter. Any other string is taken as raw base64 with the
// default MIME type.
func ParseDataURL(s string) models.InlineData {
	if rest, ok := strings.CutPrefix(s, dataURLPrefix); ok {
		if mimeType, payload, found := strings.Cut(rest, base64Delimiter); found {
			if mimeType == "" {
				mimeType = models.DefaultMIMEType
			}
			return models.InlineData{MIMEType: mimeType, Data: payload}
		}
	}
	return models.InlineData{MIMEType: models.DefaultMIMEType, Data: s}
}

// IsRemoteURL reports whether s should be fetched rather than decoded.
func IsRemoteURL(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
