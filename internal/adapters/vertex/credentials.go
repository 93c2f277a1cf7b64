package vertex

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ncecere/ai_media_studio/internal/models"
)

// newAuthorizedClient resolves credentials in order: inline base64 JSON, a
// credentials file, then application default credentials.
func newAuthorizedClient(ctx context.Context, opts Options) (*http.Client, error) {
	creds, err := loadCredentials(ctx, opts)
	if err != nil {
		return nil, &models.ConfigError{
			Setting: "VERTEX_AI_CREDENTIALS_BASE64",
			Message: err.Error(),
			Hint:    "Set VERTEX_AI_CREDENTIALS_BASE64 or GOOGLE_APPLICATION_CREDENTIALS to a service account key.",
			Err:     err,
		}
	}
	return oauth2.NewClient(ctx, creds.TokenSource), nil
}

func loadCredentials(ctx context.Context, opts Options) (*google.Credentials, error) {
	if encoded := strings.TrimSpace(opts.CredentialsBase64); encoded != "" {
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("vertex: decode base64 credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, raw, cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("vertex: load credentials: %w", err)
		}
		return creds, nil
	}
	if path := strings.TrimSpace(opts.CredentialsFile); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("vertex: read credentials file: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, raw, cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("vertex: load credentials: %w", err)
		}
		return creds, nil
	}
	creds, err := google.FindDefaultCredentials(ctx, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("vertex: find default credentials: %w", err)
	}
	return creds, nil
}
