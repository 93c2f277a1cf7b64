package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/ncecere/ai_media_studio/internal/config"
	"github.com/ncecere/ai_media_studio/internal/models"
)

var (
	// ErrFetchTooLarge is returned when a remote image exceeds fetch.max_bytes.
	ErrFetchTooLarge = errors.New("remote image exceeds size limit")
	// ErrHostNotAllowed is returned when fetch.allowed_hosts excludes the URL host.
	ErrHostNotAllowed = errors.New("remote image host not allowed")
)

// FetchError reports a non-2xx response from a remote image host.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("upstream fetch failed with status %d", e.StatusCode)
}

// Fetched is a remote object read fully into memory.
type Fetched struct {
	Data        []byte
	ContentType string
}

// Fetcher retrieves remote images referenced by URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Fetched, error)
}

const maxRedirects = 10

// HTTPFetcher performs a single GET per image with a size cap.
type HTTPFetcher struct {
	client       *resty.Client
	maxBytes     int64
	allowedHosts []string
}

// NewHTTPFetcher builds a fetcher from the fetch configuration.
func NewHTTPFetcher(cfg config.FetchConfig) *HTTPFetcher {
	cli := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "image/*")
	hosts := make([]string, 0, len(cfg.AllowedHosts))
	for _, h := range cfg.AllowedHosts {
		hosts = append(hosts, strings.ToLower(strings.TrimSpace(h)))
	}
	f := &HTTPFetcher{client: cli, maxBytes: cfg.MaxBytes, allowedHosts: hosts}
	if len(hosts) > 0 {
		cli.SetRedirectPolicy(
			resty.FlexibleRedirectPolicy(maxRedirects),
			resty.RedirectPolicyFunc(f.checkRedirect),
		)
	}
	return f
}

// checkRedirect applies the host allow-list to every redirect hop.
func (f *HTTPFetcher) checkRedirect(req *http.Request, _ []*http.Request) error {
	if !f.hostAllowed(req.URL.Hostname()) {
		return fmt.Errorf("%w: %s", ErrHostNotAllowed, req.URL.Hostname())
	}
	return nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Fetched, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Fetched{}, fmt.Errorf("parse image url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Fetched{}, fmt.Errorf("unsupported image url scheme %q", parsed.Scheme)
	}
	if !f.hostAllowed(parsed.Hostname()) {
		return Fetched{}, fmt.Errorf("%w: %s", ErrHostNotAllowed, parsed.Hostname())
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(parsed.String())
	if err != nil {
		return Fetched{}, fmt.Errorf("fetch image: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return Fetched{}, &FetchError{URL: parsed.Redacted(), StatusCode: resp.StatusCode()}
	}

	reader := io.Reader(body)
	if f.maxBytes > 0 {
		reader = io.LimitReader(body, f.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return Fetched{}, fmt.Errorf("read image body: %w", err)
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return Fetched{}, ErrFetchTooLarge
	}
	return Fetched{Data: data, ContentType: mediaType(resp.Header().Get("Content-Type"))}, nil
}

func (f *HTTPFetcher) hostAllowed(host string) bool {
	if len(f.allowedHosts) == 0 {
		return true
	}
	return slices.Contains(f.allowedHosts, strings.ToLower(host))
}

func mediaType(header string) string {
	if strings.TrimSpace(header) == "" {
		return models.DefaultMIMEType
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil || mt == "" {
		return models.DefaultMIMEType
	}
	return mt
}
