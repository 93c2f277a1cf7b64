package vertex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/ncecere/ai_media_studio/internal/models"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// Options configure the Vertex adapter.
type Options struct {
	ProjectID string
	Location  string
	Publisher string
	Model     string
	// Endpoint overrides https://<location>-aiplatform.googleapis.com/v1.
	Endpoint string
	// CredentialsBase64 is a base64-encoded service account JSON document.
	CredentialsBase64 string
	// CredentialsFile points at a service account JSON file.
	CredentialsFile string
	HTTPClient      *http.Client
}

// Adapter calls generateContent on Vertex AI. The authenticated client is
// built on first use and reused for the lifetime of the process.
type Adapter struct {
	opts Options

	once    sync.Once
	client  *http.Client
	initErr error
}

// New returns an adapter; credentials are not resolved until the first call.
func New(opts Options) *Adapter {
	opts.Location = strings.TrimSpace(opts.Location)
	if opts.Location == "" {
		opts.Location = "us-central1"
	}
	opts.Publisher = strings.TrimSpace(opts.Publisher)
	if opts.Publisher == "" {
		opts.Publisher = "google"
	}
	opts.Endpoint = strings.TrimSuffix(strings.TrimSpace(opts.Endpoint), "/")
	if opts.Endpoint == "" {
		opts.Endpoint = fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1", opts.Location)
	}
	return &Adapter{opts: opts}
}

// Ready resolves credentials if that has not happened yet and reports the
// outcome.
func (a *Adapter) Ready(ctx context.Context) error {
	a.once.Do(func() {
		a.client, a.initErr = a.init(context.WithoutCancel(ctx))
	})
	return a.initErr
}

func (a *Adapter) init(ctx context.Context) (*http.Client, error) {
	if strings.TrimSpace(a.opts.ProjectID) == "" {
		return nil, &models.ConfigError{
			Setting: "VERTEX_AI_PROJECT_ID",
			Message: "The Vertex AI project is missing on the server.",
			Hint:    "Set VERTEX_AI_PROJECT_ID and VERTEX_AI_LOCATION, then restart the service.",
		}
	}
	if a.opts.HTTPClient != nil {
		return a.opts.HTTPClient, nil
	}
	return newAuthorizedClient(ctx, a.opts)
}

func (a *Adapter) Generate(ctx context.Context, req models.GenerationRequest) (models.GenerationOutput, error) {
	payload, err := buildGenerateContentRequest(req)
	if err != nil {
		return models.GenerationOutput{}, err
	}
	return a.generate(ctx, a.modelFor(req.Model), payload)
}

// GenerateRaw forwards caller-built contents unchanged, attaching params as
// the generation config.
func (a *Adapter) GenerateRaw(ctx context.Context, model string, contents json.RawMessage, params models.GenerationParams) (models.GenerationOutput, error) {
	if len(bytes.TrimSpace(contents)) == 0 {
		return models.GenerationOutput{}, errors.New("vertex: contents required")
	}
	payload := vertexRawRequest{
		Contents:         contents,
		GenerationConfig: convertParams(params),
	}
	return a.generate(ctx, a.modelFor(model), payload)
}

func (a *Adapter) generate(ctx context.Context, model string, payload any) (models.GenerationOutput, error) {
	if err := a.Ready(ctx); err != nil {
		return models.GenerationOutput{}, err
	}
	var resp vertexGenerateResponse
	if err := a.postJSON(ctx, a.generateURL(model), payload, &resp); err != nil {
		return models.GenerationOutput{}, err
	}
	return convertGenerateResponse(resp, model)
}

func (a *Adapter) modelFor(model string) string {
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	return a.opts.Model
}

func (a *Adapter) generateURL(model string) string {
	return fmt.Sprintf("%s/projects/%s/locations/%s/publishers/%s/models/%s:generateContent",
		a.opts.Endpoint,
		url.PathEscape(a.opts.ProjectID),
		url.PathEscape(a.opts.Location),
		url.PathEscape(a.opts.Publisher),
		url.PathEscape(model))
}

func (a *Adapter) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("vertex encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("vertex request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("vertex decode response: %w", err)
	}
	return nil
}

func convertGenerateResponse(v vertexGenerateResponse, model string) (models.GenerationOutput, error) {
	candidate := v.FirstCandidate()
	if candidate == nil {
		return models.GenerationOutput{}, errors.New("vertex response missing candidates")
	}
	out := models.GenerationOutput{
		Model:        model,
		Text:         candidate.Content.Text(),
		FinishReason: strings.ToLower(candidate.FinishReason),
	}
	if v.ModelVersion != "" {
		out.Model = v.ModelVersion
	}
	if usage := v.Usage(); usage != nil {
		out.Usage = models.Usage{
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CandidatesTokens,
			TotalTokens:      usage.TotalTokens,
		}
	}
	return out, nil
}
