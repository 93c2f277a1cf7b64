package vertex

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ncecere/ai_media_studio/internal/models"
	"github.com/ncecere/ai_media_studio/internal/providers/fixtures"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{
		ProjectID:  "studio-test",
		Location:   "europe-west4",
		Model:      "gemini-2.0-flash",
		Endpoint:   srv.URL + "/v1",
		HTTPClient: srv.Client(),
	})
}

func TestGeneratePostsInlineParts(t *testing.T) {
	var (
		gotPath string
		gotBody map[string]any
	)
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		require.NoError(t, fixtures.Reply(w, http.StatusOK, fixtures.VertexGenerate))
	})

	topK := float32(32)
	out, err := adapter.Generate(context.Background(), models.GenerationRequest{
		Model: "gemini-1.5-pro",
		Parts: []models.Part{
			models.DataPart(models.InlineData{MIMEType: "image/png", Data: "AAAA"}),
			models.DataPart(models.InlineData{MIMEType: "image/jpeg"}),
			models.TextPart("swap the face"),
		},
		Params: models.GenerationParams{TopK: &topK},
	})
	require.NoError(t, err)
	require.Equal(t, "/v1/projects/studio-test/locations/europe-west4/publishers/google/models/gemini-1.5-pro:generateContent", gotPath)

	contents := gotBody["contents"].([]any)
	require.Len(t, contents, 1)
	parts := contents[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 2)
	inline := parts[0].(map[string]any)["inlineData"].(map[string]any)
	require.Equal(t, "image/png", inline["mimeType"])
	require.Equal(t, "AAAA", inline["data"])
	require.Equal(t, "swap the face", parts[1].(map[string]any)["text"])
	require.EqualValues(t, 32, gotBody["generationConfig"].(map[string]any)["topK"])

	require.Contains(t, out.Text, "reference face")
}

func TestGenerateRawForwardsContents(t *testing.T) {
	var gotBody map[string]json.RawMessage
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"done"}]},"finishReason":"STOP"}]}`)
	})

	contents := json.RawMessage(`[{"role":"user","parts":[{"text":"hello"}]}]`)
	temp := float32(0.2)
	out, err := adapter.GenerateRaw(context.Background(), "", contents, models.GenerationParams{Temperature: &temp})
	require.NoError(t, err)
	require.Equal(t, "done", out.Text)
	require.Equal(t, "gemini-2.0-flash", out.Model)
	require.JSONEq(t, string(contents), string(gotBody["contents"]))
	require.JSONEq(t, `{"temperature":0.2}`, string(gotBody["generationConfig"]))
}

func TestGenerateRawRequiresContents(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unexpected upstream call")
	})
	_, err := adapter.GenerateRaw(context.Background(), "", nil, models.GenerationParams{})
	require.ErrorContains(t, err, "contents required")
}

func TestGenerateDecodesAPIError(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, fixtures.Reply(w, http.StatusTooManyRequests, fixtures.VertexError))
	})
	_, err := adapter.Generate(context.Background(), models.GenerationRequest{Parts: []models.Part{models.TextPart("hi")}})
	require.ErrorContains(t, err, "RESOURCE_EXHAUSTED")
	require.ErrorContains(t, err, "Quota exceeded")
}

func TestMissingProjectIsConfigError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	adapter := New(Options{Model: "gemini-2.0-flash", Endpoint: srv.URL, HTTPClient: srv.Client()})
	for i := 0; i < 2; i++ {
		_, err := adapter.Generate(context.Background(), models.GenerationRequest{Parts: []models.Part{models.TextPart("hi")}})
		require.ErrorIs(t, err, models.ErrNotConfigured)
		var cfgErr *models.ConfigError
		require.True(t, errors.As(err, &cfgErr))
		require.Equal(t, "VERTEX_AI_PROJECT_ID", cfgErr.Setting)
	}
	require.Zero(t, calls.Load())
}

func TestInvalidBase64CredentialsIsConfigError(t *testing.T) {
	adapter := New(Options{ProjectID: "p", Model: "gemini-2.0-flash", CredentialsBase64: "%%%not-base64"})
	err := adapter.Ready(context.Background())
	require.ErrorIs(t, err, models.ErrNotConfigured)
	require.ErrorContains(t, err, "VERTEX_AI_CREDENTIALS_BASE64 is not configured")
}

func TestDefaultsLocationAndEndpoint(t *testing.T) {
	adapter := New(Options{ProjectID: "p", Model: "gemini-2.0-flash"})
	require.Equal(t, "https://us-central1-aiplatform.googleapis.com/v1/projects/p/locations/us-central1/publishers/google/models/gemini-2.0-flash:generateContent",
		adapter.generateURL("gemini-2.0-flash"))
}
