package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ncecere/ai_media_studio/internal/config"
)

func TestSetupDisabled(t *testing.T) {
	p, err := Setup(context.Background(), config.ObservabilityConfig{})
	require.NoError(t, err)
	require.Nil(t, p)
	require.Nil(t, p.PrometheusHandler())
	p.RecordUpstream("generateImage", "gemini", "gemini-1.5-flash", 200, time.Second, 1, 1)
	p.RecordRejection("generateImage", "rate_limited")
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestMetricsExposed(t *testing.T) {
	p, err := Setup(context.Background(), config.ObservabilityConfig{EnableMetrics: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	p.RecordHTTPRequest(context.Background(), "POST", "/api/swap-face", 200, 150*time.Millisecond)
	p.RecordUpstream("swap-face", "vertex", "gemini-2.0-flash", 200, 2*time.Second, 1200, 40)
	p.RecordRejection("swap-face", "rate_limited")
	p.RecordArchiveWrite(false)

	srv := httptest.NewServer(p.PrometheusHandler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	require.Contains(t, text, `ai_media_studio_http_requests_total{method="POST",route="/api/swap-face",status="200"} 1`)
	require.Contains(t, text, `ai_media_studio_upstream_request_duration_seconds_count{endpoint="swap-face",model="gemini-2.0-flash",provider="vertex",status="200"} 1`)
	require.Contains(t, text, `ai_media_studio_upstream_tokens_total{endpoint="swap-face",model="gemini-2.0-flash",provider="vertex",type="prompt"} 1200`)
	require.Contains(t, text, `ai_media_studio_rejected_requests_total{endpoint="swap-face",reason="rate_limited"} 1`)
	require.Contains(t, text, `ai_media_studio_archive_writes_total{result="error"} 1`)
}
