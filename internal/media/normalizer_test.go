package media

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ncecere/ai_media_studio/internal/config"
	"github.com/ncecere/ai_media_studio/internal/models"
)

func TestNormalizeNonStringYieldsPlaceholder(t *testing.T) {
	n := NewNormalizer(nil)
	for _, v := range []any{nil, 42, 3.5, true, map[string]any{"url": "x"}, []any{"a"}} {
		got, err := n.Normalize(context.Background(), v)
		require.NoError(t, err)
		require.Equal(t, models.InlineData{MIMEType: "image/jpeg", Data: ""}, got)
	}
}

func TestNormalizeDataURL(t *testing.T) {
	n := NewNormalizer(nil)
	got, err := n.Normalize(context.Background(), "data:image/png;base64,AAAA")
	require.NoError(t, err)
	require.Equal(t, models.InlineData{MIMEType: "image/png", Data: "AAAA"}, got)
}

func TestNormalizeRemoteWithoutFetcher(t *testing.T) {
	n := NewNormalizer(nil)
	_, err := n.Normalize(context.Background(), "https://example.com/a.png")
	require.ErrorIs(t, err, ErrRemoteDisabled)
}

func TestNormalizeFetchesRemoteImage(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png; charset=binary")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	n := NewNormalizer(NewHTTPFetcher(config.FetchConfig{Timeout: 5 * time.Second, MaxBytes: 1024}))
	got, err := n.Normalize(context.Background(), srv.URL+"/avatar.png")
	require.NoError(t, err)
	require.Equal(t, "image/png", got.MIMEType)
	require.Equal(t, base64.StdEncoding.EncodeToString(payload), got.Data)
}

func TestNormalizeRemoteDefaultsContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		_, _ = w.Write([]byte("jpegbytes"))
	}))
	defer srv.Close()

	n := NewNormalizer(NewHTTPFetcher(config.FetchConfig{Timeout: 5 * time.Second, MaxBytes: 1024}))
	got, err := n.Normalize(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", got.MIMEType)
}

func TestNormalizeRemoteNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	n := NewNormalizer(NewHTTPFetcher(config.FetchConfig{Timeout: 5 * time.Second, MaxBytes: 1024}))
	_, err := n.Normalize(context.Background(), srv.URL)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	require.Contains(t, err.Error(), "404")
}

func TestFetchEnforcesSizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(config.FetchConfig{Timeout: 5 * time.Second, MaxBytes: 16})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrFetchTooLarge)
}

func TestFetchHonoursAllowList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	denied := NewHTTPFetcher(config.FetchConfig{Timeout: time.Second, MaxBytes: 1024, AllowedHosts: []string{"cdn.example.com"}})
	_, err = denied.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrHostNotAllowed)

	allowed := NewHTTPFetcher(config.FetchConfig{Timeout: time.Second, MaxBytes: 1024, AllowedHosts: []string{u.Hostname()}})
	got, err := allowed.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, []byte("ok"), got.Data)
}

func TestFetchAllowListAppliesToRedirects(t *testing.T) {
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("internal-bytes"))
	}))
	defer internal.Close()
	internalURL, err := url.Parse(internal.URL)
	require.NoError(t, err)
	internalURL.Host = "localhost:" + internalURL.Port()

	redirector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, internalURL.String(), http.StatusFound)
	}))
	defer redirector.Close()
	u, err := url.Parse(redirector.URL)
	require.NoError(t, err)

	f := NewHTTPFetcher(config.FetchConfig{Timeout: time.Second, MaxBytes: 1024, AllowedHosts: []string{u.Hostname()}})
	got, err := f.Fetch(context.Background(), redirector.URL)
	require.Error(t, err)
	require.ErrorContains(t, err, ErrHostNotAllowed.Error())
	require.Empty(t, got.Data)
}

func TestFetchFollowsRedirectWithinAllowList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/avatar.png", http.StatusFound)
	})
	mux.HandleFunc("/avatar.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("avatar"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	f := NewHTTPFetcher(config.FetchConfig{Timeout: time.Second, MaxBytes: 1024, AllowedHosts: []string{u.Hostname()}})
	got, err := f.Fetch(context.Background(), srv.URL+"/moved")
	require.NoError(t, err)
	require.Equal(t, []byte("avatar"), got.Data)
}

func TestNormalizeAllKeepsOrderAndPlaceholders(t *testing.T) {
	n := NewNormalizer(nil)
	got, err := n.NormalizeAll(context.Background(), []any{"data:image/png;base64,AAAA", 7, "BBBB"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "image/png", got[0].MIMEType)
	require.True(t, got[1].IsEmpty())
	require.Equal(t, "BBBB", got[2].Data)
	require.Len(t, models.NonEmpty(got), 2)
}
