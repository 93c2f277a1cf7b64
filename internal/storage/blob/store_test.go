package blob

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ncecere/ai_media_studio/internal/config"
)

func newLocal(t *testing.T, key string) (Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := New(context.Background(), config.ArchiveConfig{
		Storage:       "local",
		EncryptionKey: key,
		Local:         config.ArchiveLocalConfig{Directory: dir},
	})
	require.NoError(t, err)
	return s, dir
}

func testKey() string {
	return base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
}

func TestLocalStoreRoundTrip(t *testing.T) {
	s, dir := newLocal(t, "")
	ctx := context.Background()
	payload := []byte(`{"generationId":"gen_1"}`)

	require.NoError(t, s.Write(ctx, "generations/gen_1.json", payload))

	onDisk, err := os.ReadFile(filepath.Join(dir, "generations", "gen_1.json"))
	require.NoError(t, err)
	require.Equal(t, payload, onDisk)

	got, err := s.Read(ctx, "generations/gen_1.json")
	require.NoError(t, err)
	require.Equal(t, payload, got)

	entries, err := os.ReadDir(filepath.Join(dir, "generations"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")

	_, err = s.Read(ctx, "generations/missing.json")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreOverwrites(t *testing.T) {
	s, _ := newLocal(t, "")
	ctx := context.Background()
	require.NoError(t, s.Write(ctx, "generations/gen_1.json", []byte(`{"v":1}`)))
	require.NoError(t, s.Write(ctx, "generations/gen_1.json", []byte(`{"v":2}`)))
	got, err := s.Read(ctx, "generations/gen_1.json")
	require.NoError(t, err)
	require.Equal(t, `{"v":2}`, string(got))
}

func TestSealedStoreEncryptsAtRest(t *testing.T) {
	s, dir := newLocal(t, testKey())
	ctx := context.Background()
	payload := []byte(`{"generationId":"swap_2","analysisResponse":"ok"}`)

	require.NoError(t, s.Write(ctx, "generations/swap_2.json", payload))

	onDisk, err := os.ReadFile(filepath.Join(dir, "generations", "swap_2.json"))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(onDisk, sealedMagic))
	require.NotContains(t, string(onDisk), "analysisResponse")

	got, err := s.Read(ctx, "generations/swap_2.json")
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestSealedStoreBindsObjectToKey(t *testing.T) {
	s, dir := newLocal(t, testKey())
	ctx := context.Background()
	require.NoError(t, s.Write(ctx, "generations/gen_1.json", []byte(`{"a":1}`)))

	sealed, err := os.ReadFile(filepath.Join(dir, "generations", "gen_1.json"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "generations", "gen_2.json"), sealed, 0o640))

	_, err = s.Read(ctx, "generations/gen_2.json")
	require.Error(t, err)
}

func TestSealedStoreReadsLegacyPlaintext(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	plain, err := New(ctx, config.ArchiveConfig{Local: config.ArchiveLocalConfig{Directory: dir}})
	require.NoError(t, err)
	require.NoError(t, plain.Write(ctx, "generations/gen_1.json", []byte(`{"old":true}`)))

	sealed, err := New(ctx, config.ArchiveConfig{EncryptionKey: testKey(), Local: config.ArchiveLocalConfig{Directory: dir}})
	require.NoError(t, err)
	got, err := sealed.Read(ctx, "generations/gen_1.json")
	require.NoError(t, err)
	require.Equal(t, `{"old":true}`, string(got))

	require.NoError(t, sealed.Write(ctx, "generations/gen_2.json", []byte(`{"new":true}`)))
	_, err = plain.Read(ctx, "generations/gen_2.json")
	require.ErrorIs(t, err, errSealedWithoutKey)
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	s, _ := newLocal(t, "")
	for _, key := range []string{"../outside.json", "/etc/passwd", "."} {
		require.Error(t, s.Write(context.Background(), key, []byte("x")), key)
	}
}

func TestNewRejectsBadEncryptionKey(t *testing.T) {
	dir := t.TempDir()
	_, err := New(context.Background(), config.ArchiveConfig{
		EncryptionKey: base64.StdEncoding.EncodeToString([]byte("short")),
		Local:         config.ArchiveLocalConfig{Directory: dir},
	})
	require.ErrorContains(t, err, "16/24/32 bytes")

	_, err = New(context.Background(), config.ArchiveConfig{
		EncryptionKey: "not base64!",
		Local:         config.ArchiveLocalConfig{Directory: dir},
	})
	require.ErrorContains(t, err, "must be base64")
}
