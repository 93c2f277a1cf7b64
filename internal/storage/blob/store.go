// Package blob persists archived generation envelopes in a local directory
// or an S3 bucket.
package blob

import (
	"context"
	"errors"
	"strings"

	"github.com/ncecere/ai_media_studio/internal/config"
)

// ErrNotFound is returned by Read when the key does not exist.
var ErrNotFound = errors.New("blob not found")

// Store writes and reads whole objects. Envelopes are small JSON documents,
// so objects move as byte slices rather than streams.
type Store interface {
	Write(ctx context.Context, key string, data []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
}

// New builds the archive store for cfg.Storage. A configured encryption key
// wraps the backend so objects are sealed at rest.
func New(ctx context.Context, cfg config.ArchiveConfig) (Store, error) {
	var (
		backend Store
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Storage)) {
	case "s3":
		backend, err = newS3Store(ctx, cfg.S3)
	default:
		backend, err = newLocalStore(cfg.Local.Directory)
	}
	if err != nil {
		return nil, err
	}
	return withSealing(backend, cfg.EncryptionKey)
}
