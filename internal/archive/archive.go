// Package archive keeps copies of successful generation envelopes so they can
// be fetched again by generation id.
package archive

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/ncecere/ai_media_studio/internal/storage/blob"
)

// ErrNotFound is returned when no envelope exists for an id, including when
// archiving is disabled.
var ErrNotFound = errors.New("generation not found")

var idPattern = regexp.MustCompile(`^[a-z]+_[0-9]+$`)

// Archive stores envelopes under generations/<id>.json. A nil Archive is a
// disabled archive.
type Archive struct {
	store blob.Store
}

func New(store blob.Store) *Archive {
	if store == nil {
		return nil
	}
	return &Archive{store: store}
}

// Enabled reports whether envelopes are persisted.
func (a *Archive) Enabled() bool {
	return a != nil && a.store != nil
}

// ValidID reports whether id has the <prefix>_<millis> shape.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

func (a *Archive) Save(ctx context.Context, id string, envelope []byte) error {
	if !a.Enabled() {
		return nil
	}
	if !ValidID(id) {
		return fmt.Errorf("archive: invalid generation id %q", id)
	}
	if err := a.store.Write(ctx, key(id), envelope); err != nil {
		return fmt.Errorf("archive: write %s: %w", id, err)
	}
	return nil
}

func (a *Archive) Load(ctx context.Context, id string) ([]byte, error) {
	if !a.Enabled() || !ValidID(id) {
		return nil, ErrNotFound
	}
	data, err := a.store.Read(ctx, key(id))
	if errors.Is(err, blob.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("archive: read %s: %w", id, err)
	}
	return data, nil
}

func key(id string) string {
	return "generations/" + id + ".json"
}
