package providers

import (
	"context"
	"fmt"

	"github.com/ncecere/ai_media_studio/internal/config"
)

// Set holds the upstream clients shared by every request. It is built once at
// startup and passed to the handlers.
type Set struct {
	Gemini   Generator
	Vertex   VertexGenerator
	FaceSwap FaceSwapper

	statuses []Status
}

// Status describes one provider for health reporting.
type Status struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
	Configured   bool     `json:"configured"`
}

// Build runs every registered builder against cfg. Missing credentials are
// not an error here; the affected provider answers each call with a
// configuration error instead.
func Build(ctx context.Context, cfg *config.Config) (*Set, error) {
	cfg = EnsureConfig(cfg)
	set := &Set{}
	for _, def := range DefaultDefinitions() {
		configured, err := def.Builder(ctx, cfg, set)
		if err != nil {
			return nil, fmt.Errorf("provider %q: %w", def.Name, err)
		}
		set.statuses = append(set.statuses, Status{
			Name:         def.Name,
			Description:  def.Description,
			Capabilities: def.Capabilities,
			Configured:   configured,
		})
	}
	return set, nil
}

// Statuses lists the providers in name order.
func (s *Set) Statuses() []Status {
	if s == nil {
		return nil
	}
	out := make([]Status, len(s.statuses))
	copy(out, s.statuses)
	return out
}
