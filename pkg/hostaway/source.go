package hostaway

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/theflex/reviews/pkg/common/models"
)

// Source yields a raw Hostaway reviews payload.
type Source interface {
	Kind() models.SourceKind
	Fetch(ctx context.Context) ([]byte, error)
}

// FixtureSource reads a canned payload from disk.
type FixtureSource struct {
	Path string
}

func NewFixtureSource(path string) *FixtureSource {
	return &FixtureSource{Path: path}
}

func (f *FixtureSource) Kind() models.SourceKind { return models.SourceMock }

func (f *FixtureSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(filepath.Clean(f.Path))
	if err != nil {
		return nil, fmt.Errorf("reading hostaway fixture: %w", err)
	}
	return content, nil
}

// Load fetches from src and normalizes the payload.
func Load(ctx context.Context, src Source) ([]models.NormalizedReview, error) {
	payload, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return NormalizePayload(payload)
}
