package port

import (
	"context"

	"github.com/soberano/soberano/internal/domain"
)

// ArtifactFetcher resolves one engine artifact from the configured base
// location and returns its local path.
type ArtifactFetcher interface {
	Fetch(ctx context.Context, kind domain.ArtifactKind) (string, error)
}

type ArtifactCache interface {
	GetArtifact(ctx context.Context, kind domain.ArtifactKind) (*domain.ArtifactRecord, error)
	SaveArtifact(ctx context.Context, rec *domain.ArtifactRecord) error
	ListArtifacts(ctx context.Context) ([]domain.ArtifactRecord, error)
	DeleteArtifact(ctx context.Context, kind domain.ArtifactKind) error
}
