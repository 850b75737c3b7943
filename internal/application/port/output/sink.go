package output

import (
	"context"

	"insight-exporter/internal/domain/entity"
)

// ArtifactSinkPort delivers a finished artifact and reports where it went.
type ArtifactSinkPort interface {
	Store(ctx context.Context, artifact entity.Artifact) (string, error)
}
