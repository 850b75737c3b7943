// Package download stores finished export artifacts in a local
// directory, mirroring a browser download.
package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"insight-exporter/internal/application/port/output"
	"insight-exporter/internal/domain/entity"
)

var _ output.ArtifactSinkPort = (*FileSink)(nil)

type FileSink struct {
	dir string
	log output.LoggerPort
}

func NewFileSink(dir string, log output.LoggerPort) *FileSink {
	return &FileSink{dir: dir, log: log}
}

func (s *FileSink) Dir() string { return s.dir }

func (s *FileSink) Store(ctx context.Context, artifact entity.Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	path := filepath.Join(s.dir, artifact.FileName)
	if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}

	s.log.Debug("artifact stored", "path", path, "bytes", len(artifact.Data))
	return path, nil
}
