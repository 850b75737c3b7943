package input

import (
	"context"

	"insight-exporter/internal/domain/entity"
)

// Exporter is the public entry point of the export pipeline.
//
// Discover walks the document, transiently activating inactive tab panels,
// and returns every data table found. Export extracts the selected tables
// and delivers the serialized artifacts. Only one export may run at a
// time; IsExporting reports whether a run currently holds the permit.
type Exporter interface {
	Discover(ctx context.Context) ([]entity.DiscoveredTable, error)
	Export(ctx context.Context, cfg entity.ExportConfig) (*entity.ExportResult, error)
	IsExporting() bool
}
