package entity

import "time"

// Artifact is one finished export file, ready for delivery.
type Artifact struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ChartImage is a rendered chart widget captured as an encoded image.
type ChartImage struct {
	Name string
	PNG  []byte
}

// ExportDocument is the serializer input: everything extracted during one
// export run.
type ExportDocument struct {
	TabName  string
	FileName string
	Options  ExportOptions
	Tables   []TableData
	Charts   []ChartImage
}

type ExportResult struct {
	RunID         string
	Format        Format
	ArtifactPaths []string
	TableCount    int
	RowCount      int
	StartedAt     time.Time
	Duration      time.Duration
}
