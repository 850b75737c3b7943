package entity

import "insight-exporter/internal/domain/dom"

// DiscoveredTable is one table located during a discovery scan. Source is
// the only reference to the underlying node; instances are rebuilt on
// every scan and never persisted. Visible and the counts are facts about
// the moment of the scan, not live properties.
type DiscoveredTable struct {
	ID          string
	Name        string
	Source      dom.Element
	RowCount    int
	ColumnCount int
	Visible     bool
	TabPath     string
}

// TableData is the extracted, display-ready matrix for one table. Row
// lengths are not forced to match the header length; ragged source tables
// stay ragged.
type TableData struct {
	Name     string
	Headers  []string
	Rows     [][]string
	Metadata *TableMetadata
}

type TableMetadata struct {
	OriginalRowCount    int
	OriginalColumnCount int
	ExportedAt          string
}

func (t TableData) Empty() bool {
	return len(t.Headers) == 0 && len(t.Rows) == 0
}
