package output

import "insight-exporter/internal/domain/entity"

// TableSelectorPort asks the operator which discovered tables to export.
type TableSelectorPort interface {
	SelectTables(tables []entity.DiscoveredTable) ([]entity.DiscoveredTable, error)
}
