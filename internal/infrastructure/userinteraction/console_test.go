package userinteraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insight-exporter/internal/domain/entity"
)

func namedTables(names ...string) []entity.DiscoveredTable {
	tables := make([]entity.DiscoveredTable, 0, len(names))
	for _, name := range names {
		tables = append(tables, entity.DiscoveredTable{Name: name})
	}
	return tables
}

func TestFilterSelection(t *testing.T) {
	tables := namedTables("A", "B", "C", "D", "E")

	tests := []struct {
		name string
		expr string
		want []string
	}{
		{"all keyword", "all", []string{"A", "B", "C", "D", "E"}},
		{"all uppercase", "ALL", []string{"A", "B", "C", "D", "E"}},
		{"empty means all", "  \n", []string{"A", "B", "C", "D", "E"}},
		{"single index", "2", []string{"B"}},
		{"list", "1,3", []string{"A", "C"}},
		{"range", "2-4", []string{"B", "C", "D"}},
		{"mixed with spaces", " 1, 3-4 ", []string{"A", "C", "D"}},
		{"duplicates collapse", "2,2,1-2", []string{"B", "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			picked, err := FilterSelection(tables, tt.expr)
			require.NoError(t, err)

			names := make([]string, 0, len(picked))
			for _, table := range picked {
				names = append(names, table.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestFilterSelectionErrors(t *testing.T) {
	tables := namedTables("A", "B")

	for _, expr := range []string{"0", "3", "2-1", "1-9", "x", "1,abc", ","} {
		_, err := FilterSelection(tables, expr)
		assert.Error(t, err, "expression %q", expr)
	}
}
