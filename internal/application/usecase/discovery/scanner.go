// Package discovery locates data tables in a rendered scope and derives
// a human-readable name for each one.
package discovery

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"insight-exporter/internal/application/port/output"
	"insight-exporter/internal/domain/dom"
	"insight-exporter/internal/domain/entity"
)

const (
	// maxNameSiblings bounds the backward walk for a table's name.
	maxNameSiblings = 5
	// maxSnippetLength is the longest sibling text still usable as a name.
	maxSnippetLength = 100
)

type Scanner struct {
	log output.LoggerPort
}

func NewScanner(log output.LoggerPort) *Scanner {
	return &Scanner{log: log}
}

// Scan finds every table element under scope, visible or not. Callers
// decide what to do with hidden ones; the collector skips them, the
// discover command reports them.
func (s *Scanner) Scan(scope dom.Element) []entity.DiscoveredTable {
	elements := scope.QueryAll("table")
	tables := make([]entity.DiscoveredTable, 0, len(elements))

	for i, el := range elements {
		rows, cols := s.describe(el)
		table := entity.DiscoveredTable{
			ID:          el.ID(),
			Name:        s.tableName(el, i+1),
			Source:      el,
			RowCount:    rows,
			ColumnCount: cols,
			Visible:     s.isVisible(el),
		}
		tables = append(tables, table)

		s.log.Debug("table discovered",
			"name", table.Name,
			"rows", table.RowCount,
			"columns", table.ColumnCount,
			"visible", table.Visible,
		)
	}
	return tables
}

func (s *Scanner) describe(table dom.Element) (rows, cols int) {
	trs := table.QueryAll("tr")
	if len(trs) == 0 {
		return 0, 0
	}
	return len(trs), len(trs[0].QueryAll("th, td"))
}

// tableName resolves a display name: the caption wins, then a heading
// among the few preceding siblings, then the nearest short text snippet,
// then a positional fallback.
func (s *Scanner) tableName(table dom.Element, position int) string {
	if caption, ok := table.Query("caption"); ok {
		if name := collapse(caption.Text()); name != "" {
			return name
		}
	}

	snippet := ""
	sibling, ok := table.Previous()
	for steps := 0; ok && steps < maxNameSiblings; steps++ {
		text := collapse(sibling.Text())
		if text != "" {
			if isHeading(sibling) {
				return text
			}
			if snippet == "" && utf8.RuneCountInString(text) < maxSnippetLength {
				snippet = text
			}
		}
		sibling, ok = sibling.Previous()
	}
	if snippet != "" {
		return snippet
	}
	return fmt.Sprintf("Table %d", position)
}

func isHeading(el dom.Element) bool {
	switch strings.ToLower(el.TagName()) {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

func (s *Scanner) isVisible(el dom.Element) bool {
	if _, ok := el.Box(); !ok {
		return false
	}
	if el.ComputedStyle("display") == "none" {
		return false
	}
	if el.ComputedStyle("visibility") == "hidden" {
		return false
	}
	return true
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
