// Package extraction turns a discovered table element into plain tabular
// data. Scroll clipping is neutralized for the duration of the read, so
// columns hidden behind horizontal overflow are captured too.
package extraction

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"insight-exporter/internal/application/port/output"
	"insight-exporter/internal/domain/dom"
	"insight-exporter/internal/domain/entity"
)

// currencySymbols are checked in order when formatting recovery is on;
// the first one present in markup but missing from the rendered text is
// prepended.
var currencySymbols = []string{"$", "€", "£"}

const exportedAtLayout = "Jan 2, 2006 3:04 PM"

type Extractor struct {
	log output.LoggerPort
}

func NewExtractor(log output.LoggerPort) *Extractor {
	return &Extractor{log: log}
}

// Extract reads one table into TableData. The first row becomes the
// header when it holds header cells or when the options force header
// treatment. Cell formatters run against data cells at their original
// column positions; a formatter error aborts the whole table. The
// table's scroll container is always restored, even on failure.
func (e *Extractor) Extract(table entity.DiscoveredTable, opts entity.ExportOptions) (entity.TableData, error) {
	restore := e.neutralizeScroll(table.Source)
	defer restore()

	rows := table.Source.QueryAll("tr")
	data := entity.TableData{Name: table.Name}
	if len(rows) == 0 {
		return data, nil
	}

	hasHeader := len(rows[0].QueryAll(`th, [role="columnheader"]`)) > 0 || opts.IncludeHeaders
	if hasHeader {
		data.Headers = e.rowCells(rows[0], opts)
		rows = rows[1:]
	}

	for _, row := range rows {
		cells := e.rowCells(row, opts)
		for i, value := range cells {
			formatter, ok := opts.Formatters[i]
			if !ok {
				continue
			}
			formatted, err := formatter(value)
			if err != nil {
				return entity.TableData{}, fmt.Errorf("format column %d: %w", i, err)
			}
			cells[i] = formatted
		}
		data.Rows = append(data.Rows, cells)
	}

	if opts.IncludeMetadata {
		data.Metadata = &entity.TableMetadata{
			OriginalRowCount:    len(data.Rows) + headerCount(hasHeader),
			OriginalColumnCount: e.columnCount(data, hasHeader),
			ExportedAt:          time.Now().Format(exportedAtLayout),
		}
	}

	if opts.IncludeRowNumbers {
		e.injectRowNumbers(&data, hasHeader)
	}

	e.log.Debug("table extracted", "name", table.Name, "rows", len(data.Rows))
	return data, nil
}

func (e *Extractor) rowCells(row dom.Element, opts entity.ExportOptions) []string {
	elements := row.QueryAll(`th, td, [role="columnheader"], [role="cell"]`)
	cells := make([]string, 0, len(elements))
	for _, cell := range elements {
		cells = append(cells, e.cellText(cell, opts))
	}
	return cells
}

func (e *Extractor) cellText(cell dom.Element, opts entity.ExportOptions) string {
	text := collapse(cell.Text())
	if opts.PreserveFormatting {
		text = recoverCurrencySymbol(cell, text)
	}
	return text
}

// recoverCurrencySymbol puts back a currency sign that is present in the
// cell's markup but stripped from its rendered text, which happens when
// dashboards hide the sign in a styled span.
func recoverCurrencySymbol(cell dom.Element, text string) string {
	markup := cell.HTML()
	for _, symbol := range currencySymbols {
		if strings.Contains(markup, symbol) && !strings.Contains(text, symbol) {
			return symbol + text
		}
	}
	return text
}

// columnCount reports the width of the table as rendered, before any
// row number column is injected.
func (e *Extractor) columnCount(data entity.TableData, hasHeader bool) int {
	if hasHeader {
		return len(data.Headers)
	}
	if len(data.Rows) > 0 {
		return len(data.Rows[0])
	}
	return 0
}

func (e *Extractor) injectRowNumbers(data *entity.TableData, hasHeader bool) {
	if hasHeader {
		data.Headers = append([]string{"#"}, data.Headers...)
	}
	for i, row := range data.Rows {
		data.Rows[i] = append([]string{strconv.Itoa(i + 1)}, row...)
	}
}

func headerCount(hasHeader bool) int {
	if hasHeader {
		return 1
	}
	return 0
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
