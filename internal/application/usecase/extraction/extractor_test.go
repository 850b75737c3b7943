package extraction

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insight-exporter/internal/domain/dom"
	"insight-exporter/internal/domain/entity"
	"insight-exporter/internal/infrastructure/browser/htmlsnap"
	"insight-exporter/internal/infrastructure/logger"
)

func snapshotTable(t *testing.T, body, selector string) (dom.Element, entity.DiscoveredTable) {
	t.Helper()
	doc, err := htmlsnap.ParseString("<html><body>" + body + "</body></html>")
	require.NoError(t, err)
	root, err := doc.Root()
	require.NoError(t, err)
	table, ok := root.Query(selector)
	require.True(t, ok)
	return root, entity.DiscoveredTable{ID: table.ID(), Name: "Revenue", Source: table}
}

func TestExtractHeaderDetection(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		opts        entity.ExportOptions
		wantHeaders []string
		wantRows    [][]string
	}{
		{
			name:        "th row becomes header",
			body:        `<table id="t"><tr><th>Month</th><th>Total</th></tr><tr><td>Jan</td><td>10</td></tr></table>`,
			wantHeaders: []string{"Month", "Total"},
			wantRows:    [][]string{{"Jan", "10"}},
		},
		{
			name:        "columnheader role becomes header",
			body:        `<table id="t"><tr><td role="columnheader">Month</td></tr><tr><td>Jan</td></tr></table>`,
			wantHeaders: []string{"Month"},
			wantRows:    [][]string{{"Jan"}},
		},
		{
			name:        "td row forced into header",
			body:        `<table id="t"><tr><td>Month</td></tr><tr><td>Jan</td></tr></table>`,
			opts:        entity.ExportOptions{IncludeHeaders: true},
			wantHeaders: []string{"Month"},
			wantRows:    [][]string{{"Jan"}},
		},
		{
			name:     "td rows stay data",
			body:     `<table id="t"><tr><td>Jan</td></tr><tr><td>Feb</td></tr></table>`,
			wantRows: [][]string{{"Jan"}, {"Feb"}},
		},
	}

	extractor := NewExtractor(logger.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, table := snapshotTable(t, tt.body, "#t")
			data, err := extractor.Extract(table, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHeaders, data.Headers)
			assert.Equal(t, tt.wantRows, data.Rows)
		})
	}
}

func TestExtractRowNumbers(t *testing.T) {
	_, table := snapshotTable(t, `<table id="t">
	  <tr><th>Month</th><th>Total</th></tr>
	  <tr><td>Jan</td><td>10</td></tr>
	  <tr><td>Feb</td><td>20</td></tr>
	</table>`, "#t")

	data, err := NewExtractor(logger.Nop()).Extract(table, entity.ExportOptions{IncludeRowNumbers: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"#", "Month", "Total"}, data.Headers)
	assert.Equal(t, [][]string{{"1", "Jan", "10"}, {"2", "Feb", "20"}}, data.Rows)
}

func TestExtractCurrencyRecovery(t *testing.T) {
	const body = `<table id="t">
	  <tr><th>Item</th><th>Cost</th></tr>
	  <tr><td>Widget</td><td><span style="display: none">$</span>1,200</td></tr>
	</table>`

	_, table := snapshotTable(t, body, "#t")
	data, err := NewExtractor(logger.Nop()).Extract(table, entity.ExportOptions{PreserveFormatting: true})
	require.NoError(t, err)
	assert.Equal(t, "$1,200", data.Rows[0][1])

	_, table = snapshotTable(t, body, "#t")
	data, err = NewExtractor(logger.Nop()).Extract(table, entity.ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "1,200", data.Rows[0][1])
}

func TestExtractFormatters(t *testing.T) {
	_, table := snapshotTable(t, `<table id="t">
	  <tr><th>Name</th><th>Status</th></tr>
	  <tr><td>alpha</td><td>open</td></tr>
	</table>`, "#t")

	opts := entity.ExportOptions{
		IncludeRowNumbers: true,
		Formatters: map[int]entity.CellFormatter{
			1: func(v string) (string, error) { return strings.ToUpper(v), nil },
		},
	}
	data, err := NewExtractor(logger.Nop()).Extract(table, opts)
	require.NoError(t, err)

	// Formatter indexes refer to columns before the number column shifts them.
	assert.Equal(t, [][]string{{"1", "alpha", "OPEN"}}, data.Rows)
	assert.Equal(t, []string{"#", "Name", "Status"}, data.Headers)
}

func TestExtractFormatterErrorRestores(t *testing.T) {
	root, table := snapshotTable(t, `
	  <div id="wrap" style="overflow-x: auto">
	    <table id="t" style="width: 640px"><tr><th>A</th></tr><tr><td>1</td></tr></table>
	  </div>`, "#t")

	wrap, ok := root.Query("#wrap")
	require.True(t, ok)
	require.NoError(t, wrap.SetScrollLeft(80))

	boom := errors.New("bad cell")
	sawNeutralized := false
	opts := entity.ExportOptions{
		Formatters: map[int]entity.CellFormatter{
			0: func(v string) (string, error) {
				sawNeutralized = wrap.InlineStyle("overflow-x") == "visible" &&
					table.Source.InlineStyle("width") == "max-content" &&
					table.Source.InlineStyle("max-width") == "none" &&
					wrap.ScrollLeft() == 0
				return "", boom
			},
		},
	}

	_, err := NewExtractor(logger.Nop()).Extract(table, opts)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "format column 0")

	assert.True(t, sawNeutralized, "clipping must be lifted while cells are read")
	assert.Equal(t, "auto", wrap.InlineStyle("overflow-x"))
	assert.Equal(t, "640px", table.Source.InlineStyle("width"))
	assert.Empty(t, table.Source.InlineStyle("max-width"))
	assert.Equal(t, 80.0, wrap.ScrollLeft())
}

func TestExtractScrollClassMarker(t *testing.T) {
	root, table := snapshotTable(t, `
	  <div><div id="wrap" class="table-container">
	    <table id="t"><tr><th>A</th></tr><tr><td>1</td></tr></table>
	  </div></div>`, "#t")

	sawNeutralized := false
	opts := entity.ExportOptions{
		Formatters: map[int]entity.CellFormatter{
			0: func(v string) (string, error) {
				wrap, _ := root.Query("#wrap")
				sawNeutralized = wrap.InlineStyle("overflow-x") == "visible"
				return v, nil
			},
		},
	}
	_, err := NewExtractor(logger.Nop()).Extract(table, opts)
	require.NoError(t, err)
	assert.True(t, sawNeutralized)

	wrap, _ := root.Query("#wrap")
	_, hasStyle := wrap.Attribute("style")
	assert.False(t, hasStyle, "inline styles added for the read are removed again")
	_, hasStyle = table.Source.Attribute("style")
	assert.False(t, hasStyle)
}

func TestExtractHiddenOverflowParentFallback(t *testing.T) {
	root, table := snapshotTable(t, `
	  <div id="clip" style="overflow: hidden">
	    <table id="t"><tr><th>A</th></tr><tr><td>1</td></tr></table>
	  </div>`, "#t")

	clip, ok := root.Query("#clip")
	require.True(t, ok)
	require.NoError(t, clip.SetScrollLeft(40))

	sawReset := false
	opts := entity.ExportOptions{
		Formatters: map[int]entity.CellFormatter{
			0: func(v string) (string, error) {
				sawReset = clip.ScrollLeft() == 0
				return v, nil
			},
		},
	}
	_, err := NewExtractor(logger.Nop()).Extract(table, opts)
	require.NoError(t, err)

	assert.True(t, sawReset, "immediate parent is the container when no ancestor is scrollable")
	assert.Equal(t, 40.0, clip.ScrollLeft())
	assert.Equal(t, "hidden", clip.InlineStyle("overflow"))
	assert.Empty(t, clip.InlineStyle("overflow-x"))
}

func TestExtractMetadata(t *testing.T) {
	_, table := snapshotTable(t, `<table id="t">
	  <tr><th>A</th><th>B</th><th>C</th></tr>
	  <tr><td>1</td><td>2</td><td>3</td></tr>
	  <tr><td>4</td><td>5</td><td>6</td></tr>
	</table>`, "#t")

	opts := entity.ExportOptions{IncludeMetadata: true, IncludeRowNumbers: true}
	data, err := NewExtractor(logger.Nop()).Extract(table, opts)
	require.NoError(t, err)

	require.NotNil(t, data.Metadata)
	assert.Equal(t, 3, data.Metadata.OriginalRowCount, "header included, number column not")
	assert.Equal(t, 3, data.Metadata.OriginalColumnCount)
	_, err = time.Parse("Jan 2, 2006 3:04 PM", data.Metadata.ExportedAt)
	assert.NoError(t, err)
}

func TestExtractRaggedRows(t *testing.T) {
	_, table := snapshotTable(t, `<table id="t">
	  <tr><th>A</th><th>B</th></tr>
	  <tr><td>1</td></tr>
	  <tr><td>2</td><td>3</td></tr>
	</table>`, "#t")

	data, err := NewExtractor(logger.Nop()).Extract(table, entity.ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1"}, {"2", "3"}}, data.Rows)
}

func TestExtractEmptyTable(t *testing.T) {
	_, table := snapshotTable(t, `<table id="t"></table>`, "#t")

	data, err := NewExtractor(logger.Nop()).Extract(table, entity.ExportOptions{})
	require.NoError(t, err)
	assert.True(t, data.Empty())
	assert.Nil(t, data.Metadata)
}
