// Package csvout writes export documents as comma-delimited text. The
// excel format is served by the same serializer: a true workbook format
// is not produced, spreadsheet applications open the CSV directly.
package csvout

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"insight-exporter/internal/application/port/output"
	"insight-exporter/internal/domain/entity"
)

const (
	generatedLayout   = "Jan 2, 2006 3:04 PM"
	maxFileNameLength = 60
)

type Serializer struct {
	log output.LoggerPort
}

var _ output.SerializerPort = (*Serializer)(nil)

func New(log output.LoggerPort) *Serializer {
	return &Serializer{log: log}
}

func (s *Serializer) Formats() []entity.Format {
	return []entity.Format{entity.FormatCSV, entity.FormatExcel}
}

func (s *Serializer) ContentType() string { return "text/csv" }

func (s *Serializer) FileExtension() string { return "csv" }

// Serialize emits one document per table when separate sheets are
// requested and more than one table is present, otherwise a single
// document with table sections separated by a blank line.
func (s *Serializer) Serialize(doc entity.ExportDocument) ([]entity.Artifact, error) {
	if doc.Options.SeparateSheets && len(doc.Tables) > 1 {
		artifacts := make([]entity.Artifact, 0, len(doc.Tables))
		for _, table := range doc.Tables {
			artifacts = append(artifacts, entity.Artifact{
				FileName:    fmt.Sprintf("%s_%s.csv", doc.FileName, sanitizeName(table.Name)),
				ContentType: s.ContentType(),
				Data:        []byte(s.renderTable(table, doc.Options) + "\n"),
			})
		}
		s.log.Debug("csv serialized", "artifacts", len(artifacts))
		return artifacts, nil
	}

	var sections []string
	if doc.Options.IncludeMetadata {
		sections = append(sections, s.metadataBlock(doc))
	}
	for _, table := range doc.Tables {
		sections = append(sections, s.renderTable(table, doc.Options))
	}

	artifact := entity.Artifact{
		FileName:    doc.FileName + ".csv",
		ContentType: s.ContentType(),
		Data:        []byte(strings.Join(sections, "\n\n") + "\n"),
	}
	s.log.Debug("csv serialized", "bytes", len(artifact.Data))
	return []entity.Artifact{artifact}, nil
}

// renderTable emits the quoted table name line, the header row when
// enabled and present, then the data rows.
func (s *Serializer) renderTable(table entity.TableData, opts entity.ExportOptions) string {
	lines := make([]string, 0, len(table.Rows)+2)
	lines = append(lines, quoteField(table.Name))
	if opts.IncludeHeaders && len(table.Headers) > 0 {
		lines = append(lines, renderRow(table.Headers))
	}
	for _, row := range table.Rows {
		lines = append(lines, renderRow(row))
	}
	return strings.Join(lines, "\n")
}

func (s *Serializer) metadataBlock(doc entity.ExportDocument) string {
	lines := []string{
		quoteField(doc.TabName + " - Data Export"),
		quoteField("Generated: " + time.Now().Format(generatedLayout)),
		quoteField("Tables: " + strconv.Itoa(len(doc.Tables))),
	}
	return strings.Join(lines, "\n")
}

func renderRow(cells []string) string {
	escaped := make([]string, 0, len(cells))
	for _, cell := range cells {
		escaped = append(escaped, escapeField(cell))
	}
	return strings.Join(escaped, ",")
}

// escapeField quotes a field only when it has to: a comma, a quote or a
// newline inside. Everything else passes through byte for byte.
func escapeField(field string) string {
	if !strings.ContainsAny(field, ",\"\n") {
		return field
	}
	return quoteField(field)
}

func quoteField(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// sanitizeName makes a table name safe for a file name: every
// non-alphanumeric character becomes an underscore.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	sanitized := b.String()
	if len(sanitized) > maxFileNameLength {
		sanitized = sanitized[:maxFileNameLength]
	}
	return sanitized
}
