// Package pdfout renders export documents as paginated landscape PDF
// reports. Every produced document is validated with pdfcpu before it
// leaves the serializer, so a rendering bug surfaces as an export error
// instead of a corrupt download.
package pdfout

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"insight-exporter/internal/application/port/output"
	"insight-exporter/internal/domain/entity"
)

// Layout constants for landscape A4 in millimeters.
const (
	pageMargin     = 10.0
	printableWidth = 277.0
	pageBottom     = 200.0

	titleHeight  = 10.0
	metaHeight   = 6.0
	nameHeight   = 8.0
	headerHeight = 8.0
	rowHeight    = 7.0
	tableSpacing = 6.0
	cellPadding  = 2.0
	chartWidth   = 180.0

	// maxStyledColumns caps explicit column sizing; columns past the cap
	// fall back to a fixed width and may run off the page edge.
	maxStyledColumns = 8
	defaultCellWidth = 30.0
)

const generatedLayout = "Jan 2, 2006 3:04 PM"

type Serializer struct {
	log output.LoggerPort
}

var _ output.SerializerPort = (*Serializer)(nil)

func New(log output.LoggerPort) *Serializer {
	return &Serializer{log: log}
}

func (s *Serializer) Formats() []entity.Format { return []entity.Format{entity.FormatPDF} }

func (s *Serializer) ContentType() string { return "application/pdf" }

func (s *Serializer) FileExtension() string { return "pdf" }

func (s *Serializer) Serialize(doc entity.ExportDocument) ([]entity.Artifact, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	s.renderTitle(pdf, tr, doc)

	for i, table := range doc.Tables {
		if doc.Options.SeparateSheets && i > 0 {
			pdf.AddPage()
		}
		s.renderTable(pdf, tr, table, doc.Options)
	}

	s.renderCharts(pdf, tr, doc.Charts)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	if err := validatePDF(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("validate pdf: %w", err)
	}

	s.log.Debug("pdf serialized", "bytes", buf.Len(), "tables", len(doc.Tables))
	return []entity.Artifact{{
		FileName:    doc.FileName + ".pdf",
		ContentType: s.ContentType(),
		Data:        buf.Bytes(),
	}}, nil
}

func (s *Serializer) renderTitle(pdf *fpdf.Fpdf, tr func(string) string, doc entity.ExportDocument) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(17, 24, 39)
	pdf.CellFormat(0, titleHeight, tr(doc.TabName+" - Exported Data"), "", 1, "C", false, 0, "")

	if doc.Options.IncludeMetadata {
		totalRows := 0
		for _, table := range doc.Tables {
			totalRows += len(table.Rows)
		}
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(107, 114, 128)
		pdf.CellFormat(0, metaHeight, tr("Generated: "+time.Now().Format(generatedLayout)), "", 1, "C", false, 0, "")
		pdf.CellFormat(0, metaHeight, tr(fmt.Sprintf("Tables: %d", len(doc.Tables))), "", 1, "C", false, 0, "")
		pdf.CellFormat(0, metaHeight, tr(fmt.Sprintf("Total rows: %d", totalRows)), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)
}

func (s *Serializer) renderTable(pdf *fpdf.Fpdf, tr func(string) string, table entity.TableData, opts entity.ExportOptions) {
	if pdf.GetY()+nameHeight+headerHeight+rowHeight > pageBottom {
		pdf.AddPage()
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(17, 24, 39)
	pdf.CellFormat(0, nameHeight, tr(table.Name), "", 1, "L", false, 0, "")

	widths := columnWidths(tableColumns(table))
	showHeader := opts.IncludeHeaders && len(table.Headers) > 0
	if showHeader {
		s.renderHeaderRow(pdf, tr, table.Headers, widths)
	}

	fill := false
	for _, row := range table.Rows {
		if pdf.GetY()+rowHeight > pageBottom {
			pdf.AddPage()
			if showHeader {
				s.renderHeaderRow(pdf, tr, table.Headers, widths)
			}
		}
		s.renderDataRow(pdf, tr, row, widths, fill)
		fill = !fill
	}
	pdf.Ln(tableSpacing)
}

func (s *Serializer) renderHeaderRow(pdf *fpdf.Fpdf, tr func(string) string, headers []string, widths []float64) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(79, 70, 229)
	pdf.SetTextColor(255, 255, 255)
	for i, header := range headers {
		w := cellWidth(widths, i)
		pdf.CellFormat(w, headerHeight, s.fitCell(pdf, tr, header, w), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func (s *Serializer) renderDataRow(pdf *fpdf.Fpdf, tr func(string) string, row []string, widths []float64, fill bool) {
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(17, 24, 39)
	if fill {
		pdf.SetFillColor(249, 250, 251)
	} else {
		pdf.SetFillColor(255, 255, 255)
	}
	for i, cell := range row {
		w := cellWidth(widths, i)
		pdf.CellFormat(w, rowHeight, s.fitCell(pdf, tr, cell, w), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

// renderCharts places each captured chart on its own page, scaled to a
// fixed width with the aspect ratio kept.
func (s *Serializer) renderCharts(pdf *fpdf.Fpdf, tr func(string) string, charts []entity.ChartImage) {
	for i, chart := range charts {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(17, 24, 39)
		pdf.CellFormat(0, nameHeight, tr(chart.Name), "", 1, "L", false, 0, "")

		imageName := fmt.Sprintf("chart-%d", i)
		imgOpts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(imageName, imgOpts, bytes.NewReader(chart.PNG))
		pdf.ImageOptions(imageName, pageMargin, pdf.GetY()+2, chartWidth, 0, true, imgOpts, 0, "")
	}
}

// fitCell shortens a value until it fits the cell, ellipsized. The font
// must already be selected so width measurement matches rendering.
func (s *Serializer) fitCell(pdf *fpdf.Fpdf, tr func(string) string, value string, width float64) string {
	available := width - 2*cellPadding
	translated := tr(value)
	if pdf.GetStringWidth(translated) <= available {
		return translated
	}
	runes := []rune(value)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := tr(string(runes)) + "..."
		if pdf.GetStringWidth(candidate) <= available {
			return candidate
		}
	}
	return ""
}

func tableColumns(table entity.TableData) int {
	if len(table.Headers) > 0 {
		return len(table.Headers)
	}
	if len(table.Rows) > 0 {
		return len(table.Rows[0])
	}
	return 0
}

// columnWidths divides the printable width evenly, but only the first
// maxStyledColumns columns get an explicit width.
func columnWidths(columns int) []float64 {
	if columns == 0 {
		return nil
	}
	styled := columns
	if styled > maxStyledColumns {
		styled = maxStyledColumns
	}
	even := printableWidth / float64(columns)
	widths := make([]float64, styled)
	for i := range widths {
		widths[i] = even
	}
	return widths
}

func cellWidth(widths []float64, i int) float64 {
	if i < len(widths) {
		return widths[i]
	}
	return defaultCellWidth
}

func validatePDF(data []byte) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.Validate(bytes.NewReader(data), conf)
}
