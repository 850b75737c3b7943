package entity

// Format identifies an export output format.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatCSV Format = "csv"

	// FormatExcel is accepted for compatibility and produces CSV output.
	// Binary workbook generation is out of scope.
	FormatExcel Format = "excel"
)

// ExportTarget selects where finished artifacts are delivered.
type ExportTarget string

const (
	TargetDownload  ExportTarget = "download"
	TargetClipboard ExportTarget = "clipboard"
)

// CellFormatter rewrites a single data cell during extraction. An error
// aborts extraction of the table the cell belongs to.
type CellFormatter func(value string) (string, error)

type ExportOptions struct {
	IncludeHeaders     bool
	PreserveFormatting bool
	IncludeRowNumbers  bool
	SeparateSheets     bool
	IncludeMetadata    bool
	IncludeCharts      bool

	// Formatters applies per-column rewrites to data cells, keyed by the
	// cell's column index before row numbers are injected.
	Formatters map[int]CellFormatter
}

// ExportConfig is the caller-supplied description of one export run.
type ExportConfig struct {
	Format   Format
	FileName string
	TabName  string
	Target   ExportTarget
	Tables   []DiscoveredTable
	Options  ExportOptions
}
