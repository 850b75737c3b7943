package export

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insight-exporter/internal/application/port/output"
	"insight-exporter/internal/application/service"
	"insight-exporter/internal/application/usecase/collection"
	"insight-exporter/internal/application/usecase/discovery"
	"insight-exporter/internal/application/usecase/extraction"
	"insight-exporter/internal/domain/entity"
	"insight-exporter/internal/infrastructure/browser/htmlsnap"
	"insight-exporter/internal/infrastructure/logger"
	"insight-exporter/internal/infrastructure/serializer/csvout"
)

const exportBody = `
  <h3>Table A</h3>
  <table>
    <tr><th>Name</th><th>Revenue</th></tr>
    <tr><td>Alice</td><td>1,200</td></tr>
    <tr><td>Bob</td><td>800</td></tr>
  </table>
  <h3>Table B</h3>
  <table>
    <tr><th>Month</th><th>Count</th></tr>
    <tr><td>Jan</td><td>5</td></tr>
  </table>`

const combinedGolden = `"Table A"
Name,Revenue
Alice,"1,200"
Bob,800

"Table B"
Month,Count
Jan,5
`

type fakeSink struct {
	mu     sync.Mutex
	stored []entity.Artifact
}

func (s *fakeSink) Store(_ context.Context, artifact entity.Artifact) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = append(s.stored, artifact)
	return "/downloads/" + artifact.FileName, nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stored)
}

type fakeClipboard struct {
	text string
}

func (c *fakeClipboard) WriteText(text string) error {
	c.text = text
	return nil
}

type stubSerializer struct {
	formats   []entity.Format
	artifacts []entity.Artifact
	err       error
}

func (s *stubSerializer) Formats() []entity.Format { return s.formats }
func (s *stubSerializer) ContentType() string      { return "application/octet-stream" }
func (s *stubSerializer) FileExtension() string    { return "bin" }
func (s *stubSerializer) Serialize(entity.ExportDocument) ([]entity.Artifact, error) {
	return s.artifacts, s.err
}

type blockingSerializer struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingSerializer) Formats() []entity.Format { return []entity.Format{"slow"} }
func (b *blockingSerializer) ContentType() string      { return "text/plain" }
func (b *blockingSerializer) FileExtension() string    { return "txt" }
func (b *blockingSerializer) Serialize(entity.ExportDocument) ([]entity.Artifact, error) {
	close(b.started)
	<-b.release
	return []entity.Artifact{{FileName: "slow.txt", ContentType: "text/plain", Data: []byte("x")}}, nil
}

func newTestOrchestrator(t *testing.T, body string, serializers ...output.SerializerPort) (*Orchestrator, []entity.DiscoveredTable, *fakeSink, *fakeClipboard) {
	t.Helper()
	doc, err := htmlsnap.ParseString("<html><body>" + body + "</body></html>")
	require.NoError(t, err)

	log := logger.Nop()
	registry := service.NewSerializerRegistry()
	for _, s := range serializers {
		registry.Register(s)
	}

	sink := &fakeSink{}
	clip := &fakeClipboard{}
	orchestrator := NewOrchestrator(
		doc,
		collection.NewCollector(doc, discovery.NewScanner(log), collection.DefaultConfig(), log),
		extraction.NewExtractor(log),
		registry,
		sink,
		clip,
		log,
	)

	tables, err := orchestrator.Discover(context.Background())
	require.NoError(t, err)
	return orchestrator, tables, sink, clip
}

func TestExportCSV(t *testing.T) {
	orchestrator, tables, sink, _ := newTestOrchestrator(t, exportBody, csvout.New(logger.Nop()))
	require.Len(t, tables, 2)

	result, err := orchestrator.Export(context.Background(), entity.ExportConfig{
		Format:   entity.FormatCSV,
		FileName: "export",
		TabName:  "Sales",
		Target:   entity.TargetDownload,
		Tables:   tables,
		Options:  entity.ExportOptions{IncludeHeaders: true},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, entity.FormatCSV, result.Format)
	assert.Equal(t, 2, result.TableCount)
	assert.Equal(t, 3, result.RowCount)
	assert.Equal(t, []string{"/downloads/export.csv"}, result.ArtifactPaths)

	require.Equal(t, 1, sink.count())
	assert.Equal(t, combinedGolden, string(sink.stored[0].Data))
}

func TestExportExcelAliasesCSV(t *testing.T) {
	orchestrator, tables, sink, _ := newTestOrchestrator(t, exportBody, csvout.New(logger.Nop()))

	result, err := orchestrator.Export(context.Background(), entity.ExportConfig{
		Format:  entity.FormatExcel,
		TabName: "Sales",
		Tables:  tables,
		Options: entity.ExportOptions{IncludeHeaders: true},
	})
	require.NoError(t, err)

	require.Equal(t, 1, sink.count())
	assert.Equal(t, "export.csv", sink.stored[0].FileName, "default file name and csv fallback")
	assert.Equal(t, combinedGolden, string(sink.stored[0].Data))
	assert.Equal(t, entity.FormatExcel, result.Format)
}

func TestExportClipboard(t *testing.T) {
	orchestrator, tables, sink, clip := newTestOrchestrator(t, exportBody, csvout.New(logger.Nop()))

	result, err := orchestrator.Export(context.Background(), entity.ExportConfig{
		Format:  entity.FormatCSV,
		TabName: "Sales",
		Target:  entity.TargetClipboard,
		Tables:  tables,
		Options: entity.ExportOptions{IncludeHeaders: true},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"clipboard"}, result.ArtifactPaths)
	assert.Equal(t, combinedGolden, clip.text)
	assert.Zero(t, sink.count(), "clipboard delivery writes no files")
}

func TestExportClipboardRejectsBinary(t *testing.T) {
	binary := &stubSerializer{
		formats:   []entity.Format{"bin"},
		artifacts: []entity.Artifact{{FileName: "x.bin", ContentType: "application/octet-stream", Data: []byte{1}}},
	}
	orchestrator, tables, _, clip := newTestOrchestrator(t, exportBody, binary)

	_, err := orchestrator.Export(context.Background(), entity.ExportConfig{
		Format: "bin",
		Target: entity.TargetClipboard,
		Tables: tables,
	})
	require.Error(t, err)

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, "deliver", runErr.Stage)
	assert.Empty(t, clip.text)
}

func TestExportNothingToExport(t *testing.T) {
	orchestrator, _, sink, _ := newTestOrchestrator(t, exportBody, csvout.New(logger.Nop()))

	_, err := orchestrator.Export(context.Background(), entity.ExportConfig{
		Format: entity.FormatCSV,
		Tables: []entity.DiscoveredTable{{Name: "gone"}, {Name: "also gone"}},
	})
	assert.ErrorIs(t, err, ErrNothingToExport)
	assert.Zero(t, sink.count(), "a failed export leaves no artifacts behind")
}

func TestExportUnsupportedFormat(t *testing.T) {
	orchestrator, tables, sink, _ := newTestOrchestrator(t, exportBody, csvout.New(logger.Nop()))

	_, err := orchestrator.Export(context.Background(), entity.ExportConfig{
		Format: "xml",
		Tables: tables,
	})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, "serialize", runErr.Stage)
	assert.NotEmpty(t, runErr.RunID)
	assert.Zero(t, sink.count())
}

func TestExportSerializationFailure(t *testing.T) {
	boom := errors.New("render exploded")
	orchestrator, tables, sink, _ := newTestOrchestrator(t, exportBody,
		&stubSerializer{formats: []entity.Format{"bin"}, err: boom})

	_, err := orchestrator.Export(context.Background(), entity.ExportConfig{
		Format: "bin",
		Tables: tables,
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, sink.count(), "partial artifacts are discarded")
}

func TestExportSingleFlight(t *testing.T) {
	slow := &blockingSerializer{started: make(chan struct{}), release: make(chan struct{})}
	orchestrator, tables, _, _ := newTestOrchestrator(t, exportBody, slow)

	cfg := entity.ExportConfig{Format: "slow", Tables: tables}
	assert.False(t, orchestrator.IsExporting())

	done := make(chan error, 1)
	go func() {
		_, err := orchestrator.Export(context.Background(), cfg)
		done <- err
	}()

	<-slow.started
	assert.True(t, orchestrator.IsExporting())

	_, err := orchestrator.Export(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrExportInProgress)

	close(slow.release)
	require.NoError(t, <-done)
	assert.False(t, orchestrator.IsExporting())
}

func TestExportChartsBestEffort(t *testing.T) {
	body := exportBody + `<canvas aria-label="Revenue Trend"></canvas>`
	orchestrator, tables, sink, _ := newTestOrchestrator(t, body, csvout.New(logger.Nop()))

	// Snapshots cannot be screenshotted; chart capture degrades to none.
	result, err := orchestrator.Export(context.Background(), entity.ExportConfig{
		Format:  entity.FormatCSV,
		Tables:  tables,
		Options: entity.ExportOptions{IncludeHeaders: true, IncludeCharts: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.TableCount)
	assert.Equal(t, 1, sink.count())
}
