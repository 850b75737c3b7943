// Package export drives one full export run: table collection, per-table
// extraction, serialization and artifact delivery.
package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"insight-exporter/internal/application/port/input"
	"insight-exporter/internal/application/port/output"
	"insight-exporter/internal/application/usecase/collection"
	"insight-exporter/internal/application/usecase/extraction"
	"insight-exporter/internal/domain/dom"
	"insight-exporter/internal/domain/entity"
)

// chartSelector matches the widgets captured as chart snapshots. Nested
// matches are collapsed to the outermost element.
const chartSelector = `canvas, .recharts-wrapper, [data-chart]`

const defaultFileName = "export"

// maxChartAncestors bounds the dedup walk above a chart candidate.
const maxChartAncestors = 15

var _ input.Exporter = (*Orchestrator)(nil)

// Orchestrator owns the single-flight export permit. Concurrent Export
// calls fail fast with ErrExportInProgress instead of interleaving DOM
// mutations on the shared page.
type Orchestrator struct {
	doc         dom.Document
	collector   *collection.Collector
	extractor   *extraction.Extractor
	serializers output.SerializerRegistry
	sink        output.ArtifactSinkPort
	clipboard   output.ClipboardPort
	log         output.LoggerPort

	permit *semaphore.Weighted
}

func NewOrchestrator(
	doc dom.Document,
	collector *collection.Collector,
	extractor *extraction.Extractor,
	serializers output.SerializerRegistry,
	sink output.ArtifactSinkPort,
	clipboard output.ClipboardPort,
	log output.LoggerPort,
) *Orchestrator {
	return &Orchestrator{
		doc:         doc,
		collector:   collector,
		extractor:   extractor,
		serializers: serializers,
		sink:        sink,
		clipboard:   clipboard,
		log:         log,
		permit:      semaphore.NewWeighted(1),
	}
}

func (o *Orchestrator) Discover(ctx context.Context) ([]entity.DiscoveredTable, error) {
	return o.collector.Collect(ctx)
}

func (o *Orchestrator) IsExporting() bool {
	if !o.permit.TryAcquire(1) {
		return true
	}
	o.permit.Release(1)
	return false
}

func (o *Orchestrator) Export(ctx context.Context, cfg entity.ExportConfig) (*entity.ExportResult, error) {
	if !o.permit.TryAcquire(1) {
		return nil, ErrExportInProgress
	}
	defer o.permit.Release(1)

	runID := uuid.NewString()
	started := time.Now()
	log := o.log.WithField("run_id", runID)
	log.Info("export started", "format", cfg.Format, "tables", len(cfg.Tables))

	result, err := o.run(ctx, cfg, runID, log)
	if err != nil {
		log.Error("export failed", "error", err)
		return nil, err
	}

	result.RunID = runID
	result.StartedAt = started
	result.Duration = time.Since(started)
	log.Info("export finished", "artifacts", len(result.ArtifactPaths), "duration", result.Duration)
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, cfg entity.ExportConfig, runID string, log output.LoggerPort) (*entity.ExportResult, error) {
	fileName := cfg.FileName
	if fileName == "" {
		fileName = defaultFileName
	}

	extracted := make([]entity.TableData, 0, len(cfg.Tables))
	rowTotal := 0
	for _, table := range cfg.Tables {
		if err := ctx.Err(); err != nil {
			return nil, &RunError{RunID: runID, Stage: "extract", Err: err}
		}
		if table.Source == nil {
			log.Warn("table lost its element, skipping", "table", table.Name)
			continue
		}
		data, err := o.extractor.Extract(table, cfg.Options)
		if err != nil {
			log.Warn("extraction failed, skipping table", "table", table.Name, "error", err)
			continue
		}
		if data.Empty() {
			log.Debug("table produced no data, skipping", "table", table.Name)
			continue
		}
		extracted = append(extracted, data)
		rowTotal += len(data.Rows)
	}
	if len(extracted) == 0 {
		return nil, &RunError{RunID: runID, Stage: "extract", Err: ErrNothingToExport}
	}

	serializer, ok := o.serializers.Get(cfg.Format)
	if !ok {
		return nil, &RunError{RunID: runID, Stage: "serialize", Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, cfg.Format)}
	}

	doc := entity.ExportDocument{
		TabName:  cfg.TabName,
		FileName: fileName,
		Options:  cfg.Options,
		Tables:   extracted,
	}
	if cfg.Options.IncludeCharts {
		doc.Charts = o.captureCharts(log)
	}

	artifacts, err := serializer.Serialize(doc)
	if err != nil {
		return nil, &RunError{RunID: runID, Stage: "serialize", Err: err}
	}

	paths, err := o.deliver(ctx, cfg, artifacts)
	if err != nil {
		return nil, &RunError{RunID: runID, Stage: "deliver", Err: err}
	}

	return &entity.ExportResult{
		Format:        cfg.Format,
		ArtifactPaths: paths,
		TableCount:    len(extracted),
		RowCount:      rowTotal,
	}, nil
}

func (o *Orchestrator) deliver(ctx context.Context, cfg entity.ExportConfig, artifacts []entity.Artifact) ([]string, error) {
	if cfg.Target == entity.TargetClipboard {
		if len(artifacts) != 1 {
			return nil, fmt.Errorf("clipboard delivery needs exactly one artifact, got %d", len(artifacts))
		}
		if !strings.HasPrefix(artifacts[0].ContentType, "text/") {
			return nil, fmt.Errorf("clipboard delivery is text only, artifact is %s", artifacts[0].ContentType)
		}
		if err := o.clipboard.WriteText(string(artifacts[0].Data)); err != nil {
			return nil, fmt.Errorf("write clipboard: %w", err)
		}
		return []string{"clipboard"}, nil
	}

	paths := make([]string, 0, len(artifacts))
	for _, artifact := range artifacts {
		path, err := o.sink.Store(ctx, artifact)
		if err != nil {
			return nil, fmt.Errorf("store %s: %w", artifact.FileName, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// captureCharts screenshots chart widgets on the page. Capture is best
// effort: a widget that cannot be shot is skipped, and a widget inside
// an already captured one is not shot twice.
func (o *Orchestrator) captureCharts(log output.LoggerPort) []entity.ChartImage {
	root, err := o.doc.Root()
	if err != nil {
		log.Warn("chart capture skipped", "error", err)
		return nil
	}

	captured := make(map[string]bool)
	var charts []entity.ChartImage
	for i, el := range root.QueryAll(chartSelector) {
		if hasCapturedAncestor(el, captured) {
			continue
		}
		png, err := el.Screenshot()
		if err != nil {
			log.Debug("chart capture failed", "error", err)
			continue
		}
		captured[el.ID()] = true
		charts = append(charts, entity.ChartImage{Name: chartName(el, i), PNG: png})
	}
	if len(charts) > 0 {
		log.Info("charts captured", "count", len(charts))
	}
	return charts
}

func hasCapturedAncestor(el dom.Element, captured map[string]bool) bool {
	p, ok := el.Parent()
	for depth := 0; ok && depth < maxChartAncestors; depth++ {
		if captured[p.ID()] {
			return true
		}
		p, ok = p.Parent()
	}
	return false
}

func chartName(el dom.Element, index int) string {
	if label, ok := el.Attribute("aria-label"); ok && label != "" {
		return label
	}
	return fmt.Sprintf("Chart %d", index+1)
}
