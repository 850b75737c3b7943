package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insight-exporter/internal/application/service"
	"insight-exporter/internal/application/usecase/collection"
	"insight-exporter/internal/application/usecase/discovery"
	"insight-exporter/internal/application/usecase/export"
	"insight-exporter/internal/application/usecase/extraction"
	"insight-exporter/internal/domain/entity"
	"insight-exporter/internal/infrastructure/browser/rodom"
	"insight-exporter/internal/infrastructure/clip"
	"insight-exporter/internal/infrastructure/download"
	"insight-exporter/internal/infrastructure/logger"
	"insight-exporter/internal/infrastructure/serializer/csvout"
)

const dashboardHTML = `<!DOCTYPE html>
<html>
<head>
<title>Acme Revenue Dashboard</title>
<style>
  [hidden] { display: none; }
  .table-wrap { overflow-x: auto; width: 400px; }
</style>
</head>
<body>
  <div role="tablist">
    <button id="tab-overview" role="tab" aria-selected="true" aria-controls="panel-overview">Overview</button>
    <button id="tab-details" role="tab" aria-selected="false" aria-controls="panel-details">Details</button>
  </div>
  <div id="panel-overview" role="tabpanel">
    <h3>Quarterly Revenue</h3>
    <div class="table-wrap">
      <table>
        <tr><th>Quarter</th><th>Revenue</th></tr>
        <tr><td>Q1</td><td>1,200</td></tr>
        <tr><td>Q2</td><td>1,480</td></tr>
      </table>
    </div>
  </div>
  <div id="panel-details" role="tabpanel" hidden>
    <h3>Expense Detail</h3>
    <table>
      <tr><th>Item</th><th>Cost</th></tr>
      <tr><td>Hosting</td><td>300</td></tr>
    </table>
  </div>
  <script>
    document.querySelectorAll('[role="tab"]').forEach(function (tab) {
      tab.addEventListener('click', function () {
        document.querySelectorAll('[role="tab"]').forEach(function (other) {
          var selected = other === tab;
          other.setAttribute('aria-selected', selected ? 'true' : 'false');
          document.getElementById(other.getAttribute('aria-controls')).hidden = !selected;
        });
      });
    });
  </script>
</body>
</html>`

func requireChrome(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser integration test in -short mode")
	}
	if _, found := launcher.LookPath(); !found {
		t.Skip("no local Chrome/Chromium found")
	}
}

func serveDashboard(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, dashboardHTML)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestAdapter_OpenReadsTitle(t *testing.T) {
	requireChrome(t)
	server := serveDashboard(t)

	ctx := context.Background()
	adapter, err := rodom.New(ctx, rodom.DefaultConfig(), logger.Nop())
	require.NoError(t, err)
	defer adapter.Close()

	doc, err := adapter.Open(ctx, server.URL)
	require.NoError(t, err)

	assert.Equal(t, "Acme Revenue Dashboard", doc.Title())
	assert.Contains(t, doc.URL(), server.URL)

	root, err := doc.Root()
	require.NoError(t, err)
	assert.Len(t, root.QueryAll(`[role="tab"]`), 2)
}

func TestPipeline_ExportsTablesBehindTabs(t *testing.T) {
	requireChrome(t)
	server := serveDashboard(t)

	ctx := context.Background()
	adapter, err := rodom.New(ctx, rodom.DefaultConfig(), logger.Nop())
	require.NoError(t, err)
	defer adapter.Close()

	doc, err := adapter.Open(ctx, server.URL)
	require.NoError(t, err)

	log := logger.Nop()
	registry := service.NewSerializerRegistry()
	registry.Register(csvout.New(log))

	dir := t.TempDir()
	orchestrator := export.NewOrchestrator(
		doc,
		collection.NewCollector(doc, discovery.NewScanner(log), collection.DefaultConfig(), log),
		extraction.NewExtractor(log),
		registry,
		download.NewFileSink(dir, log),
		clip.NewSystemClipboard(),
		log,
	)

	tables, err := orchestrator.Discover(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 2, "one visible table plus one behind the Details tab")

	names := []string{tables[0].Name, tables[1].Name}
	assert.Contains(t, names, "Quarterly Revenue")
	assert.Contains(t, names, "Details — Expense Detail")

	result, err := orchestrator.Export(ctx, entity.ExportConfig{
		Format:   entity.FormatCSV,
		FileName: "dashboard",
		TabName:  doc.Title(),
		Target:   entity.TargetDownload,
		Tables:   tables,
		Options:  entity.ExportOptions{IncludeHeaders: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.TableCount)
	assert.Equal(t, 3, result.RowCount)

	data, err := os.ReadFile(filepath.Join(dir, "dashboard.csv"))
	require.NoError(t, err)
	csv := string(data)
	assert.Contains(t, csv, `"Quarterly Revenue"`)
	assert.Contains(t, csv, `"1,200"`)
	assert.Contains(t, csv, "Hosting,300")

	// Walking the Details tab must not leave it active.
	root, err := doc.Root()
	require.NoError(t, err)
	overview, ok := root.Query("#tab-overview")
	require.True(t, ok)
	selected, _ := overview.Attribute("aria-selected")
	assert.Equal(t, "true", selected)
}
