package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"insight-exporter/internal/application/port/input"
	"insight-exporter/internal/application/port/output"
	"insight-exporter/internal/application/service"
	"insight-exporter/internal/application/usecase/collection"
	"insight-exporter/internal/application/usecase/discovery"
	"insight-exporter/internal/application/usecase/export"
	"insight-exporter/internal/application/usecase/extraction"
	"insight-exporter/internal/domain/dom"
	"insight-exporter/internal/infrastructure/browser/htmlsnap"
	"insight-exporter/internal/infrastructure/browser/rodom"
	"insight-exporter/internal/infrastructure/clip"
	"insight-exporter/internal/infrastructure/download"
	"insight-exporter/internal/infrastructure/logger"
	"insight-exporter/internal/infrastructure/serializer/csvout"
	"insight-exporter/internal/infrastructure/serializer/pdfout"
	"insight-exporter/internal/infrastructure/userinteraction"
)

type Container struct {
	Logger      output.LoggerPort
	Document    dom.Document
	Serializers output.SerializerRegistry
	Selector    output.TableSelectorPort
	Sink        *download.FileSink
	Exporter    input.Exporter

	browser *rodom.Adapter
}

type Config struct {
	// Exactly one of PageURL and SnapshotPath must be set.
	PageURL      string
	SnapshotPath string

	ChromeBin  string
	Headless   bool
	DevTools   bool
	NavTimeout time.Duration

	SettleQuiet   time.Duration
	SettleCeiling time.Duration
	MaxTabDepth   int

	DownloadDir string

	LogLevel  string
	LogFormat string
	LogFile   string
}

func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	doc, browser, err := openDocument(ctx, cfg, log)
	if err != nil {
		log.Close()
		return nil, err
	}

	registry := service.NewSerializerRegistry()
	registry.Register(csvout.New(log))
	registry.Register(pdfout.New(log))

	collectCfg := collection.DefaultConfig()
	if cfg.SettleQuiet > 0 {
		collectCfg.SettleQuiet = cfg.SettleQuiet
	}
	if cfg.SettleCeiling > 0 {
		collectCfg.SettleCeiling = cfg.SettleCeiling
	}
	if cfg.MaxTabDepth > 0 {
		collectCfg.MaxDepth = cfg.MaxTabDepth
	}

	downloadDir := cfg.DownloadDir
	if downloadDir == "" {
		downloadDir = "downloads"
	}
	sink := download.NewFileSink(downloadDir, log)

	exporter := export.NewOrchestrator(
		doc,
		collection.NewCollector(doc, discovery.NewScanner(log), collectCfg, log),
		extraction.NewExtractor(log),
		registry,
		sink,
		clip.NewSystemClipboard(),
		log,
	)

	return &Container{
		Logger:      log,
		Document:    doc,
		Serializers: registry,
		Selector:    userinteraction.NewConsoleSelector(),
		Sink:        sink,
		Exporter:    exporter,
		browser:     browser,
	}, nil
}

// openDocument either parses a saved snapshot or launches Chrome and
// navigates to the dashboard. The returned adapter is nil in snapshot mode.
func openDocument(ctx context.Context, cfg Config, log output.LoggerPort) (dom.Document, *rodom.Adapter, error) {
	if cfg.SnapshotPath != "" && cfg.PageURL != "" {
		return nil, nil, errors.New("page url and snapshot file are mutually exclusive")
	}

	if cfg.SnapshotPath != "" {
		doc, err := htmlsnap.Load(cfg.SnapshotPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load snapshot: %w", err)
		}
		log.Info("Snapshot loaded", "path", cfg.SnapshotPath)
		return doc, nil, nil
	}

	if cfg.PageURL == "" {
		return nil, nil, errors.New("either a page url or a snapshot file is required")
	}

	browserCfg := rodom.DefaultConfig()
	browserCfg.Headless = cfg.Headless
	browserCfg.DevTools = cfg.DevTools
	browserCfg.BinPath = cfg.ChromeBin
	if cfg.NavTimeout > 0 {
		browserCfg.Timeout = cfg.NavTimeout
	}

	browser, err := rodom.New(ctx, browserCfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create browser: %w", err)
	}

	doc, err := browser.Open(ctx, cfg.PageURL)
	if err != nil {
		browser.Close()
		return nil, nil, fmt.Errorf("failed to open dashboard: %w", err)
	}
	return doc, browser, nil
}

func (c *Container) Close() {
	if c.browser != nil {
		c.browser.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}
