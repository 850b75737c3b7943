package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"insight-exporter/internal/di"
	"insight-exporter/internal/domain/entity"
	"insight-exporter/internal/infrastructure/userinteraction"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export dashboard tables",
		Long: `Discover the dashboard's tables, pick some (interactively unless --all
or --tables is given) and export them in the requested format.`,
		RunE: runExport,
	}

	flags := cmd.Flags()
	flags.StringP("format", "f", "csv", "output format (csv, excel, pdf)")
	flags.StringP("output", "o", "export", "base file name for generated artifacts")
	flags.String("tab-name", "", "dashboard name used in titles (default: the page title)")
	flags.StringP("tables", "t", "", "table selection, e.g. '1,3-5' or 'all'")
	flags.Bool("all", false, "export every discovered table without prompting")
	flags.Bool("headers", true, "include header rows")
	flags.Bool("preserve-formatting", false, "keep currency symbols the page renders outside cell text")
	flags.Bool("row-numbers", false, "prepend a row number column")
	flags.Bool("separate-sheets", false, "one artifact (or PDF page) per table")
	flags.Bool("metadata", false, "include a generation metadata block")
	flags.Bool("charts", false, "snapshot chart widgets into PDF output")
	flags.Bool("clipboard", false, "copy the result to the clipboard instead of writing files")

	_ = viper.BindPFlag("export.format", flags.Lookup("format"))
	_ = viper.BindPFlag("export.output", flags.Lookup("output"))
	_ = viper.BindPFlag("export.tab_name", flags.Lookup("tab-name"))
	_ = viper.BindPFlag("export.tables", flags.Lookup("tables"))
	_ = viper.BindPFlag("export.all", flags.Lookup("all"))
	_ = viper.BindPFlag("export.headers", flags.Lookup("headers"))
	_ = viper.BindPFlag("export.preserve_formatting", flags.Lookup("preserve-formatting"))
	_ = viper.BindPFlag("export.row_numbers", flags.Lookup("row-numbers"))
	_ = viper.BindPFlag("export.separate_sheets", flags.Lookup("separate-sheets"))
	_ = viper.BindPFlag("export.metadata", flags.Lookup("metadata"))
	_ = viper.BindPFlag("export.charts", flags.Lookup("charts"))
	_ = viper.BindPFlag("export.clipboard", flags.Lookup("clipboard"))

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	container, err := newContainer(ctx)
	if err != nil {
		return err
	}
	defer container.Close()

	tables, err := container.Exporter.Discover(ctx)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	if len(tables) == 0 {
		return errors.New("no tables found on the page")
	}

	selected, err := selectTables(container, tables)
	if err != nil {
		return err
	}

	target := entity.TargetDownload
	if viper.GetBool("export.clipboard") {
		target = entity.TargetClipboard
	}

	tabName := viper.GetString("export.tab_name")
	if tabName == "" {
		tabName = container.Document.Title()
	}
	if tabName == "" {
		tabName = "Dashboard"
	}

	result, err := container.Exporter.Export(ctx, entity.ExportConfig{
		Format:   entity.Format(strings.ToLower(viper.GetString("export.format"))),
		FileName: viper.GetString("export.output"),
		TabName:  tabName,
		Target:   target,
		Tables:   selected,
		Options: entity.ExportOptions{
			IncludeHeaders:     viper.GetBool("export.headers"),
			PreserveFormatting: viper.GetBool("export.preserve_formatting"),
			IncludeRowNumbers:  viper.GetBool("export.row_numbers"),
			SeparateSheets:     viper.GetBool("export.separate_sheets"),
			IncludeMetadata:    viper.GetBool("export.metadata"),
			IncludeCharts:      viper.GetBool("export.charts"),
		},
	})
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	color.New(color.FgGreen, color.Bold).Printf("\nExported %d table(s), %d row(s) in %s\n",
		result.TableCount, result.RowCount, result.Duration.Round(time.Millisecond))
	for _, path := range result.ArtifactPaths {
		fmt.Printf("  %s\n", path)
	}
	return nil
}

func selectTables(container *di.Container, tables []entity.DiscoveredTable) ([]entity.DiscoveredTable, error) {
	if viper.GetBool("export.all") {
		return tables, nil
	}
	if expr := viper.GetString("export.tables"); expr != "" {
		return userinteraction.FilterSelection(tables, expr)
	}
	return container.Selector.SelectTables(tables)
}
