package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"insight-exporter/internal/domain/entity"
)

func discoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List every data table on the dashboard",
		Long: `Walk the dashboard, activate each tab and list the tables found,
without exporting anything. Useful for picking indexes to pass to
'export --tables'.`,
		RunE: runDiscover,
	}

	cmd.Flags().Bool("screenshot", false, "save a full page screenshot to the download directory")
	_ = viper.BindPFlag("discover.screenshot", cmd.Flags().Lookup("screenshot"))

	return cmd
}

func runDiscover(cmd *cobra.Command, _ []string) error {
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
		fmt.Println("No tables found on the page.")
		return nil
	}

	color.New(color.FgCyan, color.Bold).Printf("Found %d table(s)\n", len(tables))
	faint := color.New(color.Faint)
	for i, table := range tables {
		fmt.Printf("%3d. %s\n", i+1, table.Name)
		faint.Printf("     %d rows x %d columns, %s\n", table.RowCount, table.ColumnCount, table.TabPath)
	}

	if viper.GetBool("discover.screenshot") {
		shot, err := container.Document.Screenshot()
		if err != nil {
			return fmt.Errorf("screenshot failed: %w", err)
		}
		path, err := container.Sink.Store(ctx, entity.Artifact{
			FileName:    "dashboard.jpg",
			ContentType: "image/jpeg",
			Data:        shot,
		})
		if err != nil {
			return fmt.Errorf("failed to save screenshot: %w", err)
		}
		fmt.Printf("\nScreenshot saved to %s\n", path)
	}
	return nil
}
