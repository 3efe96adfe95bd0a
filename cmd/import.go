package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/frahmantamala/performance-tracker/internal/importer"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import tasks and logged time from a spreadsheet",
}

var importSheetCmd = &cobra.Command{
	Use:   "sheet",
	Short: "Import the configured Google Sheet",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to init app: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		cfg := app.Config.Sheets
		if cfg.SpreadsheetID == "" {
			fmt.Fprintln(os.Stderr, "sheets.spreadsheet_id is not configured")
			os.Exit(1)
		}

		ctx := context.Background()
		source, err := importer.NewSheetsSource(ctx, cfg.CredentialsFile, cfg.SpreadsheetID, cfg.Range)
		if err != nil {
			app.Logger.Error("failed to open sheet", "error", err)
			os.Exit(1)
		}
		runImport(ctx, app, source)
	},
}

var importCSVCmd = &cobra.Command{
	Use:   "csv [file]",
	Short: "Import a CSV export of the tracking spreadsheet",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to init app: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		f, err := os.Open(args[0])
		if err != nil {
			app.Logger.Error("failed to open file", "path", args[0], "error", err)
			os.Exit(1)
		}
		defer f.Close()

		runImport(context.Background(), app, importer.NewCSVSource(filepath.Base(args[0]), f))
	},
}

func runImport(ctx context.Context, app *App, source importer.RowSource) {
	report, err := app.Importer.Import(ctx, source)
	if err != nil {
		app.Logger.Error("import failed", "source", source.Name(), "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s: %d rows\n", report.Source, report.Rows)
	for _, e := range report.RowErrors {
		fmt.Printf("  row %d: %s\n", e.Row, e.Reason)
	}
	if report.Result != nil {
		printIngestResult(report.Result)
	}
}

func init() {
	importCmd.AddCommand(importSheetCmd)
	importCmd.AddCommand(importCSVCmd)

	rootCmd.AddCommand(importCmd)
}
