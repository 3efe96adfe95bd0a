package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/frahmantamala/performance-tracker/internal/ingest"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Project-management API synchronisation",
}

var runSyncCmd = &cobra.Command{
	Use:   "run",
	Short: "Pull projects, tasks and time logs once",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to init app: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		if app.Syncer == nil {
			fmt.Fprintln(os.Stderr, "sync.base_url is not configured")
			os.Exit(1)
		}

		result, err := app.Syncer.Sync(context.Background())
		if err != nil {
			app.Logger.Error("project sync failed", "error", err)
			os.Exit(1)
		}
		printIngestResult(result)
	},
}

func printIngestResult(r *ingest.Result) {
	fmt.Printf("projects=%d tasks=%d time_logs=%d skipped=%d\n", r.Projects, r.Tasks, r.TimeLogs, r.Skipped)
	for _, e := range r.Errors {
		fmt.Printf("  rejected %s\n", e.Error())
	}
}

func init() {
	syncCmd.AddCommand(runSyncCmd)

	rootCmd.AddCommand(syncCmd)
}
