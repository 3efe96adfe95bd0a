package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score generation and inspection",
}

var generateScoreCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate today's scores for every active employee",
	Long:  `Run the daily score batch once. Users already scored today keep their existing score.`,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to init app: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		summary, err := app.Scoring.GenerateAllScores(context.Background())
		if err != nil {
			app.Logger.Error("score generation failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("%s: processed=%d inserted=%d skipped=%d failed=%d\n",
			summary.Date.Format("2006-01-02"), summary.Processed, summary.Inserted, summary.Skipped, summary.Failed)
	},
}

var (
	scoreUserID int64
	scoreLimit  int
)

var showScoreCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the score history of a user",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to init app: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		scores, err := app.Scoring.GetUserScores(context.Background(), scoreUserID, scoreLimit)
		if err != nil {
			app.Logger.Error("failed to load scores", "user_id", scoreUserID, "error", err)
			os.Exit(1)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Date", "Score", "Completion", "Timeliness", "Efficiency", "Quality", "Focus"})
		for _, s := range scores {
			c := s.Components
			t.AppendRow(table.Row{
				s.Date.Format("2006-01-02"),
				fmt.Sprintf("%.2f", s.ScoreValue),
				fmt.Sprintf("%.1f", c.TaskCompletion),
				fmt.Sprintf("%.1f", c.Timeliness),
				fmt.Sprintf("%.1f", c.Efficiency),
				fmt.Sprintf("%.1f", c.ProgressQuality),
				fmt.Sprintf("%.1f", c.PriorityFocus),
			})
		}
		t.Render()
	},
}

func init() {
	showScoreCmd.Flags().Int64Var(&scoreUserID, "user", 0, "User id")
	showScoreCmd.Flags().IntVar(&scoreLimit, "limit", 30, "Number of days to show")
	_ = showScoreCmd.MarkFlagRequired("user")

	scoreCmd.AddCommand(generateScoreCmd)
	scoreCmd.AddCommand(showScoreCmd)

	rootCmd.AddCommand(scoreCmd)
}
