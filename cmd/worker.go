package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run background workers",
	Long:  `Run the periodic jobs without the HTTP server: daily score generation, project sync and manager reports.`,
}

var schedulerWorkerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Start the job scheduler",
	Long:  `Start the cron scheduler and keep it running until SIGINT or SIGTERM.`,
	Run: func(cmd *cobra.Command, args []string) {
		startSchedulerWorker()
	},
}

var runOnStart []string

func startSchedulerWorker() {
	app, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	logger := app.Logger

	if err := app.registerJobs(); err != nil {
		logger.Error("failed to register jobs", "error", err)
		os.Exit(1)
	}
	app.Scheduler.Start()

	for _, name := range runOnStart {
		started, err := app.Scheduler.Trigger(name)
		if err != nil {
			logger.Error("failed to trigger job", "job", name, "error", err)
			continue
		}
		if !started {
			logger.Warn("job already running", "job", name)
		}
	}

	for _, s := range app.Scheduler.Stats() {
		logger.Info("job registered", "job", s.Name, "spec", s.Spec)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("scheduler worker is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	logger.Info("received signal, shutting down scheduler", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Scheduler.Stop(ctx); err != nil {
		logger.Warn("shutdown timeout reached, jobs still running", "error", err)
		return
	}
	logger.Info("scheduler shutdown complete")
}

func init() {
	schedulerWorkerCmd.Flags().StringSliceVar(&runOnStart, "run", nil, "Jobs to trigger once right after start")

	workerCmd.AddCommand(schedulerWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
