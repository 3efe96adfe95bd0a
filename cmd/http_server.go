package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/performance-tracker/internal/audit"
	"github.com/frahmantamala/performance-tracker/internal/auth"
	"github.com/frahmantamala/performance-tracker/internal/feedback"
	"github.com/frahmantamala/performance-tracker/internal/project"
	"github.com/frahmantamala/performance-tracker/internal/scoring"
	"github.com/frahmantamala/performance-tracker/internal/settings"
	"github.com/frahmantamala/performance-tracker/internal/task"
	"github.com/frahmantamala/performance-tracker/internal/transport"
	"github.com/frahmantamala/performance-tracker/internal/transport/rest"
	"github.com/frahmantamala/performance-tracker/internal/transport/swagger"
	"github.com/frahmantamala/performance-tracker/internal/user"
	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests. The scheduler runs in-process when enabled in config.`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func startHTTPServer() {
	app, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()
	log := app.Logger
	cfg := app.Config

	if cfg.Server.OpenAPIPath != "" {
		if _, err := swagger.LoadSpec(context.Background(), cfg.Server.OpenAPIPath); err != nil {
			log.Error("invalid openapi document", "error", err)
			os.Exit(1)
		}
	}

	if err := app.registerJobs(); err != nil {
		log.Error("failed to register jobs", "error", err)
		os.Exit(1)
	}
	if cfg.Scheduler.Enabled {
		app.Scheduler.Start()
	}

	router := chi.NewRouter()
	base := transport.NewBaseHandler(log)
	rest.RegisterAllRoutes(router, app.SQL, rest.Handlers{
		Auth:     auth.NewHandler(base, app.Auth),
		User:     user.NewHandler(base, app.Users),
		Scoring:  scoring.NewHandler(base, app.Scoring, app.Scheduler),
		Task:     task.NewHandler(base, app.Tasks),
		Settings: settings.NewHandler(base, app.Settings),
		Feedback: feedback.NewHandler(base, app.Feedback),
		Project:  project.NewHandler(base, app.Projects),
		Audit:    audit.NewHandler(base, app.AuditLog),
	}, rest.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		OpenAPIPath:    cfg.Server.OpenAPIPath,
		Jobs:           app.Scheduler,
	}, log)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down...", "signal", sig)
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", "error", err)
	}
	if err := app.Scheduler.Stop(ctx); err != nil {
		log.Error("Scheduler shutdown error", "error", err)
	}

	log.Info("Server stopped")
}
