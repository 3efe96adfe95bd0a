package rest

import (
	"database/sql"
	"log/slog"

	"github.com/frahmantamala/performance-tracker/internal/audit"
	"github.com/frahmantamala/performance-tracker/internal/auth"
	coreUser "github.com/frahmantamala/performance-tracker/internal/core/user"
	"github.com/frahmantamala/performance-tracker/internal/feedback"
	"github.com/frahmantamala/performance-tracker/internal/project"
	"github.com/frahmantamala/performance-tracker/internal/scoring"
	"github.com/frahmantamala/performance-tracker/internal/settings"
	"github.com/frahmantamala/performance-tracker/internal/task"
	"github.com/frahmantamala/performance-tracker/internal/transport/middleware"
	"github.com/frahmantamala/performance-tracker/internal/transport/swagger"
	"github.com/frahmantamala/performance-tracker/internal/user"
	"github.com/go-chi/chi"
)

// Handlers groups every HTTP handler the router mounts. A nil handler
// leaves its routes unmounted.
type Handlers struct {
	Auth     *auth.Handler
	User     *user.Handler
	Scoring  *scoring.Handler
	Task     *task.Handler
	Settings *settings.Handler
	Feedback *feedback.Handler
	Project  *project.Handler
	Audit    *audit.Handler
}

type RouterConfig struct {
	AllowedOrigins string
	OpenAPIPath    string
	// Jobs adds the scheduler to the health report when set.
	Jobs JobReporter
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, cfg RouterConfig, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db, cfg.Jobs, logger)
	rbac := auth.NewRBACAuthorization(logger)

	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	if cfg.OpenAPIPath != "" {
		router.Get("/openapi.yml", swagger.SpecHandler(cfg.OpenAPIPath))
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
				pr.With(rbac.RequireManager()).Get("/users/{id}/reports", h.User.GetReports)
				pr.With(rbac.RequireHRAdmin()).Patch("/users/{id}/role", h.User.UpdateRole)
				pr.With(rbac.RequireHRAdmin()).Patch("/users/{id}/manager", h.User.UpdateManager)
			}

			if h.Scoring != nil {
				pr.Route("/scores", func(sr chi.Router) {
					sr.Get("/me", h.Scoring.GetMyScores)
					sr.Get("/users/{id}", h.Scoring.GetUserScores)
					sr.With(rbac.RequireManager()).Get("/users/{id}/preview", h.Scoring.PreviewUserScore)
					sr.With(rbac.RequireHRAdmin()).Get("/board", h.Scoring.GetBoard)
					sr.With(rbac.RequireHRAdmin()).Post("/generate", h.Scoring.TriggerGeneration)
				})
			}

			if h.Task != nil {
				pr.Route("/tasks", func(sr chi.Router) {
					sr.Get("/me", h.Task.GetMyTasks)
					sr.Get("/{id}", h.Task.GetTask)
					sr.With(rbac.RequireRoles(coreUser.RoleManager, coreUser.RoleHRAdmin)).Post("/{id}/validate", h.Task.ValidateTask)
					sr.Get("/{id}/validation-history", h.Task.GetValidationHistory)
				})
			}

			if h.Settings != nil {
				pr.Route("/settings", func(sr chi.Router) {
					sr.Get("/scoring-weights", h.Settings.GetScoringWeights)
					sr.With(rbac.RequireHRAdmin()).Put("/scoring-weights", h.Settings.UpdateScoringWeights)
				})
			}

			if h.Feedback != nil {
				pr.Post("/feedback", h.Feedback.Create)
				pr.Get("/feedback/received", h.Feedback.ListReceived)
				pr.Get("/feedback/given", h.Feedback.ListGiven)
				pr.With(rbac.RequireRoles(coreUser.RoleManager, coreUser.RoleHRAdmin)).Get("/users/{id}/feedback/summary", h.Feedback.GetSummary)
			}

			if h.Project != nil {
				pr.Get("/projects", h.Project.GetProjects)
			}

			if h.Audit != nil {
				pr.With(rbac.RequireHRAdmin()).Get("/audit-log", h.Audit.List)
			}
		})
	})
}
