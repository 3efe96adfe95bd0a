package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/frahmantamala/performance-tracker/internal"
	"github.com/frahmantamala/performance-tracker/internal/audit"
	auditPostgres "github.com/frahmantamala/performance-tracker/internal/audit/postgres"
	"github.com/frahmantamala/performance-tracker/internal/auth"
	authPostgres "github.com/frahmantamala/performance-tracker/internal/auth/postgres"
	"github.com/frahmantamala/performance-tracker/internal/core/events"
	"github.com/frahmantamala/performance-tracker/internal/feedback"
	feedbackPostgres "github.com/frahmantamala/performance-tracker/internal/feedback/postgres"
	"github.com/frahmantamala/performance-tracker/internal/importer"
	"github.com/frahmantamala/performance-tracker/internal/ingest"
	ingestPostgres "github.com/frahmantamala/performance-tracker/internal/ingest/postgres"
	"github.com/frahmantamala/performance-tracker/internal/project"
	projectPostgres "github.com/frahmantamala/performance-tracker/internal/project/postgres"
	"github.com/frahmantamala/performance-tracker/internal/projectsync"
	"github.com/frahmantamala/performance-tracker/internal/report"
	"github.com/frahmantamala/performance-tracker/internal/scheduler"
	"github.com/frahmantamala/performance-tracker/internal/scoring"
	scoringPostgres "github.com/frahmantamala/performance-tracker/internal/scoring/postgres"
	"github.com/frahmantamala/performance-tracker/internal/settings"
	settingsPostgres "github.com/frahmantamala/performance-tracker/internal/settings/postgres"
	"github.com/frahmantamala/performance-tracker/internal/task"
	taskPostgres "github.com/frahmantamala/performance-tracker/internal/task/postgres"
	"github.com/frahmantamala/performance-tracker/internal/user"
	userPostgres "github.com/frahmantamala/performance-tracker/internal/user/postgres"
	"github.com/frahmantamala/performance-tracker/pkg/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const dbDriver = "pgx"

// App holds every wired service. gorm and sqlx share one connection pool.
type App struct {
	Config   *internal.Config
	Logger   *slog.Logger
	SQL      *sql.DB
	DB       *gorm.DB
	SQLX     *sqlx.DB
	EventBus *events.EventBus

	Auth      *auth.Service
	Users     *user.Service
	Settings  *settings.Service
	Scoring   *scoring.Service
	Tasks     *task.Service
	Feedback  *feedback.Service
	Projects  *project.Service
	Ingest    *ingest.Service
	Syncer    *projectsync.Syncer
	Importer  *importer.Importer
	Reports   *report.Service
	AuditLog  *auditPostgres.AuditRepository
	Scheduler *scheduler.Scheduler
}

func newApp() (*App, error) {
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)

	sqlDB, err := openDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormLogger.New(
			slog.NewLogLogger(log.Handler(), slog.LevelWarn),
			gormLogger.Config{
				SlowThreshold:             500 * time.Millisecond,
				LogLevel:                  gormLogger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	sqlxDB := sqlx.NewDb(sqlDB, dbDriver)

	app := &App{
		Config:   cfg,
		Logger:   log,
		SQL:      sqlDB,
		DB:       gormDB,
		SQLX:     sqlxDB,
		EventBus: events.NewEventBus(log),
	}
	app.wire()
	return app, nil
}

func (a *App) wire() {
	cfg, log, bus := a.Config, a.Logger, a.EventBus

	a.AuditLog = auditPostgres.NewAuditRepository(a.DB)
	audit.NewEventHandler(a.AuditLog, log).RegisterEventHandlers(bus)

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.JWTAccessSecret,
		cfg.Security.JWTRefreshSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	a.Auth = auth.NewService(authPostgres.NewRepository(a.DB), tokens, cfg.Security.BCryptCost, log)

	a.Users = user.NewService(userPostgres.NewUserRepository(a.DB), bus, log)
	a.Settings = settings.NewService(settingsPostgres.NewSettingsRepository(a.DB), bus, log)
	a.Scoring = scoring.NewService(
		scoringPostgres.NewScoreRepository(a.DB),
		a.Settings,
		bus,
		log,
		scoring.WithWorkers(cfg.Scoring.Workers),
		scoring.WithBoardReader(scoringPostgres.NewBoardReader(a.SQLX)),
		scoring.WithHierarchy(a.Users),
	)
	a.Tasks = task.NewService(taskPostgres.NewTaskRepository(a.DB), taskPostgres.NewHistoryReader(a.SQLX), bus, log)
	a.Feedback = feedback.NewService(feedbackPostgres.NewFeedbackRepository(a.DB), bus, log)
	a.Projects = project.NewService(projectPostgres.NewProjectRepository(a.DB), log)
	a.Ingest = ingest.NewService(a.Projects, ingestPostgres.NewStore(a.DB), log)
	a.Importer = importer.NewImporter(a.Ingest, bus, log)

	if cfg.Sync.BaseURL != "" {
		client := projectsync.NewClient(projectsync.Config{
			BaseURL:      cfg.Sync.BaseURL,
			APIKey:       cfg.Sync.APIKey,
			Timeout:      cfg.Sync.Timeout,
			MaxRetries:   cfg.Sync.MaxRetries,
			RetryBackoff: cfg.Sync.RetryBackoff,
		}, log)
		a.Syncer = projectsync.NewSyncer(client, a.Ingest, bus, cfg.Sync.LookbackDays, log)
	}

	var mailer report.Mailer = report.NewLogMailer(log)
	if cfg.SMTP.Host != "" {
		mailer = report.NewSMTPMailer(report.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}
	a.Reports = report.NewService(a.Users, a.Scoring, mailer, log)

	a.Scheduler = scheduler.New(cfg.Scheduler.Location(), log)
}

// registerJobs binds the periodic jobs to the scheduler. Jobs whose
// collaborator is not configured are left out.
func (a *App) registerJobs() error {
	cfg := a.Config.Scheduler

	if err := a.Scheduler.Register(scoring.GenerateScoresJob, cfg.GenerateScoresSpec, func(ctx context.Context) error {
		_, err := a.Scoring.GenerateAllScores(ctx)
		return err
	}); err != nil {
		return err
	}

	if a.Syncer != nil {
		if err := a.Scheduler.Register(jobProjectSync, cfg.ProjectSyncSpec, func(ctx context.Context) error {
			_, err := a.Syncer.Sync(ctx)
			return err
		}); err != nil {
			return err
		}
	}

	return a.Scheduler.Register(jobManagerReports, cfg.ManagerReportsSpec, func(ctx context.Context) error {
		_, err := a.Reports.SendManagerReports(ctx, a.Scoring.Now())
		return err
	})
}

// Close drains in-flight event handlers, bounded so a stuck subscriber
// cannot hold the process, then closes the pool.
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.EventBus.WaitContext(ctx); err != nil {
		a.Logger.Warn("event handlers still running at shutdown", "error", err)
	}
	if err := a.SQL.Close(); err != nil {
		a.Logger.Error("database close error", "error", err)
	}
}

const (
	jobProjectSync    = "project_sync"
	jobManagerReports = "manager_reports"
)

func setupLogger(cfg *internal.Config) *slog.Logger {
	l := cfg.Observability.Logging
	return logger.Setup(os.Getenv("APP_ENV"), logger.Options{
		Level:  l.Level,
		Format: l.Format,
		File: logger.FileOptions{
			Path:       l.File,
			MaxSizeMB:  l.MaxSizeMB,
			MaxBackups: l.MaxBackups,
			MaxAgeDays: l.MaxAgeDays,
			Compress:   l.Compress,
		},
	})
}

func openDB(cfg internal.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(dbDriver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
