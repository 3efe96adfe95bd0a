package projectsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/performance-tracker/internal/core/events"
	"github.com/frahmantamala/performance-tracker/internal/ingest"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentTaskReads = 4

type API interface {
	ListProjects(ctx context.Context) ([]APIProject, error)
	ListTasks(ctx context.Context, projectID string) ([]APITask, error)
	ListTimeLogs(ctx context.Context, since time.Time) ([]APITimeLog, error)
}

type Applier interface {
	Apply(ctx context.Context, batch ingest.Batch) (*ingest.Result, error)
}

type Syncer struct {
	api       API
	ingest    Applier
	publisher events.Publisher
	logger    *slog.Logger
	lookback  time.Duration
	now       func() time.Time
}

func NewSyncer(api API, applier Applier, publisher events.Publisher, lookbackDays int, logger *slog.Logger) *Syncer {
	if lookbackDays <= 0 {
		lookbackDays = 31
	}
	return &Syncer{
		api:       api,
		ingest:    applier,
		publisher: publisher,
		logger:    logger,
		lookback:  time.Duration(lookbackDays) * 24 * time.Hour,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Sync pulls every project with its tasks and the time logs inside the
// lookback window, then stores them as one ingest batch.
func (s *Syncer) Sync(ctx context.Context) (*ingest.Result, error) {
	batchID := uuid.New().String()
	logger := s.logger.With("batch_id", batchID)
	started := time.Now()
	logger.Info("project sync started")

	projects, err := s.api.ListProjects(ctx)
	if err != nil {
		logger.Error("failed to list projects", "error", err)
		return nil, fmt.Errorf("list projects: %w", err)
	}

	tasksByProject := make([][]APITask, len(projects))
	var timeLogs []APITimeLog

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentTaskReads + 1)
	g.Go(func() error {
		logs, err := s.api.ListTimeLogs(gctx, s.now().Add(-s.lookback))
		if err != nil {
			return fmt.Errorf("list time logs: %w", err)
		}
		timeLogs = logs
		return nil
	})
	for i, p := range projects {
		i, p := i, p
		g.Go(func() error {
			tasks, err := s.api.ListTasks(gctx, p.ID)
			if err != nil {
				return fmt.Errorf("list tasks of project %s: %w", p.ID, err)
			}
			tasksByProject[i] = tasks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("project sync aborted", "error", err)
		return nil, err
	}

	batch := toBatch(projects, tasksByProject, timeLogs)
	result, err := s.ingest.Apply(ctx, batch)
	if err != nil {
		logger.Error("failed to store synced records", "error", err)
		return result, fmt.Errorf("store synced records: %w", err)
	}

	for _, rejected := range result.Errors {
		logger.Warn("sync record rejected", "kind", rejected.Kind, "external_id", rejected.ExternalID, "reason", rejected.Reason)
	}

	event := events.NewImportCompletedEvent(events.ProjectSyncCompletedType, "project_api",
		result.Projects, result.Tasks, result.TimeLogs, result.Skipped)
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish sync event", "error", err)
	}

	logger.Info("project sync completed",
		"projects", result.Projects,
		"tasks", result.Tasks,
		"time_logs", result.TimeLogs,
		"skipped", result.Skipped,
		"rejected", len(result.Errors),
		"duration", time.Since(started).String())

	return result, nil
}

func toBatch(projects []APIProject, tasksByProject [][]APITask, timeLogs []APITimeLog) ingest.Batch {
	batch := ingest.Batch{
		Projects: make([]ingest.ProjectRecord, 0, len(projects)),
		TimeLogs: make([]ingest.TimeLogRecord, 0, len(timeLogs)),
	}

	for i, p := range projects {
		batch.Projects = append(batch.Projects, ingest.ProjectRecord{ExternalID: p.ID, Name: p.Name})
		for _, t := range tasksByProject[i] {
			owners := make([]ingest.OwnerRecord, 0, len(t.Owners))
			for _, o := range t.Owners {
				owners = append(owners, ingest.OwnerRecord{
					Email:           o.Email,
					Name:            o.Name,
					SharePercentage: o.SharePercentage,
				})
			}
			batch.Tasks = append(batch.Tasks, ingest.TaskRecord{
				ExternalID:        t.ID,
				ProjectExternalID: p.ID,
				Title:             t.Title,
				AssigneeEmail:     t.AssigneeEmail,
				AssigneeName:      t.AssigneeName,
				Owners:            owners,
				Status:            t.Status,
				Priority:          t.Priority,
				Progress:          t.Progress,
				EstimatedHours:    t.EstimatedHours,
				DueDate:           t.DueDate,
				CompletedAt:       t.CompletedAt,
				CreatedAt:         t.CreatedAt,
			})
		}
	}

	for _, l := range timeLogs {
		batch.TimeLogs = append(batch.TimeLogs, ingest.TimeLogRecord{
			ExternalID:     l.ID,
			TaskExternalID: l.TaskID,
			UserEmail:      l.UserEmail,
			Minutes:        l.Minutes,
			LoggedAt:       l.LoggedAt,
		})
	}
	return batch
}
