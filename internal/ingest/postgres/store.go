package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	taskDatamodel "github.com/frahmantamala/performance-tracker/internal/core/datamodel/task"
	userDatamodel "github.com/frahmantamala/performance-tracker/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/performance-tracker/internal/core/user"
	"github.com/frahmantamala/performance-tracker/internal/ingest"
	"github.com/frahmantamala/performance-tracker/internal/ownership"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) EnsureUser(ctx context.Context, email, name string) (int64, error) {
	now := time.Now().UTC()
	row := &userDatamodel.User{
		Email:     email,
		Name:      ingest.DisplayName(email, name),
		Role:      string(coreUser.RoleEmployee),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(row).Error
	if err != nil {
		return 0, err
	}

	var existing userDatamodel.User
	if err := s.db.WithContext(ctx).Select("id").Where("email = ?", email).First(&existing).Error; err != nil {
		return 0, err
	}
	return existing.ID, nil
}

func (s *Store) UpsertTask(ctx context.Context, task *ingest.StoredTask) (int64, error) {
	row := &taskDatamodel.Task{
		ExternalID:         task.ExternalID,
		ProjectID:          task.ProjectID,
		AssigneeID:         task.AssigneeID,
		Title:              task.Title,
		Status:             task.Status,
		Priority:           task.Priority,
		ProgressPercentage: task.Progress,
		EstimatedHours:     task.EstimatedHours,
		DueDate:            task.DueDate,
		CompletedAt:        task.CompletedAt,
		CreatedAt:          task.CreatedAt,
		UpdatedAt:          time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"project_id", "assignee_id", "title", "status", "priority",
				"progress_percentage", "estimated_hours", "due_date",
				"completed_at", "created_at", "updated_at",
			}),
		}).
		Create(row).Error
	if err != nil {
		return 0, err
	}
	if row.ID != 0 {
		return row.ID, nil
	}
	return s.TaskIDByExternalID(ctx, task.ExternalID)
}

func (s *Store) ReplaceOwners(ctx context.Context, taskID int64, shares []ownership.Share) error {
	if total := ownership.Sum(shares); total != 100 {
		return fmt.Errorf("owner shares of task %d sum to %d", taskID, total)
	}

	now := time.Now().UTC()
	rows := make([]taskDatamodel.TaskOwner, 0, len(shares))
	for _, share := range shares {
		rows = append(rows, taskDatamodel.TaskOwner{
			TaskID:          taskID,
			UserID:          share.OwnerID,
			SharePercentage: int(share.Amount),
			CreatedAt:       now,
		})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&taskDatamodel.TaskOwner{}).Error; err != nil {
			return err
		}
		return tx.Create(&rows).Error
	})
}

func (s *Store) TaskIDByExternalID(ctx context.Context, externalID string) (int64, error) {
	var row taskDatamodel.Task
	err := s.db.WithContext(ctx).Select("id").Where("external_id = ?", externalID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return row.ID, nil
}

func (s *Store) InsertTimeLog(ctx context.Context, log *ingest.StoredTimeLog) (bool, error) {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoNothing: true,
		}).
		Create(&taskDatamodel.TimeLog{
			ExternalID: log.ExternalID,
			TaskID:     log.TaskID,
			UserID:     log.UserID,
			Minutes:    log.Minutes,
			LoggedAt:   log.LoggedAt,
			CreatedAt:  time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
