package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/performance-tracker/internal"
	taskDatamodel "github.com/frahmantamala/performance-tracker/internal/core/datamodel/task"
	"github.com/frahmantamala/performance-tracker/internal/task"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskRepository implements task.Repository using GORM
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	var row taskDatamodel.Task
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrTaskNotFound
		}
		return nil, err
	}

	t := toDomain(&row)
	owners, err := r.owners(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	t.Owners = owners[id]
	return t, nil
}

// ListByOwner returns tasks the user owns, or is assigned to when a task
// has no owner rows, newest first.
func (r *TaskRepository) ListByOwner(ctx context.Context, userID int64, limit int) ([]*task.Task, error) {
	var rows []taskDatamodel.Task
	err := r.db.WithContext(ctx).
		Where("id IN (SELECT task_id FROM task_owners WHERE user_id = ?) OR "+
			"(assignee_id = ? AND NOT EXISTS (SELECT 1 FROM task_owners x WHERE x.task_id = tasks.id))", userID, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	owners, err := r.owners(ctx, ids)
	if err != nil {
		return nil, err
	}

	tasks := make([]*task.Task, 0, len(rows))
	for i := range rows {
		t := toDomain(&rows[i])
		t.Owners = owners[t.ID]
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (r *TaskRepository) owners(ctx context.Context, taskIDs []int64) (map[int64][]task.Owner, error) {
	out := make(map[int64][]task.Owner, len(taskIDs))
	if len(taskIDs) == 0 {
		return out, nil
	}

	var rows []taskDatamodel.TaskOwner
	err := r.db.WithContext(ctx).
		Where("task_id IN ?", taskIDs).
		Order("task_id, share_percentage DESC, user_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.TaskID] = append(out[row.TaskID], task.Owner{UserID: row.UserID, SharePercentage: row.SharePercentage})
	}
	return out, nil
}

// ApplyValidation reads the task under a row lock, updates its validation
// fields and appends the history row in one transaction.
func (r *TaskRepository) ApplyValidation(ctx context.Context, change task.ValidationChange) (*task.ValidationResult, error) {
	var result *task.ValidationResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row taskDatamodel.Task
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", change.TaskID).
			First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internal.ErrTaskNotFound
			}
			return err
		}

		old := row.ProgressPercentage
		if row.ManagerValidatedPercentage != nil {
			old = *row.ManagerValidatedPercentage
		}

		err = tx.Model(&taskDatamodel.Task{}).
			Where("id = ?", row.ID).
			Updates(map[string]interface{}{
				"manager_validated_percentage": change.NewPercentage,
				"validated_by":                 change.ValidatorID,
				"validated_at":                 change.At,
				"validation_comment":           change.Comment,
				"updated_at":                   change.At,
			}).Error
		if err != nil {
			return err
		}

		history := taskDatamodel.ValidationHistory{
			TaskID:            row.ID,
			ValidatorID:       change.ValidatorID,
			OldPercentage:     old,
			NewPercentage:     change.NewPercentage,
			ValidationComment: change.Comment,
			CreatedAt:         change.At,
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		result = &task.ValidationResult{
			TaskID:        row.ID,
			OldPercentage: old,
			NewPercentage: change.NewPercentage,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func toDomain(row *taskDatamodel.Task) *task.Task {
	return &task.Task{
		ID:                         row.ID,
		ExternalID:                 row.ExternalID,
		ProjectID:                  row.ProjectID,
		AssigneeID:                 row.AssigneeID,
		Title:                      row.Title,
		Status:                     row.Status,
		Priority:                   row.Priority,
		ProgressPercentage:         row.ProgressPercentage,
		ManagerValidatedPercentage: row.ManagerValidatedPercentage,
		ValidationComment:          row.ValidationComment,
		ValidatedBy:                row.ValidatedBy,
		ValidatedAt:                row.ValidatedAt,
		EstimatedHours:             row.EstimatedHours,
		DueDate:                    row.DueDate,
		CompletedAt:                row.CompletedAt,
		CreatedAt:                  row.CreatedAt,
		UpdatedAt:                  row.UpdatedAt,
	}
}
