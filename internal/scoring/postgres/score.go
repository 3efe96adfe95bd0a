package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	scoreDatamodel "github.com/frahmantamala/performance-tracker/internal/core/datamodel/score"
	userDatamodel "github.com/frahmantamala/performance-tracker/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/performance-tracker/internal/core/user"
	"github.com/frahmantamala/performance-tracker/internal/ownership"
	"github.com/frahmantamala/performance-tracker/internal/scoring"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScoreRepository implements scoring.Repository using GORM
type ScoreRepository struct {
	db *gorm.DB
}

func NewScoreRepository(db *gorm.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

type ownedTaskRow struct {
	ID                         int64
	Status                     string
	Priority                   string
	ProgressPercentage         int
	ManagerValidatedPercentage *int
	EstimatedHours             float64
	DueDate                    *time.Time
	CompletedAt                *time.Time
	SharePercentage            int
}

// Tasks count for a user through their owner row, or through assignment
// when the task has no owner rows at all.
const ownedTasksQuery = `
SELECT t.id, t.status, t.priority, t.progress_percentage, t.manager_validated_percentage,
       t.estimated_hours, t.due_date, t.completed_at,
       COALESCE(o.share_percentage, 100) AS share_percentage
FROM tasks t
LEFT JOIN task_owners o ON o.task_id = t.id AND o.user_id = ?
WHERE t.created_at >= ? AND t.created_at < ?
  AND (o.user_id IS NOT NULL
       OR (t.assignee_id = ? AND NOT EXISTS (SELECT 1 FROM task_owners x WHERE x.task_id = t.id)))
ORDER BY t.id`

func (r *ScoreRepository) ListOwnedTasks(ctx context.Context, userID int64, start, end time.Time) ([]scoring.OwnedTask, error) {
	var rows []ownedTaskRow
	if err := r.db.WithContext(ctx).Raw(ownedTasksQuery, userID, start, end, userID).Scan(&rows).Error; err != nil {
		return nil, err
	}

	tasks := make([]scoring.OwnedTask, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, scoring.OwnedTask{
			TaskID:                     row.ID,
			Status:                     row.Status,
			Priority:                   row.Priority,
			ProgressPercentage:         row.ProgressPercentage,
			ManagerValidatedPercentage: row.ManagerValidatedPercentage,
			EstimatedHours:             row.EstimatedHours,
			DueDate:                    row.DueDate,
			CompletedAt:                row.CompletedAt,
			ShareWeight:                ownership.Weight(row.SharePercentage),
		})
	}
	return tasks, nil
}

func (r *ScoreRepository) SumLoggedMinutes(ctx context.Context, userID int64, start, end time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Table("time_logs").
		Select("COALESCE(SUM(minutes), 0)").
		Where("user_id = ? AND logged_at >= ? AND logged_at < ?", userID, start, end).
		Row().
		Scan(&total)
	return total, err
}

// InsertIfAbsent keeps an existing (user, date) row untouched and reports
// whether a new row was written.
func (r *ScoreRepository) InsertIfAbsent(ctx context.Context, score *scoring.Score) (bool, error) {
	components, err := json.Marshal(score.Components)
	if err != nil {
		return false, fmt.Errorf("marshal components: %w", err)
	}

	row := scoreDatamodel.Score{
		UserID:     score.UserID,
		Date:       score.Date,
		ScoreValue: score.ScoreValue,
		Components: datatypes.JSON(components),
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoNothing: true,
		}).
		Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	score.ID = row.ID
	score.CreatedAt = row.CreatedAt
	return true, nil
}

func (r *ScoreRepository) ListEmployeeIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("role = ? AND is_active = ?", string(coreUser.RoleEmployee), true).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *ScoreRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*scoring.Score, error) {
	var rows []scoreDatamodel.Score
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	scores := make([]*scoring.Score, 0, len(rows))
	for i := range rows {
		s, err := toDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, nil
}

func (r *ScoreRepository) LatestByUser(ctx context.Context, userID int64) (*scoring.Score, error) {
	var row scoreDatamodel.Score
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toDomain(&row)
}

func toDomain(row *scoreDatamodel.Score) (*scoring.Score, error) {
	var components scoring.Components
	if len(row.Components) > 0 {
		if err := json.Unmarshal(row.Components, &components); err != nil {
			return nil, fmt.Errorf("decode components of score %d: %w", row.ID, err)
		}
	}
	return &scoring.Score{
		ID:         row.ID,
		UserID:     row.UserID,
		Date:       row.Date,
		ScoreValue: row.ScoreValue,
		Components: components,
		CreatedAt:  row.CreatedAt,
	}, nil
}
