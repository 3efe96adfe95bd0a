package postgres

import (
	"context"
	"errors"

	projectDatamodel "github.com/frahmantamala/performance-tracker/internal/core/datamodel/project"
	coreTask "github.com/frahmantamala/performance-tracker/internal/core/task"
	"github.com/frahmantamala/performance-tracker/internal/project"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

type projectRow struct {
	projectDatamodel.Project
	TaskCount      int64
	CompletedCount int64
}

func (r *ProjectRepository) ListWithCounts(ctx context.Context) ([]*project.Project, error) {
	var rows []projectRow
	err := r.db.WithContext(ctx).
		Table("projects p").
		Select("p.*, COUNT(t.id) AS task_count, "+
			"COALESCE(SUM(CASE WHEN t.status IN (?, ?) THEN 1 ELSE 0 END), 0) AS completed_count",
			coreTask.StatusCompleted, coreTask.StatusDoneLegacy).
		Joins("LEFT JOIN tasks t ON t.project_id = p.id").
		Group("p.id").
		Order("p.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	projects := make([]*project.Project, 0, len(rows))
	for i := range rows {
		p := project.FromDataModel(&rows[i].Project)
		p.TaskCount = rows[i].TaskCount
		p.CompletedCount = rows[i].CompletedCount
		projects = append(projects, p)
	}
	return projects, nil
}

func (r *ProjectRepository) GetByExternalID(ctx context.Context, externalID string) (*project.Project, error) {
	var row projectDatamodel.Project
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return project.FromDataModel(&row), nil
}

func (r *ProjectRepository) Upsert(ctx context.Context, p *project.Project) error {
	row := project.ToDataModel(p)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}).
		Create(row).Error
	if err != nil {
		return err
	}

	// ON CONFLICT does not report the existing id on every driver.
	if row.ID == 0 {
		existing, err := r.GetByExternalID(ctx, p.ExternalID)
		if err != nil {
			return err
		}
		if existing != nil {
			row.ID = existing.ID
		}
	}
	p.ID = row.ID
	return nil
}
