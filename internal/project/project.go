package project

import (
	"time"

	projectDatamodel "github.com/frahmantamala/performance-tracker/internal/core/datamodel/project"
)

type Project struct {
	ID             int64     `json:"id"`
	ExternalID     string    `json:"external_id"`
	Name           string    `json:"name"`
	IsActive       bool      `json:"is_active"`
	TaskCount      int64     `json:"task_count"`
	CompletedCount int64     `json:"completed_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CompletionRate is the share of completed tasks in percent.
func (p *Project) CompletionRate() float64 {
	if p.TaskCount == 0 {
		return 0
	}
	return float64(p.CompletedCount) / float64(p.TaskCount) * 100
}

func NewProject(externalID, name string) *Project {
	now := time.Now().UTC()
	return &Project{
		ExternalID: externalID,
		Name:       name,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func ToDataModel(p *Project) *projectDatamodel.Project {
	return &projectDatamodel.Project{
		ID:         p.ID,
		ExternalID: p.ExternalID,
		Name:       p.Name,
		IsActive:   p.IsActive,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func FromDataModel(p *projectDatamodel.Project) *Project {
	return &Project{
		ID:         p.ID,
		ExternalID: p.ExternalID,
		Name:       p.Name,
		IsActive:   p.IsActive,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}
