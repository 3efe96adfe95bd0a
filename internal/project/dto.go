package project

type ProjectResponse struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	TaskCount      int64   `json:"task_count"`
	CompletedCount int64   `json:"completed_count"`
	CompletionRate float64 `json:"completion_rate"`
}

type ProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

func (p *Project) ToResponse() ProjectResponse {
	return ProjectResponse{
		ID:             p.ID,
		Name:           p.Name,
		TaskCount:      p.TaskCount,
		CompletedCount: p.CompletedCount,
		CompletionRate: p.CompletionRate(),
	}
}
