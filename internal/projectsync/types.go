package projectsync

import "time"

type APIProject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type APIOwner struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	SharePercentage *int   `json:"share_percentage"`
}

type APITask struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"project_id"`
	Title          string     `json:"title"`
	AssigneeEmail  string     `json:"assignee_email"`
	AssigneeName   string     `json:"assignee_name"`
	Owners         []APIOwner `json:"owners"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	Progress       int        `json:"progress"`
	EstimatedHours float64    `json:"estimated_hours"`
	DueDate        *time.Time `json:"due_date"`
	CompletedAt    *time.Time `json:"completed_at"`
	CreatedAt      *time.Time `json:"created_at"`
}

type APITimeLog struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	UserEmail string    `json:"user_email"`
	Minutes   int       `json:"minutes"`
	LoggedAt  time.Time `json:"logged_at"`
}

type listResponse[T any] struct {
	Data []T `json:"data"`
}
