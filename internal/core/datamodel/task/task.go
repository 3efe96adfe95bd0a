package task

import "time"

type Task struct {
	ID                         int64      `gorm:"primaryKey"`
	ExternalID                 string     `gorm:"column:external_id;uniqueIndex;not null"`
	ProjectID                  int64      `gorm:"column:project_id;index;not null"`
	AssigneeID                 *int64     `gorm:"column:assignee_id;index"`
	Title                      string     `gorm:"column:title;not null"`
	Status                     string     `gorm:"column:status;not null;default:todo"`
	Priority                   string     `gorm:"column:priority;not null;default:medium"`
	ProgressPercentage         int        `gorm:"column:progress_percentage;not null;default:0"`
	ManagerValidatedPercentage *int       `gorm:"column:manager_validated_percentage"`
	ValidationComment          *string    `gorm:"column:validation_comment"`
	ValidatedBy                *int64     `gorm:"column:validated_by"`
	ValidatedAt                *time.Time `gorm:"column:validated_at"`
	EstimatedHours             float64    `gorm:"column:estimated_hours;not null;default:0"`
	DueDate                    *time.Time `gorm:"column:due_date"`
	CompletedAt                *time.Time `gorm:"column:completed_at"`
	CreatedAt                  time.Time  `gorm:"column:created_at;index"`
	UpdatedAt                  time.Time  `gorm:"column:updated_at"`
}

func (Task) TableName() string {
	return "tasks"
}

type TaskOwner struct {
	TaskID          int64     `gorm:"column:task_id;primaryKey"`
	UserID          int64     `gorm:"column:user_id;primaryKey;index"`
	SharePercentage int       `gorm:"column:share_percentage;not null"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (TaskOwner) TableName() string {
	return "task_owners"
}

type TimeLog struct {
	ID         int64     `gorm:"primaryKey"`
	ExternalID string    `gorm:"column:external_id;uniqueIndex;not null"`
	TaskID     int64     `gorm:"column:task_id;index;not null"`
	UserID     int64     `gorm:"column:user_id;index;not null"`
	Minutes    int       `gorm:"column:minutes;not null"`
	LoggedAt   time.Time `gorm:"column:logged_at;index;not null"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (TimeLog) TableName() string {
	return "time_logs"
}

type ValidationHistory struct {
	ID                int64     `gorm:"primaryKey"`
	TaskID            int64     `gorm:"column:task_id;index;not null"`
	ValidatorID       int64     `gorm:"column:validator_id;not null"`
	OldPercentage     int       `gorm:"column:old_percentage;not null"`
	NewPercentage     int       `gorm:"column:new_percentage;not null"`
	ValidationComment string    `gorm:"column:validation_comment;not null"`
	CreatedAt         time.Time `gorm:"column:created_at;index"`
}

func (ValidationHistory) TableName() string {
	return "validation_history"
}
