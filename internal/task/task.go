package task

import (
	"time"

	coreTask "github.com/frahmantamala/performance-tracker/internal/core/task"
)

type Task struct {
	ID                         int64      `json:"id"`
	ExternalID                 string     `json:"externalId"`
	ProjectID                  int64      `json:"projectId"`
	AssigneeID                 *int64     `json:"assigneeId,omitempty"`
	Title                      string     `json:"title"`
	Status                     string     `json:"status"`
	Priority                   string     `json:"priority"`
	ProgressPercentage         int        `json:"progressPercentage"`
	ManagerValidatedPercentage *int       `json:"managerValidatedPercentage,omitempty"`
	ValidationComment          *string    `json:"validationComment,omitempty"`
	ValidatedBy                *int64     `json:"validatedBy,omitempty"`
	ValidatedAt                *time.Time `json:"validatedAt,omitempty"`
	EstimatedHours             float64    `json:"estimatedHours"`
	DueDate                    *time.Time `json:"dueDate,omitempty"`
	CompletedAt                *time.Time `json:"completedAt,omitempty"`
	CreatedAt                  time.Time  `json:"createdAt"`
	UpdatedAt                  time.Time  `json:"updatedAt"`
	Owners                     []Owner    `json:"owners,omitempty"`
}

type Owner struct {
	UserID          int64 `json:"userId"`
	SharePercentage int   `json:"sharePercentage"`
}

// CurrentPercentage is the value a new validation replaces: the last
// validated percentage when present, the reported progress otherwise.
func (t *Task) CurrentPercentage() int {
	if t.ManagerValidatedPercentage != nil {
		return *t.ManagerValidatedPercentage
	}
	return t.ProgressPercentage
}

func (t *Task) Validated() bool {
	return t.ManagerValidatedPercentage != nil
}

func (t *Task) Completed() bool {
	return coreTask.IsCompleted(t.Status)
}

// ValidationChange is the write applied by a single validation.
type ValidationChange struct {
	TaskID        int64
	ValidatorID   int64
	NewPercentage int
	Comment       string
	At            time.Time
}

type ValidationResult struct {
	TaskID        int64 `json:"taskId"`
	OldPercentage int   `json:"oldPercentage"`
	NewPercentage int   `json:"newPercentage"`
}

// HistoryEntry is one validation history row joined with its validator.
type HistoryEntry struct {
	ID                int64     `json:"id" db:"id"`
	TaskID            int64     `json:"taskId" db:"task_id"`
	OldPercentage     int       `json:"oldPercentage" db:"old_percentage"`
	NewPercentage     int       `json:"newPercentage" db:"new_percentage"`
	ValidationComment string    `json:"validationComment" db:"validation_comment"`
	ValidatedBy       int64     `json:"validatedBy" db:"validator_id"`
	ValidatorName     string    `json:"validatorName" db:"validator_name"`
	ValidatorEmail    string    `json:"validatorEmail" db:"validator_email"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
}
