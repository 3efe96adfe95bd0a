// Package ingest stores project, task and time-log records coming from the
// project-management API or a spreadsheet. Every record is keyed by its
// upstream external id so repeated runs converge on the same rows.
package ingest

import (
	"fmt"
	"time"
)

type ProjectRecord struct {
	ExternalID string
	Name       string
}

type OwnerRecord struct {
	Email string
	Name  string
	// SharePercentage is nil when upstream only lists the owner.
	SharePercentage *int
}

type TaskRecord struct {
	ExternalID        string
	ProjectExternalID string
	Title             string
	AssigneeEmail     string
	AssigneeName      string
	Owners            []OwnerRecord
	Status            string
	Priority          string
	Progress          int
	EstimatedHours    float64
	DueDate           *time.Time
	CompletedAt       *time.Time
	CreatedAt         *time.Time
}

type TimeLogRecord struct {
	ExternalID     string
	TaskExternalID string
	UserEmail      string
	Minutes        int
	LoggedAt       time.Time
}

type Batch struct {
	Projects []ProjectRecord
	Tasks    []TaskRecord
	TimeLogs []TimeLogRecord
}

// RecordError pins a rejected record to its external id.
type RecordError struct {
	Kind       string `json:"kind"`
	ExternalID string `json:"external_id"`
	Reason     string `json:"reason"`
}

func (e RecordError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Kind, e.ExternalID, e.Reason)
}

type Result struct {
	Projects int           `json:"projects"`
	Tasks    int           `json:"tasks"`
	TimeLogs int           `json:"time_logs"`
	Skipped  int           `json:"skipped"`
	Errors   []RecordError `json:"errors,omitempty"`
}

func (r *Result) reject(kind, externalID, reason string) {
	r.Errors = append(r.Errors, RecordError{Kind: kind, ExternalID: externalID, Reason: reason})
}

// StoredTask is a TaskRecord with its references resolved to local ids.
type StoredTask struct {
	ExternalID     string
	ProjectID      int64
	AssigneeID     *int64
	Title          string
	Status         string
	Priority       string
	Progress       int
	EstimatedHours float64
	DueDate        *time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time
}

type StoredTimeLog struct {
	ExternalID string
	TaskID     int64
	UserID     int64
	Minutes    int
	LoggedAt   time.Time
}
