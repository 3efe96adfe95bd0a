// Package scoring computes the daily performance score of a user from the
// tasks they own and the time they logged in a fixed lookback window.
package scoring

import (
	"fmt"
	"time"

	"github.com/frahmantamala/performance-tracker/internal"
	coreTask "github.com/frahmantamala/performance-tracker/internal/core/task"
)

const (
	// LookbackDays is the number of calendar days, ending on the scoring
	// date, that every component aggregates over.
	LookbackDays = 30

	FallbackScore          = 70.0
	FallbackAllTasksClosed = 90.0

	GenerateScoresJob = "generate_scores"
)

// Weights are integer percentages that must sum to 100 when stored.
type Weights struct {
	TaskCompletion  int `json:"taskCompletion"`
	Timeliness      int `json:"timeliness"`
	Efficiency      int `json:"efficiency"`
	ProgressQuality int `json:"progressQuality"`
	PriorityFocus   int `json:"priorityFocus"`
}

func DefaultWeights() Weights {
	return Weights{
		TaskCompletion:  30,
		Timeliness:      25,
		Efficiency:      25,
		ProgressQuality: 15,
		PriorityFocus:   5,
	}
}

func (w Weights) Sum() int {
	return w.TaskCompletion + w.Timeliness + w.Efficiency + w.ProgressQuality + w.PriorityFocus
}

func (w Weights) AsMap() map[string]int {
	return map[string]int{
		"taskCompletion":  w.TaskCompletion,
		"timeliness":      w.Timeliness,
		"efficiency":      w.Efficiency,
		"progressQuality": w.ProgressQuality,
		"priorityFocus":   w.PriorityFocus,
	}
}

func (w Weights) Validate() error {
	for name, value := range w.AsMap() {
		if value < 0 || value > 100 {
			return internal.NewValidationFieldError(name, fmt.Sprintf("%s must be between 0 and 100", name), internal.ErrCodeInvalidWeights)
		}
	}
	if sum := w.Sum(); sum != 100 {
		return internal.NewValidationError(fmt.Sprintf("weights must sum to 100, got %d", sum), internal.ErrCodeInvalidWeights)
	}
	return nil
}

// Normalize converts the percentages into fractions summing to one. An
// all-zero set falls back to the defaults.
func (w Weights) Normalize() NormalizedWeights {
	sum := float64(w.Sum())
	if sum <= 0 {
		return DefaultWeights().Normalize()
	}
	return NormalizedWeights{
		TaskCompletion:  float64(w.TaskCompletion) / sum,
		Timeliness:      float64(w.Timeliness) / sum,
		Efficiency:      float64(w.Efficiency) / sum,
		ProgressQuality: float64(w.ProgressQuality) / sum,
		PriorityFocus:   float64(w.PriorityFocus) / sum,
	}
}

type NormalizedWeights struct {
	TaskCompletion  float64 `json:"taskCompletion"`
	Timeliness      float64 `json:"timeliness"`
	Efficiency      float64 `json:"efficiency"`
	ProgressQuality float64 `json:"progressQuality"`
	PriorityFocus   float64 `json:"priorityFocus"`
}

func (n NormalizedWeights) Sum() float64 {
	return n.TaskCompletion + n.Timeliness + n.Efficiency + n.ProgressQuality + n.PriorityFocus
}

// Components is the snapshot persisted next to every score. It is never
// recomputed after the fact.
type Components struct {
	TaskCompletion  float64           `json:"taskCompletion"`
	Timeliness      float64           `json:"timeliness"`
	Efficiency      float64           `json:"efficiency"`
	ProgressQuality float64           `json:"progressQuality"`
	PriorityFocus   float64           `json:"priorityFocus"`
	Weights         NormalizedWeights `json:"weights"`
}

// OwnedTask is a task row as seen by one of its owners.
type OwnedTask struct {
	TaskID                     int64
	Status                     string
	Priority                   string
	ProgressPercentage         int
	ManagerValidatedPercentage *int
	EstimatedHours             float64
	DueDate                    *time.Time
	CompletedAt                *time.Time
	ShareWeight                float64
}

func (t OwnedTask) Completed() bool {
	return coreTask.IsCompleted(t.Status)
}

// EffectiveProgress prefers the manager-validated percentage over the
// self-reported one.
func (t OwnedTask) EffectiveProgress() int {
	p := t.ProgressPercentage
	if t.ManagerValidatedPercentage != nil {
		p = *t.ManagerValidatedPercentage
	}
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Result is a computed, not necessarily persisted, score.
type Result struct {
	UserID     int64
	Date       time.Time
	ScoreValue float64
	Components Components
}

// Score is a persisted daily score.
type Score struct {
	ID         int64
	UserID     int64
	Date       time.Time
	ScoreValue float64
	Components Components
	CreatedAt  time.Time
}

type BatchSummary struct {
	Date      time.Time `json:"-"`
	Processed int       `json:"processed"`
	Inserted  int       `json:"inserted"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
}

type BoardEntry struct {
	UserID     int64      `json:"userId" db:"user_id"`
	Name       string     `json:"name" db:"name"`
	Email      string     `json:"email" db:"email"`
	Department string     `json:"department" db:"department"`
	ScoreValue float64    `json:"scoreValue" db:"score_value"`
	Components Components `json:"components" db:"-"`
}

// Window returns the half-open [start, end) interval covering the
// LookbackDays calendar days that end on asOf.
func Window(asOf time.Time) (time.Time, time.Time) {
	day := internal.DateOnly(asOf)
	return day.AddDate(0, 0, -(LookbackDays - 1)), day.AddDate(0, 0, 1)
}
