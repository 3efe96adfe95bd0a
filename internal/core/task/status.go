package task

import (
	"fmt"
	"strings"
)

const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	// StatusDoneLegacy is still present on rows imported before statuses
	// were normalized.
	StatusDoneLegacy = "Done"
)

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// IsCompleted is the single completion predicate used by scoring and reads.
func IsCompleted(status string) bool {
	return status == StatusCompleted || status == StatusDoneLegacy
}

// PriorityWeight maps a priority to its focus weight; unknown priorities
// weigh the same as low.
func PriorityWeight(priority string) float64 {
	switch priority {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// NormalizeStatus maps free-form upstream statuses onto the stored set.
func NormalizeStatus(raw string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	switch key {
	case "", "todo", "to_do", "open", "backlog":
		return StatusTodo, nil
	case "in_progress", "doing", "started":
		return StatusInProgress, nil
	case "completed", "complete", "closed":
		return StatusCompleted, nil
	case "done":
		return StatusDoneLegacy, nil
	}
	return "", fmt.Errorf("unknown task status %q", raw)
}

// NormalizePriority lower-cases the priority and defaults blanks to medium.
func NormalizePriority(raw string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	switch key {
	case "":
		return PriorityMedium, nil
	case PriorityHigh, PriorityMedium, PriorityLow:
		return key, nil
	case "urgent", "critical", "highest":
		return PriorityHigh, nil
	case "lowest", "minor":
		return PriorityLow, nil
	}
	return "", fmt.Errorf("unknown task priority %q", raw)
}
