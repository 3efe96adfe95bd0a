package task

import (
	"strings"

	"github.com/frahmantamala/performance-tracker/internal"
	"github.com/frahmantamala/performance-tracker/internal/core/common/validation"
)

const MinCommentLength = 10

type ValidateTaskDTO struct {
	NewPercentage     *float64 `json:"newPercentage"`
	ValidationComment string   `json:"validationComment"`
}

func (dto ValidateTaskDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("newPercentage", dto.NewPercentage).
		Required().
		WholeNumber(0, 100, internal.ErrCodeInvalidPercentage)
	v.Field("validationComment", dto.ValidationComment).
		MinLength(MinCommentLength, internal.ErrCodeCommentTooShort).
		MaxLength(2000)

	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// Percentage returns the validated whole percentage. Call after Validate.
func (dto ValidateTaskDTO) Percentage() int {
	if dto.NewPercentage == nil {
		return 0
	}
	return int(*dto.NewPercentage)
}

func (dto ValidateTaskDTO) Comment() string {
	return strings.TrimSpace(dto.ValidationComment)
}

type HistoryResponse struct {
	TaskID  int64          `json:"taskId"`
	History []HistoryEntry `json:"history"`
}

type TasksResponse struct {
	Tasks []*Task `json:"tasks"`
}
