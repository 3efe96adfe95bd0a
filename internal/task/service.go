package task

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/performance-tracker/internal"
	"github.com/frahmantamala/performance-tracker/internal/core/events"
	coreUser "github.com/frahmantamala/performance-tracker/internal/core/user"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Task, error)
	ListByOwner(ctx context.Context, userID int64, limit int) ([]*Task, error)
	// ApplyValidation locks the task row, records the transition and
	// returns the percentage it replaced. Nothing is written on error.
	ApplyValidation(ctx context.Context, change ValidationChange) (*ValidationResult, error)
}

type HistoryReader interface {
	ListHistory(ctx context.Context, taskID int64) ([]HistoryEntry, error)
}

type Service struct {
	repo      Repository
	history   HistoryReader
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, history HistoryReader, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		history:   history,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// ValidateTask overrides the reported progress of a task with a
// manager-confirmed percentage. Re-validation with an unchanged value is
// still recorded.
func (s *Service) ValidateTask(ctx context.Context, taskID int64, dto ValidateTaskDTO, validatorID int64, validatorRole coreUser.Role) (*ValidationResult, error) {
	if !validatorRole.CanValidateTasks() {
		s.logger.Warn("validate task denied: insufficient role",
			"task_id", taskID,
			"validator_id", validatorID,
			"role", validatorRole)
		return nil, internal.ErrUnauthorizedAccess
	}

	if err := dto.Validate(); err != nil {
		s.logger.Info("validate task rejected", "task_id", taskID, "validator_id", validatorID, "error", err)
		return nil, err
	}

	result, err := s.repo.ApplyValidation(ctx, ValidationChange{
		TaskID:        taskID,
		ValidatorID:   validatorID,
		NewPercentage: dto.Percentage(),
		Comment:       dto.Comment(),
		At:            s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, internal.ErrTaskNotFound) {
			return nil, err
		}
		s.logger.Error("failed to apply task validation", "error", err, "task_id", taskID, "validator_id", validatorID)
		return nil, internal.NewInternalError("failed to validate task", err)
	}

	s.logger.Info("task validated",
		"task_id", taskID,
		"validator_id", validatorID,
		"old_percentage", result.OldPercentage,
		"new_percentage", result.NewPercentage)

	if s.publisher != nil {
		event := events.NewTaskValidatedEvent(taskID, validatorID, result.OldPercentage, result.NewPercentage, dto.Comment())
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish task validated event", "error", err, "task_id", taskID)
		}
	}

	return result, nil
}

// GetHistory returns the validation trail of a task, oldest first.
func (s *Service) GetHistory(ctx context.Context, taskID int64) ([]HistoryEntry, error) {
	if _, err := s.GetTask(ctx, taskID); err != nil {
		return nil, err
	}

	entries, err := s.history.ListHistory(ctx, taskID)
	if err != nil {
		s.logger.Error("failed to read validation history", "error", err, "task_id", taskID)
		return nil, internal.NewInternalError("failed to read validation history", err)
	}
	return entries, nil
}

func (s *Service) GetTask(ctx context.Context, taskID int64) (*Task, error) {
	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, internal.ErrTaskNotFound) {
			return nil, err
		}
		s.logger.Error("failed to load task", "error", err, "task_id", taskID)
		return nil, internal.NewInternalError("failed to load task", err)
	}
	return t, nil
}

func (s *Service) ListOwned(ctx context.Context, userID int64, limit int) ([]*Task, error) {
	tasks, err := s.repo.ListByOwner(ctx, userID, limit)
	if err != nil {
		s.logger.Error("failed to list owned tasks", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to list tasks", err)
	}
	return tasks, nil
}
