package events

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	TaskValidatedEventType         = "task.validated"
	ScoresGeneratedEventType       = "scores.generated"
	FeedbackCreatedEventType       = "feedback.created"
	UserRoleChangedEventType       = "user.role_changed"
	UserManagerChangedEventType    = "user.manager_changed"
	ScoringWeightsUpdatedType      = "settings.weights_updated"
	ProjectSyncCompletedType       = "projects.synced"
	SpreadsheetImportCompletedType = "projects.imported"
)

// Keys every domain event carries so the audit log can index it.
const (
	KeyActorID    = "actor_id"
	KeyEntityType = "entity_type"
	KeyEntityID   = "entity_id"
)

func newEvent(eventType string, actorID *int64, entityType, entityID string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = make(map[string]interface{})
	}
	if actorID != nil {
		data[KeyActorID] = *actorID
	}
	data[KeyEntityType] = entityType
	data[KeyEntityID] = entityID
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

type TaskValidatedEvent struct {
	BaseEvent
	TaskID        int64
	ValidatorID   int64
	OldPercentage int
	NewPercentage int
}

func NewTaskValidatedEvent(taskID, validatorID int64, oldPercentage, newPercentage int, comment string) *TaskValidatedEvent {
	return &TaskValidatedEvent{
		BaseEvent: newEvent(TaskValidatedEventType, &validatorID, "task", id(taskID), map[string]interface{}{
			"task_id":            taskID,
			"validator_id":       validatorID,
			"old_percentage":     oldPercentage,
			"new_percentage":     newPercentage,
			"validation_comment": comment,
		}),
		TaskID:        taskID,
		ValidatorID:   validatorID,
		OldPercentage: oldPercentage,
		NewPercentage: newPercentage,
	}
}

type ScoresGeneratedEvent struct {
	BaseEvent
	Date      time.Time
	Processed int
	Inserted  int
	Skipped   int
	Failed    int
}

func NewScoresGeneratedEvent(date time.Time, processed, inserted, skipped, failed int) *ScoresGeneratedEvent {
	return &ScoresGeneratedEvent{
		BaseEvent: newEvent(ScoresGeneratedEventType, nil, "score_run", date.Format("2006-01-02"), map[string]interface{}{
			"date":      date.Format("2006-01-02"),
			"processed": processed,
			"inserted":  inserted,
			"skipped":   skipped,
			"failed":    failed,
		}),
		Date:      date,
		Processed: processed,
		Inserted:  inserted,
		Skipped:   skipped,
		Failed:    failed,
	}
}

type FeedbackCreatedEvent struct {
	BaseEvent
	FeedbackID int64
	FromUserID int64
	ToUserID   int64
}

func NewFeedbackCreatedEvent(feedbackID, fromUserID, toUserID int64, rating int) *FeedbackCreatedEvent {
	return &FeedbackCreatedEvent{
		BaseEvent: newEvent(FeedbackCreatedEventType, &fromUserID, "feedback", id(feedbackID), map[string]interface{}{
			"to_user_id": toUserID,
			"rating":     rating,
		}),
		FeedbackID: feedbackID,
		FromUserID: fromUserID,
		ToUserID:   toUserID,
	}
}

func NewUserRoleChangedEvent(actorID, userID int64, oldRole, newRole string) BaseEvent {
	return newEvent(UserRoleChangedEventType, &actorID, "user", id(userID), map[string]interface{}{
		"old_role": oldRole,
		"new_role": newRole,
	})
}

func NewUserManagerChangedEvent(actorID, userID int64, oldManagerID, newManagerID *int64) BaseEvent {
	return newEvent(UserManagerChangedEventType, &actorID, "user", id(userID), map[string]interface{}{
		"old_manager_id": oldManagerID,
		"new_manager_id": newManagerID,
	})
}

func NewScoringWeightsUpdatedEvent(actorID int64, weights map[string]int) BaseEvent {
	data := make(map[string]interface{}, len(weights))
	for k, v := range weights {
		data[k] = v
	}
	return newEvent(ScoringWeightsUpdatedType, &actorID, "setting", "scoring_weights", data)
}

func NewImportCompletedEvent(eventType, source string, projects, tasks, timeLogs, skipped int) BaseEvent {
	return newEvent(eventType, nil, "import", source, map[string]interface{}{
		"projects":  projects,
		"tasks":     tasks,
		"time_logs": timeLogs,
		"skipped":   skipped,
	})
}
