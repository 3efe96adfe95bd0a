package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/performance-tracker/internal/core/events"
)

// AuditedEvents are the event types recorded in the audit log.
var AuditedEvents = []string{
	events.TaskValidatedEventType,
	events.UserRoleChangedEventType,
	events.UserManagerChangedEventType,
	events.FeedbackCreatedEventType,
	events.ScoringWeightsUpdatedType,
	events.ScoresGeneratedEventType,
	events.ProjectSyncCompletedType,
	events.SpreadsheetImportCompletedType,
}

type EventHandler struct {
	repo   Repository
	logger *slog.Logger
}

func NewEventHandler(repo Repository, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		repo:   repo,
		logger: logger,
	}
}

func (h *EventHandler) HandleEvent(ctx context.Context, event events.Event) error {
	entry := EntryFromEvent(event)
	if err := h.repo.Append(ctx, entry); err != nil {
		h.logger.Error("failed to append audit entry",
			"error", err,
			"event_type", event.EventType(),
			"event_id", event.EventID())
		return fmt.Errorf("audit %s: %w", event.EventType(), err)
	}

	h.logger.Debug("audit entry recorded",
		"event_type", event.EventType(),
		"entity_type", entry.EntityType,
		"entity_id", entry.EntityID)
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	for _, eventType := range AuditedEvents {
		eventBus.Subscribe(eventType, h.HandleEvent)
	}
	h.logger.Info("audit event handlers registered", "handlers", AuditedEvents)
}

// EntryFromEvent lifts the indexing keys out of the payload and keeps the
// rest as details.
func EntryFromEvent(event events.Event) *Entry {
	entry := &Entry{
		EventID:    event.EventID(),
		Action:     event.EventType(),
		OccurredAt: event.OccurredAt().UTC(),
		Details:    map[string]interface{}{},
	}

	data, _ := event.Payload().(map[string]interface{})
	for k, v := range data {
		switch k {
		case events.KeyActorID:
			if id, ok := v.(int64); ok {
				entry.ActorID = &id
			}
		case events.KeyEntityType:
			entry.EntityType = fmt.Sprint(v)
		case events.KeyEntityID:
			entry.EntityID = fmt.Sprint(v)
		default:
			entry.Details[k] = v
		}
	}
	return entry
}
