// Package audit keeps an append-only record of domain events.
package audit

import (
	"context"
	"time"
)

type Entry struct {
	ID         int64                  `json:"id"`
	EventID    string                 `json:"event_id"`
	Action     string                 `json:"action"`
	ActorID    *int64                 `json:"actor_id,omitempty"`
	EntityType string                 `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	Details    map[string]interface{} `json:"details,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	Limit      int
}

type Repository interface {
	// Append ignores an entry whose event id is already recorded.
	Append(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter Filter) ([]*Entry, error)
}
