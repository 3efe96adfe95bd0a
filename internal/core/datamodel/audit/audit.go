package audit

import (
	"time"

	"gorm.io/datatypes"
)

type Entry struct {
	ID         int64          `gorm:"primaryKey"`
	EventID    string         `gorm:"column:event_id;uniqueIndex;not null"`
	Action     string         `gorm:"column:action;index;not null"`
	ActorID    *int64         `gorm:"column:actor_id;index"`
	EntityType string         `gorm:"column:entity_type;not null"`
	EntityID   string         `gorm:"column:entity_id;not null"`
	Details    datatypes.JSON `gorm:"column:details"`
	OccurredAt time.Time      `gorm:"column:occurred_at;index;not null"`
	CreatedAt  time.Time      `gorm:"column:created_at"`
}

func (Entry) TableName() string {
	return "audit_log"
}
