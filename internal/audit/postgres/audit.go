package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/frahmantamala/performance-tracker/internal/audit"
	auditDatamodel "github.com/frahmantamala/performance-tracker/internal/core/datamodel/audit"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry *audit.Entry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	row := auditDatamodel.Entry{
		EventID:    entry.EventID,
		Action:     entry.Action,
		ActorID:    entry.ActorID,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    datatypes.JSON(details),
		OccurredAt: entry.OccurredAt,
		CreatedAt:  time.Now().UTC(),
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return res.Error
	}
	entry.ID = row.ID
	return nil
}

func (r *AuditRepository) List(ctx context.Context, filter audit.Filter) ([]*audit.Entry, error) {
	query := r.db.WithContext(ctx).Model(&auditDatamodel.Entry{})
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", filter.EntityID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []auditDatamodel.Entry
	if err := query.Order("occurred_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]*audit.Entry, 0, len(rows))
	for _, row := range rows {
		e := &audit.Entry{
			ID:         row.ID,
			EventID:    row.EventID,
			Action:     row.Action,
			ActorID:    row.ActorID,
			EntityType: row.EntityType,
			EntityID:   row.EntityID,
			OccurredAt: row.OccurredAt,
		}
		if len(row.Details) > 0 {
			if err := json.Unmarshal(row.Details, &e.Details); err != nil {
				return nil, fmt.Errorf("decode audit entry %d: %w", row.ID, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}
