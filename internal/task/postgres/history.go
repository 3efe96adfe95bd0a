package postgres

import (
	"context"

	"github.com/frahmantamala/performance-tracker/internal/task"
	"github.com/jmoiron/sqlx"
)

// HistoryReader serves validation history enriched with the validator.
type HistoryReader struct {
	db *sqlx.DB
}

func NewHistoryReader(db *sqlx.DB) *HistoryReader {
	return &HistoryReader{db: db}
}

const historyQuery = `
SELECT h.id, h.task_id, h.old_percentage, h.new_percentage, h.validation_comment,
       h.validator_id,
       COALESCE(u.name, '') AS validator_name,
       COALESCE(u.email, '') AS validator_email,
       h.created_at
FROM validation_history h
LEFT JOIN users u ON u.id = h.validator_id
WHERE h.task_id = ?
ORDER BY h.created_at ASC, h.id ASC`

func (r *HistoryReader) ListHistory(ctx context.Context, taskID int64) ([]task.HistoryEntry, error) {
	entries := []task.HistoryEntry{}
	if err := r.db.SelectContext(ctx, &entries, r.db.Rebind(historyQuery), taskID); err != nil {
		return nil, err
	}
	return entries, nil
}
