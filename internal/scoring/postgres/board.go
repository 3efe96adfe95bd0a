package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/frahmantamala/performance-tracker/internal/scoring"
	"github.com/jmoiron/sqlx"
)

// BoardReader is the sqlx read model behind the HR score board.
type BoardReader struct {
	db *sqlx.DB
}

func NewBoardReader(db *sqlx.DB) *BoardReader {
	return &BoardReader{db: db}
}

type boardRow struct {
	UserID     int64   `db:"user_id"`
	Name       string  `db:"name"`
	Email      string  `db:"email"`
	Department *string `db:"department"`
	ScoreValue float64 `db:"score_value"`
	Components []byte  `db:"components"`
}

const boardQuery = `
SELECT s.user_id, u.name, u.email, u.department, s.score_value, s.components
FROM scores s
JOIN users u ON u.id = s.user_id
WHERE s.date = ?
ORDER BY s.score_value DESC, u.name ASC`

func (b *BoardReader) Board(ctx context.Context, date time.Time) ([]scoring.BoardEntry, error) {
	var rows []boardRow
	if err := b.db.SelectContext(ctx, &rows, b.db.Rebind(boardQuery), date); err != nil {
		return nil, err
	}

	entries := make([]scoring.BoardEntry, 0, len(rows))
	for _, row := range rows {
		entry := scoring.BoardEntry{
			UserID:     row.UserID,
			Name:       row.Name,
			Email:      row.Email,
			ScoreValue: row.ScoreValue,
		}
		if row.Department != nil {
			entry.Department = *row.Department
		}
		if len(row.Components) > 0 {
			if err := json.Unmarshal(row.Components, &entry.Components); err != nil {
				return nil, fmt.Errorf("decode components for user %d: %w", row.UserID, err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
