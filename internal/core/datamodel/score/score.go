package score

import (
	"time"

	"gorm.io/datatypes"
)

type Score struct {
	ID         int64          `gorm:"primaryKey"`
	UserID     int64          `gorm:"column:user_id;not null;uniqueIndex:idx_scores_user_date"`
	Date       time.Time      `gorm:"column:date;type:date;not null;uniqueIndex:idx_scores_user_date;index"`
	ScoreValue float64        `gorm:"column:score_value;not null"`
	Components datatypes.JSON `gorm:"column:components;not null"`
	CreatedAt  time.Time      `gorm:"column:created_at"`
}

func (Score) TableName() string {
	return "scores"
}

type Setting struct {
	Key       string         `gorm:"column:key;primaryKey"`
	Value     datatypes.JSON `gorm:"column:value;not null"`
	UpdatedBy *int64         `gorm:"column:updated_by"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}
