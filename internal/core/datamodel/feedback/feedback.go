package feedback

import (
	"time"

	"gorm.io/datatypes"
)

type Feedback struct {
	ID         int64                       `gorm:"primaryKey"`
	FromUserID int64                       `gorm:"column:from_user_id;index;not null"`
	ToUserID   int64                       `gorm:"column:to_user_id;index;not null"`
	Rating     int                         `gorm:"column:rating;not null"`
	Categories datatypes.JSONSlice[string] `gorm:"column:categories;not null"`
	Comment    string                      `gorm:"column:comment;not null"`
	CreatedAt  time.Time                   `gorm:"column:created_at;index"`
}

func (Feedback) TableName() string {
	return "feedback"
}
