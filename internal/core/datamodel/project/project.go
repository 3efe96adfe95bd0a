package project

import "time"

type Project struct {
	ID         int64     `gorm:"primaryKey"`
	ExternalID string    `gorm:"column:external_id;uniqueIndex;not null"`
	Name       string    `gorm:"column:name;not null"`
	IsActive   bool      `gorm:"column:is_active;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (Project) TableName() string {
	return "projects"
}
