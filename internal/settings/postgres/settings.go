package postgres

import (
	"context"
	"errors"

	scoreDatamodel "github.com/frahmantamala/performance-tracker/internal/core/datamodel/score"
	"github.com/frahmantamala/performance-tracker/internal/settings"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context, key string) (*settings.Setting, error) {
	var row scoreDatamodel.Setting
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settings.Setting{
		Key:       row.Key,
		Value:     []byte(row.Value),
		UpdatedBy: row.UpdatedBy,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func (r *SettingsRepository) Put(ctx context.Context, s *settings.Setting) error {
	row := scoreDatamodel.Setting{
		Key:       s.Key,
		Value:     datatypes.JSON(s.Value),
		UpdatedBy: s.UpdatedBy,
		UpdatedAt: s.UpdatedAt,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
		}).
		Create(&row).Error
}
