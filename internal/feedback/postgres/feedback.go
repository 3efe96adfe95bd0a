package postgres

import (
	"context"

	feedbackDatamodel "github.com/frahmantamala/performance-tracker/internal/core/datamodel/feedback"
	userDatamodel "github.com/frahmantamala/performance-tracker/internal/core/datamodel/user"
	"github.com/frahmantamala/performance-tracker/internal/feedback"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FeedbackRepository implements feedback.Repository using GORM
type FeedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Create(ctx context.Context, f *feedback.Feedback) error {
	row := feedbackDatamodel.Feedback{
		FromUserID: f.FromUserID,
		ToUserID:   f.ToUserID,
		Rating:     f.Rating,
		Categories: datatypes.JSONSlice[string](f.Categories),
		Comment:    f.Comment,
		CreatedAt:  f.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	f.ID = row.ID
	return nil
}

func (r *FeedbackRepository) ListReceived(ctx context.Context, userID int64) ([]*feedback.Feedback, error) {
	return r.list(ctx, "to_user_id = ?", userID)
}

func (r *FeedbackRepository) ListGiven(ctx context.Context, userID int64) ([]*feedback.Feedback, error) {
	return r.list(ctx, "from_user_id = ?", userID)
}

func (r *FeedbackRepository) list(ctx context.Context, where string, userID int64) ([]*feedback.Feedback, error) {
	var rows []feedbackDatamodel.Feedback
	if err := r.db.WithContext(ctx).Where(where, userID).Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]*feedback.Feedback, 0, len(rows))
	for _, row := range rows {
		items = append(items, &feedback.Feedback{
			ID:         row.ID,
			FromUserID: row.FromUserID,
			ToUserID:   row.ToUserID,
			Rating:     row.Rating,
			Categories: []string(row.Categories),
			Comment:    row.Comment,
			CreatedAt:  row.CreatedAt,
		})
	}
	return items, nil
}

func (r *FeedbackRepository) UserExists(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	return count > 0, err
}
