package feedback

import (
	"github.com/frahmantamala/performance-tracker/internal"
	"github.com/frahmantamala/performance-tracker/internal/core/common/validation"
)

type CreateFeedbackDTO struct {
	ToUserID   int64    `json:"to_user_id"`
	Rating     int      `json:"rating"`
	Categories []string `json:"categories"`
	Comment    string   `json:"comment"`
}

func (dto CreateFeedbackDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("to_user_id", dto.ToUserID).Required().MinInt(1, internal.ErrCodeInvalidID)
	v.Field("rating", dto.Rating).
		MinInt(MinRating, internal.ErrCodeInvalidRating).
		MaxInt(MaxRating, internal.ErrCodeInvalidRating)
	v.Field("categories", dto.Categories).
		Required().
		OneOf(Categories, internal.ErrCodeInvalidFeedbackCategory)
	v.Field("comment", dto.Comment).
		MinLength(MinCommentLength, internal.ErrCodeCommentTooShort).
		MaxLength(2000)

	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type FeedbackListResponse struct {
	Feedback []*Feedback `json:"feedback"`
}
