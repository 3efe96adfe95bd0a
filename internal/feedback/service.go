package feedback

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/frahmantamala/performance-tracker/internal"
	"github.com/frahmantamala/performance-tracker/internal/core/events"
)

type Repository interface {
	Create(ctx context.Context, f *Feedback) error
	ListReceived(ctx context.Context, userID int64) ([]*Feedback, error)
	ListGiven(ctx context.Context, userID int64) ([]*Feedback, error)
	UserExists(ctx context.Context, userID int64) (bool, error)
}

type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) Create(ctx context.Context, fromUserID int64, dto CreateFeedbackDTO) (*Feedback, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if dto.ToUserID == fromUserID {
		return nil, internal.NewValidationFieldError("to_user_id", "feedback cannot be given to yourself", internal.ErrCodeSelfFeedback)
	}

	exists, err := s.repo.UserExists(ctx, dto.ToUserID)
	if err != nil {
		s.logger.Error("failed to check feedback target", "error", err, "to_user_id", dto.ToUserID)
		return nil, internal.NewInternalError("failed to create feedback", err)
	}
	if !exists {
		return nil, internal.ErrUserNotFound
	}

	f := &Feedback{
		FromUserID: fromUserID,
		ToUserID:   dto.ToUserID,
		Rating:     dto.Rating,
		Categories: dedupe(dto.Categories),
		Comment:    strings.TrimSpace(dto.Comment),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, f); err != nil {
		s.logger.Error("failed to store feedback", "error", err, "from_user_id", fromUserID, "to_user_id", dto.ToUserID)
		return nil, internal.NewInternalError("failed to create feedback", err)
	}

	s.logger.Info("feedback created", "feedback_id", f.ID, "from_user_id", fromUserID, "to_user_id", f.ToUserID)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.NewFeedbackCreatedEvent(f.ID, fromUserID, f.ToUserID, f.Rating)); err != nil {
			s.logger.Warn("failed to publish feedback created event", "error", err)
		}
	}
	return f, nil
}

func (s *Service) ListReceived(ctx context.Context, userID int64) ([]*Feedback, error) {
	items, err := s.repo.ListReceived(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list feedback", err)
	}
	return items, nil
}

func (s *Service) ListGiven(ctx context.Context, userID int64) ([]*Feedback, error) {
	items, err := s.repo.ListGiven(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list feedback", err)
	}
	return items, nil
}

// Summary aggregates all feedback received by userID.
func (s *Service) Summary(ctx context.Context, userID int64) (*Summary, error) {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to summarize feedback", err)
	}
	if !exists {
		return nil, internal.ErrUserNotFound
	}

	items, err := s.ListReceived(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Summarize(userID, items), nil
}

func Summarize(userID int64, items []*Feedback) *Summary {
	summary := &Summary{
		UserID:     userID,
		Categories: make(map[string]int, len(Categories)),
	}
	for _, c := range Categories {
		summary.Categories[c] = 0
	}

	total := 0
	for _, f := range items {
		summary.Count++
		total += f.Rating
		for _, c := range f.Categories {
			summary.Categories[c]++
		}
	}
	if summary.Count > 0 {
		summary.AverageRating = math.Round(float64(total)/float64(summary.Count)*100) / 100
	}
	return summary
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
