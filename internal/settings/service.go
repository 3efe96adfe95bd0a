package settings

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/frahmantamala/performance-tracker/internal"
	"github.com/frahmantamala/performance-tracker/internal/core/events"
	coreUser "github.com/frahmantamala/performance-tracker/internal/core/user"
	"github.com/frahmantamala/performance-tracker/internal/scoring"
)

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

// GetScoringWeights returns the stored weights, or the defaults when none
// are stored or the stored value is unusable.
func (s *Service) GetScoringWeights(ctx context.Context) (scoring.Weights, error) {
	setting, err := s.repo.Get(ctx, KeyScoringWeights)
	if err != nil {
		s.logger.Error("failed to read scoring weights", "error", err)
		return scoring.Weights{}, internal.NewInternalError("failed to read scoring weights", err)
	}
	if setting == nil || len(setting.Value) == 0 {
		return scoring.DefaultWeights(), nil
	}

	var w scoring.Weights
	if err := json.Unmarshal(setting.Value, &w); err != nil {
		s.logger.Warn("stored scoring weights are not valid JSON, using defaults", "error", err)
		return scoring.DefaultWeights(), nil
	}
	if err := w.Validate(); err != nil {
		s.logger.Warn("stored scoring weights are invalid, using defaults", "error", err)
		return scoring.DefaultWeights(), nil
	}
	return w, nil
}

func (s *Service) UpdateScoringWeights(ctx context.Context, actorID int64, actorRole coreUser.Role, w scoring.Weights) (scoring.Weights, error) {
	if actorRole != coreUser.RoleHRAdmin {
		s.logger.Warn("update scoring weights denied", "actor_id", actorID, "role", actorRole)
		return scoring.Weights{}, internal.ErrUnauthorizedAccess
	}
	if err := w.Validate(); err != nil {
		return scoring.Weights{}, err
	}

	value, err := json.Marshal(w)
	if err != nil {
		return scoring.Weights{}, internal.NewInternalError("failed to encode scoring weights", err)
	}
	err = s.repo.Put(ctx, &Setting{
		Key:       KeyScoringWeights,
		Value:     value,
		UpdatedBy: &actorID,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("failed to store scoring weights", "error", err, "actor_id", actorID)
		return scoring.Weights{}, internal.NewInternalError("failed to store scoring weights", err)
	}

	s.logger.Info("scoring weights updated", "actor_id", actorID, "weights", w.AsMap())

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.NewScoringWeightsUpdatedEvent(actorID, w.AsMap())); err != nil {
			s.logger.Warn("failed to publish weights updated event", "error", err)
		}
	}
	return w, nil
}
