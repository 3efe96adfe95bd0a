package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/frahmantamala/performance-tracker/internal"
	"github.com/frahmantamala/performance-tracker/internal/core/events"
	coreUser "github.com/frahmantamala/performance-tracker/internal/core/user"
	"golang.org/x/sync/errgroup"
)

type Repository interface {
	ListOwnedTasks(ctx context.Context, userID int64, start, end time.Time) ([]OwnedTask, error)
	SumLoggedMinutes(ctx context.Context, userID int64, start, end time.Time) (int64, error)
	InsertIfAbsent(ctx context.Context, score *Score) (bool, error)
	ListEmployeeIDs(ctx context.Context) ([]int64, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*Score, error)
	LatestByUser(ctx context.Context, userID int64) (*Score, error)
}

type BoardReader interface {
	Board(ctx context.Context, date time.Time) ([]BoardEntry, error)
}

type WeightsProvider interface {
	GetScoringWeights(ctx context.Context) (Weights, error)
}

// Hierarchy answers whether userID reports, directly or not, to managerID.
type Hierarchy interface {
	IsReportOf(ctx context.Context, managerID, userID int64) (bool, error)
}

type Service struct {
	repo      Repository
	board     BoardReader
	weights   WeightsProvider
	hierarchy Hierarchy
	publisher events.Publisher
	logger    *slog.Logger
	workers   int
	now       func() time.Time
}

type Option func(*Service)

func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithBoardReader(board BoardReader) Option {
	return func(s *Service) {
		s.board = board
	}
}

func WithHierarchy(h Hierarchy) Option {
	return func(s *Service) {
		s.hierarchy = h
	}
}

func NewService(repo Repository, weights WeightsProvider, publisher events.Publisher, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		weights:   weights,
		publisher: publisher,
		logger:    logger,
		workers:   4,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) currentWeights(ctx context.Context) (NormalizedWeights, error) {
	if s.weights == nil {
		return DefaultWeights().Normalize(), nil
	}
	w, err := s.weights.GetScoringWeights(ctx)
	if err != nil {
		return NormalizedWeights{}, fmt.Errorf("load scoring weights: %w", err)
	}
	return w.Normalize(), nil
}

// CalculateUserScore computes, without persisting, the score of userID for
// the window ending on asOf.
func (s *Service) CalculateUserScore(ctx context.Context, userID int64, asOf time.Time) (*Result, error) {
	weights, err := s.currentWeights(ctx)
	if err != nil {
		return nil, err
	}
	return s.calculate(ctx, userID, asOf, weights)
}

func (s *Service) calculate(ctx context.Context, userID int64, asOf time.Time, weights NormalizedWeights) (*Result, error) {
	start, end := Window(asOf)

	var (
		tasks  []OwnedTask
		logged int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = s.repo.ListOwnedTasks(gctx, userID, start, end)
		if err != nil {
			return fmt.Errorf("list owned tasks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		logged, err = s.repo.SumLoggedMinutes(gctx, userID, start, end)
		if err != nil {
			return fmt.Errorf("sum logged minutes: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	components := ComputeComponents(tasks, logged, weights)
	return &Result{
		UserID:     userID,
		Date:       internal.DateOnly(asOf),
		ScoreValue: Aggregate(components),
		Components: components,
	}, nil
}

// GenerateAllScores scores every active employee for today. Each user is
// independent: failures are logged and counted and never abort the batch.
// An existing score for the same day is kept.
func (s *Service) GenerateAllScores(ctx context.Context) (BatchSummary, error) {
	asOf := s.now()
	summary := BatchSummary{Date: internal.DateOnly(asOf)}

	weights, err := s.currentWeights(ctx)
	if err != nil {
		return summary, err
	}

	ids, err := s.repo.ListEmployeeIDs(ctx)
	if err != nil {
		return summary, fmt.Errorf("list employees: %w", err)
	}

	var inserted, skipped, failed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for _, userID := range ids {
		userID := userID
		g.Go(func() error {
			result, err := s.calculate(ctx, userID, asOf, weights)
			if err != nil {
				failed.Add(1)
				s.logger.Error("score calculation failed", "user_id", userID, "error", err)
				return nil
			}

			ok, err := s.repo.InsertIfAbsent(ctx, &Score{
				UserID:     result.UserID,
				Date:       result.Date,
				ScoreValue: result.ScoreValue,
				Components: result.Components,
			})
			if err != nil {
				failed.Add(1)
				s.logger.Error("score insert failed", "user_id", userID, "error", err)
				return nil
			}
			if ok {
				inserted.Add(1)
			} else {
				skipped.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	summary.Processed = len(ids)
	summary.Inserted = int(inserted.Load())
	summary.Skipped = int(skipped.Load())
	summary.Failed = int(failed.Load())

	s.logger.Info("score generation finished",
		"date", summary.Date.Format("2006-01-02"),
		"processed", summary.Processed,
		"inserted", summary.Inserted,
		"skipped", summary.Skipped,
		"failed", summary.Failed)

	if s.publisher != nil {
		event := events.NewScoresGeneratedEvent(summary.Date, summary.Processed, summary.Inserted, summary.Skipped, summary.Failed)
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish scores generated event", "error", err)
		}
	}

	return summary, nil
}

// AuthorizeView allows self access, HR admins, and managers over their
// reporting line.
func (s *Service) AuthorizeView(ctx context.Context, viewerID int64, viewerRole coreUser.Role, userID int64) error {
	if viewerID == userID || viewerRole == coreUser.RoleHRAdmin {
		return nil
	}
	if viewerRole == coreUser.RoleManager && s.hierarchy != nil {
		ok, err := s.hierarchy.IsReportOf(ctx, viewerID, userID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	s.logger.Warn("score access denied", "viewer_id", viewerID, "user_id", userID)
	return internal.ErrUnauthorizedAccess
}

func (s *Service) GetUserScores(ctx context.Context, userID int64, limit int) ([]*Score, error) {
	scores, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		s.logger.Error("failed to list scores", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to list scores", err)
	}
	return scores, nil
}

// LatestScore returns the most recent persisted score or nil.
func (s *Service) LatestScore(ctx context.Context, userID int64) (*Score, error) {
	return s.repo.LatestByUser(ctx, userID)
}

func (s *Service) Board(ctx context.Context, date time.Time) ([]BoardEntry, error) {
	if s.board == nil {
		return nil, internal.NewInternalError("score board is not configured", nil)
	}
	entries, err := s.board.Board(ctx, internal.DateOnly(date))
	if err != nil {
		s.logger.Error("failed to read score board", "date", date, "error", err)
		return nil, internal.NewInternalError("failed to read score board", err)
	}
	return entries, nil
}

func (s *Service) Now() time.Time {
	return s.now()
}
