package scoring_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/frahmantamala/performance-tracker/internal"
	"github.com/frahmantamala/performance-tracker/internal/core/events"
	coreUser "github.com/frahmantamala/performance-tracker/internal/core/user"
	"github.com/frahmantamala/performance-tracker/internal/scoring"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestScoring(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Scoring Suite")
}

type scoreKey struct {
	userID int64
	date   string
}

// MockRepository implements scoring.Repository for testing
type MockRepository struct {
	mu        sync.Mutex
	tasks     map[int64][]scoring.OwnedTask
	minutes   map[int64]int64
	scores    map[scoreKey]*scoring.Score
	employees []int64
	failFor   map[int64]error
	listError error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		tasks:   make(map[int64][]scoring.OwnedTask),
		minutes: make(map[int64]int64),
		scores:  make(map[scoreKey]*scoring.Score),
		failFor: make(map[int64]error),
	}
}

func (m *MockRepository) ListOwnedTasks(ctx context.Context, userID int64, start, end time.Time) ([]scoring.OwnedTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFor[userID]; err != nil {
		return nil, err
	}
	return m.tasks[userID], nil
}

func (m *MockRepository) SumLoggedMinutes(ctx context.Context, userID int64, start, end time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.minutes[userID], nil
}

func (m *MockRepository) InsertIfAbsent(ctx context.Context, score *scoring.Score) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := scoreKey{score.UserID, score.Date.Format("2006-01-02")}
	if _, exists := m.scores[key]; exists {
		return false, nil
	}
	score.ID = int64(len(m.scores) + 1)
	m.scores[key] = score
	return true, nil
}

func (m *MockRepository) ListEmployeeIDs(ctx context.Context) ([]int64, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	return m.employees, nil
}

func (m *MockRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*scoring.Score, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*scoring.Score
	for k, s := range m.scores {
		if k.userID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MockRepository) LatestByUser(ctx context.Context, userID int64) (*scoring.Score, error) {
	scores, _ := m.ListByUser(ctx, userID, 1)
	if len(scores) == 0 {
		return nil, nil
	}
	return scores[0], nil
}

type fixedWeights struct {
	weights scoring.Weights
	err     error
}

func (f fixedWeights) GetScoringWeights(ctx context.Context) (scoring.Weights, error) {
	return f.weights, f.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type staticHierarchy map[int64][]int64

func (h staticHierarchy) IsReportOf(ctx context.Context, managerID, userID int64) (bool, error) {
	for _, id := range h[managerID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

var _ = Describe("Scoring Service", func() {
	var (
		repo      *MockRepository
		publisher *recordingPublisher
		service   *scoring.Service
		slogger   *slog.Logger
		today     time.Time
	)

	BeforeEach(func() {
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		repo = NewMockRepository()
		publisher = &recordingPublisher{}
		today = time.Date(2026, 5, 20, 2, 0, 0, 0, time.UTC)
		service = scoring.NewService(repo, fixedWeights{weights: scoring.DefaultWeights()}, publisher, slogger,
			scoring.WithClock(func() time.Time { return today }),
			scoring.WithWorkers(3),
			scoring.WithHierarchy(staticHierarchy{10: {1, 2}}),
		)
	})

	Describe("CalculateUserScore", func() {
		It("should score a user without tasks at the fallback", func() {
			result, err := service.CalculateUserScore(context.Background(), 1, today)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.ScoreValue).To(Equal(70.0))
			Expect(result.Date).To(Equal(time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)))
		})

		It("should use the stored weights", func() {
			// Given only task completion counts
			service = scoring.NewService(repo, fixedWeights{weights: scoring.Weights{TaskCompletion: 100}}, publisher, slogger)
			repo.tasks[1] = []scoring.OwnedTask{{Status: "completed", ShareWeight: 1}}

			// When
			result, err := service.CalculateUserScore(context.Background(), 1, today)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ScoreValue).To(Equal(100.0))
			Expect(result.Components.Weights.TaskCompletion).To(Equal(1.0))
		})

		It("should surface a weights lookup failure", func() {
			service = scoring.NewService(repo, fixedWeights{err: errors.New("db down")}, publisher, slogger)

			_, err := service.CalculateUserScore(context.Background(), 1, today)

			Expect(err).To(MatchError(ContainSubstring("db down")))
		})
	})

	Describe("GenerateAllScores", func() {
		BeforeEach(func() {
			repo.employees = []int64{1, 2, 3, 4}
		})

		It("should insert one score per employee and publish a summary", func() {
			summary, err := service.GenerateAllScores(context.Background())

			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Processed).To(Equal(4))
			Expect(summary.Inserted).To(Equal(4))
			Expect(summary.Skipped).To(Equal(0))
			Expect(repo.scores).To(HaveLen(4))

			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.events[0].EventType()).To(Equal(events.ScoresGeneratedEventType))
		})

		It("should keep going when one user fails", func() {
			// Given
			repo.failFor[2] = errors.New("boom")

			// When
			summary, err := service.GenerateAllScores(context.Background())

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Failed).To(Equal(1))
			Expect(summary.Inserted).To(Equal(3))
			Expect(repo.scores).NotTo(HaveKey(scoreKey{2, "2026-05-20"}))
		})

		It("should skip users already scored today", func() {
			// Given a first run
			_, err := service.GenerateAllScores(context.Background())
			Expect(err).NotTo(HaveOccurred())
			first := repo.scores[scoreKey{1, "2026-05-20"}]

			// When the job runs again the same day
			summary, err := service.GenerateAllScores(context.Background())

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Inserted).To(Equal(0))
			Expect(summary.Skipped).To(Equal(4))
			Expect(repo.scores[scoreKey{1, "2026-05-20"}]).To(BeIdenticalTo(first))
		})

		It("should return an error when employees cannot be listed", func() {
			repo.listError = errors.New("no connection")

			_, err := service.GenerateAllScores(context.Background())

			Expect(err).To(HaveOccurred())
			Expect(publisher.events).To(BeEmpty())
		})
	})

	Describe("AuthorizeView", func() {
		It("should let users view themselves", func() {
			Expect(service.AuthorizeView(context.Background(), 3, coreUser.RoleEmployee, 3)).To(Succeed())
		})

		It("should let HR admins view anyone", func() {
			Expect(service.AuthorizeView(context.Background(), 99, coreUser.RoleHRAdmin, 3)).To(Succeed())
		})

		It("should let managers view their reports only", func() {
			Expect(service.AuthorizeView(context.Background(), 10, coreUser.RoleManager, 2)).To(Succeed())

			err := service.AuthorizeView(context.Background(), 10, coreUser.RoleManager, 3)
			Expect(errors.Is(err, internal.ErrUnauthorizedAccess)).To(BeTrue())
		})

		It("should deny employees viewing others", func() {
			err := service.AuthorizeView(context.Background(), 1, coreUser.RoleEmployee, 2)

			Expect(errors.Is(err, internal.ErrUnauthorizedAccess)).To(BeTrue())
		})
	})
})
