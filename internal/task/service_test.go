package task_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/frahmantamala/performance-tracker/internal"
	"github.com/frahmantamala/performance-tracker/internal/core/events"
	coreUser "github.com/frahmantamala/performance-tracker/internal/core/user"
	"github.com/frahmantamala/performance-tracker/internal/task"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTask(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Task Validation Suite")
}

// MockRepository implements task.Repository for testing
type MockRepository struct {
	mu         sync.Mutex
	tasks      map[int64]*task.Task
	history    []task.HistoryEntry
	applyCalls int
	shouldFail bool
	failError  error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{tasks: make(map[int64]*task.Task)}
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, internal.ErrTaskNotFound
	}
	return t, nil
}

func (m *MockRepository) ListByOwner(ctx context.Context, userID int64, limit int) ([]*task.Task, error) {
	var out []*task.Task
	for _, t := range m.tasks {
		if t.AssigneeID != nil && *t.AssigneeID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MockRepository) ApplyValidation(ctx context.Context, change task.ValidationChange) (*task.ValidationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyCalls++
	if m.shouldFail {
		return nil, m.failError
	}
	t, ok := m.tasks[change.TaskID]
	if !ok {
		return nil, internal.ErrTaskNotFound
	}
	old := t.CurrentPercentage()
	pct := change.NewPercentage
	t.ManagerValidatedPercentage = &pct
	m.history = append(m.history, task.HistoryEntry{
		TaskID:            change.TaskID,
		OldPercentage:     old,
		NewPercentage:     pct,
		ValidationComment: change.Comment,
		ValidatedBy:       change.ValidatorID,
	})
	return &task.ValidationResult{TaskID: change.TaskID, OldPercentage: old, NewPercentage: pct}, nil
}

func (m *MockRepository) ListHistory(ctx context.Context, taskID int64) ([]task.HistoryEntry, error) {
	var out []task.HistoryEntry
	for _, h := range m.history {
		if h.TaskID == taskID {
			out = append(out, h)
		}
	}
	return out, nil
}

type capturePublisher struct {
	events []events.Event
}

func (c *capturePublisher) Publish(ctx context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return nil
}

func pct(v float64) *float64 { return &v }

var _ = Describe("Task Validation Service", func() {
	var (
		repo      *MockRepository
		publisher *capturePublisher
		service   *task.Service
		ctx       context.Context
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		ctx = context.Background()
		repo = NewMockRepository()
		publisher = &capturePublisher{}
		service = task.NewService(repo, repo, publisher, slogger)

		repo.tasks[7] = &task.Task{ID: 7, Title: "Ship report", Status: "in_progress", ProgressPercentage: 45}
	})

	Describe("ValidateTask", func() {
		It("should record the reported progress as the old value on first validation", func() {
			// Given
			dto := task.ValidateTaskDTO{NewPercentage: pct(60), ValidationComment: "Reviewed the deliverables"}

			// When
			result, err := service.ValidateTask(ctx, 7, dto, 3, coreUser.RoleManager)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(&task.ValidationResult{TaskID: 7, OldPercentage: 45, NewPercentage: 60}))
			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.events[0].EventType()).To(Equal(events.TaskValidatedEventType))
		})

		It("should chain old values across repeated validations", func() {
			values := []float64{50, 50, 80, 20}
			for _, v := range values {
				_, err := service.ValidateTask(ctx, 7, task.ValidateTaskDTO{NewPercentage: pct(v), ValidationComment: "Checked against demo"}, 3, coreUser.RoleHRAdmin)
				Expect(err).NotTo(HaveOccurred())
			}

			history, err := service.GetHistory(ctx, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(len(values)))
			Expect(history[0].OldPercentage).To(Equal(45))
			for i := 1; i < len(history); i++ {
				Expect(history[i].OldPercentage).To(Equal(history[i-1].NewPercentage))
			}
		})

		It("should reject a comment shorter than ten characters without touching the task", func() {
			// Given nine characters after trimming
			dto := task.ValidateTaskDTO{NewPercentage: pct(60), ValidationComment: "  123456789  "}

			// When
			_, err := service.ValidateTask(ctx, 7, dto, 3, coreUser.RoleManager)

			// Then
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeCommentTooShort))
			Expect(repo.applyCalls).To(BeZero())
			Expect(repo.tasks[7].ManagerValidatedPercentage).To(BeNil())
		})

		DescribeTable("rejecting invalid percentages",
			func(value *float64) {
				_, err := service.ValidateTask(ctx, 7, task.ValidateTaskDTO{NewPercentage: value, ValidationComment: "A proper comment"}, 3, coreUser.RoleManager)

				Expect(err).To(HaveOccurred())
				Expect(repo.applyCalls).To(BeZero())
			},
			Entry("missing", nil),
			Entry("negative", pct(-1)),
			Entry("above 100", pct(101)),
			Entry("fractional", pct(55.5)),
		)

		It("should accept the bounds", func() {
			_, err := service.ValidateTask(ctx, 7, task.ValidateTaskDTO{NewPercentage: pct(0), ValidationComment: "Nothing delivered yet"}, 3, coreUser.RoleManager)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.ValidateTask(ctx, 7, task.ValidateTaskDTO{NewPercentage: pct(100), ValidationComment: "Everything delivered"}, 3, coreUser.RoleManager)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should forbid employees", func() {
			_, err := service.ValidateTask(ctx, 7, task.ValidateTaskDTO{NewPercentage: pct(60), ValidationComment: "I think it is fine"}, 5, coreUser.RoleEmployee)

			Expect(errors.Is(err, internal.ErrUnauthorizedAccess)).To(BeTrue())
			Expect(repo.applyCalls).To(BeZero())
		})

		It("should return not found for an unknown task", func() {
			_, err := service.ValidateTask(ctx, 99, task.ValidateTaskDTO{NewPercentage: pct(60), ValidationComment: "Reviewed in standup"}, 3, coreUser.RoleManager)

			Expect(errors.Is(err, internal.ErrTaskNotFound)).To(BeTrue())
			Expect(publisher.events).To(BeEmpty())
		})

		It("should wrap repository failures", func() {
			repo.shouldFail = true
			repo.failError = errors.New("deadlock detected")

			_, err := service.ValidateTask(ctx, 7, task.ValidateTaskDTO{NewPercentage: pct(60), ValidationComment: "Reviewed in standup"}, 3, coreUser.RoleManager)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(500))
			Expect(publisher.events).To(BeEmpty())
		})
	})

	Describe("GetHistory", func() {
		It("should return not found for an unknown task", func() {
			_, err := service.GetHistory(ctx, 99)

			Expect(errors.Is(err, internal.ErrTaskNotFound)).To(BeTrue())
		})
	})
})
