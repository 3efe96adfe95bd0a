package projectsync_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/frahmantamala/performance-tracker/internal/core/events"
	"github.com/frahmantamala/performance-tracker/internal/ingest"
	"github.com/frahmantamala/performance-tracker/internal/projectsync"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeAPI struct {
	projects []projectsync.APIProject
	tasks    map[string][]projectsync.APITask
	logs     []projectsync.APITimeLog
	taskErr  error
	mu       sync.Mutex
	since    time.Time
}

func (f *fakeAPI) ListProjects(ctx context.Context) ([]projectsync.APIProject, error) {
	return f.projects, nil
}

func (f *fakeAPI) ListTasks(ctx context.Context, projectID string) ([]projectsync.APITask, error) {
	if f.taskErr != nil {
		return nil, f.taskErr
	}
	return f.tasks[projectID], nil
}

func (f *fakeAPI) ListTimeLogs(ctx context.Context, since time.Time) ([]projectsync.APITimeLog, error) {
	f.mu.Lock()
	f.since = since
	f.mu.Unlock()
	return f.logs, nil
}

type recordingApplier struct {
	batch  ingest.Batch
	called bool
}

func (r *recordingApplier) Apply(ctx context.Context, batch ingest.Batch) (*ingest.Result, error) {
	r.batch = batch
	r.called = true
	return &ingest.Result{
		Projects: len(batch.Projects),
		Tasks:    len(batch.Tasks),
		TimeLogs: len(batch.TimeLogs),
	}, nil
}

type capturePublisher struct {
	events []events.Event
}

func (c *capturePublisher) Publish(ctx context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return nil
}

var _ = Describe("Syncer", func() {
	var (
		api       *fakeAPI
		applier   *recordingApplier
		publisher *capturePublisher
		syncer    *projectsync.Syncer
	)

	BeforeEach(func() {
		share := 100
		api = &fakeAPI{
			projects: []projectsync.APIProject{{ID: "p-1", Name: "Apollo"}, {ID: "p-2", Name: "Gemini"}},
			tasks: map[string][]projectsync.APITask{
				"p-1": {{ID: "t-1", Title: "Design", Owners: []projectsync.APIOwner{{Email: "a@example.com", SharePercentage: &share}}}},
				"p-2": {{ID: "t-2", Title: "Build"}, {ID: "t-3", Title: "Ship"}},
			},
			logs: []projectsync.APITimeLog{{ID: "l-1", TaskID: "t-1", UserEmail: "a@example.com", Minutes: 30}},
		}
		applier = &recordingApplier{}
		publisher = &capturePublisher{}
		syncer = projectsync.NewSyncer(api, applier, publisher, 7, testLogger)
	})

	It("should store projects, tasks and logs as one batch", func() {
		// When
		result, err := syncer.Sync(context.Background())

		// Then
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Projects).To(Equal(2))
		Expect(result.Tasks).To(Equal(3))
		Expect(result.TimeLogs).To(Equal(1))

		Expect(applier.batch.Tasks[0].ProjectExternalID).To(Equal("p-1"))
		Expect(*applier.batch.Tasks[0].Owners[0].SharePercentage).To(Equal(100))
		Expect(applier.batch.Tasks[2].ExternalID).To(Equal("t-3"))
		Expect(applier.batch.TimeLogs[0].TaskExternalID).To(Equal("t-1"))
		Expect(time.Since(api.since)).To(BeNumerically("~", 7*24*time.Hour, time.Minute))
	})

	It("should publish a completion event with the counts", func() {
		// When
		_, err := syncer.Sync(context.Background())

		// Then
		Expect(err).NotTo(HaveOccurred())
		Expect(publisher.events).To(HaveLen(1))
		Expect(publisher.events[0].EventType()).To(Equal(events.ProjectSyncCompletedType))
		data := publisher.events[0].Payload().(map[string]interface{})
		Expect(data["tasks"]).To(Equal(3))
	})

	It("should store nothing when a task read fails", func() {
		// Given
		api.taskErr = errors.New("boom")

		// When
		_, err := syncer.Sync(context.Background())

		// Then
		Expect(err).To(MatchError(ContainSubstring("boom")))
		Expect(applier.called).To(BeFalse())
		Expect(publisher.events).To(BeEmpty())
	})
})
