package project_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	projectDatamodel "github.com/frahmantamala/performance-tracker/internal/core/datamodel/project"
	taskDatamodel "github.com/frahmantamala/performance-tracker/internal/core/datamodel/task"
	coreTask "github.com/frahmantamala/performance-tracker/internal/core/task"
	"github.com/frahmantamala/performance-tracker/internal/project"
	projectPostgres "github.com/frahmantamala/performance-tracker/internal/project/postgres"
	"github.com/frahmantamala/performance-tracker/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Project Handler Integration", func() {
	var (
		db      *gorm.DB
		repo    *projectPostgres.ProjectRepository
		service *project.Service
		handler *project.Handler
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&projectDatamodel.Project{}, &taskDatamodel.Task{})).To(Succeed())

		repo = projectPostgres.NewProjectRepository(db)
		service = project.NewService(repo, slogger)
		handler = project.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		apolloID, err := service.UpsertByExternalID(ctx, "p-apollo", "Apollo")
		Expect(err).NotTo(HaveOccurred())
		_, err = service.UpsertByExternalID(ctx, "p-gemini", "Gemini")
		Expect(err).NotTo(HaveOccurred())
		archived, err := service.UpsertByExternalID(ctx, "p-old", "Archived")
		Expect(err).NotTo(HaveOccurred())
		Expect(db.Model(&projectDatamodel.Project{}).Where("id = ?", archived).Update("is_active", false).Error).To(Succeed())

		for i, status := range []string{coreTask.StatusCompleted, coreTask.StatusDoneLegacy, coreTask.StatusTodo, coreTask.StatusInProgress} {
			Expect(db.Create(&taskDatamodel.Task{
				ExternalID: "t-" + string(rune('a'+i)),
				ProjectID:  apolloID,
				Title:      "task",
				Status:     status,
				Priority:   coreTask.PriorityMedium,
			}).Error).To(Succeed())
		}
	})

	It("should list active projects with task counts", func() {
		// Given
		req := httptest.NewRequest(http.MethodGet, "/projects", nil)
		w := httptest.NewRecorder()

		// When
		handler.GetProjects(w, req)

		// Then
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

		var response project.ProjectsResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.Projects).To(HaveLen(2))
		Expect(response.Projects[0].Name).To(Equal("Apollo"))
		Expect(response.Projects[0].TaskCount).To(Equal(int64(4)))
		Expect(response.Projects[0].CompletedCount).To(Equal(int64(2)))
		Expect(response.Projects[0].CompletionRate).To(BeNumerically("~", 50, 0.001))
		Expect(response.Projects[1].Name).To(Equal("Gemini"))
		Expect(response.Projects[1].TaskCount).To(BeZero())
	})

	It("should keep one row per external id and refresh the name", func() {
		// Given
		before, err := repo.GetByExternalID(ctx, "p-gemini")
		Expect(err).NotTo(HaveOccurred())

		// When
		id, err := service.UpsertByExternalID(ctx, "p-gemini", "Gemini II")

		// Then
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(before.ID))

		after, err := repo.GetByExternalID(ctx, "p-gemini")
		Expect(err).NotTo(HaveOccurred())
		Expect(after.Name).To(Equal("Gemini II"))

		var count int64
		db.Model(&projectDatamodel.Project{}).Where("external_id = ?", "p-gemini").Count(&count)
		Expect(count).To(Equal(int64(1)))
	})

	It("should reject a blank external id", func() {
		_, err := service.UpsertByExternalID(ctx, "  ", "Nameless")
		Expect(err).To(HaveOccurred())
	})

	It("should return nil for an unknown external id", func() {
		p, err := repo.GetByExternalID(ctx, "missing")
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeNil())
	})
})
