package rest_test

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/performance-tracker/internal/scheduler"
	"github.com/frahmantamala/performance-tracker/internal/transport/rest"
	"github.com/go-chi/chi"
	_ "github.com/mattn/go-sqlite3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type staticJobs []scheduler.JobStats

func (s staticJobs) Stats() []scheduler.JobStats {
	return s
}

var _ = Describe("Health", func() {
	var (
		db      *sql.DB
		slogger *slog.Logger
	)

	BeforeEach(func() {
		var err error
		db, err = sql.Open("sqlite3", ":memory:")
		Expect(err).NotTo(HaveOccurred())
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	})

	AfterEach(func() {
		_ = db.Close()
	})

	check := func(jobs rest.JobReporter) (*httptest.ResponseRecorder, rest.HealthResponse) {
		router := chi.NewRouter()
		rest.RegisterAllRoutes(router, db, rest.Handlers{}, rest.RouterConfig{Jobs: jobs}, slogger)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

		var resp rest.HealthResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		return rec, resp
	}

	It("should report healthy when the database answers", func() {
		// When
		rec, resp := check(nil)

		// Then
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(resp.Status).To(Equal(rest.HealthHealthy))
		Expect(resp.Components).To(HaveKey("postgres"))
		Expect(resp.Components).NotTo(HaveKey("scheduler"))
	})

	It("should degrade without failing when a job has failures", func() {
		// Given
		jobs := staticJobs{
			{Name: "generate_scores", Spec: "0 1 * * *", Runs: 3},
			{Name: "project_sync", Spec: "*/30 * * * *", Runs: 5, Failures: 2},
		}

		// When
		rec, resp := check(jobs)

		// Then
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(resp.Status).To(Equal(rest.HealthDegraded))
		Expect(resp.Components["scheduler"].Message).To(ContainSubstring("project_sync"))
		Expect(resp.Components["scheduler"].Details).To(HaveLen(2))
	})

	It("should be unhealthy when the database is closed", func() {
		// Given
		Expect(db.Close()).To(Succeed())

		// When
		rec, resp := check(nil)

		// Then
		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(resp.Status).To(Equal(rest.HealthUnhealthy))
		Expect(resp.Components["postgres"].Message).NotTo(BeEmpty())
	})
})
