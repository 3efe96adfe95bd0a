package task_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/frahmantamala/performance-tracker/internal/auth"
	coreUser "github.com/frahmantamala/performance-tracker/internal/core/user"
	"github.com/frahmantamala/performance-tracker/internal/task"
	"github.com/frahmantamala/performance-tracker/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Task Handler", func() {
	var (
		repo    *MockRepository
		handler *task.Handler
		router  chi.Router
		caller  *auth.User
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		repo = NewMockRepository()
		repo.tasks[7] = &task.Task{ID: 7, Title: "Ship report", Status: "in_progress", ProgressPercentage: 45}
		service := task.NewService(repo, repo, nil, slogger)
		handler = task.NewHandler(&transport.BaseHandler{Logger: slogger}, service)
		caller = &auth.User{ID: 3, Email: "mgr@example.com", Role: coreUser.RoleManager}

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), caller)))
			})
		})
		router.Post("/tasks/{id}/validate", handler.ValidateTask)
		router.Get("/tasks/{id}/validation-history", handler.GetValidationHistory)
		router.Get("/tasks/{id}", handler.GetTask)
	})

	validate := func(id, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/tasks/"+id+"/validate", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("should validate and return the applied transition", func() {
		w := validate("7", `{"newPercentage": 70, "validationComment": "Matches the sprint demo"}`)

		Expect(w.Code).To(Equal(http.StatusOK))
		var result task.ValidationResult
		Expect(json.NewDecoder(w.Body).Decode(&result)).To(Succeed())
		Expect(result).To(Equal(task.ValidationResult{TaskID: 7, OldPercentage: 45, NewPercentage: 70}))
	})

	It("should explain a short comment", func() {
		w := validate("7", `{"newPercentage": 70, "validationComment": "too short"}`)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("COMMENT_TOO_SHORT"))
		Expect(w.Body.String()).To(ContainSubstring("validationComment"))
	})

	It("should reject unknown fields", func() {
		w := validate("7", `{"newPercentage": 70, "validationComment": "Matches the sprint demo", "force": true}`)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should return 403 for employees", func() {
		caller = &auth.User{ID: 5, Role: coreUser.RoleEmployee}

		w := validate("7", `{"newPercentage": 70, "validationComment": "Matches the sprint demo"}`)

		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("should return 404 for unknown tasks", func() {
		w := validate("404", `{"newPercentage": 70, "validationComment": "Matches the sprint demo"}`)

		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Body.String()).To(ContainSubstring("TASK_NOT_FOUND"))
	})

	It("should list history after validations", func() {
		_ = validate("7", `{"newPercentage": 70, "validationComment": "Matches the sprint demo"}`)
		_ = validate("7", `{"newPercentage": 75, "validationComment": "Follow-up review done"}`)

		req := httptest.NewRequest(http.MethodGet, "/tasks/7/validation-history", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var body task.HistoryResponse
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.History).To(HaveLen(2))
		Expect(body.History[1].OldPercentage).To(Equal(70))
	})

	It("should return an empty history array", func() {
		_, err := repo.GetByID(context.Background(), 7)
		Expect(err).NotTo(HaveOccurred())

		req := httptest.NewRequest(http.MethodGet, "/tasks/7/validation-history", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Body.String()).To(ContainSubstring(`"history":[]`))
	})
})
