package scoring_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/frahmantamala/performance-tracker/internal/auth"
	coreUser "github.com/frahmantamala/performance-tracker/internal/core/user"
	"github.com/frahmantamala/performance-tracker/internal/scoring"
	"github.com/frahmantamala/performance-tracker/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubTrigger struct {
	started bool
	calls   []string
}

func (s *stubTrigger) Trigger(name string) (bool, error) {
	s.calls = append(s.calls, name)
	return s.started, nil
}

func requestAs(user *auth.User, method, target string, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if user != nil {
		ctx = auth.ContextWithUser(ctx, user)
	}
	return req.WithContext(ctx)
}

var _ = Describe("Scoring Handler", func() {
	var (
		repo    *MockRepository
		trigger *stubTrigger
		handler *scoring.Handler
		today   time.Time
	)

	employee := &auth.User{ID: 1, Email: "emp@example.com", Role: coreUser.RoleEmployee}
	manager := &auth.User{ID: 10, Email: "mgr@example.com", Role: coreUser.RoleManager}

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		repo = NewMockRepository()
		trigger = &stubTrigger{started: true}
		today = time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC)

		service := scoring.NewService(repo, fixedWeights{weights: scoring.DefaultWeights()}, nil, slogger,
			scoring.WithClock(func() time.Time { return today }),
			scoring.WithHierarchy(staticHierarchy{10: {1}}),
		)
		handler = scoring.NewHandler(&transport.BaseHandler{Logger: slogger}, service, trigger)

		_, err := repo.InsertIfAbsent(context.Background(), &scoring.Score{
			UserID:     1,
			Date:       time.Date(2026, 5, 19, 0, 0, 0, 0, time.UTC),
			ScoreValue: 81.5,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("should return the caller's own scores", func() {
		w := httptest.NewRecorder()

		handler.GetMyScores(w, requestAs(employee, http.MethodGet, "/scores/me", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		var body struct {
			Scores []scoring.ScoreResponse `json:"scores"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.Scores).To(HaveLen(1))
		Expect(body.Scores[0].Date).To(Equal("2026-05-19"))
		Expect(body.Scores[0].ScoreValue).To(Equal(81.5))
	})

	It("should reject unauthenticated requests", func() {
		w := httptest.NewRecorder()

		handler.GetMyScores(w, requestAs(nil, http.MethodGet, "/scores/me", nil))

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("should let a manager read a report's scores", func() {
		w := httptest.NewRecorder()

		handler.GetUserScores(w, requestAs(manager, http.MethodGet, "/users/1/scores", map[string]string{"id": "1"}))

		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("should forbid an employee reading someone else", func() {
		w := httptest.NewRecorder()

		handler.GetUserScores(w, requestAs(employee, http.MethodGet, "/users/2/scores", map[string]string{"id": "2"}))

		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("should reject a malformed user id", func() {
		w := httptest.NewRecorder()

		handler.GetUserScores(w, requestAs(manager, http.MethodGet, "/users/abc/scores", map[string]string{"id": "abc"}))

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should preview a score for a given date without storing it", func() {
		w := httptest.NewRecorder()

		handler.PreviewUserScore(w, requestAs(employee, http.MethodGet, "/users/1/scores/preview?date=2026-05-01", map[string]string{"id": "1"}))

		Expect(w.Code).To(Equal(http.StatusOK))
		var body scoring.ScoreResponse
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.Date).To(Equal("2026-05-01"))
		Expect(body.ScoreValue).To(Equal(70.0))
		Expect(repo.scores).To(HaveLen(1))
	})

	It("should reject a malformed preview date", func() {
		w := httptest.NewRecorder()

		handler.PreviewUserScore(w, requestAs(employee, http.MethodGet, "/users/1/scores/preview?date=May-1", map[string]string{"id": "1"}))

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	Describe("TriggerGeneration", func() {
		It("should accept a trigger", func() {
			w := httptest.NewRecorder()

			handler.TriggerGeneration(w, requestAs(manager, http.MethodPost, "/scores/generate", nil))

			Expect(w.Code).To(Equal(http.StatusAccepted))
			Expect(trigger.calls).To(Equal([]string{scoring.GenerateScoresJob}))
		})

		It("should answer 409 when a run is in progress", func() {
			trigger.started = false
			w := httptest.NewRecorder()

			handler.TriggerGeneration(w, requestAs(manager, http.MethodPost, "/scores/generate", nil))

			Expect(w.Code).To(Equal(http.StatusConflict))
			Expect(w.Body.String()).To(ContainSubstring("JOB_ALREADY_RUNNING"))
		})
	})
})
