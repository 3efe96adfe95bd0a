package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/frahmantamala/performance-tracker/internal/transport/middleware"
	"github.com/frahmantamala/performance-tracker/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMiddleware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Middleware Suite")
}

// records decodes every JSON log line written to buf.
func records(buf *bytes.Buffer) []map[string]interface{} {
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]interface{}
		Expect(json.Unmarshal([]byte(line), &rec)).To(Succeed())
		out = append(out, rec)
	}
	return out
}

func byMessage(recs []map[string]interface{}, msg string) map[string]interface{} {
	for _, r := range recs {
		if r["msg"] == msg {
			return r
		}
	}
	return nil
}

var _ = Describe("LoggingMiddleware", func() {
	var (
		buf     *bytes.Buffer
		slogger *slog.Logger
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		slogger = slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	})

	It("should redact credentials in the logged request body", func() {
		// Given
		handler := middleware.LoggingMiddleware(slogger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid credentials"}`))
		}))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"ana@mail.com","password":"hunter22"}`))
		req.Header.Set("Authorization", "Bearer abc")

		// When
		handler.ServeHTTP(httptest.NewRecorder(), req)

		// Then
		Expect(buf.String()).NotTo(ContainSubstring("hunter22"))
		Expect(buf.String()).NotTo(ContainSubstring("Bearer abc"))

		resp := byMessage(records(buf), "response")
		Expect(resp).NotTo(BeNil())
		Expect(resp["level"]).To(Equal("WARN"))
		Expect(resp["status_code"]).To(BeNumerically("==", http.StatusUnauthorized))
	})

	It("should log the response with fields added by inner handlers", func() {
		// Given
		handler := middleware.LoggingMiddleware(slogger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = logger.With(r.Context(), "user_id", 42)
			w.WriteHeader(http.StatusOK)
		}))

		// When
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/scores/me", nil))

		// Then
		Expect(byMessage(records(buf), "response")).To(HaveKeyWithValue("user_id", BeNumerically("==", 42)))
	})

	It("should keep health probes at debug level", func() {
		// Given
		slogger = slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
		handler := middleware.LoggingMiddleware(slogger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		// When
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

		// Then
		Expect(buf.Len()).To(BeZero())
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("should answer a panic with a JSON 500", func() {
		// Given
		slogger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
		handler := middleware.RequestID(middleware.RecoveryMiddleware(slogger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})))
		rec := httptest.NewRecorder()

		// When
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/1", nil))

		// Then
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Header().Get(middleware.RequestIDHeader)).NotTo(BeEmpty())
		Expect(rec.Body.String()).To(ContainSubstring("INTERNAL_ERROR"))
	})
})
