package rest

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/performance-tracker/internal"
	"github.com/frahmantamala/performance-tracker/internal/scheduler"
	"github.com/frahmantamala/performance-tracker/internal/transport"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
	DurationMs int64          `json:"duration_ms"`
}

// JobReporter exposes the scheduler's per-job counters.
type JobReporter interface {
	Stats() []scheduler.JobStats
}

type HealthHandler struct {
	*transport.BaseHandler
	db   *sql.DB
	jobs JobReporter
}

func NewHealthHandler(db *sql.DB, jobs JobReporter, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		BaseHandler: transport.NewBaseHandler(logger),
		db:          db,
		jobs:        jobs,
	}
}

// pingHandler is the liveness probe.
func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// healthCheckHandler is the readiness probe. A failing database makes the
// service unhealthy; failed jobs only degrade it.
func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	components := map[string]CheckEntry{"postgres": h.checkDatabase(r)}
	if h.jobs != nil {
		components["scheduler"] = h.checkJobs()
	}

	status := HealthHealthy
	for _, c := range components {
		if c.Status == HealthUnhealthy {
			status = HealthUnhealthy
			break
		}
		if c.Status == HealthDegraded {
			status = HealthDegraded
		}
	}

	statusCode := http.StatusOK
	if status == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	h.WriteJSON(w, statusCode, HealthResponse{
		Status:     status,
		CheckedAt:  time.Now(),
		Components: components,
	})
}

func (h *HealthHandler) checkDatabase(r *http.Request) CheckEntry {
	ctx, cancel := internal.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.PingContext(ctx)

	entry := CheckEntry{
		Status:     HealthHealthy,
		CheckedAt:  time.Now(),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Status = HealthUnhealthy
		entry.Message = err.Error()
	}
	return entry
}

func (h *HealthHandler) checkJobs() CheckEntry {
	entry := CheckEntry{
		Status:    HealthHealthy,
		CheckedAt: time.Now(),
		Details:   make(map[string]any),
	}

	var failing []string
	for _, s := range h.jobs.Stats() {
		entry.Details[s.Name] = s
		if s.Failures > 0 {
			failing = append(failing, s.Name)
		}
	}
	if len(failing) > 0 {
		entry.Status = HealthDegraded
		entry.Message = fmt.Sprintf("jobs with failures: %v", failing)
	}
	return entry
}
