// Package importer loads tasks and logged time from a spreadsheet-shaped
// source into the same store the project sync writes to.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/performance-tracker/internal/core/events"
	"github.com/frahmantamala/performance-tracker/internal/ingest"
	"github.com/frahmantamala/performance-tracker/internal/ownership"
)

const (
	ColProject        = "project"
	ColTaskKey        = "task_key"
	ColTitle          = "title"
	ColAssigneeEmail  = "assignee_email"
	ColOwnerEmails    = "owner_emails"
	ColStatus         = "status"
	ColPriority       = "priority"
	ColProgress       = "progress"
	ColEstimatedHours = "estimated_hours"
	ColDueDate        = "due_date"
	ColCompletedAt    = "completed_at"
	ColLoggedMinutes  = "logged_minutes"
	ColLoggedAt       = "logged_at"
)

var requiredColumns = []string{ColProject, ColTaskKey, ColTitle}

type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type Report struct {
	Source    string         `json:"source"`
	Rows      int            `json:"rows"`
	RowErrors []RowError     `json:"row_errors,omitempty"`
	Result    *ingest.Result `json:"result"`
}

type Applier interface {
	Apply(ctx context.Context, batch ingest.Batch) (*ingest.Result, error)
}

type Importer struct {
	ingest    Applier
	publisher events.Publisher
	logger    *slog.Logger
}

func NewImporter(applier Applier, publisher events.Publisher, logger *slog.Logger) *Importer {
	return &Importer{
		ingest:    applier,
		publisher: publisher,
		logger:    logger,
	}
}

func (im *Importer) Import(ctx context.Context, source RowSource) (*Report, error) {
	rows, err := source.Rows(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Source: source.Name()}
	if len(rows) == 0 {
		return nil, fmt.Errorf("source %s has no header row", source.Name())
	}

	header, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	batch, rowErrors := buildBatch(header, rows[1:])
	report.Rows = len(rows) - 1
	report.RowErrors = rowErrors

	result, err := im.ingest.Apply(ctx, batch)
	if err != nil {
		im.logger.Error("failed to store imported rows", "source", report.Source, "error", err)
		return report, fmt.Errorf("store imported rows: %w", err)
	}
	report.Result = result

	for _, rowErr := range rowErrors {
		im.logger.Warn("import row rejected", "source", report.Source, "row", rowErr.Row, "reason", rowErr.Reason)
	}

	event := events.NewImportCompletedEvent(events.SpreadsheetImportCompletedType, report.Source,
		result.Projects, result.Tasks, result.TimeLogs, result.Skipped+len(rowErrors))
	if err := im.publisher.Publish(ctx, event); err != nil {
		im.logger.Warn("failed to publish import event", "error", err)
	}

	im.logger.Info("spreadsheet import completed",
		"source", report.Source,
		"rows", report.Rows,
		"row_errors", len(rowErrors),
		"tasks", result.Tasks,
		"time_logs", result.TimeLogs)

	return report, nil
}

type header map[string]int

func mapHeader(row []string) (header, error) {
	h := make(header, len(row))
	for i, name := range row {
		key := strings.ToLower(strings.TrimSpace(name))
		key = strings.ReplaceAll(key, " ", "_")
		if key == "" {
			continue
		}
		if _, dup := h[key]; !dup {
			h[key] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := h[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return h, nil
}

func (h header) get(row []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// buildBatch turns data rows into ingest records. Row numbers are 1-based
// and count the header row, matching what a spreadsheet shows.
func buildBatch(h header, rows [][]string) (ingest.Batch, []RowError) {
	var (
		batch     ingest.Batch
		rowErrors []RowError
	)
	projectSeen := make(map[string]struct{})
	taskIndex := make(map[string]int)

	for i, row := range rows {
		rowNum := i + 2
		if blank(row) {
			continue
		}

		task, logs, err := parseRow(h, row)
		if err != nil {
			rowErrors = append(rowErrors, RowError{Row: rowNum, Reason: err.Error()})
			continue
		}

		if _, ok := projectSeen[task.ProjectExternalID]; !ok {
			projectSeen[task.ProjectExternalID] = struct{}{}
			batch.Projects = append(batch.Projects, ingest.ProjectRecord{
				ExternalID: task.ProjectExternalID,
				Name:       h.get(row, ColProject),
			})
		}

		// Later rows for the same task key win.
		if idx, ok := taskIndex[task.ExternalID]; ok {
			batch.Tasks[idx] = task
		} else {
			taskIndex[task.ExternalID] = len(batch.Tasks)
			batch.Tasks = append(batch.Tasks, task)
		}
		batch.TimeLogs = append(batch.TimeLogs, logs...)
	}
	return batch, rowErrors
}

func parseRow(h header, row []string) (ingest.TaskRecord, []ingest.TimeLogRecord, error) {
	projectName := h.get(row, ColProject)
	taskKey := h.get(row, ColTaskKey)
	title := h.get(row, ColTitle)
	switch {
	case projectName == "":
		return ingest.TaskRecord{}, nil, fmt.Errorf("%s is required", ColProject)
	case taskKey == "":
		return ingest.TaskRecord{}, nil, fmt.Errorf("%s is required", ColTaskKey)
	case title == "":
		return ingest.TaskRecord{}, nil, fmt.Errorf("%s is required", ColTitle)
	}

	task := ingest.TaskRecord{
		ExternalID:        "import:" + taskKey,
		ProjectExternalID: "import:" + strings.ToLower(projectName),
		Title:             title,
		AssigneeEmail:     strings.ToLower(h.get(row, ColAssigneeEmail)),
		Status:            h.get(row, ColStatus),
		Priority:          h.get(row, ColPriority),
	}

	owners := splitEmails(h.get(row, ColOwnerEmails))
	for _, email := range owners {
		task.Owners = append(task.Owners, ingest.OwnerRecord{Email: email})
	}

	var err error
	if task.Progress, err = parseInt(h.get(row, ColProgress), ColProgress); err != nil {
		return task, nil, err
	}
	if raw := h.get(row, ColEstimatedHours); raw != "" {
		if task.EstimatedHours, err = strconv.ParseFloat(raw, 64); err != nil {
			return task, nil, fmt.Errorf("%s %q is not a number", ColEstimatedHours, raw)
		}
	}
	if task.DueDate, err = parseDate(h.get(row, ColDueDate), ColDueDate); err != nil {
		return task, nil, err
	}
	if task.CompletedAt, err = parseDate(h.get(row, ColCompletedAt), ColCompletedAt); err != nil {
		return task, nil, err
	}

	minutes, err := parseInt(h.get(row, ColLoggedMinutes), ColLoggedMinutes)
	if err != nil {
		return task, nil, err
	}
	if minutes == 0 {
		return task, nil, nil
	}
	if minutes < 0 {
		return task, nil, fmt.Errorf("%s must not be negative", ColLoggedMinutes)
	}

	loggedAt, err := parseDate(h.get(row, ColLoggedAt), ColLoggedAt)
	if err != nil {
		return task, nil, err
	}
	if loggedAt == nil {
		return task, nil, fmt.Errorf("%s is required when minutes are logged", ColLoggedAt)
	}

	loggers := owners
	if len(loggers) == 0 && task.AssigneeEmail != "" {
		loggers = []string{task.AssigneeEmail}
	}
	if len(loggers) == 0 {
		return task, nil, fmt.Errorf("logged minutes need an owner or assignee")
	}

	logs, err := apportionMinutes(taskKey, minutes, *loggedAt, loggers)
	if err != nil {
		return task, nil, err
	}
	return task, logs, nil
}

// apportionMinutes splits the row's minutes across its owners so that the
// per-owner logs add up to exactly the logged total.
func apportionMinutes(taskKey string, minutes int, loggedAt time.Time, emails []string) ([]ingest.TimeLogRecord, error) {
	positions := make([]int64, len(emails))
	for i := range emails {
		positions[i] = int64(i)
	}
	shares, err := ownership.Split(int64(minutes), positions)
	if err != nil {
		return nil, err
	}

	logs := make([]ingest.TimeLogRecord, 0, len(shares))
	for _, share := range shares {
		if share.Amount == 0 {
			continue
		}
		email := emails[share.OwnerID]
		logs = append(logs, ingest.TimeLogRecord{
			ExternalID:     fmt.Sprintf("import:%s:%s:%s", taskKey, loggedAt.UTC().Format(time.RFC3339), email),
			TaskExternalID: "import:" + taskKey,
			UserEmail:      email,
			Minutes:        int(share.Amount),
			LoggedAt:       loggedAt,
		})
	}
	return logs, nil
}

func splitEmails(raw string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ";") {
		email := strings.ToLower(strings.TrimSpace(part))
		if email == "" {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}

func parseInt(raw, col string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	raw = strings.TrimSuffix(raw, "%")
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == float64(int(f)) {
		return int(f), nil
	}
	return 0, fmt.Errorf("%s %q is not a whole number", col, raw)
}

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"}

func parseDate(raw, col string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s %q is not a date", col, raw)
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
