package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	coreTask "github.com/frahmantamala/performance-tracker/internal/core/task"
	"github.com/frahmantamala/performance-tracker/internal/ownership"
)

const (
	KindProject = "project"
	KindTask    = "task"
	KindTimeLog = "time_log"
)

type ProjectUpserter interface {
	UpsertByExternalID(ctx context.Context, externalID, name string) (int64, error)
}

type Store interface {
	// EnsureUser returns the user with this email, creating an EMPLOYEE on
	// first sight.
	EnsureUser(ctx context.Context, email, name string) (int64, error)
	// UpsertTask never touches the manager validation columns.
	UpsertTask(ctx context.Context, task *StoredTask) (int64, error)
	ReplaceOwners(ctx context.Context, taskID int64, shares []ownership.Share) error
	// TaskIDByExternalID returns 0 when the task is unknown.
	TaskIDByExternalID(ctx context.Context, externalID string) (int64, error)
	// InsertTimeLog reports false when the log already exists.
	InsertTimeLog(ctx context.Context, log *StoredTimeLog) (bool, error)
}

type Service struct {
	projects ProjectUpserter
	store    Store
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(projects ProjectUpserter, store Store, logger *slog.Logger) *Service {
	return &Service{
		projects: projects,
		store:    store,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Apply stores a batch. Malformed records are collected on the result and
// skipped; store failures abort the batch.
func (s *Service) Apply(ctx context.Context, batch Batch) (*Result, error) {
	result := &Result{}
	projectIDs := make(map[string]int64, len(batch.Projects))
	taskIDs := make(map[string]int64, len(batch.Tasks))
	userIDs := make(map[string]int64)

	for _, rec := range batch.Projects {
		if strings.TrimSpace(rec.ExternalID) == "" {
			result.reject(KindProject, rec.ExternalID, "external id is required")
			continue
		}
		id, err := s.projects.UpsertByExternalID(ctx, rec.ExternalID, rec.Name)
		if err != nil {
			return result, fmt.Errorf("upsert project %s: %w", rec.ExternalID, err)
		}
		projectIDs[rec.ExternalID] = id
		result.Projects++
	}

	user := func(email, name string) (int64, error) {
		key := normalizeEmail(email)
		if id, ok := userIDs[key]; ok {
			return id, nil
		}
		id, err := s.store.EnsureUser(ctx, key, name)
		if err != nil {
			return 0, fmt.Errorf("ensure user %s: %w", key, err)
		}
		userIDs[key] = id
		return id, nil
	}

	for _, rec := range batch.Tasks {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		projectID, ok := projectIDs[rec.ProjectExternalID]
		if !ok {
			result.reject(KindTask, rec.ExternalID, "unknown project "+rec.ProjectExternalID)
			continue
		}

		stored, reason := s.resolveTask(rec, projectID)
		if reason != "" {
			result.reject(KindTask, rec.ExternalID, reason)
			continue
		}

		ownerEmails, percentages, reason := resolveOwnerShares(rec.Owners)
		if reason != "" {
			result.reject(KindTask, rec.ExternalID, reason)
			continue
		}

		if email := normalizeEmail(rec.AssigneeEmail); email != "" {
			id, err := user(email, rec.AssigneeName)
			if err != nil {
				return result, err
			}
			stored.AssigneeID = &id
		}

		ownerIDs := make([]int64, 0, len(ownerEmails))
		for _, email := range ownerEmails {
			id, err := user(email, ownerName(rec.Owners, email))
			if err != nil {
				return result, err
			}
			ownerIDs = append(ownerIDs, id)
		}

		taskID, err := s.store.UpsertTask(ctx, stored)
		if err != nil {
			return result, fmt.Errorf("upsert task %s: %w", rec.ExternalID, err)
		}
		taskIDs[rec.ExternalID] = taskID
		result.Tasks++

		if len(ownerIDs) == 0 {
			continue
		}
		shares, err := ownerShares(ownerIDs, percentages)
		if err != nil {
			result.reject(KindTask, rec.ExternalID, err.Error())
			continue
		}
		if err := s.store.ReplaceOwners(ctx, taskID, shares); err != nil {
			return result, fmt.Errorf("replace owners of task %s: %w", rec.ExternalID, err)
		}
	}

	for _, rec := range batch.TimeLogs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if strings.TrimSpace(rec.ExternalID) == "" {
			result.reject(KindTimeLog, rec.ExternalID, "external id is required")
			continue
		}
		if rec.Minutes <= 0 {
			result.reject(KindTimeLog, rec.ExternalID, "minutes must be positive")
			continue
		}
		if normalizeEmail(rec.UserEmail) == "" {
			result.reject(KindTimeLog, rec.ExternalID, "user email is required")
			continue
		}

		taskID, ok := taskIDs[rec.TaskExternalID]
		if !ok {
			id, err := s.store.TaskIDByExternalID(ctx, rec.TaskExternalID)
			if err != nil {
				return result, fmt.Errorf("lookup task %s: %w", rec.TaskExternalID, err)
			}
			if id == 0 {
				result.reject(KindTimeLog, rec.ExternalID, "unknown task "+rec.TaskExternalID)
				continue
			}
			taskIDs[rec.TaskExternalID] = id
			taskID = id
		}

		userID, err := user(rec.UserEmail, "")
		if err != nil {
			return result, err
		}

		inserted, err := s.store.InsertTimeLog(ctx, &StoredTimeLog{
			ExternalID: rec.ExternalID,
			TaskID:     taskID,
			UserID:     userID,
			Minutes:    rec.Minutes,
			LoggedAt:   rec.LoggedAt.UTC(),
		})
		if err != nil {
			return result, fmt.Errorf("insert time log %s: %w", rec.ExternalID, err)
		}
		if inserted {
			result.TimeLogs++
		} else {
			result.Skipped++
		}
	}

	s.logger.Info("ingest batch applied",
		"projects", result.Projects,
		"tasks", result.Tasks,
		"time_logs", result.TimeLogs,
		"skipped", result.Skipped,
		"rejected", len(result.Errors))

	return result, nil
}

func (s *Service) resolveTask(rec TaskRecord, projectID int64) (*StoredTask, string) {
	if strings.TrimSpace(rec.ExternalID) == "" {
		return nil, "external id is required"
	}
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		return nil, "title is required"
	}
	status, err := coreTask.NormalizeStatus(rec.Status)
	if err != nil {
		return nil, err.Error()
	}
	priority, err := coreTask.NormalizePriority(rec.Priority)
	if err != nil {
		return nil, err.Error()
	}
	if rec.Progress < 0 || rec.Progress > 100 {
		return nil, fmt.Sprintf("progress %d is outside 0..100", rec.Progress)
	}
	if rec.EstimatedHours < 0 {
		return nil, "estimated hours must not be negative"
	}

	createdAt := s.now()
	if rec.CreatedAt != nil {
		createdAt = rec.CreatedAt.UTC()
	}

	completedAt := rec.CompletedAt
	if completedAt == nil && coreTask.IsCompleted(status) {
		completedAt = &createdAt
	}

	return &StoredTask{
		ExternalID:     rec.ExternalID,
		ProjectID:      projectID,
		Title:          title,
		Status:         status,
		Priority:       priority,
		Progress:       rec.Progress,
		EstimatedHours: rec.EstimatedHours,
		DueDate:        rec.DueDate,
		CompletedAt:    completedAt,
		CreatedAt:      createdAt,
	}, ""
}

// resolveOwnerShares dedupes owners by email. Percentages must be given for
// every owner or for none.
func resolveOwnerShares(owners []OwnerRecord) ([]string, []int, string) {
	emails := make([]string, 0, len(owners))
	var percentages []int
	seen := make(map[string]struct{}, len(owners))
	given := 0

	for _, o := range owners {
		email := normalizeEmail(o.Email)
		if email == "" {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		emails = append(emails, email)
		if o.SharePercentage != nil {
			given++
			percentages = append(percentages, *o.SharePercentage)
		}
	}

	if given == 0 {
		return emails, nil, ""
	}
	if given != len(emails) {
		return nil, nil, "share percentages must be given for every owner or none"
	}

	sum := 0
	for _, p := range percentages {
		if p < 0 || p > 100 {
			return nil, nil, fmt.Sprintf("share percentage %d is outside 0..100", p)
		}
		sum += p
	}
	if sum != 100 {
		return nil, nil, fmt.Sprintf("share percentages sum to %d, want 100", sum)
	}
	return emails, percentages, ""
}

func ownerShares(ownerIDs []int64, percentages []int) ([]ownership.Share, error) {
	if percentages == nil {
		return ownership.SplitPercentages(ownerIDs)
	}
	// Two emails can resolve to the same user only if the store folds
	// them; merge the percentages in that case.
	merged := make(map[int64]int64, len(ownerIDs))
	order := make([]int64, 0, len(ownerIDs))
	for i, id := range ownerIDs {
		if _, ok := merged[id]; !ok {
			order = append(order, id)
		}
		merged[id] += int64(percentages[i])
	}
	shares := make([]ownership.Share, 0, len(order))
	for _, id := range order {
		shares = append(shares, ownership.Share{OwnerID: id, Amount: merged[id]})
	}
	return shares, nil
}

func ownerName(owners []OwnerRecord, email string) string {
	for _, o := range owners {
		if normalizeEmail(o.Email) == email {
			return o.Name
		}
	}
	return ""
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DisplayName derives a name from the email local part when upstream has none.
func DisplayName(email, name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(email, "@")
	parts := strings.FieldsFunc(local, func(r rune) bool { return r == '.' || r == '_' || r == '-' })
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	if len(parts) == 0 {
		return email
	}
	return strings.Join(parts, " ")
}
