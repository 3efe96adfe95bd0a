// Package report builds the periodic team performance digest sent to
// managers.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	coreUser "github.com/frahmantamala/performance-tracker/internal/core/user"
	"github.com/frahmantamala/performance-tracker/internal/scoring"
	"github.com/frahmantamala/performance-tracker/internal/user"
	"github.com/jedib0t/go-pretty/v6/table"
)

type Directory interface {
	GetByID(ctx context.Context, userID int64) (*user.User, error)
	ListByRole(ctx context.Context, role coreUser.Role) ([]*user.User, error)
	GetReports(ctx context.Context, managerID int64, recursive bool) ([]*user.User, error)
}

type ScoreReader interface {
	LatestScore(ctx context.Context, userID int64) (*scoring.Score, error)
}

// Line is one report's most recent score. Score is nil when the employee
// has never been scored.
type Line struct {
	UserID int64
	Name   string
	Email  string
	Score  *scoring.Score
}

type ManagerReport struct {
	Manager *user.User
	Date    time.Time
	Lines   []Line
}

type SendSummary struct {
	Managers int
	Sent     int
	Skipped  int
	Failed   int
}

type Service struct {
	directory Directory
	scores    ScoreReader
	mailer    Mailer
	logger    *slog.Logger
}

func NewService(directory Directory, scores ScoreReader, mailer Mailer, logger *slog.Logger) *Service {
	return &Service{
		directory: directory,
		scores:    scores,
		mailer:    mailer,
		logger:    logger,
	}
}

// BuildManagerReport collects every direct and indirect report's latest
// score, best first. Unscored employees are listed last by name.
func (s *Service) BuildManagerReport(ctx context.Context, managerID int64, date time.Time) (*ManagerReport, error) {
	manager, err := s.directory.GetByID(ctx, managerID)
	if err != nil {
		return nil, err
	}

	reports, err := s.directory.GetReports(ctx, managerID, true)
	if err != nil {
		return nil, fmt.Errorf("load reports of manager %d: %w", managerID, err)
	}

	lines := make([]Line, 0, len(reports))
	for _, r := range reports {
		score, err := s.scores.LatestScore(ctx, r.ID)
		if err != nil {
			return nil, fmt.Errorf("load latest score of user %d: %w", r.ID, err)
		}
		lines = append(lines, Line{UserID: r.ID, Name: r.Name, Email: r.Email, Score: score})
	}

	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i].Score, lines[j].Score
		switch {
		case a != nil && b != nil && a.ScoreValue != b.ScoreValue:
			return a.ScoreValue > b.ScoreValue
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return lines[i].Name < lines[j].Name
	})

	return &ManagerReport{Manager: manager, Date: date, Lines: lines}, nil
}

func (r *ManagerReport) Subject() string {
	return fmt.Sprintf("Team performance report %s", r.Date.Format("2006-01-02"))
}

// Render formats the report as a plain-text mail body.
func (r *ManagerReport) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", r.Manager.Name)
	fmt.Fprintf(&b, "Latest performance scores for your team as of %s.\n\n", r.Date.Format("2006-01-02"))

	if len(r.Lines) == 0 {
		b.WriteString("No one reports to you yet.\n")
		return b.String()
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Employee", "Score", "Completion", "Timeliness", "Efficiency", "Quality", "Focus", "Date"})
	for _, line := range r.Lines {
		if line.Score == nil {
			t.AppendRow(table.Row{line.Name, "-", "-", "-", "-", "-", "-", "never scored"})
			continue
		}
		c := line.Score.Components
		t.AppendRow(table.Row{
			line.Name,
			fmt.Sprintf("%.2f", line.Score.ScoreValue),
			fmt.Sprintf("%.1f", c.TaskCompletion),
			fmt.Sprintf("%.1f", c.Timeliness),
			fmt.Sprintf("%.1f", c.Efficiency),
			fmt.Sprintf("%.1f", c.ProgressQuality),
			fmt.Sprintf("%.1f", c.PriorityFocus),
			line.Score.Date.Format("2006-01-02"),
		})
	}
	b.WriteString(t.Render())
	b.WriteString("\n")
	return b.String()
}

// SendManagerReports mails every active manager with at least one report.
// A failure for one manager is logged and does not stop the others.
func (s *Service) SendManagerReports(ctx context.Context, date time.Time) (SendSummary, error) {
	managers, err := s.directory.ListByRole(ctx, coreUser.RoleManager)
	if err != nil {
		return SendSummary{}, fmt.Errorf("list managers: %w", err)
	}

	summary := SendSummary{Managers: len(managers)}
	for _, m := range managers {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if !m.IsActive || m.Email == "" {
			summary.Skipped++
			continue
		}

		report, err := s.BuildManagerReport(ctx, m.ID, date)
		if err != nil {
			summary.Failed++
			s.logger.Error("failed to build manager report", "manager_id", m.ID, "error", err)
			continue
		}
		if len(report.Lines) == 0 {
			summary.Skipped++
			continue
		}

		if err := s.mailer.Send(ctx, []string{m.Email}, report.Subject(), report.Render()); err != nil {
			summary.Failed++
			s.logger.Error("failed to send manager report", "manager_id", m.ID, "error", err)
			continue
		}
		summary.Sent++
	}

	s.logger.Info("manager reports sent",
		"managers", summary.Managers,
		"sent", summary.Sent,
		"skipped", summary.Skipped,
		"failed", summary.Failed)
	return summary, nil
}
