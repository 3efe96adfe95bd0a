package project

import (
	"context"
	"log/slog"
	"strings"

	"github.com/frahmantamala/performance-tracker/internal"
)

type RepositoryAPI interface {
	ListWithCounts(ctx context.Context) ([]*Project, error)
	GetByExternalID(ctx context.Context, externalID string) (*Project, error)
	Upsert(ctx context.Context, p *Project) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) ListProjects(ctx context.Context) ([]ProjectResponse, error) {
	projects, err := s.repo.ListWithCounts(ctx)
	if err != nil {
		s.logger.Error("failed to get projects from repository", "error", err)
		return nil, internal.NewInternalError("failed to list projects", err)
	}

	responses := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		if p.IsActive {
			responses = append(responses, p.ToResponse())
		}
	}

	s.logger.Debug("retrieved projects", "count", len(responses))
	return responses, nil
}

// UpsertByExternalID creates the project on first sight and keeps its name
// current afterwards. It returns the local id.
func (s *Service) UpsertByExternalID(ctx context.Context, externalID, name string) (int64, error) {
	externalID = strings.TrimSpace(externalID)
	name = strings.TrimSpace(name)
	if externalID == "" {
		return 0, internal.NewValidationFieldError("external_id", "project external id is required", internal.ErrCodeValidationFailed)
	}
	if name == "" {
		name = externalID
	}

	p := NewProject(externalID, name)
	if err := s.repo.Upsert(ctx, p); err != nil {
		s.logger.Error("failed to upsert project", "error", err, "external_id", externalID)
		return 0, err
	}
	return p.ID, nil
}
