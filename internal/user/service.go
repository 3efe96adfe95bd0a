package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/performance-tracker/internal"
	"github.com/frahmantamala/performance-tracker/internal/core/events"
	coreUser "github.com/frahmantamala/performance-tracker/internal/core/user"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	ListByRole(ctx context.Context, role coreUser.Role) ([]*User, error)
	ListDirectReports(ctx context.Context, managerIDs []int64) ([]*User, error)
	UpdateRole(ctx context.Context, id int64, role coreUser.Role) error
	UpdateManager(ctx context.Context, id int64, managerID *int64) error
}

type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) GetByID(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return u, nil
}

func (s *Service) ListByRole(ctx context.Context, role coreUser.Role) ([]*User, error) {
	users, err := s.repo.ListByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with role %s: %w", role, err)
	}
	return users, nil
}

func (s *Service) ListEmployees(ctx context.Context) ([]*User, error) {
	return s.ListByRole(ctx, coreUser.RoleEmployee)
}

// GetReports walks the manager links breadth first. With recursive unset
// only direct reports are returned. A user reachable twice, including the
// manager through a cycle, is listed once and never expanded again.
func (s *Service) GetReports(ctx context.Context, managerID int64, recursive bool) ([]*User, error) {
	visited := map[int64]bool{managerID: true}
	frontier := []int64{managerID}
	var reports []*User

	for depth := 0; depth < MaxHierarchyDepth && len(frontier) > 0; depth++ {
		level, err := s.repo.ListDirectReports(ctx, frontier)
		if err != nil {
			s.logger.Error("failed to list reports", "error", err, "manager_id", managerID, "depth", depth)
			return nil, fmt.Errorf("list reports of %d: %w", managerID, err)
		}

		var next []int64
		for _, u := range level {
			if visited[u.ID] {
				continue
			}
			visited[u.ID] = true
			reports = append(reports, u)
			next = append(next, u.ID)
		}
		frontier = next
		if !recursive {
			break
		}
	}
	return reports, nil
}

// IsReportOf follows manager links upward from userID looking for managerID.
func (s *Service) IsReportOf(ctx context.Context, managerID, userID int64) (bool, error) {
	chain, err := s.managerChain(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, id := range chain {
		if id == managerID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) managerChain(ctx context.Context, userID int64) ([]int64, error) {
	var chain []int64
	visited := map[int64]bool{userID: true}
	current := userID

	for depth := 0; depth < MaxHierarchyDepth; depth++ {
		u, err := s.repo.GetByID(ctx, current)
		if err != nil {
			if errors.Is(err, internal.ErrUserNotFound) {
				break
			}
			return nil, err
		}
		if u.ManagerID == nil || visited[*u.ManagerID] {
			break
		}
		visited[*u.ManagerID] = true
		chain = append(chain, *u.ManagerID)
		current = *u.ManagerID
	}
	return chain, nil
}

func (s *Service) UpdateRole(ctx context.Context, actorID int64, actorRole coreUser.Role, userID int64, dto UpdateRoleDTO) (*User, error) {
	if actorRole != coreUser.RoleHRAdmin {
		s.logger.Warn("update role denied", "actor_id", actorID, "user_id", userID)
		return nil, internal.ErrUnauthorizedAccess
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	oldRole := u.Role
	newRole := coreUser.Role(dto.Role)
	if oldRole == newRole {
		return u, nil
	}
	if err := s.repo.UpdateRole(ctx, userID, newRole); err != nil {
		s.logger.Error("failed to update role", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to update role", err)
	}
	u.Role = newRole

	s.logger.Info("user role changed", "actor_id", actorID, "user_id", userID, "old_role", oldRole, "new_role", newRole)
	s.publish(ctx, events.NewUserRoleChangedEvent(actorID, userID, string(oldRole), string(newRole)))
	return u, nil
}

// SetManager reassigns userID to managerID, or detaches it when managerID is
// nil. Assignments that would close a loop are rejected.
func (s *Service) SetManager(ctx context.Context, actorID int64, actorRole coreUser.Role, userID int64, managerID *int64) (*User, error) {
	if actorRole != coreUser.RoleHRAdmin {
		s.logger.Warn("set manager denied", "actor_id", actorID, "user_id", userID)
		return nil, internal.ErrUnauthorizedAccess
	}

	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if managerID != nil {
		if *managerID == userID {
			return nil, internal.NewValidationFieldError("manager_id", "a user cannot manage themselves", internal.ErrCodeHierarchyCycle)
		}
		if _, err := s.GetByID(ctx, *managerID); err != nil {
			return nil, err
		}
		chain, err := s.managerChain(ctx, *managerID)
		if err != nil {
			return nil, err
		}
		for _, id := range chain {
			if id == userID {
				return nil, internal.NewValidationFieldError("manager_id", "assignment would create a reporting cycle", internal.ErrCodeHierarchyCycle)
			}
		}
	}

	if err := s.repo.UpdateManager(ctx, userID, managerID); err != nil {
		s.logger.Error("failed to update manager", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to update manager", err)
	}

	oldManager := u.ManagerID
	u.ManagerID = managerID
	s.logger.Info("user manager changed", "actor_id", actorID, "user_id", userID)
	s.publish(ctx, events.NewUserManagerChangedEvent(actorID, userID, oldManager, managerID))
	return u, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "error", err, "event_type", event.EventType())
	}
}
