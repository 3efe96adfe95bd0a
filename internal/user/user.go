package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/performance-tracker/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/performance-tracker/internal/core/user"
)

// MaxHierarchyDepth bounds every walk over manager links. The links are not
// guaranteed to form a tree.
const MaxHierarchyDepth = 10

type User struct {
	ID           int64         `json:"id"`
	Email        string        `json:"email"`
	Name         string        `json:"name"`
	PasswordHash string        `json:"-"`
	Role         coreUser.Role `json:"role"`
	ManagerID    *int64        `json:"manager_id,omitempty"`
	Department   string        `json:"department"`
	IsActive     bool          `json:"is_active"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (u *User) ToCore() coreUser.User {
	return coreUser.User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		ManagerID:    u.ManagerID,
		Department:   u.Department,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModel(m *userDatamodel.User) *User {
	return &User{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		Role:         coreUser.Role(m.Role),
		ManagerID:    m.ManagerID,
		Department:   m.Department,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		ManagerID:    u.ManagerID,
		Department:   u.Department,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
