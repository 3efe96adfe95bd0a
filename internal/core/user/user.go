package user

import "time"

type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleManager  Role = "MANAGER"
	RoleHRAdmin  Role = "HR_ADMIN"
)

var Roles = []Role{RoleEmployee, RoleManager, RoleHRAdmin}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// CanValidateTasks reports whether the role may override task progress.
func (r Role) CanValidateTasks() bool {
	return r == RoleManager || r == RoleHRAdmin
}

type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	ManagerID    *int64
	Department   string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
