package user

import (
	"github.com/frahmantamala/performance-tracker/internal"
	"github.com/frahmantamala/performance-tracker/internal/core/common/validation"
	coreUser "github.com/frahmantamala/performance-tracker/internal/core/user"
)

type UpdateRoleDTO struct {
	Role string `json:"role"`
}

func (dto UpdateRoleDTO) Validate() error {
	allowed := make([]string, 0, len(coreUser.Roles))
	for _, r := range coreUser.Roles {
		allowed = append(allowed, string(r))
	}

	v := validation.NewValidator()
	v.Field("role", dto.Role).Required().OneOf(allowed, internal.ErrCodeInvalidRole)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type SetManagerDTO struct {
	ManagerID *int64 `json:"manager_id"`
}

type UsersResponse struct {
	Users []*User `json:"users"`
}
