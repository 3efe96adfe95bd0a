package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/performance-tracker/internal"
	userDatamodel "github.com/frahmantamala/performance-tracker/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/performance-tracker/internal/core/user"
	"github.com/frahmantamala/performance-tracker/internal/user"
	"gorm.io/gorm"
)

// UserRepository implements user.Repository using GORM
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var row userDatamodel.User
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&row), nil
}

func (r *UserRepository) ListByRole(ctx context.Context, role coreUser.Role) ([]*user.User, error) {
	var rows []userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", string(role), true).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toUsers(rows), nil
}

func (r *UserRepository) ListDirectReports(ctx context.Context, managerIDs []int64) ([]*user.User, error) {
	if len(managerIDs) == 0 {
		return nil, nil
	}
	var rows []userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("manager_id IN ? AND is_active = ?", managerIDs, true).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toUsers(rows), nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role coreUser.Role) error {
	return r.update(ctx, id, map[string]interface{}{"role": string(role)})
}

func (r *UserRepository) UpdateManager(ctx context.Context, id int64, managerID *int64) error {
	return r.update(ctx, id, map[string]interface{}{"manager_id": managerID})
}

func (r *UserRepository) update(ctx context.Context, id int64, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

func toUsers(rows []userDatamodel.User) []*user.User {
	users := make([]*user.User, 0, len(rows))
	for i := range rows {
		users = append(users, user.FromDataModel(&rows[i]))
	}
	return users
}
