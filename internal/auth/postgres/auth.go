package auth

import (
	"context"
	"errors"

	"github.com/frahmantamala/performance-tracker/internal/auth"
	coreUser "github.com/frahmantamala/performance-tracker/internal/core/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

type credentialRow struct {
	ID           int64
	Email        string
	PasswordHash string
	IsActive     bool
}

func (r *Repository) GetCredentials(ctx context.Context, email string) (*auth.Credentials, error) {
	var row credentialRow
	err := r.db.WithContext(ctx).
		Table("users").
		Select("id, email, password_hash, is_active").
		Where("LOWER(email) = ?", email).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrPrincipalNotFound
		}
		return nil, err
	}
	return &auth.Credentials{
		UserID:       row.ID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		IsActive:     row.IsActive,
	}, nil
}

type principalRow struct {
	ID    int64
	Email string
	Name  string
	Role  string
}

// GetPrincipal loads an active user as a request principal.
func (r *Repository) GetPrincipal(ctx context.Context, userID int64) (*auth.User, error) {
	var row principalRow
	err := r.db.WithContext(ctx).
		Table("users").
		Select("id, email, name, role").
		Where("id = ? AND is_active = ?", userID, true).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrPrincipalNotFound
		}
		return nil, err
	}
	return &auth.User{
		ID:    row.ID,
		Email: row.Email,
		Name:  row.Name,
		Role:  coreUser.Role(row.Role),
	}, nil
}
