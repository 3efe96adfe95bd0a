package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/frahmantamala/performance-tracker/internal"
	"golang.org/x/crypto/bcrypt"
)

var ErrPrincipalNotFound = errors.New("principal not found")

type Repository interface {
	GetCredentials(ctx context.Context, email string) (*Credentials, error)
	GetPrincipal(ctx context.Context, userID int64) (*User, error)
}

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetPrincipal(ctx context.Context, userID int64) (*User, error)
}

type Service struct {
	repo           Repository
	tokenGenerator TokenGenerator
	bcryptCost     int
	logger         *slog.Logger
}

func NewService(repo Repository, tokenGen TokenGenerator, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		bcryptCost:     bcryptCost,
		logger:         logger,
	}
}

// Authenticate validates credentials and returns a fresh token pair.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	creds, err := s.repo.GetCredentials(ctx, strings.ToLower(strings.TrimSpace(dto.Email)))
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return AuthTokens{}, ErrInvalidCredentials
		}
		s.logger.Error("failed to load credentials", "error", err)
		return AuthTokens{}, internal.NewInternalError("failed to authenticate", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, ErrInvalidCredentials
	}
	if !creds.IsActive {
		return AuthTokens{}, ErrUserInactive
	}

	principal, err := s.repo.GetPrincipal(ctx, creds.UserID)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to load user", err)
	}

	s.logger.Info("user authenticated", "user_id", principal.ID, "role", principal.Role)
	return s.issue(principal)
}

// RefreshTokens exchanges a refresh token for a new pair, re-reading the
// principal so role changes take effect.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return AuthTokens{}, err
	}

	principal, err := s.repo.GetPrincipal(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return AuthTokens{}, ErrUserInactive
		}
		return AuthTokens{}, internal.NewInternalError("failed to load user", err)
	}

	return s.issue(principal)
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString, TokenTypeAccess)
}

func (s *Service) GetPrincipal(ctx context.Context, userID int64) (*User, error) {
	principal, err := s.repo.GetPrincipal(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil, ErrUserInactive
		}
		return nil, err
	}
	return principal, nil
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) issue(principal *User) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(principal)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign token", err)
	}
	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(principal)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign token", err)
	}
	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokenGenerator.AccessTTL().Seconds()),
	}, nil
}
