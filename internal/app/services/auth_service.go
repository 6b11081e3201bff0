package services

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/oussamael/internhub/internal/app/models"
	"github.com/oussamael/internhub/internal/app/models/dto"
	"github.com/oussamael/internhub/internal/pkg/apperrors"
	"github.com/oussamael/internhub/internal/pkg/auth"
	"github.com/oussamael/internhub/internal/pkg/logger"
)

type authUserRepo interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64) error
}

// AuthService issues access tokens against stored credentials.
type AuthService struct {
	users authUserRepo
	jwt   *auth.JWTService
}

// NewAuthService creates a new AuthService
func NewAuthService(users authUserRepo, jwt *auth.JWTService) *AuthService {
	return &AuthService{users: users, jwt: jwt}
}

// Login verifies the credentials and returns a signed token. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, expiresIn, err := s.jwt.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to record last login")
	}

	return &dto.LoginResponse{
		Token:     token,
		ExpiresIn: expiresIn,
		Role:      user.Role,
		UserID:    user.ID,
	}, nil
}
