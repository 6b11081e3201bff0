package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oussamael/internhub/internal/app/models"
	"github.com/oussamael/internhub/internal/app/models/dto"
	"github.com/oussamael/internhub/internal/pkg/apperrors"
	"github.com/oussamael/internhub/internal/pkg/auth"
)

type fakeAuthUsers struct {
	user      *models.User
	lastLogin int64
}

func (f *fakeAuthUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.user == nil || f.user.Email != email {
		return nil, apperrors.ErrUserNotFound
	}
	return f.user, nil
}

func (f *fakeAuthUsers) UpdateLastLogin(ctx context.Context, id int64) error {
	f.lastLogin = id
	return nil
}

func newAuthFixture(t *testing.T, password string, active bool) (*AuthService, *fakeAuthUsers) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	users := &fakeAuthUsers{user: &models.User{
		ID:       7,
		Email:    "coordinator@internhub.app",
		Password: string(hash),
		Role:     models.RoleCoordinator,
		IsActive: active,
	}}
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:      "test-secret",
		AccessTokenExp: time.Hour,
		TokenIssuer:    "test",
	})
	return NewAuthService(users, jwtService), users
}

func TestLoginIssuesToken(t *testing.T) {
	svc, users := newAuthFixture(t, "Sup3rSecret!", true)

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "coordinator@internhub.app",
		Password: "Sup3rSecret!",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, int64(7), resp.UserID)
	assert.Equal(t, models.RoleCoordinator, resp.Role)
	assert.Equal(t, int(time.Hour.Seconds()), resp.ExpiresIn)
	assert.Equal(t, int64(7), users.lastLogin)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, users := newAuthFixture(t, "Sup3rSecret!", true)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "coordinator@internhub.app",
		Password: "nope",
	})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCredentials))
	assert.Zero(t, users.lastLogin)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t, "Sup3rSecret!", true)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "nobody@internhub.app",
		Password: "Sup3rSecret!",
	})
	// indistinguishable from a wrong password
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCredentials))
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, _ := newAuthFixture(t, "Sup3rSecret!", false)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "coordinator@internhub.app",
		Password: "Sup3rSecret!",
	})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCredentials))
}
