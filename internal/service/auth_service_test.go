package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecolenet/remplacement-api/internal/models"
	appErrors "github.com/ecolenet/remplacement-api/pkg/errors"
)

type authUserRepoStub struct {
	users      map[string]models.User
	lastLogins []string
}

func (s *authUserRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, errNoRows()
}

func (s *authUserRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return &user, nil
	}
	return nil, errNoRows()
}

func (s *authUserRepoStub) UpdateLastLogin(ctx context.Context, id string) error {
	s.lastLogins = append(s.lastLogins, id)
	return nil
}

func newAuthTestService(t *testing.T) (*AuthService, *authUserRepoStub) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &authUserRepoStub{users: map[string]models.User{
		"user-1": {
			ID: "user-1", Email: "ops@ecolenet.ch", PasswordHash: string(hash),
			FullName: "Ops Admin", Role: "admin", Active: true,
		},
		"user-2": {
			ID: "user-2", Email: "gone@ecolenet.ch", PasswordHash: string(hash),
			FullName: "Former Operator", Role: "admin", Active: false,
		},
	}}
	svc := NewAuthService(repo, nil, nil, AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "remplacement-api",
	})
	return svc, repo
}

func TestLoginAndValidateToken(t *testing.T) {
	svc, repo := newAuthTestService(t)

	result, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "ops@ecolenet.ch", Password: "s3cret",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	assert.Equal(t, "user-1", result.User.ID)
	assert.Equal(t, []string{"user-1"}, repo.lastLogins)

	claims, err := svc.ValidateToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthTestService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "ops@ecolenet.ch", Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{
		Email: "nobody@ecolenet.ch", Password: "s3cret",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	svc, _ := newAuthTestService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "gone@ecolenet.ch", Password: "s3cret",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthTestService(t)

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
