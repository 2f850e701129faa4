package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/edudata/completion-report-api/internal/models"
	"github.com/edudata/completion-report-api/pkg/config"
	apperrors "github.com/edudata/completion-report-api/pkg/errors"
)

type fakeUserReader struct {
	user *models.User
}

func (f fakeUserReader) FindByEmail(context.Context, string) (*models.User, error) {
	if f.user == nil {
		return nil, apperrors.ErrUnauthorized
	}
	return f.user, nil
}

func (f fakeUserReader) FindByID(context.Context, int64) (*models.User, error) {
	return f.user, nil
}

func testUser(t *testing.T, password string) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           9,
		Email:        "manager@example.org",
		PasswordHash: string(hash),
		FirstName:    "Robin",
		LastName:     "Manager",
		Role:         models.RoleManager,
		Active:       true,
	}
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "test"}
}

func TestAuthServiceLoginAndValidate(t *testing.T) {
	svc := NewAuthService(fakeUserReader{user: testUser(t, "s3cret")}, testJWTConfig(), nil)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "manager@example.org", Password: "s3cret"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, models.RoleManager, resp.User.Role)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, int64(9), claims.UserID)
	require.Equal(t, models.RoleManager, claims.Role)
}

func TestAuthServiceLoginRejectsMalformedPayload(t *testing.T) {
	svc := NewAuthService(fakeUserReader{user: testUser(t, "s3cret")}, testJWTConfig(), nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: ""})
	require.Error(t, err)

	appErr := apperrors.FromError(err)
	require.Equal(t, apperrors.ErrValidation.Code, appErr.Code)
	require.Contains(t, appErr.Fields, "email")
	require.Contains(t, appErr.Fields, "password")
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc := NewAuthService(fakeUserReader{user: testUser(t, "s3cret")}, testJWTConfig(), nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "manager@example.org", Password: "wrong"})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	user := testUser(t, "s3cret")
	user.Active = false
	svc := NewAuthService(fakeUserReader{user: user}, testJWTConfig(), nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "manager@example.org", Password: "s3cret"})
	require.ErrorIs(t, err, apperrors.ErrInactiveAccount)
}

func TestAuthServiceProfile(t *testing.T) {
	svc := NewAuthService(fakeUserReader{user: testUser(t, "s3cret")}, testJWTConfig(), nil)

	info, err := svc.Profile(context.Background(), 9)
	require.NoError(t, err)
	require.Equal(t, "Robin Manager", info.FullName)
	require.Equal(t, models.RoleManager, info.Role)
}

func TestAuthServiceValidateGarbageToken(t *testing.T) {
	svc := NewAuthService(fakeUserReader{}, testJWTConfig(), nil)

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
}
