package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratewise/store-ratings/internal/apperr"
	"github.com/ratewise/store-ratings/internal/auth"
	"github.com/ratewise/store-ratings/internal/models"
	"github.com/ratewise/store-ratings/internal/repository/memory"
)

func newAuthService(resetTTL time.Duration) (*AuthService, memory.Repositories) {
	repos := memory.NewRepositories()
	tm := auth.NewTokenManager("test-secret", "store-ratings", 24*time.Hour)
	return NewAuthService(repos.Users, tm, resetTTL), repos
}

func TestSignup_RoleAlwaysUser(t *testing.T) {
	svc, _ := newAuthService(15 * time.Minute)
	ctx := context.Background()

	u, err := svc.Signup(ctx, "Alice", "alice@example.com", "pass1234", "12 Main St")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.NotEqual(t, "pass1234", u.PasswordHash, "password must be stored hashed")
}

func TestSignup_Validation(t *testing.T) {
	svc, _ := newAuthService(15 * time.Minute)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "Alice", "alice@example.com", "", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Signup(ctx, "", "alice@example.com", "pass1234", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc, _ := newAuthService(15 * time.Minute)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "Alice", "alice@example.com", "pass1234", "")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "Other Alice", "alice@example.com", "pass5678", "")
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthService(15 * time.Minute)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "Alice", "alice@example.com", "pass1234", "")
	require.NoError(t, err)

	res, err := svc.Login(ctx, "alice@example.com", "pass1234")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, models.RoleUser, res.User.Role)

	// unknown email and wrong password must be indistinguishable
	_, errUnknown := svc.Login(ctx, "nobody@example.com", "pass1234")
	_, errWrongPw := svc.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, errUnknown, apperr.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPw, apperr.ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
}

func TestForgotResetFlow(t *testing.T) {
	svc, _ := newAuthService(15 * time.Minute)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "Alice", "alice@example.com", "oldpass", "")
	require.NoError(t, err)

	token, err := svc.ForgotPassword(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Len(t, token, 64)

	require.NoError(t, svc.ResetPassword(ctx, token, "newpass"))

	_, err = svc.Login(ctx, "alice@example.com", "oldpass")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "alice@example.com", "newpass")
	assert.NoError(t, err)

	// token is single-use
	err = svc.ResetPassword(ctx, token, "thirdpass")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	svc, _ := newAuthService(15 * time.Minute)
	_, err := svc.ForgotPassword(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestResetPassword_ExpiredLooksLikeUnknown(t *testing.T) {
	// negative TTL issues tokens that are already expired
	svc, _ := newAuthService(-time.Minute)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "Alice", "alice@example.com", "pass1234", "")
	require.NoError(t, err)

	token, err := svc.ForgotPassword(ctx, "alice@example.com")
	require.NoError(t, err)

	errExpired := svc.ResetPassword(ctx, token, "newpass")
	errUnknown := svc.ResetPassword(ctx, "deadbeef", "newpass")
	require.Error(t, errExpired)
	require.Error(t, errUnknown)
	assert.Equal(t, errUnknown.Error(), errExpired.Error())
}

func TestChangePassword(t *testing.T) {
	svc, _ := newAuthService(15 * time.Minute)
	ctx := context.Background()

	u, err := svc.Signup(ctx, "Alice", "alice@example.com", "oldpass", "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ChangePassword(ctx, u.ID, "wrong", "newpass"), apperr.ErrInvalidCredentials)
	assert.ErrorIs(t, svc.ChangePassword(ctx, "missing-id", "oldpass", "newpass"), apperr.ErrNotFound)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, "oldpass", "newpass"))
	_, err = svc.Login(ctx, "alice@example.com", "newpass")
	assert.NoError(t, err)
}
