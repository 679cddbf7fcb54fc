package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ratewise/store-ratings/internal/apperr"
	"github.com/ratewise/store-ratings/internal/auth"
	"github.com/ratewise/store-ratings/internal/models"
	repo "github.com/ratewise/store-ratings/internal/repository"
)

// AuthService owns the credential lifecycle: signup, login, and the
// forgot/reset/change password flows.
type AuthService struct {
	users    repo.Users
	tm       *auth.TokenManager
	resetTTL time.Duration
}

func NewAuthService(users repo.Users, tm *auth.TokenManager, resetTTL time.Duration) *AuthService {
	return &AuthService{users: users, tm: tm, resetTTL: resetTTL}
}

// Signup creates a regular account. The role is always user here, no
// matter what the caller sends; only admins mint owners.
func (s *AuthService) Signup(ctx context.Context, name, email, password, address string) (models.User, error) {
	u := models.User{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		Address: strings.TrimSpace(address),
		Role:    models.RoleUser,
	}
	if err := u.Validate(); err != nil {
		return models.User{}, fmt.Errorf("%w: %s", apperr.ErrValidation, err)
	}
	if password == "" {
		return models.User{}, fmt.Errorf("%w: password required", apperr.ErrValidation)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	u.PasswordHash = hash
	created, err := s.users.Create(ctx, u)
	if errors.Is(err, apperr.ErrConflict) {
		return models.User{}, fmt.Errorf("%w: email already exists", apperr.ErrConflict)
	}
	return created, err
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.User
}

// Login verifies the credentials and issues a bearer token. Unknown
// email and wrong password return the same error so callers cannot
// probe which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return LoginResult{}, apperr.ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if auth.VerifyPassword(password, u.PasswordHash) != nil {
		return LoginResult{}, apperr.ErrInvalidCredentials
	}
	token, exp, err := s.tm.Generate(u.ID, u.Role)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

// ForgotPassword issues a short-lived reset token and returns it to the
// caller. No mail delivery is wired up, so the token travels back in
// the response body.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("%w: email required", apperr.ErrValidation)
	}
	token, err := auth.NewResetToken()
	if err != nil {
		return "", err
	}
	ok, err := s.users.SetResetToken(ctx, email, token, time.Now().Add(s.resetTTL))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	}
	return token, nil
}

// ResetPassword consumes a reset token. Unknown and expired tokens are
// indistinguishable to the caller.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return fmt.Errorf("%w: token and new password required", apperr.ErrValidation)
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	ok, err := s.users.ConsumeResetToken(ctx, token, hash)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: invalid or expired token", apperr.ErrValidation)
	}
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return fmt.Errorf("%w: old and new password required", apperr.ErrValidation)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if auth.VerifyPassword(oldPassword, u.PasswordHash) != nil {
		return fmt.Errorf("%w: old password is incorrect", apperr.ErrInvalidCredentials)
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}
