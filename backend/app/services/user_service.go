package services

import (
	"context"
	"errors"
	"strings"

	"fleetpulse/backend/app/apperr"
	"fleetpulse/backend/app/models"
	"fleetpulse/backend/global"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct{ users UserStore }

func NewUserService(users UserStore) *UserService { return &UserService{users: users} }

// EnsureAdmin seeds an admin account once. Empty credentials are a no-op so an
// unconfigured deployment gets no default password.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	count, err := s.users.CountByUsername(ctx, username)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if _, err := s.create(ctx, username, password, models.RoleAdmin); err != nil {
		return err
	}
	global.Logger.Info().Str("username", username).Msg("admin account created")
	return nil
}

func (s *UserService) CreateUser(ctx context.Context, username, password, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperr.Validation("username and password are required")
	}
	if role == "" {
		role = models.RoleOperator
	}
	if role != models.RoleAdmin && role != models.RoleOperator {
		return nil, apperr.Validation("unknown role %q", role)
	}
	return s.create(ctx, username, password, role)
}

func (s *UserService) create(ctx context.Context, username, password, role string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		// bcrypt rejects passwords over 72 bytes
		return nil, apperr.Validation("password: %v", err)
	}
	u := &models.User{Username: username, PasswordHash: string(hash), Role: role}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ValidateCredentials answers apperr.ErrUnauthorized for both an unknown user
// and a wrong password.
func (s *UserService) ValidateCredentials(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, apperr.ErrUnauthorized
	}
	return u, nil
}
