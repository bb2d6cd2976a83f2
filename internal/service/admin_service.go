package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/cbt-dashboard/internal/auth"
	"github.com/spec-kit/cbt-dashboard/internal/domain"
	"github.com/spec-kit/cbt-dashboard/internal/events"
	"github.com/spec-kit/cbt-dashboard/internal/repository"
)

// AdminService provisions administrators.
type AdminService struct {
	users      repository.UserRepository
	hasher     auth.Hasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAdminService builds the service.
func NewAdminService(users repository.UserRepository, hasher auth.Hasher, dispatcher events.Dispatcher, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{users: users, hasher: hasher, dispatcher: dispatcher, logger: logger}
}

// Promote grants the admin role to the account with email.
func (s *AdminService) Promote(ctx context.Context, email string) (*domain.User, error) {
	return s.setRole(ctx, email, domain.RoleAdmin)
}

// Demote returns the account with email to the user role.
func (s *AdminService) Demote(ctx context.Context, email string) (*domain.User, error) {
	return s.setRole(ctx, email, domain.RoleUser)
}

// CreateAdmin creates a password account that already holds the admin role.
func (s *AdminService) CreateAdmin(ctx context.Context, email, name, password string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{Email: email, Name: name, PasswordHash: &hash, Role: domain.RoleAdmin}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.publishRoleChange(ctx, user, "", domain.RoleAdmin)
	return user, nil
}

func (s *AdminService) setRole(ctx context.Context, email string, role domain.Role) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	before, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if before.Role == role {
		return before, nil
	}
	user, err := s.users.SetRoleByEmail(ctx, email, role)
	if err != nil {
		return nil, err
	}
	s.publishRoleChange(ctx, user, before.Role, role)
	return user, nil
}

func (s *AdminService) publishRoleChange(ctx context.Context, user *domain.User, from, to domain.Role) {
	s.logger.Info("user role changed", zap.String("user_id", user.ID), zap.String("old_role", string(from)), zap.String("new_role", string(to)))
	if s.dispatcher == nil {
		return
	}
	err := s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventUserRoleChanged,
		UserID:    user.ID,
		Timestamp: time.Now().UTC(),
		Payload: events.UserRoleChangedPayload{
			Email:   user.Email,
			OldRole: string(from),
			NewRole: string(to),
		},
	})
	if err != nil {
		s.logger.Error("publish role change", zap.String("user_id", user.ID), zap.Error(err))
	}
}
