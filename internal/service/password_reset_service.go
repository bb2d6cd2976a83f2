package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/cbt-dashboard/internal/auth"
	"github.com/spec-kit/cbt-dashboard/internal/domain"
	"github.com/spec-kit/cbt-dashboard/internal/events"
	"github.com/spec-kit/cbt-dashboard/internal/repository"
)

// PasswordResetService issues and consumes single-use reset tokens.
type PasswordResetService struct {
	users      repository.UserRepository
	hasher     auth.Hasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
	ttl        time.Duration
	now        func() time.Time
}

// NewPasswordResetService builds the service. Tokens live for ttl.
func NewPasswordResetService(users repository.UserRepository, hasher auth.Hasher, dispatcher events.Dispatcher, ttl time.Duration, logger *zap.Logger) *PasswordResetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PasswordResetService{
		users:      users,
		hasher:     hasher,
		dispatcher: dispatcher,
		logger:     logger,
		ttl:        ttl,
		now:        time.Now,
	}
}

// RequestReset stores a fresh token on the account and hands it to delivery.
// An unknown email is a silent no-op so callers cannot probe for accounts.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token := uuid.NewString()
	expiresAt := s.now().Add(s.ttl)
	if err := s.users.SetResetToken(ctx, user.ID, token, expiresAt); err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		Type:   events.EventPasswordResetRequested,
		UserID: user.ID,
		Payload: events.PasswordResetRequestedPayload{
			Email:     user.Email,
			Name:      user.Name,
			Token:     token,
			ExpiresAt: expiresAt,
		},
	})
	return nil
}

// CompleteReset sets a new password for the holder of a valid token and consumes the token.
func (s *PasswordResetService) CompleteReset(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return domain.ErrInvalidOrExpiredToken
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}

	now := s.now()
	if _, err := s.users.GetByValidResetToken(ctx, token, now); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidOrExpiredToken
		}
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	// Another request may have consumed the token since the lookup.
	user, err := s.users.ConsumeResetToken(ctx, token, now, hash)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidOrExpiredToken
		}
		return err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventPasswordResetCompleted,
		UserID:  user.ID,
		Payload: events.PasswordResetCompletedPayload{Email: user.Email},
	})
	return nil
}

// Delivery failures are logged; the token is already stored and the caller learns nothing either way.
func (s *PasswordResetService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now().UTC()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Error("publish event", zap.String("event_type", string(event.Type)), zap.String("user_id", event.UserID), zap.Error(err))
	}
}
