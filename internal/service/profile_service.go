package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/cbt-dashboard/internal/domain"
	"github.com/spec-kit/cbt-dashboard/internal/repository"
)

const maxAvatarAttrLength = 64

// Profile is a user record with its avatar URL resolved.
type Profile struct {
	User      *domain.User
	AvatarURL string
}

// ProfileService reads and edits the caller's own profile.
type ProfileService struct {
	users   repository.UserRepository
	avatars *AvatarService
	logger  *zap.Logger
}

// NewProfileService builds the service. avatars may be nil.
func NewProfileService(users repository.UserRepository, avatars *AvatarService, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{users: users, avatars: avatars, logger: logger}
}

// Get loads the profile of userID.
func (s *ProfileService) Get(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withAvatar(ctx, user), nil
}

// UpdateProfile writes the whitelisted fields. Email and role are not reachable from here.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*Profile, error) {
	if update.Empty() {
		return nil, domain.Invalid("profile", "no updatable fields supplied")
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if err := validateName(name); err != nil {
			return nil, err
		}
		update.Name = &name
	}
	if err := validateAvatarAttr("avatar_style", update.AvatarStyle); err != nil {
		return nil, err
	}
	if err := validateAvatarAttr("avatar_seed", update.AvatarSeed); err != nil {
		return nil, err
	}
	if update.AvatarKey != nil {
		if err := s.avatars.CheckOwnership(userID, *update.AvatarKey); err != nil {
			return nil, err
		}
	}

	user, err := s.users.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, err
	}
	return s.withAvatar(ctx, user), nil
}

// A signing failure only drops the avatar URL; the profile itself is still returned.
func (s *ProfileService) withAvatar(ctx context.Context, user *domain.User) *Profile {
	profile := &Profile{User: user}
	if user.AvatarKey == nil || !s.avatars.Enabled() {
		return profile
	}
	url, err := s.avatars.DownloadURL(ctx, *user.AvatarKey)
	if err != nil {
		s.logger.Warn("presign avatar", zap.String("user_id", user.ID), zap.Error(err))
		return profile
	}
	profile.AvatarURL = url
	return profile
}

func validateAvatarAttr(field string, value *string) error {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" || len(v) > maxAvatarAttrLength {
		return domain.Invalid(field, "must be 1 to 64 characters")
	}
	return nil
}
