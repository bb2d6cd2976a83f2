package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/cbt-dashboard/internal/api/dto"
	"github.com/spec-kit/cbt-dashboard/internal/auth"
	"github.com/spec-kit/cbt-dashboard/internal/service"
	apperrors "github.com/spec-kit/cbt-dashboard/pkg/util"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	profiles Profiles
	avatars  AvatarUploads
}

// NewProfileHandler constructs handler.
func NewProfileHandler(profiles Profiles, avatars AvatarUploads) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, avatars: avatars}
}

// Get handles GET /api/profile.
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	session, err := requireSession(c)
	if err != nil {
		return err
	}
	profile, err := h.profiles.Get(c.UserContext(), session.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(profile.User, profile.AvatarURL)})
}

// Update handles PATCH /api/profile. Unknown fields such as email or role are ignored.
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	session, err := requireSession(c)
	if err != nil {
		return err
	}
	var req dto.ProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	profile, err := h.profiles.UpdateProfile(c.UserContext(), session.UserID, req.ToDomain())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(profile.User, profile.AvatarURL)})
}

// AvatarUpload handles POST /api/profile/avatar.
func (h *ProfileHandler) AvatarUpload(c *fiber.Ctx) error {
	session, err := requireSession(c)
	if err != nil {
		return err
	}
	upload, err := h.avatars.UploadURL(c.UserContext(), session.UserID)
	if err != nil {
		if errors.Is(err, service.ErrStorageDisabled) {
			return apperrors.NewDomainError("STORAGE_DISABLED", "avatar uploads are not available", http.StatusServiceUnavailable, nil)
		}
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.AvatarUploadResponse{
		Key:       upload.Key,
		URL:       upload.URL,
		ExpiresAt: upload.ExpiresAt,
	}})
}

// requireSession is a backstop for routes mounted behind the guard.
func requireSession(c *fiber.Ctx) (*auth.Session, error) {
	session, state := auth.SessionFromContext(c)
	if session == nil || state != auth.StateAuthenticated {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return session, nil
}
