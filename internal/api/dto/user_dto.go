package dto

import (
	"time"

	"github.com/spec-kit/cbt-dashboard/internal/domain"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PasswordForgotRequest starts a reset.
type PasswordForgotRequest struct {
	Email string `json:"email"`
}

// PasswordResetRequest completes a reset.
type PasswordResetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ProfileUpdateRequest lists the only fields a user may change on their own account.
type ProfileUpdateRequest struct {
	Name        *string `json:"name"`
	AvatarStyle *string `json:"avatar_style"`
	AvatarSeed  *string `json:"avatar_seed"`
	AvatarKey   *string `json:"avatar_key"`
}

// ToDomain converts the request.
func (r ProfileUpdateRequest) ToDomain() domain.ProfileUpdate {
	return domain.ProfileUpdate{
		Name:        r.Name,
		AvatarStyle: r.AvatarStyle,
		AvatarSeed:  r.AvatarSeed,
		AvatarKey:   r.AvatarKey,
	}
}

// UserResponse is the public view of a user. Hashes and reset tokens never leave the server.
type UserResponse struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	Role         domain.Role `json:"role"`
	AvatarStyle  *string     `json:"avatar_style,omitempty"`
	AvatarSeed   *string     `json:"avatar_seed,omitempty"`
	AvatarURL    string      `json:"avatar_url,omitempty"`
	AuthProvider *string     `json:"auth_provider,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// NewUserResponse builds the response from a user.
func NewUserResponse(user *domain.User, avatarURL string) UserResponse {
	return UserResponse{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         user.Role,
		AvatarStyle:  user.AvatarStyle,
		AvatarSeed:   user.AvatarSeed,
		AvatarURL:    avatarURL,
		AuthProvider: user.AuthProvider,
		CreatedAt:    user.CreatedAt,
	}
}

// AvatarUploadResponse tells the client where to upload.
type AvatarUploadResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MessageResponse wraps a human readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}
