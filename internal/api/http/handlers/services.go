package handlers

import (
	"context"

	"github.com/spec-kit/cbt-dashboard/internal/auth"
	"github.com/spec-kit/cbt-dashboard/internal/domain"
	"github.com/spec-kit/cbt-dashboard/internal/service"
)

// Authenticator signs users in and out.
type Authenticator interface {
	Register(ctx context.Context, name, email, password string) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	LoginExternal(ctx context.Context, profile auth.ExternalProfile) (*service.AuthResult, error)
	Logout(ctx context.Context, session *auth.Session) error
}

// PasswordResetter runs the forgotten password flow.
type PasswordResetter interface {
	RequestReset(ctx context.Context, email string) error
	CompleteReset(ctx context.Context, token, newPassword string) error
}

// OAuthProviders runs the external login flow.
type OAuthProviders interface {
	Enabled(name string) bool
	StateToken() (string, error)
	AuthURL(name, state string) (string, error)
	Exchange(ctx context.Context, name, code string) (auth.ExternalProfile, error)
}

// Profiles reads and edits the caller's profile.
type Profiles interface {
	Get(ctx context.Context, userID string) (*service.Profile, error)
	UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*service.Profile, error)
}

// AvatarUploads signs avatar uploads.
type AvatarUploads interface {
	UploadURL(ctx context.Context, userID string) (*service.AvatarUpload, error)
}

// AcademicCatalog lists departments and levels.
type AcademicCatalog interface {
	Catalog(ctx context.Context) (*service.AcademicCatalog, error)
}

// PracticeTests manages practice tests.
type PracticeTests interface {
	List(ctx context.Context, filter domain.PracticeTestFilter, includeDrafts bool) ([]domain.PracticeTest, error)
	Get(ctx context.Context, id string, includeDrafts bool) (*domain.PracticeTest, error)
	Create(ctx context.Context, createdBy string, input service.PracticeTestInput) (*domain.PracticeTest, error)
	Update(ctx context.Context, id string, input service.PracticeTestInput) (*domain.PracticeTest, error)
	Delete(ctx context.Context, id string) error
}
