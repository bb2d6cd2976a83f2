package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/cbt-dashboard/internal/auth"
	"github.com/spec-kit/cbt-dashboard/internal/domain"
	"github.com/spec-kit/cbt-dashboard/internal/observability"
	"github.com/spec-kit/cbt-dashboard/internal/repository"
)

// AuthService coordinates registration, login and sign-out.
type AuthService struct {
	users       repository.UserRepository
	hasher      auth.Hasher
	tokens      *auth.TokenManager
	revocations auth.RevocationStore
	metrics     *observability.Metrics
	logger      *zap.Logger

	// decoyHash is compared against when the email is unknown so both failure paths cost one bcrypt run.
	decoyHash string
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	Users       repository.UserRepository
	Hasher      auth.Hasher
	Tokens      *auth.TokenManager
	Revocations auth.RevocationStore
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) (*AuthService, error) {
	decoy, err := deps.Hasher.Hash("decoy-password-for-unknown-accounts")
	if err != nil {
		return nil, fmt.Errorf("prepare decoy hash: %w", err)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:       deps.Users,
		hasher:      deps.Hasher,
		tokens:      deps.Tokens,
		revocations: deps.Revocations,
		metrics:     deps.Metrics,
		logger:      logger,
		decoyHash:   decoy,
	}, nil
}

// AuthResult is returned on a successful sign-in.
type AuthResult struct {
	User    *domain.User
	Token   string
	Session *auth.Session
}

// Register creates a password account and signs it in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = domain.NormalizeEmail(email)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: &hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.metrics.RecordAuthEvent("register", true)
	return s.issue(user)
}

// Login verifies credentials. Unknown email, password mismatch and password-less accounts
// all return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = domain.NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash := s.decoyHash
	if user != nil && user.HasPassword() {
		hash = *user.PasswordHash
	}
	matched := s.hasher.Verify(password, hash)
	if user == nil || !user.HasPassword() || !matched {
		s.metrics.RecordAuthEvent("login", false)
		return nil, domain.ErrInvalidCredentials
	}

	s.metrics.RecordAuthEvent("login", true)
	return s.issue(user)
}

// LoginExternal signs in a user vouched for by an OAuth provider, creating the account on first use.
func (s *AuthService) LoginExternal(ctx context.Context, profile auth.ExternalProfile) (*AuthResult, error) {
	email := domain.NormalizeEmail(profile.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	user, err := s.users.UpsertExternal(ctx, email, name, profile.Provider)
	if err != nil {
		s.metrics.RecordAuthEvent("login_external", false)
		return nil, err
	}
	s.metrics.RecordAuthEvent("login_external", true)
	return s.issue(user)
}

// Logout revokes the session so its token is refused until it would have expired.
func (s *AuthService) Logout(ctx context.Context, session *auth.Session) error {
	if session == nil {
		return nil
	}
	if err := s.revocations.Revoke(ctx, session.TokenID, session.ExpiresAt); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.metrics.RecordAuthEvent("logout", true)
	return nil
}

// CurrentRole reads the stored role; the authorization guard uses it for privileged routes.
func (s *AuthService) CurrentRole(ctx context.Context, userID string) (domain.Role, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

// SessionTTL exposes the token lifetime for cookie expiry.
func (s *AuthService) SessionTTL() time.Duration {
	return s.tokens.TTL()
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, session, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &AuthResult{User: user, Token: token, Session: session}, nil
}
