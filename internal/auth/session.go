package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/cbt-dashboard/internal/domain"
)

// SessionState is where a request sits in the session lifecycle.
type SessionState int

const (
	StateAnonymous SessionState = iota
	StateAuthenticated
	StateExpired
	StateSignedOut
)

func (s SessionState) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateExpired:
		return "expired"
	case StateSignedOut:
		return "signed_out"
	default:
		return "anonymous"
	}
}

// Session binds a request to a user. It lives only in the signed token.
type Session struct {
	UserID    string
	Role      domain.Role
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsAdmin reports whether the token carries the admin role.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == domain.RoleAdmin
}

// SessionResolver turns a raw token into a session and its lifecycle state.
type SessionResolver struct {
	tokens      *TokenManager
	revocations RevocationStore
}

// NewSessionResolver builds a resolver.
func NewSessionResolver(tokens *TokenManager, revocations RevocationStore) *SessionResolver {
	return &SessionResolver{tokens: tokens, revocations: revocations}
}

// Resolve returns the session for rawToken. Errors are reserved for revocation store failures;
// bad or missing tokens resolve to a nil session with a non-authenticated state.
func (r *SessionResolver) Resolve(ctx context.Context, rawToken string) (*Session, SessionState, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, StateAnonymous, nil
	}

	session, err := r.tokens.Parse(rawToken)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, StateExpired, nil
		}
		return nil, StateAnonymous, nil
	}

	revoked, err := r.revocations.IsRevoked(ctx, session.TokenID)
	if err != nil {
		return nil, StateAnonymous, err
	}
	if revoked {
		return nil, StateSignedOut, nil
	}
	return session, StateAuthenticated, nil
}
