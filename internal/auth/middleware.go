package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/cbt-dashboard/pkg/util"
)

const (
	sessionKey      = "auth_session"
	sessionStateKey = "auth_session_state"
)

// SessionMiddleware resolves the caller's session once per request and stores it in the request locals.
type SessionMiddleware struct {
	resolver   *SessionResolver
	cookieName string
	logger     *zap.Logger
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(resolver *SessionResolver, cookieName string, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{resolver: resolver, cookieName: cookieName, logger: logger}
}

// Handle never rejects a request; the guard decides what an absent session means.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	session, state, err := m.resolver.Resolve(c.UserContext(), m.rawToken(c))
	if err != nil {
		m.logger.Error("resolve session", zap.Error(err))
		return apperrors.NewInternalError(err)
	}
	c.Locals(sessionStateKey, state)
	if session != nil {
		c.Locals(sessionKey, session)
	}
	return c.Next()
}

func (m *SessionMiddleware) rawToken(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Cookies(m.cookieName)
}

// SessionFromContext returns the session resolved for this request, if any.
func SessionFromContext(c *fiber.Ctx) (*Session, SessionState) {
	state, _ := c.Locals(sessionStateKey).(SessionState)
	session, ok := c.Locals(sessionKey).(*Session)
	if !ok {
		return nil, state
	}
	return session, state
}
