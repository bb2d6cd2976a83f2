package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/cbt-dashboard/internal/domain"
	apperrors "github.com/spec-kit/cbt-dashboard/pkg/util"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
	RedirectToUnauthorized
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	default:
		return "redirect_to_unauthorized"
	}
}

// Predicate decides whether a role may proceed.
type Predicate struct {
	Name string
	// Privileged predicates are checked against the stored role rather than the token role.
	Privileged bool
	Allows     func(domain.Role) bool
}

var (
	AnyAuthenticated = Predicate{Name: "authenticated", Allows: func(domain.Role) bool { return true }}
	AdminOnly        = Predicate{Name: "admin", Privileged: true, Allows: func(r domain.Role) bool { return r == domain.RoleAdmin }}
)

// RoleSource reads a user's current role.
type RoleSource interface {
	CurrentRole(ctx context.Context, userID string) (domain.Role, error)
}

// Guard evaluates access on every protected request. Decisions are never cached.
type Guard struct {
	roles            RoleSource
	loginPath        string
	unauthorizedPath string
}

// NewGuard builds a guard redirecting to the given paths.
func NewGuard(roles RoleSource, loginPath, unauthorizedPath string) *Guard {
	return &Guard{roles: roles, loginPath: loginPath, unauthorizedPath: unauthorizedPath}
}

// Decide computes the decision for one request.
func (g *Guard) Decide(ctx context.Context, session *Session, state SessionState, pred Predicate) (Decision, error) {
	if session == nil || state != StateAuthenticated {
		return RedirectToLogin, nil
	}

	role := session.Role
	if pred.Privileged && g.roles != nil {
		current, err := g.roles.CurrentRole(ctx, session.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return RedirectToLogin, nil
			}
			return RedirectToUnauthorized, err
		}
		role = current
	}

	if !pred.Allows(role) {
		return RedirectToUnauthorized, nil
	}
	return Allow, nil
}

// Page guards HTML-facing routes by redirecting.
func (g *Guard) Page(pred Predicate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, state := SessionFromContext(c)
		decision, err := g.Decide(c.UserContext(), session, state, pred)
		if err != nil {
			return err
		}
		switch decision {
		case Allow:
			return c.Next()
		case RedirectToLogin:
			return c.Redirect(g.loginPath, http.StatusSeeOther)
		default:
			return c.Redirect(g.unauthorizedPath, http.StatusSeeOther)
		}
	}
}

// API guards JSON routes; redirects become 401 and 403 responses.
func (g *Guard) API(pred Predicate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, state := SessionFromContext(c)
		decision, err := g.Decide(c.UserContext(), session, state, pred)
		if err != nil {
			return err
		}
		switch decision {
		case Allow:
			return c.Next()
		case RedirectToLogin:
			return apperrors.NewUnauthorized("authentication required")
		default:
			return apperrors.NewForbidden(pred.Name + " role required")
		}
	}
}
