package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/cbt-dashboard/internal/api/dto"
	"github.com/spec-kit/cbt-dashboard/internal/auth"
	"github.com/spec-kit/cbt-dashboard/internal/service"
	apperrors "github.com/spec-kit/cbt-dashboard/pkg/util"
)

const (
	oauthStateCookie = "cbt_oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

// CookieSettings controls the session cookie.
type CookieSettings struct {
	Name   string
	Secure bool
}

// AuthHandler exposes sign-in, sign-out and password reset endpoints.
type AuthHandler struct {
	auth          Authenticator
	resets        PasswordResetter
	oauth         OAuthProviders
	cookie        CookieSettings
	loginPath     string
	dashboardPath string
	logger        *zap.Logger
}

// AuthHandlerConfig bundles AuthHandler dependencies.
type AuthHandlerConfig struct {
	Auth          Authenticator
	Resets        PasswordResetter
	OAuth         OAuthProviders
	Cookie        CookieSettings
	LoginPath     string
	DashboardPath string
	Logger        *zap.Logger
}

// NewAuthHandler constructs handler.
func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		auth:          cfg.Auth,
		resets:        cfg.Resets,
		oauth:         cfg.OAuth,
		cookie:        cfg.Cookie,
		loginPath:     cfg.LoginPath,
		dashboardPath: cfg.DashboardPath,
		logger:        logger,
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	result, err := h.auth.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	h.setSessionCookie(c, result)
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": authPayload(result)})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	h.setSessionCookie(c, result)
	return c.JSON(fiber.Map{"data": authPayload(result)})
}

// Logout handles POST /auth/logout. It always ends on the login page.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if session, _ := auth.SessionFromContext(c); session != nil {
		if err := h.auth.Logout(c.UserContext(), session); err != nil {
			return err
		}
	}
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(h.loginPath, http.StatusSeeOther)
}

// ForgotPassword handles POST /auth/password/forgot. The response never reveals whether the email exists.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.PasswordForgotRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.resets.RequestReset(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"data": dto.MessageResponse{Message: "if the account exists, a reset link has been sent"},
	})
}

// ResetPassword handles POST /auth/password/reset.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.resets.CompleteReset(c.UserContext(), req.Token, req.Password); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: "password has been reset"}})
}

// OAuthStart handles GET /auth/oauth/:provider.
func (h *AuthHandler) OAuthStart(c *fiber.Ctx) error {
	name := c.Params("provider")
	if h.oauth == nil || !h.oauth.Enabled(name) {
		return apperrors.NewNotFound("provider", map[string]any{"provider": name})
	}
	state, err := h.oauth.StateToken()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	url, err := h.oauth.AuthURL(name, state)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth/oauth",
		Expires:  time.Now().Add(oauthStateTTL),
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(url, http.StatusFound)
}

// OAuthCallback handles GET /auth/oauth/:provider/callback.
func (h *AuthHandler) OAuthCallback(c *fiber.Ctx) error {
	name := c.Params("provider")
	if h.oauth == nil || !h.oauth.Enabled(name) {
		return apperrors.NewNotFound("provider", map[string]any{"provider": name})
	}
	state := c.Cookies(oauthStateCookie)
	got := c.Query("state")
	if state == "" || subtle.ConstantTimeCompare([]byte(state), []byte(got)) != 1 {
		return apperrors.NewValidationError("oauth state mismatch", map[string]any{"field": "state"})
	}
	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Path:     "/auth/oauth",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
	})

	code := c.Query("code")
	if code == "" {
		return apperrors.NewValidationError("authorization code missing", map[string]any{"field": "code"})
	}
	profile, err := h.oauth.Exchange(c.UserContext(), name, code)
	if err != nil {
		if errors.Is(err, auth.ErrUnknownProvider) {
			return apperrors.NewNotFound("provider", nil)
		}
		h.logger.Warn("oauth exchange failed", zap.String("provider", name), zap.Error(err))
		return apperrors.NewUnauthorized("external sign-in failed")
	}

	result, err := h.auth.LoginExternal(c.UserContext(), profile)
	if err != nil {
		return err
	}
	h.setSessionCookie(c, result)
	return c.Redirect(h.dashboardPath, http.StatusSeeOther)
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, result *service.AuthResult) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.Session.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func authPayload(result *service.AuthResult) fiber.Map {
	return fiber.Map{
		"user": dto.NewUserResponse(result.User, ""),
		"auth": dto.AuthResponse{Token: result.Token, ExpiresAt: result.Session.ExpiresAt},
	}
}
