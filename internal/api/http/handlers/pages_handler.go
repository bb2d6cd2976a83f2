package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/cbt-dashboard/internal/api/dto"
	"github.com/spec-kit/cbt-dashboard/internal/domain"
)

// PagesHandler returns the data behind the server-rendered pages.
type PagesHandler struct {
	profiles  Profiles
	tests     PracticeTests
	providers []string
}

// NewPagesHandler constructs handler. providers lists the enabled external sign-in providers.
func NewPagesHandler(profiles Profiles, tests PracticeTests, providers []string) *PagesHandler {
	if providers == nil {
		providers = []string{}
	}
	return &PagesHandler{profiles: profiles, tests: tests, providers: providers}
}

// Login handles GET /login.
func (h *PagesHandler) Login(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": fiber.Map{"page": "login", "providers": h.providers}})
}

// Unauthorized handles GET /unauthorized.
func (h *PagesHandler) Unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"data": fiber.Map{
		"page":    "unauthorized",
		"message": "you do not have access to that page",
	}})
}

// Dashboard handles GET /dashboard.
func (h *PagesHandler) Dashboard(c *fiber.Ctx) error {
	return h.render(c, "dashboard", false)
}

// Admin handles GET /admin.
func (h *PagesHandler) Admin(c *fiber.Ctx) error {
	return h.render(c, "admin", true)
}

func (h *PagesHandler) render(c *fiber.Ctx, page string, includeDrafts bool) error {
	session, err := requireSession(c)
	if err != nil {
		return err
	}
	profile, err := h.profiles.Get(c.UserContext(), session.UserID)
	if err != nil {
		return err
	}
	tests, err := h.tests.List(c.UserContext(), domain.PracticeTestFilter{}, includeDrafts)
	if err != nil {
		return err
	}
	resp := make([]dto.PracticeTestResponse, 0, len(tests))
	for i := range tests {
		resp = append(resp, dto.NewPracticeTestResponse(&tests[i]))
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"page":           page,
		"user":           dto.NewUserResponse(profile.User, profile.AvatarURL),
		"practice_tests": resp,
	}})
}
