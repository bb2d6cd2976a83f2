package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/cbt-dashboard/internal/api/dto"
	"github.com/spec-kit/cbt-dashboard/internal/auth"
	"github.com/spec-kit/cbt-dashboard/internal/domain"
	"github.com/spec-kit/cbt-dashboard/internal/service"
	apperrors "github.com/spec-kit/cbt-dashboard/pkg/util"
)

// PracticeTestsHandler exposes practice test endpoints.
type PracticeTestsHandler struct {
	tests PracticeTests
	roles auth.RoleSource
}

// NewPracticeTestsHandler constructs handler.
func NewPracticeTestsHandler(tests PracticeTests, roles auth.RoleSource) *PracticeTestsHandler {
	return &PracticeTestsHandler{tests: tests, roles: roles}
}

// List handles GET /api/practice-tests. Drafts are only listed for admins.
func (h *PracticeTestsHandler) List(c *fiber.Ctx) error {
	session, err := requireSession(c)
	if err != nil {
		return err
	}
	filter, err := parsePracticeTestFilter(c)
	if err != nil {
		return err
	}
	includeDrafts, err := seesDrafts(c, session, h.roles)
	if err != nil {
		return err
	}
	tests, err := h.tests.List(c.UserContext(), filter, includeDrafts)
	if err != nil {
		return err
	}
	resp := make([]dto.PracticeTestResponse, 0, len(tests))
	for i := range tests {
		resp = append(resp, dto.NewPracticeTestResponse(&tests[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get handles GET /api/practice-tests/:id.
func (h *PracticeTestsHandler) Get(c *fiber.Ctx) error {
	session, err := requireSession(c)
	if err != nil {
		return err
	}
	includeDrafts, err := seesDrafts(c, session, h.roles)
	if err != nil {
		return err
	}
	test, err := h.tests.Get(c.UserContext(), c.Params("id"), includeDrafts)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPracticeTestResponse(test)})
}

// Create handles POST /api/practice-tests.
func (h *PracticeTestsHandler) Create(c *fiber.Ctx) error {
	session, err := requireSession(c)
	if err != nil {
		return err
	}
	var req dto.PracticeTestRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	test, err := h.tests.Create(c.UserContext(), session.UserID, practiceTestInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewPracticeTestResponse(test)})
}

// Update handles PUT /api/practice-tests/:id.
func (h *PracticeTestsHandler) Update(c *fiber.Ctx) error {
	var req dto.PracticeTestRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	test, err := h.tests.Update(c.UserContext(), c.Params("id"), practiceTestInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPracticeTestResponse(test)})
}

// Delete handles DELETE /api/practice-tests/:id.
func (h *PracticeTestsHandler) Delete(c *fiber.Ctx) error {
	if err := h.tests.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: "practice test deleted"}})
}

// seesDrafts confirms an admin token against the stored role before showing unpublished tests.
func seesDrafts(c *fiber.Ctx, session *auth.Session, roles auth.RoleSource) (bool, error) {
	if !session.IsAdmin() || roles == nil {
		return false, nil
	}
	role, err := roles.CurrentRole(c.UserContext(), session.UserID)
	if err != nil {
		return false, err
	}
	return role == domain.RoleAdmin, nil
}

func practiceTestInput(req dto.PracticeTestRequest) service.PracticeTestInput {
	return service.PracticeTestInput{
		Title:           req.Title,
		Description:     req.Description,
		DepartmentID:    req.DepartmentID,
		LevelID:         req.LevelID,
		DurationMinutes: req.DurationMinutes,
		QuestionCount:   req.QuestionCount,
		Published:       req.Published,
	}
}

func parsePracticeTestFilter(c *fiber.Ctx) (domain.PracticeTestFilter, error) {
	var filter domain.PracticeTestFilter
	if val := c.Query("department_id"); val != "" {
		filter.DepartmentID = &val
	}
	if val := c.Query("level_id"); val != "" {
		filter.LevelID = &val
	}
	if val := c.Query("published"); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			return filter, apperrors.NewValidationError("published must be a boolean", map[string]any{"field": "published"})
		}
		filter.Published = &parsed
	}
	return filter, nil
}
