package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/cbt-dashboard/internal/api/dto"
)

// AcademicHandler serves public academic metadata.
type AcademicHandler struct {
	catalog AcademicCatalog
}

// NewAcademicHandler constructs handler.
func NewAcademicHandler(catalog AcademicCatalog) *AcademicHandler {
	return &AcademicHandler{catalog: catalog}
}

// List handles GET /api/academic.
func (h *AcademicHandler) List(c *fiber.Ctx) error {
	catalog, err := h.catalog.Catalog(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAcademicResponse(catalog.Departments, catalog.Levels)})
}
