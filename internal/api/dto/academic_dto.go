package dto

import "github.com/spec-kit/cbt-dashboard/internal/domain"

// DepartmentResponse payload.
type DepartmentResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LevelResponse payload.
type LevelResponse struct {
	ID    string `json:"id"`
	Value int    `json:"value"`
}

// AcademicResponse lists departments and levels. Both slices are always non-nil.
type AcademicResponse struct {
	Departments []DepartmentResponse `json:"departments"`
	Levels      []LevelResponse      `json:"levels"`
}

// NewAcademicResponse builds the response.
func NewAcademicResponse(departments []domain.Department, levels []domain.Level) AcademicResponse {
	resp := AcademicResponse{
		Departments: make([]DepartmentResponse, 0, len(departments)),
		Levels:      make([]LevelResponse, 0, len(levels)),
	}
	for _, d := range departments {
		resp.Departments = append(resp.Departments, DepartmentResponse{ID: d.ID, Name: d.Name})
	}
	for _, l := range levels {
		resp.Levels = append(resp.Levels, LevelResponse{ID: l.ID, Value: l.Value})
	}
	return resp
}
