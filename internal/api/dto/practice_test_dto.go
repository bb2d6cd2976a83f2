package dto

import (
	"time"

	"github.com/spec-kit/cbt-dashboard/internal/domain"
)

// PracticeTestRequest is the create and update payload.
type PracticeTestRequest struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	DepartmentID    *string `json:"department_id"`
	LevelID         *string `json:"level_id"`
	DurationMinutes int     `json:"duration_minutes"`
	QuestionCount   int     `json:"question_count"`
	Published       bool    `json:"published"`
}

// PracticeTestResponse payload.
type PracticeTestResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DepartmentID    *string   `json:"department_id"`
	LevelID         *string   `json:"level_id"`
	DurationMinutes int       `json:"duration_minutes"`
	QuestionCount   int       `json:"question_count"`
	Published       bool      `json:"published"`
	CreatedBy       *string   `json:"created_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewPracticeTestResponse builds the response.
func NewPracticeTestResponse(test *domain.PracticeTest) PracticeTestResponse {
	return PracticeTestResponse{
		ID:              test.ID,
		Title:           test.Title,
		Description:     test.Description,
		DepartmentID:    test.DepartmentID,
		LevelID:         test.LevelID,
		DurationMinutes: test.DurationMinutes,
		QuestionCount:   test.QuestionCount,
		Published:       test.Published,
		CreatedBy:       test.CreatedBy,
		CreatedAt:       test.CreatedAt,
		UpdatedAt:       test.UpdatedAt,
	}
}
