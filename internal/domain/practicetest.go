package domain

import "time"

// PracticeTest is a timed mock examination shown on the dashboard.
type PracticeTest struct {
	ID              string
	Title           string
	Description     string
	DepartmentID    *string
	LevelID         *string
	DurationMinutes int
	QuestionCount   int
	Published       bool
	CreatedBy       *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PracticeTestFilter narrows practice test listings.
type PracticeTestFilter struct {
	DepartmentID *string
	LevelID      *string
	Published    *bool
}
