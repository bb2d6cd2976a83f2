package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/spec-kit/cbt-dashboard/internal/domain"
	"github.com/spec-kit/cbt-dashboard/internal/repository"
)

const (
	maxDurationMinutes = 600
	maxQuestionCount   = 500
)

// PracticeTestInput is the editable part of a practice test.
type PracticeTestInput struct {
	Title           string
	Description     string
	DepartmentID    *string
	LevelID         *string
	DurationMinutes int
	QuestionCount   int
	Published       bool
}

// PracticeTestService manages practice tests.
type PracticeTestService struct {
	repo repository.PracticeTestRepository
}

// NewPracticeTestService builds the service.
func NewPracticeTestService(repo repository.PracticeTestRepository) *PracticeTestService {
	return &PracticeTestService{repo: repo}
}

// List returns tests matching filter, newest first. Non-admin callers only see published tests,
// so asking for drafts without that right matches nothing.
func (s *PracticeTestService) List(ctx context.Context, filter domain.PracticeTestFilter, includeDrafts bool) ([]domain.PracticeTest, error) {
	if !includeDrafts {
		if filter.Published != nil && !*filter.Published {
			return []domain.PracticeTest{}, nil
		}
		published := true
		filter.Published = &published
	}
	if err := validateOptionalID("department_id", filter.DepartmentID); err != nil {
		return nil, err
	}
	if err := validateOptionalID("level_id", filter.LevelID); err != nil {
		return nil, err
	}
	tests, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if tests == nil {
		tests = []domain.PracticeTest{}
	}
	return tests, nil
}

// Get returns a single test. Drafts are hidden from non-admin callers.
func (s *PracticeTestService) Get(ctx context.Context, id string, includeDrafts bool) (*domain.PracticeTest, error) {
	if !isUUID(id) {
		return nil, domain.ErrNotFound
	}
	test, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !test.Published && !includeDrafts {
		return nil, domain.ErrNotFound
	}
	return test, nil
}

// Create stores a new test authored by createdBy.
func (s *PracticeTestService) Create(ctx context.Context, createdBy string, input PracticeTestInput) (*domain.PracticeTest, error) {
	input, err := normalizePracticeTestInput(input)
	if err != nil {
		return nil, err
	}
	test := &domain.PracticeTest{
		Title:           input.Title,
		Description:     input.Description,
		DepartmentID:    input.DepartmentID,
		LevelID:         input.LevelID,
		DurationMinutes: input.DurationMinutes,
		QuestionCount:   input.QuestionCount,
		Published:       input.Published,
		CreatedBy:       &createdBy,
	}
	if err := s.repo.Create(ctx, test); err != nil {
		return nil, err
	}
	return test, nil
}

// Update replaces the editable fields of an existing test.
func (s *PracticeTestService) Update(ctx context.Context, id string, input PracticeTestInput) (*domain.PracticeTest, error) {
	if !isUUID(id) {
		return nil, domain.ErrNotFound
	}
	input, err := normalizePracticeTestInput(input)
	if err != nil {
		return nil, err
	}
	test, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	test.Title = input.Title
	test.Description = input.Description
	test.DepartmentID = input.DepartmentID
	test.LevelID = input.LevelID
	test.DurationMinutes = input.DurationMinutes
	test.QuestionCount = input.QuestionCount
	test.Published = input.Published
	if err := s.repo.Update(ctx, test); err != nil {
		return nil, err
	}
	return test, nil
}

// Delete removes a test. A missing id is ErrNotFound, never a silent success.
func (s *PracticeTestService) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return domain.ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func normalizePracticeTestInput(in PracticeTestInput) (PracticeTestInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	switch n := utf8.RuneCountInString(in.Title); {
	case n == 0:
		return in, domain.Invalid("title", "is required")
	case n > maxTitleLength:
		return in, domain.Invalid("title", "must be at most 200 characters")
	}
	if in.DurationMinutes < 1 || in.DurationMinutes > maxDurationMinutes {
		return in, domain.Invalid("duration_minutes", "must be between 1 and 600")
	}
	if in.QuestionCount < 1 || in.QuestionCount > maxQuestionCount {
		return in, domain.Invalid("question_count", "must be between 1 and 500")
	}
	if err := validateOptionalID("department_id", in.DepartmentID); err != nil {
		return in, err
	}
	if err := validateOptionalID("level_id", in.LevelID); err != nil {
		return in, err
	}
	return in, nil
}

func validateOptionalID(field string, id *string) error {
	if id != nil && !isUUID(*id) {
		return domain.Invalid(field, "must be a valid id")
	}
	return nil
}

// isUUID accepts only the canonical 36 character form; uuid.Parse also takes
// urn and braced forms that the uuid column type rejects.
func isUUID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
