package service

import (
	"context"

	"github.com/spec-kit/cbt-dashboard/internal/domain"
	"github.com/spec-kit/cbt-dashboard/internal/repository"
)

// AcademicCatalog is the public department and level listing.
type AcademicCatalog struct {
	Departments []domain.Department
	Levels      []domain.Level
}

// AcademicService reads academic metadata.
type AcademicService struct {
	repo repository.AcademicRepository
}

// NewAcademicService builds the service.
func NewAcademicService(repo repository.AcademicRepository) *AcademicService {
	return &AcademicService{repo: repo}
}

// Catalog returns departments by name and levels by value. Empty tables yield empty slices.
func (s *AcademicService) Catalog(ctx context.Context) (*AcademicCatalog, error) {
	departments, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, err
	}
	levels, err := s.repo.ListLevels(ctx)
	if err != nil {
		return nil, err
	}
	if departments == nil {
		departments = []domain.Department{}
	}
	if levels == nil {
		levels = []domain.Level{}
	}
	return &AcademicCatalog{Departments: departments, Levels: levels}, nil
}
