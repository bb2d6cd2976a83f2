package repository

import (
	"context"
	"fmt"

	"github.com/spec-kit/cbt-dashboard/internal/domain"
)

// AcademicRepository reads departments and levels.
type AcademicRepository interface {
	ListDepartments(ctx context.Context) ([]domain.Department, error)
	ListLevels(ctx context.Context) ([]domain.Level, error)
}

type academicRepository struct {
	db DBTX
}

// NewAcademicRepository builds the repository.
func NewAcademicRepository(db DBTX) AcademicRepository {
	return &academicRepository{db: db}
}

func (r *academicRepository) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	const query = `
        SELECT id, name, created_at
        FROM departments ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Department, 0)
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(&dept.ID, &dept.Name, &dept.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}

func (r *academicRepository) ListLevels(ctx context.Context) ([]domain.Level, error) {
	const query = `
        SELECT id, value, created_at
        FROM levels ORDER BY value ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Level, 0)
	for rows.Next() {
		var level domain.Level
		if err := rows.Scan(&level.ID, &level.Value, &level.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan level: %w", err)
		}
		result = append(result, level)
	}
	return result, rows.Err()
}
