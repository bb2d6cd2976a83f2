package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/cbt-dashboard/internal/domain"
)

// PracticeTestRepository manages practice test persistence.
type PracticeTestRepository interface {
	Create(ctx context.Context, test *domain.PracticeTest) error
	Update(ctx context.Context, test *domain.PracticeTest) error
	GetByID(ctx context.Context, id string) (*domain.PracticeTest, error)
	List(ctx context.Context, filter domain.PracticeTestFilter) ([]domain.PracticeTest, error)
	Delete(ctx context.Context, id string) error
}

const practiceTestColumns = `id, title, description, department_id, level_id, duration_minutes,
        question_count, published, created_by, created_at, updated_at`

type practiceTestRepository struct {
	db DBTX
}

// NewPracticeTestRepository builds the repository.
func NewPracticeTestRepository(db DBTX) PracticeTestRepository {
	return &practiceTestRepository{db: db}
}

func scanPracticeTest(row pgx.Row) (*domain.PracticeTest, error) {
	var test domain.PracticeTest
	if err := row.Scan(
		&test.ID,
		&test.Title,
		&test.Description,
		&test.DepartmentID,
		&test.LevelID,
		&test.DurationMinutes,
		&test.QuestionCount,
		&test.Published,
		&test.CreatedBy,
		&test.CreatedAt,
		&test.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &test, nil
}

func (r *practiceTestRepository) Create(ctx context.Context, test *domain.PracticeTest) error {
	const query = `
        INSERT INTO practice_tests (title, description, department_id, level_id, duration_minutes, question_count, published, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		test.Title,
		test.Description,
		test.DepartmentID,
		test.LevelID,
		test.DurationMinutes,
		test.QuestionCount,
		test.Published,
		test.CreatedBy,
	).Scan(&test.ID, &test.CreatedAt, &test.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Invalid("department_id", "unknown department or level")
		}
		return fmt.Errorf("create practice test: %w", err)
	}
	return nil
}

func (r *practiceTestRepository) Update(ctx context.Context, test *domain.PracticeTest) error {
	const query = `
        UPDATE practice_tests SET title=$1, description=$2, department_id=$3, level_id=$4,
            duration_minutes=$5, question_count=$6, published=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		test.Title,
		test.Description,
		test.DepartmentID,
		test.LevelID,
		test.DurationMinutes,
		test.QuestionCount,
		test.Published,
		test.ID,
	).Scan(&test.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if isForeignKeyViolation(err) {
			return domain.Invalid("department_id", "unknown department or level")
		}
		return fmt.Errorf("update practice test: %w", err)
	}
	return nil
}

func (r *practiceTestRepository) GetByID(ctx context.Context, id string) (*domain.PracticeTest, error) {
	query := `SELECT ` + practiceTestColumns + ` FROM practice_tests WHERE id=$1`
	test, err := scanPracticeTest(r.db.QueryRow(ctx, query, id))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get practice test: %w", err)
	}
	return test, err
}

func (r *practiceTestRepository) List(ctx context.Context, filter domain.PracticeTestFilter) ([]domain.PracticeTest, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if filter.LevelID != nil {
		args = append(args, *filter.LevelID)
		clauses = append(clauses, fmt.Sprintf("level_id=$%d", len(args)))
	}
	if filter.Published != nil {
		args = append(args, *filter.Published)
		clauses = append(clauses, fmt.Sprintf("published=$%d", len(args)))
	}

	query := `SELECT ` + practiceTestColumns + ` FROM practice_tests`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list practice tests: %w", err)
	}
	defer rows.Close()

	result := make([]domain.PracticeTest, 0)
	for rows.Next() {
		test, err := scanPracticeTest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan practice test: %w", err)
		}
		result = append(result, *test)
	}
	return result, rows.Err()
}

func (r *practiceTestRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM practice_tests WHERE id=$1`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete practice test: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
