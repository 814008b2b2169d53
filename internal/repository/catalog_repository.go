package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/coursecraft-api/internal/models"
)

// CatalogRepository reads programs and courses from PostgreSQL.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository instantiates a catalog repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListPrograms returns every program ordered by name.
func (r *CatalogRepository) ListPrograms(ctx context.Context) ([]models.Program, error) {
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, "SELECT id, name, description FROM programs ORDER BY name, id"); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// FindProgram fetches one program. It returns sql.ErrNoRows when absent.
func (r *CatalogRepository) FindProgram(ctx context.Context, id string) (*models.Program, error) {
	var program models.Program
	if err := r.db.GetContext(ctx, &program, "SELECT id, name, description FROM programs WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &program, nil
}

// ListCourses returns courses ordered by code, optionally filtered by a case
// insensitive match on code or name.
func (r *CatalogRepository) ListCourses(ctx context.Context, search string) ([]models.Course, error) {
	query := "SELECT code, name, credits, description FROM courses"
	var args []interface{}
	if search = strings.TrimSpace(search); search != "" {
		query += " WHERE code ILIKE $1 OR name ILIKE $1"
		args = append(args, "%"+search+"%")
	}
	query += " ORDER BY code"

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindCourse fetches one course by code. It returns sql.ErrNoRows when absent.
func (r *CatalogRepository) FindCourse(ctx context.Context, code string) (*models.Course, error) {
	var course models.Course
	if err := r.db.GetContext(ctx, &course, "SELECT code, name, credits, description FROM courses WHERE code = $1", code); err != nil {
		return nil, err
	}
	return &course, nil
}
