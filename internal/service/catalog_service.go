package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/coursecraft-api/internal/models"
	appErrors "github.com/noah-isme/coursecraft-api/pkg/errors"
)

const (
	cacheKeyPrograms = "catalog:programs"
	cacheKeyCourses  = "catalog:courses"
)

type catalogRepository interface {
	ListPrograms(ctx context.Context) ([]models.Program, error)
	FindProgram(ctx context.Context, id string) (*models.Program, error)
	ListCourses(ctx context.Context, search string) ([]models.Course, error)
	FindCourse(ctx context.Context, code string) (*models.Course, error)
}

// CatalogService serves read-only program and course lookups with a read-through cache.
type CatalogService struct {
	repo     catalogRepository
	cache    *CacheService
	metrics  *MetricsService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewCatalogService constructs a catalog service. cache and metrics may be nil.
func NewCatalogService(repo catalogRepository, cache *CacheService, metrics *MetricsService, cacheTTL time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, cache: cache, metrics: metrics, cacheTTL: cacheTTL, logger: logger}
}

// ListPrograms returns all programs.
func (s *CatalogService) ListPrograms(ctx context.Context) ([]models.Program, error) {
	var programs []models.Program
	if s.cache.Get(ctx, cacheKeyPrograms, &programs) {
		return programs, nil
	}
	start := time.Now()
	programs, err := s.repo.ListPrograms(ctx)
	s.metrics.ObserveDBQuery("list_programs", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	if programs == nil {
		programs = []models.Program{}
	}
	s.cache.Set(ctx, cacheKeyPrograms, programs, s.cacheTTL)
	return programs, nil
}

// GetProgram returns one program or ErrNotFound.
func (s *CatalogService) GetProgram(ctx context.Context, id string) (*models.Program, error) {
	start := time.Now()
	program, err := s.repo.FindProgram(ctx, id)
	s.metrics.ObserveDBQuery("find_program", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	return program, nil
}

// ListCourses returns courses, filtered when search is non-empty. Only the
// unfiltered list is cached.
func (s *CatalogService) ListCourses(ctx context.Context, search string) ([]models.Course, error) {
	var courses []models.Course
	if search == "" && s.cache.Get(ctx, cacheKeyCourses, &courses) {
		return courses, nil
	}
	start := time.Now()
	courses, err := s.repo.ListCourses(ctx, search)
	s.metrics.ObserveDBQuery("list_courses", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	if courses == nil {
		courses = []models.Course{}
	}
	if search == "" {
		s.cache.Set(ctx, cacheKeyCourses, courses, s.cacheTTL)
	}
	return courses, nil
}

// GetCourse returns one course or ErrNotFound.
func (s *CatalogService) GetCourse(ctx context.Context, code string) (*models.Course, error) {
	start := time.Now()
	course, err := s.repo.FindCourse(ctx, code)
	s.metrics.ObserveDBQuery("find_course", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// CourseIndex returns every course keyed by code, used for labels and credit totals.
func (s *CatalogService) CourseIndex(ctx context.Context) (map[string]models.Course, error) {
	courses, err := s.ListCourses(ctx, "")
	if err != nil {
		return nil, err
	}
	index := make(map[string]models.Course, len(courses))
	for _, course := range courses {
		index[course.Code] = course
	}
	return index, nil
}
