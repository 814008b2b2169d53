package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/coursecraft-api/internal/models"
	"github.com/noah-isme/coursecraft-api/internal/service"
	"github.com/noah-isme/coursecraft-api/pkg/response"
)

type catalogReader interface {
	ListPrograms(ctx context.Context) ([]models.Program, error)
	GetProgram(ctx context.Context, id string) (*models.Program, error)
	ListCourses(ctx context.Context, search string) ([]models.Course, error)
	GetCourse(ctx context.Context, code string) (*models.Course, error)
}

// CatalogHandler exposes program and course lookups.
type CatalogHandler struct {
	catalog catalogReader
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListPrograms godoc
// @Summary List degree programs
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /programs [get]
func (h *CatalogHandler) ListPrograms(c *gin.Context) {
	programs, err := h.catalog.ListPrograms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, programs, map[string]interface{}{"total": len(programs)})
}

// GetProgram godoc
// @Summary Get a degree program
// @Tags Catalog
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Router /programs/{id} [get]
func (h *CatalogHandler) GetProgram(c *gin.Context) {
	program, err := h.catalog.GetProgram(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program)
}

// ListCourses godoc
// @Summary List courses
// @Tags Catalog
// @Produce json
// @Param search query string false "Matches code or name"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	courses, err := h.catalog.ListCourses(c.Request.Context(), strings.TrimSpace(c.Query("search")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, map[string]interface{}{"total": len(courses)})
}

// GetCourse godoc
// @Summary Get a course
// @Tags Catalog
// @Produce json
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Router /courses/{code} [get]
func (h *CatalogHandler) GetCourse(c *gin.Context) {
	course, err := h.catalog.GetCourse(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}
