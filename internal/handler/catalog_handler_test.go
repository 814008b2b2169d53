package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursecraft-api/internal/models"
	appErrors "github.com/noah-isme/coursecraft-api/pkg/errors"
)

type catalogMock struct {
	search string
}

func (m *catalogMock) ListPrograms(ctx context.Context) ([]models.Program, error) {
	return []models.Program{{ID: "CS-BSc", Name: "Computer Science"}}, nil
}

func (m *catalogMock) GetProgram(ctx context.Context, id string) (*models.Program, error) {
	if id != "CS-BSc" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
	}
	return &models.Program{ID: id, Name: "Computer Science"}, nil
}

func (m *catalogMock) ListCourses(ctx context.Context, search string) ([]models.Course, error) {
	m.search = search
	return []models.Course{{Code: "CS101", Name: "Intro to Programming", Credits: 0.5}}, nil
}

func (m *catalogMock) GetCourse(ctx context.Context, code string) (*models.Course, error) {
	return &models.Course{Code: code, Name: "Intro to Programming", Credits: 0.5}, nil
}

func TestCatalogHandlerListPrograms(t *testing.T) {
	handler := &CatalogHandler{catalog: &catalogMock{}}
	c, w := newSessionContext(http.MethodGet, "/programs", "")

	handler.ListPrograms(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
	var programs []models.Program
	decodeData(t, w, &programs)
	assert.Equal(t, "Computer Science", programs[0].Name)
}

func TestCatalogHandlerGetProgramNotFound(t *testing.T) {
	handler := &CatalogHandler{catalog: &catalogMock{}}
	c, w := newSessionContext(http.MethodGet, "/programs/ART-BA", "")
	c.Params = gin.Params{{Key: "id", Value: "ART-BA"}}

	handler.GetProgram(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogHandlerListCoursesSearch(t *testing.T) {
	mock := &catalogMock{}
	handler := &CatalogHandler{catalog: mock}
	c, w := newSessionContext(http.MethodGet, "/courses?search=+intro+", "")

	handler.ListCourses(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "intro", mock.search)
}
