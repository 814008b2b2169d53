package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogRepoMock(t *testing.T) (*CatalogRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewCatalogRepository(sqlx.NewDb(db, "sqlmock")), mock, func() { db.Close() }
}

func TestCatalogRepositoryListPrograms(t *testing.T) {
	repo, mock, cleanup := newCatalogRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "name", "description"}).
		AddRow("CS-BSc", "Computer Science", "Honours").
		AddRow("MATH-BSc", "Mathematics", nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, description FROM programs ORDER BY name, id")).WillReturnRows(rows)

	programs, err := repo.ListPrograms(context.Background())
	require.NoError(t, err)
	require.Len(t, programs, 2)
	assert.Equal(t, "CS-BSc", programs[0].ID)
	require.NotNil(t, programs[0].Description)
	assert.Nil(t, programs[1].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryFindProgramMissing(t *testing.T) {
	repo, mock, cleanup := newCatalogRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, description FROM programs WHERE id = $1")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}))

	_, err := repo.FindProgram(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryListCoursesWithSearch(t *testing.T) {
	repo, mock, cleanup := newCatalogRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"code", "name", "credits", "description"}).
		AddRow("CS101", "Intro to Programming", 0.5, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT code, name, credits, description FROM courses WHERE code ILIKE $1 OR name ILIKE $1 ORDER BY code")).
		WithArgs("%intro%").
		WillReturnRows(rows)

	courses, err := repo.ListCourses(context.Background(), " intro ")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, 0.5, courses[0].Credits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryFindCourse(t *testing.T) {
	repo, mock, cleanup := newCatalogRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT code, name, credits, description FROM courses WHERE code = $1")).
		WithArgs("CS201").
		WillReturnRows(sqlmock.NewRows([]string{"code", "name", "credits", "description"}).AddRow("CS201", "Data Structures", 0.5, "Lists and trees"))

	course, err := repo.FindCourse(context.Background(), "CS201")
	require.NoError(t, err)
	assert.Equal(t, "Data Structures", course.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
