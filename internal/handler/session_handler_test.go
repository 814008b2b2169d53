package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursecraft-api/internal/dto"
	"github.com/noah-isme/coursecraft-api/internal/middleware"
	"github.com/noah-isme/coursecraft-api/internal/service"
	appErrors "github.com/noah-isme/coursecraft-api/pkg/errors"
)

type planningMock struct {
	sessionID   string
	programID   *string
	codes       []string
	toggled     string
	constraints dto.DegreePlanConstraints
	timetable   dto.GenerateTimetableRequest
	index       *int
	planStatus  dto.RequestStatus
	err         error
}

func (m *planningMock) CreateSession() *service.PlanningSession {
	return &service.PlanningSession{ID: "session-1"}
}

func (m *planningMock) view(id string) (*dto.SessionView, error) {
	m.sessionID = id
	if m.err != nil {
		return nil, m.err
	}
	return &dto.SessionView{SessionID: id, SelectedProgramID: m.programID, CompletedCourseCodes: m.codes}, nil
}

func (m *planningMock) SessionView(ctx context.Context, id string) (*dto.SessionView, error) {
	return m.view(id)
}

func (m *planningMock) ResetSession(ctx context.Context, id string) (*dto.SessionView, error) {
	m.programID, m.codes = nil, nil
	return m.view(id)
}

func (m *planningMock) SelectProgram(ctx context.Context, id string, programID *string) (*dto.SessionView, error) {
	m.programID = programID
	return m.view(id)
}

func (m *planningMock) SetCompletedCourses(ctx context.Context, id string, codes []string) (*dto.SessionView, error) {
	m.codes = codes
	return m.view(id)
}

func (m *planningMock) ToggleCompletedCourse(ctx context.Context, id, code string) (*dto.SessionView, error) {
	m.toggled = code
	return m.view(id)
}

func (m *planningMock) SubmitDegreePlan(ctx context.Context, id string, input dto.DegreePlanConstraints) (*dto.DegreePlanView, error) {
	m.sessionID = id
	m.constraints = input
	if m.err != nil {
		return nil, m.err
	}
	return &dto.DegreePlanView{Status: m.planStatus, Terms: []dto.PlannedTermView{}}, nil
}

func (m *planningMock) DegreePlanView(ctx context.Context, id string) (*dto.DegreePlanView, error) {
	return &dto.DegreePlanView{Status: m.planStatus, Terms: []dto.PlannedTermView{}}, nil
}

func (m *planningMock) SubmitTimetable(ctx context.Context, id string, req dto.GenerateTimetableRequest) (*dto.TimetableView, error) {
	m.timetable = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.TimetableView{Status: m.planStatus}, nil
}

func (m *planningMock) TimetableView(ctx context.Context, id string) (*dto.TimetableView, error) {
	return &dto.TimetableView{Status: m.planStatus, SelectedIndex: m.index}, nil
}

func (m *planningMock) SelectTimetableOption(ctx context.Context, id string, index *int) (*dto.TimetableView, error) {
	m.index = index
	return &dto.TimetableView{Status: m.planStatus, SelectedIndex: index}, nil
}

type issuerStub struct {
	err error
}

func (s issuerStub) Issue(sessionID string) (string, time.Time, error) {
	if s.err != nil {
		return "", time.Time{}, s.err
	}
	return "token-" + sessionID, time.Date(2026, 10, 1, 21, 0, 0, 0, time.UTC), nil
}

func newSessionContext(method, path string, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextSessionKey, "session-1")
	return c, w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func TestSessionHandlerCreate(t *testing.T) {
	handler := &SessionHandler{planning: &planningMock{}, tokens: issuerStub{}}
	c, w := newSessionContext(http.MethodPost, "/sessions", "")

	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	var created dto.SessionCreatedResponse
	decodeData(t, w, &created)
	assert.Equal(t, "session-1", created.SessionID)
	assert.Equal(t, "token-session-1", created.Token)
	assert.Equal(t, "2026-10-01T21:00:00Z", created.ExpiresAt)
}

func TestSessionHandlerCreateTokenFailure(t *testing.T) {
	handler := &SessionHandler{planning: &planningMock{}, tokens: issuerStub{err: errors.New("no secret")}}
	c, w := newSessionContext(http.MethodPost, "/sessions", "")

	handler.Create(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSessionHandlerSelectProgram(t *testing.T) {
	mock := &planningMock{}
	handler := &SessionHandler{planning: mock, tokens: issuerStub{}}
	c, w := newSessionContext(http.MethodPut, "/session/program", `{"program_id":"CS-BSc"}`)

	handler.SelectProgram(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "session-1", mock.sessionID)
	require.NotNil(t, mock.programID)
	assert.Equal(t, "CS-BSc", *mock.programID)

	c, _ = newSessionContext(http.MethodPut, "/session/program", `{"program_id":null}`)
	handler.SelectProgram(c)
	assert.Nil(t, mock.programID)
}

func TestSessionHandlerCompletedCourses(t *testing.T) {
	mock := &planningMock{}
	handler := &SessionHandler{planning: mock, tokens: issuerStub{}}

	c, w := newSessionContext(http.MethodPut, "/session/completed-courses", `{"course_codes":["CS101","MATH101"]}`)
	handler.SetCompletedCourses(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"CS101", "MATH101"}, mock.codes)

	c, w = newSessionContext(http.MethodPost, "/session/completed-courses/CS201/toggle", "")
	c.Params = gin.Params{{Key: "code", Value: "CS201"}}
	handler.ToggleCompletedCourse(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CS201", mock.toggled)

	c, w = newSessionContext(http.MethodPut, "/session/completed-courses", `{"course_codes":`)
	handler.SetCompletedCourses(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandlerSubmitDegreePlanStatusCodes(t *testing.T) {
	mock := &planningMock{planStatus: dto.RequestStatusPending}
	handler := &SessionHandler{planning: mock, tokens: issuerStub{}}
	body := `{"allowed_terms":"2026-F, 2027-W","min_credits":"0.5","max_credits":"1.5","max_terms":""}`

	c, w := newSessionContext(http.MethodPost, "/session/degree-plan", body)
	handler.SubmitDegreePlan(c)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "2026-F, 2027-W", mock.constraints.AllowedTerms)
	assert.Equal(t, "1.5", mock.constraints.MaxCredits)

	mock.planStatus = dto.RequestStatusFailed
	c, w = newSessionContext(http.MethodPost, "/session/degree-plan", body)
	handler.SubmitDegreePlan(c)
	assert.Equal(t, http.StatusOK, w.Code)
	var view dto.DegreePlanView
	decodeData(t, w, &view)
	assert.Equal(t, dto.RequestStatusFailed, view.Status)
}

func TestSessionHandlerSubmitDegreePlanValidationError(t *testing.T) {
	mock := &planningMock{err: appErrors.Field("allowed_terms", "enter at least one allowed term")}
	handler := &SessionHandler{planning: mock, tokens: issuerStub{}}
	c, w := newSessionContext(http.MethodPost, "/session/degree-plan", `{"allowed_terms":" , "}`)

	handler.SubmitDegreePlan(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"allowed_terms"`)
	assert.Contains(t, w.Body.String(), "enter at least one allowed term")
}

func TestSessionHandlerTimetables(t *testing.T) {
	mock := &planningMock{planStatus: dto.RequestStatusSucceeded}
	handler := &SessionHandler{planning: mock, tokens: issuerStub{}}

	c, w := newSessionContext(http.MethodPost, "/session/timetables",
		`{"term_id":"2026-F","course_codes":["CS101","CS201"],"preferences":{"earliest_time":"09:00","latest_time":"18:00","avoid_friday":true}}`)
	handler.SubmitTimetable(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2026-F", mock.timetable.TermID)
	assert.True(t, mock.timetable.Preferences.AvoidFriday)
	assert.Equal(t, "09:00", mock.timetable.Preferences.EarliestTime)

	c, w = newSessionContext(http.MethodPut, "/session/timetables/selection", `{"index":1}`)
	handler.SelectTimetable(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mock.index)
	assert.Equal(t, 1, *mock.index)

	c, w = newSessionContext(http.MethodPut, "/session/timetables/selection", `{"index":null}`)
	handler.SelectTimetable(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, mock.index)
}

func TestSessionHandlerPropagatesNotFound(t *testing.T) {
	mock := &planningMock{err: appErrors.Clone(appErrors.ErrNotFound, "planning session not found or expired")}
	handler := &SessionHandler{planning: mock, tokens: issuerStub{}}
	c, w := newSessionContext(http.MethodGet, "/session", "")

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
