package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/coursecraft-api/internal/dto"
	"github.com/noah-isme/coursecraft-api/internal/service"
	appErrors "github.com/noah-isme/coursecraft-api/pkg/errors"
	"github.com/noah-isme/coursecraft-api/pkg/response"
)

type planningSessions interface {
	CreateSession() *service.PlanningSession
	SessionView(ctx context.Context, id string) (*dto.SessionView, error)
	ResetSession(ctx context.Context, id string) (*dto.SessionView, error)
	SelectProgram(ctx context.Context, id string, programID *string) (*dto.SessionView, error)
	SetCompletedCourses(ctx context.Context, id string, codes []string) (*dto.SessionView, error)
	ToggleCompletedCourse(ctx context.Context, id, code string) (*dto.SessionView, error)
	SubmitDegreePlan(ctx context.Context, id string, input dto.DegreePlanConstraints) (*dto.DegreePlanView, error)
	DegreePlanView(ctx context.Context, id string) (*dto.DegreePlanView, error)
	SubmitTimetable(ctx context.Context, id string, req dto.GenerateTimetableRequest) (*dto.TimetableView, error)
	TimetableView(ctx context.Context, id string) (*dto.TimetableView, error)
	SelectTimetableOption(ctx context.Context, id string, index *int) (*dto.TimetableView, error)
}

type sessionTokenIssuer interface {
	Issue(sessionID string) (string, time.Time, error)
}

// SessionHandler exposes the planning session workflow.
type SessionHandler struct {
	planning planningSessions
	tokens   sessionTokenIssuer
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(planning *service.PlanningService, tokens *service.SessionTokenService) *SessionHandler {
	return &SessionHandler{planning: planning, tokens: tokens}
}

// Create godoc
// @Summary Start a planning session
// @Tags Session
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	session := h.planning.CreateSession()
	token, expiresAt, err := h.tokens.Issue(session.ID)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue session token"))
		return
	}
	response.Created(c, dto.SessionCreatedResponse{
		SessionID: session.ID,
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
}

// Get godoc
// @Summary Get the planning session snapshot
// @Tags Session
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /session [get]
func (h *SessionHandler) Get(c *gin.Context) {
	view, err := h.planning.SessionView(c.Request.Context(), sessionIDFromContext(c))
	respondView(c, view, err)
}

// Reset godoc
// @Summary Clear program, completed courses, plan and timetables
// @Tags Session
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /session [delete]
func (h *SessionHandler) Reset(c *gin.Context) {
	view, err := h.planning.ResetSession(c.Request.Context(), sessionIDFromContext(c))
	respondView(c, view, err)
}

// SelectProgram godoc
// @Summary Select the degree program
// @Tags Session
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SelectProgramRequest true "Program"
// @Success 200 {object} response.Envelope
// @Router /session/program [put]
func (h *SessionHandler) SelectProgram(c *gin.Context) {
	var req dto.SelectProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid program payload"))
		return
	}
	view, err := h.planning.SelectProgram(c.Request.Context(), sessionIDFromContext(c), req.ProgramID)
	respondView(c, view, err)
}

// SetCompletedCourses godoc
// @Summary Replace the completed course set
// @Tags Session
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CompletedCoursesRequest true "Completed courses"
// @Success 200 {object} response.Envelope
// @Router /session/completed-courses [put]
func (h *SessionHandler) SetCompletedCourses(c *gin.Context) {
	var req dto.CompletedCoursesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid completed courses payload"))
		return
	}
	view, err := h.planning.SetCompletedCourses(c.Request.Context(), sessionIDFromContext(c), req.CourseCodes)
	respondView(c, view, err)
}

// ToggleCompletedCourse godoc
// @Summary Toggle one completed course
// @Tags Session
// @Produce json
// @Security BearerAuth
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Router /session/completed-courses/{code}/toggle [post]
func (h *SessionHandler) ToggleCompletedCourse(c *gin.Context) {
	view, err := h.planning.ToggleCompletedCourse(c.Request.Context(), sessionIDFromContext(c), c.Param("code"))
	respondView(c, view, err)
}

// SubmitDegreePlan godoc
// @Summary Validate constraints and request a degree plan
// @Description Returns 202 while the planner call is in flight and 200 once it has resolved.
// @Tags Planning
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.DegreePlanConstraints true "Raw constraint fields"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /session/degree-plan [post]
func (h *SessionHandler) SubmitDegreePlan(c *gin.Context) {
	var req dto.DegreePlanConstraints
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid constraints payload"))
		return
	}
	view, err := h.planning.SubmitDegreePlan(c.Request.Context(), sessionIDFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondStatus(c, view.Status, view)
}

// DegreePlan godoc
// @Summary Get degree plan status and the stored plan
// @Tags Planning
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /session/degree-plan [get]
func (h *SessionHandler) DegreePlan(c *gin.Context) {
	view, err := h.planning.DegreePlanView(c.Request.Context(), sessionIDFromContext(c))
	respondView(c, view, err)
}

// SubmitTimetable godoc
// @Summary Request timetable options for a planned term
// @Tags Planning
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.GenerateTimetableRequest true "Term and raw preferences"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /session/timetables [post]
func (h *SessionHandler) SubmitTimetable(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable payload"))
		return
	}
	view, err := h.planning.SubmitTimetable(c.Request.Context(), sessionIDFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondStatus(c, view.Status, view)
}

// Timetables godoc
// @Summary Get timetable status, options and the weekly grid
// @Tags Planning
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /session/timetables [get]
func (h *SessionHandler) Timetables(c *gin.Context) {
	view, err := h.planning.TimetableView(c.Request.Context(), sessionIDFromContext(c))
	respondView(c, view, err)
}

// SelectTimetable godoc
// @Summary Change the active timetable option
// @Tags Planning
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SelectTimetableRequest true "Option index"
// @Success 200 {object} response.Envelope
// @Router /session/timetables/selection [put]
func (h *SessionHandler) SelectTimetable(c *gin.Context) {
	var req dto.SelectTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid selection payload"))
		return
	}
	view, err := h.planning.SelectTimetableOption(c.Request.Context(), sessionIDFromContext(c), req.Index)
	respondView(c, view, err)
}

func respondView(c *gin.Context, view interface{}, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

func respondStatus(c *gin.Context, status dto.RequestStatus, view interface{}) {
	if status == dto.RequestStatusPending {
		response.Accepted(c, view)
		return
	}
	response.JSON(c, http.StatusOK, view)
}
