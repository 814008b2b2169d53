package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/coursecraft-api/internal/dto"
	"github.com/noah-isme/coursecraft-api/internal/models"
	appErrors "github.com/noah-isme/coursecraft-api/pkg/errors"
)

const (
	controllerDegreePlan = "degree_plan"
	controllerTimetable  = "timetable"
)

var (
	errSessionNotFound  = appErrors.Clone(appErrors.ErrNotFound, "planning session not found or expired")
	errNoDegreePlan     = appErrors.Clone(appErrors.ErrPreconditionFailed, "generate a degree plan first")
	errNothingToExport  = appErrors.Clone(appErrors.ErrPreconditionFailed, "no timetable option selected")
	errNoPlanToExport   = appErrors.Clone(appErrors.ErrPreconditionFailed, "no degree plan to export")
	errTermNotPlanned   = appErrors.Field("term_id", "term is not part of the current degree plan")
	errProgramNotListed = appErrors.Field("program_id", "unknown program")
)

type planningCatalog interface {
	GetProgram(ctx context.Context, id string) (*models.Program, error)
	CourseIndex(ctx context.Context) (map[string]models.Course, error)
}

type planningExporter interface {
	ExportPlan(plan *models.DegreePlan) (*Artifact, error)
	ExportTimetable(termID *string, index *int, options []models.TimetableOption, format ExportFormat) (*Artifact, error)
	Publish(ownerID string, artifact *Artifact) (*ExportResult, error)
}

// PlanningSession bundles one session store with its two controllers.
type PlanningSession struct {
	ID          string
	Store       *SessionStore
	DegreePlans *DegreePlanController
	Timetables  *TimetableController

	createdAt time.Time
	lastSeen  time.Time
}

// PlanningServiceConfig tunes session lifetime and solver limits.
type PlanningServiceConfig struct {
	SessionTTL   time.Duration
	MaxSolutions int
}

// PlanningService owns the live planning sessions and dispatches solver calls.
type PlanningService struct {
	planner    DegreePlanner
	solver     TimetableSolver
	catalog    planningCatalog
	exporter   planningExporter
	dispatcher PlanningDispatcher
	validator  *validator.Validate
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        PlanningServiceConfig
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*PlanningSession
}

// NewPlanningService wires the session registry. A nil dispatcher runs solver calls inline.
func NewPlanningService(planner DegreePlanner, solver TimetableSolver, catalog planningCatalog, exporter planningExporter, dispatcher PlanningDispatcher, metrics *MetricsService, cfg PlanningServiceConfig, logger *zap.Logger) *PlanningService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dispatcher == nil {
		dispatcher = InlineDispatcher{}
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	if cfg.MaxSolutions <= 0 {
		cfg.MaxSolutions = DefaultMaxSolutions
	}
	return &PlanningService{
		planner:    planner,
		solver:     solver,
		catalog:    catalog,
		exporter:   exporter,
		dispatcher: dispatcher,
		validator:  validator.New(),
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
		sessions:   make(map[string]*PlanningSession),
	}
}

// CreateSession starts an empty planning session.
func (s *PlanningService) CreateSession() *PlanningSession {
	store := NewSessionStore()
	timetables := NewTimetableController(s.solver, s.cfg.MaxSolutions, s.logger)
	store.OnPlanChange(func(*models.DegreePlan) {
		timetables.Invalidate()
	})
	now := s.now()
	session := &PlanningSession{
		ID:          uuid.NewString(),
		Store:       store,
		DegreePlans: NewDegreePlanController(store, s.planner, s.logger),
		Timetables:  timetables,
		createdAt:   now,
		lastSeen:    now,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	count := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(count)
	s.logger.Info("planning session created", zap.String("session_id", session.ID))
	return session
}

// Session returns a live session and refreshes its idle timer.
func (s *PlanningService) Session(id string) (*PlanningSession, error) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return nil, errSessionNotFound
	}
	now := s.now()
	if now.Sub(session.lastSeen) > s.cfg.SessionTTL {
		delete(s.sessions, id)
		count := len(s.sessions)
		s.mu.Unlock()
		s.metrics.SetActiveSessions(count)
		return nil, errSessionNotFound
	}
	session.lastSeen = now
	s.mu.Unlock()
	return session, nil
}

// DeleteSession drops a session.
func (s *PlanningService) DeleteSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	count := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SetActiveSessions(count)
}

// Sweep removes sessions idle for longer than the TTL and returns how many were removed.
func (s *PlanningService) Sweep() int {
	now := s.now()
	s.mu.Lock()
	removed := 0
	for id, session := range s.sessions {
		if now.Sub(session.lastSeen) > s.cfg.SessionTTL {
			delete(s.sessions, id)
			removed++
		}
	}
	count := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(count)
	if removed > 0 {
		s.logger.Info("expired planning sessions swept", zap.Int("removed", removed), zap.Int("active", count))
	}
	return removed
}

// ActiveSessions reports the number of live sessions.
func (s *PlanningService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// SelectProgram replaces the session program, clearing completed courses and the plan.
func (s *PlanningService) SelectProgram(ctx context.Context, id string, programID *string) (*dto.SessionView, error) {
	session, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	if programID != nil && s.catalog != nil {
		if _, err := s.catalog.GetProgram(ctx, *programID); err != nil {
			if errors.Is(err, appErrors.ErrNotFound) {
				return nil, errProgramNotListed
			}
			s.logger.Warn("program lookup failed", zap.String("program_id", *programID), zap.Error(err))
		}
	}
	session.Store.SetSelectedProgram(programID)
	return s.sessionView(ctx, session), nil
}

// SetCompletedCourses replaces the completed course set and clears the plan.
func (s *PlanningService) SetCompletedCourses(ctx context.Context, id string, codes []string) (*dto.SessionView, error) {
	session, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(dto.CompletedCoursesRequest{CourseCodes: codes}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "course codes must not be blank")
	}
	session.Store.SetCompletedCourseCodes(codes)
	return s.sessionView(ctx, session), nil
}

// ToggleCompletedCourse flips one course in the completed set.
func (s *PlanningService) ToggleCompletedCourse(ctx context.Context, id, code string) (*dto.SessionView, error) {
	session, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	session.Store.ToggleCompletedCourse(code)
	return s.sessionView(ctx, session), nil
}

// ResetSession clears program, completed courses, plan and timetables.
func (s *PlanningService) ResetSession(ctx context.Context, id string) (*dto.SessionView, error) {
	session, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	session.Store.Reset()
	return s.sessionView(ctx, session), nil
}

// SessionView returns the session read model.
func (s *PlanningService) SessionView(ctx context.Context, id string) (*dto.SessionView, error) {
	session, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	return s.sessionView(ctx, session), nil
}

// SubmitDegreePlan validates the constraints and dispatches the planner call.
func (s *PlanningService) SubmitDegreePlan(ctx context.Context, id string, input dto.DegreePlanConstraints) (*dto.DegreePlanView, error) {
	session, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	submission, err := session.DegreePlans.Begin(input)
	if err != nil {
		s.metrics.RecordOutcome(controllerDegreePlan, OutcomeValidationError)
		return nil, err
	}

	task := func(taskCtx context.Context) {
		outcome, _ := session.DegreePlans.Execute(taskCtx, *submission)
		s.metrics.RecordOutcome(controllerDegreePlan, outcome)
	}
	if err := s.dispatcher.Dispatch(ctx, controllerDegreePlan, task); err != nil {
		outcome := session.DegreePlans.Complete(submission.Ticket, nil, upstreamError("degree planner request could not be scheduled", err))
		s.metrics.RecordOutcome(controllerDegreePlan, outcome)
	}
	return s.degreePlanView(ctx, session), nil
}

// DegreePlanView returns the degree plan status and stored plan.
func (s *PlanningService) DegreePlanView(ctx context.Context, id string) (*dto.DegreePlanView, error) {
	session, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	return s.degreePlanView(ctx, session), nil
}

// SubmitTimetable validates the request against the current plan and dispatches the solver call.
func (s *PlanningService) SubmitTimetable(ctx context.Context, id string, req dto.GenerateTimetableRequest) (*dto.TimetableView, error) {
	session, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable request")
	}
	plan := session.Store.Snapshot().LastDegreePlan
	if plan == nil {
		return nil, errNoDegreePlan
	}
	term, ok := plan.FindTerm(req.TermID)
	if !ok {
		return nil, errTermNotPlanned
	}
	codes := req.CourseCodes
	if codes == nil {
		codes = term.CourseCodes
	}

	submission, err := session.Timetables.Begin(req.TermID, codes, req.Preferences, req.MaxSolutions)
	if err != nil {
		s.metrics.RecordOutcome(controllerTimetable, OutcomeValidationError)
		return nil, err
	}
	if submission == nil {
		s.metrics.RecordOutcome(controllerTimetable, OutcomeNoop)
		return s.timetableView(ctx, session), nil
	}

	task := func(taskCtx context.Context) {
		outcome, _ := session.Timetables.Execute(taskCtx, *submission)
		s.metrics.RecordOutcome(controllerTimetable, outcome)
	}
	if err := s.dispatcher.Dispatch(ctx, controllerTimetable, task); err != nil {
		outcome := session.Timetables.Complete(submission.Ticket, nil, upstreamError("timetable solver request could not be scheduled", err))
		s.metrics.RecordOutcome(controllerTimetable, outcome)
	}
	return s.timetableView(ctx, session), nil
}

// TimetableView returns timetable status, options and the weekly grid.
func (s *PlanningService) TimetableView(ctx context.Context, id string) (*dto.TimetableView, error) {
	session, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	return s.timetableView(ctx, session), nil
}

// SelectTimetableOption changes the active option.
func (s *PlanningService) SelectTimetableOption(ctx context.Context, id string, index *int) (*dto.TimetableView, error) {
	session, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	session.Timetables.SelectOption(index)
	return s.timetableView(ctx, session), nil
}

// ExportPlan publishes the stored degree plan.
func (s *PlanningService) ExportPlan(ctx context.Context, id string) (*ExportResult, error) {
	session, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	artifact, err := s.exporter.ExportPlan(session.Store.Snapshot().LastDegreePlan)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return nil, errNoPlanToExport
	}
	return s.exporter.Publish(session.ID, artifact)
}

// ExportTimetable publishes the selected timetable option.
func (s *PlanningService) ExportTimetable(ctx context.Context, id string, format ExportFormat) (*ExportResult, error) {
	session, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	state := session.Timetables.State()
	artifact, err := s.exporter.ExportTimetable(state.CurrentTermID, state.SelectedIndex, state.Options, format)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return nil, errNothingToExport
	}
	return s.exporter.Publish(session.ID, artifact)
}

func (s *PlanningService) sessionView(ctx context.Context, session *PlanningSession) *dto.SessionView {
	snapshot := session.Store.Snapshot()
	view := &dto.SessionView{
		SessionID:            session.ID,
		SelectedProgramID:    snapshot.SelectedProgramID,
		CompletedCourseCodes: snapshot.CompletedCourseCodes,
		HasDegreePlan:        snapshot.LastDegreePlan != nil,
	}
	if s.catalog == nil {
		return view
	}
	if snapshot.SelectedProgramID != nil {
		if program, err := s.catalog.GetProgram(ctx, *snapshot.SelectedProgramID); err == nil {
			name := program.Name
			view.SelectedProgramName = &name
		}
	}
	courses := s.courseIndex(ctx)
	for _, code := range snapshot.CompletedCourseCodes {
		view.CompletedCredits += courses[code].Credits
	}
	return view
}

func (s *PlanningService) degreePlanView(ctx context.Context, session *PlanningSession) *dto.DegreePlanView {
	state := session.DegreePlans.State()
	plan := session.Store.Snapshot().LastDegreePlan
	timetables := session.Timetables.State()

	view := &dto.DegreePlanView{
		Status: state.Status,
		Error:  errorMessage(state.Err),
		Plan:   plan,
		Terms:  []dto.PlannedTermView{},
	}
	if plan == nil {
		return view
	}
	view.Empty = len(plan.Terms) == 0
	if n := len(plan.Terms); n > 0 {
		last := plan.Terms[n-1].TermID
		view.PlannedGraduationTerm = &last
	}

	courses := s.courseIndex(ctx)
	for _, term := range plan.Terms {
		termView := dto.PlannedTermView{
			TermID:       term.TermID,
			TotalCredits: term.TotalCredits,
			Courses:      make([]dto.PlannedCourseView, 0, len(term.CourseCodes)),
			Selected:     equalsPtr(timetables.SelectedTermID, term.TermID),
			Loading:      equalsPtr(timetables.LoadingTermID, term.TermID),
		}
		for _, code := range term.CourseCodes {
			termView.Courses = append(termView.Courses, dto.PlannedCourseView{Code: code, Label: courseLabel(courses, code)})
		}
		view.Terms = append(view.Terms, termView)
	}
	return view
}

func (s *PlanningService) timetableView(ctx context.Context, session *PlanningSession) *dto.TimetableView {
	state := session.Timetables.State()
	window := state.Window()
	view := &dto.TimetableView{
		Status:         state.Status,
		Error:          errorMessage(state.Err),
		Empty:          state.Status == dto.RequestStatusSucceeded && len(state.Options) == 0,
		SelectedTermID: state.SelectedTermID,
		LoadingTermID:  state.LoadingTermID,
		CurrentTermID:  state.CurrentTermID,
		Options:        state.Options,
		Window: dto.TimeWindowView{
			EarliestMinutes: window.EarliestMinutes,
			LatestMinutes:   window.LatestMinutes,
			Label:           window.Label(),
		},
	}

	var sections []models.TimetableSection
	if option, index, ok := state.ActiveOption(); ok {
		i := index
		view.SelectedIndex = &i
		view.ActivePenalty = option.Objective.TotalPenalty
		sections = option.Sections
	}

	courses := s.courseIndex(ctx)
	for _, day := range BucketByWeekday(sections) {
		dayView := dto.DayScheduleView{Day: day.Day, Sections: make([]dto.ScheduledSectionView, 0, len(day.Sections))}
		for _, section := range day.Sections {
			dayView.Sections = append(dayView.Sections, dto.ScheduledSectionView{
				TimetableSection: section,
				CourseLabel:      courseLabel(courses, section.CourseCode),
				TimeLabel:        FormatTimeLabel(section.StartTimeMinutes) + " to " + FormatTimeLabel(section.EndTimeMinutes),
			})
		}
		view.Week = append(view.Week, dayView)
	}
	return view
}

func (s *PlanningService) courseIndex(ctx context.Context) map[string]models.Course {
	if s.catalog == nil {
		return map[string]models.Course{}
	}
	courses, err := s.catalog.CourseIndex(ctx)
	if err != nil {
		s.logger.Warn("course catalog unavailable", zap.Error(err))
		return map[string]models.Course{}
	}
	return courses
}

func courseLabel(courses map[string]models.Course, code string) string {
	if course, ok := courses[code]; ok && course.Name != "" {
		return code + " - " + course.Name
	}
	return code
}

func equalsPtr(v *string, want string) bool {
	return v != nil && *v == want
}

func errorMessage(err error) *string {
	if err == nil {
		return nil
	}
	msg := appErrors.FromError(err).Message
	return &msg
}
