package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/coursecraft-api/internal/dto"
	"github.com/noah-isme/coursecraft-api/internal/models"
	appErrors "github.com/noah-isme/coursecraft-api/pkg/errors"
)

// Timetable validation messages.
const (
	MsgTimeFormat = "enter valid times in HH:MM format"
	MsgTimeOrder  = "earliest time must be before latest time"
)

// DefaultMaxSolutions caps solver options when callers do not choose a limit.
const DefaultMaxSolutions = 50

// TimetableSolver builds conflict-free timetable options for one term.
type TimetableSolver interface {
	PlanTimetable(ctx context.Context, req models.TimetableRequest) (*models.TimetableResponse, error)
}

// TimetableTicket tags an outgoing timetable request.
type TimetableTicket struct {
	Seq    uint64
	TermID string
}

// TimetableSubmission is a validated timetable request together with its ticket.
type TimetableSubmission struct {
	Ticket  TimetableTicket
	Request models.TimetableRequest
}

// TimetableState is a snapshot of the controller. SelectedIndex is stored as
// given; use ActiveOption for a bounds-checked read.
type TimetableState struct {
	Status         dto.RequestStatus
	Err            error
	SelectedTermID *string
	LoadingTermID  *string
	CurrentTermID  *string
	Options        []models.TimetableOption
	SelectedIndex  *int
	EarliestInput  string
	LatestInput    string
}

// ActiveOption returns the selected option, or false when nothing valid is selected.
func (s TimetableState) ActiveOption() (models.TimetableOption, int, bool) {
	if s.SelectedIndex == nil {
		return models.TimetableOption{}, 0, false
	}
	i := *s.SelectedIndex
	if i < 0 || i >= len(s.Options) {
		return models.TimetableOption{}, 0, false
	}
	return s.Options[i], i, true
}

// Window returns the effective display window for the last entered times.
func (s TimetableState) Window() TimeWindow {
	return EffectiveWindow(s.EarliestInput, s.LatestInput)
}

var errEmptyTimetableResponse = errors.New("timetable solver returned no result")

// TimetableController sequences per-term timetable requests and holds the
// current option set and selection.
type TimetableController struct {
	solver       TimetableSolver
	maxSolutions int
	logger       *zap.Logger

	mu       sync.Mutex
	seq      uint64
	status   dto.RequestStatus
	err      error
	selected *string
	loading  *string
	current  *string
	options  []models.TimetableOption
	index    *int
	earliest string
	latest   string
}

// NewTimetableController builds a controller. maxSolutions <= 0 uses DefaultMaxSolutions.
func NewTimetableController(solver TimetableSolver, maxSolutions int, logger *zap.Logger) *TimetableController {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxSolutions <= 0 {
		maxSolutions = DefaultMaxSolutions
	}
	return &TimetableController{
		solver:       solver,
		maxSolutions: maxSolutions,
		logger:       logger,
		status:       dto.RequestStatusIdle,
	}
}

// BuildPreferences validates raw time inputs. Empty times are left unset; when
// both are set the earliest must come strictly before the latest.
func BuildPreferences(input dto.TimetablePreferencesInput) (models.TimetablePreferences, error) {
	prefs := models.TimetablePreferences{}
	avoid := input.AvoidFriday
	prefs.AvoidFriday = &avoid

	if raw := strings.TrimSpace(input.EarliestTime); raw != "" {
		v, ok := ParseTimeOfDay(raw)
		if !ok {
			return prefs, appErrors.Field("earliest_time", MsgTimeFormat)
		}
		prefs.EarliestTimeMinutes = &v
	}
	if raw := strings.TrimSpace(input.LatestTime); raw != "" {
		v, ok := ParseTimeOfDay(raw)
		if !ok {
			return prefs, appErrors.Field("latest_time", MsgTimeFormat)
		}
		prefs.LatestTimeMinutes = &v
	}
	if prefs.EarliestTimeMinutes != nil && prefs.LatestTimeMinutes != nil &&
		*prefs.EarliestTimeMinutes >= *prefs.LatestTimeMinutes {
		return prefs, appErrors.Field("earliest_time", MsgTimeOrder)
	}
	return prefs, nil
}

// Begin validates a timetable request and, when valid, marks the term loading
// and selected and clears the previous option set. A nil submission with a nil
// error means there was nothing to schedule.
func (c *TimetableController) Begin(termID string, courseCodes []string, input dto.TimetablePreferencesInput, maxSolutions int) (*TimetableSubmission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.earliest = input.EarliestTime
	c.latest = input.LatestTime

	codes := uniqueCodes(courseCodes)
	if len(codes) == 0 {
		return nil, nil
	}
	prefs, err := BuildPreferences(input)
	if err != nil {
		return nil, err
	}
	if maxSolutions <= 0 {
		maxSolutions = c.maxSolutions
	}

	c.seq++
	term := termID
	loading := termID
	c.selected = &term
	c.loading = &loading
	c.current = nil
	c.options = nil
	c.index = nil
	c.status = dto.RequestStatusPending
	c.err = nil

	return &TimetableSubmission{
		Ticket: TimetableTicket{Seq: c.seq, TermID: termID},
		Request: models.TimetableRequest{
			TermID:       termID,
			CourseCodes:  codes,
			Preferences:  prefs,
			MaxSolutions: maxSolutions,
		},
	}, nil
}

// Execute calls the solver for a submission and completes it. The error is the
// solver failure when the outcome is a request failure.
func (c *TimetableController) Execute(ctx context.Context, submission TimetableSubmission) (Outcome, error) {
	resp, err := c.solver.PlanTimetable(ctx, submission.Request)
	outcome := c.Complete(submission.Ticket, resp, err)
	if outcome != OutcomeRequestFailure {
		return outcome, nil
	}
	if err == nil {
		err = errEmptyTimetableResponse
	}
	return outcome, err
}

// Complete applies a solver result when the ticket is still the latest one.
// Options are stored in solver order.
func (c *TimetableController) Complete(ticket TimetableTicket, resp *models.TimetableResponse, err error) Outcome {
	if err == nil && resp == nil {
		err = errEmptyTimetableResponse
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ticket.Seq != c.seq {
		c.logger.Debug("dropping superseded timetable response",
			zap.String("term_id", ticket.TermID), zap.Uint64("seq", ticket.Seq), zap.Uint64("current_seq", c.seq))
		return OutcomeStale
	}
	c.loading = nil

	if err != nil {
		c.status = dto.RequestStatusFailed
		c.err = err
		c.logger.Warn("timetable request failed", zap.String("term_id", ticket.TermID), zap.Error(err))
		return OutcomeRequestFailure
	}

	term := ticket.TermID
	c.current = &term
	c.options = cloneOptions(resp.Options)
	if len(c.options) > 0 {
		zero := 0
		c.index = &zero
	} else {
		c.index = nil
	}
	c.status = dto.RequestStatusSucceeded
	return OutcomeSuccess
}

// Generate runs Begin, the solver call and Complete in one step.
func (c *TimetableController) Generate(ctx context.Context, termID string, courseCodes []string, input dto.TimetablePreferencesInput, maxSolutions int) (Outcome, error) {
	submission, err := c.Begin(termID, courseCodes, input, maxSolutions)
	if err != nil {
		return OutcomeValidationError, err
	}
	if submission == nil {
		return OutcomeNoop, nil
	}
	return c.Execute(ctx, *submission)
}

// SelectOption changes the active option without any network effect. Out of
// range indexes are stored and read back as no selection.
func (c *TimetableController) SelectOption(index *int) {
	c.mu.Lock()
	c.index = copyInt(index)
	c.mu.Unlock()
}

// Invalidate clears all timetable state and supersedes any in-flight request.
func (c *TimetableController) Invalidate() {
	c.mu.Lock()
	c.seq++
	c.status = dto.RequestStatusIdle
	c.err = nil
	c.selected = nil
	c.loading = nil
	c.current = nil
	c.options = nil
	c.index = nil
	c.mu.Unlock()
}

// State returns a copy of the controller state.
func (c *TimetableController) State() TimetableState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return TimetableState{
		Status:         c.status,
		Err:            c.err,
		SelectedTermID: copyString(c.selected),
		LoadingTermID:  copyString(c.loading),
		CurrentTermID:  copyString(c.current),
		Options:        cloneOptions(c.options),
		SelectedIndex:  copyInt(c.index),
		EarliestInput:  c.earliest,
		LatestInput:    c.latest,
	}
}

func cloneOptions(options []models.TimetableOption) []models.TimetableOption {
	if options == nil {
		return []models.TimetableOption{}
	}
	out := make([]models.TimetableOption, len(options))
	for i, option := range options {
		var penalty *float64
		if option.Objective.TotalPenalty != nil {
			p := *option.Objective.TotalPenalty
			penalty = &p
		}
		out[i] = models.TimetableOption{
			Sections:  append([]models.TimetableSection{}, option.Sections...),
			Objective: models.TimetableObjective{Status: option.Objective.Status, TotalPenalty: penalty},
		}
	}
	return out
}
