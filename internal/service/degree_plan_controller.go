package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/coursecraft-api/internal/dto"
	"github.com/noah-isme/coursecraft-api/internal/models"
)

// Outcome is how a controller call resolved.
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeRequestFailure  Outcome = "request_failure"
	OutcomeValidationError Outcome = "validation_error"
	OutcomeStale           Outcome = "stale"
	OutcomeNoop            Outcome = "noop"
)

// DegreePlanner computes multi-term degree plans.
type DegreePlanner interface {
	PlanDegree(ctx context.Context, req models.DegreePlanRequest) (*models.DegreePlan, error)
}

// PlanTicket tags an outgoing degree plan request with the context it was issued for.
type PlanTicket struct {
	Seq      uint64
	Revision uint64
}

// DegreePlanSubmission is a validated request together with its ticket.
type DegreePlanSubmission struct {
	Ticket  PlanTicket
	Request models.DegreePlanRequest
}

// DegreePlanState is the controller's view of the latest attempt.
type DegreePlanState struct {
	Status dto.RequestStatus
	Err    error
}

var errEmptyPlanResponse = errors.New("degree planner returned no plan")

// DegreePlanController sequences degree plan requests against the external planner
// and writes successful results into the session store.
type DegreePlanController struct {
	store   *SessionStore
	planner DegreePlanner
	logger  *zap.Logger

	mu     sync.Mutex
	seq    uint64
	status dto.RequestStatus
	err    error
}

// NewDegreePlanController wires the controller to its store and planner.
func NewDegreePlanController(store *SessionStore, planner DegreePlanner, logger *zap.Logger) *DegreePlanController {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &DegreePlanController{
		store:   store,
		planner: planner,
		logger:  logger,
		status:  dto.RequestStatusIdle,
	}
	store.OnPlanChange(c.onPlanChange)
	return c
}

// onPlanChange returns the controller to idle when the store clears the plan
// and supersedes any request still in flight. Commits pass a non-nil plan and
// run under c.mu, so they are ignored here.
func (c *DegreePlanController) onPlanChange(plan *models.DegreePlan) {
	if plan != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.status = dto.RequestStatusIdle
	c.err = nil
}

// Begin validates the raw constraints against the current session and issues a
// ticket. Validation failures leave all state untouched.
func (c *DegreePlanController) Begin(input dto.DegreePlanConstraints) (*DegreePlanSubmission, error) {
	snapshot := c.store.Snapshot()
	req, err := ValidateConstraints(snapshot, input)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.status = dto.RequestStatusPending
	c.err = nil
	return &DegreePlanSubmission{
		Ticket:  PlanTicket{Seq: c.seq, Revision: snapshot.Revision},
		Request: *req,
	}, nil
}

// Execute calls the planner for a submission and completes it. The error is
// the planner failure when the outcome is a request failure.
func (c *DegreePlanController) Execute(ctx context.Context, submission DegreePlanSubmission) (Outcome, error) {
	plan, err := c.planner.PlanDegree(ctx, submission.Request)
	outcome := c.Complete(submission.Ticket, plan, err)
	if outcome != OutcomeRequestFailure {
		return outcome, nil
	}
	if err == nil {
		err = errEmptyPlanResponse
	}
	return outcome, err
}

// Complete applies a planner result. Results for superseded tickets or for
// session inputs that changed since the request was issued are dropped.
func (c *DegreePlanController) Complete(ticket PlanTicket, plan *models.DegreePlan, err error) Outcome {
	if err == nil && plan == nil {
		err = errEmptyPlanResponse
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ticket.Seq != c.seq {
		c.logger.Debug("dropping superseded degree plan response", zap.Uint64("seq", ticket.Seq), zap.Uint64("current_seq", c.seq))
		return OutcomeStale
	}

	if err != nil {
		c.status = dto.RequestStatusFailed
		c.err = err
		c.logger.Warn("degree plan request failed", zap.Uint64("seq", ticket.Seq), zap.Error(err))
		return OutcomeRequestFailure
	}

	if !c.store.CommitDegreePlan(ticket.Revision, plan) {
		c.status = dto.RequestStatusIdle
		c.logger.Debug("dropping degree plan computed from outdated inputs", zap.Uint64("revision", ticket.Revision))
		return OutcomeStale
	}

	c.status = dto.RequestStatusSucceeded
	return OutcomeSuccess
}

// Generate validates, calls the planner and applies the result in one step.
func (c *DegreePlanController) Generate(ctx context.Context, input dto.DegreePlanConstraints) (Outcome, error) {
	submission, err := c.Begin(input)
	if err != nil {
		return OutcomeValidationError, err
	}
	return c.Execute(ctx, *submission)
}

// State reports the latest attempt's status and error.
func (c *DegreePlanController) State() DegreePlanState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return DegreePlanState{Status: c.status, Err: c.err}
}
