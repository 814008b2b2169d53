package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursecraft-api/internal/dto"
	"github.com/noah-isme/coursecraft-api/internal/models"
)

type plannerStub struct {
	mu       sync.Mutex
	plan     *models.DegreePlan
	err      error
	requests []models.DegreePlanRequest
}

func (p *plannerStub) PlanDegree(ctx context.Context, req models.DegreePlanRequest) (*models.DegreePlan, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	return p.plan, nil
}

func newPlanningStore() *SessionStore {
	store := NewSessionStore()
	store.SetSelectedProgram(strPtr("CS-BSc"))
	store.SetCompletedCourseCodes([]string{"CS101"})
	return store
}

func TestDegreePlanControllerGenerateStoresPlan(t *testing.T) {
	store := newPlanningStore()
	planner := &plannerStub{plan: samplePlan("2026-F", "2027-W")}
	controller := NewDegreePlanController(store, planner, nil)

	outcome, err := controller.Generate(context.Background(), validConstraints())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome)

	require.Len(t, planner.requests, 1)
	assert.Equal(t, []string{"CS101"}, planner.requests[0].CompletedCourses)
	stored := store.Snapshot().LastDegreePlan
	require.NotNil(t, stored)
	assert.Len(t, stored.Terms, 2)
	assert.Equal(t, dto.RequestStatusSucceeded, controller.State().Status)
}

func TestDegreePlanControllerValidationSendsNothing(t *testing.T) {
	store := newPlanningStore()
	planner := &plannerStub{plan: samplePlan("2026-F")}
	controller := NewDegreePlanController(store, planner, nil)

	input := validConstraints()
	input.MaxCredits = "0"
	outcome, err := controller.Generate(context.Background(), input)

	assert.Equal(t, OutcomeValidationError, outcome)
	assert.Error(t, err)
	assert.Empty(t, planner.requests)
	assert.Equal(t, dto.RequestStatusIdle, controller.State().Status)
}

func TestDegreePlanControllerFailureKeepsLastPlan(t *testing.T) {
	store := newPlanningStore()
	planner := &plannerStub{plan: samplePlan("2026-F")}
	controller := NewDegreePlanController(store, planner, nil)
	_, err := controller.Generate(context.Background(), validConstraints())
	require.NoError(t, err)

	planner.err = errors.New("connection refused")
	outcome, err := controller.Generate(context.Background(), validConstraints())

	assert.Equal(t, OutcomeRequestFailure, outcome)
	assert.Error(t, err)
	state := controller.State()
	assert.Equal(t, dto.RequestStatusFailed, state.Status)
	assert.Error(t, state.Err)
	require.NotNil(t, store.Snapshot().LastDegreePlan)

	planner.err = nil
	_, err = controller.Begin(validConstraints())
	require.NoError(t, err)
	assert.NoError(t, controller.State().Err)
	assert.Equal(t, dto.RequestStatusPending, controller.State().Status)
}

func TestDegreePlanControllerDropsSupersededResponse(t *testing.T) {
	store := newPlanningStore()
	controller := NewDegreePlanController(store, &plannerStub{}, nil)

	first, err := controller.Begin(validConstraints())
	require.NoError(t, err)
	second, err := controller.Begin(validConstraints())
	require.NoError(t, err)

	secondPlan := samplePlan("2027-W")
	assert.Equal(t, OutcomeSuccess, controller.Complete(second.Ticket, secondPlan, nil))
	assert.Equal(t, OutcomeStale, controller.Complete(first.Ticket, samplePlan("2026-F"), nil))

	stored := store.Snapshot().LastDegreePlan
	require.NotNil(t, stored)
	assert.Equal(t, "2027-W", stored.Terms[0].TermID)
	assert.Equal(t, dto.RequestStatusSucceeded, controller.State().Status)
}

func TestDegreePlanControllerDropsSupersededFailure(t *testing.T) {
	store := newPlanningStore()
	controller := NewDegreePlanController(store, &plannerStub{}, nil)

	first, _ := controller.Begin(validConstraints())
	second, _ := controller.Begin(validConstraints())
	require.Equal(t, OutcomeSuccess, controller.Complete(second.Ticket, samplePlan("2026-F"), nil))

	assert.Equal(t, OutcomeStale, controller.Complete(first.Ticket, nil, errors.New("timeout")))
	assert.NoError(t, controller.State().Err)
}

func TestDegreePlanControllerDropsPlanForChangedInputs(t *testing.T) {
	store := newPlanningStore()
	controller := NewDegreePlanController(store, &plannerStub{}, nil)

	submission, err := controller.Begin(validConstraints())
	require.NoError(t, err)
	store.ToggleCompletedCourse("MATH101")

	assert.Equal(t, OutcomeStale, controller.Complete(submission.Ticket, samplePlan("2026-F"), nil))
	assert.Nil(t, store.Snapshot().LastDegreePlan)
	assert.Equal(t, dto.RequestStatusIdle, controller.State().Status)
}

func TestDegreePlanControllerTreatsNilPlanAsFailure(t *testing.T) {
	store := newPlanningStore()
	controller := NewDegreePlanController(store, &plannerStub{}, nil)

	outcome, err := controller.Generate(context.Background(), validConstraints())
	assert.Equal(t, OutcomeRequestFailure, outcome)
	assert.Error(t, err)
}

func TestDegreePlanControllerReturnsToIdleWhenPlanCleared(t *testing.T) {
	store := newPlanningStore()
	controller := NewDegreePlanController(store, &plannerStub{plan: samplePlan("2026-F")}, nil)

	outcome, err := controller.Generate(context.Background(), validConstraints())
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, outcome)

	store.SetSelectedProgram(strPtr("MATH-BSc"))

	assert.Nil(t, store.Snapshot().LastDegreePlan)
	assert.Equal(t, dto.RequestStatusIdle, controller.State().Status)
	assert.NoError(t, controller.State().Err)
}

func TestDegreePlanControllerClearedPlanSupersedesInFlight(t *testing.T) {
	store := newPlanningStore()
	controller := NewDegreePlanController(store, &plannerStub{}, nil)

	submission, err := controller.Begin(validConstraints())
	require.NoError(t, err)
	store.Reset()

	assert.Equal(t, dto.RequestStatusIdle, controller.State().Status)
	assert.Equal(t, OutcomeStale, controller.Complete(submission.Ticket, nil, errors.New("timeout")))
	assert.Equal(t, dto.RequestStatusIdle, controller.State().Status)
	assert.NoError(t, controller.State().Err)
}
