package service

import (
	"strings"
	"sync"

	"github.com/noah-isme/coursecraft-api/internal/models"
)

// SessionSnapshot is an immutable copy of a planning session's state.
type SessionSnapshot struct {
	SelectedProgramID    *string
	CompletedCourseCodes []string
	LastDegreePlan       *models.DegreePlan
	Revision             uint64
}

// PlanListener observes every replacement or clearing of the stored degree plan.
type PlanListener func(plan *models.DegreePlan)

// SessionStore owns the canonical planning session. All cross-field invalidation
// happens inside its mutators; invalidation is unconditional.
type SessionStore struct {
	mu        sync.RWMutex
	programID *string
	completed []string
	plan      *models.DegreePlan
	revision  uint64
	listeners []PlanListener
}

// NewSessionStore builds an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{completed: []string{}}
}

// OnPlanChange registers a listener. Listeners run outside the store lock.
func (s *SessionStore) OnPlanChange(listener PlanListener) {
	if listener == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, listener)
	s.mu.Unlock()
}

// Snapshot returns a deep copy of the current state.
func (s *SessionStore) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionSnapshot{
		SelectedProgramID:    copyString(s.programID),
		CompletedCourseCodes: append([]string{}, s.completed...),
		LastDegreePlan:       clonePlan(s.plan),
		Revision:             s.revision,
	}
}

// Revision returns the input revision the stored plan must match.
func (s *SessionStore) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// SetSelectedProgram replaces the program and clears completed courses and the plan.
func (s *SessionStore) SetSelectedProgram(programID *string) {
	s.mu.Lock()
	s.programID = copyString(programID)
	s.completed = []string{}
	s.plan = nil
	s.revision++
	listeners := s.listenersLocked()
	s.mu.Unlock()
	notify(listeners, nil)
}

// SetCompletedCourseCodes replaces the completed set and clears the plan.
func (s *SessionStore) SetCompletedCourseCodes(codes []string) {
	s.mu.Lock()
	s.completed = uniqueCodes(codes)
	s.plan = nil
	s.revision++
	listeners := s.listenersLocked()
	s.mu.Unlock()
	notify(listeners, nil)
}

// ToggleCompletedCourse adds the code when absent and removes it when present.
// It returns the resulting set.
func (s *SessionStore) ToggleCompletedCourse(code string) []string {
	code = strings.TrimSpace(code)
	s.mu.Lock()
	next := make([]string, 0, len(s.completed)+1)
	found := false
	for _, existing := range s.completed {
		if existing == code {
			found = true
			continue
		}
		next = append(next, existing)
	}
	if !found && code != "" {
		next = append(next, code)
	}
	s.completed = next
	s.plan = nil
	s.revision++
	result := append([]string{}, next...)
	listeners := s.listenersLocked()
	s.mu.Unlock()
	notify(listeners, nil)
	return result
}

// SetLastDegreePlan writes the plan directly.
func (s *SessionStore) SetLastDegreePlan(plan *models.DegreePlan) {
	s.mu.Lock()
	s.plan = clonePlan(plan)
	listeners := s.listenersLocked()
	s.mu.Unlock()
	notify(listeners, clonePlan(plan))
}

// CommitDegreePlan stores a plan computed from the given input revision. It
// reports false and leaves state untouched when the inputs changed since.
func (s *SessionStore) CommitDegreePlan(revision uint64, plan *models.DegreePlan) bool {
	s.mu.Lock()
	if s.revision != revision {
		s.mu.Unlock()
		return false
	}
	s.plan = clonePlan(plan)
	listeners := s.listenersLocked()
	s.mu.Unlock()
	notify(listeners, clonePlan(plan))
	return true
}

// Reset clears the whole session.
func (s *SessionStore) Reset() {
	s.mu.Lock()
	s.programID = nil
	s.completed = []string{}
	s.plan = nil
	s.revision++
	listeners := s.listenersLocked()
	s.mu.Unlock()
	notify(listeners, nil)
}

func (s *SessionStore) listenersLocked() []PlanListener {
	return append([]PlanListener(nil), s.listeners...)
}

func notify(listeners []PlanListener, plan *models.DegreePlan) {
	for _, listener := range listeners {
		listener(plan)
	}
}

func uniqueCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func clonePlan(plan *models.DegreePlan) *models.DegreePlan {
	if plan == nil {
		return nil
	}
	out := &models.DegreePlan{
		Terms: make([]models.DegreePlanTerm, len(plan.Terms)),
		Objective: models.DegreePlanObjective{
			Status:           plan.Objective.Status,
			MaxTermUsedIndex: copyInt(plan.Objective.MaxTermUsedIndex),
		},
		Warnings: append([]string{}, plan.Warnings...),
	}
	for i, term := range plan.Terms {
		out.Terms[i] = models.DegreePlanTerm{
			TermID:       term.TermID,
			CourseCodes:  append([]string{}, term.CourseCodes...),
			TotalCredits: term.TotalCredits,
		}
	}
	return out
}
