package models

// DegreePlanRequest is the validated payload sent to the degree planner.
type DegreePlanRequest struct {
	ProgramID         string   `json:"program_id"`
	CompletedCourses  []string `json:"completed_courses"`
	TargetGradTerm    *string  `json:"target_grad_term"`
	AllowedTerms      []string `json:"allowed_terms"`
	MinCreditsPerTerm float64  `json:"min_credits_per_term"`
	MaxCreditsPerTerm float64  `json:"max_credits_per_term"`
	MaxTerms          *int     `json:"max_terms"`
}

// DegreePlanTerm is one planned term of a degree plan.
type DegreePlanTerm struct {
	TermID       string   `json:"term_id" validate:"required"`
	CourseCodes  []string `json:"course_codes" validate:"required"`
	TotalCredits float64  `json:"total_credits"`
}

// DegreePlanObjective summarises the planner verdict.
type DegreePlanObjective struct {
	Status           string `json:"status" validate:"required"`
	MaxTermUsedIndex *int   `json:"max_term_used_index"`
}

// DegreePlan is the planner response stored on a planning session.
type DegreePlan struct {
	Terms     []DegreePlanTerm    `json:"terms" validate:"required,dive"`
	Objective DegreePlanObjective `json:"objective"`
	Warnings  []string            `json:"warnings"`
}

// FindTerm returns the planned term with the given id.
func (p *DegreePlan) FindTerm(termID string) (*DegreePlanTerm, bool) {
	if p == nil {
		return nil, false
	}
	for i := range p.Terms {
		if p.Terms[i].TermID == termID {
			return &p.Terms[i], true
		}
	}
	return nil, false
}

// TimetablePreferences narrows the solver search space. Nil fields are unset.
type TimetablePreferences struct {
	EarliestTimeMinutes *int  `json:"earliest_time_minutes"`
	LatestTimeMinutes   *int  `json:"latest_time_minutes"`
	AvoidFriday         *bool `json:"avoid_friday"`
}

// TimetableRequest is the payload sent to the timetable solver.
type TimetableRequest struct {
	TermID       string               `json:"term_id"`
	CourseCodes  []string             `json:"course_codes"`
	Preferences  TimetablePreferences `json:"preferences"`
	MaxSolutions int                  `json:"max_solutions"`
}

// TimetableSection is a scheduled meeting of a course section.
type TimetableSection struct {
	SectionID        string `json:"section_id" validate:"required"`
	CourseCode       string `json:"course_code" validate:"required"`
	Kind             string `json:"kind"`
	DayOfWeek        string `json:"day_of_week" validate:"required"`
	StartTimeMinutes int    `json:"start_time_minutes" validate:"min=0,max=1440"`
	EndTimeMinutes   int    `json:"end_time_minutes" validate:"min=0,max=1440,gtefield=StartTimeMinutes"`
}

// TimetableObjective summarises one option's quality.
type TimetableObjective struct {
	Status       string   `json:"status" validate:"required"`
	TotalPenalty *float64 `json:"total_penalty"`
}

// TimetableOption is one ranked candidate timetable.
type TimetableOption struct {
	Sections  []TimetableSection `json:"sections" validate:"required,dive"`
	Objective TimetableObjective `json:"objective"`
}

// TimetableResponse is the solver reply for a single term.
type TimetableResponse struct {
	Options  []TimetableOption `json:"options" validate:"required,dive"`
	Warnings []string          `json:"warnings"`
}
