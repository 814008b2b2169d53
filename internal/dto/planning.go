package dto

import "github.com/noah-isme/coursecraft-api/internal/models"

// SelectProgramRequest replaces the selected program. A null program clears it.
type SelectProgramRequest struct {
	ProgramID *string `json:"program_id"`
}

// CompletedCoursesRequest replaces the completed course set.
type CompletedCoursesRequest struct {
	CourseCodes []string `json:"course_codes" validate:"omitempty,dive,required"`
}

// DegreePlanConstraints carries the raw constraint form fields as typed by the user.
type DegreePlanConstraints struct {
	AllowedTerms   string `json:"allowed_terms"`
	TargetGradTerm string `json:"target_grad_term"`
	MinCredits     string `json:"min_credits"`
	MaxCredits     string `json:"max_credits"`
	MaxTerms       string `json:"max_terms"`
}

// TimetablePreferencesInput carries raw preference fields. Empty times are unset.
type TimetablePreferencesInput struct {
	EarliestTime string `json:"earliest_time"`
	LatestTime   string `json:"latest_time"`
	AvoidFriday  bool   `json:"avoid_friday"`
}

// GenerateTimetableRequest asks for timetable options for one planned term.
// When CourseCodes is omitted the term's planned courses are used.
type GenerateTimetableRequest struct {
	TermID       string                    `json:"term_id" validate:"required"`
	CourseCodes  []string                  `json:"course_codes" validate:"omitempty,dive,required"`
	Preferences  TimetablePreferencesInput `json:"preferences"`
	MaxSolutions int                       `json:"max_solutions" validate:"omitempty,min=1,max=500"`
}

// SelectTimetableRequest changes the active option. A null index clears the selection.
type SelectTimetableRequest struct {
	Index *int `json:"index"`
}

// SessionCreatedResponse returns a freshly issued planning session.
type SessionCreatedResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// SessionView is the read model of a planning session.
type SessionView struct {
	SessionID            string   `json:"session_id"`
	SelectedProgramID    *string  `json:"selected_program_id"`
	SelectedProgramName  *string  `json:"selected_program_name,omitempty"`
	CompletedCourseCodes []string `json:"completed_course_codes"`
	CompletedCredits     float64  `json:"completed_credits"`
	HasDegreePlan        bool     `json:"has_degree_plan"`
}

// RequestStatus describes the lifecycle of the latest solver call.
type RequestStatus string

const (
	RequestStatusIdle      RequestStatus = "idle"
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusSucceeded RequestStatus = "succeeded"
	RequestStatusFailed    RequestStatus = "failed"
)

// PlannedCourseView labels a course inside a planned term.
type PlannedCourseView struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// PlannedTermView is a planned term with display labels.
type PlannedTermView struct {
	TermID       string              `json:"term_id"`
	TotalCredits float64             `json:"total_credits"`
	Courses      []PlannedCourseView `json:"courses"`
	Selected     bool                `json:"selected"`
	Loading      bool                `json:"loading"`
}

// DegreePlanView reports degree plan status and the stored plan.
type DegreePlanView struct {
	Status                RequestStatus      `json:"status"`
	Error                 *string            `json:"error,omitempty"`
	Empty                 bool               `json:"empty"`
	Plan                  *models.DegreePlan `json:"plan,omitempty"`
	PlannedGraduationTerm *string            `json:"planned_graduation_term,omitempty"`
	Terms                 []PlannedTermView  `json:"terms"`
}

// ScheduledSectionView is a section placed on the weekly grid.
type ScheduledSectionView struct {
	models.TimetableSection
	CourseLabel string `json:"course_label"`
	TimeLabel   string `json:"time_label"`
}

// DayScheduleView is one weekday column.
type DayScheduleView struct {
	Day      string                 `json:"day"`
	Sections []ScheduledSectionView `json:"sections"`
}

// TimeWindowView is the effective display window.
type TimeWindowView struct {
	EarliestMinutes int    `json:"earliest_minutes"`
	LatestMinutes   int    `json:"latest_minutes"`
	Label           string `json:"label"`
}

// TimetableView reports timetable status, options, and the active weekly grid.
type TimetableView struct {
	Status         RequestStatus            `json:"status"`
	Error          *string                  `json:"error,omitempty"`
	Empty          bool                     `json:"empty"`
	SelectedTermID *string                  `json:"selected_term_id"`
	LoadingTermID  *string                  `json:"loading_term_id"`
	CurrentTermID  *string                  `json:"current_term_id"`
	Options        []models.TimetableOption `json:"options"`
	SelectedIndex  *int                     `json:"selected_index"`
	ActivePenalty  *float64                 `json:"active_penalty"`
	Week           []DayScheduleView        `json:"week"`
	Window         TimeWindowView           `json:"window"`
}

// ExportArtifactResponse points at a stored export artifact.
type ExportArtifactResponse struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	DownloadURL string `json:"download_url"`
	ExpiresAt   string `json:"expires_at"`
}
