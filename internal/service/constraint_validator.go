package service

import (
	"math"
	"strconv"
	"strings"

	"github.com/noah-isme/coursecraft-api/internal/dto"
	"github.com/noah-isme/coursecraft-api/internal/models"
	appErrors "github.com/noah-isme/coursecraft-api/pkg/errors"
)

// Validation messages surfaced on the constraints form.
const (
	MsgProgramRequired     = "select a program before generating a plan"
	MsgAllowedTermsMissing = "enter at least one allowed term"
	MsgCreditsInvalid      = "enter valid numeric values for minimum and maximum credits"
	MsgCreditsOrder        = "minimum credits cannot exceed maximum credits"
	MsgMaxTermsInvalid     = "enter a whole number for maximum terms"
)

// ValidateConstraints turns raw constraint fields into a degree plan request.
// Checks run in a fixed order and the first failure is returned.
func ValidateConstraints(session SessionSnapshot, input dto.DegreePlanConstraints) (*models.DegreePlanRequest, error) {
	if session.SelectedProgramID == nil || strings.TrimSpace(*session.SelectedProgramID) == "" {
		return nil, appErrors.Field("program_id", MsgProgramRequired)
	}

	allowedTerms := SplitAllowedTerms(input.AllowedTerms)
	if len(allowedTerms) == 0 {
		return nil, appErrors.Field("allowed_terms", MsgAllowedTermsMissing)
	}

	minCredits, minOK := parseFinite(input.MinCredits)
	maxCredits, maxOK := parseFinite(input.MaxCredits)
	if !minOK || !maxOK || maxCredits <= 0 {
		return nil, appErrors.Field("max_credits", MsgCreditsInvalid)
	}
	if minCredits > maxCredits {
		return nil, appErrors.Field("min_credits", MsgCreditsOrder)
	}

	var maxTerms *int
	if raw := strings.TrimSpace(input.MaxTerms); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, appErrors.Field("max_terms", MsgMaxTermsInvalid)
		}
		maxTerms = &n
	}

	var target *string
	if raw := strings.TrimSpace(input.TargetGradTerm); raw != "" {
		target = &raw
	}

	return &models.DegreePlanRequest{
		ProgramID:         *session.SelectedProgramID,
		CompletedCourses:  append([]string{}, session.CompletedCourseCodes...),
		TargetGradTerm:    target,
		AllowedTerms:      allowedTerms,
		MinCreditsPerTerm: minCredits,
		MaxCreditsPerTerm: maxCredits,
		MaxTerms:          maxTerms,
	}, nil
}

// SplitAllowedTerms splits a comma separated list, trimming and dropping blanks.
func SplitAllowedTerms(raw string) []string {
	parts := strings.Split(raw, ",")
	terms := make([]string, 0, len(parts))
	for _, part := range parts {
		if term := strings.TrimSpace(part); term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

func parseFinite(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
