package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursecraft-api/internal/dto"
	appErrors "github.com/noah-isme/coursecraft-api/pkg/errors"
)

func selectedSession() SessionSnapshot {
	return SessionSnapshot{SelectedProgramID: strPtr("CS-BSc"), CompletedCourseCodes: []string{"CS101"}}
}

func validConstraints() dto.DegreePlanConstraints {
	return dto.DegreePlanConstraints{AllowedTerms: "2026-F, 2027-W", MinCredits: "0.5", MaxCredits: "1.5"}
}

func requireFieldError(t *testing.T, err error, field, message string) {
	t.Helper()
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.True(t, appErrors.IsValidation(err))
	assert.Equal(t, field, appErr.Field)
	assert.Equal(t, message, appErr.Message)
}

func TestValidateConstraintsBuildsRequest(t *testing.T) {
	req, err := ValidateConstraints(selectedSession(), validConstraints())
	require.NoError(t, err)

	assert.Equal(t, "CS-BSc", req.ProgramID)
	assert.Equal(t, []string{"CS101"}, req.CompletedCourses)
	assert.Equal(t, []string{"2026-F", "2027-W"}, req.AllowedTerms)
	assert.Equal(t, 0.5, req.MinCreditsPerTerm)
	assert.Equal(t, 1.5, req.MaxCreditsPerTerm)
	assert.Nil(t, req.TargetGradTerm)
	assert.Nil(t, req.MaxTerms)
}

func TestValidateConstraintsRequiresProgram(t *testing.T) {
	req, err := ValidateConstraints(SessionSnapshot{}, dto.DegreePlanConstraints{})
	assert.Nil(t, req)
	requireFieldError(t, err, "program_id", MsgProgramRequired)
}

func TestValidateConstraintsRejectsBlankAllowedTerms(t *testing.T) {
	input := validConstraints()
	input.AllowedTerms = "   ,  ,"

	req, err := ValidateConstraints(selectedSession(), input)
	assert.Nil(t, req)
	requireFieldError(t, err, "allowed_terms", MsgAllowedTermsMissing)
}

func TestValidateConstraintsCredits(t *testing.T) {
	cases := []struct {
		name    string
		min     string
		max     string
		wantErr string
	}{
		{name: "fractional", min: "0.5", max: "1.5"},
		{name: "zero max", min: "0", max: "0", wantErr: MsgCreditsInvalid},
		{name: "negative max", min: "0", max: "-1", wantErr: MsgCreditsInvalid},
		{name: "text", min: "abc", max: "1.5", wantErr: MsgCreditsInvalid},
		{name: "blank", min: "", max: "1.5", wantErr: MsgCreditsInvalid},
		{name: "infinite", min: "0.5", max: "Inf", wantErr: MsgCreditsInvalid},
		{name: "not a number", min: "NaN", max: "1.5", wantErr: MsgCreditsInvalid},
		{name: "min above max", min: "2", max: "1.5", wantErr: MsgCreditsOrder},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validConstraints()
			input.MinCredits = tc.min
			input.MaxCredits = tc.max

			req, err := ValidateConstraints(selectedSession(), input)
			if tc.wantErr == "" {
				require.NoError(t, err)
				assert.NotNil(t, req)
				return
			}
			require.Error(t, err)
			assert.Nil(t, req)
			assert.Equal(t, tc.wantErr, appErrors.FromError(err).Message)
		})
	}
}

func TestValidateConstraintsMaxTerms(t *testing.T) {
	input := validConstraints()
	input.MaxTerms = " 4 "
	req, err := ValidateConstraints(selectedSession(), input)
	require.NoError(t, err)
	require.NotNil(t, req.MaxTerms)
	assert.Equal(t, 4, *req.MaxTerms)

	for _, raw := range []string{"four", "2.5", "0", "-3"} {
		input.MaxTerms = raw
		_, err := ValidateConstraints(selectedSession(), input)
		requireFieldError(t, err, "max_terms", MsgMaxTermsInvalid)
	}
}

func TestValidateConstraintsTargetTermTrimmed(t *testing.T) {
	input := validConstraints()
	input.TargetGradTerm = "  2027-W "
	req, err := ValidateConstraints(selectedSession(), input)
	require.NoError(t, err)
	require.NotNil(t, req.TargetGradTerm)
	assert.Equal(t, "2027-W", *req.TargetGradTerm)
}

func TestValidateConstraintsFirstFailureWins(t *testing.T) {
	input := dto.DegreePlanConstraints{AllowedTerms: "", MinCredits: "x", MaxCredits: "y", MaxTerms: "z"}
	_, err := ValidateConstraints(selectedSession(), input)
	requireFieldError(t, err, "allowed_terms", MsgAllowedTermsMissing)
}
