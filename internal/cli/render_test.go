package cli

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/coursecraft-api/internal/dto"
	"github.com/noah-isme/coursecraft-api/internal/models"
)

func init() {
	color.NoColor = true
}

func TestTimetableRendersWeekGrid(t *testing.T) {
	term := "2026-F"
	index := 0
	penalty := 1.5
	section := models.TimetableSection{SectionID: "s1", CourseCode: "CS101", Kind: "LEC", DayOfWeek: "MON", StartTimeMinutes: 600, EndTimeMinutes: 680}
	view := &dto.TimetableView{
		Status:        dto.RequestStatusSucceeded,
		CurrentTermID: &term,
		Options: []models.TimetableOption{{
			Sections:  []models.TimetableSection{section},
			Objective: models.TimetableObjective{Status: "FEASIBLE", TotalPenalty: &penalty},
		}},
		SelectedIndex: &index,
		Week: []dto.DayScheduleView{
			{Day: "MON", Sections: []dto.ScheduledSectionView{{TimetableSection: section, CourseLabel: "CS101 - Intro", TimeLabel: "10:00 to 11:20"}}},
			{Day: "TUE", Sections: []dto.ScheduledSectionView{}},
		},
		Window: dto.TimeWindowView{Label: "9:00 to 18:00"},
	}

	var buf bytes.Buffer
	Timetable(&buf, view)

	out := buf.String()
	assert.Contains(t, out, "Timetable 2026-F")
	assert.Contains(t, out, "* option 1  FEASIBLE  penalty 1.50")
	assert.Contains(t, out, "window 9:00 to 18:00")
	assert.Contains(t, out, "10:00 to 11:20 CS101 - Intro (LEC s1)")
	assert.Contains(t, out, "  TUE\n      -\n")
}

func TestTimetableRendersEmptyResult(t *testing.T) {
	var buf bytes.Buffer
	Timetable(&buf, &dto.TimetableView{Status: dto.RequestStatusSucceeded, Empty: true})

	assert.Contains(t, buf.String(), "no feasible timetable")
}

func TestDegreePlanRendersTerms(t *testing.T) {
	grad := "2027-W"
	view := &dto.DegreePlanView{
		Status: dto.RequestStatusSucceeded,
		Plan: &models.DegreePlan{
			Objective: models.DegreePlanObjective{Status: "OPTIMAL"},
			Warnings:  []string{"CS999 is not offered"},
		},
		PlannedGraduationTerm: &grad,
		Terms: []dto.PlannedTermView{
			{TermID: "2026-F", TotalCredits: 1, Courses: []dto.PlannedCourseView{{Code: "CS201", Label: "CS201 - Data Structures"}}},
		},
	}

	var buf bytes.Buffer
	DegreePlan(&buf, view)

	out := buf.String()
	assert.Contains(t, out, "2026-F  (1.00 credits)")
	assert.Contains(t, out, "CS201 - Data Structures")
	assert.Contains(t, out, "planned graduation: 2027-W")
	assert.Contains(t, out, "! CS999 is not offered")
}
