// Package cli renders planning views for the coursecraft command line tool.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/noah-isme/coursecraft-api/internal/dto"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	dayColor     = color.New(color.FgMagenta, color.Bold)
)

const separator = "═══════════════════════════════════════════════════"

// Header prints a titled separator block.
func Header(w io.Writer, title string) {
	headerColor.Fprintln(w, separator)
	headerColor.Fprintf(w, "  %s\n", title)
	headerColor.Fprintln(w, separator)
}

// Failure prints an error line.
func Failure(w io.Writer, format string, args ...interface{}) {
	errorColor.Fprintf(w, "✗ "+format+"\n", args...)
}

// Success prints a confirmation line.
func Success(w io.Writer, format string, args ...interface{}) {
	successColor.Fprintf(w, "✓ "+format+"\n", args...)
}

// DegreePlan prints each planned term with its courses and the warnings.
func DegreePlan(w io.Writer, view *dto.DegreePlanView) {
	Header(w, "Degree plan")
	if view == nil || view.Plan == nil {
		warnColor.Fprintln(w, "  no plan")
		return
	}
	if view.Empty {
		warnColor.Fprintln(w, "  the planner returned no terms")
	}
	for _, term := range view.Terms {
		fmt.Fprintf(w, "  %s  (%.2f credits)\n", term.TermID, term.TotalCredits)
		for _, course := range term.Courses {
			fmt.Fprintf(w, "      %s\n", course.Label)
		}
	}
	if view.PlannedGraduationTerm != nil {
		successColor.Fprintf(w, "  planned graduation: %s\n", *view.PlannedGraduationTerm)
	}
	fmt.Fprintf(w, "  objective: %s\n", view.Plan.Objective.Status)
	for _, warning := range view.Plan.Warnings {
		warnColor.Fprintf(w, "  ! %s\n", warning)
	}
}

// Timetable prints the option list and the weekday grid of the active option.
func Timetable(w io.Writer, view *dto.TimetableView) {
	term := ""
	if view != nil && view.CurrentTermID != nil {
		term = *view.CurrentTermID
	}
	Header(w, strings.TrimSpace("Timetable "+term))
	if view == nil || view.Empty || len(view.Options) == 0 {
		warnColor.Fprintln(w, "  no feasible timetable")
		return
	}
	for i, option := range view.Options {
		marker := " "
		if view.SelectedIndex != nil && *view.SelectedIndex == i {
			marker = "*"
		}
		penalty := "n/a"
		if option.Objective.TotalPenalty != nil {
			penalty = fmt.Sprintf("%.2f", *option.Objective.TotalPenalty)
		}
		fmt.Fprintf(w, " %s option %d  %s  penalty %s\n", marker, i+1, option.Objective.Status, penalty)
	}
	fmt.Fprintf(w, "  window %s\n", view.Window.Label)
	for _, day := range view.Week {
		dayColor.Fprintf(w, "  %s\n", day.Day)
		if len(day.Sections) == 0 {
			fmt.Fprintln(w, "      -")
			continue
		}
		for _, section := range day.Sections {
			fmt.Fprintf(w, "      %-14s %s (%s %s)\n", section.TimeLabel, section.CourseLabel, section.Kind, section.SectionID)
		}
	}
}
