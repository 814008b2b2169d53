package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/coursecraft-api/internal/models"
)

// Weekdays lists the weekly grid columns in canonical order.
var Weekdays = []string{"MON", "TUE", "WED", "THU", "FRI"}

// Fallback display window bounds in minutes since midnight.
const (
	FallbackEarliestMinutes = 540
	FallbackLatestMinutes   = 1080
)

// DaySchedule is one weekday column of the weekly grid.
type DaySchedule struct {
	Day      string
	Sections []models.TimetableSection
}

// TimeWindow is the effective display window.
type TimeWindow struct {
	EarliestMinutes int
	LatestMinutes   int
}

// Label renders the window as "9:00 to 18:00".
func (w TimeWindow) Label() string {
	return FormatTimeLabel(w.EarliestMinutes) + " to " + FormatTimeLabel(w.LatestMinutes)
}

// BucketByWeekday groups sections into the five weekday columns, each ordered
// by start time. Sections sharing a start time keep their input order, and
// sections on other days are left out of the grid.
func BucketByWeekday(sections []models.TimetableSection) []DaySchedule {
	index := make(map[string]int, len(Weekdays))
	week := make([]DaySchedule, len(Weekdays))
	for i, day := range Weekdays {
		index[day] = i
		week[i] = DaySchedule{Day: day, Sections: []models.TimetableSection{}}
	}
	for _, section := range sections {
		if i, ok := index[section.DayOfWeek]; ok {
			week[i].Sections = append(week[i].Sections, section)
		}
	}
	for i := range week {
		day := week[i].Sections
		sort.SliceStable(day, func(a, b int) bool {
			return day[a].StartTimeMinutes < day[b].StartTimeMinutes
		})
	}
	return week
}

// ParseTimeOfDay parses "HH:MM" into minutes since midnight.
func ParseTimeOfDay(raw string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, false
	}
	return hours*60 + minutes, true
}

// EffectiveWindow resolves the display window from raw time inputs, substituting
// the fallback bound for any input that does not parse.
func EffectiveWindow(earliestRaw, latestRaw string) TimeWindow {
	window := TimeWindow{EarliestMinutes: FallbackEarliestMinutes, LatestMinutes: FallbackLatestMinutes}
	if v, ok := ParseTimeOfDay(earliestRaw); ok {
		window.EarliestMinutes = v
	}
	if v, ok := ParseTimeOfDay(latestRaw); ok {
		window.LatestMinutes = v
	}
	return window
}

// FormatTimeLabel renders minutes since midnight as H:MM.
func FormatTimeLabel(minutes int) string {
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}
