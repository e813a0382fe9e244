package macro

import (
	"slices"
	"strings"
)

// CalendarWindow is the number of days ahead covered by the calendar sidebar.
const CalendarWindow = 14

// DefaultKeywords flag the releases that move US rates the most.
var DefaultKeywords = []string{"FOMC", "Non Farm Payrolls", "ADP Employment", "CPI"}

// CalendarEvent is a scheduled economic release or meeting.
type CalendarEvent struct {
	Date      Date   `json:"date" yaml:"date"`
	Country   string `json:"country" yaml:"country"`
	Event     string `json:"event" yaml:"event"`
	Important bool   `json:"important" yaml:"-"`
}

// IsImportant returns true if the event name contains any of the keywords,
// ignoring case.
func IsImportant(name string, keywords []string) bool {
	name = strings.ToLower(name)
	for _, k := range keywords {
		if k != "" && strings.Contains(name, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// BuildCalendar returns the events dated from 'now' to 'now' plus
// CalendarWindow days, both included, sorted by date, with their Important
// flag set from the keywords (DefaultKeywords if nil).
//
// The input is not modified.
func BuildCalendar(events []CalendarEvent, now Date, keywords []string) []CalendarEvent {
	if keywords == nil {
		keywords = DefaultKeywords
	}
	window := NewRange(now, now.Add(CalendarWindow))
	res := make([]CalendarEvent, 0, len(events))
	for _, e := range events {
		if !window.Contains(e.Date) {
			continue
		}
		e.Important = IsImportant(e.Event, keywords)
		res = append(res, e)
	}
	slices.SortStableFunc(res, func(a, b CalendarEvent) int { return a.Date.Compare(b.Date) })
	return res
}
