package entity

import (
	"time"
)

// RecurrencePattern selects how a recurring holiday repeats.
type RecurrencePattern string

const (
	RecurrenceNone    RecurrencePattern = "none"
	RecurrenceDaily   RecurrencePattern = "daily"
	RecurrenceWeekly  RecurrencePattern = "weekly"
	RecurrenceMonthly RecurrencePattern = "monthly"
	RecurrenceYearly  RecurrencePattern = "yearly"
)

// recurrenceRule decides whether a holiday anchored on anchor falls on date.
type recurrenceRule func(anchor, date Date) bool

// recurrenceRules is the closed set of supported patterns. Adding a pattern
// means adding an entry here; callers only use OccursOn.
var recurrenceRules = map[RecurrencePattern]recurrenceRule{
	RecurrenceNone: func(anchor, date Date) bool {
		return anchor.Equal(date)
	},
	RecurrenceDaily: func(anchor, date Date) bool {
		return !date.Before(anchor)
	},
	RecurrenceWeekly: func(anchor, date Date) bool {
		return !date.Before(anchor) && anchor.Weekday() == date.Weekday()
	},
	// Months without the anchor's day (e.g. the 31st) are skipped.
	RecurrenceMonthly: func(anchor, date Date) bool {
		return !date.Before(anchor) && anchor.Day() == date.Day()
	},
	// Matches month and day in any year, so a Feb 29 holiday only occurs in
	// leap years.
	RecurrenceYearly: func(anchor, date Date) bool {
		return anchor.Month() == date.Month() && anchor.Day() == date.Day()
	},
}

// ParseRecurrencePattern maps a stored value onto a known pattern. An empty
// value means none.
func ParseRecurrencePattern(value string) (RecurrencePattern, error) {
	if value == "" {
		return RecurrenceNone, nil
	}
	p := RecurrencePattern(value)
	if _, ok := recurrenceRules[p]; !ok {
		return "", newValidationError("recurrence_pattern", "unknown pattern %q", value)
	}
	return p, nil
}

// HolidaySchedule closes the provider for a whole day, once or on a
// recurring basis.
type HolidaySchedule struct {
	date        Date
	reason      string
	isRecurring bool
	pattern     RecurrencePattern
}

// NewHolidaySchedule requires a pattern other than none iff isRecurring.
func NewHolidaySchedule(date Date, reason string, isRecurring bool, pattern RecurrencePattern) (HolidaySchedule, error) {
	if date.IsZero() {
		return HolidaySchedule{}, newValidationError("holiday", "date is required")
	}
	if pattern == "" {
		pattern = RecurrenceNone
	}
	if _, ok := recurrenceRules[pattern]; !ok {
		return HolidaySchedule{}, newValidationError("recurrence_pattern", "unknown pattern %q", pattern)
	}
	if isRecurring && pattern == RecurrenceNone {
		return HolidaySchedule{}, newValidationError("recurrence_pattern", "recurring holiday on %s needs a pattern", date)
	}
	if !isRecurring && pattern != RecurrenceNone {
		return HolidaySchedule{}, newValidationError("recurrence_pattern", "non-recurring holiday on %s cannot use pattern %q", date, pattern)
	}
	return HolidaySchedule{date: date, reason: reason, isRecurring: isRecurring, pattern: pattern}, nil
}

func (h HolidaySchedule) Date() Date { return h.date }

func (h HolidaySchedule) Reason() string { return h.reason }

func (h HolidaySchedule) IsRecurring() bool { return h.isRecurring }

func (h HolidaySchedule) Pattern() RecurrencePattern { return h.pattern }

// OccursOn reports whether the holiday closes the provider on date.
func (h HolidaySchedule) OccursOn(date Date) bool {
	rule, ok := recurrenceRules[h.pattern]
	if !ok {
		return false
	}
	return rule(h.date, date)
}

// OccursOnTime is OccursOn for the calendar date of t in loc.
func (h HolidaySchedule) OccursOnTime(t time.Time, loc *time.Location) bool {
	return h.OccursOn(DateOf(t.In(loc)))
}
