package entity

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date without a time zone. It is interpreted in the
// provider's location when converted to instants.
type Date struct {
	year  int
	month time.Month
	day   int
}

func NewDate(year int, month time.Month, day int) (Date, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, newValidationError("date", "%04d-%02d-%02d does not exist", year, int(month), day)
	}
	return Date{year: year, month: month, day: day}, nil
}

// MustDate panics on an invalid date. Intended for tests.
func MustDate(year int, month time.Month, day int) Date {
	d, err := NewDate(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return Date{}, newValidationError("date", "%q is not a YYYY-MM-DD date", value)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

func (d Date) Year() int { return d.year }

func (d Date) Month() time.Month { return d.month }

func (d Date) Day() int { return d.day }

func (d Date) IsZero() bool { return d.year == 0 && d.month == 0 && d.day == 0 }

func (d Date) Weekday() time.Weekday { return d.utc().Weekday() }

func (d Date) utc() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.utc().AddDate(0, 0, n))
}

func (d Date) Before(other Date) bool { return d.utc().Before(other.utc()) }

func (d Date) After(other Date) bool { return d.utc().After(other.utc()) }

func (d Date) Equal(other Date) bool { return d == other }

// DaysUntil returns the number of days from d to other; negative when other
// is earlier.
func (d Date) DaysUntil(other Date) int {
	return int(other.utc().Sub(d.utc()).Hours() / 24)
}

// At returns the instant of the given time of day on d in loc. A time of
// 24:00 resolves to midnight of the following day.
func (d Date) At(tod TimeOfDay, loc *time.Location) time.Time {
	return time.Date(d.year, d.month, d.day, tod.Hour(), tod.Minute(), 0, 0, loc)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	from Date
	to   Date
}

// NewDateRange validates from <= to and, when maxDays > 0, that the range
// spans at most maxDays days.
func NewDateRange(from, to Date, maxDays int) (DateRange, error) {
	if from.IsZero() || to.IsZero() {
		return DateRange{}, newValidationError("date_range", "from and to are required")
	}
	if to.Before(from) {
		return DateRange{}, newValidationError("date_range", "to %s is before from %s", to, from)
	}
	if maxDays > 0 && from.DaysUntil(to)+1 > maxDays {
		return DateRange{}, newValidationError("date_range", "range spans more than %d days", maxDays)
	}
	return DateRange{from: from, to: to}, nil
}

func (r DateRange) From() Date { return r.from }

func (r DateRange) To() Date { return r.to }

// Days lists every date in the range in order.
func (r DateRange) Days() []Date {
	n := r.from.DaysUntil(r.to) + 1
	days := make([]Date, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, r.from.AddDays(i))
	}
	return days
}

func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.from) && !d.After(r.to)
}

// Bounds returns the instants [from 00:00, to+1 00:00) in loc.
func (r DateRange) Bounds(loc *time.Location) (time.Time, time.Time) {
	return r.from.At(Midnight, loc), r.to.AddDays(1).At(Midnight, loc)
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.from, r.to)
}
