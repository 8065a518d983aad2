package entity

import (
	"time"

	"github.com/google/uuid"
)

// HoursSource records which calendar rule decided a day's hours.
type HoursSource string

const (
	HoursSourceWeekday   HoursSource = "weekday"
	HoursSourceHoliday   HoursSource = "holiday"
	HoursSourceException HoursSource = "exception"
)

// EffectiveHours is the resolved schedule of a single date.
type EffectiveHours struct {
	Date   Date
	Closed bool
	Open   TimeOfDay
	Close  TimeOfDay
	Breaks []BreakPeriod
	Source HoursSource
	Reason string
}

// Window returns the open interval of the day as instants in loc. It must
// not be called on a closed day.
func (h EffectiveHours) Window(loc *time.Location) TimeSlot {
	return TimeSlot{start: h.Date.At(h.Open, loc), end: h.Date.At(h.Close, loc)}
}

// BusinessCalendar composes weekday hours, holidays and exceptions for one
// provider in the provider's time zone.
type BusinessCalendar struct {
	providerID uuid.UUID
	location   *time.Location
	hours      map[time.Weekday]OperatingHours
	holidays   []HolidaySchedule
	exceptions map[Date]ExceptionSchedule
}

// NewBusinessCalendar rejects two entries for the same weekday or two
// exceptions for the same date. Weekdays without an entry are closed.
func NewBusinessCalendar(providerID uuid.UUID, loc *time.Location, hours []OperatingHours, holidays []HolidaySchedule, exceptions []ExceptionSchedule) (*BusinessCalendar, error) {
	if loc == nil {
		loc = time.UTC
	}

	cal := &BusinessCalendar{
		providerID: providerID,
		location:   loc,
		hours:      make(map[time.Weekday]OperatingHours, len(hours)),
		holidays:   append([]HolidaySchedule(nil), holidays...),
		exceptions: make(map[Date]ExceptionSchedule, len(exceptions)),
	}

	for _, h := range hours {
		if _, dup := cal.hours[h.weekday]; dup {
			return nil, newValidationError("operating_hours", "duplicate hours for %s", h.weekday)
		}
		cal.hours[h.weekday] = h
	}
	for _, e := range exceptions {
		if _, dup := cal.exceptions[e.date]; dup {
			return nil, newValidationError("exception", "duplicate exception for %s", e.date)
		}
		cal.exceptions[e.date] = e
	}

	return cal, nil
}

func (c *BusinessCalendar) ProviderID() uuid.UUID { return c.providerID }

func (c *BusinessCalendar) Location() *time.Location { return c.location }

// GetEffectiveHours resolves date with precedence exception, then holiday,
// then the weekday's regular hours.
func (c *BusinessCalendar) GetEffectiveHours(date Date) EffectiveHours {
	if e, ok := c.exceptions[date]; ok {
		if e.closed {
			return EffectiveHours{Date: date, Closed: true, Source: HoursSourceException, Reason: e.reason}
		}
		return EffectiveHours{Date: date, Open: e.open, Close: e.close, Source: HoursSourceException, Reason: e.reason}
	}

	for _, h := range c.holidays {
		if h.OccursOn(date) {
			return EffectiveHours{Date: date, Closed: true, Source: HoursSourceHoliday, Reason: h.reason}
		}
	}

	h, ok := c.hours[date.Weekday()]
	if !ok || h.closed {
		return EffectiveHours{Date: date, Closed: true, Source: HoursSourceWeekday}
	}
	return EffectiveHours{
		Date:   date,
		Open:   h.open,
		Close:  h.close,
		Breaks: h.Breaks(),
		Source: HoursSourceWeekday,
	}
}

// DateOf returns the calendar date of instant t in the provider's zone.
func (c *BusinessCalendar) DateOf(t time.Time) Date {
	return DateOf(t.In(c.location))
}
