package availability

import (
	"errors"
	"time"

	"go-booking-engine/internal/domain/entity"
)

// ErrNoDuration is returned when the service duration is zero.
var ErrNoDuration = errors.New("service duration must be positive")

// Options tune slot generation.
type Options struct {
	// Granularity is the step between candidate starts. Zero steps by the
	// service duration.
	Granularity entity.Duration
}

func (o Options) step(serviceDuration entity.Duration) time.Duration {
	if o.Granularity.IsZero() {
		return serviceDuration.Std()
	}
	return o.Granularity.Std()
}

// FreeIntervals subtracts the breaks of a day from its open window. The
// result is ordered, pairwise disjoint and inside [open, close). A closed day
// yields nothing.
func FreeIntervals(hours entity.EffectiveHours, loc *time.Location) []entity.TimeSlot {
	if hours.Closed {
		return nil
	}

	window := hours.Window(loc)
	cursor := window.Start()
	var free []entity.TimeSlot

	// Breaks arrive sorted and non-overlapping from OperatingHours.
	for _, b := range hours.Breaks {
		bStart := hours.Date.At(b.Start(), loc)
		bEnd := hours.Date.At(b.End(), loc)
		if bStart.After(cursor) {
			if s, err := entity.NewTimeSlot(cursor, bStart); err == nil {
				free = append(free, s)
			}
		}
		if bEnd.After(cursor) {
			cursor = bEnd
		}
	}
	if window.End().After(cursor) {
		if s, err := entity.NewTimeSlot(cursor, window.End()); err == nil {
			free = append(free, s)
		}
	}
	return free
}

// candidates walks one free interval and returns every slot of length d that
// fits entirely inside it.
func candidates(free entity.TimeSlot, d entity.Duration, step time.Duration) []entity.TimeSlot {
	var out []entity.TimeSlot
	length := d.Std()
	for t := free.Start(); !t.Add(length).After(free.End()); t = t.Add(step) {
		s, err := entity.NewTimeSlot(t, t.Add(length))
		if err != nil {
			break
		}
		out = append(out, s)
	}
	return out
}

// GenerateSlots returns the bookable slots of every open day in dateRange, in
// chronological order. A candidate is dropped when it overlaps any
// commitment. The function is pure: same inputs, same output.
func GenerateSlots(cal *entity.BusinessCalendar, dateRange entity.DateRange, serviceDuration entity.Duration, commitments []entity.TimeSlot, opts Options) ([]entity.TimeSlot, error) {
	days, err := GenerateDays(cal, dateRange, serviceDuration, commitments, opts)
	if err != nil {
		return nil, err
	}
	var out []entity.TimeSlot
	for _, d := range days {
		out = append(out, d.Slots...)
	}
	return out, nil
}

// Day is the availability of one date.
type Day struct {
	Date  entity.Date
	Hours entity.EffectiveHours
	Slots []entity.TimeSlot
	// Booked are candidates removed because a commitment overlaps them.
	Booked int
}

// GenerateDays is GenerateSlots grouped by date. Closed days are included
// with no slots.
func GenerateDays(cal *entity.BusinessCalendar, dateRange entity.DateRange, serviceDuration entity.Duration, commitments []entity.TimeSlot, opts Options) ([]Day, error) {
	if serviceDuration.IsZero() {
		return nil, ErrNoDuration
	}
	step := opts.step(serviceDuration)
	loc := cal.Location()

	sorted := append([]entity.TimeSlot(nil), commitments...)
	entity.SortSlots(sorted)

	var days []Day
	for _, date := range dateRange.Days() {
		hours := cal.GetEffectiveHours(date)
		day := Day{Date: date, Hours: hours}
		for _, free := range FreeIntervals(hours, loc) {
			for _, c := range candidates(free, serviceDuration, step) {
				if c.OverlapsAny(sorted) {
					day.Booked++
					continue
				}
				day.Slots = append(day.Slots, c)
			}
		}
		days = append(days, day)
	}
	return days, nil
}

// FitsCalendar reports whether slot lies entirely inside one free interval of
// the day it starts on.
func FitsCalendar(cal *entity.BusinessCalendar, slot entity.TimeSlot) bool {
	date := cal.DateOf(slot.Start())
	for _, free := range FreeIntervals(cal.GetEffectiveHours(date), cal.Location()) {
		if free.Covers(slot) {
			return true
		}
	}
	return false
}

// FilterSlots keeps the slots accepted by keep, preserving order.
func FilterSlots(slots []entity.TimeSlot, keep func(entity.TimeSlot) bool) []entity.TimeSlot {
	out := make([]entity.TimeSlot, 0, len(slots))
	for _, s := range slots {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}
