package entity

import (
	"sort"
	"time"
)

// BreakPeriod is an intra-day pause [start, end) during which no slot may be
// booked.
type BreakPeriod struct {
	start TimeOfDay
	end   TimeOfDay
}

func NewBreakPeriod(start, end TimeOfDay) (BreakPeriod, error) {
	if !start.Before(end) {
		return BreakPeriod{}, newValidationError("break", "start %s must be before end %s", start, end)
	}
	return BreakPeriod{start: start, end: end}, nil
}

func (b BreakPeriod) Start() TimeOfDay { return b.start }

func (b BreakPeriod) End() TimeOfDay { return b.end }

func (b BreakPeriod) overlaps(other BreakPeriod) bool {
	return b.start.Before(other.end) && other.start.Before(b.end)
}

// OperatingHours are the regular hours of one weekday. Hours built with
// ClosedDay mean the provider does not work that day.
type OperatingHours struct {
	weekday time.Weekday
	open    TimeOfDay
	close   TimeOfDay
	breaks  []BreakPeriod
	closed  bool
}

// NewOperatingHours validates open < close and that breaks are pairwise
// non-overlapping and contained in [open, close]. Breaks may touch each other
// or the open/close bounds. Breaks are stored sorted by start.
func NewOperatingHours(weekday time.Weekday, open, close TimeOfDay, breaks []BreakPeriod) (OperatingHours, error) {
	if weekday < time.Sunday || weekday > time.Saturday {
		return OperatingHours{}, newValidationError("weekday", "%d is not a weekday", int(weekday))
	}
	if !open.Before(close) {
		return OperatingHours{}, newValidationError("operating_hours", "open %s must be before close %s on %s", open, close, weekday)
	}

	sorted := make([]BreakPeriod, len(breaks))
	copy(sorted, breaks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start.Before(sorted[j].start) })

	for i, b := range sorted {
		if b.start.Before(open) || b.end.After(close) {
			return OperatingHours{}, newValidationError("break", "%s-%s is outside %s-%s on %s", b.start, b.end, open, close, weekday)
		}
		if i > 0 && sorted[i-1].overlaps(b) {
			return OperatingHours{}, newValidationError("break", "%s-%s overlaps %s-%s on %s",
				b.start, b.end, sorted[i-1].start, sorted[i-1].end, weekday)
		}
	}

	return OperatingHours{weekday: weekday, open: open, close: close, breaks: sorted}, nil
}

// ClosedDay returns hours for a weekday on which the provider is closed.
func ClosedDay(weekday time.Weekday) OperatingHours {
	return OperatingHours{weekday: weekday, closed: true}
}

func (h OperatingHours) Weekday() time.Weekday { return h.weekday }

func (h OperatingHours) IsClosed() bool { return h.closed }

func (h OperatingHours) Open() TimeOfDay { return h.open }

func (h OperatingHours) Close() TimeOfDay { return h.close }

// Breaks returns a copy of the sorted breaks.
func (h OperatingHours) Breaks() []BreakPeriod {
	out := make([]BreakPeriod, len(h.breaks))
	copy(out, h.breaks)
	return out
}
