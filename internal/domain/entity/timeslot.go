package entity

import (
	"fmt"
	"sort"
	"time"
)

// TimeSlot is the half-open interval [start, end).
type TimeSlot struct {
	start time.Time
	end   time.Time
}

// NewTimeSlot validates end > start strictly.
func NewTimeSlot(start, end time.Time) (TimeSlot, error) {
	if !end.After(start) {
		return TimeSlot{}, newValidationError("time_slot", "end %s must be after start %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return TimeSlot{start: start, end: end}, nil
}

// NewTimeSlotFor builds a slot of length d beginning at start.
func NewTimeSlotFor(start time.Time, d Duration) (TimeSlot, error) {
	if d.IsZero() {
		return TimeSlot{}, newValidationError("time_slot", "duration must be positive")
	}
	return NewTimeSlot(start, start.Add(d.Std()))
}

func (s TimeSlot) Start() time.Time {
	return s.start
}

func (s TimeSlot) End() time.Time {
	return s.end
}

func (s TimeSlot) Duration() Duration {
	return Duration{minutes: int(s.end.Sub(s.start) / time.Minute)}
}

func (s TimeSlot) IsZero() bool {
	return s.start.IsZero() && s.end.IsZero()
}

// Equal reports whether both endpoints denote the same instants.
func (s TimeSlot) Equal(other TimeSlot) bool {
	return s.start.Equal(other.start) && s.end.Equal(other.end)
}

// Overlaps uses strict inequalities so that back-to-back slots do not overlap.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	return s.start.Before(other.end) && other.start.Before(s.end)
}

// Contains is start-inclusive and end-exclusive.
func (s TimeSlot) Contains(instant time.Time) bool {
	return !instant.Before(s.start) && instant.Before(s.end)
}

// Covers reports whether other lies entirely inside s.
func (s TimeSlot) Covers(other TimeSlot) bool {
	return !other.start.Before(s.start) && !other.end.After(s.end)
}

func (s TimeSlot) IsAdjacentTo(other TimeSlot) bool {
	return s.end.Equal(other.start) || other.end.Equal(s.start)
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("[%s, %s)", s.start.Format(time.RFC3339), s.end.Format(time.RFC3339))
}

// OverlapsAny reports whether s overlaps any of slots.
func (s TimeSlot) OverlapsAny(slots []TimeSlot) bool {
	for _, other := range slots {
		if s.Overlaps(other) {
			return true
		}
	}
	return false
}

// SortSlots orders slots by start, then end.
func SortSlots(slots []TimeSlot) {
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].start.Equal(slots[j].start) {
			return slots[i].end.Before(slots[j].end)
		}
		return slots[i].start.Before(slots[j].start)
	})
}
