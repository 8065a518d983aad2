package entity

import (
	"fmt"
)

// TimeOfDay is a wall-clock time in minutes since midnight. 24:00 is allowed
// so that a day can close at midnight.
type TimeOfDay struct {
	minutes int
}

// Midnight is 00:00.
var Midnight = TimeOfDay{}

func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || minute < 0 || minute > 59 || hour > 24 || (hour == 24 && minute != 0) {
		return TimeOfDay{}, newValidationError("time_of_day", "%02d:%02d is out of range", hour, minute)
	}
	return TimeOfDay{minutes: hour*60 + minute}, nil
}

// MustTimeOfDay panics on invalid input. Intended for tests.
func MustTimeOfDay(hour, minute int) TimeOfDay {
	t, err := NewTimeOfDay(hour, minute)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTimeOfDay accepts HH:MM and HH:MM:SS (seconds must be zero), the
// latter being how Postgres renders a time column.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	var h, m, s int
	n, err := fmt.Sscanf(value, "%d:%d:%d", &h, &m, &s)
	if err != nil && n < 2 {
		if _, err := fmt.Sscanf(value, "%d:%d", &h, &m); err != nil {
			return TimeOfDay{}, newValidationError("time_of_day", "%q is not HH:MM", value)
		}
	}
	if s != 0 {
		return TimeOfDay{}, newValidationError("time_of_day", "%q has non-zero seconds", value)
	}
	return NewTimeOfDay(h, m)
}

func (t TimeOfDay) Hour() int { return t.minutes / 60 }

func (t TimeOfDay) Minute() int { return t.minutes % 60 }

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int { return t.minutes }

func (t TimeOfDay) Before(other TimeOfDay) bool { return t.minutes < other.minutes }

func (t TimeOfDay) After(other TimeOfDay) bool { return t.minutes > other.minutes }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}
