package entity

import (
	"fmt"
	"time"
)

// Duration is a non-negative number of whole minutes.
type Duration struct {
	minutes int
}

// NewDuration returns a Duration of the given minutes.
func NewDuration(minutes int) (Duration, error) {
	if minutes < 0 {
		return Duration{}, newValidationError("duration", "must not be negative (got %d minutes)", minutes)
	}
	return Duration{minutes: minutes}, nil
}

// MustDuration panics on negative input. Intended for constants and tests.
func MustDuration(minutes int) Duration {
	d, err := NewDuration(minutes)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Duration) Minutes() int {
	return d.minutes
}

func (d Duration) IsZero() bool {
	return d.minutes == 0
}

// Std converts to a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d.minutes) * time.Minute
}

func (d Duration) String() string {
	return fmt.Sprintf("%dm", d.minutes)
}
