package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 9, hour, minute, 0, 0, time.UTC)
}

func slot(t *testing.T, sh, sm, eh, em int) TimeSlot {
	t.Helper()
	s, err := NewTimeSlot(at(sh, sm), at(eh, em))
	require.NoError(t, err)
	return s
}

func TestNewTimeSlot_RejectsEmptyAndInverted(t *testing.T) {
	_, err := NewTimeSlot(at(10, 0), at(10, 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = NewTimeSlot(at(11, 0), at(10, 0))
	assert.ErrorIs(t, err, ErrValidation)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "time_slot", vErr.Field)
}

func TestNewDuration_RejectsNegative(t *testing.T) {
	_, err := NewDuration(-1)
	assert.ErrorIs(t, err, ErrValidation)

	d, err := NewDuration(0)
	require.NoError(t, err)
	assert.True(t, d.IsZero())
	assert.Equal(t, 90*time.Minute, MustDuration(90).Std())
}

func TestNewTimeSlotFor(t *testing.T) {
	s, err := NewTimeSlotFor(at(9, 0), MustDuration(30))
	require.NoError(t, err)
	assert.Equal(t, at(9, 30), s.End())
	assert.Equal(t, 30, s.Duration().Minutes())

	_, err = NewTimeSlotFor(at(9, 0), MustDuration(0))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTimeSlot_Overlaps(t *testing.T) {
	base := slot(t, 10, 0, 10, 30)

	tests := []struct {
		name  string
		other TimeSlot
		want  bool
	}{
		{"identical", slot(t, 10, 0, 10, 30), true},
		{"starts inside", slot(t, 10, 15, 10, 45), true},
		{"ends inside", slot(t, 9, 45, 10, 15), true},
		{"contains", slot(t, 9, 0, 11, 0), true},
		{"back to back after", slot(t, 10, 30, 11, 0), false},
		{"back to back before", slot(t, 9, 30, 10, 0), false},
		{"disjoint", slot(t, 12, 0, 12, 30), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base), "overlap must be symmetric")
		})
	}
}

func TestTimeSlot_ContainsIsHalfOpen(t *testing.T) {
	s := slot(t, 10, 0, 10, 30)
	assert.True(t, s.Contains(at(10, 0)))
	assert.True(t, s.Contains(at(10, 29)))
	assert.False(t, s.Contains(at(10, 30)))
	assert.False(t, s.Contains(at(9, 59)))
}

func TestTimeSlot_IsAdjacentTo(t *testing.T) {
	s := slot(t, 10, 0, 10, 30)
	assert.True(t, s.IsAdjacentTo(slot(t, 10, 30, 11, 0)))
	assert.True(t, s.IsAdjacentTo(slot(t, 9, 30, 10, 0)))
	assert.False(t, s.IsAdjacentTo(slot(t, 10, 45, 11, 0)))
}

func TestTimeSlot_EqualAcrossZones(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	a := slot(t, 3, 0, 3, 30)
	b, err := NewTimeSlot(at(3, 0).In(jakarta), at(3, 30).In(jakarta))
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestSortSlots(t *testing.T) {
	slots := []TimeSlot{slot(t, 11, 0, 11, 30), slot(t, 9, 0, 10, 0), slot(t, 9, 0, 9, 30)}
	SortSlots(slots)
	assert.Equal(t, at(9, 30), slots[0].End())
	assert.Equal(t, at(10, 0), slots[1].End())
	assert.Equal(t, at(11, 0), slots[2].Start())
}

func TestDateRange(t *testing.T) {
	from := MustDate(2026, 2, 27)
	to := MustDate(2026, 3, 2)

	r, err := NewDateRange(from, to, 0)
	require.NoError(t, err)
	days := r.Days()
	require.Len(t, days, 4)
	assert.Equal(t, "2026-02-28", days[1].String())
	assert.Equal(t, "2026-03-01", days[2].String())

	_, err = NewDateRange(to, from, 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewDateRange(from, to, 3)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewDate(2026, 2, 29)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDate_AtMidnightClose(t *testing.T) {
	d := MustDate(2026, 3, 9)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), d.At(MustTimeOfDay(24, 0), time.UTC))
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, tod.Minutes())

	tod, err = ParseTimeOfDay("17:00:00")
	require.NoError(t, err)
	assert.Equal(t, "17:00", tod.String())

	_, err = ParseTimeOfDay("25:00")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = ParseTimeOfDay("24:30")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = ParseTimeOfDay("nope")
	assert.ErrorIs(t, err, ErrValidation)
}
