package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tod(h, m int) TimeOfDay { return MustTimeOfDay(h, m) }

func todPtr(h, m int) *TimeOfDay {
	t := MustTimeOfDay(h, m)
	return &t
}

func brk(t *testing.T, sh, sm, eh, em int) BreakPeriod {
	t.Helper()
	b, err := NewBreakPeriod(tod(sh, sm), tod(eh, em))
	require.NoError(t, err)
	return b
}

func weekdayHours(t *testing.T, wd time.Weekday, breaks ...BreakPeriod) OperatingHours {
	t.Helper()
	h, err := NewOperatingHours(wd, tod(9, 0), tod(17, 0), breaks)
	require.NoError(t, err)
	return h
}

// 2026-03-09 is a Monday.
var monday = MustDate(2026, 3, 9)

func TestNewOperatingHours_Validation(t *testing.T) {
	tests := []struct {
		name   string
		open   TimeOfDay
		close  TimeOfDay
		breaks func(t *testing.T) []BreakPeriod
		ok     bool
	}{
		{"open after close", tod(17, 0), tod(9, 0), nil, false},
		{"open equals close", tod(9, 0), tod(9, 0), nil, false},
		{"break outside hours", tod(9, 0), tod(17, 0), func(t *testing.T) []BreakPeriod {
			return []BreakPeriod{brk(t, 8, 0, 9, 30)}
		}, false},
		{"overlapping breaks", tod(9, 0), tod(17, 0), func(t *testing.T) []BreakPeriod {
			return []BreakPeriod{brk(t, 12, 0, 13, 0), brk(t, 12, 30, 13, 30)}
		}, false},
		{"touching breaks", tod(9, 0), tod(17, 0), func(t *testing.T) []BreakPeriod {
			return []BreakPeriod{brk(t, 13, 0, 13, 30), brk(t, 12, 0, 13, 0)}
		}, true},
		{"break at boundary", tod(9, 0), tod(17, 0), func(t *testing.T) []BreakPeriod {
			return []BreakPeriod{brk(t, 9, 0, 9, 30), brk(t, 16, 30, 17, 0)}
		}, true},
		{"close at midnight", tod(18, 0), tod(24, 0), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var breaks []BreakPeriod
			if tt.breaks != nil {
				breaks = tt.breaks(t)
			}
			h, err := NewOperatingHours(time.Monday, tt.open, tt.close, breaks)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			got := h.Breaks()
			for i := 1; i < len(got); i++ {
				assert.False(t, got[i].Start().Before(got[i-1].Start()), "breaks must be sorted")
			}
		})
	}
}

func TestNewBreakPeriod_RejectsEmpty(t *testing.T) {
	_, err := NewBreakPeriod(tod(12, 0), tod(12, 0))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestHolidaySchedule_PatternRequiredIffRecurring(t *testing.T) {
	_, err := NewHolidaySchedule(monday, "x", true, RecurrenceNone)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewHolidaySchedule(monday, "x", false, RecurrenceYearly)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewHolidaySchedule(monday, "x", true, RecurrencePattern("fortnightly"))
	assert.ErrorIs(t, err, ErrValidation)

	h, err := NewHolidaySchedule(monday, "x", false, "")
	require.NoError(t, err)
	assert.Equal(t, RecurrenceNone, h.Pattern())
}

func TestHolidaySchedule_OccursOn(t *testing.T) {
	mustHoliday := func(d Date, p RecurrencePattern) HolidaySchedule {
		h, err := NewHolidaySchedule(d, "closed", p != RecurrenceNone, p)
		require.NoError(t, err)
		return h
	}

	tests := []struct {
		name    string
		holiday HolidaySchedule
		date    Date
		want    bool
	}{
		{"single on date", mustHoliday(monday, RecurrenceNone), monday, true},
		{"single next year", mustHoliday(monday, RecurrenceNone), MustDate(2027, 3, 9), false},
		{"yearly next year", mustHoliday(MustDate(2025, 12, 25), RecurrenceYearly), MustDate(2026, 12, 25), true},
		{"yearly before anchor year", mustHoliday(MustDate(2025, 12, 25), RecurrenceYearly), MustDate(2020, 12, 25), true},
		{"yearly other day", mustHoliday(MustDate(2025, 12, 25), RecurrenceYearly), MustDate(2026, 12, 26), false},
		{"yearly leap day in common year", mustHoliday(MustDate(2024, 2, 29), RecurrenceYearly), MustDate(2026, 2, 28), false},
		{"weekly same weekday", mustHoliday(monday, RecurrenceWeekly), monday.AddDays(14), true},
		{"weekly other weekday", mustHoliday(monday, RecurrenceWeekly), monday.AddDays(15), false},
		{"weekly before anchor", mustHoliday(monday, RecurrenceWeekly), monday.AddDays(-7), false},
		{"monthly same day", mustHoliday(MustDate(2026, 1, 15), RecurrenceMonthly), MustDate(2026, 4, 15), true},
		{"monthly 31st skips short month", mustHoliday(MustDate(2026, 1, 31), RecurrenceMonthly), MustDate(2026, 4, 30), false},
		{"daily after anchor", mustHoliday(monday, RecurrenceDaily), monday.AddDays(3), true},
		{"daily before anchor", mustHoliday(monday, RecurrenceDaily), monday.AddDays(-1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.holiday.OccursOn(tt.date))
		})
	}
}

func TestNewExceptionSchedule(t *testing.T) {
	e, err := NewExceptionSchedule(monday, nil, nil, "inventory")
	require.NoError(t, err)
	assert.True(t, e.IsClosed())

	_, err = NewExceptionSchedule(monday, todPtr(9, 0), nil, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewExceptionSchedule(monday, todPtr(12, 0), todPtr(10, 0), "")
	assert.ErrorIs(t, err, ErrValidation)

	e, err = NewExceptionSchedule(monday, todPtr(10, 0), todPtr(14, 0), "short day")
	require.NoError(t, err)
	assert.False(t, e.IsClosed())
	assert.Equal(t, tod(10, 0), e.Open())
}

func TestBusinessCalendar_GetEffectiveHours(t *testing.T) {
	lunch := brk(t, 12, 0, 13, 0)
	hours := []OperatingHours{weekdayHours(t, time.Monday, lunch), weekdayHours(t, time.Tuesday)}

	holiday, err := NewHolidaySchedule(monday.AddDays(1), "national day", true, RecurrenceYearly)
	require.NoError(t, err)

	closedException, err := NewExceptionSchedule(monday.AddDays(7), nil, nil, "staff training")
	require.NoError(t, err)
	// Exception dated on the 2027 occurrence of the yearly holiday.
	shortHoliday, err := NewExceptionSchedule(MustDate(2027, 3, 10), todPtr(10, 0), todPtr(12, 0), "open anyway")
	require.NoError(t, err)

	cal, err := NewBusinessCalendar(uuid.New(), time.UTC, hours, []HolidaySchedule{holiday}, []ExceptionSchedule{closedException, shortHoliday})
	require.NoError(t, err)

	t.Run("weekday hours with breaks", func(t *testing.T) {
		h := cal.GetEffectiveHours(monday)
		assert.False(t, h.Closed)
		assert.Equal(t, HoursSourceWeekday, h.Source)
		assert.Equal(t, tod(9, 0), h.Open)
		assert.Equal(t, tod(17, 0), h.Close)
		require.Len(t, h.Breaks, 1)
		assert.Equal(t, lunch, h.Breaks[0])
	})

	t.Run("holiday closes the day", func(t *testing.T) {
		h := cal.GetEffectiveHours(monday.AddDays(1))
		assert.True(t, h.Closed)
		assert.Equal(t, HoursSourceHoliday, h.Source)
		assert.Equal(t, "national day", h.Reason)
	})

	t.Run("closed exception beats normal hours", func(t *testing.T) {
		h := cal.GetEffectiveHours(monday.AddDays(7))
		assert.True(t, h.Closed)
		assert.Equal(t, HoursSourceException, h.Source)
	})

	t.Run("open exception beats holiday and drops breaks", func(t *testing.T) {
		h := cal.GetEffectiveHours(MustDate(2027, 3, 10))
		assert.False(t, h.Closed)
		assert.Equal(t, HoursSourceException, h.Source)
		assert.Equal(t, tod(10, 0), h.Open)
		assert.Empty(t, h.Breaks)
	})

	t.Run("weekday without hours is closed", func(t *testing.T) {
		h := cal.GetEffectiveHours(monday.AddDays(-1))
		assert.True(t, h.Closed)
		assert.Equal(t, HoursSourceWeekday, h.Source)
	})
}

func TestBusinessCalendar_ExceptionPrecedence(t *testing.T) {
	hours := []OperatingHours{weekdayHours(t, time.Monday)}
	holiday, err := NewHolidaySchedule(monday, "also a holiday", false, RecurrenceNone)
	require.NoError(t, err)
	closed, err := NewExceptionSchedule(monday, nil, nil, "closed")
	require.NoError(t, err)

	cal, err := NewBusinessCalendar(uuid.New(), time.UTC, hours, []HolidaySchedule{holiday}, []ExceptionSchedule{closed})
	require.NoError(t, err)

	h := cal.GetEffectiveHours(monday)
	assert.True(t, h.Closed)
	assert.Equal(t, HoursSourceException, h.Source)
}

func TestNewBusinessCalendar_RejectsDuplicates(t *testing.T) {
	_, err := NewBusinessCalendar(uuid.New(), time.UTC,
		[]OperatingHours{weekdayHours(t, time.Monday), weekdayHours(t, time.Monday)}, nil, nil)
	assert.ErrorIs(t, err, ErrValidation)

	e, err := NewExceptionSchedule(monday, nil, nil, "")
	require.NoError(t, err)
	_, err = NewBusinessCalendar(uuid.New(), time.UTC, nil, nil, []ExceptionSchedule{e, e})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEffectiveHours_WindowUsesLocation(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	cal, err := NewBusinessCalendar(uuid.New(), loc, []OperatingHours{weekdayHours(t, time.Monday)}, nil, nil)
	require.NoError(t, err)

	w := cal.GetEffectiveHours(monday).Window(cal.Location())
	assert.Equal(t, time.Date(2026, 3, 9, 2, 0, 0, 0, time.UTC), w.Start().UTC())
	assert.Equal(t, monday, cal.DateOf(time.Date(2026, 3, 8, 20, 0, 0, 0, time.UTC)))
}
