package repository

import (
	"fmt"
	"strings"
	"time"

	"go-booking-engine/internal/domain/entity"
)

// parseClock reads a Postgres time value. The driver may append fractional
// seconds, which are always zero for calendar data.
func parseClock(value string) (entity.TimeOfDay, error) {
	if i := strings.IndexByte(value, '.'); i >= 0 {
		value = value[:i]
	}
	return entity.ParseTimeOfDay(value)
}

func dateOf(t time.Time) entity.Date {
	return entity.DateOf(t.UTC())
}

func dateValue(d entity.Date) time.Time {
	return d.At(entity.Midnight, time.UTC)
}

func toOperatingHours(rec operatingHoursRecord) (entity.OperatingHours, error) {
	weekday := time.Weekday(rec.Weekday)
	if weekday < time.Sunday || weekday > time.Saturday {
		return entity.OperatingHours{}, fmt.Errorf("operating hours %d: weekday %d out of range", rec.ID, rec.Weekday)
	}
	if rec.IsClosed {
		return entity.ClosedDay(weekday), nil
	}

	open, err := parseClock(rec.OpenTime)
	if err != nil {
		return entity.OperatingHours{}, err
	}
	close, err := parseClock(rec.CloseTime)
	if err != nil {
		return entity.OperatingHours{}, err
	}

	breaks := make([]entity.BreakPeriod, 0, len(rec.Breaks))
	for _, b := range rec.Breaks {
		start, err := parseClock(b.StartTime)
		if err != nil {
			return entity.OperatingHours{}, err
		}
		end, err := parseClock(b.EndTime)
		if err != nil {
			return entity.OperatingHours{}, err
		}
		bp, err := entity.NewBreakPeriod(start, end)
		if err != nil {
			return entity.OperatingHours{}, err
		}
		breaks = append(breaks, bp)
	}
	return entity.NewOperatingHours(weekday, open, close, breaks)
}

func toHoliday(rec holidayRecord) (entity.HolidaySchedule, error) {
	pattern, err := entity.ParseRecurrencePattern(rec.RecurrencePattern)
	if err != nil {
		return entity.HolidaySchedule{}, err
	}
	return entity.NewHolidaySchedule(dateOf(rec.Date), rec.Reason, rec.IsRecurring, pattern)
}

func toException(rec exceptionRecord) (entity.ExceptionSchedule, error) {
	var open, close *entity.TimeOfDay
	if rec.OpenTime != nil {
		t, err := parseClock(*rec.OpenTime)
		if err != nil {
			return entity.ExceptionSchedule{}, err
		}
		open = &t
	}
	if rec.CloseTime != nil {
		t, err := parseClock(*rec.CloseTime)
		if err != nil {
			return entity.ExceptionSchedule{}, err
		}
		close = &t
	}
	return entity.NewExceptionSchedule(dateOf(rec.Date), open, close, rec.Reason)
}

func toPolicy(rec policyRecord) (entity.BookingPolicy, error) {
	return entity.NewBookingPolicy(entity.BookingPolicyParams{
		MinAdvanceHours:         rec.MinAdvanceHours,
		MaxAdvanceDays:          rec.MaxAdvanceDays,
		CancellationWindowHours: rec.CancellationWindowHours,
		CancellationFeePercent:  rec.CancellationFeePercent,
		AllowReschedule:         rec.AllowReschedule,
		RescheduleWindowHours:   rec.RescheduleWindowHours,
		MaxReschedules:          rec.MaxReschedules,
		RequireDeposit:          rec.RequireDeposit,
		DepositPercent:          rec.DepositPercent,
		AutoConfirm:             rec.AutoConfirm,
	})
}

func toBooking(rec bookingRecord) (*entity.Booking, error) {
	return entity.RestoreBooking(entity.BookingSnapshot{
		ID:              rec.ID,
		ProviderID:      rec.ProviderID,
		ServiceID:       rec.ServiceID,
		StaffID:         rec.StaffID,
		CustomerID:      rec.CustomerID,
		Start:           rec.StartAt,
		End:             rec.EndAt,
		Status:          entity.BookingStatus(rec.Status),
		PaymentStatus:   entity.PaymentStatus(rec.PaymentStatus),
		TotalPrice:      rec.TotalPrice,
		DepositAmount:   rec.DepositAmount,
		CancellationFee: rec.CancellationFee,
		RescheduledFrom: rec.RescheduledFrom,
		RescheduledTo:   rec.RescheduledTo,
		RescheduleCount: rec.RescheduleCount,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	})
}

func fromBooking(b *entity.Booking) bookingRecord {
	s := b.Snapshot()
	return bookingRecord{
		ID:              s.ID,
		ProviderID:      s.ProviderID,
		ServiceID:       s.ServiceID,
		StaffID:         s.StaffID,
		CustomerID:      s.CustomerID,
		StartAt:         s.Start.UTC(),
		EndAt:           s.End.UTC(),
		Status:          string(s.Status),
		PaymentStatus:   string(s.PaymentStatus),
		TotalPrice:      s.TotalPrice,
		DepositAmount:   s.DepositAmount,
		CancellationFee: s.CancellationFee,
		RescheduledFrom: s.RescheduledFrom,
		RescheduledTo:   s.RescheduledTo,
		RescheduleCount: s.RescheduleCount,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func fromChange(c entity.StatusChange) statusHistoryRecord {
	return statusHistoryRecord{
		BookingID:  c.BookingID,
		FromStatus: string(c.From),
		ToStatus:   string(c.To),
		ActorID:    c.Actor.ID,
		ActorRole:  string(c.Actor.Role),
		Reason:     c.Reason,
		ChangedAt:  c.At,
	}
}

func toChange(rec statusHistoryRecord) entity.StatusChange {
	return entity.StatusChange{
		BookingID: rec.BookingID,
		From:      entity.BookingStatus(rec.FromStatus),
		To:        entity.BookingStatus(rec.ToStatus),
		Actor:     entity.Actor{ID: rec.ActorID, Role: entity.ActorRole(rec.ActorRole)},
		At:        rec.ChangedAt,
		Reason:    rec.Reason,
	}
}
