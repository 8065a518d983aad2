package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MoneyPlaces is the number of decimal places every monetary result is
// rounded to, half away from zero.
const MoneyPlaces = 2

// RoundMoney applies the single rounding rule used for fees and deposits.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// BookingPolicyParams carries the raw values of a provider's booking policy.
type BookingPolicyParams struct {
	MinAdvanceHours         int
	MaxAdvanceDays          int
	CancellationWindowHours int
	CancellationFeePercent  decimal.Decimal
	AllowReschedule         bool
	RescheduleWindowHours   int
	MaxReschedules          int // 0 means unlimited
	RequireDeposit          bool
	DepositPercent          decimal.Decimal
	AutoConfirm             bool
}

// BookingPolicy is the immutable set of per-provider booking rules. All
// methods are pure functions of the policy and the timestamps passed in.
type BookingPolicy struct {
	p BookingPolicyParams
}

func NewBookingPolicy(p BookingPolicyParams) (BookingPolicy, error) {
	switch {
	case p.MinAdvanceHours < 0:
		return BookingPolicy{}, newValidationError("min_advance_hours", "must be >= 0")
	case p.MaxAdvanceDays <= 0:
		return BookingPolicy{}, newValidationError("max_advance_days", "must be > 0")
	case p.MinAdvanceHours >= p.MaxAdvanceDays*24:
		return BookingPolicy{}, newValidationError("min_advance_hours", "%dh leaves no bookable window within %d days",
			p.MinAdvanceHours, p.MaxAdvanceDays)
	case p.CancellationWindowHours < 0:
		return BookingPolicy{}, newValidationError("cancellation_window_hours", "must be >= 0")
	case p.RescheduleWindowHours < 0:
		return BookingPolicy{}, newValidationError("reschedule_window_hours", "must be >= 0")
	case p.MaxReschedules < 0:
		return BookingPolicy{}, newValidationError("max_reschedules", "must be >= 0")
	}
	if !isPercent(p.CancellationFeePercent) {
		return BookingPolicy{}, newValidationError("cancellation_fee_percent", "%s is not within [0, 100]", p.CancellationFeePercent)
	}
	if !isPercent(p.DepositPercent) {
		return BookingPolicy{}, newValidationError("deposit_percent", "%s is not within [0, 100]", p.DepositPercent)
	}
	return BookingPolicy{p: p}, nil
}

func isPercent(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(hundred)
}

// Params returns the raw policy values.
func (bp BookingPolicy) Params() BookingPolicyParams { return bp.p }

func (bp BookingPolicy) AutoConfirm() bool { return bp.p.AutoConfirm }

func (bp BookingPolicy) RequireDeposit() bool { return bp.p.RequireDeposit }

func (bp BookingPolicy) MaxReschedules() int { return bp.p.MaxReschedules }

func hours(n int) time.Duration { return time.Duration(n) * time.Hour }

// IsWithinBookingWindow reports now+minAdvance <= slotStart <= now+maxAdvance.
func (bp BookingPolicy) IsWithinBookingWindow(slotStart, now time.Time) bool {
	return bp.CheckBookingWindow(slotStart, now) == nil
}

// CheckBookingWindow is IsWithinBookingWindow returning the violated rule.
func (bp BookingPolicy) CheckBookingWindow(slotStart, now time.Time) error {
	earliest := now.Add(hours(bp.p.MinAdvanceHours))
	if slotStart.Before(earliest) {
		return NewPolicyViolation(RuleMinAdvance, "bookings require at least %d hours notice", bp.p.MinAdvanceHours)
	}
	latest := now.Add(hours(bp.p.MaxAdvanceDays * 24))
	if slotStart.After(latest) {
		return NewPolicyViolation(RuleMaxAdvance, "bookings can be made at most %d days ahead", bp.p.MaxAdvanceDays)
	}
	return nil
}

// CanCancelWithoutFee reports slotStart-now >= cancellationWindow.
func (bp BookingPolicy) CanCancelWithoutFee(slotStart, now time.Time) bool {
	return slotStart.Sub(now) >= hours(bp.p.CancellationWindowHours)
}

// CalculateCancellationFee returns 0 inside the free window and
// totalPrice*feePercent/100 otherwise.
func (bp BookingPolicy) CalculateCancellationFee(totalPrice decimal.Decimal, slotStart, now time.Time) decimal.Decimal {
	if bp.CanCancelWithoutFee(slotStart, now) {
		return decimal.Zero
	}
	return RoundMoney(totalPrice.Mul(bp.p.CancellationFeePercent).Div(hundred))
}

// CanReschedule reports allowReschedule && slotStart-now >= rescheduleWindow.
func (bp BookingPolicy) CanReschedule(slotStart, now time.Time) bool {
	return bp.p.AllowReschedule && slotStart.Sub(now) >= hours(bp.p.RescheduleWindowHours)
}

// CheckReschedule is CanReschedule plus the reschedule limit, returning the
// violated rule.
func (bp BookingPolicy) CheckReschedule(slotStart, now time.Time, rescheduleCount int) error {
	if !bp.p.AllowReschedule {
		return NewPolicyViolation(RuleRescheduleDisabled, "provider does not allow rescheduling")
	}
	if !bp.CanReschedule(slotStart, now) {
		return NewPolicyViolation(RuleRescheduleWindow, "rescheduling closes %d hours before the appointment", bp.p.RescheduleWindowHours)
	}
	if bp.p.MaxReschedules > 0 && rescheduleCount >= bp.p.MaxReschedules {
		return NewPolicyViolation(RuleRescheduleLimit, "booking was already rescheduled %d times", rescheduleCount)
	}
	return nil
}

// CalculateDepositAmount returns totalPrice*depositPercent/100 when a deposit
// is required and 0 otherwise.
func (bp BookingPolicy) CalculateDepositAmount(totalPrice decimal.Decimal) decimal.Decimal {
	if !bp.p.RequireDeposit {
		return decimal.Zero
	}
	return RoundMoney(totalPrice.Mul(bp.p.DepositPercent).Div(hundred))
}
