package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"go-booking-engine/internal/availability"
	"go-booking-engine/internal/domain/entity"
)

// BookingRequest asks for the service slot starting at Start.
type BookingRequest struct {
	ProviderID uuid.UUID
	ServiceID  uuid.UUID
	StaffID    *uuid.UUID
	CustomerID uuid.UUID
	Start      time.Time
	Actor      entity.Actor
}

// RequestBooking validates the request against the provider's calendar and
// policy, claims the slot and returns the new booking. The claim stays held
// until the caller releases the decision's claims after committing it.
func (e *Engine) RequestBooking(ctx context.Context, req BookingRequest, now time.Time) (*Decision, error) {
	if req.ProviderID == uuid.Nil {
		return nil, &entity.ValidationError{Field: "provider_id", Reason: "is required"}
	}
	if req.ServiceID == uuid.Nil {
		return nil, &entity.ValidationError{Field: "service_id", Reason: "is required"}
	}

	p, err := e.loadProvider(ctx, req.ProviderID, req.ServiceID)
	if err != nil {
		return nil, err
	}

	slot, err := entity.NewTimeSlotFor(req.Start, p.duration)
	if err != nil {
		return nil, err
	}
	if err := p.policy.CheckBookingWindow(slot.Start(), now); err != nil {
		return nil, err
	}
	if err := e.checkCalendar(ctx, p, slot); err != nil {
		return nil, err
	}

	claim, err := e.coordinator.TryClaim(ctx, entity.ClaimRequest{ProviderID: req.ProviderID, StaffID: req.StaffID, Slot: slot}, now)
	if err != nil {
		return nil, err
	}
	if err := e.ensureUncommitted(ctx, claim.Resource, slot); err != nil {
		e.release(ctx, claim)
		return nil, err
	}

	deposit := p.policy.CalculateDepositAmount(p.service.Price)
	booking, created, err := entity.NewBooking(entity.NewBookingParams{
		ProviderID:    req.ProviderID,
		ServiceID:     req.ServiceID,
		StaffID:       req.StaffID,
		CustomerID:    req.CustomerID,
		Slot:          slot,
		TotalPrice:    entity.RoundMoney(p.service.Price),
		DepositAmount: deposit,
		Actor:         req.Actor,
	}, now)
	if err != nil {
		e.release(ctx, claim)
		return nil, err
	}

	d := &Decision{
		Booking:  booking,
		Bookings: []*entity.Booking{booking},
		Changes:  []entity.StatusChange{created},
		Claims:   []entity.Claim{claim},
		Fee:      decimal.Zero,
		Deposit:  deposit,
	}
	if p.policy.AutoConfirm() {
		confirmed, err := booking.Confirm(claim, entity.SystemActor, now)
		if err != nil {
			e.release(ctx, claim)
			return nil, err
		}
		d.Changes = append(d.Changes, confirmed)
	}
	return d, nil
}

// ConfirmBooking moves a requested booking to confirmed. The slot is claimed
// again so that confirmation races with nothing in flight.
func (e *Engine) ConfirmBooking(ctx context.Context, bookingID uuid.UUID, actor entity.Actor, now time.Time) (*Decision, error) {
	b, err := e.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !entity.CanTransition(b.Status(), entity.BookingStatusConfirmed) {
		return nil, &entity.InvalidStateTransition{From: b.Status(), To: entity.BookingStatusConfirmed}
	}

	claim, err := e.coordinator.TryClaim(ctx, entity.ClaimRequest{ProviderID: b.ProviderID(), StaffID: b.StaffID(), Slot: b.Slot()}, now)
	if err != nil {
		return nil, err
	}
	change, err := b.Confirm(claim, actor, now)
	if err != nil {
		e.release(ctx, claim)
		return nil, err
	}
	return &Decision{
		Booking:  b,
		Bookings: []*entity.Booking{b},
		Changes:  []entity.StatusChange{change},
		Claims:   []entity.Claim{claim},
		Fee:      decimal.Zero,
		Deposit:  b.DepositAmount(),
	}, nil
}

// CancelBooking cancels an active booking and charges the policy's fee when
// the cancellation falls inside the cancellation window.
func (e *Engine) CancelBooking(ctx context.Context, bookingID uuid.UUID, actor entity.Actor, reason string, now time.Time) (*Decision, error) {
	b, err := e.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !entity.CanTransition(b.Status(), entity.BookingStatusCancelled) {
		return nil, &entity.InvalidStateTransition{From: b.Status(), To: entity.BookingStatusCancelled}
	}

	p, err := e.loadProvider(ctx, b.ProviderID(), uuid.Nil)
	if err != nil {
		return nil, err
	}

	fee := p.policy.CalculateCancellationFee(b.TotalPrice(), b.Slot().Start(), now)
	change, err := b.Cancel(fee, actor, now, reason)
	if err != nil {
		return nil, err
	}
	return &Decision{
		Booking:  b,
		Bookings: []*entity.Booking{b},
		Changes:  []entity.StatusChange{change},
		Fee:      fee,
		Deposit:  b.DepositAmount(),
	}, nil
}

// RescheduleBooking retires a confirmed booking and books newSlot in its
// place. Both slots are claimed together, so either the whole move goes
// through or nothing changes.
func (e *Engine) RescheduleBooking(ctx context.Context, bookingID uuid.UUID, newSlot entity.TimeSlot, actor entity.Actor, now time.Time) (*Decision, error) {
	if newSlot.IsZero() {
		return nil, &entity.ValidationError{Field: "slot", Reason: "is required"}
	}
	b, err := e.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !entity.CanTransition(b.Status(), entity.BookingStatusRescheduled) {
		return nil, &entity.InvalidStateTransition{From: b.Status(), To: entity.BookingStatusRescheduled}
	}
	if newSlot.Duration() != b.Slot().Duration() {
		return nil, entity.NewPolicyViolation(entity.RuleSlotNotBookable, "new slot lasts %s, the booking lasts %s", newSlot.Duration(), b.Slot().Duration())
	}

	p, err := e.loadProvider(ctx, b.ProviderID(), uuid.Nil)
	if err != nil {
		return nil, err
	}
	if err := p.policy.CheckReschedule(b.Slot().Start(), now, b.RescheduleCount()); err != nil {
		return nil, err
	}
	if err := p.policy.CheckBookingWindow(newSlot.Start(), now); err != nil {
		return nil, err
	}
	if err := e.checkCalendar(ctx, p, newSlot); err != nil {
		return nil, err
	}

	claims, err := e.coordinator.TryClaimAll(ctx, []entity.ClaimRequest{
		{ProviderID: b.ProviderID(), StaffID: b.StaffID(), Slot: b.Slot()},
		{ProviderID: b.ProviderID(), StaffID: b.StaffID(), Slot: newSlot},
	}, now)
	if err != nil {
		return nil, err
	}
	if err := e.ensureUncommitted(ctx, b.Resource(), newSlot, b.ID()); err != nil {
		e.release(ctx, claims...)
		return nil, err
	}

	next, changes, err := b.Reschedule(newSlot, actor, now)
	if err != nil {
		e.release(ctx, claims...)
		return nil, err
	}
	if p.policy.AutoConfirm() {
		confirmed, err := next.Confirm(claims[1], entity.SystemActor, now)
		if err != nil {
			e.release(ctx, claims...)
			return nil, err
		}
		changes = append(changes, confirmed)
	}

	return &Decision{
		Booking:  next,
		Bookings: []*entity.Booking{b, next},
		Changes:  changes,
		Claims:   claims,
		Fee:      decimal.Zero,
		Deposit:  next.DepositAmount(),
	}, nil
}

// CompleteBooking marks a confirmed booking as attended once its slot ended.
func (e *Engine) CompleteBooking(ctx context.Context, bookingID uuid.UUID, actor entity.Actor, now time.Time) (*Decision, error) {
	return e.finish(ctx, bookingID, now, func(b *entity.Booking) (entity.StatusChange, error) {
		return b.Complete(actor, now)
	})
}

// MarkNoShow marks a confirmed booking as missed once its slot ended.
func (e *Engine) MarkNoShow(ctx context.Context, bookingID uuid.UUID, actor entity.Actor, now time.Time) (*Decision, error) {
	return e.finish(ctx, bookingID, now, func(b *entity.Booking) (entity.StatusChange, error) {
		return b.MarkNoShow(actor, now)
	})
}

func (e *Engine) finish(ctx context.Context, bookingID uuid.UUID, now time.Time, apply func(*entity.Booking) (entity.StatusChange, error)) (*Decision, error) {
	b, err := e.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	change, err := apply(b)
	if err != nil {
		return nil, err
	}
	return &Decision{
		Booking:  b,
		Bookings: []*entity.Booking{b},
		Changes:  []entity.StatusChange{change},
		Fee:      decimal.Zero,
		Deposit:  b.DepositAmount(),
	}, nil
}

// RecordDepositPayment marks the pending deposit of a booking as paid.
func (e *Engine) RecordDepositPayment(ctx context.Context, bookingID uuid.UUID, now time.Time) (*Decision, error) {
	b, err := e.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := b.MarkDepositPaid(now); err != nil {
		return nil, err
	}
	return &Decision{
		Booking:  b,
		Bookings: []*entity.Booking{b},
		Fee:      decimal.Zero,
		Deposit:  b.DepositAmount(),
	}, nil
}

// checkCalendar rejects a slot that does not lie inside the provider's free
// time on its day.
func (e *Engine) checkCalendar(ctx context.Context, p *provider, slot entity.TimeSlot) error {
	cal, err := e.calendarFor(ctx, p, slot)
	if err != nil {
		return err
	}
	if !availability.FitsCalendar(cal, slot) {
		day := cal.DateOf(slot.Start())
		hours := cal.GetEffectiveHours(day)
		if hours.Closed {
			return entity.NewPolicyViolation(entity.RuleOutsideBusinessHours, "provider is closed on %s", day)
		}
		return entity.NewPolicyViolation(entity.RuleOutsideBusinessHours, "%s is outside business hours", slot)
	}
	return nil
}
