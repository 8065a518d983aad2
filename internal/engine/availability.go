package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"go-booking-engine/internal/availability"
	"go-booking-engine/internal/domain/entity"
)

// AvailabilityQuery selects the slots of one service, optionally for one
// staff member.
type AvailabilityQuery struct {
	ProviderID uuid.UUID
	ServiceID  uuid.UUID
	StaffID    *uuid.UUID
	Range      entity.DateRange
}

// DayAvailability is the bookable slots and heatmap cell of one date.
type DayAvailability struct {
	Date    entity.Date
	Hours   entity.EffectiveHours
	Slots   []entity.TimeSlot
	Summary availability.Summary
}

type Availability struct {
	ProviderID uuid.UUID
	ServiceID  uuid.UUID
	StaffID    *uuid.UUID
	Location   *time.Location
	Duration   entity.Duration
	Days       []DayAvailability
}

// GetAvailability returns, per day of the query range, the slots a customer
// could request at now. Slots outside the booking window or overlapping a
// committed booking are left out.
func (e *Engine) GetAvailability(ctx context.Context, q AvailabilityQuery, now time.Time) (*Availability, error) {
	if q.ServiceID == uuid.Nil {
		return nil, &entity.ValidationError{Field: "service_id", Reason: "is required"}
	}
	if q.Range.From().IsZero() {
		return nil, &entity.ValidationError{Field: "date_range", Reason: "is required"}
	}
	if n := len(q.Range.Days()); e.cfg.MaxRangeDays > 0 && n > e.cfg.MaxRangeDays {
		return nil, &entity.ValidationError{Field: "date_range", Reason: fmt.Sprintf("spans %d days, at most %d allowed", n, e.cfg.MaxRangeDays)}
	}

	p, err := e.loadProvider(ctx, q.ProviderID, q.ServiceID)
	if err != nil {
		return nil, err
	}

	from, to := q.Range.Bounds(p.location)
	window, err := entity.NewTimeSlot(from, to)
	if err != nil {
		return nil, err
	}

	var cal *entity.BusinessCalendar
	var commitments []entity.TimeSlot
	resource := entity.NewResource(q.ProviderID, q.StaffID)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cal, err = e.loadCalendar(gctx, p, q.Range)
		return err
	})
	g.Go(func() error {
		var err error
		if commitments, err = e.bookings.GetCommittedSlots(gctx, resource, window); err != nil {
			return fmt.Errorf("load committed slots: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	days, err := availability.GenerateDays(cal, q.Range, p.duration, commitments, e.cfg.Availability)
	if err != nil {
		return nil, err
	}

	out := &Availability{
		ProviderID: q.ProviderID,
		ServiceID:  q.ServiceID,
		StaffID:    q.StaffID,
		Location:   p.location,
		Duration:   p.duration,
		Days:       make([]DayAvailability, 0, len(days)),
	}
	for _, day := range days {
		slots := availability.FilterSlots(day.Slots, func(s entity.TimeSlot) bool {
			return p.policy.IsWithinBookingWindow(s.Start(), now)
		})
		out.Days = append(out.Days, DayAvailability{
			Date:    day.Date,
			Hours:   day.Hours,
			Slots:   slots,
			Summary: availability.Summarize(day, len(slots), p.duration, e.cfg.Availability, p.location),
		})
	}
	return out, nil
}
