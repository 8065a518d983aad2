package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"go-booking-engine/internal/availability"
	"go-booking-engine/internal/domain/entity"
	"go-booking-engine/internal/domain/repository"
	"go-booking-engine/internal/service"
)

// Config holds the engine-wide defaults.
type Config struct {
	Availability availability.Options

	// MaxRangeDays caps the number of days one availability query may span.
	MaxRangeDays int

	// DefaultPolicy applies to providers that have no stored policy.
	DefaultPolicy entity.BookingPolicy
}

// Decision is the outcome of a lifecycle operation. Nothing is stored until
// the caller commits Bookings and Changes in one transaction. Claims must be
// released once the commit has finished, whether it succeeded or not.
type Decision struct {
	// Booking is the booking the operation produced or changed. For a
	// reschedule it is the replacement.
	Booking  *entity.Booking
	Bookings []*entity.Booking
	Changes  []entity.StatusChange
	Claims   []entity.Claim

	Fee     decimal.Decimal
	Deposit decimal.Decimal
}

// Engine evaluates availability and booking lifecycle operations. It never
// writes to storage; the only shared state it touches is the coordinator.
type Engine struct {
	log         *logrus.Logger
	calendars   repository.CalendarStore
	bookings    repository.BookingReader
	coordinator service.ReservationCoordinator
	cfg         Config
}

func New(
	log *logrus.Logger,
	calendars repository.CalendarStore,
	bookings repository.BookingReader,
	coordinator service.ReservationCoordinator,
	cfg Config,
) *Engine {
	return &Engine{
		log:         log,
		calendars:   calendars,
		bookings:    bookings,
		coordinator: coordinator,
		cfg:         cfg,
	}
}

// provider is what every operation needs to know about a provider.
type provider struct {
	id       uuid.UUID
	location *time.Location
	policy   entity.BookingPolicy
	service  *entity.Service
	duration entity.Duration
}

// loadProvider fetches the timezone, policy and, when serviceID is set, the
// service of a provider concurrently.
func (e *Engine) loadProvider(ctx context.Context, providerID, serviceID uuid.UUID) (*provider, error) {
	p := &provider{id: providerID}
	var policy *entity.BookingPolicy

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loc, err := e.calendars.GetTimezone(gctx, providerID)
		if err != nil {
			return fmt.Errorf("load timezone of provider %s: %w", providerID, err)
		}
		p.location = loc
		return nil
	})
	g.Go(func() error {
		var err error
		if policy, err = e.calendars.GetPolicy(gctx, providerID); err != nil {
			return fmt.Errorf("load policy of provider %s: %w", providerID, err)
		}
		return nil
	})
	if serviceID != uuid.Nil {
		g.Go(func() error {
			svc, err := e.calendars.GetService(gctx, serviceID)
			if err != nil {
				return fmt.Errorf("load service %s: %w", serviceID, err)
			}
			if svc == nil || svc.ProviderID != providerID || !svc.IsActive {
				return entity.ErrServiceNotFound
			}
			d, err := svc.Duration()
			if err != nil {
				return err
			}
			p.service, p.duration = svc, d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if p.location == nil {
		p.location = time.UTC
	}
	p.policy = e.cfg.DefaultPolicy
	if policy != nil {
		p.policy = *policy
	}
	return p, nil
}

// loadCalendar assembles the business calendar of a provider for dateRange.
func (e *Engine) loadCalendar(ctx context.Context, p *provider, dateRange entity.DateRange) (*entity.BusinessCalendar, error) {
	week := make([]entity.OperatingHours, 7)
	var holidays []entity.HolidaySchedule
	var exceptions []entity.ExceptionSchedule

	g, gctx := errgroup.WithContext(ctx)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		wd := wd
		g.Go(func() error {
			h, err := e.calendars.GetOperatingHours(gctx, p.id, wd)
			if err != nil {
				return fmt.Errorf("load %s hours of provider %s: %w", wd, p.id, err)
			}
			week[wd] = h
			return nil
		})
	}
	g.Go(func() error {
		var err error
		if holidays, err = e.calendars.GetHolidays(gctx, p.id); err != nil {
			return fmt.Errorf("load holidays of provider %s: %w", p.id, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if exceptions, err = e.calendars.GetExceptions(gctx, p.id, dateRange); err != nil {
			return fmt.Errorf("load exceptions of provider %s: %w", p.id, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return entity.NewBusinessCalendar(p.id, p.location, week, holidays, exceptions)
}

// calendarFor loads the calendar covering the day slot starts on.
func (e *Engine) calendarFor(ctx context.Context, p *provider, slot entity.TimeSlot) (*entity.BusinessCalendar, error) {
	day := entity.DateOf(slot.Start().In(p.location))
	dateRange, err := entity.NewDateRange(day, day, 0)
	if err != nil {
		return nil, err
	}
	return e.loadCalendar(ctx, p, dateRange)
}

func (e *Engine) findBooking(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	b, err := e.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load booking %s: %w", id, err)
	}
	if b == nil {
		return nil, entity.ErrBookingNotFound
	}
	return b, nil
}

// ensureUncommitted fails with ErrConflict when an active booking other than
// excludeIDs already occupies slot on resource.
func (e *Engine) ensureUncommitted(ctx context.Context, resource entity.Resource, slot entity.TimeSlot, excludeIDs ...uuid.UUID) error {
	committed, err := e.bookings.GetCommittedSlots(ctx, resource, slot, excludeIDs...)
	if err != nil {
		return fmt.Errorf("load committed slots: %w", err)
	}
	if slot.OverlapsAny(committed) {
		return fmt.Errorf("%w: %s is already booked", entity.ErrConflict, slot)
	}
	return nil
}

// release drops claims taken by an operation that is not returning them.
func (e *Engine) release(ctx context.Context, claims ...entity.Claim) {
	if err := service.ReleaseAll(context.WithoutCancel(ctx), e.coordinator, claims); err != nil {
		e.log.Warnf("Failed to release %d claim(s): %+v", len(claims), err)
	}
}
