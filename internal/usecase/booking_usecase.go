package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-booking-engine/internal/converter"
	"go-booking-engine/internal/delivery/dto"
	"go-booking-engine/internal/delivery/http/middleware"
	"go-booking-engine/internal/domain/entity"
	"go-booking-engine/internal/domain/repository"
	"go-booking-engine/internal/engine"
	"go-booking-engine/internal/service"
	"go-booking-engine/pkg/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrActorMissing = errors.New("actor not found in context")
)

const (
	// Timeout for releasing claims and publishing events after a commit
	afterCommitTimeout = 5 * time.Second
)

// BookingEngine is the decision maker behind BookingUsecase.
type BookingEngine interface {
	GetAvailability(ctx context.Context, q engine.AvailabilityQuery, now time.Time) (*engine.Availability, error)
	RequestBooking(ctx context.Context, req engine.BookingRequest, now time.Time) (*engine.Decision, error)
	ConfirmBooking(ctx context.Context, bookingID uuid.UUID, actor entity.Actor, now time.Time) (*engine.Decision, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID, actor entity.Actor, reason string, now time.Time) (*engine.Decision, error)
	RescheduleBooking(ctx context.Context, bookingID uuid.UUID, newSlot entity.TimeSlot, actor entity.Actor, now time.Time) (*engine.Decision, error)
	CompleteBooking(ctx context.Context, bookingID uuid.UUID, actor entity.Actor, now time.Time) (*engine.Decision, error)
	MarkNoShow(ctx context.Context, bookingID uuid.UUID, actor entity.Actor, now time.Time) (*engine.Decision, error)
	RecordDepositPayment(ctx context.Context, bookingID uuid.UUID, now time.Time) (*engine.Decision, error)
}

type BookingUsecase interface {
	GetAvailability(ctx context.Context, providerID uuid.UUID, req *dto.AvailabilityRequest) (*dto.AvailabilityResponse, error)
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*dto.BookingDetailResponse, error)
	CreateBooking(ctx context.Context, req *dto.CreateBookingRequest) (*dto.BookingDecisionResponse, error)
	ConfirmBooking(ctx context.Context, bookingID uuid.UUID) (*dto.BookingDecisionResponse, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID, req *dto.CancelBookingRequest) (*dto.BookingDecisionResponse, error)
	RescheduleBooking(ctx context.Context, bookingID uuid.UUID, req *dto.RescheduleBookingRequest) (*dto.BookingDecisionResponse, error)
	CompleteBooking(ctx context.Context, bookingID uuid.UUID) (*dto.BookingDecisionResponse, error)
	MarkNoShow(ctx context.Context, bookingID uuid.UUID) (*dto.BookingDecisionResponse, error)
	RecordDepositPayment(ctx context.Context, bookingID uuid.UUID) (*dto.BookingDecisionResponse, error)
}

type bookingUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	engine       BookingEngine
	bookingRepo  repository.BookingStore
	auditLogRepo repository.AuditLogRepository
	auditService service.AuditService
	coordinator  service.ReservationCoordinator
	publisher    service.EventPublisher
	metrics      *metrics.Recorder
	clock        entity.Clock

	// transact runs fn in one database transaction
	transact func(ctx context.Context, fn func(tx *gorm.DB) error) error
}

func NewBookingUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	bookingEngine BookingEngine,
	bookingRepo repository.BookingStore,
	auditLogRepo repository.AuditLogRepository,
	auditService service.AuditService,
	coordinator service.ReservationCoordinator,
	publisher service.EventPublisher,
	recorder *metrics.Recorder,
	clock entity.Clock,
) BookingUsecase {
	return &bookingUsecase{
		db:           db,
		log:          log,
		engine:       bookingEngine,
		bookingRepo:  bookingRepo,
		auditLogRepo: auditLogRepo,
		auditService: auditService,
		coordinator:  coordinator,
		publisher:    publisher,
		metrics:      recorder,
		clock:        clock,
		transact: func(ctx context.Context, fn func(tx *gorm.DB) error) error {
			return db.WithContext(ctx).Transaction(fn)
		},
	}
}

// GetAvailability returns the bookable slots and heatmap of one service
func (u *bookingUsecase) GetAvailability(ctx context.Context, providerID uuid.UUID, req *dto.AvailabilityRequest) (*dto.AvailabilityResponse, error) {
	started := time.Now()
	defer func() { u.metrics.AvailabilityQuery(time.Since(started)) }()

	serviceID, err := parseUUID("service_id", req.ServiceID)
	if err != nil {
		return nil, err
	}
	staffID, err := parseOptionalUUID("staff_id", req.StaffID)
	if err != nil {
		return nil, err
	}
	from, err := entity.ParseDate(req.From)
	if err != nil {
		return nil, err
	}
	to, err := entity.ParseDate(req.To)
	if err != nil {
		return nil, err
	}
	dateRange, err := entity.NewDateRange(from, to, 0)
	if err != nil {
		return nil, err
	}

	availability, err := u.engine.GetAvailability(ctx, engine.AvailabilityQuery{
		ProviderID: providerID,
		ServiceID:  serviceID,
		StaffID:    staffID,
		Range:      dateRange,
	}, u.clock.Now())
	if err != nil {
		u.logFailure(err, "Failed to get availability for provider %s", providerID)
		return nil, err
	}

	return converter.AvailabilityToResponse(availability), nil
}

// GetBooking returns a booking with its status history and audit trail
func (u *bookingUsecase) GetBooking(ctx context.Context, bookingID uuid.UUID) (*dto.BookingDetailResponse, error) {
	booking, err := u.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		u.log.Warnf("Failed to find booking %s: %+v", bookingID, err)
		return nil, err
	}
	if booking == nil {
		return nil, entity.ErrBookingNotFound
	}

	history, err := u.bookingRepo.FindHistory(ctx, bookingID)
	if err != nil {
		u.log.Warnf("Failed to find history of booking %s: %+v", bookingID, err)
		return nil, err
	}

	logs, err := u.auditLogRepo.FindByBookingID(withContext(ctx, u.db), bookingID)
	if err != nil {
		u.log.Warnf("Failed to find audit logs of booking %s: %+v", bookingID, err)
		return nil, err
	}

	return &dto.BookingDetailResponse{
		Booking:   *converter.BookingToResponse(booking),
		History:   converter.StatusChangesToResponses(history),
		AuditLogs: converter.AuditLogsToResponses(logs),
	}, nil
}

// CreateBooking requests a slot.
//
// Flow:
// 1. Parse the request
// 2. Engine checks policy and calendar, then claims the slot
// 3. Commit booking, history and audit log in one transaction
// 4. Release the claim and publish events
func (u *bookingUsecase) CreateBooking(ctx context.Context, req *dto.CreateBookingRequest) (*dto.BookingDecisionResponse, error) {
	actor, ok := middleware.GetActorFromContext(ctx)
	if !ok {
		return nil, ErrActorMissing
	}

	// Step 1: Parse the request
	providerID, err := parseUUID("provider_id", req.ProviderID)
	if err != nil {
		return nil, err
	}
	serviceID, err := parseUUID("service_id", req.ServiceID)
	if err != nil {
		return nil, err
	}
	customerID, err := parseUUID("customer_id", req.CustomerID)
	if err != nil {
		return nil, err
	}
	staffID, err := parseOptionalUUID("staff_id", req.StaffID)
	if err != nil {
		return nil, err
	}
	start, err := parseInstant("start_at", req.StartAt)
	if err != nil {
		return nil, err
	}

	// Step 2: Decide and claim
	decision, err := u.engine.RequestBooking(ctx, engine.BookingRequest{
		ProviderID: providerID,
		ServiceID:  serviceID,
		StaffID:    staffID,
		CustomerID: customerID,
		Start:      start,
		Actor:      actor,
	}, u.clock.Now())
	u.recordClaim(err)
	if err != nil {
		u.logFailure(err, "Failed to request booking for provider %s at %s", providerID, start.Format(time.RFC3339))
		return nil, err
	}

	// Step 3 and 4: Commit, release, publish
	if err := u.commit(ctx, "request", decision); err != nil {
		return nil, err
	}

	u.log.Infof("Booking requested: id=%s provider=%s slot=%s status=%s", decision.Booking.ID(), providerID, decision.Booking.Slot(), decision.Booking.Status())
	return converter.DecisionToResponse(decision), nil
}

// ConfirmBooking moves a requested booking to confirmed
func (u *bookingUsecase) ConfirmBooking(ctx context.Context, bookingID uuid.UUID) (*dto.BookingDecisionResponse, error) {
	return u.apply(ctx, "confirm", bookingID, func(actor entity.Actor, now time.Time) (*engine.Decision, error) {
		decision, err := u.engine.ConfirmBooking(ctx, bookingID, actor, now)
		u.recordClaim(err)
		return decision, err
	})
}

// CancelBooking cancels a booking and charges the policy fee
func (u *bookingUsecase) CancelBooking(ctx context.Context, bookingID uuid.UUID, req *dto.CancelBookingRequest) (*dto.BookingDecisionResponse, error) {
	return u.apply(ctx, "cancel", bookingID, func(actor entity.Actor, now time.Time) (*engine.Decision, error) {
		return u.engine.CancelBooking(ctx, bookingID, actor, req.Reason, now)
	})
}

// RescheduleBooking moves a confirmed booking to a new slot.
//
// Flow:
// 1. Parse the new slot, keeping the current length when no end is given
// 2. Engine claims old and new slot together and builds the replacement
// 3. Commit both bookings in one transaction
// 4. Release claims and publish events
func (u *bookingUsecase) RescheduleBooking(ctx context.Context, bookingID uuid.UUID, req *dto.RescheduleBookingRequest) (*dto.BookingDecisionResponse, error) {
	// Step 1: Parse the new slot
	start, err := parseInstant("start_at", req.StartAt)
	if err != nil {
		return nil, err
	}

	var end time.Time
	if req.EndAt != "" {
		if end, err = parseInstant("end_at", req.EndAt); err != nil {
			return nil, err
		}
	} else {
		current, err := u.bookingRepo.FindByID(ctx, bookingID)
		if err != nil {
			u.log.Warnf("Failed to find booking %s: %+v", bookingID, err)
			return nil, err
		}
		if current == nil {
			return nil, entity.ErrBookingNotFound
		}
		end = start.Add(current.Slot().Duration().Std())
	}

	newSlot, err := entity.NewTimeSlot(start, end)
	if err != nil {
		return nil, err
	}

	// Step 2 to 4
	return u.apply(ctx, "reschedule", bookingID, func(actor entity.Actor, now time.Time) (*engine.Decision, error) {
		decision, err := u.engine.RescheduleBooking(ctx, bookingID, newSlot, actor, now)
		u.recordClaim(err)
		return decision, err
	})
}

// CompleteBooking marks a confirmed booking as attended
func (u *bookingUsecase) CompleteBooking(ctx context.Context, bookingID uuid.UUID) (*dto.BookingDecisionResponse, error) {
	return u.apply(ctx, "complete", bookingID, func(actor entity.Actor, now time.Time) (*engine.Decision, error) {
		return u.engine.CompleteBooking(ctx, bookingID, actor, now)
	})
}

// MarkNoShow marks a confirmed booking as missed
func (u *bookingUsecase) MarkNoShow(ctx context.Context, bookingID uuid.UUID) (*dto.BookingDecisionResponse, error) {
	return u.apply(ctx, "no-show", bookingID, func(actor entity.Actor, now time.Time) (*engine.Decision, error) {
		return u.engine.MarkNoShow(ctx, bookingID, actor, now)
	})
}

// RecordDepositPayment records that the deposit of a booking was paid
func (u *bookingUsecase) RecordDepositPayment(ctx context.Context, bookingID uuid.UUID) (*dto.BookingDecisionResponse, error) {
	return u.apply(ctx, "deposit", bookingID, func(_ entity.Actor, now time.Time) (*engine.Decision, error) {
		return u.engine.RecordDepositPayment(ctx, bookingID, now)
	})
}

// apply runs one lifecycle operation on an existing booking and commits it.
func (u *bookingUsecase) apply(ctx context.Context, op string, bookingID uuid.UUID, decide func(actor entity.Actor, now time.Time) (*engine.Decision, error)) (*dto.BookingDecisionResponse, error) {
	actor, ok := middleware.GetActorFromContext(ctx)
	if !ok {
		return nil, ErrActorMissing
	}

	decision, err := decide(actor, u.clock.Now())
	if err != nil {
		u.logFailure(err, "Failed to %s booking %s", op, bookingID)
		return nil, err
	}

	if err := u.commit(ctx, op, decision); err != nil {
		return nil, err
	}

	u.log.Infof("Booking %s: id=%s status=%s actor=%s", op, decision.Booking.ID(), decision.Booking.Status(), actor.ID)
	return converter.DecisionToResponse(decision), nil
}

// commit stores a decision, releases its claims and publishes its changes.
// Claims are released whether or not the transaction succeeded.
func (u *bookingUsecase) commit(ctx context.Context, op string, d *engine.Decision) error {
	err := u.transact(ctx, func(tx *gorm.DB) error {
		if err := u.bookingRepo.Persist(ctx, tx, d.Bookings, d.Changes); err != nil {
			return err
		}
		return u.auditService.LogStatusChanges(ctx, tx, d.Bookings, d.Changes)
	})

	afterCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), afterCommitTimeout)
	defer cancel()

	if releaseErr := service.ReleaseAll(afterCtx, u.coordinator, d.Claims); releaseErr != nil {
		// Claims expire on their own
		u.log.Warnf("Failed to release claims after %s: %+v", op, releaseErr)
	}

	if err != nil {
		u.metrics.CommitError()
		if errors.Is(err, entity.ErrConflict) {
			u.log.Infof("Commit of %s lost to a concurrent booking: %v", op, err)
			return err
		}
		u.log.Errorf("Failed to commit %s: %+v", op, err)
		return fmt.Errorf("commit %s: %w", op, err)
	}

	for _, c := range d.Changes {
		u.metrics.Transition(string(c.From), string(c.To))
	}

	if pubErr := u.publisher.PublishStatusChanges(afterCtx, d.Bookings, d.Changes); pubErr != nil {
		u.log.Warnf("Failed to publish %d event(s) after %s: %+v", len(d.Changes), op, pubErr)
	}
	return nil
}

func (u *bookingUsecase) recordClaim(err error) {
	switch {
	case err == nil:
		u.metrics.Claim(metrics.ClaimGranted)
	case errors.Is(err, entity.ErrConflict):
		u.metrics.Claim(metrics.ClaimConflict)
	}
}

// logFailure logs expected outcomes quietly and integration errors loudly.
func (u *bookingUsecase) logFailure(err error, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, entity.ErrInvalidStateTransition):
		u.log.Errorf("%s: %+v", msg, err)
	case errors.Is(err, entity.ErrConflict), errors.Is(err, entity.ErrPolicyViolation),
		errors.Is(err, entity.ErrValidation), errors.Is(err, entity.ErrBookingNotFound),
		errors.Is(err, entity.ErrServiceNotFound), errors.Is(err, entity.ErrProviderNotFound):
		u.log.Infof("%s: %v", msg, err)
	default:
		u.log.Warnf("%s: %+v", msg, err)
	}
}

// withContext binds ctx to db. Tests run without a database.
func withContext(ctx context.Context, db *gorm.DB) *gorm.DB {
	if db == nil {
		return nil
	}
	return db.WithContext(ctx)
}

func parseUUID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, &entity.ValidationError{Field: field, Reason: "must be a valid UUID"}
	}
	return id, nil
}

func parseOptionalUUID(field, value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := parseUUID(field, value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseInstant(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, &entity.ValidationError{Field: field, Reason: "must be an RFC 3339 timestamp"}
	}
	return t, nil
}
