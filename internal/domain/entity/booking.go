package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusRequested   BookingStatus = "requested"
	BookingStatusConfirmed   BookingStatus = "confirmed"
	BookingStatusCancelled   BookingStatus = "cancelled"
	BookingStatusCompleted   BookingStatus = "completed"
	BookingStatusNoShow      BookingStatus = "no_show"
	BookingStatusRescheduled BookingStatus = "rescheduled"
)

// bookingTransitions lists every edge of the lifecycle. Terminal states have
// no outgoing edges.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusRequested: {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCancelled, BookingStatusCompleted, BookingStatusNoShow, BookingStatusRescheduled},
}

// CanTransition reports whether from -> to is a defined lifecycle edge.
func CanTransition(from, to BookingStatus) bool {
	for _, s := range bookingTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsActive reports whether the status still occupies its slot.
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusRequested || s == BookingStatusConfirmed
}

// IsTerminal reports whether no further transition is possible.
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// ActiveBookingStatuses are the statuses that count as commitments.
var ActiveBookingStatuses = []BookingStatus{BookingStatusRequested, BookingStatusConfirmed}

// PaymentStatus tracks deposit and payment progress. Capture and refund are
// handled by an external gateway.
type PaymentStatus string

const (
	PaymentStatusNotRequired    PaymentStatus = "not_required"
	PaymentStatusDepositPending PaymentStatus = "deposit_pending"
	PaymentStatusDepositPaid    PaymentStatus = "deposit_paid"
	PaymentStatusPaid           PaymentStatus = "paid"
)

// ActorRole tells who initiated a transition.
type ActorRole string

const (
	ActorCustomer ActorRole = "customer"
	ActorProvider ActorRole = "provider"
	ActorSystem   ActorRole = "system"
)

type Actor struct {
	ID   string
	Role ActorRole
}

// SystemActor is used for automatic transitions such as auto-confirm.
var SystemActor = Actor{ID: "system", Role: ActorSystem}

// StatusChange is one entry of a booking's append-only history and the
// command handed to the persistence layer. From is empty for creation.
type StatusChange struct {
	BookingID uuid.UUID
	From      BookingStatus
	To        BookingStatus
	Actor     Actor
	At        time.Time
	Reason    string
}

// Booking is the aggregate root of one reservation. Its fields change only
// through lifecycle methods.
type Booking struct {
	id              uuid.UUID
	providerID      uuid.UUID
	serviceID       uuid.UUID
	staffID         *uuid.UUID
	customerID      uuid.UUID
	slot            TimeSlot
	status          BookingStatus
	paymentStatus   PaymentStatus
	totalPrice      decimal.Decimal
	depositAmount   decimal.Decimal
	cancellationFee decimal.Decimal
	rescheduledFrom *uuid.UUID
	rescheduledTo   *uuid.UUID
	rescheduleCount int
	history         []StatusChange
	createdAt       time.Time
	updatedAt       time.Time
}

// NewBookingParams are the inputs of a booking request.
type NewBookingParams struct {
	ProviderID    uuid.UUID
	ServiceID     uuid.UUID
	StaffID       *uuid.UUID
	CustomerID    uuid.UUID
	Slot          TimeSlot
	TotalPrice    decimal.Decimal
	DepositAmount decimal.Decimal
	Actor         Actor
}

// NewBooking creates a booking in the requested state.
func NewBooking(p NewBookingParams, now time.Time) (*Booking, StatusChange, error) {
	if p.ProviderID == uuid.Nil {
		return nil, StatusChange{}, newValidationError("provider_id", "is required")
	}
	if p.ServiceID == uuid.Nil {
		return nil, StatusChange{}, newValidationError("service_id", "is required")
	}
	if p.CustomerID == uuid.Nil {
		return nil, StatusChange{}, newValidationError("customer_id", "is required")
	}
	if p.Slot.IsZero() {
		return nil, StatusChange{}, newValidationError("slot", "is required")
	}
	if p.TotalPrice.IsNegative() || p.DepositAmount.IsNegative() {
		return nil, StatusChange{}, newValidationError("price", "must not be negative")
	}

	payment := PaymentStatusNotRequired
	if p.DepositAmount.IsPositive() {
		payment = PaymentStatusDepositPending
	}

	b := &Booking{
		id:            uuid.New(),
		providerID:    p.ProviderID,
		serviceID:     p.ServiceID,
		staffID:       copyID(p.StaffID),
		customerID:    p.CustomerID,
		slot:          p.Slot,
		status:        BookingStatusRequested,
		paymentStatus: payment,
		totalPrice:    p.TotalPrice,
		depositAmount: p.DepositAmount,
		createdAt:     now,
		updatedAt:     now,
	}
	change := StatusChange{BookingID: b.id, To: BookingStatusRequested, Actor: p.Actor, At: now}
	b.history = append(b.history, change)
	return b, change, nil
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func (b *Booking) ID() uuid.UUID { return b.id }

func (b *Booking) ProviderID() uuid.UUID { return b.providerID }

func (b *Booking) ServiceID() uuid.UUID { return b.serviceID }

func (b *Booking) StaffID() *uuid.UUID { return copyID(b.staffID) }

func (b *Booking) CustomerID() uuid.UUID { return b.customerID }

func (b *Booking) Slot() TimeSlot { return b.slot }

func (b *Booking) Status() BookingStatus { return b.status }

func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }

func (b *Booking) TotalPrice() decimal.Decimal { return b.totalPrice }

func (b *Booking) DepositAmount() decimal.Decimal { return b.depositAmount }

func (b *Booking) CancellationFee() decimal.Decimal { return b.cancellationFee }

func (b *Booking) RescheduledFrom() *uuid.UUID { return copyID(b.rescheduledFrom) }

func (b *Booking) RescheduledTo() *uuid.UUID { return copyID(b.rescheduledTo) }

func (b *Booking) RescheduleCount() int { return b.rescheduleCount }

func (b *Booking) CreatedAt() time.Time { return b.createdAt }

func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// Resource is the calendar this booking occupies.
func (b *Booking) Resource() Resource {
	return NewResource(b.providerID, b.staffID)
}

// History returns a copy of the status history, oldest first.
func (b *Booking) History() []StatusChange {
	out := make([]StatusChange, len(b.history))
	copy(out, b.history)
	return out
}

func (b *Booking) transition(to BookingStatus, actor Actor, now time.Time, reason string) (StatusChange, error) {
	if !CanTransition(b.status, to) {
		return StatusChange{}, &InvalidStateTransition{From: b.status, To: to}
	}
	change := StatusChange{BookingID: b.id, From: b.status, To: to, Actor: actor, At: now, Reason: reason}
	b.status = to
	b.updatedAt = now
	b.history = append(b.history, change)
	return change, nil
}

// Confirm accepts a requested booking. The caller must still hold a live
// claim on exactly this booking's slot.
func (b *Booking) Confirm(claim Claim, actor Actor, now time.Time) (StatusChange, error) {
	if !CanTransition(b.status, BookingStatusConfirmed) {
		return StatusChange{}, &InvalidStateTransition{From: b.status, To: BookingStatusConfirmed}
	}
	if claim.IsExpired(now) {
		return StatusChange{}, ErrClaimExpired
	}
	if !claim.Covers(b.Resource(), b.slot) {
		return StatusChange{}, ErrClaimMismatch
	}
	return b.transition(BookingStatusConfirmed, actor, now, "")
}

// Cancel moves a requested or confirmed booking to cancelled and records the
// fee computed by the policy.
func (b *Booking) Cancel(fee decimal.Decimal, actor Actor, now time.Time, reason string) (StatusChange, error) {
	change, err := b.transition(BookingStatusCancelled, actor, now, reason)
	if err != nil {
		return StatusChange{}, err
	}
	b.cancellationFee = fee
	return change, nil
}

// Complete marks a confirmed booking as rendered once its slot has ended.
func (b *Booking) Complete(actor Actor, now time.Time) (StatusChange, error) {
	if err := b.requireEnded(BookingStatusCompleted, now); err != nil {
		return StatusChange{}, err
	}
	return b.transition(BookingStatusCompleted, actor, now, "")
}

// MarkNoShow records that the customer did not appear once the slot ended.
func (b *Booking) MarkNoShow(actor Actor, now time.Time) (StatusChange, error) {
	if err := b.requireEnded(BookingStatusNoShow, now); err != nil {
		return StatusChange{}, err
	}
	return b.transition(BookingStatusNoShow, actor, now, "")
}

func (b *Booking) requireEnded(to BookingStatus, now time.Time) error {
	if !CanTransition(b.status, to) {
		return &InvalidStateTransition{From: b.status, To: to}
	}
	if now.Before(b.slot.end) {
		return NewPolicyViolation(RuleSlotNotEnded, "appointment ends at %s", b.slot.end.Format(time.RFC3339))
	}
	return nil
}

// Reschedule retires a confirmed booking and returns its replacement on
// newSlot in the requested state. Policy eligibility is checked by the
// caller. The returned changes are the old booking's transition followed by
// the replacement's creation.
func (b *Booking) Reschedule(newSlot TimeSlot, actor Actor, now time.Time) (*Booking, []StatusChange, error) {
	if !CanTransition(b.status, BookingStatusRescheduled) {
		return nil, nil, &InvalidStateTransition{From: b.status, To: BookingStatusRescheduled}
	}
	if newSlot.IsZero() {
		return nil, nil, newValidationError("slot", "is required")
	}

	next := &Booking{
		id:              uuid.New(),
		providerID:      b.providerID,
		serviceID:       b.serviceID,
		staffID:         copyID(b.staffID),
		customerID:      b.customerID,
		slot:            newSlot,
		status:          BookingStatusRequested,
		paymentStatus:   b.paymentStatus,
		totalPrice:      b.totalPrice,
		depositAmount:   b.depositAmount,
		rescheduledFrom: copyID(&b.id),
		rescheduleCount: b.rescheduleCount + 1,
		createdAt:       now,
		updatedAt:       now,
	}
	created := StatusChange{BookingID: next.id, To: BookingStatusRequested, Actor: actor, At: now, Reason: "rescheduled from " + b.id.String()}
	next.history = append(next.history, created)

	old, err := b.transition(BookingStatusRescheduled, actor, now, "rescheduled to "+next.id.String())
	if err != nil {
		return nil, nil, err
	}
	b.rescheduledTo = copyID(&next.id)

	return next, []StatusChange{old, created}, nil
}

// MarkDepositPaid records a captured deposit on an active booking.
func (b *Booking) MarkDepositPaid(now time.Time) error {
	if !b.status.IsActive() {
		return &InvalidStateTransition{From: b.status, To: b.status}
	}
	if b.paymentStatus != PaymentStatusDepositPending {
		return NewPolicyViolation(RulePaymentState, "no deposit is pending (payment status %s)", b.paymentStatus)
	}
	b.paymentStatus = PaymentStatusDepositPaid
	b.updatedAt = now
	return nil
}

// MarkPaid records full payment.
func (b *Booking) MarkPaid(now time.Time) error {
	if b.paymentStatus == PaymentStatusPaid {
		return NewPolicyViolation(RulePaymentState, "booking is already paid")
	}
	b.paymentStatus = PaymentStatusPaid
	b.updatedAt = now
	return nil
}

// BookingSnapshot is the flat form of a booking used by the persistence
// layer.
type BookingSnapshot struct {
	ID              uuid.UUID
	ProviderID      uuid.UUID
	ServiceID       uuid.UUID
	StaffID         *uuid.UUID
	CustomerID      uuid.UUID
	Start           time.Time
	End             time.Time
	Status          BookingStatus
	PaymentStatus   PaymentStatus
	TotalPrice      decimal.Decimal
	DepositAmount   decimal.Decimal
	CancellationFee decimal.Decimal
	RescheduledFrom *uuid.UUID
	RescheduledTo   *uuid.UUID
	RescheduleCount int
	History         []StatusChange
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Snapshot exports the booking for storage.
func (b *Booking) Snapshot() BookingSnapshot {
	return BookingSnapshot{
		ID:              b.id,
		ProviderID:      b.providerID,
		ServiceID:       b.serviceID,
		StaffID:         copyID(b.staffID),
		CustomerID:      b.customerID,
		Start:           b.slot.start,
		End:             b.slot.end,
		Status:          b.status,
		PaymentStatus:   b.paymentStatus,
		TotalPrice:      b.totalPrice,
		DepositAmount:   b.depositAmount,
		CancellationFee: b.cancellationFee,
		RescheduledFrom: copyID(b.rescheduledFrom),
		RescheduledTo:   copyID(b.rescheduledTo),
		RescheduleCount: b.rescheduleCount,
		History:         b.History(),
		CreatedAt:       b.createdAt,
		UpdatedAt:       b.updatedAt,
	}
}

// RestoreBooking rehydrates a stored booking. It validates the slot and the
// status but does not replay history.
func RestoreBooking(s BookingSnapshot) (*Booking, error) {
	slot, err := NewTimeSlot(s.Start, s.End)
	if err != nil {
		return nil, err
	}
	if _, known := statusNames[s.Status]; !known {
		return nil, newValidationError("status", "unknown booking status %q", s.Status)
	}
	payment := s.PaymentStatus
	if payment == "" {
		payment = PaymentStatusNotRequired
	}
	return &Booking{
		id:              s.ID,
		providerID:      s.ProviderID,
		serviceID:       s.ServiceID,
		staffID:         copyID(s.StaffID),
		customerID:      s.CustomerID,
		slot:            slot,
		status:          s.Status,
		paymentStatus:   payment,
		totalPrice:      s.TotalPrice,
		depositAmount:   s.DepositAmount,
		cancellationFee: s.CancellationFee,
		rescheduledFrom: copyID(s.RescheduledFrom),
		rescheduledTo:   copyID(s.RescheduledTo),
		rescheduleCount: s.RescheduleCount,
		history:         append([]StatusChange(nil), s.History...),
		createdAt:       s.CreatedAt,
		updatedAt:       s.UpdatedAt,
	}, nil
}

var statusNames = map[BookingStatus]struct{}{
	BookingStatusRequested:   {},
	BookingStatusConfirmed:   {},
	BookingStatusCancelled:   {},
	BookingStatusCompleted:   {},
	BookingStatusNoShow:      {},
	BookingStatusRescheduled: {},
}
