package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go-booking-engine/internal/delivery/dto"
	"go-booking-engine/internal/delivery/http/middleware"
	"go-booking-engine/internal/domain/entity"
	"go-booking-engine/internal/engine"
	"go-booking-engine/internal/service"
	"go-booking-engine/pkg/metrics"
)

var now = time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)

var customer = entity.Actor{ID: "cust-1", Role: entity.ActorCustomer}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeEngine returns a canned decision and records what it was asked.
type fakeEngine struct {
	decision     *engine.Decision
	availability *engine.Availability
	err          error

	calls     int
	request   engine.BookingRequest
	query     engine.AvailabilityQuery
	newSlot   entity.TimeSlot
	reason    string
	lastActor entity.Actor
}

func (f *fakeEngine) answer(actor entity.Actor) (*engine.Decision, error) {
	f.calls++
	f.lastActor = actor
	return f.decision, f.err
}

func (f *fakeEngine) GetAvailability(_ context.Context, q engine.AvailabilityQuery, _ time.Time) (*engine.Availability, error) {
	f.calls++
	f.query = q
	return f.availability, f.err
}

func (f *fakeEngine) RequestBooking(_ context.Context, req engine.BookingRequest, _ time.Time) (*engine.Decision, error) {
	f.request = req
	return f.answer(req.Actor)
}

func (f *fakeEngine) ConfirmBooking(_ context.Context, _ uuid.UUID, actor entity.Actor, _ time.Time) (*engine.Decision, error) {
	return f.answer(actor)
}

func (f *fakeEngine) CancelBooking(_ context.Context, _ uuid.UUID, actor entity.Actor, reason string, _ time.Time) (*engine.Decision, error) {
	f.reason = reason
	return f.answer(actor)
}

func (f *fakeEngine) RescheduleBooking(_ context.Context, _ uuid.UUID, newSlot entity.TimeSlot, actor entity.Actor, _ time.Time) (*engine.Decision, error) {
	f.newSlot = newSlot
	return f.answer(actor)
}

func (f *fakeEngine) CompleteBooking(_ context.Context, _ uuid.UUID, actor entity.Actor, _ time.Time) (*engine.Decision, error) {
	return f.answer(actor)
}

func (f *fakeEngine) MarkNoShow(_ context.Context, _ uuid.UUID, actor entity.Actor, _ time.Time) (*engine.Decision, error) {
	return f.answer(actor)
}

func (f *fakeEngine) RecordDepositPayment(_ context.Context, _ uuid.UUID, _ time.Time) (*engine.Decision, error) {
	return f.answer(entity.SystemActor)
}

type fakeBookingStore struct {
	bookings   map[uuid.UUID]*entity.Booking
	history    map[uuid.UUID][]entity.StatusChange
	persisted  []*entity.Booking
	changes    []entity.StatusChange
	persistErr error
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{
		bookings: make(map[uuid.UUID]*entity.Booking),
		history:  make(map[uuid.UUID][]entity.StatusChange),
	}
}

func (s *fakeBookingStore) GetCommittedSlots(context.Context, entity.Resource, entity.TimeSlot, ...uuid.UUID) ([]entity.TimeSlot, error) {
	return nil, nil
}

func (s *fakeBookingStore) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	return s.bookings[id], nil
}

func (s *fakeBookingStore) FindHistory(_ context.Context, id uuid.UUID) ([]entity.StatusChange, error) {
	return s.history[id], nil
}

func (s *fakeBookingStore) Persist(_ context.Context, _ *gorm.DB, bookings []*entity.Booking, changes []entity.StatusChange) error {
	if s.persistErr != nil {
		return s.persistErr
	}
	s.persisted = append(s.persisted, bookings...)
	s.changes = append(s.changes, changes...)
	return nil
}

type fakeAuditRepo struct {
	logs []entity.AuditLog
}

func (r *fakeAuditRepo) Create(_ *gorm.DB, log *entity.AuditLog) error {
	log.ID = int64(len(r.logs) + 1)
	r.logs = append(r.logs, *log)
	return nil
}

func (r *fakeAuditRepo) CreateBatch(db *gorm.DB, logs []entity.AuditLog) error {
	for i := range logs {
		if err := r.Create(db, &logs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeAuditRepo) FindByBookingID(_ *gorm.DB, bookingID uuid.UUID) ([]entity.AuditLog, error) {
	var out []entity.AuditLog
	for _, l := range r.logs {
		if l.BookingID != nil && *l.BookingID == bookingID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeAuditRepo) FindByID(_ *gorm.DB, id int64) (*entity.AuditLog, error) {
	for i := range r.logs {
		if r.logs[i].ID == id {
			return &r.logs[i], nil
		}
	}
	return nil, nil
}

type recordingPublisher struct {
	changes []entity.StatusChange
}

func (p *recordingPublisher) PublishStatusChanges(_ context.Context, _ []*entity.Booking, changes []entity.StatusChange) error {
	p.changes = append(p.changes, changes...)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	usecase     *bookingUsecase
	engine      *fakeEngine
	store       *fakeBookingStore
	audit       *fakeAuditRepo
	publisher   *recordingPublisher
	coordinator *service.MemoryReservationCoordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		engine:      &fakeEngine{},
		store:       newFakeBookingStore(),
		audit:       &fakeAuditRepo{},
		publisher:   &recordingPublisher{},
		coordinator: service.NewMemoryReservationCoordinator(quietLogger(), time.Minute),
	}
	t.Cleanup(f.coordinator.Stop)

	log := quietLogger()
	u := NewBookingUsecase(nil, log, f.engine, f.store, f.audit, service.NewAuditService(log, f.audit),
		f.coordinator, f.publisher, metrics.NewRecorder(), entity.NewFixedClock(now)).(*bookingUsecase)
	u.transact = func(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }
	f.usecase = u
	return f
}

func slotAt(t *testing.T, hour, minutes int) entity.TimeSlot {
	t.Helper()
	start := time.Date(2026, 3, 10, hour, 0, 0, 0, time.UTC)
	s, err := entity.NewTimeSlot(start, start.Add(time.Duration(minutes)*time.Minute))
	require.NoError(t, err)
	return s
}

// requestedDecision builds the decision of a fresh booking holding a live claim.
func (f *fixture) requestedDecision(t *testing.T, slot entity.TimeSlot) *engine.Decision {
	t.Helper()
	b, change, err := entity.NewBooking(entity.NewBookingParams{
		ProviderID: uuid.New(),
		ServiceID:  uuid.New(),
		CustomerID: uuid.New(),
		Slot:       slot,
		TotalPrice: decimal.NewFromInt(100),
		Actor:      customer,
	}, now)
	require.NoError(t, err)

	claim, err := f.coordinator.TryClaim(context.Background(), entity.ClaimRequest{ProviderID: b.ProviderID(), Slot: slot}, now)
	require.NoError(t, err)

	return &engine.Decision{
		Booking:  b,
		Bookings: []*entity.Booking{b},
		Changes:  []entity.StatusChange{change},
		Claims:   []entity.Claim{claim},
	}
}

func (f *fixture) slotIsFree(t *testing.T, d *engine.Decision) bool {
	t.Helper()
	claim, err := f.coordinator.TryClaim(context.Background(), entity.ClaimRequest{ProviderID: d.Booking.ProviderID(), Slot: d.Booking.Slot()}, now)
	if err != nil {
		return false
	}
	require.NoError(t, f.coordinator.Release(context.Background(), claim))
	return true
}

func createRequest(d *engine.Decision) *dto.CreateBookingRequest {
	return &dto.CreateBookingRequest{
		ProviderID: d.Booking.ProviderID().String(),
		ServiceID:  d.Booking.ServiceID().String(),
		CustomerID: d.Booking.CustomerID().String(),
		StartAt:    d.Booking.Slot().Start().Format(time.RFC3339),
	}
}

func actorCtx() context.Context {
	return middleware.WithActor(context.Background(), customer)
}

func TestCreateBooking_CommitsAndReleasesClaim(t *testing.T) {
	f := newFixture(t)
	decision := f.requestedDecision(t, slotAt(t, 10, 30))
	f.engine.decision = decision
	require.False(t, f.slotIsFree(t, decision))

	resp, err := f.usecase.CreateBooking(actorCtx(), createRequest(decision))
	require.NoError(t, err)

	assert.Equal(t, decision.Booking.ID(), resp.Booking.ID)
	assert.Equal(t, "requested", resp.Booking.Status)
	assert.Nil(t, resp.Previous)
	assert.Equal(t, customer, f.engine.request.Actor)
	assert.True(t, f.engine.request.Start.Equal(decision.Booking.Slot().Start()))

	require.Len(t, f.store.persisted, 1)
	require.Len(t, f.audit.logs, 1)
	assert.Equal(t, entity.AuditActionBookingRequest, f.audit.logs[0].Action)
	assert.Len(t, f.publisher.changes, 1)
	assert.True(t, f.slotIsFree(t, decision), "claim is released after commit")
}

func TestCreateBooking_RequiresActor(t *testing.T) {
	f := newFixture(t)
	_, err := f.usecase.CreateBooking(context.Background(), &dto.CreateBookingRequest{})
	assert.ErrorIs(t, err, ErrActorMissing)
	assert.Zero(t, f.engine.calls)
}

func TestCreateBooking_RejectsMalformedInput(t *testing.T) {
	f := newFixture(t)
	decision := f.requestedDecision(t, slotAt(t, 10, 30))

	req := createRequest(decision)
	req.StaffID = "not-a-uuid"
	_, err := f.usecase.CreateBooking(actorCtx(), req)
	assert.ErrorIs(t, err, entity.ErrValidation)

	req = createRequest(decision)
	req.StartAt = "2026-03-10 10:00"
	_, err = f.usecase.CreateBooking(actorCtx(), req)
	assert.ErrorIs(t, err, entity.ErrValidation)

	assert.Zero(t, f.engine.calls)
}

func TestCreateBooking_EngineRejectionIsNotCommitted(t *testing.T) {
	f := newFixture(t)
	decision := f.requestedDecision(t, slotAt(t, 10, 30))
	f.engine.err = entity.NewPolicyViolation(entity.RuleMinAdvance, "too soon")

	_, err := f.usecase.CreateBooking(actorCtx(), createRequest(decision))
	assert.ErrorIs(t, err, entity.ErrPolicyViolation)
	assert.Empty(t, f.store.persisted)
	assert.Empty(t, f.publisher.changes)
}

func TestCreateBooking_CommitConflictReleasesClaim(t *testing.T) {
	f := newFixture(t)
	decision := f.requestedDecision(t, slotAt(t, 10, 30))
	f.engine.decision = decision
	f.store.persistErr = fmt.Errorf("%w: booking overlaps a committed booking", entity.ErrConflict)

	_, err := f.usecase.CreateBooking(actorCtx(), createRequest(decision))
	assert.ErrorIs(t, err, entity.ErrConflict)
	assert.Empty(t, f.audit.logs)
	assert.Empty(t, f.publisher.changes, "nothing is published for a failed commit")
	assert.True(t, f.slotIsFree(t, decision))
}

func TestCreateBooking_CommitFailureIsWrapped(t *testing.T) {
	f := newFixture(t)
	decision := f.requestedDecision(t, slotAt(t, 10, 30))
	f.engine.decision = decision
	dbErr := errors.New("connection reset")
	f.store.persistErr = dbErr

	_, err := f.usecase.CreateBooking(actorCtx(), createRequest(decision))
	require.ErrorIs(t, err, dbErr)
	assert.Contains(t, err.Error(), "commit request")
	assert.True(t, f.slotIsFree(t, decision))
}

func TestCancelBooking_PassesReasonAndActor(t *testing.T) {
	f := newFixture(t)
	decision := f.requestedDecision(t, slotAt(t, 10, 30))
	cancelled, err := decision.Booking.Cancel(decimal.NewFromInt(50), customer, now, "sick")
	require.NoError(t, err)
	f.engine.decision = &engine.Decision{
		Booking:  decision.Booking,
		Bookings: decision.Bookings,
		Changes:  []entity.StatusChange{cancelled},
		Fee:      decimal.NewFromInt(50),
	}

	resp, err := f.usecase.CancelBooking(actorCtx(), decision.Booking.ID(), &dto.CancelBookingRequest{Reason: "sick"})
	require.NoError(t, err)

	assert.Equal(t, "sick", f.engine.reason)
	assert.Equal(t, "cancelled", resp.Booking.Status)
	assert.True(t, resp.Fee.Equal(decimal.NewFromInt(50)))
	require.Len(t, f.audit.logs, 1)
	assert.Equal(t, entity.AuditActionBookingCancel, f.audit.logs[0].Action)
}

func TestRescheduleBooking_KeepsCurrentLength(t *testing.T) {
	f := newFixture(t)
	current := f.requestedDecision(t, slotAt(t, 10, 45)).Booking
	f.store.bookings[current.ID()] = current
	f.engine.decision = f.requestedDecision(t, slotAt(t, 14, 45))

	_, err := f.usecase.RescheduleBooking(actorCtx(), current.ID(), &dto.RescheduleBookingRequest{StartAt: "2026-03-10T14:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, 45, f.engine.newSlot.Duration().Minutes())
	assert.True(t, f.engine.newSlot.Start().Equal(time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)))
}

func TestRescheduleBooking_UnknownBooking(t *testing.T) {
	f := newFixture(t)
	_, err := f.usecase.RescheduleBooking(actorCtx(), uuid.New(), &dto.RescheduleBookingRequest{StartAt: "2026-03-10T14:00:00Z"})
	assert.ErrorIs(t, err, entity.ErrBookingNotFound)
	assert.Zero(t, f.engine.calls)
}

func TestRescheduleBooking_ExplicitEnd(t *testing.T) {
	f := newFixture(t)
	f.engine.decision = f.requestedDecision(t, slotAt(t, 14, 30))

	_, err := f.usecase.RescheduleBooking(actorCtx(), uuid.New(), &dto.RescheduleBookingRequest{
		StartAt: "2026-03-10T21:00:00+07:00",
		EndAt:   "2026-03-10T21:30:00+07:00",
	})
	require.NoError(t, err)
	assert.True(t, f.engine.newSlot.Start().Equal(time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)))
	assert.Equal(t, 30, f.engine.newSlot.Duration().Minutes())
}

func TestGetBooking(t *testing.T) {
	f := newFixture(t)
	_, err := f.usecase.GetBooking(context.Background(), uuid.New())
	assert.ErrorIs(t, err, entity.ErrBookingNotFound)

	decision := f.requestedDecision(t, slotAt(t, 10, 30))
	f.engine.decision = decision
	_, err = f.usecase.CreateBooking(actorCtx(), createRequest(decision))
	require.NoError(t, err)

	id := decision.Booking.ID()
	f.store.bookings[id] = decision.Booking
	f.store.history[id] = decision.Changes

	detail, err := f.usecase.GetBooking(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, detail.Booking.ID)
	require.Len(t, detail.History, 1)
	assert.Equal(t, "requested", detail.History[0].To)
	assert.Equal(t, "cust-1", detail.History[0].ActorID)
	require.Len(t, detail.AuditLogs, 1)
}

func TestGetAvailability_ParsesQuery(t *testing.T) {
	f := newFixture(t)
	provider, svc, staff := uuid.New(), uuid.New(), uuid.New()
	f.engine.availability = &engine.Availability{ProviderID: provider, ServiceID: svc, Location: time.UTC, Duration: entity.MustDuration(30)}

	resp, err := f.usecase.GetAvailability(context.Background(), provider, &dto.AvailabilityRequest{
		ServiceID: svc.String(),
		StaffID:   staff.String(),
		From:      "2026-03-09",
		To:        "2026-03-15",
	})
	require.NoError(t, err)

	assert.Equal(t, provider, f.engine.query.ProviderID)
	require.NotNil(t, f.engine.query.StaffID)
	assert.Equal(t, staff, *f.engine.query.StaffID)
	assert.Len(t, f.engine.query.Range.Days(), 7)
	assert.Equal(t, "UTC", resp.Timezone)
	assert.Equal(t, 30, resp.DurationMinutes)
}

func TestGetAvailability_RejectsBadRange(t *testing.T) {
	f := newFixture(t)
	_, err := f.usecase.GetAvailability(context.Background(), uuid.New(), &dto.AvailabilityRequest{
		ServiceID: uuid.New().String(),
		From:      "2026-03-15",
		To:        "2026-03-09",
	})
	assert.ErrorIs(t, err, entity.ErrValidation)
	assert.Zero(t, f.engine.calls)
}

func TestAuditLogUsecase(t *testing.T) {
	repo := &fakeAuditRepo{}
	bookingID := uuid.New()
	require.NoError(t, repo.Create(nil, &entity.AuditLog{BookingID: &bookingID, Action: entity.AuditActionBookingRequest}))

	u := NewAuditLogUsecase(nil, quietLogger(), repo)

	list, err := u.GetBookingAuditLogs(context.Background(), bookingID)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)

	_, err = u.GetAuditLog(context.Background(), 42)
	assert.ErrorIs(t, err, ErrAuditLogNotFound)
}
