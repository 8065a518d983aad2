package repository

import (
	"context"
	"errors"
	"fmt"

	"go-booking-engine/internal/domain/entity"
	domainRepo "go-booking-engine/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Postgres SQLSTATE raised by the bookings_no_overlap exclusion constraint.
const exclusionViolation = "23P01"

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) domainRepo.BookingStore {
	return &bookingRepository{db: db}
}

func activeStatuses() []string {
	out := make([]string, len(entity.ActiveBookingStatuses))
	for i, s := range entity.ActiveBookingStatuses {
		out[i] = string(s)
	}
	return out
}

// onResource narrows a bookings query to the active bookings of resource that
// overlap slot.
func onResource(db *gorm.DB, resource entity.Resource, slot entity.TimeSlot) *gorm.DB {
	db = db.Model(&bookingRecord{}).
		Where("provider_id = ? AND status IN ?", resource.ProviderID, activeStatuses()).
		Where("start_at < ? AND end_at > ?", slot.End().UTC(), slot.Start().UTC())
	if staff := resource.StaffPtr(); staff != nil {
		return db.Where("staff_id = ?", *staff)
	}
	return db.Where("staff_id IS NULL")
}

func (r *bookingRepository) GetCommittedSlots(ctx context.Context, resource entity.Resource, window entity.TimeSlot, excludeIDs ...uuid.UUID) ([]entity.TimeSlot, error) {
	q := onResource(r.db.WithContext(ctx), resource, window)
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}

	var recs []bookingRecord
	if err := q.Select("id", "start_at", "end_at").Order("start_at").Find(&recs).Error; err != nil {
		return nil, err
	}

	slots := make([]entity.TimeSlot, 0, len(recs))
	for _, rec := range recs {
		s, err := entity.NewTimeSlot(rec.StartAt, rec.EndAt)
		if err != nil {
			return nil, fmt.Errorf("booking %s: %w", rec.ID, err)
		}
		slots = append(slots, s)
	}
	return slots, nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	var rec bookingRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toBooking(rec)
}

func (r *bookingRepository) FindHistory(ctx context.Context, bookingID uuid.UUID) ([]entity.StatusChange, error) {
	var recs []statusHistoryRecord
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("changed_at, id").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	changes := make([]entity.StatusChange, len(recs))
	for i, rec := range recs {
		changes[i] = toChange(rec)
	}
	return changes, nil
}

// Persist writes bookings in order, so a retired booking is saved before its
// replacement is checked for overlaps. Each active booking first locks the
// rows it would overlap; the exclusion constraint catches any insert that
// races past the lock.
func (r *bookingRepository) Persist(ctx context.Context, tx *gorm.DB, bookings []*entity.Booking, changes []entity.StatusChange) error {
	tx = tx.WithContext(ctx)

	for _, b := range bookings {
		rec := fromBooking(b)

		if b.Status().IsActive() {
			var overlapping []uuid.UUID
			err := onResource(tx, b.Resource(), b.Slot()).
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id <> ?", rec.ID).
				Pluck("id", &overlapping).Error
			if err != nil {
				return err
			}
			if len(overlapping) > 0 {
				return fmt.Errorf("%w: booking %s overlaps booking %s", entity.ErrConflict, rec.ID, overlapping[0])
			}
		}

		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&rec).Error
		if err != nil {
			if IsConflict(err) {
				return fmt.Errorf("%w: booking %s overlaps a committed booking", entity.ErrConflict, rec.ID)
			}
			return err
		}
	}

	if len(changes) == 0 {
		return nil
	}
	history := make([]statusHistoryRecord, len(changes))
	for i, c := range changes {
		history[i] = fromChange(c)
	}
	return tx.Create(&history).Error
}

// IsConflict reports whether err is an exclusion-constraint violation.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == exclusionViolation
}
