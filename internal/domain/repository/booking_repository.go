package repository

import (
	"context"

	"go-booking-engine/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingReader is the read side of BookingStore used by the engine.
type BookingReader interface {
	// GetCommittedSlots returns the slots of active bookings on resource that
	// overlap window, skipping the bookings in excludeIDs.
	GetCommittedSlots(ctx context.Context, resource entity.Resource, window entity.TimeSlot, excludeIDs ...uuid.UUID) ([]entity.TimeSlot, error)

	// FindByID returns nil when the booking does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
}

// BookingStore loads and saves booking aggregates.
type BookingStore interface {
	BookingReader

	// Persist upserts bookings and appends changes to their history inside
	// tx. It fails with entity.ErrConflict when an active booking would
	// overlap another one on the same resource.
	Persist(ctx context.Context, tx *gorm.DB, bookings []*entity.Booking, changes []entity.StatusChange) error

	// FindHistory returns the status changes of a booking, oldest first.
	FindHistory(ctx context.Context, bookingID uuid.UUID) ([]entity.StatusChange, error)
}
