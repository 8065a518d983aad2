package repository

import (
	"context"
	"time"

	"go-booking-engine/internal/domain/entity"

	"github.com/google/uuid"
)

// CalendarStore reads the scheduling configuration of a provider. A weekday
// without stored hours is returned as closed. GetPolicy and GetService return
// nil when nothing is stored.
type CalendarStore interface {
	GetOperatingHours(ctx context.Context, providerID uuid.UUID, weekday time.Weekday) (entity.OperatingHours, error)
	GetHolidays(ctx context.Context, providerID uuid.UUID) ([]entity.HolidaySchedule, error)
	GetExceptions(ctx context.Context, providerID uuid.UUID, dateRange entity.DateRange) ([]entity.ExceptionSchedule, error)
	GetPolicy(ctx context.Context, providerID uuid.UUID) (*entity.BookingPolicy, error)
	GetService(ctx context.Context, serviceID uuid.UUID) (*entity.Service, error)
	GetTimezone(ctx context.Context, providerID uuid.UUID) (*time.Location, error)
}
