package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-booking-engine/internal/domain/entity"
	domainRepo "go-booking-engine/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type calendarRepository struct {
	db *gorm.DB

	// Loaded zones, map[string]*time.Location
	locations sync.Map
}

func NewCalendarRepository(db *gorm.DB) domainRepo.CalendarStore {
	return &calendarRepository{db: db}
}

func (r *calendarRepository) GetOperatingHours(ctx context.Context, providerID uuid.UUID, weekday time.Weekday) (entity.OperatingHours, error) {
	var rec operatingHoursRecord
	err := r.db.WithContext(ctx).
		Preload("Breaks", func(db *gorm.DB) *gorm.DB { return db.Order("start_time") }).
		Where("provider_id = ? AND weekday = ?", providerID, int(weekday)).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.ClosedDay(weekday), nil
		}
		return entity.OperatingHours{}, err
	}
	return toOperatingHours(rec)
}

func (r *calendarRepository) GetHolidays(ctx context.Context, providerID uuid.UUID) ([]entity.HolidaySchedule, error) {
	var recs []holidayRecord
	if err := r.db.WithContext(ctx).Where("provider_id = ?", providerID).Order("date").Find(&recs).Error; err != nil {
		return nil, err
	}

	holidays := make([]entity.HolidaySchedule, 0, len(recs))
	for _, rec := range recs {
		h, err := toHoliday(rec)
		if err != nil {
			return nil, fmt.Errorf("holiday %d: %w", rec.ID, err)
		}
		holidays = append(holidays, h)
	}
	return holidays, nil
}

func (r *calendarRepository) GetExceptions(ctx context.Context, providerID uuid.UUID, dateRange entity.DateRange) ([]entity.ExceptionSchedule, error) {
	var recs []exceptionRecord
	err := r.db.WithContext(ctx).
		Where("provider_id = ? AND date BETWEEN ? AND ?", providerID, dateValue(dateRange.From()), dateValue(dateRange.To())).
		Order("date").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	exceptions := make([]entity.ExceptionSchedule, 0, len(recs))
	for _, rec := range recs {
		e, err := toException(rec)
		if err != nil {
			return nil, fmt.Errorf("schedule exception %d: %w", rec.ID, err)
		}
		exceptions = append(exceptions, e)
	}
	return exceptions, nil
}

func (r *calendarRepository) GetPolicy(ctx context.Context, providerID uuid.UUID) (*entity.BookingPolicy, error) {
	var rec policyRecord
	err := r.db.WithContext(ctx).Where("provider_id = ?", providerID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	policy, err := toPolicy(rec)
	if err != nil {
		return nil, fmt.Errorf("booking policy of provider %s: %w", providerID, err)
	}
	return &policy, nil
}

func (r *calendarRepository) GetService(ctx context.Context, serviceID uuid.UUID) (*entity.Service, error) {
	var svc entity.Service
	err := r.db.WithContext(ctx).Where("id = ?", serviceID).First(&svc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &svc, nil
}

func (r *calendarRepository) GetTimezone(ctx context.Context, providerID uuid.UUID) (*time.Location, error) {
	var rec providerRecord
	err := r.db.WithContext(ctx).Select("id", "timezone").Where("id = ?", providerID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrProviderNotFound
		}
		return nil, err
	}
	return r.location(rec.Timezone)
}

func (r *calendarRepository) location(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	if v, ok := r.locations.Load(name); ok {
		return v.(*time.Location), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("provider timezone %q: %w", name, err)
	}
	r.locations.Store(name, loc)
	return loc, nil
}
