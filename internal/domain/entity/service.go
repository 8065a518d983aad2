package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service is something a provider sells in fixed-length appointments
type Service struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ProviderID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"provider_id"`
	Name            string          `gorm:"type:varchar(255);not null" json:"name"`
	DurationMinutes int             `gorm:"not null" json:"duration_minutes"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	IsActive        bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Service) TableName() string {
	return "services"
}

// Duration validates and returns the appointment length.
func (s *Service) Duration() (Duration, error) {
	if s.DurationMinutes <= 0 {
		return Duration{}, newValidationError("service_duration", "service %s has no positive duration", s.ID)
	}
	return NewDuration(s.DurationMinutes)
}
