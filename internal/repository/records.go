package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Providers own calendars, policies and services.
type providerRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Timezone  string    `gorm:"type:varchar(64);not null;default:'UTC'"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (providerRecord) TableName() string {
	return "providers"
}

type operatingHoursRecord struct {
	ID         int64         `gorm:"primaryKey;autoIncrement"`
	ProviderID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_operating_hours_provider_weekday"`
	Weekday    int           `gorm:"not null;uniqueIndex:idx_operating_hours_provider_weekday"`
	OpenTime   string        `gorm:"type:time;not null"`
	CloseTime  string        `gorm:"type:time;not null"`
	IsClosed   bool          `gorm:"not null;default:false"`
	Breaks     []breakRecord `gorm:"foreignKey:OperatingHoursID"`
}

func (operatingHoursRecord) TableName() string {
	return "operating_hours"
}

type breakRecord struct {
	ID               int64  `gorm:"primaryKey;autoIncrement"`
	OperatingHoursID int64  `gorm:"not null;index"`
	StartTime        string `gorm:"type:time;not null"`
	EndTime          string `gorm:"type:time;not null"`
}

func (breakRecord) TableName() string {
	return "operating_hours_breaks"
}

type holidayRecord struct {
	ID                int64     `gorm:"primaryKey;autoIncrement"`
	ProviderID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Date              time.Time `gorm:"type:date;not null"`
	Reason            string    `gorm:"type:varchar(255)"`
	IsRecurring       bool      `gorm:"not null;default:false"`
	RecurrencePattern string    `gorm:"type:varchar(20);not null;default:'none'"`
}

func (holidayRecord) TableName() string {
	return "holidays"
}

// A null open and close time marks the day closed.
type exceptionRecord struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	ProviderID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_schedule_exceptions_provider_date"`
	Date       time.Time `gorm:"type:date;not null;uniqueIndex:idx_schedule_exceptions_provider_date"`
	OpenTime   *string   `gorm:"type:time"`
	CloseTime  *string   `gorm:"type:time"`
	Reason     string    `gorm:"type:varchar(255)"`
}

func (exceptionRecord) TableName() string {
	return "schedule_exceptions"
}

type policyRecord struct {
	ProviderID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	MinAdvanceHours         int             `gorm:"not null"`
	MaxAdvanceDays          int             `gorm:"not null"`
	CancellationWindowHours int             `gorm:"not null"`
	CancellationFeePercent  decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	AllowReschedule         bool            `gorm:"not null"`
	RescheduleWindowHours   int             `gorm:"not null"`
	MaxReschedules          int             `gorm:"not null;default:0"`
	RequireDeposit          bool            `gorm:"not null"`
	DepositPercent          decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	AutoConfirm             bool            `gorm:"not null;default:false"`
	UpdatedAt               time.Time       `gorm:"autoUpdateTime"`
}

func (policyRecord) TableName() string {
	return "booking_policies"
}

type bookingRecord struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProviderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ServiceID       uuid.UUID       `gorm:"type:uuid;not null"`
	StaffID         *uuid.UUID      `gorm:"type:uuid;index"`
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	StartAt         time.Time       `gorm:"type:timestamptz;not null"`
	EndAt           time.Time       `gorm:"type:timestamptz;not null"`
	Status          string          `gorm:"type:varchar(20);not null;index"`
	PaymentStatus   string          `gorm:"type:varchar(20);not null"`
	TotalPrice      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	DepositAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CancellationFee decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	RescheduledFrom *uuid.UUID      `gorm:"type:uuid"`
	RescheduledTo   *uuid.UUID      `gorm:"type:uuid"`
	RescheduleCount int             `gorm:"not null;default:0"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

func (bookingRecord) TableName() string {
	return "bookings"
}

type statusHistoryRecord struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	BookingID  uuid.UUID `gorm:"type:uuid;not null;index"`
	FromStatus string    `gorm:"type:varchar(20)"`
	ToStatus   string    `gorm:"type:varchar(20);not null"`
	ActorID    string    `gorm:"type:varchar(100);not null"`
	ActorRole  string    `gorm:"type:varchar(20);not null"`
	Reason     string    `gorm:"type:text"`
	ChangedAt  time.Time `gorm:"type:timestamptz;not null"`
}

func (statusHistoryRecord) TableName() string {
	return "booking_status_history"
}
