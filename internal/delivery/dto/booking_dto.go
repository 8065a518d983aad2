package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type CreateBookingRequest struct {
	ProviderID string `json:"provider_id" validate:"required,uuid"`
	ServiceID  string `json:"service_id" validate:"required,uuid"`
	StaffID    string `json:"staff_id" validate:"omitempty,uuid"`
	CustomerID string `json:"customer_id" validate:"required,uuid"`
	StartAt    string `json:"start_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// RescheduleBookingRequest moves a booking. EndAt defaults to StartAt plus
// the current booking length.
type RescheduleBookingRequest struct {
	StartAt string `json:"start_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndAt   string `json:"end_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// Response DTOs

type BookingResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProviderID      uuid.UUID       `json:"provider_id"`
	ServiceID       uuid.UUID       `json:"service_id"`
	StaffID         *uuid.UUID      `json:"staff_id,omitempty"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	StartAt         time.Time       `json:"start_at"`
	EndAt           time.Time       `json:"end_at"`
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"payment_status"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	DepositAmount   decimal.Decimal `json:"deposit_amount"`
	CancellationFee decimal.Decimal `json:"cancellation_fee"`
	RescheduledFrom *uuid.UUID      `json:"rescheduled_from,omitempty"`
	RescheduledTo   *uuid.UUID      `json:"rescheduled_to,omitempty"`
	RescheduleCount int             `json:"reschedule_count"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// BookingDecisionResponse is returned by every lifecycle operation. Previous
// is the replaced booking of a reschedule.
type BookingDecisionResponse struct {
	Booking  BookingResponse  `json:"booking"`
	Previous *BookingResponse `json:"previous,omitempty"`
	Fee      decimal.Decimal  `json:"fee"`
	Deposit  decimal.Decimal  `json:"deposit"`
}

type StatusChangeResponse struct {
	From      string    `json:"from,omitempty"`
	To        string    `json:"to"`
	ActorID   string    `json:"actor_id"`
	ActorRole string    `json:"actor_role"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}

type BookingDetailResponse struct {
	Booking   BookingResponse        `json:"booking"`
	History   []StatusChangeResponse `json:"history"`
	AuditLogs []AuditLogResponse     `json:"audit_logs"`
}
