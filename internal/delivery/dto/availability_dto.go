package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

// AvailabilityRequest is read from the query string.
type AvailabilityRequest struct {
	ServiceID string `json:"service_id" validate:"required,uuid"`
	StaffID   string `json:"staff_id" validate:"omitempty,uuid"`
	From      string `json:"from" validate:"required,datetime=2006-01-02"`
	To        string `json:"to" validate:"required,datetime=2006-01-02"`
}

// Response DTOs

type SlotResponse struct {
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

type BreakResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type HeatmapResponse struct {
	AvailableCount   int             `json:"available_count"`
	BookedCount      int             `json:"booked_count"`
	BlockedCount     int             `json:"blocked_count"`
	AvailablePercent decimal.Decimal `json:"available_percent"`
	BookedPercent    decimal.Decimal `json:"booked_percent"`
	BlockedPercent   decimal.Decimal `json:"blocked_percent"`
}

type DayAvailabilityResponse struct {
	Date    string          `json:"date"`
	Closed  bool            `json:"closed"`
	Source  string          `json:"source"`
	Reason  string          `json:"reason,omitempty"`
	Open    string          `json:"open,omitempty"`
	Close   string          `json:"close,omitempty"`
	Breaks  []BreakResponse `json:"breaks,omitempty"`
	Slots   []SlotResponse  `json:"slots"`
	Summary HeatmapResponse `json:"summary"`
}

type AvailabilityResponse struct {
	ProviderID      uuid.UUID                 `json:"provider_id"`
	ServiceID       uuid.UUID                 `json:"service_id"`
	StaffID         *uuid.UUID                `json:"staff_id,omitempty"`
	Timezone        string                    `json:"timezone"`
	DurationMinutes int                       `json:"duration_minutes"`
	Days            []DayAvailabilityResponse `json:"days"`
}
