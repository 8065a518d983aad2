package dto

import (
	"time"

	"github.com/google/uuid"

	"go-booking-engine/internal/domain/entity"
)

// Response DTOs

type AuditLogResponse struct {
	ID         int64       `json:"id"`
	ActorID    string      `json:"actor_id,omitempty"`
	ActorRole  string      `json:"actor_role,omitempty"`
	ProviderID *uuid.UUID  `json:"provider_id,omitempty"`
	BookingID  *uuid.UUID  `json:"booking_id,omitempty"`
	Action     string      `json:"action"`
	Metadata   entity.JSON `json:"metadata"`
	CreatedAt  time.Time   `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs  []AuditLogResponse `json:"logs"`
	Total int                `json:"total"`
}
