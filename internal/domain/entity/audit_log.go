package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditLog is one entry of the booking audit trail
type AuditLog struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorID    string     `gorm:"type:varchar(100);index" json:"actor_id,omitempty"`
	ActorRole  string     `gorm:"type:varchar(20)" json:"actor_role,omitempty"`
	ProviderID *uuid.UUID `gorm:"type:uuid;index" json:"provider_id,omitempty"`
	BookingID  *uuid.UUID `gorm:"type:uuid;index" json:"booking_id,omitempty"`
	Action     string     `gorm:"type:varchar(100);not null;index" json:"action"`
	Metadata   JSON       `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// JSON type for GORM JSONB support
type JSON map[string]interface{}

// Value returns json value, implement driver.Valuer interface
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan scan value into Jsonb, implements sql.Scanner interface
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}

	result := map[string]interface{}{}
	err := json.Unmarshal(bytes, &result)
	*j = JSON(result)
	return err
}

// Audit actions, one per lifecycle edge
const (
	AuditActionBookingRequest    = "booking.request"
	AuditActionBookingConfirm    = "booking.confirm"
	AuditActionBookingCancel     = "booking.cancel"
	AuditActionBookingComplete   = "booking.complete"
	AuditActionBookingNoShow     = "booking.no_show"
	AuditActionBookingReschedule = "booking.reschedule"
)

// AuditActionFor maps the target status of a change onto its audit action.
func AuditActionFor(change StatusChange) string {
	switch change.To {
	case BookingStatusConfirmed:
		return AuditActionBookingConfirm
	case BookingStatusCancelled:
		return AuditActionBookingCancel
	case BookingStatusCompleted:
		return AuditActionBookingComplete
	case BookingStatusNoShow:
		return AuditActionBookingNoShow
	case BookingStatusRescheduled:
		return AuditActionBookingReschedule
	default:
		return AuditActionBookingRequest
	}
}
