package repository

import (
	"go-booking-engine/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditLogRepository interface {
	Create(db *gorm.DB, log *entity.AuditLog) error
	CreateBatch(db *gorm.DB, logs []entity.AuditLog) error
	FindByBookingID(db *gorm.DB, bookingID uuid.UUID) ([]entity.AuditLog, error)
	FindByID(db *gorm.DB, id int64) (*entity.AuditLog, error)
}
