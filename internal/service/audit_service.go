package service

import (
	"context"

	"go-booking-engine/internal/domain/entity"
	"go-booking-engine/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditService writes the audit trail of booking lifecycle changes.
type AuditService interface {
	// LogStatusChanges records one audit entry per change inside tx, so the
	// trail commits or rolls back with the changes themselves.
	LogStatusChanges(ctx context.Context, tx *gorm.DB, bookings []*entity.Booking, changes []entity.StatusChange) error
}

type auditService struct {
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		log:       log,
		auditRepo: auditRepo,
	}
}

func (s *auditService) LogStatusChanges(ctx context.Context, tx *gorm.DB, bookings []*entity.Booking, changes []entity.StatusChange) error {
	if len(changes) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*entity.Booking, len(bookings))
	for _, b := range bookings {
		byID[b.ID()] = b
	}

	logs := make([]entity.AuditLog, 0, len(changes))
	for _, change := range changes {
		bookingID := change.BookingID
		metadata := entity.JSON{
			"from":   string(change.From),
			"to":     string(change.To),
			"at":     change.At,
			"reason": change.Reason,
		}

		auditLog := entity.AuditLog{
			ActorID:   change.Actor.ID,
			ActorRole: string(change.Actor.Role),
			BookingID: &bookingID,
			Action:    entity.AuditActionFor(change),
			Metadata:  metadata,
		}
		if b, ok := byID[bookingID]; ok {
			providerID := b.ProviderID()
			auditLog.ProviderID = &providerID
			metadata["slot"] = b.Slot().String()
			if change.To == entity.BookingStatusCancelled {
				metadata["cancellation_fee"] = b.CancellationFee().StringFixed(entity.MoneyPlaces)
			}
		}
		logs = append(logs, auditLog)
	}

	if err := s.auditRepo.CreateBatch(tx, logs); err != nil {
		s.log.Warnf("Failed to create audit logs: %+v", err)
		return err
	}

	return nil
}
