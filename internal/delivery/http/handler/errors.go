package handler

import (
	"errors"
	"net/http"

	"go-booking-engine/internal/domain/entity"
	"go-booking-engine/internal/usecase"
	"go-booking-engine/pkg/response"
)

// writeError maps a usecase error onto the response envelope. fallback is the
// message of unexpected failures.
func writeError(w http.ResponseWriter, err error, fallback string) {
	var validationErr *entity.ValidationError
	var violation *entity.PolicyViolation

	switch {
	case errors.Is(err, usecase.ErrActorMissing):
		response.Unauthorized(w, "Actor information not found")
	case errors.As(err, &validationErr):
		response.ValidationError(w, map[string]string{validationErr.Field: validationErr.Reason})
	case errors.As(err, &violation):
		response.Unprocessable(w, "Booking policy violation", response.RuleViolation{
			Rule:   string(violation.Rule),
			Detail: violation.Message,
		})
	case errors.Is(err, entity.ErrConflict):
		response.Conflict(w, "Time slot is no longer available")
	case errors.Is(err, entity.ErrInvalidStateTransition):
		response.Error(w, http.StatusConflict, "Booking cannot make this transition", err.Error())
	case errors.Is(err, entity.ErrClaimExpired), errors.Is(err, entity.ErrClaimMismatch):
		response.Conflict(w, "Reservation claim is no longer valid, please retry")
	case errors.Is(err, entity.ErrBookingNotFound):
		response.NotFound(w, "Booking not found")
	case errors.Is(err, entity.ErrServiceNotFound):
		response.NotFound(w, "Service not found")
	case errors.Is(err, entity.ErrProviderNotFound):
		response.NotFound(w, "Provider not found")
	case errors.Is(err, usecase.ErrAuditLogNotFound):
		response.NotFound(w, "Audit log not found")
	default:
		response.InternalServerError(w, fallback)
	}
}
