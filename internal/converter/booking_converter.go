package converter

import (
	"go-booking-engine/internal/delivery/dto"
	"go-booking-engine/internal/domain/entity"
	"go-booking-engine/internal/engine"
)

// BookingToResponse converts a Booking entity to BookingResponse DTO
func BookingToResponse(booking *entity.Booking) *dto.BookingResponse {
	if booking == nil {
		return nil
	}

	return &dto.BookingResponse{
		ID:              booking.ID(),
		ProviderID:      booking.ProviderID(),
		ServiceID:       booking.ServiceID(),
		StaffID:         booking.StaffID(),
		CustomerID:      booking.CustomerID(),
		StartAt:         booking.Slot().Start(),
		EndAt:           booking.Slot().End(),
		Status:          string(booking.Status()),
		PaymentStatus:   string(booking.PaymentStatus()),
		TotalPrice:      booking.TotalPrice(),
		DepositAmount:   booking.DepositAmount(),
		CancellationFee: booking.CancellationFee(),
		RescheduledFrom: booking.RescheduledFrom(),
		RescheduledTo:   booking.RescheduledTo(),
		RescheduleCount: booking.RescheduleCount(),
		CreatedAt:       booking.CreatedAt(),
		UpdatedAt:       booking.UpdatedAt(),
	}
}

// DecisionToResponse converts an engine Decision to BookingDecisionResponse DTO
func DecisionToResponse(d *engine.Decision) *dto.BookingDecisionResponse {
	if d == nil || d.Booking == nil {
		return nil
	}

	response := &dto.BookingDecisionResponse{
		Booking: *BookingToResponse(d.Booking),
		Fee:     d.Fee,
		Deposit: d.Deposit,
	}

	// A reschedule also returns the booking it replaced
	for _, b := range d.Bookings {
		if b.ID() != d.Booking.ID() {
			response.Previous = BookingToResponse(b)
			break
		}
	}

	return response
}

// StatusChangesToResponses converts booking history to StatusChangeResponse DTOs
func StatusChangesToResponses(changes []entity.StatusChange) []dto.StatusChangeResponse {
	responses := make([]dto.StatusChangeResponse, len(changes))
	for i, c := range changes {
		responses[i] = dto.StatusChangeResponse{
			From:      string(c.From),
			To:        string(c.To),
			ActorID:   c.Actor.ID,
			ActorRole: string(c.Actor.Role),
			Reason:    c.Reason,
			At:        c.At,
		}
	}
	return responses
}
