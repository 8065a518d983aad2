package handler

import (
	"encoding/json"
	"net/http"

	"go-booking-engine/internal/delivery/dto"
	"go-booking-engine/internal/usecase"
	"go-booking-engine/pkg/response"
	"go-booking-engine/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type BookingHandler struct {
	bookingUsecase usecase.BookingUsecase
	validator      *validator.CustomValidator
}

func NewBookingHandler(bookingUsecase usecase.BookingUsecase, validator *validator.CustomValidator) *BookingHandler {
	return &BookingHandler{
		bookingUsecase: bookingUsecase,
		validator:      validator,
	}
}

func (h *BookingHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	providerID, err := uuid.Parse(mux.Vars(r)["providerId"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid provider ID", nil)
		return
	}

	query := r.URL.Query()
	req := dto.AvailabilityRequest{
		ServiceID: query.Get("service_id"),
		StaffID:   query.Get("staff_id"),
		From:      query.Get("from"),
		To:        query.Get("to"),
	}
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	availability, err := h.bookingUsecase.GetAvailability(r.Context(), providerID, &req)
	if err != nil {
		writeError(w, err, "Failed to get availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability retrieved successfully", availability)
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := bookingIDFrom(w, r)
	if !ok {
		return
	}

	booking, err := h.bookingUsecase.GetBooking(r.Context(), bookingID)
	if err != nil {
		writeError(w, err, "Failed to get booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking retrieved successfully", booking)
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBookingRequest
	if !h.decode(w, r, &req) {
		return
	}

	booking, err := h.bookingUsecase.CreateBooking(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to create booking")
		return
	}

	response.Success(w, http.StatusCreated, "Booking created successfully", booking)
}

func (h *BookingHandler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := bookingIDFrom(w, r)
	if !ok {
		return
	}

	booking, err := h.bookingUsecase.ConfirmBooking(r.Context(), bookingID)
	if err != nil {
		writeError(w, err, "Failed to confirm booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking confirmed successfully", booking)
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := bookingIDFrom(w, r)
	if !ok {
		return
	}

	// The body is optional
	var req dto.CancelBookingRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}

	booking, err := h.bookingUsecase.CancelBooking(r.Context(), bookingID, &req)
	if err != nil {
		writeError(w, err, "Failed to cancel booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking cancelled successfully", booking)
}

func (h *BookingHandler) RescheduleBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := bookingIDFrom(w, r)
	if !ok {
		return
	}

	var req dto.RescheduleBookingRequest
	if !h.decode(w, r, &req) {
		return
	}

	booking, err := h.bookingUsecase.RescheduleBooking(r.Context(), bookingID, &req)
	if err != nil {
		writeError(w, err, "Failed to reschedule booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking rescheduled successfully", booking)
}

func (h *BookingHandler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := bookingIDFrom(w, r)
	if !ok {
		return
	}

	booking, err := h.bookingUsecase.CompleteBooking(r.Context(), bookingID)
	if err != nil {
		writeError(w, err, "Failed to complete booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking completed successfully", booking)
}

func (h *BookingHandler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := bookingIDFrom(w, r)
	if !ok {
		return
	}

	booking, err := h.bookingUsecase.MarkNoShow(r.Context(), bookingID)
	if err != nil {
		writeError(w, err, "Failed to mark booking as no-show")
		return
	}

	response.Success(w, http.StatusOK, "Booking marked as no-show", booking)
}

func (h *BookingHandler) RecordDepositPayment(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := bookingIDFrom(w, r)
	if !ok {
		return
	}

	booking, err := h.bookingUsecase.RecordDepositPayment(r.Context(), bookingID)
	if err != nil {
		writeError(w, err, "Failed to record deposit payment")
		return
	}

	response.Success(w, http.StatusOK, "Deposit payment recorded successfully", booking)
}

func (h *BookingHandler) decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}

	if err := h.validator.Validate(req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return false
	}
	return true
}

func bookingIDFrom(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid booking ID", nil)
		return uuid.Nil, false
	}
	return bookingID, true
}
