package http

import (
	"net/http"

	"go-booking-engine/internal/delivery/http/handler"
	"go-booking-engine/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router          *mux.Router
	bookingHandler  *handler.BookingHandler
	auditLogHandler *handler.AuditLogHandler
	actorMiddleware *middleware.ActorMiddleware
	corsMiddleware  *middleware.CORSMiddleware
	metricsPath     string
	metricsHandler  http.Handler
}

// NewRouter wires the API. metricsHandler may be nil to leave metrics off.
func NewRouter(
	bookingHandler *handler.BookingHandler,
	auditLogHandler *handler.AuditLogHandler,
	actorMiddleware *middleware.ActorMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	metricsPath string,
	metricsHandler http.Handler,
) *Router {
	return &Router{
		router:          mux.NewRouter(),
		bookingHandler:  bookingHandler,
		auditLogHandler: auditLogHandler,
		actorMiddleware: actorMiddleware,
		corsMiddleware:  corsMiddleware,
		metricsPath:     metricsPath,
		metricsHandler:  metricsHandler,
	}
}

func (r *Router) Setup() *mux.Router {
	// Metrics
	if r.metricsHandler != nil && r.metricsPath != "" {
		r.router.Handle(r.metricsPath, r.metricsHandler).Methods(http.MethodGet)
	}

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Availability (public)
	api.HandleFunc("/providers/{providerId}/availability", r.bookingHandler.GetAvailability).Methods(http.MethodGet)

	// Booking routes (any identified actor)
	bookings := api.PathPrefix("/bookings").Subrouter()
	bookings.Use(r.actorMiddleware.Identify)
	bookings.HandleFunc("", r.bookingHandler.CreateBooking).Methods(http.MethodPost)
	bookings.HandleFunc("/{id}", r.bookingHandler.GetBooking).Methods(http.MethodGet)
	bookings.HandleFunc("/{id}/cancel", r.bookingHandler.CancelBooking).Methods(http.MethodPost)
	bookings.HandleFunc("/{id}/reschedule", r.bookingHandler.RescheduleBooking).Methods(http.MethodPost)
	bookings.HandleFunc("/{id}/audit-logs", r.auditLogHandler.GetBookingAuditLogs).Methods(http.MethodGet)

	// Booking routes (provider only)
	bookings.Handle("/{id}/confirm", providerOnly(r.bookingHandler.ConfirmBooking)).Methods(http.MethodPost)
	bookings.Handle("/{id}/complete", providerOnly(r.bookingHandler.CompleteBooking)).Methods(http.MethodPost)
	bookings.Handle("/{id}/no-show", providerOnly(r.bookingHandler.MarkNoShow)).Methods(http.MethodPost)
	bookings.Handle("/{id}/deposit", providerOnly(r.bookingHandler.RecordDepositPayment)).Methods(http.MethodPost)

	// Audit logs (provider only)
	audit := api.PathPrefix("/audit-logs").Subrouter()
	audit.Use(r.actorMiddleware.Identify)
	audit.Use(middleware.RequireProvider)
	audit.HandleFunc("/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func providerOnly(h http.HandlerFunc) http.Handler {
	return middleware.RequireProvider(h)
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
