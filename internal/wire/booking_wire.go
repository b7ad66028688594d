package wire

import (
	"net/http"

	"moveup-booking/internal/adaptor"
	"moveup-booking/internal/data/entity"
	"moveup-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	authenticate func(http.Handler) http.Handler,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/fees/quote?amount=50 - fee preview
	r.Get("/api/fees/quote", bookingHandler.QuoteFee)

	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(authenticate)

		// students book and pay; ownership is checked per booking in the handler
		r.With(middleware.RequireRole(log, entity.RoleStudent, entity.RoleAdmin)).
			Post("/api/bookings", bookingHandler.CreateBooking)
		r.Get("/api/user/bookings", bookingHandler.GetUserBookings)

		r.Get("/api/bookings/{id}", bookingHandler.GetBooking)
		r.Post("/api/bookings/{id}/authorize", bookingHandler.AuthorizePayment)
		r.Post("/api/bookings/{id}/cancel", bookingHandler.CancelBooking)
		r.Get("/api/bookings/{id}/qr", bookingHandler.GetQRToken)

		// instructor side
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(log, entity.RoleInstructor, entity.RoleAdmin))

			r.Post("/api/bookings/{id}/capture", bookingHandler.CapturePayment)
			r.Post("/api/bookings/validate", bookingHandler.ValidateBooking)
			r.Get("/api/instructor/bookings", bookingHandler.GetInstructorBookings)
		})
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/bookings", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.Admin(log))

		r.Post("/{id}/no-show", bookingHandler.MarkNoShow)
	})
}
