package adaptor

import (
	"net/http"
	"time"

	"moveup-booking/internal/data/entity"
	"moveup-booking/internal/dto/request"
	"moveup-booking/internal/dto/response"
	"moveup-booking/internal/usecase"
	"moveup-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// bookingAccess decides whether a caller may act on a booking.
type bookingAccess func(b *entity.Booking, userID uuid.UUID, role entity.UserRole) bool

func studentOwner(b *entity.Booking, userID uuid.UUID, role entity.UserRole) bool {
	return role == entity.RoleAdmin || b.UserID == userID
}

func assignedInstructor(b *entity.Booking, userID uuid.UUID, role entity.UserRole) bool {
	return role == entity.RoleAdmin || b.InstructorID == userID
}

func participant(b *entity.Booking, userID uuid.UUID, role entity.UserRole) bool {
	return studentOwner(b, userID, role) || b.InstructorID == userID
}

// loadBooking resolves {id} and checks the caller against allow. It writes
// the error response itself.
func (h *BookingHandler) loadBooking(w http.ResponseWriter, r *http.Request, allow bookingAccess) (*entity.Booking, bool) {
	userID, role, ok := currentUser(w, r)
	if !ok {
		return nil, false
	}
	bookingID, ok := parseUUIDParam(w, chi.URLParam(r, "id"), "id")
	if !ok {
		return nil, false
	}

	booking, err := h.service.GetBooking(r.Context(), bookingID)
	if err != nil {
		handleServiceError(h.log, w, err, "get booking")
		return nil, false
	}
	if !allow(booking, userID, role) {
		// hide bookings of other users
		utils.ResponseNotFound(w, "Resource not found")
		return nil, false
	}
	return booking, true
}

// CreateBooking handles POST /api/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.CreateBookingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		utils.ResponseBadRequest(w, "Validation failed", map[string]string{"scheduled_at": "Must be an RFC 3339 timestamp"})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		utils.ResponseBadRequest(w, "Validation failed", map[string]string{"amount": "Must be a number"})
		return
	}

	booking, err := h.service.CreateBooking(r.Context(),
		uuid.MustParse(req.LessonID),
		uuid.MustParse(req.InstructorID),
		userID,
		scheduledAt,
		amount,
		req.Notes,
	)
	if err != nil {
		handleServiceError(h.log, w, err, "create booking")
		return
	}

	utils.ResponseCreated(w, "Booking created", response.BookingToResponse(booking))
}

// GetBooking handles GET /api/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, ok := h.loadBooking(w, r, participant)
	if !ok {
		return
	}

	utils.ResponseSuccess(w, "success", response.BookingToResponse(booking))
}

// GetUserBookings handles GET /api/user/bookings
func (h *BookingHandler) GetUserBookings(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(w, r)
	if !ok {
		return
	}

	page := request.PaginationFromQuery(r)
	bookings, total, err := h.service.ListUserBookings(r.Context(), userID, page.Limit(), page.Offset())
	if err != nil {
		handleServiceError(h.log, w, err, "list user bookings")
		return
	}

	utils.ResponseSuccess(w, "success",
		response.NewPaginatedResponse(response.BookingsToResponse(bookings), page.Window().Number, page.Limit(), total))
}

// GetInstructorBookings handles GET /api/instructor/bookings
func (h *BookingHandler) GetInstructorBookings(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(w, r)
	if !ok {
		return
	}

	page := request.PaginationFromQuery(r)
	bookings, total, err := h.service.ListInstructorBookings(r.Context(), userID, page.Limit(), page.Offset())
	if err != nil {
		handleServiceError(h.log, w, err, "list instructor bookings")
		return
	}

	utils.ResponseSuccess(w, "success",
		response.NewPaginatedResponse(response.BookingsToResponse(bookings), page.Window().Number, page.Limit(), total))
}

// AuthorizePayment handles POST /api/bookings/{id}/authorize
func (h *BookingHandler) AuthorizePayment(w http.ResponseWriter, r *http.Request) {
	booking, ok := h.loadBooking(w, r, studentOwner)
	if !ok {
		return
	}

	var req request.AuthorizePaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.service.AuthorizePayment(r.Context(), booking.ID, req.PaymentSource)
	if err != nil {
		handleServiceError(h.log, w, err, "authorize payment")
		return
	}

	utils.ResponseSuccess(w, "Payment authorized", response.BookingToResponse(updated))
}

// CapturePayment handles POST /api/bookings/{id}/capture
func (h *BookingHandler) CapturePayment(w http.ResponseWriter, r *http.Request) {
	booking, ok := h.loadBooking(w, r, assignedInstructor)
	if !ok {
		return
	}

	updated, err := h.service.CapturePayment(r.Context(), booking.ID)
	if err != nil {
		handleServiceError(h.log, w, err, "capture payment")
		return
	}

	utils.ResponseSuccess(w, "Payment captured", response.BookingToResponse(updated))
}

// CancelBooking handles POST /api/bookings/{id}/cancel
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	booking, ok := h.loadBooking(w, r, participant)
	if !ok {
		return
	}

	var req request.CancelBookingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.service.Cancel(r.Context(), booking.ID, req.Reason)
	if err != nil {
		handleServiceError(h.log, w, err, "cancel booking")
		return
	}

	utils.ResponseSuccess(w, "Booking "+response.StatusLabel[updated.Status], response.BookingToResponse(updated))
}

// GetQRToken handles GET /api/bookings/{id}/qr
func (h *BookingHandler) GetQRToken(w http.ResponseWriter, r *http.Request) {
	booking, ok := h.loadBooking(w, r, studentOwner)
	if !ok {
		return
	}

	token, err := h.service.IssueToken(r.Context(), booking.ID)
	if err != nil {
		handleServiceError(h.log, w, err, "issue QR token")
		return
	}

	utils.ResponseSuccess(w, "success", response.QRTokenResponse{BookingID: booking.ID.String(), Token: token})
}

// ValidateBooking handles POST /api/bookings/validate (instructor scans the QR code)
func (h *BookingHandler) ValidateBooking(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.ValidateBookingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	bookingID := uuid.MustParse(req.BookingID)

	booking, err := h.service.GetBooking(r.Context(), bookingID)
	if err != nil {
		handleServiceError(h.log, w, err, "validate booking")
		return
	}
	if !assignedInstructor(booking, userID, role) {
		utils.ResponseForbidden(w, "Only the booked instructor can validate this lesson")
		return
	}

	completed, err := h.service.ValidateAndComplete(r.Context(), bookingID, req.Token)
	if err != nil {
		handleServiceError(h.log, w, err, "validate booking")
		return
	}

	utils.ResponseSuccess(w, "Lesson completed", response.BookingToResponse(completed))
}

// MarkNoShow handles POST /api/admin/bookings/{id}/no-show
func (h *BookingHandler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := parseUUIDParam(w, chi.URLParam(r, "id"), "id")
	if !ok {
		return
	}

	updated, err := h.service.MarkNoShow(r.Context(), bookingID)
	if err != nil {
		handleServiceError(h.log, w, err, "mark no-show")
		return
	}

	utils.ResponseSuccess(w, "Booking marked as no-show", response.BookingToResponse(updated))
}

// QuoteFee handles GET /api/fees/quote?amount=
func (h *BookingHandler) QuoteFee(w http.ResponseWriter, r *http.Request) {
	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil {
		utils.ResponseBadRequest(w, "Validation failed", map[string]string{"amount": "Must be a number"})
		return
	}

	quote, err := h.service.QuoteFee(amount)
	if err != nil {
		handleServiceError(h.log, w, err, "quote fee")
		return
	}

	utils.ResponseSuccess(w, "success", response.FeeQuoteToResponse(quote))
}
