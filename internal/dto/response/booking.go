package response

import (
	"time"

	"moveup-booking/internal/data/entity"
	"moveup-booking/internal/pricing"

	"github.com/shopspring/decimal"
)

// StatusLabel is the display text for each booking status.
var StatusLabel = map[entity.BookingStatus]string{
	entity.BookingStatusPending:   "Awaiting payment",
	entity.BookingStatusConfirmed: "Confirmed",
	entity.BookingStatusCompleted: "Completed",
	entity.BookingStatusCancelled: "Cancelled",
	entity.BookingStatusNoShow:    "Missed",
	entity.BookingStatusRefunded:  "Refunded",
}

// PaymentStatusLabel is the display text for each payment status.
var PaymentStatusLabel = map[entity.PaymentStatus]string{
	entity.PaymentStatusPending:    "Not paid",
	entity.PaymentStatusAuthorized: "Held",
	entity.PaymentStatusCaptured:   "Paid",
	entity.PaymentStatusRefunded:   "Refunded",
	entity.PaymentStatusFailed:     "Failed",
}

type BookingResponse struct {
	ID                 string               `json:"id"`
	LessonID           string               `json:"lesson_id"`
	InstructorID       string               `json:"instructor_id"`
	UserID             string               `json:"user_id"`
	ScheduledAt        time.Time            `json:"scheduled_at"`
	Status             entity.BookingStatus `json:"status"`
	StatusLabel        string               `json:"status_label"`
	PaymentStatus      entity.PaymentStatus `json:"payment_status"`
	PaymentStatusLabel string               `json:"payment_status_label"`
	TotalAmount        string               `json:"total_amount"`
	Notes              *string              `json:"notes,omitempty"`
	ValidatedAt        *time.Time           `json:"validated_at,omitempty"`
	CancelReason       *string              `json:"cancel_reason,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

func BookingToResponse(b *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:                 b.ID.String(),
		LessonID:           b.LessonID.String(),
		InstructorID:       b.InstructorID.String(),
		UserID:             b.UserID.String(),
		ScheduledAt:        b.ScheduledAt,
		Status:             b.Status,
		StatusLabel:        StatusLabel[b.Status],
		PaymentStatus:      b.PaymentStatus,
		PaymentStatusLabel: PaymentStatusLabel[b.PaymentStatus],
		TotalAmount:        b.TotalAmount.StringFixed(2),
		Notes:              b.Notes,
		ValidatedAt:        b.ValidatedAt,
		CancelReason:       b.CancelReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

func BookingsToResponse(bookings []*entity.Booking) []BookingResponse {
	out := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		out[i] = BookingToResponse(b)
	}
	return out
}

type QRTokenResponse struct {
	BookingID string `json:"booking_id"`
	Token     string `json:"token"`
}

// FeeQuoteResponse shows a fee breakdown rounded to cents.
type FeeQuoteResponse struct {
	Gross         string  `json:"gross"`
	Fee           string  `json:"fee"`
	Net           string  `json:"net"`
	FeePercentage *string `json:"fee_percentage,omitempty"`
}

func FeeQuoteToResponse(b pricing.FeeBreakdown) FeeQuoteResponse {
	resp := FeeQuoteResponse{
		Gross: fixed2(b.Gross),
		Fee:   fixed2(b.Fee),
		Net:   fixed2(b.Net),
	}
	if b.FeePercentage != nil {
		pct := fixed2(*b.FeePercentage)
		resp.FeePercentage = &pct
	}
	return resp
}

func fixed2(d decimal.Decimal) string {
	return pricing.Round2(d).StringFixed(2)
}
