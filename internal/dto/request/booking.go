package request

type CreateBookingRequest struct {
	LessonID     string  `json:"lesson_id" validate:"required,uuid"`
	InstructorID string  `json:"instructor_id" validate:"required,uuid"`
	ScheduledAt  string  `json:"scheduled_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Amount       string  `json:"amount" validate:"required,numeric"`
	Notes        *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type AuthorizePaymentRequest struct {
	// PaymentSource is the card token produced by the client SDK.
	PaymentSource string `json:"payment_source" validate:"required"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"required,max=255"`
}

type ValidateBookingRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
	Token     string `json:"token" validate:"required"`
}
