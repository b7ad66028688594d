package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusNoShow    BookingStatus = "no_show"
	BookingStatusRefunded  BookingStatus = "refunded"
)

// IsTerminal reports whether no further transition is allowed.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingStatusCompleted, BookingStatusCancelled, BookingStatusNoShow, BookingStatusRefunded:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusAuthorized PaymentStatus = "authorized"
	PaymentStatusCaptured   PaymentStatus = "captured"
	PaymentStatusRefunded   PaymentStatus = "refunded"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// Booking is one reserved lesson. Fields are only changed through the
// transition methods below; each successful transition bumps UpdatedAt.
type Booking struct {
	Record
	LessonID      uuid.UUID       `db:"lesson_id"`
	InstructorID  uuid.UUID       `db:"instructor_id"`
	UserID        uuid.UUID       `db:"user_id"`
	ScheduledAt   time.Time       `db:"scheduled_at"`
	Status        BookingStatus   `db:"status"`
	PaymentStatus PaymentStatus   `db:"payment_status"`
	TotalAmount   decimal.Decimal `db:"total_amount"`
	Notes         *string         `db:"notes"`
	ValidatedAt   *time.Time      `db:"validated_at"`
	PaymentRef    *string         `db:"payment_ref"`
	RefundRef     *string         `db:"refund_ref"`
	TransferRef   *string         `db:"transfer_ref"`
	CancelReason  *string         `db:"cancel_reason"`
}

// NewBooking returns a booking in pending/pending.
func NewBooking(lessonID, instructorID, userID uuid.UUID, scheduledAt time.Time, amount decimal.Decimal, notes *string, now time.Time) *Booking {
	return &Booking{
		Record:        newRecord(now),
		LessonID:      lessonID,
		InstructorID:  instructorID,
		UserID:        userID,
		ScheduledAt:   scheduledAt,
		Status:        BookingStatusPending,
		PaymentStatus: PaymentStatusPending,
		TotalAmount:   amount,
		Notes:         notes,
	}
}

// IsValidated reports whether the lesson QR code has been scanned.
func (b *Booking) IsValidated() bool {
	return b.ValidatedAt != nil
}

// Authorize moves pending → confirmed once the payment hold succeeded.
// A booking whose previous authorization failed may retry.
func (b *Booking) Authorize(paymentRef string, now time.Time) error {
	if b.Status != BookingStatusPending {
		return invalidTransition(b.Status, BookingStatusConfirmed)
	}
	if b.PaymentStatus != PaymentStatusPending && b.PaymentStatus != PaymentStatusFailed {
		return invalidTransition(b.PaymentStatus, PaymentStatusAuthorized)
	}

	b.Status = BookingStatusConfirmed
	b.PaymentStatus = PaymentStatusAuthorized
	b.PaymentRef = &paymentRef
	b.touch(now)
	return nil
}

// FailPayment records a declined authorization. The booking stays pending.
func (b *Booking) FailPayment(now time.Time) error {
	if b.Status != BookingStatusPending {
		return invalidTransition(b.PaymentStatus, PaymentStatusFailed)
	}
	b.PaymentStatus = PaymentStatusFailed
	b.touch(now)
	return nil
}

// Capture marks held funds as settled. transferRef points to the ledger
// transaction that credited the instructor.
func (b *Booking) Capture(transferRef string, now time.Time) error {
	if b.Status != BookingStatusConfirmed || b.PaymentStatus != PaymentStatusAuthorized {
		return ErrNotAuthorized
	}
	b.PaymentStatus = PaymentStatusCaptured
	b.TransferRef = &transferRef
	b.touch(now)
	return nil
}

// MarkValidated stamps the QR scan time.
func (b *Booking) MarkValidated(now time.Time) error {
	if b.IsValidated() {
		return ErrAlreadyValidated
	}
	if b.Status != BookingStatusConfirmed {
		return ErrNotEligible
	}
	validatedAt := now
	b.ValidatedAt = &validatedAt
	b.touch(now)
	return nil
}

// Complete moves confirmed → completed. It needs a QR validation and a
// captured payment.
func (b *Booking) Complete(now time.Time) error {
	if b.Status != BookingStatusConfirmed || !b.IsValidated() || b.PaymentStatus != PaymentStatusCaptured {
		return invalidTransition(b.Status, BookingStatusCompleted)
	}
	if b.ValidatedAt.Before(b.ScheduledAt) {
		return invalidTransition(b.Status, BookingStatusCompleted)
	}
	b.Status = BookingStatusCompleted
	b.touch(now)
	return nil
}

// Cancel closes a booking whose payment was never captured. Any hold is
// released: authorized becomes refunded, pending becomes failed.
func (b *Booking) Cancel(reason string, now time.Time) error {
	if b.Status.IsTerminal() || b.PaymentStatus == PaymentStatusCaptured {
		return invalidTransition(b.Status, BookingStatusCancelled)
	}

	switch b.PaymentStatus {
	case PaymentStatusAuthorized:
		b.PaymentStatus = PaymentStatusRefunded
	case PaymentStatusPending:
		b.PaymentStatus = PaymentStatusFailed
	}
	b.Status = BookingStatusCancelled
	b.CancelReason = &reason
	b.touch(now)
	return nil
}

// Refund closes a booking whose payment was captured. The ledger reversal
// must already be recorded; refundRef points at it.
func (b *Booking) Refund(refundRef, reason string, now time.Time) error {
	if b.Status.IsTerminal() || b.PaymentStatus != PaymentStatusCaptured {
		return invalidTransition(b.Status, BookingStatusRefunded)
	}
	b.Status = BookingStatusRefunded
	b.PaymentStatus = PaymentStatusRefunded
	b.RefundRef = &refundRef
	b.CancelReason = &reason
	b.touch(now)
	return nil
}

// MarkNoShow closes a confirmed booking whose lesson time passed without a
// QR validation.
func (b *Booking) MarkNoShow(now time.Time) error {
	if b.Status != BookingStatusConfirmed || b.IsValidated() || now.Before(b.ScheduledAt) {
		return invalidTransition(b.Status, BookingStatusNoShow)
	}
	b.Status = BookingStatusNoShow
	b.touch(now)
	return nil
}

// IsConsistent checks the joint status/payment status invariant.
func (b *Booking) IsConsistent() bool {
	switch b.Status {
	case BookingStatusPending:
		return b.PaymentStatus == PaymentStatusPending || b.PaymentStatus == PaymentStatusFailed
	case BookingStatusConfirmed:
		return b.PaymentStatus == PaymentStatusAuthorized || b.PaymentStatus == PaymentStatusCaptured
	case BookingStatusCompleted:
		return b.PaymentStatus == PaymentStatusCaptured && b.IsValidated()
	case BookingStatusRefunded:
		return b.PaymentStatus == PaymentStatusRefunded && b.TransferRef != nil
	case BookingStatusCancelled:
		return b.PaymentStatus != PaymentStatusCaptured
	case BookingStatusNoShow:
		return !b.IsValidated()
	}
	return false
}
