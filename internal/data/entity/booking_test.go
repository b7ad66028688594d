package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0        = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	lessonAt  = t0.Add(48 * time.Hour)
	afterTime = lessonAt.Add(10 * time.Minute)
)

func newPending() *Booking {
	return NewBooking(uuid.New(), uuid.New(), uuid.New(), lessonAt, decimal.NewFromInt(50), nil, t0)
}

func newConfirmed(t *testing.T) *Booking {
	t.Helper()
	b := newPending()
	require.NoError(t, b.Authorize("chrg_1", t0))
	return b
}

func TestNewBooking(t *testing.T) {
	b := newPending()

	assert.Equal(t, BookingStatusPending, b.Status)
	assert.Equal(t, PaymentStatusPending, b.PaymentStatus)
	assert.Equal(t, t0, b.CreatedAt)
	assert.True(t, b.IsConsistent())
}

func TestBooking_HappyPath(t *testing.T) {
	b := newPending()

	require.NoError(t, b.Authorize("chrg_1", t0.Add(time.Minute)))
	assert.Equal(t, BookingStatusConfirmed, b.Status)
	assert.Equal(t, PaymentStatusAuthorized, b.PaymentStatus)
	assert.Equal(t, "chrg_1", *b.PaymentRef)
	assert.Equal(t, t0.Add(time.Minute), b.UpdatedAt)

	require.NoError(t, b.MarkValidated(afterTime))
	require.NoError(t, b.Capture("txn_1", afterTime))
	require.NoError(t, b.Complete(afterTime))

	assert.Equal(t, BookingStatusCompleted, b.Status)
	assert.Equal(t, PaymentStatusCaptured, b.PaymentStatus)
	assert.True(t, b.IsConsistent())
}

func TestBooking_AuthorizeTwice(t *testing.T) {
	b := newConfirmed(t)

	err := b.Authorize("chrg_2", t0)
	var transitionErr *InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, "confirmed", transitionErr.From)
	assert.Equal(t, "confirmed", transitionErr.To)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBooking_RetryAfterFailedPayment(t *testing.T) {
	b := newPending()
	require.NoError(t, b.FailPayment(t0))
	assert.Equal(t, PaymentStatusFailed, b.PaymentStatus)
	assert.True(t, b.IsConsistent())

	require.NoError(t, b.Authorize("chrg_retry", t0))
	assert.Equal(t, PaymentStatusAuthorized, b.PaymentStatus)
}

func TestBooking_CaptureRequiresAuthorization(t *testing.T) {
	b := newPending()
	assert.ErrorIs(t, b.Capture("txn", t0), ErrNotAuthorized)

	c := newConfirmed(t)
	require.NoError(t, c.Capture("txn", t0))
	assert.ErrorIs(t, c.Capture("txn", t0), ErrNotAuthorized)
}

func TestBooking_CompleteRequiresValidationAndCapture(t *testing.T) {
	b := newConfirmed(t)
	assert.ErrorIs(t, b.Complete(afterTime), ErrInvalidTransition)

	require.NoError(t, b.MarkValidated(afterTime))
	assert.ErrorIs(t, b.Complete(afterTime), ErrInvalidTransition, "payment still only authorized")

	require.NoError(t, b.Capture("txn", afterTime))
	assert.NoError(t, b.Complete(afterTime))
}

func TestBooking_CompleteBeforeScheduledTime(t *testing.T) {
	b := newConfirmed(t)
	require.NoError(t, b.MarkValidated(t0))
	require.NoError(t, b.Capture("txn", t0))

	assert.ErrorIs(t, b.Complete(t0), ErrInvalidTransition)
}

func TestBooking_MarkValidatedTwice(t *testing.T) {
	b := newConfirmed(t)
	require.NoError(t, b.MarkValidated(afterTime))
	assert.ErrorIs(t, b.MarkValidated(afterTime), ErrAlreadyValidated)
}

func TestBooking_CancelReleasesHold(t *testing.T) {
	pending := newPending()
	require.NoError(t, pending.Cancel("changed plans", t0))
	assert.Equal(t, BookingStatusCancelled, pending.Status)
	assert.Equal(t, PaymentStatusFailed, pending.PaymentStatus)
	assert.Equal(t, "changed plans", *pending.CancelReason)

	confirmed := newConfirmed(t)
	require.NoError(t, confirmed.Cancel("sick", t0))
	assert.Equal(t, BookingStatusCancelled, confirmed.Status)
	assert.Equal(t, PaymentStatusRefunded, confirmed.PaymentStatus)
	assert.True(t, confirmed.IsConsistent())
}

func TestBooking_CancelCapturedIsRejected(t *testing.T) {
	b := newConfirmed(t)
	require.NoError(t, b.Capture("txn", t0))

	assert.ErrorIs(t, b.Cancel("late", t0), ErrInvalidTransition)
}

func TestBooking_Refund(t *testing.T) {
	b := newConfirmed(t)
	assert.ErrorIs(t, b.Refund("ref", "why", t0), ErrInvalidTransition)

	require.NoError(t, b.Capture("txn", t0))
	require.NoError(t, b.Refund("ref", "instructor cancelled", t0))

	assert.Equal(t, BookingStatusRefunded, b.Status)
	assert.Equal(t, PaymentStatusRefunded, b.PaymentStatus)
	assert.Equal(t, "ref", *b.RefundRef)
	assert.True(t, b.IsConsistent())
}

func TestBooking_TerminalStatesRejectEverything(t *testing.T) {
	b := newPending()
	require.NoError(t, b.Cancel("x", t0))

	assert.ErrorIs(t, b.Authorize("chrg", t0), ErrInvalidTransition)
	assert.ErrorIs(t, b.Cancel("again", t0), ErrInvalidTransition)
	assert.ErrorIs(t, b.MarkNoShow(afterTime), ErrInvalidTransition)
	assert.ErrorIs(t, b.Refund("r", "x", t0), ErrInvalidTransition)
}

func TestBooking_MarkNoShow(t *testing.T) {
	b := newConfirmed(t)
	assert.ErrorIs(t, b.MarkNoShow(t0), ErrInvalidTransition, "lesson not started yet")

	require.NoError(t, b.MarkNoShow(afterTime))
	assert.Equal(t, BookingStatusNoShow, b.Status)
	assert.Equal(t, afterTime, b.UpdatedAt)

	validated := newConfirmed(t)
	require.NoError(t, validated.MarkValidated(afterTime))
	assert.ErrorIs(t, validated.MarkNoShow(afterTime), ErrInvalidTransition)

	assert.ErrorIs(t, newPending().MarkNoShow(afterTime), ErrInvalidTransition)
}

func TestBookingStatus_IsTerminal(t *testing.T) {
	assert.False(t, BookingStatusPending.IsTerminal())
	assert.False(t, BookingStatusConfirmed.IsTerminal())
	assert.True(t, BookingStatusCompleted.IsTerminal())
	assert.True(t, BookingStatusCancelled.IsTerminal())
	assert.True(t, BookingStatusNoShow.IsTerminal())
	assert.True(t, BookingStatusRefunded.IsTerminal())
}
