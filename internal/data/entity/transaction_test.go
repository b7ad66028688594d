package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lessonPayment() *Transaction {
	bookingID := uuid.New()
	return &Transaction{
		Entry:       NewEntry(t0),
		WalletID:    uuid.New(),
		BookingID:   &bookingID,
		Type:        TransactionTypeLessonPayment,
		Amount:      decimal.NewFromInt(50),
		GrossAmount: decimal.NewNullDecimal(decimal.NewFromInt(50)),
		PlatformFee: decimal.NewNullDecimal(decimal.NewFromInt(1)),
		NetAmount:   decimal.NewNullDecimal(decimal.NewFromInt(49)),
		Status:      TransactionStatusPending,
	}
}

func TestTransaction_BalanceDelta(t *testing.T) {
	assert.Equal(t, "49", lessonPayment().BalanceDelta().String())

	payout := &Transaction{Type: TransactionTypePayout, Amount: decimal.NewFromInt(20)}
	assert.Equal(t, "-20", payout.BalanceDelta().String())

	bonus := &Transaction{Type: TransactionTypeBonus, Amount: decimal.NewFromInt(5)}
	assert.Equal(t, "5", bonus.BalanceDelta().String())

	adjustment := &Transaction{Type: TransactionTypeAdjustment, Amount: decimal.NewFromInt(-3)}
	assert.Equal(t, "-3", adjustment.BalanceDelta().String())
}

func TestTransaction_Lifecycle(t *testing.T) {
	txn := lessonPayment()

	require.NoError(t, txn.MarkProcessing())
	require.NoError(t, txn.Complete(t0))
	assert.Equal(t, TransactionStatusCompleted, txn.Status)
	require.NotNil(t, txn.CompletedAt)

	assert.ErrorIs(t, txn.Complete(t0), ErrInvalidTransition)
	assert.ErrorIs(t, txn.Fail("late", t0), ErrInvalidTransition)
	assert.ErrorIs(t, txn.Cancel(t0), ErrInvalidTransition)
}

func TestTransaction_Fail(t *testing.T) {
	txn := lessonPayment()

	require.NoError(t, txn.Fail("gateway timeout", t0))
	assert.Equal(t, TransactionStatusFailed, txn.Status)
	assert.Equal(t, "gateway timeout", *txn.FailureReason)
	assert.ErrorIs(t, txn.MarkProcessing(), ErrInvalidTransition)
}

func TestWallet_Apply(t *testing.T) {
	w := NewWallet(uuid.New(), "EUR", t0)

	lesson := lessonPayment()
	w.Apply(lesson, t0)
	assert.Equal(t, "49", w.Balance.String())
	assert.Equal(t, "49", w.TotalEarnings.String())
	assert.Equal(t, 1, w.TotalLessons)

	refund := &Transaction{Type: TransactionTypeRefund, BookingID: lesson.BookingID, Amount: decimal.NewFromInt(49)}
	w.Apply(refund, t0)
	assert.True(t, w.Balance.IsZero())
	assert.True(t, w.TotalEarnings.IsZero())
	assert.Equal(t, 0, w.TotalLessons)
}
