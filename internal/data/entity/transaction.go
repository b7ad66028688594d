package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeLessonPayment TransactionType = "lesson_payment"
	TransactionTypePayout        TransactionType = "payout"
	TransactionTypeRefund        TransactionType = "refund"
	TransactionTypeAdjustment    TransactionType = "adjustment"
	TransactionTypeBonus         TransactionType = "bonus"
)

// IsCredit reports whether settling this type increases the wallet balance.
func (t TransactionType) IsCredit() bool {
	switch t {
	case TransactionTypeLessonPayment, TransactionTypeBonus, TransactionTypeAdjustment:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusProcessing TransactionStatus = "processing"
	TransactionStatusCompleted  TransactionStatus = "completed"
	TransactionStatusFailed     TransactionStatus = "failed"
	TransactionStatusRefunded   TransactionStatus = "refunded"
	TransactionStatusCancelled  TransactionStatus = "cancelled"
)

// IsOpen reports whether the transaction can still be settled, failed or cancelled.
func (s TransactionStatus) IsOpen() bool {
	return s == TransactionStatusPending || s == TransactionStatusProcessing
}

// Transaction is one wallet ledger entry. Amount is positive for every type
// except adjustment, which carries its own sign.
type Transaction struct {
	Entry
	WalletID      uuid.UUID           `db:"wallet_id"`
	BookingID     *uuid.UUID          `db:"booking_id"`
	Type          TransactionType     `db:"type"`
	Amount        decimal.Decimal     `db:"amount"`
	GrossAmount   decimal.NullDecimal `db:"gross_amount"`
	PlatformFee   decimal.NullDecimal `db:"platform_fee"`
	NetAmount     decimal.NullDecimal `db:"net_amount"`
	Status        TransactionStatus   `db:"status"`
	Description   string              `db:"description"`
	FailureReason *string             `db:"failure_reason"`
	CompletedAt   *time.Time          `db:"completed_at"`
	FailedAt      *time.Time          `db:"failed_at"`
}

// BalanceDelta is the signed effect a completed transaction has on its wallet.
func (t *Transaction) BalanceDelta() decimal.Decimal {
	if t.Type == TransactionTypeLessonPayment && t.NetAmount.Valid {
		return t.NetAmount.Decimal
	}
	if t.Type.IsCredit() {
		return t.Amount
	}
	return t.Amount.Neg()
}

// MarkProcessing moves pending → processing.
func (t *Transaction) MarkProcessing() error {
	if t.Status != TransactionStatusPending {
		return invalidTransition(t.Status, TransactionStatusProcessing)
	}
	t.Status = TransactionStatusProcessing
	return nil
}

// Complete moves an open transaction to completed.
func (t *Transaction) Complete(now time.Time) error {
	if !t.Status.IsOpen() {
		return invalidTransition(t.Status, TransactionStatusCompleted)
	}
	completedAt := now
	t.Status = TransactionStatusCompleted
	t.CompletedAt = &completedAt
	return nil
}

// Fail moves an open transaction to failed.
func (t *Transaction) Fail(reason string, now time.Time) error {
	if !t.Status.IsOpen() {
		return invalidTransition(t.Status, TransactionStatusFailed)
	}
	failedAt := now
	t.Status = TransactionStatusFailed
	t.FailureReason = &reason
	t.FailedAt = &failedAt
	return nil
}

// Cancel moves an open transaction to cancelled.
func (t *Transaction) Cancel(now time.Time) error {
	if !t.Status.IsOpen() {
		return invalidTransition(t.Status, TransactionStatusCancelled)
	}
	failedAt := now
	t.Status = TransactionStatusCancelled
	t.FailedAt = &failedAt
	return nil
}
