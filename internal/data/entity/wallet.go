package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PayoutSchedule string

const (
	PayoutScheduleWeekly  PayoutSchedule = "weekly"
	PayoutScheduleMonthly PayoutSchedule = "monthly"
	PayoutScheduleManual  PayoutSchedule = "manual"
)

// Wallet holds an instructor's earnings. Balance is a cache of the fold over
// completed transactions and is only written by the ledger on settlement.
type Wallet struct {
	Record
	InstructorID      uuid.UUID       `db:"instructor_id"`
	Balance           decimal.Decimal `db:"balance"`
	TotalEarnings     decimal.Decimal `db:"total_earnings"`
	TotalLessons      int             `db:"total_lessons"`
	Currency          string          `db:"currency"`
	BankAccountHolder *string         `db:"bank_account_holder"`
	BankIBAN          *string         `db:"bank_iban"`
	PayoutSchedule    PayoutSchedule  `db:"payout_schedule"`
}

func NewWallet(instructorID uuid.UUID, currency string, now time.Time) *Wallet {
	return &Wallet{
		Record:         newRecord(now),
		InstructorID:   instructorID,
		Balance:        decimal.Zero,
		TotalEarnings:  decimal.Zero,
		Currency:       currency,
		PayoutSchedule: PayoutScheduleWeekly,
	}
}

// Apply adds the effect of a just-completed transaction to the cached
// balance and counters.
func (w *Wallet) Apply(txn *Transaction, now time.Time) {
	w.Balance = w.Balance.Add(txn.BalanceDelta())

	switch txn.Type {
	case TransactionTypeLessonPayment:
		w.TotalEarnings = w.TotalEarnings.Add(txn.BalanceDelta())
		w.TotalLessons++
	case TransactionTypeRefund:
		w.TotalEarnings = w.TotalEarnings.Sub(txn.Amount)
		if txn.BookingID != nil && w.TotalLessons > 0 {
			w.TotalLessons--
		}
	}
	w.touch(now)
}
