package entity

import (
	"errors"
	"fmt"
)

// Booking, ledger and token errors. Callers match them with errors.Is.
var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidSchedule      = errors.New("invalid schedule")
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrNotAuthorized        = errors.New("payment not authorized")
	ErrMalformedToken       = errors.New("malformed token")
	ErrBookingMismatch      = errors.New("booking mismatch")
	ErrAlreadyValidated     = errors.New("booking already validated")
	ErrNotEligible          = errors.New("booking not eligible for validation")
	ErrInvalidInitialStatus = errors.New("invalid initial transaction status")

	ErrNotFound          = errors.New("not found")
	ErrPaymentDeclined   = errors.New("payment declined")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrLedgerCorrupted   = errors.New("ledger balance does not match transaction history")
	ErrForbidden         = errors.New("forbidden")
)

// InvalidTransitionError carries the rejected edge of a state machine.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

func invalidTransition[S ~string](from, to S) error {
	return &InvalidTransitionError{From: string(from), To: string(to)}
}
