// Package gateway talks to the card processor that holds, captures,
// releases and refunds lesson payments.
package gateway

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrDeclined is returned when the processor refuses a charge.
var ErrDeclined = errors.New("payment declined by gateway")

type AuthorizeRequest struct {
	BookingID uuid.UUID
	Amount    decimal.Decimal
	Currency  string
	// Source is the client-side card token or payment source id.
	Source string
}

// PaymentGateway is the remote processor. Calls may fail transiently; the
// booking service does not retry on its own.
type PaymentGateway interface {
	// Authorize places a hold and returns the processor reference.
	Authorize(ctx context.Context, req AuthorizeRequest) (string, error)
	// Capture settles a previously authorized hold.
	Capture(ctx context.Context, reference string) error
	// Release voids an authorized hold that was never captured.
	Release(ctx context.Context, reference string) error
	// Refund returns amount of a captured charge. Calls that repeat key
	// return the first refund instead of paying out again.
	Refund(ctx context.Context, reference string, amount decimal.Decimal, key string) (string, error)
}

// MinorUnits converts an amount to the integer subunits processors expect.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
