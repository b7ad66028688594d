// Package pricing splits a lesson price into platform fee and instructor payout.
package pricing

import (
	"fmt"

	"moveup-booking/internal/data/entity"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FeeSchedule is a percentage rate plus a fixed amount per charge.
type FeeSchedule struct {
	Rate  decimal.Decimal
	Fixed decimal.Decimal
}

// DefaultSchedule is 1.5% + 0.25.
func DefaultSchedule() FeeSchedule {
	return FeeSchedule{
		Rate:  decimal.RequireFromString("0.015"),
		Fixed: decimal.RequireFromString("0.25"),
	}
}

// FeeBreakdown is derived from a gross amount and never stored.
type FeeBreakdown struct {
	Gross         decimal.Decimal  `json:"gross"`
	Fee           decimal.Decimal  `json:"fee"`
	Net           decimal.Decimal  `json:"net"`
	FeePercentage *decimal.Decimal `json:"fee_percentage,omitempty"`
}

// Calculate returns fee = gross*rate + fixed and net = max(0, gross-fee).
// FeePercentage is nil for a zero gross amount.
func (s FeeSchedule) Calculate(gross decimal.Decimal) (FeeBreakdown, error) {
	if gross.IsNegative() {
		return FeeBreakdown{}, fmt.Errorf("gross amount %s: %w", gross.String(), entity.ErrInvalidAmount)
	}

	fee := gross.Mul(s.Rate).Add(s.Fixed)
	net := gross.Sub(fee)
	if net.IsNegative() {
		net = decimal.Zero
	}

	breakdown := FeeBreakdown{
		Gross: gross,
		Fee:   fee,
		Net:   net,
	}
	if !gross.IsZero() {
		pct := fee.Div(gross).Mul(hundred)
		breakdown.FeePercentage = &pct
	}

	return breakdown, nil
}

// Round2 rounds to cents for display.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
