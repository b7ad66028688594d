package response

import (
	"time"

	"moveup-booking/internal/data/entity"

	"github.com/shopspring/decimal"
)

type WalletResponse struct {
	ID              string                `json:"id"`
	InstructorID    string                `json:"instructor_id"`
	Balance         string                `json:"balance"`
	Available       string                `json:"available"`
	PendingHolds    string                `json:"pending_holds"`
	PendingBookings int                   `json:"pending_bookings"`
	TotalEarnings   string                `json:"total_earnings"`
	TotalLessons    int                   `json:"total_lessons"`
	Currency        string                `json:"currency"`
	PayoutSchedule  entity.PayoutSchedule `json:"payout_schedule"`
}

// WalletToResponse merges the stored wallet with live balance figures.
// wallet may be nil for instructors who never earned anything.
func WalletToResponse(instructorID string, wallet *entity.Wallet, balance, pendingHolds, available decimal.Decimal, pendingBookings int, currency string) WalletResponse {
	resp := WalletResponse{
		InstructorID:    instructorID,
		Balance:         balance.StringFixed(2),
		Available:       available.StringFixed(2),
		PendingHolds:    pendingHolds.StringFixed(2),
		PendingBookings: pendingBookings,
		TotalEarnings:   decimal.Zero.StringFixed(2),
		Currency:        currency,
		PayoutSchedule:  entity.PayoutScheduleWeekly,
	}
	if wallet != nil {
		resp.ID = wallet.ID.String()
		resp.TotalEarnings = wallet.TotalEarnings.StringFixed(2)
		resp.TotalLessons = wallet.TotalLessons
		resp.PayoutSchedule = wallet.PayoutSchedule
	}
	return resp
}

type TransactionResponse struct {
	ID            string                   `json:"id"`
	BookingID     *string                  `json:"booking_id,omitempty"`
	Type          entity.TransactionType   `json:"type"`
	Amount        string                   `json:"amount"`
	GrossAmount   *string                  `json:"gross_amount,omitempty"`
	PlatformFee   *string                  `json:"platform_fee,omitempty"`
	NetAmount     *string                  `json:"net_amount,omitempty"`
	Status        entity.TransactionStatus `json:"status"`
	Description   string                   `json:"description"`
	FailureReason *string                  `json:"failure_reason,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	CompletedAt   *time.Time               `json:"completed_at,omitempty"`
}

func TransactionToResponse(t *entity.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:            t.ID.String(),
		Type:          t.Type,
		Amount:        t.Amount.StringFixed(2),
		GrossAmount:   nullFixed2(t.GrossAmount),
		PlatformFee:   nullFixed2(t.PlatformFee),
		NetAmount:     nullFixed2(t.NetAmount),
		Status:        t.Status,
		Description:   t.Description,
		FailureReason: t.FailureReason,
		CreatedAt:     t.CreatedAt,
		CompletedAt:   t.CompletedAt,
	}
	if t.BookingID != nil {
		id := t.BookingID.String()
		resp.BookingID = &id
	}
	return resp
}

func TransactionsToResponse(txns []*entity.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txns))
	for i, t := range txns {
		out[i] = TransactionToResponse(t)
	}
	return out
}

type IntegrityResponse struct {
	WalletID string `json:"wallet_id"`
	Cached   string `json:"cached_balance"`
	Folded   string `json:"folded_balance"`
	Healthy  bool   `json:"healthy"`
}

func nullFixed2(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.StringFixed(2)
	return &s
}
