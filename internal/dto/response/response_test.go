package response

import (
	"testing"
	"time"

	"moveup-booking/internal/data/entity"
	"moveup-booking/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusLabelsCoverEveryStatus(t *testing.T) {
	for _, s := range []entity.BookingStatus{
		entity.BookingStatusPending, entity.BookingStatusConfirmed, entity.BookingStatusCompleted,
		entity.BookingStatusCancelled, entity.BookingStatusNoShow, entity.BookingStatusRefunded,
	} {
		assert.NotEmpty(t, StatusLabel[s], s)
	}
	for _, s := range []entity.PaymentStatus{
		entity.PaymentStatusPending, entity.PaymentStatusAuthorized, entity.PaymentStatusCaptured,
		entity.PaymentStatusRefunded, entity.PaymentStatusFailed,
	} {
		assert.NotEmpty(t, PaymentStatusLabel[s], s)
	}
}

func TestBookingToResponse(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	b := entity.NewBooking(uuid.New(), uuid.New(), uuid.New(), now.Add(time.Hour), decimal.NewFromInt(50), nil, now)

	resp := BookingToResponse(b)
	assert.Equal(t, "50.00", resp.TotalAmount)
	assert.Equal(t, "Awaiting payment", resp.StatusLabel)
	assert.Equal(t, "Not paid", resp.PaymentStatusLabel)
}

func TestFeeQuoteToResponse(t *testing.T) {
	breakdown, err := pricing.DefaultSchedule().Calculate(decimal.NewFromInt(50))
	require.NoError(t, err)

	resp := FeeQuoteToResponse(breakdown)
	assert.Equal(t, "50.00", resp.Gross)
	assert.Equal(t, "1.00", resp.Fee)
	assert.Equal(t, "49.00", resp.Net)
	require.NotNil(t, resp.FeePercentage)
	assert.Equal(t, "2.00", *resp.FeePercentage)
}

func TestNewPaginatedResponse(t *testing.T) {
	resp := NewPaginatedResponse[int](nil, 2, 10, 21)
	assert.NotNil(t, resp.Data)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
}
