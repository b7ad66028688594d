package events

import (
	"context"
	"testing"
	"time"

	"moveup-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockJSONPublisher struct {
	mock.Mock
}

func (m *mockJSONPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	args := m.Called(ctx, key, v)
	return args.Error(0)
}

func TestNewBookingEvent(t *testing.T) {
	now := time.Now()
	b := entity.NewBooking(uuid.New(), uuid.New(), uuid.New(), now.Add(time.Hour), decimal.RequireFromString("50.00"), nil, now)

	evt := NewBookingEvent(BookingCreated, b)

	assert.Equal(t, BookingCreated, evt.Event)
	assert.Equal(t, 1, evt.Version)
	assert.Equal(t, b.ID.String(), evt.BookingID)
	assert.Equal(t, "50", evt.Amount)
	assert.Equal(t, entity.BookingStatusPending, evt.Status)
	assert.Equal(t, b.ScheduledAt.Unix(), evt.ScheduledAt)
}

func TestMQPublisher_UsesEventAsRoutingKey(t *testing.T) {
	m := new(mockJSONPublisher)
	p := &mqPublisher{pub: m}

	evt := BookingEvent{Event: BookingConfirmed, BookingID: "b1"}
	m.On("PublishJSON", mock.Anything, BookingConfirmed, evt).Return(nil)

	require.NoError(t, p.Publish(context.Background(), evt))
	m.AssertExpectations(t)
}

func TestLogPublisher(t *testing.T) {
	p := NewLogPublisher(zap.NewNop())
	assert.NoError(t, p.Publish(context.Background(), BookingEvent{Event: BookingNoShow}))
}
