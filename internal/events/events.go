// Package events announces booking lifecycle changes to other services.
package events

import (
	"context"
	"time"

	"moveup-booking/internal/data/entity"
	"moveup-booking/pkg/mq"

	"go.uber.org/zap"
)

const (
	BookingCreated   = "booking.created"
	BookingConfirmed = "booking.confirmed"
	PaymentCaptured  = "payment.captured"
	BookingCompleted = "booking.completed"
	BookingCancelled = "booking.cancelled"
	BookingRefunded  = "booking.refunded"
	BookingNoShow    = "booking.no_show"
)

// BookingEvent is the message body for every booking routing key.
type BookingEvent struct {
	Event         string               `json:"event"`
	Version       int                  `json:"version"`
	BookingID     string               `json:"booking_id"`
	InstructorID  string               `json:"instructor_id"`
	UserID        string               `json:"user_id"`
	Status        entity.BookingStatus `json:"status"`
	PaymentStatus entity.PaymentStatus `json:"payment_status"`
	Amount        string               `json:"amount"`
	ScheduledAt   int64                `json:"scheduled_at"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

func NewBookingEvent(key string, b *entity.Booking) BookingEvent {
	return BookingEvent{
		Event:         key,
		Version:       1,
		BookingID:     b.ID.String(),
		InstructorID:  b.InstructorID.String(),
		UserID:        b.UserID.String(),
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		Amount:        b.TotalAmount.String(),
		ScheduledAt:   b.ScheduledAt.Unix(),
		OccurredAt:    b.UpdatedAt,
	}
}

// Publisher delivers booking events. Delivery failures never roll back the
// booking change that produced them.
type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
}

// jsonPublisher is satisfied by *mq.Publisher.
type jsonPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type mqPublisher struct {
	pub jsonPublisher
}

// NewMQPublisher routes each event under its own name on the exchange.
func NewMQPublisher(pub *mq.Publisher) Publisher {
	return &mqPublisher{pub: pub}
}

func (p *mqPublisher) Publish(ctx context.Context, event BookingEvent) error {
	return p.pub.PublishJSON(ctx, event.Event, event)
}

type logPublisher struct {
	log *zap.Logger
}

// NewLogPublisher only logs events; used when RabbitMQ is disabled.
func NewLogPublisher(log *zap.Logger) Publisher {
	return &logPublisher{log: log.With(zap.String("component", "events"))}
}

func (p *logPublisher) Publish(_ context.Context, event BookingEvent) error {
	p.log.Debug("Booking event",
		zap.String("event", event.Event),
		zap.String("booking_id", event.BookingID),
		zap.String("status", string(event.Status)),
		zap.String("payment_status", string(event.PaymentStatus)),
	)
	return nil
}
