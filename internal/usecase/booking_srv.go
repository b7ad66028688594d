package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"moveup-booking/internal/data/entity"
	"moveup-booking/internal/data/repository"
	"moveup-booking/internal/events"
	"moveup-booking/internal/gateway"
	"moveup-booking/internal/pricing"
	"moveup-booking/internal/qrcode"
	"moveup-booking/pkg/lock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BookingService drives a booking from reservation to settlement. Every
// mutation runs under the booking lock and publishes one event per state
// the booking reaches.
type BookingService interface {
	CreateBooking(ctx context.Context, lessonID, instructorID, userID uuid.UUID, scheduledAt time.Time, gross decimal.Decimal, notes *string) (*entity.Booking, error)
	// AuthorizePayment places a hold with the card source paymentRef.
	AuthorizePayment(ctx context.Context, bookingID uuid.UUID, paymentRef string) (*entity.Booking, error)
	CapturePayment(ctx context.Context, bookingID uuid.UUID) (*entity.Booking, error)
	// ValidateAndComplete checks a scanned QR token, captures the held
	// payment and completes the lesson.
	ValidateAndComplete(ctx context.Context, bookingID uuid.UUID, token string) (*entity.Booking, error)
	Cancel(ctx context.Context, bookingID uuid.UUID, reason string) (*entity.Booking, error)
	MarkNoShow(ctx context.Context, bookingID uuid.UUID) (*entity.Booking, error)
	// SweepNoShows marks every confirmed, unvalidated booking whose lesson
	// started more than grace ago.
	SweepNoShows(ctx context.Context, grace time.Duration) (int, error)

	GetBooking(ctx context.Context, bookingID uuid.UUID) (*entity.Booking, error)
	ListUserBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, int64, error)
	ListInstructorBookings(ctx context.Context, instructorID uuid.UUID, limit, offset int) ([]*entity.Booking, int64, error)
	IssueToken(ctx context.Context, bookingID uuid.UUID) (string, error)
	QuoteFee(gross decimal.Decimal) (pricing.FeeBreakdown, error)
}

const sweepBatchSize = 100

type bookingService struct {
	repo      *repository.Repository
	ledger    LedgerService
	gateway   gateway.PaymentGateway
	publisher events.Publisher
	locker    lock.Locker
	fees      pricing.FeeSchedule
	currency  string
	now       func() time.Time
	log       *zap.Logger
}

func NewBookingService(
	repo *repository.Repository,
	ledger LedgerService,
	gw gateway.PaymentGateway,
	publisher events.Publisher,
	locker lock.Locker,
	fees pricing.FeeSchedule,
	currency string,
	log *zap.Logger,
) BookingService {
	return &bookingService{
		repo:      repo,
		ledger:    ledger,
		gateway:   gw,
		publisher: publisher,
		locker:    locker,
		fees:      fees,
		currency:  currency,
		now:       time.Now,
		log:       log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, lessonID, instructorID, userID uuid.UUID, scheduledAt time.Time, gross decimal.Decimal, notes *string) (*entity.Booking, error) {
	if gross.IsNegative() {
		return nil, fmt.Errorf("booking amount %s: %w", gross, entity.ErrInvalidAmount)
	}

	now := s.now()
	if scheduledAt.Before(now) {
		return nil, fmt.Errorf("lesson at %s is in the past: %w", scheduledAt.Format(time.RFC3339), entity.ErrInvalidSchedule)
	}

	booking := entity.NewBooking(lessonID, instructorID, userID, scheduledAt, gross, notes, now)
	if err := s.repo.Booking.Create(ctx, booking); err != nil {
		s.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("lesson_id", lessonID.String()),
		)
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("instructor_id", instructorID.String()),
		zap.String("amount", gross.String()),
	)
	s.publish(ctx, events.BookingCreated, booking)
	return booking, nil
}

func (s *bookingService) AuthorizePayment(ctx context.Context, bookingID uuid.UUID, paymentRef string) (*entity.Booking, error) {
	var declined bool
	booking, err := s.withBooking(ctx, bookingID, func(ctx context.Context, b *entity.Booking, now time.Time) error {
		trial := *b
		if err := trial.Authorize("", now); err != nil {
			return err
		}

		ref, err := s.gateway.Authorize(ctx, gateway.AuthorizeRequest{
			BookingID: b.ID,
			Amount:    b.TotalAmount,
			Currency:  s.currency,
			Source:    paymentRef,
		})
		if errors.Is(err, gateway.ErrDeclined) {
			s.log.Warn("Payment authorization declined", zap.String("booking_id", b.ID.String()), zap.Error(err))
			declined = true
			return b.FailPayment(now)
		}
		if err != nil {
			s.log.Error("Payment gateway authorize failed", zap.String("booking_id", b.ID.String()), zap.Error(err))
			return fmt.Errorf("authorize payment: %w", err)
		}

		return b.Authorize(ref, now)
	})
	if err != nil {
		return nil, err
	}
	if declined {
		return booking, fmt.Errorf("booking %s: %w", bookingID, entity.ErrPaymentDeclined)
	}

	s.log.Info("Payment authorized", zap.String("booking_id", bookingID.String()))
	s.publish(ctx, events.BookingConfirmed, booking)
	return booking, nil
}

func (s *bookingService) CapturePayment(ctx context.Context, bookingID uuid.UUID) (*entity.Booking, error) {
	booking, err := s.withBooking(ctx, bookingID, s.capture)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.PaymentCaptured, booking)
	return booking, nil
}

// capture takes the held funds and credits the instructor's net amount. The
// booking itself is persisted by withBooking.
func (s *bookingService) capture(ctx context.Context, b *entity.Booking, now time.Time) error {
	if b.Status != entity.BookingStatusConfirmed || b.PaymentStatus != entity.PaymentStatusAuthorized || b.PaymentRef == nil {
		return fmt.Errorf("capture booking %s (%s/%s): %w", b.ID, b.Status, b.PaymentStatus, entity.ErrNotAuthorized)
	}

	breakdown, err := s.fees.Calculate(b.TotalAmount)
	if err != nil {
		return err
	}

	if err := s.gateway.Capture(ctx, *b.PaymentRef); err != nil {
		s.log.Error("Payment gateway capture failed", zap.String("booking_id", b.ID.String()), zap.Error(err))
		return fmt.Errorf("capture payment: %w", err)
	}

	txn, err := s.ledger.RecordLessonPayment(ctx, b.InstructorID, b.ID, breakdown)
	if err != nil {
		s.log.Error("Captured payment not credited",
			zap.String("booking_id", b.ID.String()),
			zap.String("payment_ref", *b.PaymentRef),
			zap.Error(err),
		)
		return fmt.Errorf("credit instructor: %w", err)
	}

	if err := b.Capture(txn.ID.String(), now); err != nil {
		return err
	}

	s.log.Info("Payment captured",
		zap.String("booking_id", b.ID.String()),
		zap.String("gross", breakdown.Gross.String()),
		zap.String("fee", breakdown.Fee.String()),
		zap.String("net", breakdown.Net.String()),
		zap.String("transaction_id", txn.ID.String()),
	)
	return nil
}

func (s *bookingService) ValidateAndComplete(ctx context.Context, bookingID uuid.UUID, token string) (*entity.Booking, error) {
	booking, err := s.withBooking(ctx, bookingID, func(ctx context.Context, b *entity.Booking, now time.Time) error {
		if err := qrcode.Validate(b, token); err != nil {
			return err
		}
		if now.Before(b.ScheduledAt) {
			return fmt.Errorf("lesson starts at %s: %w", b.ScheduledAt.Format(time.RFC3339), entity.ErrNotEligible)
		}
		if err := b.MarkValidated(now); err != nil {
			return err
		}
		if err := s.capture(ctx, b, now); err != nil {
			return err
		}
		return b.Complete(now)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Lesson completed", zap.String("booking_id", bookingID.String()))
	s.publish(ctx, events.PaymentCaptured, booking)
	s.publish(ctx, events.BookingCompleted, booking)
	return booking, nil
}

func (s *bookingService) Cancel(ctx context.Context, bookingID uuid.UUID, reason string) (*entity.Booking, error) {
	booking, err := s.withBooking(ctx, bookingID, func(ctx context.Context, b *entity.Booking, now time.Time) error {
		if b.PaymentStatus == entity.PaymentStatusCaptured {
			return s.refund(ctx, b, reason, now)
		}

		trial := *b
		if err := trial.Cancel(reason, now); err != nil {
			return err
		}
		if b.PaymentStatus == entity.PaymentStatusAuthorized && b.PaymentRef != nil {
			if err := s.gateway.Release(ctx, *b.PaymentRef); err != nil {
				s.log.Error("Releasing payment hold failed", zap.String("booking_id", b.ID.String()), zap.Error(err))
				return fmt.Errorf("release payment hold: %w", err)
			}
		}
		return b.Cancel(reason, now)
	})
	if err != nil {
		return nil, err
	}

	key := events.BookingCancelled
	if booking.Status == entity.BookingStatusRefunded {
		key = events.BookingRefunded
	}
	s.log.Info("Booking cancelled",
		zap.String("booking_id", bookingID.String()),
		zap.String("status", string(booking.Status)),
		zap.String("reason", reason),
	)
	s.publish(ctx, key, booking)
	return booking, nil
}

// refund returns a captured payment to the student and reverses the
// instructor credit.
func (s *bookingService) refund(ctx context.Context, b *entity.Booking, reason string, now time.Time) error {
	trial := *b
	if err := trial.Refund("", reason, now); err != nil {
		return err
	}
	if b.TransferRef == nil || b.PaymentRef == nil {
		return fmt.Errorf("captured booking %s has no payment references: %w", b.ID, entity.ErrInvalidTransition)
	}
	lessonTxnID, err := uuid.Parse(*b.TransferRef)
	if err != nil {
		return fmt.Errorf("parse transfer reference %q: %w", *b.TransferRef, err)
	}

	// the ledger hands back the same reversal on retry; its id keys the
	// gateway refund
	reversal, err := s.ledger.RefundLessonPayment(ctx, lessonTxnID, reason)
	if err != nil {
		s.log.Error("Instructor credit not reversed", zap.String("booking_id", b.ID.String()), zap.Error(err))
		return fmt.Errorf("reverse instructor credit: %w", err)
	}

	gatewayRef, err := s.gateway.Refund(ctx, *b.PaymentRef, b.TotalAmount, reversal.ID.String())
	if err != nil {
		s.log.Error("Payment gateway refund failed",
			zap.String("booking_id", b.ID.String()),
			zap.String("transaction_id", reversal.ID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("refund payment: %w", err)
	}

	s.log.Info("Payment refunded",
		zap.String("booking_id", b.ID.String()),
		zap.String("gateway_refund", gatewayRef),
		zap.String("transaction_id", reversal.ID.String()),
	)
	return b.Refund(reversal.ID.String(), reason, now)
}

func (s *bookingService) MarkNoShow(ctx context.Context, bookingID uuid.UUID) (*entity.Booking, error) {
	var captured bool
	booking, err := s.withBooking(ctx, bookingID, func(ctx context.Context, b *entity.Booking, now time.Time) error {
		trial := *b
		if err := trial.MarkNoShow(now); err != nil {
			return err
		}
		// a missed lesson is still paid
		if b.PaymentStatus == entity.PaymentStatusAuthorized {
			if err := s.capture(ctx, b, now); err != nil {
				return err
			}
			captured = true
		}
		return b.MarkNoShow(now)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Booking marked no-show", zap.String("booking_id", bookingID.String()))
	if captured {
		s.publish(ctx, events.PaymentCaptured, booking)
	}
	s.publish(ctx, events.BookingNoShow, booking)
	return booking, nil
}

func (s *bookingService) SweepNoShows(ctx context.Context, grace time.Duration) (int, error) {
	cutoff := s.now().Add(-grace)

	due, err := s.repo.Booking.FindDueNoShows(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("find due no-shows: %w", err)
	}

	marked := 0
	var errs []error
	for _, b := range due {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := s.MarkNoShow(ctx, b.ID); err != nil {
			s.log.Warn("No-show sweep skipped booking", zap.String("booking_id", b.ID.String()), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		marked++
	}

	if marked > 0 {
		s.log.Info("No-show sweep finished", zap.Int("marked", marked), zap.Int("due", len(due)))
	}
	return marked, errors.Join(errs...)
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*entity.Booking, error) {
	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("find booking %s: %w", bookingID, err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, entity.ErrNotFound)
	}
	return booking, nil
}

func (s *bookingService) ListUserBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, int64, error) {
	bookings, err := s.repo.Booking.FindByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list user bookings: %w", err)
	}
	total, err := s.repo.Booking.CountByUserID(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("count user bookings: %w", err)
	}
	return bookings, total, nil
}

func (s *bookingService) ListInstructorBookings(ctx context.Context, instructorID uuid.UUID, limit, offset int) ([]*entity.Booking, int64, error) {
	bookings, err := s.repo.Booking.FindByInstructorID(ctx, instructorID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list instructor bookings: %w", err)
	}
	total, err := s.repo.Booking.CountByInstructorID(ctx, instructorID)
	if err != nil {
		return nil, 0, fmt.Errorf("count instructor bookings: %w", err)
	}
	return bookings, total, nil
}

func (s *bookingService) IssueToken(ctx context.Context, bookingID uuid.UUID) (string, error) {
	booking, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return "", err
	}
	if booking.Status != entity.BookingStatusConfirmed || booking.IsValidated() {
		return "", fmt.Errorf("booking %s is %s: %w", bookingID, booking.Status, entity.ErrNotEligible)
	}
	return qrcode.Encode(booking), nil
}

func (s *bookingService) QuoteFee(gross decimal.Decimal) (pricing.FeeBreakdown, error) {
	return s.fees.Calculate(gross)
}

// withBooking loads a booking under its lock, lets fn mutate it and stores
// the result. Nothing is stored when fn fails.
func (s *bookingService) withBooking(ctx context.Context, bookingID uuid.UUID, fn func(ctx context.Context, b *entity.Booking, now time.Time) error) (*entity.Booking, error) {
	unlock, err := s.locker.Lock(ctx, lock.BookingKey(bookingID.String()))
	if err != nil {
		return nil, fmt.Errorf("lock booking %s: %w", bookingID, err)
	}
	defer unlock()

	booking, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := fn(ctx, booking, s.now()); err != nil {
		return nil, err
	}

	if err := s.repo.Booking.Update(ctx, booking); err != nil {
		s.log.Error("Failed to store booking",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("status", string(booking.Status)),
		)
		return nil, fmt.Errorf("update booking: %w", err)
	}
	return booking, nil
}

func (s *bookingService) publish(ctx context.Context, key string, b *entity.Booking) {
	if err := s.publisher.Publish(ctx, events.NewBookingEvent(key, b)); err != nil {
		s.log.Warn("Failed to publish booking event",
			zap.Error(err),
			zap.String("event", key),
			zap.String("booking_id", b.ID.String()),
		)
	}
}
