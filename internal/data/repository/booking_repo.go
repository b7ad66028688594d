package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"moveup-booking/internal/data/entity"
	"moveup-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	Update(ctx context.Context, booking *entity.Booking) error
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	FindByInstructorID(ctx context.Context, instructorID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByInstructorID(ctx context.Context, instructorID uuid.UUID) (int64, error)

	// FindDueNoShows returns confirmed, unvalidated bookings scheduled before cutoff.
	FindDueNoShows(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Booking, error)
	// SumAuthorizedByInstructor totals uncaptured holds for an instructor.
	SumAuthorizedByInstructor(ctx context.Context, instructorID uuid.UUID) (decimal.Decimal, int, error)
}

const bookingColumns = `id, lesson_id, instructor_id, user_id, scheduled_at, status, payment_status,
	total_amount, notes, validated_at, payment_ref, refund_ref, transfer_ref, cancel_reason,
	created_at, updated_at`

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.LessonID,
		&b.InstructorID,
		&b.UserID,
		&b.ScheduledAt,
		&b.Status,
		&b.PaymentStatus,
		&b.TotalAmount,
		&b.Notes,
		&b.ValidatedAt,
		&b.PaymentRef,
		&b.RefundRef,
		&b.TransferRef,
		&b.CancelReason,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.LessonID,
		booking.InstructorID,
		booking.UserID,
		booking.ScheduledAt,
		booking.Status,
		booking.PaymentStatus,
		booking.TotalAmount,
		booking.Notes,
		booking.ValidatedAt,
		booking.PaymentRef,
		booking.RefundRef,
		booking.TransferRef,
		booking.CancelReason,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("user_id", booking.UserID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.ID, err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id, err)
	}

	return booking, nil
}

func (r *bookingRepository) Update(ctx context.Context, booking *entity.Booking) error {
	query := `
		UPDATE bookings
		SET status = $2, payment_status = $3, validated_at = $4, payment_ref = $5,
		    refund_ref = $6, transfer_ref = $7, cancel_reason = $8, updated_at = $9
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.Status,
		booking.PaymentStatus,
		booking.ValidatedAt,
		booking.PaymentRef,
		booking.RefundRef,
		booking.TransferRef,
		booking.CancelReason,
		booking.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("status", string(booking.Status)),
		)
		return fmt.Errorf("update booking %s: %w", booking.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s: %w", booking.ID, entity.ErrNotFound)
	}

	return nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY scheduled_at DESC
		LIMIT $2 OFFSET $3
	`

	return r.list(ctx, "user_id", userID, query, userID, limit, offset)
}

func (r *bookingRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM bookings WHERE user_id = $1`, "user_id", userID)
}

func (r *bookingRepository) FindByInstructorID(ctx context.Context, instructorID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE instructor_id = $1
		ORDER BY scheduled_at DESC
		LIMIT $2 OFFSET $3
	`

	return r.list(ctx, "instructor_id", instructorID, query, instructorID, limit, offset)
}

func (r *bookingRepository) CountByInstructorID(ctx context.Context, instructorID uuid.UUID) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM bookings WHERE instructor_id = $1`, "instructor_id", instructorID)
}

func (r *bookingRepository) FindDueNoShows(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'confirmed' AND validated_at IS NULL AND scheduled_at < $1
		ORDER BY scheduled_at
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, cutoff, limit)
	if err != nil {
		r.log.Error("Failed to find due no-shows", zap.Error(err), zap.Time("cutoff", cutoff))
		return nil, fmt.Errorf("find due no-shows before %s: %w", cutoff, err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *bookingRepository) SumAuthorizedByInstructor(ctx context.Context, instructorID uuid.UUID) (decimal.Decimal, int, error) {
	query := `
		SELECT COALESCE(SUM(total_amount), 0), COUNT(*)
		FROM bookings
		WHERE instructor_id = $1 AND status = 'confirmed' AND payment_status = 'authorized'
	`

	var (
		sum   decimal.Decimal
		count int
	)
	if err := r.db.QueryRow(ctx, query, instructorID).Scan(&sum, &count); err != nil {
		r.log.Error("Failed to sum authorized bookings",
			zap.Error(err),
			zap.String("instructor_id", instructorID.String()),
		)
		return decimal.Zero, 0, fmt.Errorf("sum authorized bookings for %s: %w", instructorID, err)
	}

	return sum, count, nil
}

func (r *bookingRepository) list(ctx context.Context, field string, id uuid.UUID, query string, args ...any) ([]*entity.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list bookings", zap.Error(err), zap.String(field, id.String()))
		return nil, fmt.Errorf("list bookings by %s %s: %w", field, id, err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *bookingRepository) collect(rows pgx.Rows) ([]*entity.Booking, error) {
	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}

func (r *bookingRepository) count(ctx context.Context, query, field string, id uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, query, id).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings", zap.Error(err), zap.String(field, id.String()))
		return 0, fmt.Errorf("count bookings by %s %s: %w", field, id, err)
	}
	return count, nil
}
