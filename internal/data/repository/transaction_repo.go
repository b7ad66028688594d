package repository

import (
	"context"
	"errors"
	"fmt"

	"moveup-booking/internal/data/entity"
	"moveup-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type TransactionRepository interface {
	Create(ctx context.Context, txn *entity.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error)
	// Update writes status changes of an open transaction. Completed rows are
	// immutable and yield ErrInvalidTransition.
	Update(ctx context.Context, txn *entity.Transaction) error
	FindByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*entity.Transaction, error)
	CountByWalletID(ctx context.Context, walletID uuid.UUID) (int64, error)
	FindCompletedByWalletID(ctx context.Context, walletID uuid.UUID) ([]*entity.Transaction, error)
	// FindByBooking returns the live (not failed or cancelled) transaction of
	// txnType recorded for a booking.
	FindByBooking(ctx context.Context, bookingID uuid.UUID, txnType entity.TransactionType) (*entity.Transaction, error)
}

const transactionColumns = `id, wallet_id, booking_id, type, amount, gross_amount, platform_fee,
	net_amount, status, description, failure_reason, created_at, completed_at, failed_at`

type transactionRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTransactionRepository(db database.PgxIface, log *zap.Logger) TransactionRepository {
	return &transactionRepository{
		db:  db,
		log: log.With(zap.String("repository", "transaction")),
	}
}

func scanTransaction(row pgx.Row) (*entity.Transaction, error) {
	var t entity.Transaction
	err := row.Scan(
		&t.ID,
		&t.WalletID,
		&t.BookingID,
		&t.Type,
		&t.Amount,
		&t.GrossAmount,
		&t.PlatformFee,
		&t.NetAmount,
		&t.Status,
		&t.Description,
		&t.FailureReason,
		&t.CreatedAt,
		&t.CompletedAt,
		&t.FailedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepository) Create(ctx context.Context, txn *entity.Transaction) error {
	query := `
		INSERT INTO wallet_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.Exec(ctx, query,
		txn.ID,
		txn.WalletID,
		txn.BookingID,
		txn.Type,
		txn.Amount,
		txn.GrossAmount,
		txn.PlatformFee,
		txn.NetAmount,
		txn.Status,
		txn.Description,
		txn.FailureReason,
		txn.CreatedAt,
		txn.CompletedAt,
		txn.FailedAt,
	)
	if err != nil {
		r.log.Error("Failed to create transaction",
			zap.Error(err),
			zap.String("wallet_id", txn.WalletID.String()),
			zap.String("type", string(txn.Type)),
		)
		return fmt.Errorf("create transaction %s: %w", txn.ID, err)
	}

	return nil
}

func (r *transactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions WHERE id = $1`

	txn, err := scanTransaction(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find transaction by ID", zap.Error(err), zap.String("transaction_id", id.String()))
		return nil, fmt.Errorf("find transaction by ID %s: %w", id, err)
	}

	return txn, nil
}

func (r *transactionRepository) Update(ctx context.Context, txn *entity.Transaction) error {
	query := `
		UPDATE wallet_transactions
		SET status = $2, failure_reason = $3, completed_at = $4, failed_at = $5
		WHERE id = $1 AND status IN ('pending', 'processing')
	`

	result, err := r.db.Exec(ctx, query,
		txn.ID,
		txn.Status,
		txn.FailureReason,
		txn.CompletedAt,
		txn.FailedAt,
	)
	if err != nil {
		r.log.Error("Failed to update transaction", zap.Error(err), zap.String("transaction_id", txn.ID.String()))
		return fmt.Errorf("update transaction %s: %w", txn.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s is not open: %w", txn.ID, entity.ErrInvalidTransition)
	}

	return nil
}

func (r *transactionRepository) FindByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*entity.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, walletID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find transactions by wallet",
			zap.Error(err),
			zap.String("wallet_id", walletID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find transactions by wallet %s: %w", walletID, err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *transactionRepository) CountByWalletID(ctx context.Context, walletID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM wallet_transactions WHERE wallet_id = $1`, walletID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count transactions", zap.Error(err), zap.String("wallet_id", walletID.String()))
		return 0, fmt.Errorf("count transactions by wallet %s: %w", walletID, err)
	}
	return count, nil
}

func (r *transactionRepository) FindCompletedByWalletID(ctx context.Context, walletID uuid.UUID) ([]*entity.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM wallet_transactions
		WHERE wallet_id = $1 AND status = 'completed'
		ORDER BY completed_at
	`

	rows, err := r.db.Query(ctx, query, walletID)
	if err != nil {
		r.log.Error("Failed to find completed transactions", zap.Error(err), zap.String("wallet_id", walletID.String()))
		return nil, fmt.Errorf("find completed transactions by wallet %s: %w", walletID, err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *transactionRepository) FindByBooking(ctx context.Context, bookingID uuid.UUID, txnType entity.TransactionType) (*entity.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM wallet_transactions
		WHERE booking_id = $1 AND type = $2 AND status NOT IN ('failed', 'cancelled')
		ORDER BY created_at
		LIMIT 1
	`

	txn, err := scanTransaction(r.db.QueryRow(ctx, query, bookingID, txnType))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find transaction by booking",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("type", string(txnType)),
		)
		return nil, fmt.Errorf("find %s transaction by booking %s: %w", txnType, bookingID, err)
	}

	return txn, nil
}

func (r *transactionRepository) collect(rows pgx.Rows) ([]*entity.Transaction, error) {
	var txns []*entity.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			r.log.Error("Failed to scan transaction row", zap.Error(err))
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return txns, nil
}
