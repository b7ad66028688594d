package repository

import (
	"context"
	"errors"
	"fmt"

	"moveup-booking/internal/data/entity"
	"moveup-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type WalletRepository interface {
	Create(ctx context.Context, wallet *entity.Wallet) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Wallet, error)
	FindByInstructorID(ctx context.Context, instructorID uuid.UUID) (*entity.Wallet, error)
	Update(ctx context.Context, wallet *entity.Wallet) error

	// ApplySettlement stores a just-completed transaction and the wallet it
	// was applied to in one unit. The transaction must still be open in
	// storage, otherwise ErrInvalidTransition is returned and nothing changes.
	ApplySettlement(ctx context.Context, txn *entity.Transaction, wallet *entity.Wallet) error
}

const walletColumns = `id, instructor_id, balance, total_earnings, total_lessons, currency,
	bank_account_holder, bank_iban, payout_schedule, created_at, updated_at`

type walletRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewWalletRepository(db database.PgxIface, log *zap.Logger) WalletRepository {
	return &walletRepository{
		db:  db,
		log: log.With(zap.String("repository", "wallet")),
	}
}

func scanWallet(row pgx.Row) (*entity.Wallet, error) {
	var w entity.Wallet
	err := row.Scan(
		&w.ID,
		&w.InstructorID,
		&w.Balance,
		&w.TotalEarnings,
		&w.TotalLessons,
		&w.Currency,
		&w.BankAccountHolder,
		&w.BankIBAN,
		&w.PayoutSchedule,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *walletRepository) Create(ctx context.Context, wallet *entity.Wallet) error {
	query := `
		INSERT INTO wallets (` + walletColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		wallet.ID,
		wallet.InstructorID,
		wallet.Balance,
		wallet.TotalEarnings,
		wallet.TotalLessons,
		wallet.Currency,
		wallet.BankAccountHolder,
		wallet.BankIBAN,
		wallet.PayoutSchedule,
		wallet.CreatedAt,
		wallet.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create wallet",
			zap.Error(err),
			zap.String("instructor_id", wallet.InstructorID.String()),
		)
		return fmt.Errorf("create wallet for instructor %s: %w", wallet.InstructorID, err)
	}

	return nil
}

func (r *walletRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`

	wallet, err := scanWallet(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find wallet by ID", zap.Error(err), zap.String("wallet_id", id.String()))
		return nil, fmt.Errorf("find wallet by ID %s: %w", id, err)
	}

	return wallet, nil
}

func (r *walletRepository) FindByInstructorID(ctx context.Context, instructorID uuid.UUID) (*entity.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE instructor_id = $1`

	wallet, err := scanWallet(r.db.QueryRow(ctx, query, instructorID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find wallet by instructor",
			zap.Error(err),
			zap.String("instructor_id", instructorID.String()),
		)
		return nil, fmt.Errorf("find wallet by instructor %s: %w", instructorID, err)
	}

	return wallet, nil
}

func (r *walletRepository) Update(ctx context.Context, wallet *entity.Wallet) error {
	if err := updateWallet(ctx, r.db, wallet); err != nil {
		r.log.Error("Failed to update wallet", zap.Error(err), zap.String("wallet_id", wallet.ID.String()))
		return err
	}
	return nil
}

func (r *walletRepository) ApplySettlement(ctx context.Context, txn *entity.Transaction, wallet *entity.Wallet) error {
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE wallet_transactions
			SET status = $2, completed_at = $3
			WHERE id = $1 AND status IN ('pending', 'processing')
		`, txn.ID, txn.Status, txn.CompletedAt)
		if err != nil {
			return fmt.Errorf("complete transaction %s: %w", txn.ID, err)
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("transaction %s is no longer open: %w", txn.ID, entity.ErrInvalidTransition)
		}

		return updateWallet(ctx, tx, wallet)
	})
	if err != nil {
		r.log.Error("Failed to apply settlement",
			zap.Error(err),
			zap.String("wallet_id", wallet.ID.String()),
			zap.String("transaction_id", txn.ID.String()),
		)
		return err
	}

	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func updateWallet(ctx context.Context, db execer, wallet *entity.Wallet) error {
	query := `
		UPDATE wallets
		SET balance = $2, total_earnings = $3, total_lessons = $4, bank_account_holder = $5,
		    bank_iban = $6, payout_schedule = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := db.Exec(ctx, query,
		wallet.ID,
		wallet.Balance,
		wallet.TotalEarnings,
		wallet.TotalLessons,
		wallet.BankAccountHolder,
		wallet.BankIBAN,
		wallet.PayoutSchedule,
		wallet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update wallet %s: %w", wallet.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("wallet %s: %w", wallet.ID, entity.ErrNotFound)
	}
	return nil
}
