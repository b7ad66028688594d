package usecase

import (
	"context"
	"fmt"
	"time"

	"moveup-booking/internal/data/entity"
	"moveup-booking/internal/data/repository"
	"moveup-booking/internal/pricing"
	"moveup-booking/pkg/lock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerService owns instructor wallets. A wallet balance only moves when
// one of its transactions settles, and completed transactions are never
// edited; reversals are new refund transactions.
type LedgerService interface {
	Append(ctx context.Context, walletID uuid.UUID, txn *entity.Transaction) (*entity.Transaction, error)
	Settle(ctx context.Context, txnID uuid.UUID) (*entity.Transaction, error)
	MarkProcessing(ctx context.Context, txnID uuid.UUID) (*entity.Transaction, error)
	Fail(ctx context.Context, txnID uuid.UUID, reason string) (*entity.Transaction, error)
	Cancel(ctx context.Context, txnID uuid.UUID) (*entity.Transaction, error)

	// RecordLessonPayment appends and settles the credit for a captured booking.
	RecordLessonPayment(ctx context.Context, instructorID, bookingID uuid.UUID, fee pricing.FeeBreakdown) (*entity.Transaction, error)
	// RefundLessonPayment debits exactly the net a lesson payment credited.
	// Calling it again for the same lesson returns the first refund.
	RefundLessonPayment(ctx context.Context, lessonTxnID uuid.UUID, reason string) (*entity.Transaction, error)

	BalanceAsOf(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error)
	VerifyIntegrity(ctx context.Context, walletID uuid.UUID) error

	GetOrCreateWallet(ctx context.Context, instructorID uuid.UUID) (*entity.Wallet, error)
	GetWallet(ctx context.Context, instructorID uuid.UUID) (*entity.Wallet, error)
	ListTransactions(ctx context.Context, instructorID uuid.UUID, limit, offset int) ([]*entity.Transaction, int64, error)
	AvailableBalance(ctx context.Context, instructorID uuid.UUID) (*WalletBalance, error)

	RequestPayout(ctx context.Context, instructorID uuid.UUID, amount decimal.Decimal) (*entity.Transaction, error)
	CompletePayout(ctx context.Context, txnID uuid.UUID) (*entity.Transaction, error)
	FailPayout(ctx context.Context, txnID uuid.UUID, reason string) (*entity.Transaction, error)
	GrantBonus(ctx context.Context, instructorID uuid.UUID, amount decimal.Decimal, description string) (*entity.Transaction, error)
}

// WalletBalance splits settled money from authorized holds. Holds are not
// spendable until captured.
type WalletBalance struct {
	Balance         decimal.Decimal
	PendingHolds    decimal.Decimal
	PendingBookings int
	Available       decimal.Decimal
	Currency        string
}

type ledgerService struct {
	repo     *repository.Repository
	locker   lock.Locker
	currency string
	now      func() time.Time
	log      *zap.Logger
}

func NewLedgerService(repo *repository.Repository, locker lock.Locker, currency string, log *zap.Logger) LedgerService {
	return &ledgerService{
		repo:     repo,
		locker:   locker,
		currency: currency,
		now:      time.Now,
		log:      log.With(zap.String("service", "ledger")),
	}
}

func (s *ledgerService) Append(ctx context.Context, walletID uuid.UUID, txn *entity.Transaction) (*entity.Transaction, error) {
	if txn.Status != entity.TransactionStatusPending {
		return nil, fmt.Errorf("append %s transaction with status %s: %w", txn.Type, txn.Status, entity.ErrInvalidInitialStatus)
	}
	if txn.Type != entity.TransactionTypeAdjustment && txn.Amount.IsNegative() {
		return nil, fmt.Errorf("append %s transaction of %s: %w", txn.Type, txn.Amount, entity.ErrInvalidAmount)
	}
	if txn.Type == entity.TransactionTypeLessonPayment && !txn.NetAmount.Valid {
		return nil, fmt.Errorf("lesson payment without net amount: %w", entity.ErrInvalidAmount)
	}

	wallet, err := s.repo.Wallet.FindByID(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("find wallet %s: %w", walletID, err)
	}
	if wallet == nil {
		return nil, fmt.Errorf("wallet %s: %w", walletID, entity.ErrNotFound)
	}

	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	txn.WalletID = walletID
	txn.CreatedAt = s.now()

	if err := s.repo.Transaction.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("append transaction: %w", err)
	}

	s.log.Debug("Transaction appended",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("wallet_id", walletID.String()),
		zap.String("type", string(txn.Type)),
		zap.String("amount", txn.Amount.String()),
	)
	return txn, nil
}

func (s *ledgerService) Settle(ctx context.Context, txnID uuid.UUID) (*entity.Transaction, error) {
	txn, err := s.findTransaction(ctx, txnID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, lock.WalletKey(txn.WalletID.String()))
	if err != nil {
		return nil, fmt.Errorf("lock wallet %s: %w", txn.WalletID, err)
	}
	defer unlock()

	// reload under the lock; another settle may have won the race
	txn, err = s.findTransaction(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if err := s.settleLocked(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// settleLocked completes txn and applies it to its wallet. The caller holds
// the wallet lock.
func (s *ledgerService) settleLocked(ctx context.Context, txn *entity.Transaction) error {
	wallet, err := s.repo.Wallet.FindByID(ctx, txn.WalletID)
	if err != nil {
		return fmt.Errorf("find wallet %s: %w", txn.WalletID, err)
	}
	if wallet == nil {
		return fmt.Errorf("wallet %s: %w", txn.WalletID, entity.ErrNotFound)
	}

	now := s.now()
	if err := txn.Complete(now); err != nil {
		return fmt.Errorf("settle transaction %s: %w", txn.ID, err)
	}
	wallet.Apply(txn, now)

	if err := s.repo.Wallet.ApplySettlement(ctx, txn, wallet); err != nil {
		return fmt.Errorf("settle transaction %s: %w", txn.ID, err)
	}

	s.log.Info("Transaction settled",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("wallet_id", wallet.ID.String()),
		zap.String("type", string(txn.Type)),
		zap.String("delta", txn.BalanceDelta().String()),
		zap.String("balance", wallet.Balance.String()),
	)
	return nil
}

func (s *ledgerService) MarkProcessing(ctx context.Context, txnID uuid.UUID) (*entity.Transaction, error) {
	return s.transition(ctx, txnID, func(txn *entity.Transaction) error {
		return txn.MarkProcessing()
	})
}

func (s *ledgerService) Fail(ctx context.Context, txnID uuid.UUID, reason string) (*entity.Transaction, error) {
	return s.transition(ctx, txnID, func(txn *entity.Transaction) error {
		return txn.Fail(reason, s.now())
	})
}

func (s *ledgerService) Cancel(ctx context.Context, txnID uuid.UUID) (*entity.Transaction, error) {
	return s.transition(ctx, txnID, func(txn *entity.Transaction) error {
		return txn.Cancel(s.now())
	})
}

// transition applies a status change that does not touch the balance.
func (s *ledgerService) transition(ctx context.Context, txnID uuid.UUID, apply func(*entity.Transaction) error) (*entity.Transaction, error) {
	txn, err := s.findTransaction(ctx, txnID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, lock.WalletKey(txn.WalletID.String()))
	if err != nil {
		return nil, fmt.Errorf("lock wallet %s: %w", txn.WalletID, err)
	}
	defer unlock()

	txn, err = s.findTransaction(ctx, txnID)
	if err != nil {
		return nil, err
	}
	from := txn.Status
	if err := apply(txn); err != nil {
		return nil, fmt.Errorf("transaction %s: %w", txnID, err)
	}
	if err := s.repo.Transaction.Update(ctx, txn); err != nil {
		return nil, fmt.Errorf("update transaction %s: %w", txnID, err)
	}

	s.log.Info("Transaction status changed",
		zap.String("transaction_id", txnID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(txn.Status)),
	)
	return txn, nil
}

func (s *ledgerService) RecordLessonPayment(ctx context.Context, instructorID, bookingID uuid.UUID, fee pricing.FeeBreakdown) (*entity.Transaction, error) {
	wallet, err := s.GetOrCreateWallet(ctx, instructorID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, lock.WalletKey(wallet.ID.String()))
	if err != nil {
		return nil, fmt.Errorf("lock wallet %s: %w", wallet.ID, err)
	}
	defer unlock()

	// a lesson is credited once; a retried capture reuses the earlier entry
	existing, err := s.repo.Transaction.FindByBooking(ctx, bookingID, entity.TransactionTypeLessonPayment)
	if err != nil {
		return nil, fmt.Errorf("find lesson payment for booking %s: %w", bookingID, err)
	}
	if existing != nil {
		if existing.Status.IsOpen() {
			if err := s.settleLocked(ctx, existing); err != nil {
				return nil, err
			}
		}
		s.log.Warn("Lesson payment already recorded",
			zap.String("booking_id", bookingID.String()),
			zap.String("transaction_id", existing.ID.String()),
		)
		return existing, nil
	}

	txn := &entity.Transaction{
		BookingID:   &bookingID,
		Type:        entity.TransactionTypeLessonPayment,
		Amount:      fee.Gross,
		GrossAmount: decimal.NewNullDecimal(fee.Gross),
		PlatformFee: decimal.NewNullDecimal(fee.Fee),
		NetAmount:   decimal.NewNullDecimal(fee.Net),
		Status:      entity.TransactionStatusPending,
		Description: fmt.Sprintf("Lesson payment for booking %s", bookingID),
	}
	if _, err := s.Append(ctx, wallet.ID, txn); err != nil {
		return nil, err
	}
	if err := s.settleLocked(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *ledgerService) RefundLessonPayment(ctx context.Context, lessonTxnID uuid.UUID, reason string) (*entity.Transaction, error) {
	lesson, err := s.findTransaction(ctx, lessonTxnID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, lock.WalletKey(lesson.WalletID.String()))
	if err != nil {
		return nil, fmt.Errorf("lock wallet %s: %w", lesson.WalletID, err)
	}
	defer unlock()

	if lesson.Type != entity.TransactionTypeLessonPayment ||
		lesson.Status != entity.TransactionStatusCompleted ||
		lesson.BookingID == nil {
		return nil, fmt.Errorf("refund %s transaction %s in status %s: %w",
			lesson.Type, lesson.ID, lesson.Status, entity.ErrInvalidTransition)
	}

	previous, err := s.repo.Transaction.FindByBooking(ctx, *lesson.BookingID, entity.TransactionTypeRefund)
	if err != nil {
		return nil, fmt.Errorf("find refund for booking %s: %w", lesson.BookingID, err)
	}
	// a retried cancellation reuses the earlier reversal
	if previous != nil {
		if previous.Status.IsOpen() {
			if err := s.settleLocked(ctx, previous); err != nil {
				return nil, err
			}
		}
		s.log.Warn("Lesson payment already refunded",
			zap.String("booking_id", lesson.BookingID.String()),
			zap.String("refund_transaction_id", previous.ID.String()),
		)
		return previous, nil
	}

	refund := &entity.Transaction{
		BookingID:   lesson.BookingID,
		Type:        entity.TransactionTypeRefund,
		Amount:      lesson.BalanceDelta(),
		Status:      entity.TransactionStatusPending,
		Description: fmt.Sprintf("Refund of lesson payment %s: %s", lesson.ID, reason),
	}
	if _, err := s.Append(ctx, lesson.WalletID, refund); err != nil {
		return nil, err
	}
	if err := s.settleLocked(ctx, refund); err != nil {
		return nil, err
	}

	s.log.Info("Lesson payment refunded",
		zap.String("lesson_transaction_id", lesson.ID.String()),
		zap.String("refund_transaction_id", refund.ID.String()),
		zap.String("amount", refund.Amount.String()),
	)
	return refund, nil
}

func (s *ledgerService) BalanceAsOf(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error) {
	txns, err := s.repo.Transaction.FindCompletedByWalletID(ctx, walletID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fold wallet %s: %w", walletID, err)
	}

	balance := decimal.Zero
	for _, txn := range txns {
		balance = balance.Add(txn.BalanceDelta())
	}
	return balance, nil
}

func (s *ledgerService) VerifyIntegrity(ctx context.Context, walletID uuid.UUID) error {
	unlock, err := s.locker.Lock(ctx, lock.WalletKey(walletID.String()))
	if err != nil {
		return fmt.Errorf("lock wallet %s: %w", walletID, err)
	}
	defer unlock()

	wallet, err := s.repo.Wallet.FindByID(ctx, walletID)
	if err != nil {
		return fmt.Errorf("find wallet %s: %w", walletID, err)
	}
	if wallet == nil {
		return fmt.Errorf("wallet %s: %w", walletID, entity.ErrNotFound)
	}

	folded, err := s.BalanceAsOf(ctx, walletID)
	if err != nil {
		return err
	}
	if !folded.Equal(wallet.Balance) {
		s.log.Error("Wallet balance drifted from ledger",
			zap.String("wallet_id", walletID.String()),
			zap.String("cached", wallet.Balance.String()),
			zap.String("folded", folded.String()),
		)
		return fmt.Errorf("wallet %s caches %s, ledger folds to %s: %w",
			walletID, wallet.Balance, folded, entity.ErrLedgerCorrupted)
	}
	return nil
}

func (s *ledgerService) GetOrCreateWallet(ctx context.Context, instructorID uuid.UUID) (*entity.Wallet, error) {
	wallet, err := s.repo.Wallet.FindByInstructorID(ctx, instructorID)
	if err != nil {
		return nil, fmt.Errorf("find wallet for instructor %s: %w", instructorID, err)
	}
	if wallet != nil {
		return wallet, nil
	}

	// serialize creation per instructor; the unique index is the last word
	unlock, err := s.locker.Lock(ctx, lock.WalletKey("instructor:"+instructorID.String()))
	if err != nil {
		return nil, fmt.Errorf("lock wallet creation for %s: %w", instructorID, err)
	}
	defer unlock()

	wallet, err = s.repo.Wallet.FindByInstructorID(ctx, instructorID)
	if err != nil {
		return nil, fmt.Errorf("find wallet for instructor %s: %w", instructorID, err)
	}
	if wallet != nil {
		return wallet, nil
	}

	wallet = entity.NewWallet(instructorID, s.currency, s.now())
	if err := s.repo.Wallet.Create(ctx, wallet); err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}

	s.log.Info("Wallet created",
		zap.String("wallet_id", wallet.ID.String()),
		zap.String("instructor_id", instructorID.String()),
	)
	return wallet, nil
}

func (s *ledgerService) GetWallet(ctx context.Context, instructorID uuid.UUID) (*entity.Wallet, error) {
	wallet, err := s.repo.Wallet.FindByInstructorID(ctx, instructorID)
	if err != nil {
		return nil, fmt.Errorf("find wallet for instructor %s: %w", instructorID, err)
	}
	if wallet == nil {
		return nil, fmt.Errorf("wallet for instructor %s: %w", instructorID, entity.ErrNotFound)
	}
	return wallet, nil
}

func (s *ledgerService) ListTransactions(ctx context.Context, instructorID uuid.UUID, limit, offset int) ([]*entity.Transaction, int64, error) {
	wallet, err := s.repo.Wallet.FindByInstructorID(ctx, instructorID)
	if err != nil {
		return nil, 0, fmt.Errorf("find wallet for instructor %s: %w", instructorID, err)
	}
	if wallet == nil {
		return []*entity.Transaction{}, 0, nil
	}

	txns, err := s.repo.Transaction.FindByWalletID(ctx, wallet.ID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	total, err := s.repo.Transaction.CountByWalletID(ctx, wallet.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}
	return txns, total, nil
}

func (s *ledgerService) AvailableBalance(ctx context.Context, instructorID uuid.UUID) (*WalletBalance, error) {
	result := &WalletBalance{
		Balance:  decimal.Zero,
		Currency: s.currency,
	}

	wallet, err := s.repo.Wallet.FindByInstructorID(ctx, instructorID)
	if err != nil {
		return nil, fmt.Errorf("find wallet for instructor %s: %w", instructorID, err)
	}
	if wallet != nil {
		result.Balance = wallet.Balance
		result.Currency = wallet.Currency
	}

	held, count, err := s.repo.Booking.SumAuthorizedByInstructor(ctx, instructorID)
	if err != nil {
		return nil, fmt.Errorf("sum pending holds: %w", err)
	}
	result.PendingHolds = held
	result.PendingBookings = count
	result.Available = result.Balance
	return result, nil
}

func (s *ledgerService) RequestPayout(ctx context.Context, instructorID uuid.UUID, amount decimal.Decimal) (*entity.Transaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("payout of %s: %w", amount, entity.ErrInvalidAmount)
	}

	wallet, err := s.GetWallet(ctx, instructorID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, lock.WalletKey(wallet.ID.String()))
	if err != nil {
		return nil, fmt.Errorf("lock wallet %s: %w", wallet.ID, err)
	}
	defer unlock()

	wallet, err = s.GetWallet(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(wallet.Balance) {
		return nil, fmt.Errorf("payout of %s from balance %s: %w", amount, wallet.Balance, entity.ErrInsufficientFunds)
	}

	payout := &entity.Transaction{
		Type:        entity.TransactionTypePayout,
		Amount:      amount,
		Status:      entity.TransactionStatusPending,
		Description: "Payout to bank account",
	}
	if _, err := s.Append(ctx, wallet.ID, payout); err != nil {
		return nil, err
	}
	if err := payout.MarkProcessing(); err != nil {
		return nil, err
	}
	if err := s.repo.Transaction.Update(ctx, payout); err != nil {
		return nil, fmt.Errorf("mark payout processing: %w", err)
	}

	s.log.Info("Payout requested",
		zap.String("transaction_id", payout.ID.String()),
		zap.String("instructor_id", instructorID.String()),
		zap.String("amount", amount.String()),
	)
	return payout, nil
}

func (s *ledgerService) CompletePayout(ctx context.Context, txnID uuid.UUID) (*entity.Transaction, error) {
	txn, err := s.findTransaction(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if txn.Type != entity.TransactionTypePayout {
		return nil, fmt.Errorf("transaction %s is a %s: %w", txnID, txn.Type, entity.ErrInvalidTransition)
	}

	unlock, err := s.locker.Lock(ctx, lock.WalletKey(txn.WalletID.String()))
	if err != nil {
		return nil, fmt.Errorf("lock wallet %s: %w", txn.WalletID, err)
	}
	defer unlock()

	wallet, err := s.repo.Wallet.FindByID(ctx, txn.WalletID)
	if err != nil {
		return nil, fmt.Errorf("find wallet %s: %w", txn.WalletID, err)
	}
	if wallet == nil {
		return nil, fmt.Errorf("wallet %s: %w", txn.WalletID, entity.ErrNotFound)
	}
	// a refund may have landed since the payout was requested
	if txn.Amount.GreaterThan(wallet.Balance) {
		return nil, fmt.Errorf("complete payout of %s from balance %s: %w", txn.Amount, wallet.Balance, entity.ErrInsufficientFunds)
	}

	txn, err = s.findTransaction(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if err := s.settleLocked(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *ledgerService) FailPayout(ctx context.Context, txnID uuid.UUID, reason string) (*entity.Transaction, error) {
	txn, err := s.findTransaction(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if txn.Type != entity.TransactionTypePayout {
		return nil, fmt.Errorf("transaction %s is a %s: %w", txnID, txn.Type, entity.ErrInvalidTransition)
	}
	return s.Fail(ctx, txnID, reason)
}

func (s *ledgerService) GrantBonus(ctx context.Context, instructorID uuid.UUID, amount decimal.Decimal, description string) (*entity.Transaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("bonus of %s: %w", amount, entity.ErrInvalidAmount)
	}

	wallet, err := s.GetOrCreateWallet(ctx, instructorID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, lock.WalletKey(wallet.ID.String()))
	if err != nil {
		return nil, fmt.Errorf("lock wallet %s: %w", wallet.ID, err)
	}
	defer unlock()

	bonus := &entity.Transaction{
		Type:        entity.TransactionTypeBonus,
		Amount:      amount,
		Status:      entity.TransactionStatusPending,
		Description: description,
	}
	if _, err := s.Append(ctx, wallet.ID, bonus); err != nil {
		return nil, err
	}
	if err := s.settleLocked(ctx, bonus); err != nil {
		return nil, err
	}
	return bonus, nil
}

func (s *ledgerService) findTransaction(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	txn, err := s.repo.Transaction.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find transaction %s: %w", id, err)
	}
	if txn == nil {
		return nil, fmt.Errorf("transaction %s: %w", id, entity.ErrNotFound)
	}
	return txn, nil
}
