package adaptor

import (
	"context"
	"time"

	"moveup-booking/internal/data/entity"
	"moveup-booking/internal/pricing"
	"moveup-booking/internal/usecase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockBookingService struct {
	mock.Mock
}

func (m *mockBookingService) CreateBooking(ctx context.Context, lessonID, instructorID, userID uuid.UUID, scheduledAt time.Time, gross decimal.Decimal, notes *string) (*entity.Booking, error) {
	args := m.Called(ctx, lessonID, instructorID, userID, scheduledAt, gross, notes)
	return bookingArg(args, 0), args.Error(1)
}

func (m *mockBookingService) AuthorizePayment(ctx context.Context, bookingID uuid.UUID, paymentRef string) (*entity.Booking, error) {
	args := m.Called(ctx, bookingID, paymentRef)
	return bookingArg(args, 0), args.Error(1)
}

func (m *mockBookingService) CapturePayment(ctx context.Context, bookingID uuid.UUID) (*entity.Booking, error) {
	args := m.Called(ctx, bookingID)
	return bookingArg(args, 0), args.Error(1)
}

func (m *mockBookingService) ValidateAndComplete(ctx context.Context, bookingID uuid.UUID, token string) (*entity.Booking, error) {
	args := m.Called(ctx, bookingID, token)
	return bookingArg(args, 0), args.Error(1)
}

func (m *mockBookingService) Cancel(ctx context.Context, bookingID uuid.UUID, reason string) (*entity.Booking, error) {
	args := m.Called(ctx, bookingID, reason)
	return bookingArg(args, 0), args.Error(1)
}

func (m *mockBookingService) MarkNoShow(ctx context.Context, bookingID uuid.UUID) (*entity.Booking, error) {
	args := m.Called(ctx, bookingID)
	return bookingArg(args, 0), args.Error(1)
}

func (m *mockBookingService) SweepNoShows(ctx context.Context, grace time.Duration) (int, error) {
	args := m.Called(ctx, grace)
	return args.Int(0), args.Error(1)
}

func (m *mockBookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*entity.Booking, error) {
	args := m.Called(ctx, bookingID)
	return bookingArg(args, 0), args.Error(1)
}

func (m *mockBookingService) ListUserBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	bookings, _ := args.Get(0).([]*entity.Booking)
	return bookings, args.Get(1).(int64), args.Error(2)
}

func (m *mockBookingService) ListInstructorBookings(ctx context.Context, instructorID uuid.UUID, limit, offset int) ([]*entity.Booking, int64, error) {
	args := m.Called(ctx, instructorID, limit, offset)
	bookings, _ := args.Get(0).([]*entity.Booking)
	return bookings, args.Get(1).(int64), args.Error(2)
}

func (m *mockBookingService) IssueToken(ctx context.Context, bookingID uuid.UUID) (string, error) {
	args := m.Called(ctx, bookingID)
	return args.String(0), args.Error(1)
}

func (m *mockBookingService) QuoteFee(gross decimal.Decimal) (pricing.FeeBreakdown, error) {
	args := m.Called(gross)
	return args.Get(0).(pricing.FeeBreakdown), args.Error(1)
}

func bookingArg(args mock.Arguments, i int) *entity.Booking {
	b, _ := args.Get(i).(*entity.Booking)
	return b
}

type mockLedgerService struct {
	mock.Mock
}

func (m *mockLedgerService) Append(ctx context.Context, walletID uuid.UUID, txn *entity.Transaction) (*entity.Transaction, error) {
	args := m.Called(ctx, walletID, txn)
	return txnArg(args, 0), args.Error(1)
}

func (m *mockLedgerService) Settle(ctx context.Context, txnID uuid.UUID) (*entity.Transaction, error) {
	args := m.Called(ctx, txnID)
	return txnArg(args, 0), args.Error(1)
}

func (m *mockLedgerService) MarkProcessing(ctx context.Context, txnID uuid.UUID) (*entity.Transaction, error) {
	args := m.Called(ctx, txnID)
	return txnArg(args, 0), args.Error(1)
}

func (m *mockLedgerService) Fail(ctx context.Context, txnID uuid.UUID, reason string) (*entity.Transaction, error) {
	args := m.Called(ctx, txnID, reason)
	return txnArg(args, 0), args.Error(1)
}

func (m *mockLedgerService) Cancel(ctx context.Context, txnID uuid.UUID) (*entity.Transaction, error) {
	args := m.Called(ctx, txnID)
	return txnArg(args, 0), args.Error(1)
}

func (m *mockLedgerService) RecordLessonPayment(ctx context.Context, instructorID, bookingID uuid.UUID, fee pricing.FeeBreakdown) (*entity.Transaction, error) {
	args := m.Called(ctx, instructorID, bookingID, fee)
	return txnArg(args, 0), args.Error(1)
}

func (m *mockLedgerService) RefundLessonPayment(ctx context.Context, lessonTxnID uuid.UUID, reason string) (*entity.Transaction, error) {
	args := m.Called(ctx, lessonTxnID, reason)
	return txnArg(args, 0), args.Error(1)
}

func (m *mockLedgerService) BalanceAsOf(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, walletID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockLedgerService) VerifyIntegrity(ctx context.Context, walletID uuid.UUID) error {
	return m.Called(ctx, walletID).Error(0)
}

func (m *mockLedgerService) GetOrCreateWallet(ctx context.Context, instructorID uuid.UUID) (*entity.Wallet, error) {
	args := m.Called(ctx, instructorID)
	return walletArg(args, 0), args.Error(1)
}

func (m *mockLedgerService) GetWallet(ctx context.Context, instructorID uuid.UUID) (*entity.Wallet, error) {
	args := m.Called(ctx, instructorID)
	return walletArg(args, 0), args.Error(1)
}

func (m *mockLedgerService) ListTransactions(ctx context.Context, instructorID uuid.UUID, limit, offset int) ([]*entity.Transaction, int64, error) {
	args := m.Called(ctx, instructorID, limit, offset)
	txns, _ := args.Get(0).([]*entity.Transaction)
	return txns, args.Get(1).(int64), args.Error(2)
}

func (m *mockLedgerService) AvailableBalance(ctx context.Context, instructorID uuid.UUID) (*usecase.WalletBalance, error) {
	args := m.Called(ctx, instructorID)
	balance, _ := args.Get(0).(*usecase.WalletBalance)
	return balance, args.Error(1)
}

func (m *mockLedgerService) RequestPayout(ctx context.Context, instructorID uuid.UUID, amount decimal.Decimal) (*entity.Transaction, error) {
	args := m.Called(ctx, instructorID, amount)
	return txnArg(args, 0), args.Error(1)
}

func (m *mockLedgerService) CompletePayout(ctx context.Context, txnID uuid.UUID) (*entity.Transaction, error) {
	args := m.Called(ctx, txnID)
	return txnArg(args, 0), args.Error(1)
}

func (m *mockLedgerService) FailPayout(ctx context.Context, txnID uuid.UUID, reason string) (*entity.Transaction, error) {
	args := m.Called(ctx, txnID, reason)
	return txnArg(args, 0), args.Error(1)
}

func (m *mockLedgerService) GrantBonus(ctx context.Context, instructorID uuid.UUID, amount decimal.Decimal, description string) (*entity.Transaction, error) {
	args := m.Called(ctx, instructorID, amount, description)
	return txnArg(args, 0), args.Error(1)
}

func txnArg(args mock.Arguments, i int) *entity.Transaction {
	t, _ := args.Get(i).(*entity.Transaction)
	return t
}

func walletArg(args mock.Arguments, i int) *entity.Wallet {
	w, _ := args.Get(i).(*entity.Wallet)
	return w
}
