package repository

import (
	"context"
	"testing"
	"time"

	"moveup-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func TestMemoryBookings_CopiesOnReadAndWrite(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	b := entity.NewBooking(uuid.New(), uuid.New(), uuid.New(), t0.Add(time.Hour), decimal.NewFromInt(50), nil, t0)
	require.NoError(t, repo.Booking.Create(ctx, b))

	b.Status = entity.BookingStatusCancelled

	stored, err := repo.Booking.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusPending, stored.Status)

	missing, err := repo.Booking.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryBookings_PaginationAndDueNoShows(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	user := uuid.New()
	instructor := uuid.New()

	for i := 0; i < 5; i++ {
		b := entity.NewBooking(uuid.New(), instructor, user, t0.Add(time.Duration(i)*time.Hour), decimal.NewFromInt(20), nil, t0)
		if i < 3 {
			require.NoError(t, b.Authorize("ref", t0))
		}
		require.NoError(t, repo.Booking.Create(ctx, b))
	}

	first, err := repo.Booking.FindByUserID(ctx, user, 2, 0)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.True(t, first[0].ScheduledAt.After(first[1].ScheduledAt))

	last, err := repo.Booking.FindByUserID(ctx, user, 2, 4)
	require.NoError(t, err)
	assert.Len(t, last, 1)

	count, err := repo.Booking.CountByInstructorID(ctx, instructor)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	due, err := repo.Booking.FindDueNoShows(ctx, t0.Add(90*time.Minute), 10)
	require.NoError(t, err)
	assert.Len(t, due, 2)

	sum, n, err := repo.Booking.SumAuthorizedByInstructor(ctx, instructor)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.True(t, sum.Equal(decimal.NewFromInt(60)))
}

func TestMemoryWallets_ApplySettlementOnlyOnce(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	w := entity.NewWallet(uuid.New(), "EUR", t0)
	require.NoError(t, repo.Wallet.Create(ctx, w))

	txn := &entity.Transaction{
		Entry:    entity.NewEntry(t0),
		WalletID: w.ID,
		Type:     entity.TransactionTypeBonus,
		Amount:   decimal.NewFromInt(5),
		Status:   entity.TransactionStatusPending,
	}
	require.NoError(t, repo.Transaction.Create(ctx, txn))

	require.NoError(t, txn.Complete(t0))
	w.Apply(txn, t0)
	require.NoError(t, repo.Wallet.ApplySettlement(ctx, txn, w))

	err := repo.Wallet.ApplySettlement(ctx, txn, w)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)

	err = repo.Transaction.Update(ctx, txn)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)

	stored, err := repo.Wallet.FindByInstructorID(ctx, w.InstructorID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(5)))
}

func TestMemoryWallets_OnePerInstructor(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	instructor := uuid.New()

	require.NoError(t, repo.Wallet.Create(ctx, entity.NewWallet(instructor, "EUR", t0)))
	assert.Error(t, repo.Wallet.Create(ctx, entity.NewWallet(instructor, "EUR", t0)))
}

func TestMemorySessions_ExpiryAndRevoke(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	s := entity.NewSession(uuid.New(), time.Hour, t0)
	require.NoError(t, repo.Session.Create(ctx, s))

	found, err := repo.Session.FindValidSession(ctx, s.Token, t0)
	require.NoError(t, err)
	require.NotNil(t, found)

	expired, err := repo.Session.FindValidSession(ctx, s.Token, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, expired)

	require.NoError(t, repo.Session.Revoke(ctx, s.Token, t0))
	assert.ErrorIs(t, repo.Session.Revoke(ctx, s.Token, t0), entity.ErrNotFound)

	revoked, err := repo.Session.FindValidSession(ctx, s.Token, t0)
	require.NoError(t, err)
	assert.Nil(t, revoked)
}
