package repository

import (
	"moveup-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User        UserRepository
	Session     SessionRepository
	Booking     BookingRepository
	Wallet      WalletRepository
	Transaction TransactionRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:        NewUserRepository(db, log),
		Session:     NewSessionRepository(db, log),
		Booking:     NewBookingRepository(db, log),
		Wallet:      NewWalletRepository(db, log),
		Transaction: NewTransactionRepository(db, log),
	}
}
