package usecase

import (
	"moveup-booking/internal/data/repository"
	"moveup-booking/internal/events"
	"moveup-booking/internal/gateway"
	"moveup-booking/internal/pricing"
	"moveup-booking/pkg/lock"
	"moveup-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth    AuthService
	Booking BookingService
	Ledger  LedgerService
}

// Deps are the infrastructure adapters chosen in main.
type Deps struct {
	Locker    lock.Locker
	Gateway   gateway.PaymentGateway
	Publisher events.Publisher
	Fees      pricing.FeeSchedule
}

func NewService(repo *repository.Repository, config *utils.Config, deps Deps, log *zap.Logger) *Service {
	ledger := NewLedgerService(repo, deps.Locker, config.Payment.Currency, log)
	return &Service{
		Auth:    NewAuthService(repo, config, log),
		Booking: NewBookingService(repo, ledger, deps.Gateway, deps.Publisher, deps.Locker, deps.Fees, config.Payment.Currency, log),
		Ledger:  ledger,
	}
}
