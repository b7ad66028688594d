package wire

import (
	"net/http"

	"moveup-booking/internal/adaptor"
	"moveup-booking/internal/data/entity"
	"moveup-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireWallet(
	r chi.Router,
	walletHandler *adaptor.WalletHandler,
	authenticate func(http.Handler) http.Handler,
	log *zap.Logger,
) {
	// ==================== INSTRUCTOR ROUTES ====================
	r.Route("/api/instructor/wallet", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequireRole(log, entity.RoleInstructor))

		r.Get("/", walletHandler.GetWallet)
		r.Get("/transactions", walletHandler.GetTransactions)
		r.Post("/payouts", walletHandler.RequestPayout)
	})

	// ==================== ADMIN ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.Admin(log))

		r.Post("/api/admin/wallets/{instructorId}/bonus", walletHandler.GrantBonus)
		r.Get("/api/admin/wallets/{instructorId}/integrity", walletHandler.CheckIntegrity)
		r.Post("/api/admin/payouts/{id}/complete", walletHandler.CompletePayout)
		r.Post("/api/admin/payouts/{id}/fail", walletHandler.FailPayout)
	})
}
