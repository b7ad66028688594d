// internal/wire/wire.go
package wire

import (
	"net/http"

	"moveup-booking/internal/adaptor"
	"moveup-booking/internal/data/repository"
	"moveup-booking/internal/usecase"
	"moveup-booking/pkg/middleware"
	"moveup-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the assembled services and router
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services and handlers on top of repo and the chosen adapters
func Wiring(repo *repository.Repository, config *utils.Config, deps usecase.Deps, logger *zap.Logger) *App {
	service := usecase.NewService(repo, config, deps, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, service, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(handler *adaptor.Handler, service *usecase.Service, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	// global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	authenticate := middleware.AuthSession(service.Auth, logger)

	wireAuth(r, handler.Auth, authenticate)
	wireBooking(r, handler.Booking, authenticate, logger)
	wireWallet(r, handler.Wallet, authenticate, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseSuccess(w, "OK", nil)
	})

	return r
}
