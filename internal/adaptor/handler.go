package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"moveup-booking/internal/data/entity"
	"moveup-booking/internal/usecase"
	"moveup-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	Auth    *AuthHandler
	Booking *BookingHandler
	Wallet  *WalletHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(service.Auth, log),
		Booking: NewBookingHandler(service.Booking, log),
		Wallet:  NewWalletHandler(service.Ledger, log),
	}
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// It writes the 400 response itself and reports whether to continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	if validationErrors := utils.ValidateStruct(dst); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return false
	}
	return true
}

// currentUser returns the authenticated caller set by the session middleware.
func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, entity.UserRole, bool) {
	caller, ok := utils.PrincipalFrom(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return uuid.Nil, "", false
	}
	return caller.UserID, entity.UserRole(caller.Role), true
}

func parseUUIDParam(w http.ResponseWriter, value, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(value)
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid "+name, map[string]string{name: "Must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// handleServiceError maps domain errors to HTTP responses. Client errors log
// at Warn, everything unexpected at Error.
func handleServiceError(log *zap.Logger, w http.ResponseWriter, err error, operation string) {
	status, message := classify(err)

	if status >= http.StatusInternalServerError {
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	log.Warn(operation+" rejected", zap.Error(err), zap.Int("status", status))
	switch status {
	case http.StatusBadRequest:
		utils.ResponseBadRequest(w, message, nil)
	case http.StatusUnauthorized:
		utils.ResponseUnauthorized(w, message)
	case http.StatusPaymentRequired:
		utils.ResponsePaymentRequired(w, message)
	case http.StatusForbidden:
		utils.ResponseForbidden(w, message)
	case http.StatusNotFound:
		utils.ResponseNotFound(w, message)
	case http.StatusConflict:
		utils.ResponseConflict(w, message)
	default:
		utils.ResponseUnprocessable(w, message)
	}
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound, "Resource not found"
	case errors.Is(err, usecase.ErrValidation),
		errors.Is(err, entity.ErrInvalidAmount),
		errors.Is(err, entity.ErrInvalidSchedule),
		errors.Is(err, entity.ErrMalformedToken):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, usecase.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, entity.ErrPaymentDeclined):
		return http.StatusPaymentRequired, "Payment was declined"
	case errors.Is(err, entity.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, usecase.ErrAlreadyExists),
		errors.Is(err, entity.ErrAlreadyValidated),
		errors.Is(err, entity.ErrInvalidTransition):
		return http.StatusConflict, err.Error()
	case errors.Is(err, entity.ErrNotAuthorized),
		errors.Is(err, entity.ErrNotEligible),
		errors.Is(err, entity.ErrBookingMismatch),
		errors.Is(err, entity.ErrInsufficientFunds),
		errors.Is(err, entity.ErrInvalidInitialStatus):
		return http.StatusUnprocessableEntity, err.Error()
	}
	return http.StatusInternalServerError, ""
}
