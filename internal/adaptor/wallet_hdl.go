package adaptor

import (
	"errors"
	"net/http"

	"moveup-booking/internal/data/entity"
	"moveup-booking/internal/dto/request"
	"moveup-booking/internal/dto/response"
	"moveup-booking/internal/usecase"
	"moveup-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type WalletHandler struct {
	service usecase.LedgerService
	log     *zap.Logger
}

func NewWalletHandler(service usecase.LedgerService, log *zap.Logger) *WalletHandler {
	return &WalletHandler{
		service: service,
		log:     log.With(zap.String("handler", "wallet")),
	}
}

// GetWallet handles GET /api/instructor/wallet
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	instructorID, _, ok := currentUser(w, r)
	if !ok {
		return
	}

	balance, err := h.service.AvailableBalance(r.Context(), instructorID)
	if err != nil {
		handleServiceError(h.log, w, err, "get wallet balance")
		return
	}

	// no wallet yet is a zero balance, not an error
	wallet, err := h.service.GetWallet(r.Context(), instructorID)
	if err != nil && !errors.Is(err, entity.ErrNotFound) {
		handleServiceError(h.log, w, err, "get wallet")
		return
	}

	utils.ResponseSuccess(w, "success", response.WalletToResponse(
		instructorID.String(),
		wallet,
		balance.Balance,
		balance.PendingHolds,
		balance.Available,
		balance.PendingBookings,
		balance.Currency,
	))
}

// GetTransactions handles GET /api/instructor/wallet/transactions
func (h *WalletHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	instructorID, _, ok := currentUser(w, r)
	if !ok {
		return
	}

	page := request.PaginationFromQuery(r)
	txns, total, err := h.service.ListTransactions(r.Context(), instructorID, page.Limit(), page.Offset())
	if err != nil {
		handleServiceError(h.log, w, err, "list transactions")
		return
	}

	utils.ResponseSuccess(w, "success",
		response.NewPaginatedResponse(response.TransactionsToResponse(txns), page.Window().Number, page.Limit(), total))
}

// RequestPayout handles POST /api/instructor/wallet/payouts
func (h *WalletHandler) RequestPayout(w http.ResponseWriter, r *http.Request) {
	instructorID, _, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.PayoutRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		utils.ResponseBadRequest(w, "Validation failed", map[string]string{"amount": "Must be a number"})
		return
	}

	txn, err := h.service.RequestPayout(r.Context(), instructorID, amount)
	if err != nil {
		handleServiceError(h.log, w, err, "request payout")
		return
	}

	utils.ResponseCreated(w, "Payout requested", response.TransactionToResponse(txn))
}

// CompletePayout handles POST /api/admin/payouts/{id}/complete
func (h *WalletHandler) CompletePayout(w http.ResponseWriter, r *http.Request) {
	txnID, ok := parseUUIDParam(w, chi.URLParam(r, "id"), "id")
	if !ok {
		return
	}

	txn, err := h.service.CompletePayout(r.Context(), txnID)
	if err != nil {
		handleServiceError(h.log, w, err, "complete payout")
		return
	}

	utils.ResponseSuccess(w, "Payout completed", response.TransactionToResponse(txn))
}

// FailPayout handles POST /api/admin/payouts/{id}/fail
func (h *WalletHandler) FailPayout(w http.ResponseWriter, r *http.Request) {
	txnID, ok := parseUUIDParam(w, chi.URLParam(r, "id"), "id")
	if !ok {
		return
	}

	var req request.FailPayoutRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	txn, err := h.service.FailPayout(r.Context(), txnID, req.Reason)
	if err != nil {
		handleServiceError(h.log, w, err, "fail payout")
		return
	}

	utils.ResponseSuccess(w, "Payout failed", response.TransactionToResponse(txn))
}

// GrantBonus handles POST /api/admin/wallets/{instructorId}/bonus
func (h *WalletHandler) GrantBonus(w http.ResponseWriter, r *http.Request) {
	instructorID, ok := parseUUIDParam(w, chi.URLParam(r, "instructorId"), "instructorId")
	if !ok {
		return
	}

	var req request.BonusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		utils.ResponseBadRequest(w, "Validation failed", map[string]string{"amount": "Must be a number"})
		return
	}

	txn, err := h.service.GrantBonus(r.Context(), instructorID, amount, req.Description)
	if err != nil {
		handleServiceError(h.log, w, err, "grant bonus")
		return
	}

	utils.ResponseCreated(w, "Bonus granted", response.TransactionToResponse(txn))
}

// CheckIntegrity handles GET /api/admin/wallets/{instructorId}/integrity
func (h *WalletHandler) CheckIntegrity(w http.ResponseWriter, r *http.Request) {
	instructorID, ok := parseUUIDParam(w, chi.URLParam(r, "instructorId"), "instructorId")
	if !ok {
		return
	}

	wallet, err := h.service.GetWallet(r.Context(), instructorID)
	if err != nil {
		handleServiceError(h.log, w, err, "check wallet integrity")
		return
	}

	folded, err := h.service.BalanceAsOf(r.Context(), wallet.ID)
	if err != nil {
		handleServiceError(h.log, w, err, "check wallet integrity")
		return
	}

	healthy := true
	if err := h.service.VerifyIntegrity(r.Context(), wallet.ID); err != nil {
		if !errors.Is(err, entity.ErrLedgerCorrupted) {
			handleServiceError(h.log, w, err, "check wallet integrity")
			return
		}
		healthy = false
	}

	utils.ResponseSuccess(w, "success", response.IntegrityResponse{
		WalletID: wallet.ID.String(),
		Cached:   wallet.Balance.StringFixed(2),
		Folded:   folded.StringFixed(2),
		Healthy:  healthy,
	})
}
