package handlers

import (
	"context"
	"net/http"
	"regexp"

	"github.com/Dosada05/tournament-hub/middleware"
	"github.com/Dosada05/tournament-hub/models"
	"github.com/Dosada05/tournament-hub/services"
)

var phonePattern = regexp.MustCompile(`^\d{11}$`)

type WalletHandler struct {
	walletService services.WalletService
}

func NewWalletHandler(walletService services.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, services.ErrNotAuthenticated.Error())
		return
	}

	wallet, err := h.walletService.GetWallet(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, wallet); err != nil {
		serverErrorResponse(w, err)
	}
}

func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.initiatePayment(w, r, h.walletService.InitiateDeposit, "deposit initiated")
}

func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.initiatePayment(w, r, h.walletService.InitiateWithdraw, "withdrawal initiated")
}

// initiatePayment is the shared boundary for deposit and withdraw requests.
// Both are accepted asynchronously: the response carries the pending
// transaction, settlement happens later.
func (h *WalletHandler) initiatePayment(
	w http.ResponseWriter,
	r *http.Request,
	initiate func(ctx context.Context, userID int, input services.PaymentRequestInput) (*models.Transaction, error),
	message string,
) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, services.ErrNotAuthenticated.Error())
		return
	}

	var input services.PaymentRequestInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	if !phonePattern.MatchString(input.Phone) {
		mapServiceErrorToHTTP(w, services.ErrInvalidPhone)
		return
	}

	txn, err := initiate(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	response := jsonResponse{
		"message": message,
		"transaction": jsonResponse{
			"id":           txn.ID,
			"status":       txn.Status,
			"reference_id": txn.ReferenceID,
		},
	}
	if err := writeJSON(w, http.StatusAccepted, response); err != nil {
		serverErrorResponse(w, err)
	}
}

func (h *WalletHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, services.ErrNotAuthenticated.Error())
		return
	}

	transactions, err := h.walletService.ListTransactions(r.Context(), userID, queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, transactions); err != nil {
		serverErrorResponse(w, err)
	}
}
