package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-hub/services"
	"github.com/shopspring/decimal"
)

const maxBannerSize = 5 << 20 // 5MB

type AdminHandler struct {
	adminService      *services.AdminService
	tournamentService *services.TournamentService
}

func NewAdminHandler(adminService *services.AdminService, tournamentService *services.TournamentService) *AdminHandler {
	return &AdminHandler{
		adminService:      adminService,
		tournamentService: tournamentService,
	}
}

func (h *AdminHandler) ListPendingDeposits(w http.ResponseWriter, r *http.Request) {
	deposits, err := h.adminService.ListPendingDeposits(r.Context(), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, deposits); err != nil {
		serverErrorResponse(w, err)
	}
}

func (h *AdminHandler) ApproveDeposit(w http.ResponseWriter, r *http.Request) {
	transactionID, err := urlParamInt(r, "transactionID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	txn, err := h.adminService.ApproveDeposit(r.Context(), transactionID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, txn); err != nil {
		serverErrorResponse(w, err)
	}
}

func (h *AdminHandler) RejectTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID, err := urlParamInt(r, "transactionID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	txn, err := h.adminService.RejectTransaction(r.Context(), transactionID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, txn); err != nil {
		serverErrorResponse(w, err)
	}
}

func (h *AdminHandler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	tournament, err := h.tournamentService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, tournament); err != nil {
		serverErrorResponse(w, err)
	}
}

func (h *AdminHandler) UploadBanner(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxBannerSize); err != nil {
		badRequestResponse(w, err)
		return
	}
	file, header, err := r.FormFile("banner")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	defer file.Close()

	tournament, err := h.tournamentService.UploadBanner(r.Context(), tournamentID, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, tournament); err != nil {
		serverErrorResponse(w, err)
	}
}

type awardPrizeInput struct {
	UserID   int             `json:"user_id"`
	Amount   decimal.Decimal `json:"amount"`
	Position int             `json:"position"`
}

func (h *AdminHandler) AwardPrize(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input awardPrizeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	txn, err := h.adminService.AwardPrize(r.Context(), tournamentID, input.UserID, input.Amount, input.Position)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, txn); err != nil {
		serverErrorResponse(w, err)
	}
}
