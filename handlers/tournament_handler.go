package handlers

import (
	"net/http"
	"strconv"

	"github.com/Dosada05/tournament-hub/middleware"
	"github.com/Dosada05/tournament-hub/models"
	"github.com/Dosada05/tournament-hub/repositories"
	"github.com/Dosada05/tournament-hub/services"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type TournamentHandler struct {
	tournamentService *services.TournamentService
}

func NewTournamentHandler(tournamentService *services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: tournamentService}
}

func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ListTournamentsFilter{
		Limit:  queryInt(r, "limit", 0),
		Offset: queryInt(r, "offset", 0),
	}

	if raw := r.URL.Query().Get("mode"); raw != "" {
		mode := models.TournamentMode(raw)
		if !mode.Valid() {
			badRequestResponse(w, services.ErrValidationFailed)
			return
		}
		filter.Mode = &mode
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.TournamentStatus(raw)
		if !status.Valid() {
			badRequestResponse(w, services.ErrValidationFailed)
			return
		}
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("minFee"); raw != "" {
		fee, err := decimal.NewFromString(raw)
		if err != nil {
			badRequestResponse(w, services.ErrValidationFailed)
			return
		}
		filter.MinFee = &fee
	}
	if raw := r.URL.Query().Get("maxFee"); raw != "" {
		fee, err := decimal.NewFromString(raw)
		if err != nil {
			badRequestResponse(w, services.ErrValidationFailed)
			return
		}
		filter.MaxFee = &fee
	}

	tournaments, err := h.tournamentService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, tournaments); err != nil {
		serverErrorResponse(w, err)
	}
}

func (h *TournamentHandler) GetUpcoming(w http.ResponseWriter, r *http.Request) {
	tournament, err := h.tournamentService.GetUpcoming(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, tournament); err != nil {
		serverErrorResponse(w, err)
	}
}

func (h *TournamentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	tournament, err := h.tournamentService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, tournament); err != nil {
		serverErrorResponse(w, err)
	}
}

func (h *TournamentHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	participants, err := h.tournamentService.ListParticipants(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, participants); err != nil {
		serverErrorResponse(w, err)
	}
}

func (h *TournamentHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, services.ErrNotAuthenticated.Error())
		return
	}

	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	participant, err := h.tournamentService.Join(r.Context(), userID, tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	response := jsonResponse{
		"message":     "successfully joined tournament",
		"participant": participant,
	}
	if err := writeJSON(w, http.StatusCreated, response); err != nil {
		serverErrorResponse(w, err)
	}
}

func urlParamInt(r *http.Request, name string) (int, error) {
	value, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || value <= 0 {
		return 0, services.ErrValidationFailed
	}
	return value, nil
}
