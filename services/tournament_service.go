package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Dosada05/tournament-hub/models"
	"github.com/Dosada05/tournament-hub/repositories"
	"github.com/Dosada05/tournament-hub/storage"
	"github.com/shopspring/decimal"
)

type CreateTournamentInput struct {
	Title       string                `json:"title"`
	Description *string               `json:"description,omitempty"`
	EntryFee    decimal.Decimal       `json:"entry_fee"`
	PrizePool   decimal.Decimal       `json:"prize_pool"`
	MaxSlots    int                   `json:"max_slots"`
	StartTime   time.Time             `json:"start_time"`
	EndTime     *time.Time            `json:"end_time,omitempty"`
	Mode        models.TournamentMode `json:"mode"`
}

type TournamentService struct {
	txRunner        repositories.TxRunner
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	walletRepo      repositories.WalletRepository
	transactionRepo repositories.TransactionRepository
	uploader        storage.FileUploader
	notifier        Notifier
}

func NewTournamentService(
	txRunner repositories.TxRunner,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	walletRepo repositories.WalletRepository,
	transactionRepo repositories.TransactionRepository,
	uploader storage.FileUploader,
	notifier Notifier,
) *TournamentService {
	return &TournamentService{
		txRunner:        txRunner,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		uploader:        uploader,
		notifier:        notifier,
	}
}

func (s *TournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	for i := range tournaments {
		s.populateBannerURL(&tournaments[i])
	}
	return tournaments, nil
}

func (s *TournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	s.populateBannerURL(tournament)
	return tournament, nil
}

func (s *TournamentService) GetUpcoming(ctx context.Context) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetUpcoming(ctx, time.Now())
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get upcoming tournament: %w", err)
	}
	s.populateBannerURL(tournament)
	return tournament, nil
}

func (s *TournamentService) ListParticipants(ctx context.Context, tournamentID int) ([]models.Participant, error) {
	if _, err := s.GetByID(ctx, tournamentID); err != nil {
		return nil, err
	}
	participants, err := s.participantRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return participants, nil
}

// Join enrolls the user in the tournament. The entry-fee transaction record,
// the wallet debit, the participant row and the slot increment are one
// failure domain: they all happen inside a single database transaction, so a
// debited wallet can never be left without a participant row.
//
// Preconditions are checked in order, first failure wins: tournament exists,
// has a free slot, user not already registered, balance covers the fee. The
// slot increment and the debit are additionally guarded at the storage layer,
// so two concurrent joins racing for the last slot cannot both succeed.
func (s *TournamentService) Join(ctx context.Context, userID, tournamentID int) (*models.Participant, error) {
	var (
		participant *models.Participant
		filledSlots int
		maxSlots    int
	)

	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if tournament.FilledSlots >= tournament.MaxSlots {
			return ErrTournamentFull
		}

		registered, err := s.participantRepo.Exists(ctx, exec, userID, tournamentID)
		if err != nil {
			return err
		}
		if registered {
			return ErrAlreadyRegistered
		}

		wallet, err := s.walletRepo.GetByUserID(ctx, exec, userID)
		if err != nil {
			return err
		}
		if wallet.Balance.LessThan(tournament.EntryFee) {
			return ErrInsufficientBalance
		}

		details := fmt.Sprintf("Joined tournament: %s (ID: %d)", tournament.Title, tournament.ID)
		method := models.MethodWallet
		entry := &models.Transaction{
			UserID:  userID,
			Amount:  tournament.EntryFee.Neg(),
			Type:    models.TypeTournamentEntry,
			Method:  &method,
			Status:  models.StatusCompleted,
			Details: &details,
		}
		if err := s.transactionRepo.Create(ctx, exec, entry); err != nil {
			return err
		}

		if tournament.EntryFee.IsPositive() {
			if _, err := s.walletRepo.DebitGuarded(ctx, exec, userID, tournament.EntryFee); err != nil {
				return err
			}
		}

		p := &models.Participant{
			TournamentID: tournamentID,
			UserID:       userID,
			IsPaid:       true,
		}
		if err := s.participantRepo.Create(ctx, exec, p); err != nil {
			return err
		}

		filledSlots, maxSlots, err = s.tournamentRepo.FillSlot(ctx, exec, tournamentID)
		if err != nil {
			return err
		}

		participant = p
		return nil
	})
	if err != nil {
		return nil, mapJoinError(err)
	}

	s.notifier.TournamentSlots(tournamentID, filledSlots, maxSlots)
	return participant, nil
}

func mapJoinError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrTournamentSlotsFull):
		return ErrTournamentFull
	case errors.Is(err, repositories.ErrParticipantConflict):
		return ErrAlreadyRegistered
	case errors.Is(err, repositories.ErrWalletNotFound):
		return ErrWalletNotFound
	case errors.Is(err, repositories.ErrWalletInsufficientFunds):
		return ErrInsufficientBalance
	case errors.Is(err, ErrTournamentFull),
		errors.Is(err, ErrAlreadyRegistered),
		errors.Is(err, ErrInsufficientBalance):
		return err
	default:
		return fmt.Errorf("failed to join tournament: %w", err)
	}
}

func (s *TournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Title == "" || input.MaxSlots <= 0 || input.StartTime.IsZero() {
		return nil, ErrValidationFailed
	}
	if !input.Mode.Valid() {
		return nil, ErrValidationFailed
	}
	if input.EntryFee.IsNegative() || input.PrizePool.IsNegative() {
		return nil, ErrValidationFailed
	}

	tournament := &models.Tournament{
		Title:       input.Title,
		Description: input.Description,
		EntryFee:    input.EntryFee,
		PrizePool:   input.PrizePool,
		MaxSlots:    input.MaxSlots,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Mode:        input.Mode,
		Status:      models.TournamentUpcoming,
	}
	if err := s.tournamentRepo.Create(ctx, nil, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return tournament, nil
}

// UploadBanner stores the tournament banner and remembers its object key.
// The previous banner, if any, is removed best-effort.
func (s *TournamentService) UploadBanner(ctx context.Context, tournamentID int, contentType string, banner io.Reader) (*models.Tournament, error) {
	if s.uploader == nil {
		return nil, ErrValidationFailed
	}

	tournament, err := s.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("tournaments/%d/banner", tournamentID)
	result, err := s.uploader.Upload(ctx, key, contentType, banner)
	if err != nil {
		return nil, fmt.Errorf("failed to upload banner: %w", err)
	}

	if tournament.BannerKey != nil && *tournament.BannerKey != result.Key {
		_ = s.uploader.Delete(ctx, *tournament.BannerKey)
	}

	if err := s.tournamentRepo.UpdateBannerKey(ctx, tournamentID, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to save banner key: %w", err)
	}
	tournament.BannerKey = &result.Key
	s.populateBannerURL(tournament)
	return tournament, nil
}

func (s *TournamentService) populateBannerURL(t *models.Tournament) {
	if s.uploader == nil || t.BannerKey == nil {
		return
	}
	url := s.uploader.GetPublicURL(*t.BannerKey)
	t.BannerURL = &url
}
