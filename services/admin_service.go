package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-hub/models"
	"github.com/Dosada05/tournament-hub/repositories"
	"github.com/shopspring/decimal"
)

// AdminService moderates pending payment transactions and records tournament
// results. Approval is the authoritative settlement path for deposits; see
// the settlement worker for the automatic paths.
type AdminService struct {
	txRunner        repositories.TxRunner
	transactionRepo repositories.TransactionRepository
	participantRepo repositories.ParticipantRepository
	walletRepo      repositories.WalletRepository
	settlement      *SettlementService
	notifier        Notifier
}

func NewAdminService(
	txRunner repositories.TxRunner,
	transactionRepo repositories.TransactionRepository,
	participantRepo repositories.ParticipantRepository,
	walletRepo repositories.WalletRepository,
	settlement *SettlementService,
	notifier Notifier,
) *AdminService {
	return &AdminService{
		txRunner:        txRunner,
		transactionRepo: transactionRepo,
		participantRepo: participantRepo,
		walletRepo:      walletRepo,
		settlement:      settlement,
		notifier:        notifier,
	}
}

// ListPendingDeposits returns pending deposit transactions awaiting moderation.
func (s *AdminService) ListPendingDeposits(ctx context.Context, limit, offset int) ([]models.Transaction, error) {
	pending, err := s.transactionRepo.ListByStatus(ctx, models.StatusPending, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transactions: %w", err)
	}

	deposits := make([]models.Transaction, 0, len(pending))
	for _, txn := range pending {
		if txn.Type == models.TypeDeposit {
			deposits = append(deposits, txn)
		}
	}
	return deposits, nil
}

// ApproveDeposit settles a pending deposit: the transaction is marked
// completed and the wallet credited. Approving a non-pending or non-deposit
// transaction fails with ErrInvalidTransactionState.
func (s *AdminService) ApproveDeposit(ctx context.Context, transactionID int) (*models.Transaction, error) {
	txn, err := s.getTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Status != models.StatusPending || txn.Type != models.TypeDeposit {
		return nil, ErrInvalidTransactionState
	}

	if err := s.settlement.SettleDeposit(ctx, transactionID); err != nil {
		return nil, err
	}
	return s.getTransaction(ctx, transactionID)
}

// RejectTransaction moves a pending transaction to rejected without crediting
// anything. For withdrawals the funds reserved at initiation are refunded.
func (s *AdminService) RejectTransaction(ctx context.Context, transactionID int) (*models.Transaction, error) {
	txn, err := s.getTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Status != models.StatusPending {
		return nil, ErrInvalidTransactionState
	}

	if err := s.settlement.Reject(ctx, transactionID); err != nil {
		return nil, err
	}
	return s.getTransaction(ctx, transactionID)
}

// AwardPrize credits a tournament winner: a completed tournament_win
// transaction, the wallet credit and the final position are written as one
// unit, then the user is notified.
func (s *AdminService) AwardPrize(ctx context.Context, tournamentID, userID int, amount decimal.Decimal, position int) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	registered, err := s.participantRepo.Exists(ctx, nil, userID, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check participant: %w", err)
	}
	if !registered {
		return nil, ErrParticipantNotFound
	}

	details := fmt.Sprintf("Tournament prize (tournament ID: %d, position: %d)", tournamentID, position)
	method := models.MethodWallet
	txn := &models.Transaction{
		UserID:  userID,
		Amount:  amount,
		Type:    models.TypeTournamentWin,
		Method:  &method,
		Status:  models.StatusCompleted,
		Details: &details,
	}

	var wallet *models.Wallet
	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.transactionRepo.Create(ctx, exec, txn); err != nil {
			return err
		}
		wallet, err = s.walletRepo.ApplyDelta(ctx, exec, userID, amount)
		if err != nil {
			return err
		}
		if position > 0 {
			return s.participantRepo.SetPosition(ctx, exec, userID, tournamentID, position)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to award prize: %w", err)
	}

	s.notifier.TransactionUpdate(userID, txn.ID, models.StatusCompleted, &wallet.Balance)
	return txn, nil
}

func (s *AdminService) getTransaction(ctx context.Context, id int) (*models.Transaction, error) {
	txn, err := s.transactionRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}
