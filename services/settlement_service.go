package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-hub/models"
	"github.com/Dosada05/tournament-hub/repositories"
)

// SettlementService finalizes pending deposit/withdraw transactions. This is
// where a real payment-gateway callback would plug in; both the background
// worker and the admin approval flow go through the same guarded status
// transition, so a transaction can only ever settle once.
type SettlementService struct {
	txRunner        repositories.TxRunner
	walletRepo      repositories.WalletRepository
	transactionRepo repositories.TransactionRepository
	notifier        Notifier
}

func NewSettlementService(
	txRunner repositories.TxRunner,
	walletRepo repositories.WalletRepository,
	transactionRepo repositories.TransactionRepository,
	notifier Notifier,
) *SettlementService {
	return &SettlementService{
		txRunner:        txRunner,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		notifier:        notifier,
	}
}

// SettleDeposit marks a pending deposit completed and credits the wallet,
// both inside one database transaction. A second call for the same id fails
// with ErrInvalidTransactionState and credits nothing.
func (s *SettlementService) SettleDeposit(ctx context.Context, transactionID int) error {
	txn, err := s.getTransaction(ctx, transactionID)
	if err != nil {
		return err
	}
	if txn.Type != models.TypeDeposit {
		return ErrInvalidTransactionState
	}

	var wallet *models.Wallet
	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.transactionRepo.TransitionStatus(ctx, exec, txn.ID, models.StatusPending, models.StatusCompleted); err != nil {
			return err
		}
		wallet, err = s.walletRepo.ApplyDelta(ctx, exec, txn.UserID, txn.Amount)
		return err
	})
	if err != nil {
		return s.mapSettlementError(err)
	}

	s.notifier.TransactionUpdate(txn.UserID, txn.ID, models.StatusCompleted, &wallet.Balance)
	return nil
}

// SettleWithdraw marks a pending withdrawal completed. The balance was
// already debited when the withdrawal was initiated, so only the status
// changes here.
func (s *SettlementService) SettleWithdraw(ctx context.Context, transactionID int) error {
	txn, err := s.getTransaction(ctx, transactionID)
	if err != nil {
		return err
	}
	if txn.Type != models.TypeWithdraw {
		return ErrInvalidTransactionState
	}

	if err := s.transactionRepo.TransitionStatus(ctx, nil, txn.ID, models.StatusPending, models.StatusCompleted); err != nil {
		return s.mapSettlementError(err)
	}

	s.notifier.TransactionUpdate(txn.UserID, txn.ID, models.StatusCompleted, nil)
	return nil
}

// Reject moves a pending transaction to rejected. A rejected withdrawal
// refunds the reserved funds, keeping the balance equal to the sum of the
// user's completed transaction amounts.
func (s *SettlementService) Reject(ctx context.Context, transactionID int) error {
	txn, err := s.getTransaction(ctx, transactionID)
	if err != nil {
		return err
	}

	var wallet *models.Wallet
	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.transactionRepo.TransitionStatus(ctx, exec, txn.ID, models.StatusPending, models.StatusRejected); err != nil {
			return err
		}
		if txn.Type == models.TypeWithdraw {
			wallet, err = s.walletRepo.ApplyDelta(ctx, exec, txn.UserID, txn.Amount.Neg())
			return err
		}
		return nil
	})
	if err != nil {
		return s.mapSettlementError(err)
	}

	if wallet != nil {
		s.notifier.TransactionUpdate(txn.UserID, txn.ID, models.StatusRejected, &wallet.Balance)
	} else {
		s.notifier.TransactionUpdate(txn.UserID, txn.ID, models.StatusRejected, nil)
	}
	return nil
}

func (s *SettlementService) getTransaction(ctx context.Context, id int) (*models.Transaction, error) {
	txn, err := s.transactionRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

func (s *SettlementService) mapSettlementError(err error) error {
	if errors.Is(err, repositories.ErrTransactionStateConflict) {
		return ErrInvalidTransactionState
	}
	return fmt.Errorf("settlement failed: %w", err)
}
