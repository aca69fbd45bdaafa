package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-hub/models"
	"github.com/Dosada05/tournament-hub/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentRequestInput struct {
	Amount decimal.Decimal      `json:"amount"`
	Method models.PaymentMethod `json:"method"`
	Phone  string               `json:"phone"`
}

type WalletService interface {
	GetWallet(ctx context.Context, userID int) (*models.Wallet, error)
	// ApplyDelta atomically adds amount (positive or negative) to the user's
	// balance and returns the updated wallet.
	ApplyDelta(ctx context.Context, userID int, amount decimal.Decimal) (*models.Wallet, error)
	// InitiateDeposit records a pending deposit and returns immediately.
	// The balance is only credited when the transaction settles.
	InitiateDeposit(ctx context.Context, userID int, input PaymentRequestInput) (*models.Transaction, error)
	// InitiateWithdraw reserves the funds immediately (so the same balance
	// cannot be withdrawn twice while pending) and records a pending
	// withdrawal. Settlement later flips the status without touching the
	// balance again.
	InitiateWithdraw(ctx context.Context, userID int, input PaymentRequestInput) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID, limit, offset int) ([]models.Transaction, error)
}

type walletService struct {
	txRunner        repositories.TxRunner
	walletRepo      repositories.WalletRepository
	transactionRepo repositories.TransactionRepository
}

func NewWalletService(
	txRunner repositories.TxRunner,
	walletRepo repositories.WalletRepository,
	transactionRepo repositories.TransactionRepository,
) WalletService {
	return &walletService{
		txRunner:        txRunner,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
	}
}

func (s *walletService) GetWallet(ctx context.Context, userID int) (*models.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

func (s *walletService) ApplyDelta(ctx context.Context, userID int, amount decimal.Decimal) (*models.Wallet, error) {
	wallet, err := s.walletRepo.ApplyDelta(ctx, nil, userID, amount)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to apply wallet delta: %w", err)
	}
	return wallet, nil
}

func validatePaymentRequest(input PaymentRequestInput) error {
	if !input.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if input.Method != models.MethodBkash && input.Method != models.MethodNagad {
		return ErrInvalidPaymentMethod
	}
	return nil
}

func (s *walletService) InitiateDeposit(ctx context.Context, userID int, input PaymentRequestInput) (*models.Transaction, error) {
	if err := validatePaymentRequest(input); err != nil {
		return nil, err
	}

	referenceID := uuid.NewString()
	details := fmt.Sprintf("Deposit via %s from %s", input.Method, input.Phone)
	method := input.Method

	txn := &models.Transaction{
		UserID:      userID,
		Amount:      input.Amount,
		Type:        models.TypeDeposit,
		Method:      &method,
		Status:      models.StatusPending,
		ReferenceID: &referenceID,
		Details:     &details,
	}

	if err := s.transactionRepo.Create(ctx, nil, txn); err != nil {
		return nil, fmt.Errorf("failed to record deposit: %w", err)
	}
	return txn, nil
}

func (s *walletService) InitiateWithdraw(ctx context.Context, userID int, input PaymentRequestInput) (*models.Transaction, error) {
	if err := validatePaymentRequest(input); err != nil {
		return nil, err
	}

	referenceID := uuid.NewString()
	details := fmt.Sprintf("Withdraw via %s to %s", input.Method, input.Phone)
	method := input.Method

	txn := &models.Transaction{
		UserID:      userID,
		Amount:      input.Amount.Neg(),
		Type:        models.TypeWithdraw,
		Method:      &method,
		Status:      models.StatusPending,
		ReferenceID: &referenceID,
		Details:     &details,
	}

	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.walletRepo.DebitGuarded(ctx, exec, userID, input.Amount); err != nil {
			return err
		}
		return s.transactionRepo.Create(ctx, exec, txn)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrWalletNotFound):
			return nil, ErrWalletNotFound
		case errors.Is(err, repositories.ErrWalletInsufficientFunds):
			return nil, ErrInsufficientBalance
		}
		return nil, fmt.Errorf("failed to record withdrawal: %w", err)
	}
	return txn, nil
}

func (s *walletService) ListTransactions(ctx context.Context, userID, limit, offset int) ([]models.Transaction, error) {
	transactions, err := s.transactionRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}
