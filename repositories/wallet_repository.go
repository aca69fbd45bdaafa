package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-hub/models"
	"github.com/shopspring/decimal"
)

var (
	ErrWalletNotFound          = errors.New("wallet not found")
	ErrWalletInsufficientFunds = errors.New("wallet has insufficient funds")
)

type WalletRepository interface {
	Create(ctx context.Context, exec SQLExecutor, userID int) (*models.Wallet, error)
	GetByUserID(ctx context.Context, exec SQLExecutor, userID int) (*models.Wallet, error)
	// ApplyDelta adds delta (positive or negative) to the balance as a single
	// atomic arithmetic update and returns the updated wallet.
	ApplyDelta(ctx context.Context, exec SQLExecutor, userID int, delta decimal.Decimal) (*models.Wallet, error)
	// DebitGuarded subtracts amount only if the balance covers it, so two
	// concurrent debits can never overdraw the wallet.
	DebitGuarded(ctx context.Context, exec SQLExecutor, userID int, amount decimal.Decimal) (*models.Wallet, error)
}

type postgresWalletRepository struct {
	db *sql.DB
}

func NewPostgresWalletRepository(db *sql.DB) WalletRepository {
	return &postgresWalletRepository{db: db}
}

func (r *postgresWalletRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresWalletRepository) Create(ctx context.Context, exec SQLExecutor, userID int) (*models.Wallet, error) {
	query := `
		INSERT INTO wallets (user_id)
		VALUES ($1)
		RETURNING id, user_id, balance`

	w := &models.Wallet{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, userID).Scan(&w.ID, &w.UserID, &w.Balance)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return w, nil
}

func (r *postgresWalletRepository) GetByUserID(ctx context.Context, exec SQLExecutor, userID int) (*models.Wallet, error) {
	query := `SELECT id, user_id, balance FROM wallets WHERE user_id = $1`

	w := &models.Wallet{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, userID).Scan(&w.ID, &w.UserID, &w.Balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return w, nil
}

func (r *postgresWalletRepository) ApplyDelta(ctx context.Context, exec SQLExecutor, userID int, delta decimal.Decimal) (*models.Wallet, error) {
	query := `
		UPDATE wallets
		SET balance = balance + $1
		WHERE user_id = $2
		RETURNING id, user_id, balance`

	w := &models.Wallet{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, delta, userID).Scan(&w.ID, &w.UserID, &w.Balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to apply wallet delta: %w", err)
	}
	return w, nil
}

func (r *postgresWalletRepository) DebitGuarded(ctx context.Context, exec SQLExecutor, userID int, amount decimal.Decimal) (*models.Wallet, error) {
	query := `
		UPDATE wallets
		SET balance = balance - $1
		WHERE user_id = $2 AND balance >= $1
		RETURNING id, user_id, balance`

	executor := r.getExecutor(exec)
	w := &models.Wallet{}
	err := executor.QueryRowContext(ctx, query, amount, userID).Scan(&w.ID, &w.UserID, &w.Balance)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to debit wallet: %w", err)
	}

	// The guard rejected the update: distinguish a missing wallet from an
	// insufficient balance.
	var exists bool
	checkErr := executor.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM wallets WHERE user_id = $1)`, userID).Scan(&exists)
	if checkErr != nil {
		return nil, fmt.Errorf("failed to check wallet existence: %w", checkErr)
	}
	if !exists {
		return nil, ErrWalletNotFound
	}
	return nil, ErrWalletInsufficientFunds
}
