package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-hub/models"
	"github.com/Dosada05/tournament-hub/repositories"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type RegisterInput struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Phone    string  `json:"phone"`
	PlayerID *string `json:"player_id,omitempty"`
	Email    *string `json:"email,omitempty"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthService interface {
	// Register creates the user and their wallet in one transaction, so a
	// user row can never exist without a wallet.
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*models.User, error)
	GetCurrentUser(ctx context.Context, userID int) (*models.User, error)
}

type authService struct {
	txRunner   repositories.TxRunner
	userRepo   repositories.UserRepository
	walletRepo repositories.WalletRepository
}

func NewAuthService(
	txRunner repositories.TxRunner,
	userRepo repositories.UserRepository,
	walletRepo repositories.WalletRepository,
) AuthService {
	return &authService{
		txRunner:   txRunner,
		userRepo:   userRepo,
		walletRepo: walletRepo,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if input.Username == "" || input.Phone == "" {
		return nil, ErrValidationFailed
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     input.Username,
		PasswordHash: string(hashedPassword),
		Phone:        input.Phone,
		PlayerID:     input.PlayerID,
		Email:        input.Email,
	}

	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.userRepo.Create(ctx, exec, user); err != nil {
			return err
		}
		wallet, err := s.walletRepo.Create(ctx, exec, user.ID)
		if err != nil {
			return err
		}
		user.Wallet = wallet
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserUsernameConflict):
			return nil, ErrUsernameTaken
		case errors.Is(err, repositories.ErrUserPhoneConflict):
			return nil, ErrPhoneTaken
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, nil, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	user.PasswordHash = ""
	user.Wallet = wallet
	return user, nil
}

func (s *authService) GetCurrentUser(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	user.PasswordHash = ""
	user.Wallet = wallet
	return user, nil
}
