package services

import "errors"

// Sentinel errors shared across services and the HTTP error mapping.
var (
	// Authentication / authorization
	ErrNotAuthenticated   = errors.New("authentication required")
	ErrForbidden          = errors.New("operation not allowed for the current user")
	ErrInvalidCredentials = errors.New("invalid username or password")

	// Not found
	ErrUserNotFound        = errors.New("user not found")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	// Validation and business rules
	ErrValidationFailed     = errors.New("validation failed")
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrInvalidPaymentMethod = errors.New("unsupported payment method")
	ErrInvalidPhone         = errors.New("phone number must be 11 digits")
	ErrPasswordTooShort     = errors.New("password is too short")

	// Conflicts
	ErrUsernameTaken     = errors.New("username is already in use")
	ErrPhoneTaken        = errors.New("phone number is already in use")
	ErrAlreadyRegistered = errors.New("user is already registered for this tournament")

	// Wallet / tournament state
	ErrTournamentFull          = errors.New("tournament is full")
	ErrInsufficientBalance     = errors.New("insufficient wallet balance")
	ErrInvalidTransactionState = errors.New("transaction is not in the expected status")
)
