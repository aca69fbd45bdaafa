package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType matches the transaction_type ENUM in the database.
type TransactionType string

const (
	TypeDeposit         TransactionType = "deposit"
	TypeWithdraw        TransactionType = "withdraw"
	TypeTournamentEntry TransactionType = "tournament_entry"
	TypeTournamentWin   TransactionType = "tournament_win"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TypeDeposit, TypeWithdraw, TypeTournamentEntry, TypeTournamentWin:
		return true
	}
	return false
}

// PaymentMethod matches the payment_method ENUM in the database.
type PaymentMethod string

const (
	MethodBkash  PaymentMethod = "bkash"
	MethodNagad  PaymentMethod = "nagad"
	MethodWallet PaymentMethod = "wallet"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodBkash, MethodNagad, MethodWallet:
		return true
	}
	return false
}

// TransactionStatus matches the transaction_status ENUM in the database.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusRejected  TransactionStatus = "rejected"
	StatusFailed    TransactionStatus = "failed"
)

// Transaction is an immutable audit row. Amounts are signed: debits
// (withdrawals, tournament entries) are negative, credits (deposits,
// tournament wins) are positive. Status transitions update the same row,
// never create a new one.
type Transaction struct {
	ID          int               `json:"id"`
	UserID      int               `json:"user_id"`
	Amount      decimal.Decimal   `json:"amount"`
	Type        TransactionType   `json:"type"`
	Method      *PaymentMethod    `json:"method,omitempty"`
	Status      TransactionStatus `json:"status"`
	ReferenceID *string           `json:"reference_id,omitempty"`
	Details     *string           `json:"details,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
