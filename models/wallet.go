package models

import "github.com/shopspring/decimal"

// Wallet holds the cached balance for a user. The balance is only ever
// mutated through atomic deltas at the storage layer and must equal the sum
// of the user's completed transaction amounts.
type Wallet struct {
	ID      int             `json:"id"`
	UserID  int             `json:"user_id"`
	Balance decimal.Decimal `json:"balance"`
}
