package models

import "time"

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone"`
	PlayerID     *string   `json:"player_id,omitempty"`
	Email        *string   `json:"email,omitempty"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`

	Wallet *Wallet `json:"wallet,omitempty"`
}
