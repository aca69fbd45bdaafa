package models

import "time"

type Participant struct {
	ID           int       `json:"id"`
	TournamentID int       `json:"tournament_id"`
	UserID       int       `json:"user_id"`
	RegisteredAt time.Time `json:"registered_at"`
	Position     *int      `json:"position,omitempty"`
	IsPaid       bool      `json:"is_paid"`
}
