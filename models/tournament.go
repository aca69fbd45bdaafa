package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TournamentMode matches the tournament_mode ENUM in the database.
type TournamentMode string

const (
	ModeSolo  TournamentMode = "solo"
	ModeDuo   TournamentMode = "duo"
	ModeSquad TournamentMode = "squad"
)

func (m TournamentMode) Valid() bool {
	switch m {
	case ModeSolo, ModeDuo, ModeSquad:
		return true
	}
	return false
}

// TournamentStatus matches the tournament_status ENUM in the database.
type TournamentStatus string

const (
	TournamentUpcoming  TournamentStatus = "upcoming"
	TournamentOngoing   TournamentStatus = "ongoing"
	TournamentCompleted TournamentStatus = "completed"
)

func (s TournamentStatus) Valid() bool {
	switch s {
	case TournamentUpcoming, TournamentOngoing, TournamentCompleted:
		return true
	}
	return false
}

type Tournament struct {
	ID          int              `json:"id"`
	Title       string           `json:"title"`
	Description *string          `json:"description,omitempty"`
	EntryFee    decimal.Decimal  `json:"entry_fee"`
	PrizePool   decimal.Decimal  `json:"prize_pool"`
	MaxSlots    int              `json:"max_slots"`
	FilledSlots int              `json:"filled_slots"`
	StartTime   time.Time        `json:"start_time"`
	EndTime     *time.Time       `json:"end_time,omitempty"`
	Mode        TournamentMode   `json:"mode"`
	Status      TournamentStatus `json:"status"`
	BannerKey   *string          `json:"-"`
	BannerURL   *string          `json:"banner_url,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}
