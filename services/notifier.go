package services

import (
	"github.com/Dosada05/tournament-hub/models"
	"github.com/shopspring/decimal"
)

// Notifier pushes state-change events to live clients. Delivery is
// best-effort: a client that is offline when an event fires never receives
// it and is expected to re-fetch authoritative state on reconnect.
type Notifier interface {
	// TournamentSlots is broadcast to every subscriber of the tournament.
	TournamentSlots(tournamentID, filledSlots, maxSlots int)
	// TransactionUpdate is delivered to the user's authenticated connections.
	// newBalance is nil when the settlement did not change the balance.
	TransactionUpdate(userID, transactionID int, status models.TransactionStatus, newBalance *decimal.Decimal)
}

// NopNotifier is used where no live channel is wired, e.g. in tests.
type NopNotifier struct{}

func (NopNotifier) TournamentSlots(int, int, int) {}

func (NopNotifier) TransactionUpdate(int, int, models.TransactionStatus, *decimal.Decimal) {}
