package ws

import (
	"github.com/Dosada05/tournament-hub/models"
	"github.com/shopspring/decimal"
)

type SlotData struct {
	FilledSlots int `json:"filledSlots"`
	MaxSlots    int `json:"maxSlots"`
}

type TournamentUpdate struct {
	Type         string   `json:"type"`
	TournamentID int      `json:"tournamentId"`
	Data         SlotData `json:"data"`
}

type TransactionUpdate struct {
	Type          string           `json:"type"`
	TransactionID int              `json:"transactionId"`
	Status        string           `json:"status"`
	NewBalance    *decimal.Decimal `json:"newBalance,omitempty"`
}

// Notifier adapts the hub to the event shapes the services broadcast. It
// satisfies services.Notifier.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) TournamentSlots(tournamentID, filledSlots, maxSlots int) {
	n.hub.BroadcastToTournament(tournamentID, TournamentUpdate{
		Type:         "tournament_update",
		TournamentID: tournamentID,
		Data: SlotData{
			FilledSlots: filledSlots,
			MaxSlots:    maxSlots,
		},
	})
}

func (n *Notifier) TransactionUpdate(userID, transactionID int, status models.TransactionStatus, newBalance *decimal.Decimal) {
	n.hub.NotifyUser(userID, TransactionUpdate{
		Type:          "transaction_update",
		TransactionID: transactionID,
		Status:        string(status),
		NewBalance:    newBalance,
	})
}
