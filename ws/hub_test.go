package ws

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	return NewHub(func(token string) (int, error) {
		if token == "valid-token" {
			return 42, nil
		}
		return 0, errors.New("bad token")
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestClient(hub *Hub) *Client {
	client := NewClient(hub, nil)
	hub.Register(client)
	return client
}

// received drains one queued message, or returns nil if none is pending.
func received(client *Client) []byte {
	select {
	case msg := <-client.send:
		return msg
	default:
		return nil
	}
}

func TestHub_BroadcastToTournament(t *testing.T) {
	t.Run("only subscribers receive the event", func(t *testing.T) {
		hub := newTestHub()
		subscriber := newTestClient(hub)
		bystander := newTestClient(hub)

		hub.Subscribe(subscriber, 7)
		hub.BroadcastToTournament(7, TournamentUpdate{
			Type:         "tournament_update",
			TournamentID: 7,
			Data:         SlotData{FilledSlots: 3, MaxSlots: 10},
		})

		payload := received(subscriber)
		require.NotNil(t, payload)
		assert.Nil(t, received(bystander))

		var event map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(payload, &event))
		assert.Contains(t, event, "tournamentId")
		assert.Contains(t, event, "data")

		var data SlotData
		require.NoError(t, json.Unmarshal(event["data"], &data))
		assert.Equal(t, 3, data.FilledSlots)
		assert.Equal(t, 10, data.MaxSlots)
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		hub := newTestHub()
		client := newTestClient(hub)

		hub.Subscribe(client, 7)
		hub.Unsubscribe(client, 7)
		hub.BroadcastToTournament(7, TournamentUpdate{Type: "tournament_update", TournamentID: 7})

		assert.Nil(t, received(client))
	})

	t.Run("broadcast to an empty room is a no-op", func(t *testing.T) {
		hub := newTestHub()
		hub.BroadcastToTournament(99, TournamentUpdate{Type: "tournament_update", TournamentID: 99})
	})
}

func TestHub_Authenticate(t *testing.T) {
	t.Run("valid token enables user notifications", func(t *testing.T) {
		hub := newTestHub()
		client := newTestClient(hub)

		hub.Authenticate(client, "valid-token")
		hub.NotifyUser(42, TransactionUpdate{Type: "transaction_update", TransactionID: 5, Status: "completed"})

		payload := received(client)
		require.NotNil(t, payload)

		var event TransactionUpdate
		require.NoError(t, json.Unmarshal(payload, &event))
		assert.Equal(t, 5, event.TransactionID)
		assert.Equal(t, "completed", event.Status)
	})

	t.Run("invalid token is ignored", func(t *testing.T) {
		hub := newTestHub()
		client := newTestClient(hub)

		hub.Authenticate(client, "forged")
		hub.NotifyUser(42, TransactionUpdate{Type: "transaction_update", TransactionID: 5})

		assert.Nil(t, received(client))
	})

	t.Run("notifications reach every connection of the user", func(t *testing.T) {
		hub := newTestHub()
		first := newTestClient(hub)
		second := newTestClient(hub)

		hub.Authenticate(first, "valid-token")
		hub.Authenticate(second, "valid-token")
		hub.NotifyUser(42, TransactionUpdate{Type: "transaction_update", TransactionID: 5})

		assert.NotNil(t, received(first))
		assert.NotNil(t, received(second))
	})
}

func TestHub_Unregister(t *testing.T) {
	hub := newTestHub()
	client := newTestClient(hub)

	hub.Subscribe(client, 7)
	hub.Authenticate(client, "valid-token")
	hub.Unregister(client)

	// Neither path may deliver to, or panic on, the removed client.
	hub.BroadcastToTournament(7, TournamentUpdate{Type: "tournament_update", TournamentID: 7})
	hub.NotifyUser(42, TransactionUpdate{Type: "transaction_update", TransactionID: 5})

	// Unregistering twice is safe.
	hub.Unregister(client)

	// A removed client cannot resubscribe.
	hub.Subscribe(client, 7)
	hub.BroadcastToTournament(7, TournamentUpdate{Type: "tournament_update", TournamentID: 7})
}

func TestHub_HandleMessage(t *testing.T) {
	t.Run("subscribe and unsubscribe via wire messages", func(t *testing.T) {
		hub := newTestHub()
		client := newTestClient(hub)

		hub.handleMessage(client, []byte(`{"type":"subscribe","tournamentId":7}`))
		hub.BroadcastToTournament(7, TournamentUpdate{Type: "tournament_update", TournamentID: 7})
		assert.NotNil(t, received(client))

		hub.handleMessage(client, []byte(`{"type":"unsubscribe","tournamentId":7}`))
		hub.BroadcastToTournament(7, TournamentUpdate{Type: "tournament_update", TournamentID: 7})
		assert.Nil(t, received(client))
	})

	t.Run("auth via wire message", func(t *testing.T) {
		hub := newTestHub()
		client := newTestClient(hub)

		hub.handleMessage(client, []byte(`{"type":"auth","token":"valid-token"}`))
		hub.NotifyUser(42, TransactionUpdate{Type: "transaction_update", TransactionID: 5})
		assert.NotNil(t, received(client))
	})

	t.Run("malformed and unknown messages are ignored", func(t *testing.T) {
		hub := newTestHub()
		client := newTestClient(hub)

		hub.handleMessage(client, []byte(`not json`))
		hub.handleMessage(client, []byte(`{"type":"dance"}`))
	})
}

func TestNotifier_EventShapes(t *testing.T) {
	hub := newTestHub()
	notifier := NewNotifier(hub)

	subscriber := newTestClient(hub)
	hub.Subscribe(subscriber, 7)
	user := newTestClient(hub)
	hub.Authenticate(user, "valid-token")

	notifier.TournamentSlots(7, 4, 10)
	payload := received(subscriber)
	require.NotNil(t, payload)
	assert.JSONEq(t, `{"type":"tournament_update","tournamentId":7,"data":{"filledSlots":4,"maxSlots":10}}`, string(payload))

	balance := decimal.NewFromInt(1000)
	notifier.TransactionUpdate(42, 5, "completed", &balance)
	payload = received(user)
	require.NotNil(t, payload)
	assert.JSONEq(t, `{"type":"transaction_update","transactionId":5,"status":"completed","newBalance":"1000"}`, string(payload))
}
