package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// TokenVerifier resolves an auth token carried by a live connection to a
// user id. Wired to the JWT verification used by the HTTP middleware.
type TokenVerifier func(token string) (int, error)

// Hub is the registry of live connections and their tournament
// subscriptions. It is created at server start and owned by whoever wires
// the handlers; there is no package-level singleton. Delivery is
// best-effort and unordered: a slow or closed client is skipped, never
// waited on.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[int]map[*Client]bool // tournament id -> subscribers
	users   map[int]map[*Client]bool // user id -> authenticated connections

	verifyToken TokenVerifier
	logger      *slog.Logger
}

func NewHub(verifyToken TokenVerifier, logger *slog.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		rooms:       make(map[int]map[*Client]bool),
		users:       make(map[int]map[*Client]bool),
		verifyToken: verifyToken,
		logger:      logger,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
}

// Unregister removes the client from every subscription set and the
// connection registry, and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}
	delete(h.clients, client)

	for tournamentID, subscribers := range h.rooms {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.rooms, tournamentID)
		}
	}
	if client.userID != 0 {
		if conns, ok := h.users[client.userID]; ok {
			delete(conns, client)
			if len(conns) == 0 {
				delete(h.users, client.userID)
			}
		}
	}

	client.close()
}

func (h *Hub) Subscribe(client *Client, tournamentID int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}
	if _, ok := h.rooms[tournamentID]; !ok {
		h.rooms[tournamentID] = make(map[*Client]bool)
	}
	h.rooms[tournamentID][client] = true
}

func (h *Hub) Unsubscribe(client *Client, tournamentID int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subscribers, ok := h.rooms[tournamentID]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.rooms, tournamentID)
		}
	}
}

// Authenticate tags the connection with the user id resolved from the token,
// enabling per-user notifications.
func (h *Hub) Authenticate(client *Client, token string) {
	userID, err := h.verifyToken(token)
	if err != nil {
		h.logger.Warn("websocket auth rejected", slog.Any("error", err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}
	client.userID = userID
	if _, ok := h.users[userID]; !ok {
		h.users[userID] = make(map[*Client]bool)
	}
	h.users[userID][client] = true
}

// BroadcastToTournament sends the message to every subscriber of the
// tournament.
func (h *Hub) BroadcastToTournament(tournamentID int, message interface{}) {
	payload, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal tournament broadcast", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[tournamentID] {
		client.trySend(payload)
	}
}

// NotifyUser sends the message to every authenticated connection of the user.
func (h *Hub) NotifyUser(userID int, message interface{}) {
	payload, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal user notification", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.users[userID] {
		client.trySend(payload)
	}
}

type inboundMessage struct {
	Type         string `json:"type"`
	TournamentID int    `json:"tournamentId,omitempty"`
	Token        string `json:"token,omitempty"`
}

func (h *Hub) handleMessage(client *Client, raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.logger.Warn("ignoring malformed websocket message", slog.Any("error", err))
		return
	}

	switch msg.Type {
	case "subscribe":
		h.Subscribe(client, msg.TournamentID)
	case "unsubscribe":
		h.Unsubscribe(client, msg.TournamentID)
	case "auth":
		h.Authenticate(client, msg.Token)
	default:
		h.logger.Warn("ignoring unknown websocket message type", slog.String("type", msg.Type))
	}
}
