// internal/websocket/hub.go
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"lexinsight-service/internal/domain/account"
	"lexinsight-service/internal/pkg/jwt"
	"lexinsight-service/internal/pkg/session"
)

// Event names pushed to connected clients.
const (
	EventConnected          = "connected"
	EventReportGenerated    = "report.generated"
	EventEntitlementUpdated = "entitlement.updated"
)

type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewMessage(eventType string, data interface{}) *Message {
	return &Message{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	}
}

type broadcastMessage struct {
	accountID int64
	message   *Message
}

type Hub struct {
	// Registered clients by account ID
	clients map[int64]map[*Client]bool
	mu      sync.RWMutex

	Register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage

	jwtVerifier    *jwt.Verifier
	sessionManager *session.Manager
	logger         *zap.Logger
}

func NewHub(jwtVerifier *jwt.Verifier, sessionManager *session.Manager, logger *zap.Logger) *Hub {
	return &Hub{
		clients:        make(map[int64]map[*Client]bool),
		Register:       make(chan *Client),
		unregister:     make(chan *Client),
		broadcast:      make(chan *broadcastMessage, 256),
		jwtVerifier:    jwtVerifier,
		sessionManager: sessionManager,
		logger:         logger,
	}
}

// ClientAuth holds the authenticated identity for one connection.
type ClientAuth struct {
	AccountID int64
	SessionID string
	FirmName  string
}

// AuthenticateClient validates the handshake token and backing session.
func (h *Hub) AuthenticateClient(ctx context.Context, token string) (*ClientAuth, error) {
	claims, err := h.jwtVerifier.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}

	blacklisted, err := h.sessionManager.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, ErrTokenBlacklisted
	}

	if _, err := h.sessionManager.GetSession(ctx, claims.AccountID, claims.ID); err != nil {
		return nil, err
	}

	return &ClientAuth{
		AccountID: claims.AccountID,
		SessionID: claims.ID,
		FirmName:  claims.FirmName,
	}, nil
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.accountID] == nil {
		h.clients[client.accountID] = make(map[*Client]bool)
	}
	h.clients[client.accountID][client] = true

	h.logger.Info("websocket client connected",
		zap.Int64("account_id", client.accountID),
		zap.Int("total", h.totalClientsLocked()),
	)

	client.SendMessage(NewMessage(EventConnected, map[string]interface{}{
		"account_id": client.accountID,
		"session_id": client.sessionID,
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.accountID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.Close()

			if len(clients) == 0 {
				delete(h.clients, client.accountID)
			}

			h.logger.Info("websocket client disconnected",
				zap.Int64("account_id", client.accountID),
				zap.Int("total", h.totalClientsLocked()),
			)
		}
	}
}

func (h *Hub) deliver(msg *broadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.clients[msg.accountID]; ok {
		for client := range clients {
			client.SendMessage(msg.message)
		}
	}
}

// NotifyReportGenerated pushes a report completion event to the account.
func (h *Hub) NotifyReportGenerated(accountID int64, reference string, status account.StatusView) {
	h.broadcast <- &broadcastMessage{
		accountID: accountID,
		message: NewMessage(EventReportGenerated, map[string]interface{}{
			"reference": reference,
			"status":    status,
		}),
	}
}

// NotifyEntitlementUpdated pushes an entitlement change to the account.
func (h *Hub) NotifyEntitlementUpdated(accountID int64, status account.StatusView) {
	h.broadcast <- &broadcastMessage{
		accountID: accountID,
		message:   NewMessage(EventEntitlementUpdated, status),
	}
}

// ConnectedClients returns the connection count for one account.
func (h *Hub) ConnectedClients(accountID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.clients[accountID]; ok {
		return len(clients)
	}
	return 0
}

func (h *Hub) totalClientsLocked() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
	}
	h.clients = make(map[int64]map[*Client]bool)
}

// marshal is shared by the client write pump.
func marshal(msg *Message) ([]byte, error) {
	return json.Marshal(msg)
}
