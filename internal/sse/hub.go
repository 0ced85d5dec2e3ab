package sse

import (
	"encoding/json"
	"sync"

	"github.com/bachkhoacons/asset-approval/internal/application/port"
	"go.uber.org/zap"
)

// Event is one Server-Sent Event as delivered to a client
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client is one connected SSE consumer
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// Hub manages SSE client connections and fans document events out to
// them. It implements port.EventPublisher so services can push without
// knowing about HTTP.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

// NewHub creates a new SSE hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Info("SSE client registered",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
		zap.Int("total", len(h.clients)))
}

// Unregister removes a client and closes its event channel
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Info("SSE client unregistered",
			zap.String("client_id", clientID),
			zap.Int("total", len(h.clients)))
	}
}

// Broadcast sends an event to every connected client. A client whose
// buffer is full misses the event rather than blocking the hub.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("SSE client buffer full, dropping event",
				zap.String("client_id", client.ID))
		}
	}
}

// Publish implements port.EventPublisher: document lifecycle changes go
// out as "document_update" events so list views can refresh
func (h *Hub) Publish(event port.DocumentEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal document event", zap.Error(err))
		return
	}
	h.Broadcast(Event{
		EventType: "document_update",
		Data:      string(data),
	})
}
