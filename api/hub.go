package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"citipulse/models"

	"go.uber.org/zap"
)

// Message is the envelope pushed to websocket clients
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// TickPayload is broadcast after every committed tick
type TickPayload struct {
	Timestamp time.Time            `json:"timestamp"`
	Campus    models.CampusSummary `json:"campus"`
	Alerts    []models.Alert       `json:"alerts"`
}

// Hub maintains the set of active websocket clients and broadcasts tick snapshots
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	campus     func() models.CampusSummary
	logger     *zap.Logger
}

func NewHub(campus func() models.CampusSummary, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		campus:     campus,
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("WebSocket client registered", zap.String("remote_addr", client.remoteAddr()))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info("WebSocket client unregistered", zap.String("remote_addr", client.remoteAddr()))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.logger.Warn("WebSocket client send buffer full, removing",
						zap.String("remote_addr", client.remoteAddr()))
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Name() string { return "websocket" }

// Publish broadcasts the campus summary and the alerts raised by the tick
func (h *Hub) Publish(ctx context.Context, report models.TickReport) error {
	payload := TickPayload{
		Timestamp: report.Timestamp,
		Campus:    h.campus(),
		Alerts:    report.Alerts,
	}
	if payload.Alerts == nil {
		payload.Alerts = []models.Alert{}
	}

	messageBytes, err := json.Marshal(Message{Type: "tick", Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal tick broadcast: %w", err)
	}

	select {
	case h.broadcast <- messageBytes:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
