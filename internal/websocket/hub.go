// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/borninthedark/starbase/internal/logging"
	"github.com/borninthedark/starbase/internal/metrics"
)

// Message types pushed to connected dashboard clients.
const (
	MessageTypeRefresh = "dashboard_refresh"
	MessageTypePing    = "ping"
	MessageTypePong    = "pong"
)

// Message is the envelope for all client-bound frames.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// RefreshData is the payload of a dashboard_refresh message.
type RefreshData struct {
	Source    string `json:"source"`
	FetchedAt string `json:"fetched_at"`
}

// Hub tracks active clients and fans broadcast messages out to them.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates an empty hub. Call RunWithContext to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// RunWithContext processes client lifecycle events and broadcasts until
// the context is canceled. Lifecycle events are drained before broadcast
// messages so client state is consistent when a message fans out. On
// shutdown all clients are closed and ctx.Err() is returned, which lets
// a supervisor restart the hub cleanly.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		// Drain pending lifecycle events before touching broadcasts.
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketConnections.Set(float64(total))
	logging.WithComponent("websocket").Info().Int("total_clients", total).Msg("client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketConnections.Set(float64(total))
	logging.WithComponent("websocket").Info().Int("total_clients", total).Msg("client disconnected")
}

// fanOut delivers a message to every client in stable ID order. Clients
// whose send buffer is full are dropped rather than allowed to block the
// hub loop.
func (h *Hub) fanOut(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	for _, client := range clients {
		select {
		case client.send <- msg:
			metrics.WebSocketMessages.WithLabelValues(msg.Type).Inc()
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
	metrics.WebSocketConnections.Set(float64(len(h.clients)))
}

func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	closed := len(h.clients)
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.WebSocketConnections.Set(0)
	logging.WithComponent("websocket").Info().
		Int("clients_closed", closed).
		AnErr("cause", ctx.Err()).
		Msg("hub stopped")
}

// BroadcastRefresh notifies all clients that an upstream dataset changed.
func (h *Hub) BroadcastRefresh(source string, fetchedAt time.Time) {
	h.enqueue(Message{
		Type: MessageTypeRefresh,
		Data: RefreshData{
			Source:    source,
			FetchedAt: fetchedAt.UTC().Format(time.RFC3339),
		},
	})
}

// BroadcastJSON sends an arbitrary typed payload to all clients.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	h.enqueue(Message{Type: messageType, Data: data})
}

func (h *Hub) enqueue(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		logging.WithComponent("websocket").Warn().
			Str("message_type", msg.Type).
			Msg("broadcast channel full, dropping message")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
