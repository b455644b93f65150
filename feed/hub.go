// Package feed pushes ledger events to websocket observers such as
// explorers and indexers.
package feed

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/blocknova/tokensale/token"
)

// Hub broadcasts every ledger event as a JSON frame to all connected
// websocket clients.
type Hub struct {
	upgrader websocket.Upgrader
	clients  map[*websocket.Conn]bool
	logger   *logrus.Logger
	mu       sync.RWMutex
}

func NewHub(logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.New()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]bool),
		logger:  logger,
	}
}

// Run consumes a ledger event subscription and broadcasts until the channel
// is closed by Unsubscribe. Intended to run in its own goroutine.
func (h *Hub) Run(events <-chan token.Event) {
	for event := range events {
		h.Broadcast(event)
	}
}

// Broadcast sends one event to every connected client, dropping clients
// whose connection fails.
func (h *Hub) Broadcast(event token.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(event); err != nil {
			h.logger.WithError(err).Debug("dropping websocket client")
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// HandleWS upgrades the request and registers the client. The read loop
// only exists to notice disconnects.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	h.logger.WithField("remote", conn.RemoteAddr().String()).Info("event feed client connected")

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// ClientCount returns the number of connected observers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
