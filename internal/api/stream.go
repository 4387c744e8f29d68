package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"alert-registry/internal/logging"
	"alert-registry/internal/models"
)

const writeWait = 5 * time.Second

// Hub keeps the websocket clients of /alerts/stream and broadcasts alert
// events to them. It is an event sink for the dispatcher.
type Hub struct {
	connections map[*websocket.Conn]bool
	mutex       sync.Mutex
	maxClients  int
	upgrader    websocket.Upgrader
	logger      *logging.Logger
}

func NewHub(logger *logging.Logger, allowedOrigins []string, maxClients int) *Hub {
	h := &Hub{
		connections: make(map[*websocket.Conn]bool),
		maxClients:  maxClients,
		logger:      logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func (h *Hub) Name() string { return "websocket" }

// Stream upgrades the request and registers the connection.
func (h *Hub) Stream(c *gin.Context) {
	if h.full() {
		h.logger.Warnf("Max stream connections reached (%d)", h.maxClients)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Too many stream connections"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warnf("WebSocket upgrade failed: %v", err)
		return
	}
	if !h.add(conn) {
		return
	}
	go h.readLoop(conn)
}

// Publish writes ev as JSON to every connected client. Clients that fail are
// dropped.
func (h *Hub) Publish(_ context.Context, ev models.AlertEvent) error {
	message, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn := range h.connections {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Errorf("Failed to send WebSocket message: %v", err)
			delete(h.connections, conn)
			conn.Close()
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.connections)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn := range h.connections {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		delete(h.connections, conn)
	}
}

func (h *Hub) full() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.maxClients > 0 && len(h.connections) >= h.maxClients
}

// add registers conn unless the hub filled up while it was upgrading, in
// which case conn is closed with a try-again-later frame.
func (h *Hub) add(conn *websocket.Conn) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.maxClients > 0 && len(h.connections) >= h.maxClients {
		h.logger.Warnf("Max stream connections reached (%d)", h.maxClients)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many stream connections"),
			time.Now().Add(writeWait))
		conn.Close()
		return false
	}
	h.connections[conn] = true
	h.logger.Infof("Added WebSocket connection (total: %d)", len(h.connections))
	return true
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.connections[conn] {
		delete(h.connections, conn)
		conn.Close()
		h.logger.Infof("Removed WebSocket connection (remaining: %d)", len(h.connections))
	}
}

// readLoop discards client frames and unregisters the client once the
// connection ends.
func (h *Hub) readLoop(conn *websocket.Conn) {
	defer h.remove(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}
