// Package ws streams an order's assignment events to websocket subscribers,
// so a client can drive its countdown from offer_made and stop it on the
// next event.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/core/domain/model/order"

	"github.com/gorilla/websocket"
)

const (
	sendBuffer     = 16
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

type client struct {
	hub     *Hub
	orderID kernel.UUID
	conn    *websocket.Conn
	send    chan []byte
}

// Hub keeps the subscribers of each order and broadcasts events to them.
// A subscriber that cannot keep up is disconnected.
type Hub struct {
	mu      sync.Mutex
	clients map[kernel.UUID]map[*client]struct{}
	logger  *slog.Logger
}

// NewHub returns an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[kernel.UUID]map[*client]struct{}),
		logger:  logger.With("component", "ws_hub"),
	}
}

// Serve upgrades the request and subscribes the connection to orderID.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, orderID kernel.UUID) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrade to websocket: %w", err)
	}

	c := &client{
		hub:     h,
		orderID: orderID,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
	}
	h.register(c)

	go c.writePump()
	go c.readPump()
	return nil
}

// Notify implements ports.NotificationSink.
func (h *Hub) Notify(ctx context.Context, event order.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subscribers := h.clients[event.OrderID]
	if len(subscribers) == 0 {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to marshal event", "order_id", event.OrderID, "error", err)
		return
	}

	for c := range subscribers {
		select {
		case c.send <- payload:
		default:
			h.logger.WarnContext(ctx, "Dropping slow subscriber", "order_id", event.OrderID)
			h.removeLocked(c)
		}
	}
}

// Subscribers returns how many connections follow orderID.
func (h *Hub) Subscribers(orderID kernel.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[orderID])
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, subscribers := range h.clients {
		for c := range subscribers {
			h.removeLocked(c)
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subscribers, ok := h.clients[c.orderID]
	if !ok {
		subscribers = make(map[*client]struct{})
		h.clients[c.orderID] = subscribers
	}
	subscribers[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	subscribers, ok := h.clients[c.orderID]
	if !ok {
		return
	}
	if _, ok := subscribers[c]; !ok {
		return
	}

	delete(subscribers, c)
	close(c.send)
	if len(subscribers) == 0 {
		delete(h.clients, c.orderID)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only consumes control frames; subscribers never send data.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
