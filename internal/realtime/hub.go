// Package realtime доставляет уведомления в открытые WebSocket-сессии
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"eventhive/internal/logger"
	"eventhive/internal/metrics"
	"eventhive/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	DefaultSendBuffer = 32
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrHubClosed    = errors.New("realtime hub is shutting down")
)

// Identity - проверенный владелец сессии
type Identity struct {
	UserID   int64
	Username string
	IsAdmin  bool
}

// IdentityResolver превращает токен из query-параметра в пользователя
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

// Frame - формат сообщения, уходящего в сокет
type Frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	identity Identity
	send     chan []byte
}

func (c *Client) Identity() Identity {
	return c.identity
}

// Hub - реестр сессий. Доставка at-most-once: переполненный буфер сессии теряет сообщение.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	closed     bool
	resolver   IdentityResolver
	upgrader   websocket.Upgrader
	sendBuffer int
}

func NewHub(resolver IdentityResolver, allowedOrigin string, sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}

	return &Hub{
		clients:    make(map[*Client]struct{}),
		resolver:   resolver,
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

func (h *Hub) newClient(conn *websocket.Conn, identity Identity) *Client {
	return &Client{
		hub:      h,
		conn:     conn,
		identity: identity,
		send:     make(chan []byte, h.sendBuffer),
	}
}

// Register добавляет сессию; после Close возвращает ErrHubClosed
func (h *Hub) Register(c *Client) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	metrics.WebSocketSessions.Inc()
	logger.Get().Debug("WebSocket session registered",
		"user_id", c.identity.UserID, "admin", c.identity.IsAdmin)
	return nil
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()

	if ok {
		metrics.WebSocketSessions.Dec()
	}
}

// Sessions возвращает число открытых сессий
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func matches(n *models.Notification, id Identity) bool {
	switch n.Audience {
	case models.AudienceAll:
		return true
	case models.AudienceAdmins:
		return id.IsAdmin
	case models.AudienceUser:
		return n.RecipientID != nil && *n.RecipientID == id.UserID
	}
	return false
}

// Deliver ставит уведомление в очередь подходящим сессиям и возвращает их число
func (h *Hub) Deliver(n *models.Notification) int {
	event := n.SocketEvent()
	payload, err := json.Marshal(Frame{Event: event, Data: n})
	if err != nil {
		logger.Get().Error("Failed to marshal notification frame", "error", err, "kind", n.Kind)
		return 0
	}

	delivered := 0

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !matches(n, c.identity) {
			continue
		}
		select {
		case c.send <- payload:
			delivered++
			metrics.NotificationsDelivered.WithLabelValues(event).Inc()
		default:
			metrics.NotificationsDropped.Inc()
			logger.Get().Warn("Dropping notification for slow session",
				"user_id", c.identity.UserID, "event", event)
		}
	}

	return delivered
}

// ServeWS проверяет токен и поднимает сессию
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	token := r.URL.Query().Get("token")
	if token == "" {
		return ErrMissingToken
	}

	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		return ErrHubClosed
	}

	identity, err := h.resolver.Resolve(r.Context(), token)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		logger.Get().Warn("WebSocket upgrade failed", "error", err)
		return nil
	}

	client := h.newClient(conn, *identity)
	if err := h.Register(client); err != nil {
		// Сервер останавливается, пока шел upgrade
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()

	return nil
}

// Close закрывает все сессии при остановке сервера
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		metrics.WebSocketSessions.Dec()
	}
}

// readPump нужен только для ping/pong и обнаружения разрыва
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Get().Debug("WebSocket closed unexpectedly", "error", err, "user_id", c.identity.UserID)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
