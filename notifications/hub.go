package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message - сообщение, отправляемое клиенту по WebSocket.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sent_at"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 64
)

// Hub держит WebSocket-подключения, сгруппированные по пользователю:
// у каждого пользователя своя комната, в которую попадают все его вкладки.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	rooms      map[int]map[*Client]struct{}
	mu         sync.RWMutex
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rooms:      make(map[int]map[*Client]struct{}),
		logger:     logger,
	}
}

// Run обслуживает регистрацию клиентов до отмены ctx.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for userID, room := range h.rooms {
				for client := range room {
					close(client.send)
				}
				delete(h.rooms, userID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			room, ok := h.rooms[client.userID]
			if !ok {
				room = make(map[*Client]struct{})
				h.rooms[client.userID] = room
			}
			room[client] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("websocket client registered", slog.Int("user_id", client.userID), slog.Int("connections", len(room)))

		case client := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[client.userID]; ok {
				if _, found := room[client]; found {
					close(client.send)
					delete(room, client)
					if len(room) == 0 {
						delete(h.rooms, client.userID)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Debug("websocket client unregistered", slog.Int("user_id", client.userID))
		}
	}
}

// NotifyUser отправляет сообщение во все подключения пользователя.
// Медленные клиенты с заполненным буфером пропускают сообщение.
func (h *Hub) NotifyUser(userID int, notificationType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: notificationType, Payload: payload, SentAt: time.Now().UTC()})
	if err != nil {
		h.logger.Error("failed to marshal notification", slog.String("type", notificationType), slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[userID] {
		select {
		case client.send <- data:
		default:
			h.logger.Warn("websocket send buffer full, dropping notification",
				slog.Int("user_id", userID), slog.String("type", notificationType))
		}
	}
}

// Connections возвращает число активных подключений пользователя.
func (h *Hub) Connections(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// Attach регистрирует подключение пользователя и запускает его обработчики.
func (h *Hub) Attach(conn *websocket.Conn, userID int) {
	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		userID: userID,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID int
}

// readPump читает только управляющие кадры; входящие сообщения игнорируются.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket closed unexpectedly", slog.Int("user_id", c.userID), slog.Any("error", err))
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
