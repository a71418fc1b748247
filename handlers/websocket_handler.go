package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/eventhub-pro/eventhub-api/notifications"
)

type WebSocketHandler struct {
	hub      *notifications.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler создает обработчик уведомлений. allowedOrigins - те же
// источники, что разрешены CORS; "*" или пустой список разрешают любой.
func NewWebSocketHandler(hub *notifications.Hub, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(origin, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// ServeWs подключает пользователя к его комнате уведомлений.
// Клиент подключается к /ws/notifications?token=<jwt>.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже отправил клиенту ответ с ошибкой.
		h.logger.Warn("failed to upgrade websocket connection", slog.Int("user_id", identity.UserID), slog.Any("error", err))
		return
	}

	h.hub.Attach(conn, identity.UserID)
	h.logger.Debug("websocket client connected", slog.Int("user_id", identity.UserID))
}
