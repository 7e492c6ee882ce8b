package handler

import (
	"net/http"
	"strings"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"chatwave/internal/infrastructure/auth"
	ws "chatwave/internal/infrastructure/websocket"
	"chatwave/internal/usecase"
	"chatwave/pkg/logger"
)

type WebSocketHandler struct {
	registry     *ws.Registry
	dispatcher   *ws.Dispatcher
	tokenManager *auth.TokenManager
	chatUseCase  *usecase.ChatUseCase
	authUseCase  *usecase.AuthUseCase
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Restrict to known origins in production
	},
}

func NewWebSocketHandler(
	registry *ws.Registry,
	dispatcher *ws.Dispatcher,
	tokenManager *auth.TokenManager,
	chatUseCase *usecase.ChatUseCase,
	authUseCase *usecase.AuthUseCase,
) *WebSocketHandler {
	return &WebSocketHandler{
		registry:     registry,
		dispatcher:   dispatcher,
		tokenManager: tokenManager,
		chatUseCase:  chatUseCase,
		authUseCase:  authUseCase,
	}
}

// HandleWebSocket authenticates the request, upgrades it, and attaches the
// connection to the registry. Credentials come from the Authorization header
// or, for browser clients that cannot set headers on a WebSocket request,
// the token query parameter. Authentication always happens before the
// upgrade; an anonymous socket never reaches the registry.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := bearerToken(c)
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	userID, err := h.tokenManager.Verify(token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}

	user, err := h.authUseCase.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unknown user")
	}

	chatIDs, err := h.chatUseCase.ListChatIDs(c.Request().Context(), userID)
	if err != nil {
		logger.Error("Failed to list chats for user %s: %v", userID, err)
		chatIDs = nil
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to upgrade connection")
	}

	client := &ws.Client{
		UserID:   userID,
		Username: user.Username,
		Conn:     conn,
		Send:     make(chan []byte, 256),
	}

	wasOnline := h.registry.IsOnline(userID)
	h.registry.Register(client)

	// Subscribe the fresh connection to every conversation the user belongs
	// to, so broadcasts reach it without a join handshake.
	for _, chatID := range chatIDs {
		h.registry.JoinRoom(client, ws.ChatRoom(chatID))
	}

	if !wasOnline {
		h.broadcastPresence(userID, chatIDs, true)
	}

	go client.WritePump()
	go func() {
		client.ReadPump(h.registry, h.dispatcher)
		// ReadPump has unregistered the client; if that was the user's last
		// session, tell their conversations.
		if !h.registry.IsOnline(userID) {
			h.broadcastPresence(userID, chatIDs, false)
		}
	}()

	return nil
}

func (h *WebSocketHandler) broadcastPresence(userID string, chatIDs []string, online bool) {
	payload := ws.Marshal(presenceEventType(online), ws.PresenceEvent{
		UserID:   userID,
		IsOnline: online,
		LastSeen: time.Now(),
	})
	for _, chatID := range chatIDs {
		h.registry.Broadcast(ws.ChatRoom(chatID), payload, nil)
	}
}

func presenceEventType(online bool) string {
	if online {
		return ws.EventUserOnline
	}
	return ws.EventUserOffline
}

func bearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return c.QueryParam("token")
}
