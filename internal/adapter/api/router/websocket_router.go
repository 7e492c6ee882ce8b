package router

import (
	"github.com/labstack/echo/v4"

	"chatwave/internal/adapter/api/handler"
)

// SetupWebSocketRouter registers the websocket endpoint. Authentication is
// handled inside the handler before the upgrade, so no middleware here.
func SetupWebSocketRouter(e *echo.Echo) {
	wsHandler := handler.GetWebSocketHandler()

	e.GET("/ws", wsHandler.HandleWebSocket)
}
