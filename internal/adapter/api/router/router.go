package router

import (
	"github.com/labstack/echo/v4"

	"chatwave/internal/adapter/api/middleware"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	SetupAuthRouter(e, authMiddleware)
	SetupUserRouter(e, authMiddleware)
	SetupChatRouter(e, authMiddleware)
	SetupFileRouter(e, authMiddleware)
	SetupWebSocketRouter(e)
	SetupHealthRouter(e)
}
