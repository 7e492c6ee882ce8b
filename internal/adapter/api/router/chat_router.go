package router

import (
	"github.com/labstack/echo/v4"

	"chatwave/internal/adapter/api/handler"
	"chatwave/internal/adapter/api/middleware"
)

func SetupChatRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	chatHandler := handler.GetChatHandler()

	chats := e.Group("/v1/chats")
	chats.Use(authMiddleware.Authenticate)

	chats.POST("", chatHandler.CreateDirectChat)
	chats.POST("/group", chatHandler.CreateGroupChat)
	chats.GET("", chatHandler.ListChats)
	chats.GET("/:id", chatHandler.GetChat)
	chats.DELETE("/:id", chatHandler.DeactivateChat)
	chats.POST("/:id/leave", chatHandler.LeaveGroup)
	chats.PUT("/:id/read", chatHandler.MarkAsRead)

	chats.GET("/:id/messages", chatHandler.GetMessages)
	chats.GET("/:id/messages/search", chatHandler.SearchMessages)
	chats.POST("/:id/messages", chatHandler.SendMessage)
	chats.PUT("/:id/messages/:messageId", chatHandler.EditMessage)
	chats.DELETE("/:id/messages/:messageId", chatHandler.DeleteMessage)
}
