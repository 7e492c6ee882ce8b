package router

import (
	"github.com/labstack/echo/v4"

	"chatwave/internal/adapter/api/handler"
	"chatwave/internal/adapter/api/middleware"
)

func SetupUserRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	userHandler := handler.GetUserHandler()
	fileHandler := handler.GetFileHandler()

	users := e.Group("/v1/users")
	users.Use(authMiddleware.Authenticate)

	users.GET("/me", userHandler.GetProfile)
	users.PATCH("/me", userHandler.UpdateProfile)
	users.POST("/me/avatar", fileHandler.UploadAvatar)
	users.GET("/search", userHandler.SearchUsers)
	users.GET("/:id", userHandler.GetUserByID)
}
