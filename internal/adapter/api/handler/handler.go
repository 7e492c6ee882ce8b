package handler

import (
	"cloud.google.com/go/firestore"

	"chatwave/internal/domain/repository"
	"chatwave/internal/infrastructure/auth"
	"chatwave/internal/infrastructure/storage"
	ws "chatwave/internal/infrastructure/websocket"
	"chatwave/internal/usecase"
)

var (
	authHandler      *AuthHandler
	userHandler      *UserHandler
	chatHandler      *ChatHandler
	fileHandler      *FileHandler
	websocketHandler *WebSocketHandler
	healthHandler    *HealthHandler
)

func Setup(
	authUseCase *usecase.AuthUseCase,
	userUseCase *usecase.UserUseCase,
	chatUseCase *usecase.ChatUseCase,
	registry *ws.Registry,
	dispatcher *ws.Dispatcher,
	tokenManager *auth.TokenManager,
	storageClient *storage.CloudStorageClient,
	fileMetadataRepo repository.FileMetadataRepository,
	firestoreClient *firestore.Client,
) {
	authHandler = NewAuthHandler(authUseCase)
	userHandler = NewUserHandler(userUseCase)
	chatHandler = NewChatHandler(chatUseCase)
	fileHandler = NewFileHandler(storageClient, fileMetadataRepo, chatUseCase, userUseCase)
	websocketHandler = NewWebSocketHandler(registry, dispatcher, tokenManager, chatUseCase, authUseCase)
	healthHandler = NewHealthHandler(firestoreClient)
}

func GetAuthHandler() *AuthHandler {
	return authHandler
}

func GetUserHandler() *UserHandler {
	return userHandler
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}

func GetFileHandler() *FileHandler {
	return fileHandler
}

func GetWebSocketHandler() *WebSocketHandler {
	return websocketHandler
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}
