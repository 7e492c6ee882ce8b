package main

import (
	"context"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"chatwave/internal/adapter/api"
	"chatwave/internal/adapter/api/handler"
	apimiddleware "chatwave/internal/adapter/api/middleware"
	"chatwave/internal/adapter/api/router"
	"chatwave/internal/adapter/repository"
	"chatwave/internal/infrastructure/auth"
	"chatwave/internal/infrastructure/storage"
	"chatwave/internal/infrastructure/websocket"
	"chatwave/internal/usecase"
	"chatwave/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, cfg.CredentialsFile)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)
	fileMetadataRepo := repository.NewFirestoreFileMetadataRepository(firestoreClient)

	tokenManager := auth.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.JWTExpiry)*time.Second)

	registry := websocket.NewRegistry(userRepo)

	authUseCase := usecase.NewAuthUseCase(userRepo, tokenManager)
	userUseCase := usecase.NewUserUseCase(userRepo)
	chatUseCase := usecase.NewChatUseCase(chatRepo, userRepo, registry)

	dispatcher := websocket.NewDispatcher(registry, chatUseCase)

	handler.Setup(
		authUseCase,
		userUseCase,
		chatUseCase,
		registry,
		dispatcher,
		tokenManager,
		storageClient,
		fileMetadataRepo,
		firestoreClient,
	)

	e := echo.New()

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{cfg.FrontendURL},
	}))

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(tokenManager)

	router.Setup(e, authMiddleware)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
