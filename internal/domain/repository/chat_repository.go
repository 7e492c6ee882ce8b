package repository

import (
	"context"
	"time"

	"chatwave/internal/domain/entity"
)

type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	FindDirectByParticipants(ctx context.Context, userID1, userID2 string) (*entity.Chat, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Chat, int64, error)
	Update(ctx context.Context, chat *entity.Chat) error
	SetLastMessage(ctx context.Context, chatID, messageID, preview string, at time.Time) error

	// Unread counters. IncrementUnread must be atomic per participant key so a
	// concurrent participant change cannot double-count.
	IncrementUnread(ctx context.Context, chatID, userID string) error
	ResetUnread(ctx context.Context, chatID, userID string) error

	// Message methods
	CreateMessage(ctx context.Context, message *entity.Message) error
	GetMessageByID(ctx context.Context, chatID, messageID string) (*entity.Message, error)
	GetMessagesByChat(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error)
	SearchMessages(ctx context.Context, chatID, query string, limit, offset int) ([]*entity.Message, int64, error)
	UpdateMessage(ctx context.Context, chatID string, message *entity.Message) error
	MarkMessageRead(ctx context.Context, chatID, messageID, userID string, at time.Time) error
	MarkAllMessagesRead(ctx context.Context, chatID, userID string, at time.Time) (int, error)
}

type FileMetadataRepository interface {
	Create(ctx context.Context, meta *entity.FileMetadata) error
	GetByID(ctx context.Context, id string) (*entity.FileMetadata, error)
	ListByUploader(ctx context.Context, userID string, limit, offset int) ([]*entity.FileMetadata, int64, error)
	Delete(ctx context.Context, id string) error
}
