package repository

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"chatwave/internal/domain/entity"
	"chatwave/internal/domain/repository"
	"chatwave/pkg/errors"
	"chatwave/pkg/logger"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}
	if chat.UnreadCount == nil {
		chat.UnreadCount = make(map[string]int)
	}

	now := time.Now()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	chat.IsActive = true

	_, err := r.client.Collection("chats").Doc(chat.ID).Set(ctx, chat)
	if err != nil {
		return errors.Internal("Failed to create chat", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.client.Collection("chats").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat", nil)
		}
		return nil, errors.Internal("Failed to get chat", err)
	}

	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}

	return &chat, nil
}

// FindDirectByParticipants looks up the single direct chat for an unordered
// pair of users, if one exists.
func (r *firestoreChatRepository) FindDirectByParticipants(ctx context.Context, userID1, userID2 string) (*entity.Chat, error) {
	query := r.client.Collection("chats").
		Where("type", "==", entity.ChatTypeDirect).
		Where("participants", "array-contains", userID1)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to query direct chats", err)
	}

	for _, doc := range docs {
		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			continue // Skip malformed documents
		}
		if len(chat.Participants) == 2 && chat.HasParticipant(userID2) {
			return &chat, nil
		}
	}

	return nil, errors.NotFound("Chat", nil)
}

func (r *firestoreChatRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Chat, int64, error) {
	query := r.client.Collection("chats").
		Where("participants", "array-contains", userID).
		Where("isActive", "==", true).
		OrderBy("lastMessageAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching chats for user %s: %v", userID, err)
		return nil, 0, errors.Internal("Failed to fetch chats", err)
	}

	total := int64(len(allDocs))

	// Apply pagination in-memory (faster than a second Firestore query)
	start := offset
	if start > len(allDocs) {
		start = len(allDocs)
	}
	end := len(allDocs)
	if limit > 0 && limit != -1 && start+limit < end {
		end = start + limit
	}

	var chats []*entity.Chat
	for i := start; i < end; i++ {
		var chat entity.Chat
		if err := allDocs[i].DataTo(&chat); err != nil {
			logger.Warn("Error parsing chat data for user %s: %v", userID, err)
			continue // Skip bad data instead of failing
		}
		chats = append(chats, &chat)
	}

	return chats, total, nil
}

func (r *firestoreChatRepository) Update(ctx context.Context, chat *entity.Chat) error {
	chat.UpdatedAt = time.Now()

	_, err := r.client.Collection("chats").Doc(chat.ID).Set(ctx, chat)
	if err != nil {
		return errors.Internal("Failed to update chat", err)
	}

	return nil
}

func (r *firestoreChatRepository) SetLastMessage(ctx context.Context, chatID, messageID, preview string, at time.Time) error {
	_, err := r.client.Collection("chats").Doc(chatID).Update(ctx, []firestore.Update{
		{Path: "lastMessageId", Value: messageID},
		{Path: "lastMessage", Value: preview},
		{Path: "lastMessageAt", Value: at},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		return errors.Internal("Failed to update last message", err)
	}

	return nil
}

// IncrementUnread bumps one participant's counter with a field-path
// increment, which is atomic per key: a concurrent participant change cannot
// double-count because no read-modify-write of the whole map happens here.
func (r *firestoreChatRepository) IncrementUnread(ctx context.Context, chatID, userID string) error {
	_, err := r.client.Collection("chats").Doc(chatID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"unreadCount", userID}, Value: firestore.Increment(1)},
	})
	if err != nil {
		return errors.Internal("Failed to increment unread count", err)
	}

	return nil
}

func (r *firestoreChatRepository) ResetUnread(ctx context.Context, chatID, userID string) error {
	_, err := r.client.Collection("chats").Doc(chatID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"unreadCount", userID}, Value: 0},
	})
	if err != nil {
		return errors.Internal("Failed to reset unread count", err)
	}

	return nil
}

func (r *firestoreChatRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.ReadBy == nil {
		message.ReadBy = make(map[string]time.Time)
	}

	message.CreatedAt = time.Now()

	_, err := r.client.Collection("chats").Doc(message.ChatID).Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetMessageByID(ctx context.Context, chatID, messageID string) (*entity.Message, error) {
	doc, err := r.client.Collection("chats").Doc(chatID).Collection("messages").Doc(messageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}

	return &message, nil
}

func (r *firestoreChatRepository) GetMessagesByChat(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.client.Collection("chats").Doc(chatID).Collection("messages").OrderBy("createdAt", firestore.Desc)

	countDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while counting messages for chat %s: %v", chatID, err)
		return nil, 0, errors.Internal("Failed to count messages for chat", err)
	}
	total := int64(len(countDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	var messages []*entity.Message

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating messages for chat %s: %v", chatID, err)
			return nil, 0, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			logger.Warn("Error parsing message data for chat %s: %v", chatID, err)
			return nil, 0, errors.Internal("Failed to parse message data", err)
		}

		messages = append(messages, &message)
	}

	return messages, total, nil
}

// SearchMessages filters the chat's messages by a case-insensitive content
// substring. Firestore has no text search, so filtering happens in memory
// over the ordered message stream; deleted messages never match.
func (r *firestoreChatRepository) SearchMessages(ctx context.Context, chatID, query string, limit, offset int) ([]*entity.Message, int64, error) {
	q := strings.ToLower(query)

	iter := r.client.Collection("chats").Doc(chatID).Collection("messages").
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)

	var matches []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while searching messages for chat %s: %v", chatID, err)
			return nil, 0, errors.Internal("Failed to search messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			logger.Warn("Error parsing message data for chat %s: %v", chatID, err)
			continue
		}

		if message.IsDeleted || !strings.Contains(strings.ToLower(message.Content), q) {
			continue
		}
		matches = append(matches, &message)
	}

	total := int64(len(matches))

	start := offset
	if start > len(matches) {
		start = len(matches)
	}
	end := len(matches)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	return matches[start:end], total, nil
}

func (r *firestoreChatRepository) UpdateMessage(ctx context.Context, chatID string, message *entity.Message) error {
	_, err := r.client.Collection("chats").Doc(chatID).Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to update message", err)
	}

	return nil
}

// MarkMessageRead stamps one reader on one message. The read set only grows;
// a reader already present is left untouched.
func (r *firestoreChatRepository) MarkMessageRead(ctx context.Context, chatID, messageID, userID string, at time.Time) error {
	docRef := r.client.Collection("chats").Doc(chatID).Collection("messages").Doc(messageID)
	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Message", err)
		}
		return errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return errors.Internal("Failed to parse message data", err)
	}

	if message.IsDeleted || message.ReadByUser(userID) {
		return nil
	}

	_, err = docRef.Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"readBy", userID}, Value: at},
	})
	if err != nil {
		return errors.Internal("Failed to update message read status", err)
	}

	return nil
}

// MarkAllMessagesRead stamps the reader on every message in the chat not
// already read by them and returns how many were stamped.
func (r *firestoreChatRepository) MarkAllMessagesRead(ctx context.Context, chatID, userID string, at time.Time) (int, error) {
	docs, err := r.client.Collection("chats").Doc(chatID).Collection("messages").Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Internal("Failed to fetch messages for chat", err)
	}

	marked := 0
	for _, doc := range docs {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			continue // Skip malformed documents
		}
		if message.IsDeleted || message.SenderID == userID || message.ReadByUser(userID) {
			continue
		}

		_, err := doc.Ref.Update(ctx, []firestore.Update{
			{FieldPath: firestore.FieldPath{"readBy", userID}, Value: at},
		})
		if err != nil {
			return marked, errors.Internal("Failed to update message read status", err)
		}
		marked++
	}

	return marked, nil
}
