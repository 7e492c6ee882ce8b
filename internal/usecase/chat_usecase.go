package usecase

import (
	"context"
	"sort"
	"time"

	"chatwave/internal/domain/entity"
	"chatwave/internal/domain/repository"
	"chatwave/internal/infrastructure/ratelimit"
	ws "chatwave/internal/infrastructure/websocket"
	"chatwave/pkg/errors"
	"chatwave/pkg/logger"
)

const lastMessagePreviewLen = 100

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	registry    *ws.Registry
	rateLimiter *ratelimit.RateLimiter
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	registry *ws.Registry,
) *ChatUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		registry:    registry,
		rateLimiter: rateLimiter,
	}
}

type CreateDirectChatInput struct {
	RecipientID    string `json:"recipient_id" validate:"required"`
	InitialMessage string `json:"initial_message" validate:"omitempty,max=4000"`
}

type CreateGroupChatInput struct {
	Name         string   `json:"name" validate:"required,max=100"`
	Participants []string `json:"participants" validate:"required,min=1,dive,required"`
	AvatarURL    string   `json:"avatar_url" validate:"omitempty,url"`
}

type SendMessageInput struct {
	ChatID   string `json:"chat_id" validate:"required"`
	Content  string `json:"content" validate:"required,max=4000"`
	Type     string `json:"type" validate:"omitempty,oneof=text image file audio video"`
	MediaURL string `json:"media_url" validate:"omitempty,url"`
	ReplyTo  string `json:"reply_to" validate:"omitempty"`
}

type EditMessageInput struct {
	Content string `json:"content" validate:"required,max=4000"`
}

type ChatResponse struct {
	*entity.Chat
	OtherUser *entity.User `json:"other_user,omitempty"`
}

type MessageResponse struct {
	*entity.Message
	Sender *entity.User `json:"sender,omitempty"`
}

// CreateDirectChat finds or creates the one direct chat between the caller
// and the recipient. Calling it twice with the same pair returns the same
// chat, so clients can use it as "open conversation with user X".
func (uc *ChatUseCase) CreateDirectChat(ctx context.Context, userID string, input CreateDirectChatInput) (*ChatResponse, error) {
	allowed, waitTime := uc.rateLimiter.Allow(userID, "create_chat")
	if !allowed {
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before creating another chat", waitTime)
	}

	if input.RecipientID == userID {
		return nil, errors.BadRequest("Cannot create a chat with yourself", nil)
	}

	recipient, err := uc.userRepo.GetByID(ctx, input.RecipientID)
	if err != nil {
		return nil, err
	}

	existing, err := uc.chatRepo.FindDirectByParticipants(ctx, userID, input.RecipientID)
	if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}
	if existing != nil {
		if input.InitialMessage != "" {
			if _, err := uc.SendMessage(ctx, userID, SendMessageInput{
				ChatID:  existing.ID,
				Content: input.InitialMessage,
				Type:    entity.MessageTypeText,
			}); err != nil {
				return nil, err
			}
		}
		return &ChatResponse{Chat: existing, OtherUser: recipient}, nil
	}

	participants := []string{userID, input.RecipientID}
	sort.Strings(participants)

	// A deterministic ID keeps two racing creates for the same pair on one
	// document; the second Create overwrites the first with identical data.
	chat := &entity.Chat{
		ID:           entity.DirectChatID(userID, input.RecipientID),
		Participants: participants,
		Type:         entity.ChatTypeDirect,
	}
	if err := uc.chatRepo.Create(ctx, chat); err != nil {
		return nil, err
	}

	uc.notifyChatCreated(chat)

	if input.InitialMessage != "" {
		if _, err := uc.SendMessage(ctx, userID, SendMessageInput{
			ChatID:  chat.ID,
			Content: input.InitialMessage,
			Type:    entity.MessageTypeText,
		}); err != nil {
			return nil, err
		}
	}

	return &ChatResponse{Chat: chat, OtherUser: recipient}, nil
}

// CreateGroupChat creates a group with the caller as admin. Unlike direct
// chats there is no dedup; two groups with the same members are two groups.
func (uc *ChatUseCase) CreateGroupChat(ctx context.Context, userID string, input CreateGroupChatInput) (*ChatResponse, error) {
	allowed, waitTime := uc.rateLimiter.Allow(userID, "create_chat")
	if !allowed {
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before creating another chat", waitTime)
	}

	seen := map[string]bool{userID: true}
	participants := []string{userID}
	for _, p := range input.Participants {
		if p == "" || seen[p] {
			continue
		}
		if _, err := uc.userRepo.GetByID(ctx, p); err != nil {
			return nil, err
		}
		seen[p] = true
		participants = append(participants, p)
	}
	if len(participants) < 2 {
		return nil, errors.BadRequest("A group chat needs at least one other participant", nil)
	}

	chat := &entity.Chat{
		Participants: participants,
		Type:         entity.ChatTypeGroup,
		GroupName:    input.Name,
		GroupAvatar:  input.AvatarURL,
		GroupAdminID: userID,
	}
	if err := uc.chatRepo.Create(ctx, chat); err != nil {
		return nil, err
	}

	uc.notifyChatCreated(chat)

	return &ChatResponse{Chat: chat}, nil
}

// SendMessage persists a message, bumps the chat summary and per-recipient
// unread counters, then broadcasts the hydrated message to the chat room.
// The sender's own sessions receive the broadcast too; that is the ack.
func (uc *ChatUseCase) SendMessage(ctx context.Context, senderID string, input SendMessageInput) (*MessageResponse, error) {
	allowed, waitTime := uc.rateLimiter.Allow(senderID, "send_message")
	if !allowed {
		return nil, errors.TooManyRequests("Rate limit exceeded. Please slow down", waitTime)
	}

	chat, err := uc.authorizeParticipant(ctx, senderID, input.ChatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsActive {
		return nil, errors.Forbidden("This conversation is no longer active", nil)
	}

	msgType := input.Type
	if msgType == "" {
		msgType = entity.MessageTypeText
	}

	if input.ReplyTo != "" {
		if _, err := uc.chatRepo.GetMessageByID(ctx, chat.ID, input.ReplyTo); err != nil {
			return nil, errors.BadRequest("Replied-to message does not exist in this chat", err)
		}
	}

	message := &entity.Message{
		ChatID:   chat.ID,
		SenderID: senderID,
		Content:  input.Content,
		Type:     msgType,
		MediaURL: input.MediaURL,
		ReplyTo:  input.ReplyTo,
	}
	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	if err := uc.chatRepo.SetLastMessage(ctx, chat.ID, message.ID, preview(message), message.CreatedAt); err != nil {
		logger.Error("Failed to update chat summary for %s: %v", chat.ID, err)
	}

	for _, participantID := range chat.Participants {
		if participantID == senderID {
			continue
		}
		if err := uc.chatRepo.IncrementUnread(ctx, chat.ID, participantID); err != nil {
			logger.Error("Failed to increment unread for user %s on chat %s: %v", participantID, chat.ID, err)
		}
	}

	response := uc.hydrateMessage(ctx, message)

	uc.registry.Broadcast(ws.ChatRoom(chat.ID), ws.Marshal(ws.EventNewMessage, response), nil)

	return response, nil
}

// MarkChatAsRead resets the caller's unread counter and stamps read receipts
// on every unread message from other senders, then notifies the room.
func (uc *ChatUseCase) MarkChatAsRead(ctx context.Context, userID, chatID, messageID string) error {
	chat, err := uc.authorizeParticipant(ctx, userID, chatID)
	if err != nil {
		return err
	}

	now := time.Now()

	if messageID != "" {
		if err := uc.chatRepo.MarkMessageRead(ctx, chat.ID, messageID, userID, now); err != nil {
			return err
		}
	} else if _, err := uc.chatRepo.MarkAllMessagesRead(ctx, chat.ID, userID, now); err != nil {
		return err
	}

	if err := uc.chatRepo.ResetUnread(ctx, chat.ID, userID); err != nil {
		return err
	}

	uc.registry.Broadcast(ws.ChatRoom(chat.ID), ws.Marshal(ws.EventMessagesRead, ws.MessagesReadEvent{
		ChatID:   chat.ID,
		ReaderID: userID,
	}), nil)

	return nil
}

// EditMessage rewrites the content of the caller's own message and
// broadcasts the updated message to the room.
func (uc *ChatUseCase) EditMessage(ctx context.Context, userID, chatID, messageID string, input EditMessageInput) (*MessageResponse, error) {
	chat, err := uc.authorizeParticipant(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	message, err := uc.chatRepo.GetMessageByID(ctx, chat.ID, messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID != userID {
		return nil, errors.Forbidden("You can only edit your own messages", nil)
	}
	if message.IsDeleted {
		return nil, errors.BadRequest("Cannot edit a deleted message", nil)
	}
	if message.Type != entity.MessageTypeText {
		return nil, errors.BadRequest("Only text messages can be edited", nil)
	}

	message.Content = input.Content
	message.IsEdited = true
	message.EditedAt = time.Now()
	if err := uc.chatRepo.UpdateMessage(ctx, chat.ID, message); err != nil {
		return nil, err
	}

	if chat.LastMessageID == message.ID {
		if err := uc.chatRepo.SetLastMessage(ctx, chat.ID, message.ID, preview(message), chat.LastMessageAt); err != nil {
			logger.Error("Failed to update chat summary for %s: %v", chat.ID, err)
		}
	}

	response := uc.hydrateMessage(ctx, message)

	uc.registry.Broadcast(ws.ChatRoom(chat.ID), ws.Marshal(ws.EventNewMessage, response), nil)

	return response, nil
}

// DeleteMessage soft-deletes a message. The record stays in place for
// ordering; its content is redacted whenever the message is served.
func (uc *ChatUseCase) DeleteMessage(ctx context.Context, userID, chatID, messageID string) error {
	chat, err := uc.authorizeParticipant(ctx, userID, chatID)
	if err != nil {
		return err
	}

	message, err := uc.chatRepo.GetMessageByID(ctx, chat.ID, messageID)
	if err != nil {
		return err
	}

	groupAdmin := chat.Type == entity.ChatTypeGroup && chat.GroupAdminID == userID
	if message.SenderID != userID && !groupAdmin {
		return errors.Forbidden("You can only delete your own messages", nil)
	}
	if message.IsDeleted {
		return nil
	}

	message.IsDeleted = true
	message.DeletedAt = time.Now()
	message.DeletedBy = userID
	if err := uc.chatRepo.UpdateMessage(ctx, chat.ID, message); err != nil {
		return err
	}

	if chat.LastMessageID == message.ID {
		if err := uc.chatRepo.SetLastMessage(ctx, chat.ID, message.ID, "Message deleted", chat.LastMessageAt); err != nil {
			logger.Error("Failed to update chat summary for %s: %v", chat.ID, err)
		}
	}

	response := uc.hydrateMessage(ctx, message)

	uc.registry.Broadcast(ws.ChatRoom(chat.ID), ws.Marshal(ws.EventNewMessage, response), nil)

	return nil
}

// LeaveGroup removes the caller from a group chat and revokes the room
// membership of every live session they have. Admins must hand over the
// group before leaving unless they are the last participant.
func (uc *ChatUseCase) LeaveGroup(ctx context.Context, userID, chatID string) error {
	chat, err := uc.authorizeParticipant(ctx, userID, chatID)
	if err != nil {
		return err
	}
	if chat.Type != entity.ChatTypeGroup {
		return errors.BadRequest("Cannot leave a direct chat", nil)
	}

	remaining := make([]string, 0, len(chat.Participants)-1)
	for _, p := range chat.Participants {
		if p != userID {
			remaining = append(remaining, p)
		}
	}

	if chat.GroupAdminID == userID && len(remaining) > 0 {
		// Hand the group to the longest-standing remaining participant.
		chat.GroupAdminID = remaining[0]
	}

	chat.Participants = remaining
	if len(remaining) == 0 {
		chat.IsActive = false
	}
	if err := uc.chatRepo.Update(ctx, chat); err != nil {
		return err
	}

	// Revoke room membership server-side so no further broadcasts reach
	// sessions of the departed user.
	uc.registry.LeaveRoomAllSessions(userID, ws.ChatRoom(chat.ID))

	if len(remaining) > 0 {
		username := userID
		if u, err := uc.userRepo.GetByID(ctx, userID); err == nil {
			username = u.Username
		}
		system := &entity.Message{
			ChatID:  chat.ID,
			Content: username + " left the group",
			Type:    entity.MessageTypeSystem,
		}
		if err := uc.chatRepo.CreateMessage(ctx, system); err != nil {
			logger.Error("Failed to record leave notice for chat %s: %v", chat.ID, err)
		} else {
			uc.registry.Broadcast(ws.ChatRoom(chat.ID), ws.Marshal(ws.EventNewMessage, uc.hydrateMessage(ctx, system)), nil)
		}
	}

	return nil
}

// DeactivateChat marks a conversation inactive. Only the group admin may
// deactivate a group; either side may deactivate a direct chat.
func (uc *ChatUseCase) DeactivateChat(ctx context.Context, userID, chatID string) error {
	chat, err := uc.authorizeParticipant(ctx, userID, chatID)
	if err != nil {
		return err
	}
	if chat.Type == entity.ChatTypeGroup && chat.GroupAdminID != userID {
		return errors.Forbidden("Only the group admin can deactivate this chat", nil)
	}

	chat.IsActive = false
	return uc.chatRepo.Update(ctx, chat)
}

func (uc *ChatUseCase) GetUserChats(ctx context.Context, userID string, limit, offset int) ([]*ChatResponse, int64, error) {
	chats, total, err := uc.chatRepo.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*ChatResponse, 0, len(chats))
	for _, chat := range chats {
		response := &ChatResponse{Chat: chat}
		if chat.Type == entity.ChatTypeDirect {
			for _, p := range chat.Participants {
				if p == userID {
					continue
				}
				if other, err := uc.userRepo.GetByID(ctx, p); err == nil {
					response.OtherUser = other
				}
				break
			}
		}
		responses = append(responses, response)
	}

	return responses, total, nil
}

func (uc *ChatUseCase) GetChatByID(ctx context.Context, userID, chatID string) (*ChatResponse, error) {
	chat, err := uc.authorizeParticipant(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	response := &ChatResponse{Chat: chat}
	if chat.Type == entity.ChatTypeDirect {
		for _, p := range chat.Participants {
			if p == userID {
				continue
			}
			if other, err := uc.userRepo.GetByID(ctx, p); err == nil {
				response.OtherUser = other
			}
			break
		}
	}

	return response, nil
}

func (uc *ChatUseCase) GetChatMessages(ctx context.Context, userID, chatID string, limit, offset int) ([]*MessageResponse, int64, error) {
	if _, err := uc.authorizeParticipant(ctx, userID, chatID); err != nil {
		return nil, 0, err
	}

	messages, total, err := uc.chatRepo.GetMessagesByChat(ctx, chatID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	senders := map[string]*entity.User{}
	responses := make([]*MessageResponse, 0, len(messages))
	for _, message := range messages {
		redactIfDeleted(message)
		response := &MessageResponse{Message: message}
		if message.SenderID != "" {
			sender, ok := senders[message.SenderID]
			if !ok {
				sender, _ = uc.userRepo.GetByID(ctx, message.SenderID)
				senders[message.SenderID] = sender
			}
			response.Sender = sender
		}
		responses = append(responses, response)
	}

	return responses, total, nil
}

// SearchChatMessages finds messages in one conversation whose content
// contains the query, for participants only.
func (uc *ChatUseCase) SearchChatMessages(ctx context.Context, userID, chatID, query string, limit, offset int) ([]*MessageResponse, int64, error) {
	if _, err := uc.authorizeParticipant(ctx, userID, chatID); err != nil {
		return nil, 0, err
	}

	messages, total, err := uc.chatRepo.SearchMessages(ctx, chatID, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	senders := map[string]*entity.User{}
	responses := make([]*MessageResponse, 0, len(messages))
	for _, message := range messages {
		response := &MessageResponse{Message: message}
		if message.SenderID != "" {
			sender, ok := senders[message.SenderID]
			if !ok {
				sender, _ = uc.userRepo.GetByID(ctx, message.SenderID)
				senders[message.SenderID] = sender
			}
			response.Sender = sender
		}
		responses = append(responses, response)
	}

	return responses, total, nil
}

// ListChatIDs returns the IDs of every active conversation the user belongs
// to. The websocket handler uses it to subscribe a fresh connection to its
// chat rooms.
func (uc *ChatUseCase) ListChatIDs(ctx context.Context, userID string) ([]string, error) {
	chats, _, err := uc.chatRepo.ListByUserID(ctx, userID, 0, 0)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(chats))
	for _, chat := range chats {
		ids = append(ids, chat.ID)
	}
	return ids, nil
}

// RelaySendMessage adapts SendMessage for the websocket dispatcher.
func (uc *ChatUseCase) RelaySendMessage(ctx context.Context, senderID string, p ws.SendMessagePayload) error {
	_, err := uc.SendMessage(ctx, senderID, SendMessageInput{
		ChatID:   p.ChatID,
		Content:  p.Content,
		Type:     p.Type,
		MediaURL: p.MediaURL,
		ReplyTo:  p.ReplyTo,
	})
	return err
}

// RelayMarkRead adapts MarkChatAsRead for the websocket dispatcher.
func (uc *ChatUseCase) RelayMarkRead(ctx context.Context, userID, chatID, messageID string) error {
	return uc.MarkChatAsRead(ctx, userID, chatID, messageID)
}

// CanSubscribe is the authoritative membership check for room joins. It
// consults the conversation store, never the in-memory room table.
func (uc *ChatUseCase) CanSubscribe(ctx context.Context, userID, chatID string) error {
	_, err := uc.authorizeParticipant(ctx, userID, chatID)
	return err
}

// authorizeParticipant loads a chat and verifies membership. A chat the
// caller cannot see and a chat that does not exist are reported the same
// way, so probing for chat IDs reveals nothing.
func (uc *ChatUseCase) authorizeParticipant(ctx context.Context, userID, chatID string) (*entity.Chat, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return nil, errors.Forbidden("Not a participant of this conversation", nil)
		}
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.Forbidden("Not a participant of this conversation", nil)
	}
	return chat, nil
}

// notifyChatCreated pushes the new chat to each participant's personal room
// so open sessions can subscribe without polling.
func (uc *ChatUseCase) notifyChatCreated(chat *entity.Chat) {
	payload := ws.Marshal(ws.EventChatCreated, chat)
	for _, participantID := range chat.Participants {
		uc.registry.SendToUser(participantID, payload)
	}
}

func (uc *ChatUseCase) hydrateMessage(ctx context.Context, message *entity.Message) *MessageResponse {
	redactIfDeleted(message)
	response := &MessageResponse{Message: message}
	if message.SenderID != "" {
		if sender, err := uc.userRepo.GetByID(ctx, message.SenderID); err == nil {
			response.Sender = sender
		}
	}
	return response
}

// redactIfDeleted blanks the payload of a soft-deleted message before it is
// handed to any client.
func redactIfDeleted(message *entity.Message) {
	if !message.IsDeleted {
		return
	}
	message.Content = ""
	message.MediaURL = ""
	message.FileName = ""
	message.FileType = ""
	message.FileSize = 0
}

func preview(message *entity.Message) string {
	switch message.Type {
	case entity.MessageTypeImage:
		return "[Image]"
	case entity.MessageTypeFile:
		return "[File]"
	case entity.MessageTypeAudio:
		return "[Audio]"
	case entity.MessageTypeVideo:
		return "[Video]"
	}
	if len(message.Content) > lastMessagePreviewLen {
		return message.Content[:lastMessagePreviewLen] + "..."
	}
	return message.Content
}
