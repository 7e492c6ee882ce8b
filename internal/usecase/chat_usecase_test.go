package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatwave/internal/domain/entity"
	ws "chatwave/internal/infrastructure/websocket"
	"chatwave/pkg/errors"
)

type memoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]*entity.User
}

func newMemoryUserRepo(users ...*entity.User) *memoryUserRepo {
	repo := &memoryUserRepo{users: make(map[string]*entity.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *memoryUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	r.users[user.ID] = user
	return nil
}

func (r *memoryUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return user, nil
}

func (r *memoryUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errors.NotFound("User", nil)
}

func (r *memoryUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *memoryUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *memoryUserRepo) Search(ctx context.Context, query string, limit, offset int) ([]*entity.User, int64, error) {
	return nil, 0, nil
}

func (r *memoryUserRepo) SetOnlineStatus(ctx context.Context, id string, online bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.IsOnline = online
		u.LastSeen = at
	}
	return nil
}

type memoryChatRepo struct {
	mu       sync.Mutex
	chats    map[string]*entity.Chat
	messages map[string][]*entity.Message
	nextID   int
}

func newMemoryChatRepo() *memoryChatRepo {
	return &memoryChatRepo{
		chats:    make(map[string]*entity.Chat),
		messages: make(map[string][]*entity.Message),
	}
}

// id must be called with r.mu held.
func (r *memoryChatRepo) id(prefix string) string {
	r.nextID++
	return fmt.Sprintf("%s-%d", prefix, r.nextID)
}

func (r *memoryChatRepo) Create(ctx context.Context, chat *entity.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if chat.ID == "" {
		chat.ID = r.id("chat")
	}
	chat.IsActive = true
	chat.UnreadCount = make(map[string]int)
	chat.CreatedAt = time.Now()
	r.chats[chat.ID] = chat
	return nil
}

func (r *memoryChatRepo) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[id]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	return chat, nil
}

func (r *memoryChatRepo) FindDirectByParticipants(ctx context.Context, userID1, userID2 string) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, chat := range r.chats {
		if chat.Type == entity.ChatTypeDirect && chat.HasParticipant(userID1) && chat.HasParticipant(userID2) {
			return chat, nil
		}
	}
	return nil, errors.NotFound("Chat", nil)
}

func (r *memoryChatRepo) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Chat, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Chat
	for _, chat := range r.chats {
		if chat.IsActive && chat.HasParticipant(userID) {
			out = append(out, chat)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memoryChatRepo) Update(ctx context.Context, chat *entity.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.chats[chat.ID]; !ok {
		return errors.NotFound("Chat", nil)
	}
	r.chats[chat.ID] = chat
	return nil
}

func (r *memoryChatRepo) SetLastMessage(ctx context.Context, chatID, messageID, preview string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[chatID]
	if !ok {
		return errors.NotFound("Chat", nil)
	}
	chat.LastMessageID = messageID
	chat.LastMessage = preview
	chat.LastMessageAt = at
	return nil
}

func (r *memoryChatRepo) IncrementUnread(ctx context.Context, chatID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[chatID]
	if !ok {
		return errors.NotFound("Chat", nil)
	}
	chat.UnreadCount[userID]++
	return nil
}

func (r *memoryChatRepo) ResetUnread(ctx context.Context, chatID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[chatID]
	if !ok {
		return errors.NotFound("Chat", nil)
	}
	chat.UnreadCount[userID] = 0
	return nil
}

func (r *memoryChatRepo) CreateMessage(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	message.ID = r.id("msg")
	message.ReadBy = make(map[string]time.Time)
	message.CreatedAt = time.Now()
	r.messages[message.ChatID] = append(r.messages[message.ChatID], message)
	return nil
}

func (r *memoryChatRepo) GetMessageByID(ctx context.Context, chatID, messageID string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findMessage(chatID, messageID)
}

// findMessage must be called with r.mu held.
func (r *memoryChatRepo) findMessage(chatID, messageID string) (*entity.Message, error) {
	for _, m := range r.messages[chatID] {
		if m.ID == messageID {
			return m, nil
		}
	}
	return nil, errors.NotFound("Message", nil)
}

func (r *memoryChatRepo) GetMessagesByChat(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.messages[chatID]
	return msgs, int64(len(msgs)), nil
}

func (r *memoryChatRepo) SearchMessages(ctx context.Context, chatID, query string, limit, offset int) ([]*entity.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	needle := strings.ToLower(query)
	var matches []*entity.Message
	for _, m := range r.messages[chatID] {
		if m.IsDeleted {
			continue
		}
		if strings.Contains(strings.ToLower(m.Content), needle) {
			matches = append(matches, m)
		}
	}
	total := int64(len(matches))
	if offset >= len(matches) {
		return nil, total, nil
	}
	matches = matches[offset:]
	if limit > 0 && limit < len(matches) {
		matches = matches[:limit]
	}
	return matches, total, nil
}

func (r *memoryChatRepo) UpdateMessage(ctx context.Context, chatID string, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.messages[chatID] {
		if m.ID == message.ID {
			r.messages[chatID][i] = message
			return nil
		}
	}
	return errors.NotFound("Message", nil)
}

func (r *memoryChatRepo) MarkMessageRead(ctx context.Context, chatID, messageID, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, err := r.findMessage(chatID, messageID)
	if err != nil {
		return err
	}
	if !message.IsDeleted && !message.ReadByUser(userID) {
		message.ReadBy[userID] = at
	}
	return nil
}

func (r *memoryChatRepo) MarkAllMessagesRead(ctx context.Context, chatID, userID string, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, m := range r.messages[chatID] {
		if m.IsDeleted || m.SenderID == userID || m.ReadByUser(userID) {
			continue
		}
		m.ReadBy[userID] = at
		count++
	}
	return count, nil
}

func testUsers() []*entity.User {
	return []*entity.User{
		{ID: "alice", Email: "alice@example.com", Username: "alice"},
		{ID: "bob", Email: "bob@example.com", Username: "bob"},
		{ID: "carol", Email: "carol@example.com", Username: "carol"},
	}
}

func newTestChatUseCase() (*ChatUseCase, *memoryChatRepo, *ws.Registry) {
	chatRepo := newMemoryChatRepo()
	userRepo := newMemoryUserRepo(testUsers()...)
	registry := ws.NewRegistry(nil)
	return NewChatUseCase(chatRepo, userRepo, registry), chatRepo, registry
}

func newSession(registry *ws.Registry, userID string) *ws.Client {
	c := &ws.Client{UserID: userID, Username: userID, Send: make(chan []byte, 16)}
	registry.Register(c)
	return c
}

func TestCreateDirectChatIsIdempotent(t *testing.T) {
	uc, _, _ := newTestChatUseCase()
	ctx := context.Background()

	first, err := uc.CreateDirectChat(ctx, "alice", CreateDirectChatInput{RecipientID: "bob"})
	require.NoError(t, err)

	second, err := uc.CreateDirectChat(ctx, "alice", CreateDirectChatInput{RecipientID: "bob"})
	require.NoError(t, err)

	assert.Equal(t, first.Chat.ID, second.Chat.ID)

	// Same pair from the other side resolves to the same conversation.
	third, err := uc.CreateDirectChat(ctx, "bob", CreateDirectChatInput{RecipientID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, first.Chat.ID, third.Chat.ID)
}

func TestCreateDirectChatWithSelf(t *testing.T) {
	uc, _, _ := newTestChatUseCase()

	_, err := uc.CreateDirectChat(context.Background(), "alice", CreateDirectChatInput{RecipientID: "alice"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestCreateGroupChatDeduplicatesParticipants(t *testing.T) {
	uc, _, _ := newTestChatUseCase()

	chat, err := uc.CreateGroupChat(context.Background(), "alice", CreateGroupChatInput{
		Name:         "team",
		Participants: []string{"bob", "bob", "alice", "carol"},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"alice", "bob", "carol"}, chat.Chat.Participants)
	assert.Equal(t, "alice", chat.Chat.GroupAdminID)
}

func TestSendMessageUnreadBookkeeping(t *testing.T) {
	uc, chatRepo, _ := newTestChatUseCase()
	ctx := context.Background()

	group, err := uc.CreateGroupChat(ctx, "alice", CreateGroupChatInput{
		Name:         "team",
		Participants: []string{"bob", "carol"},
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := uc.SendMessage(ctx, "alice", SendMessageInput{ChatID: group.Chat.ID, Content: "hello"})
		require.NoError(t, err)
	}

	chat := chatRepo.chats[group.Chat.ID]
	assert.Equal(t, 0, chat.UnreadCount["alice"], "sender's own counter never moves")
	assert.Equal(t, 3, chat.UnreadCount["bob"])
	assert.Equal(t, 3, chat.UnreadCount["carol"])

	require.NoError(t, uc.MarkChatAsRead(ctx, "bob", group.Chat.ID, ""))
	assert.Equal(t, 0, chat.UnreadCount["bob"])
	assert.Equal(t, 3, chat.UnreadCount["carol"], "one reader does not clear another's counter")

	for _, m := range chatRepo.messages[group.Chat.ID] {
		assert.True(t, m.ReadByUser("bob"))
		assert.False(t, m.ReadByUser("carol"))
	}
}

func TestSendMessageRejectsNonParticipant(t *testing.T) {
	uc, _, _ := newTestChatUseCase()
	ctx := context.Background()

	chat, err := uc.CreateDirectChat(ctx, "alice", CreateDirectChatInput{RecipientID: "bob"})
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, "carol", SendMessageInput{ChatID: chat.Chat.ID, Content: "hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestMissingChatLooksLikeForbidden(t *testing.T) {
	uc, _, _ := newTestChatUseCase()

	_, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{ChatID: "no-such-chat", Content: "hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"), "existence must not be revealed through the error")
}

func TestSendMessageBroadcastIncludesSenderSessions(t *testing.T) {
	uc, _, registry := newTestChatUseCase()
	ctx := context.Background()

	chat, err := uc.CreateDirectChat(ctx, "alice", CreateDirectChatInput{RecipientID: "bob"})
	require.NoError(t, err)

	alice := newSession(registry, "alice")
	bob := newSession(registry, "bob")
	registry.JoinRoom(alice, ws.ChatRoom(chat.Chat.ID))
	registry.JoinRoom(bob, ws.ChatRoom(chat.Chat.ID))

	_, err = uc.SendMessage(ctx, "alice", SendMessageInput{ChatID: chat.Chat.ID, Content: "hello"})
	require.NoError(t, err)

	assert.Len(t, alice.Send, 1, "sender's session receives the broadcast as its ack")
	assert.Len(t, bob.Send, 1)
}

func TestEditMessageOnlyBySender(t *testing.T) {
	uc, _, _ := newTestChatUseCase()
	ctx := context.Background()

	chat, err := uc.CreateDirectChat(ctx, "alice", CreateDirectChatInput{RecipientID: "bob"})
	require.NoError(t, err)

	sent, err := uc.SendMessage(ctx, "alice", SendMessageInput{ChatID: chat.Chat.ID, Content: "original"})
	require.NoError(t, err)

	_, err = uc.EditMessage(ctx, "bob", chat.Chat.ID, sent.Message.ID, EditMessageInput{Content: "hijacked"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	edited, err := uc.EditMessage(ctx, "alice", chat.Chat.ID, sent.Message.ID, EditMessageInput{Content: "fixed"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", edited.Message.Content)
	assert.True(t, edited.Message.IsEdited)
}

func TestDeletedMessageIsRedacted(t *testing.T) {
	uc, _, _ := newTestChatUseCase()
	ctx := context.Background()

	chat, err := uc.CreateDirectChat(ctx, "alice", CreateDirectChatInput{RecipientID: "bob"})
	require.NoError(t, err)

	sent, err := uc.SendMessage(ctx, "alice", SendMessageInput{ChatID: chat.Chat.ID, Content: "secret"})
	require.NoError(t, err)

	require.NoError(t, uc.DeleteMessage(ctx, "alice", chat.Chat.ID, sent.Message.ID))

	messages, _, err := uc.GetChatMessages(ctx, "bob", chat.Chat.ID, 50, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.True(t, messages[0].IsDeleted)
	assert.Empty(t, messages[0].Content)
}

func TestLeaveGroupRevokesRoomsAndHandsOverAdmin(t *testing.T) {
	uc, chatRepo, registry := newTestChatUseCase()
	ctx := context.Background()

	group, err := uc.CreateGroupChat(ctx, "alice", CreateGroupChatInput{
		Name:         "team",
		Participants: []string{"bob", "carol"},
	})
	require.NoError(t, err)

	aliceSession := newSession(registry, "alice")
	registry.JoinRoom(aliceSession, ws.ChatRoom(group.Chat.ID))

	require.NoError(t, uc.LeaveGroup(ctx, "alice", group.Chat.ID))

	assert.False(t, registry.InRoom(aliceSession, ws.ChatRoom(group.Chat.ID)))

	chat := chatRepo.chats[group.Chat.ID]
	assert.False(t, chat.HasParticipant("alice"))
	assert.NotEqual(t, "alice", chat.GroupAdminID)
	assert.True(t, chat.IsActive)

	// A departed member can no longer act on the conversation.
	_, err = uc.SendMessage(ctx, "alice", SendMessageInput{ChatID: group.Chat.ID, Content: "hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestLeaveDirectChatRejected(t *testing.T) {
	uc, _, _ := newTestChatUseCase()
	ctx := context.Background()

	chat, err := uc.CreateDirectChat(ctx, "alice", CreateDirectChatInput{RecipientID: "bob"})
	require.NoError(t, err)

	err = uc.LeaveGroup(ctx, "alice", chat.Chat.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestCanSubscribeChecksStore(t *testing.T) {
	uc, _, _ := newTestChatUseCase()
	ctx := context.Background()

	chat, err := uc.CreateDirectChat(ctx, "alice", CreateDirectChatInput{RecipientID: "bob"})
	require.NoError(t, err)

	assert.NoError(t, uc.CanSubscribe(ctx, "alice", chat.Chat.ID))
	assert.Error(t, uc.CanSubscribe(ctx, "carol", chat.Chat.ID))
	assert.Error(t, uc.CanSubscribe(ctx, "alice", "no-such-chat"))
}

func TestMarkReadNotifiesRoom(t *testing.T) {
	uc, _, registry := newTestChatUseCase()
	ctx := context.Background()

	chat, err := uc.CreateDirectChat(ctx, "alice", CreateDirectChatInput{RecipientID: "bob"})
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, "alice", SendMessageInput{ChatID: chat.Chat.ID, Content: "hello"})
	require.NoError(t, err)

	aliceSession := newSession(registry, "alice")
	registry.JoinRoom(aliceSession, ws.ChatRoom(chat.Chat.ID))

	require.NoError(t, uc.MarkChatAsRead(ctx, "bob", chat.Chat.ID, ""))

	require.Len(t, aliceSession.Send, 1)
}

func TestSearchMessagesFiltersByContent(t *testing.T) {
	uc, _, _ := newTestChatUseCase()
	ctx := context.Background()

	chat, err := uc.CreateDirectChat(ctx, "alice", CreateDirectChatInput{RecipientID: "bob"})
	require.NoError(t, err)

	for _, content := range []string{"deploy went fine", "lunch?", "the Deploy broke staging"} {
		_, err := uc.SendMessage(ctx, "alice", SendMessageInput{ChatID: chat.Chat.ID, Content: content})
		require.NoError(t, err)
	}

	results, total, err := uc.SearchChatMessages(ctx, "bob", chat.Chat.ID, "deploy", 50, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Contains(t, strings.ToLower(r.Message.Content), "deploy")
		require.NotNil(t, r.Sender)
		assert.Equal(t, "alice", r.Sender.ID)
	}
}

func TestSearchMessagesExcludesDeleted(t *testing.T) {
	uc, _, _ := newTestChatUseCase()
	ctx := context.Background()

	chat, err := uc.CreateDirectChat(ctx, "alice", CreateDirectChatInput{RecipientID: "bob"})
	require.NoError(t, err)

	sent, err := uc.SendMessage(ctx, "alice", SendMessageInput{ChatID: chat.Chat.ID, Content: "secret plans"})
	require.NoError(t, err)
	require.NoError(t, uc.DeleteMessage(ctx, "alice", chat.Chat.ID, sent.Message.ID))

	results, total, err := uc.SearchChatMessages(ctx, "alice", chat.Chat.ID, "secret", 50, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, results)
}

func TestSearchMessagesRejectsNonParticipant(t *testing.T) {
	uc, _, _ := newTestChatUseCase()
	ctx := context.Background()

	chat, err := uc.CreateDirectChat(ctx, "alice", CreateDirectChatInput{RecipientID: "bob"})
	require.NoError(t, err)

	_, _, err = uc.SearchChatMessages(ctx, "carol", chat.Chat.ID, "anything", 50, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestConcurrentSendsAllDeliveredOnce(t *testing.T) {
	uc, chatRepo, registry := newTestChatUseCase()
	ctx := context.Background()

	chat, err := uc.CreateDirectChat(ctx, "alice", CreateDirectChatInput{RecipientID: "bob"})
	require.NoError(t, err)

	alice := newSession(registry, "alice")
	bob := newSession(registry, "bob")
	registry.JoinRoom(alice, ws.ChatRoom(chat.Chat.ID))
	registry.JoinRoom(bob, ws.ChatRoom(chat.Chat.ID))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = uc.SendMessage(ctx, "alice", SendMessageInput{ChatID: chat.Chat.ID, Content: "first"})
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = uc.SendMessage(ctx, "bob", SendMessageInput{ChatID: chat.Chat.ID, Content: "second"})
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	messages, total, err := uc.GetChatMessages(ctx, "alice", chat.Chat.ID, 50, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, messages, 2)
	assert.NotEqual(t, messages[0].Message.ID, messages[1].Message.ID, "each send persists exactly one message")

	stored := chatRepo.chats[chat.Chat.ID]
	assert.Equal(t, 1, stored.UnreadCount["alice"], "only the other side's message counts against a user")
	assert.Equal(t, 1, stored.UnreadCount["bob"])

	assert.Len(t, alice.Send, 2, "every session sees both messages")
	assert.Len(t, bob.Send, 2)
}

func TestDirectChatIDDerivedFromPair(t *testing.T) {
	uc, chatRepo, _ := newTestChatUseCase()
	ctx := context.Background()

	chat, err := uc.CreateDirectChat(ctx, "alice", CreateDirectChatInput{RecipientID: "bob"})
	require.NoError(t, err)

	assert.Equal(t, entity.DirectChatID("bob", "alice"), chat.Chat.ID, "the ID is order-independent")

	// Two callers racing past the lookup still land on the same document.
	var wg sync.WaitGroup
	results := make([]*ChatResponse, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0], _ = uc.CreateDirectChat(ctx, "alice", CreateDirectChatInput{RecipientID: "carol"})
	}()
	go func() {
		defer wg.Done()
		results[1], _ = uc.CreateDirectChat(ctx, "carol", CreateDirectChatInput{RecipientID: "alice"})
	}()
	wg.Wait()

	require.NotNil(t, results[0])
	require.NotNil(t, results[1])
	assert.Equal(t, results[0].Chat.ID, results[1].Chat.ID)

	count := 0
	for _, c := range chatRepo.chats {
		if c.Type == entity.ChatTypeDirect && c.HasParticipant("carol") {
			count++
		}
	}
	assert.Equal(t, 1, count, "racing creates converge on one conversation")
}

func TestSendMessageOnInactiveChat(t *testing.T) {
	uc, _, _ := newTestChatUseCase()
	ctx := context.Background()

	chat, err := uc.CreateDirectChat(ctx, "alice", CreateDirectChatInput{RecipientID: "bob"})
	require.NoError(t, err)

	require.NoError(t, uc.DeactivateChat(ctx, "alice", chat.Chat.ID))

	_, err = uc.SendMessage(ctx, "alice", SendMessageInput{ChatID: chat.Chat.ID, Content: "hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}
