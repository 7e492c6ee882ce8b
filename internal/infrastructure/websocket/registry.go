package websocket

import (
	"context"
	"sync"
	"time"

	"chatwave/pkg/logger"
)

// PresenceWriter persists online/offline flags. Writes are best-effort from
// the registry's perspective and never block connection setup or teardown.
type PresenceWriter interface {
	SetOnlineStatus(ctx context.Context, userID string, online bool, at time.Time) error
}

// PersonalRoom is the per-user room used for direct, user-targeted
// notifications such as "new conversation created".
func PersonalRoom(userID string) string {
	return "user:" + userID
}

// ChatRoom is the relay subscription group for one conversation.
func ChatRoom(chatID string) string {
	return "chat:" + chatID
}

// Registry owns all in-memory shared mutable state of the relay: the
// user/session presence maps and the room subscription table. Every mutation
// is serialized behind one mutex. The room table is a cache of should-be-
// subscribed; authorization decisions are never made from it.
type Registry struct {
	mu       sync.RWMutex
	byUser   map[string]map[*Client]struct{}
	rooms    map[string]map[*Client]struct{}
	byClient map[*Client]map[string]struct{}

	presence PresenceWriter

	// Per-user FIFO of decided presence flags. Transitions are enqueued
	// while mu is still held, so queue order is decision order; a single
	// drainer per user applies them in that order.
	presenceMu      sync.Mutex
	presencePending map[string][]bool
	presenceActive  map[string]bool
}

func NewRegistry(presence PresenceWriter) *Registry {
	return &Registry{
		byUser:          make(map[string]map[*Client]struct{}),
		rooms:           make(map[string]map[*Client]struct{}),
		byClient:        make(map[*Client]map[string]struct{}),
		presence:        presence,
		presencePending: make(map[string][]bool),
		presenceActive:  make(map[string]bool),
	}
}

// Register adds the session and subscribes it to its personal room. The
// first session for a user triggers a fire-and-forget online write.
func (r *Registry) Register(client *Client) {
	r.mu.Lock()
	sessions, known := r.byUser[client.UserID]
	if !known {
		sessions = make(map[*Client]struct{})
		r.byUser[client.UserID] = sessions
	}
	first := len(sessions) == 0
	sessions[client] = struct{}{}
	r.byClient[client] = make(map[string]struct{})
	r.joinLocked(client, PersonalRoom(client.UserID))
	if first {
		r.enqueuePresence(client.UserID, true)
	}
	r.mu.Unlock()

	logger.Info("Session registered: user=%s (first=%v)", client.UserID, first)

	if first {
		r.flushPresence(client.UserID)
	}
}

// Unregister removes the session and all of its room subscriptions. It is
// idempotent: the transport may report a disconnect more than once. The last
// session for a user triggers a fire-and-forget offline write.
func (r *Registry) Unregister(client *Client) {
	r.mu.Lock()
	rooms, known := r.byClient[client]
	if !known {
		r.mu.Unlock()
		return
	}
	for room := range rooms {
		r.leaveLocked(client, room)
	}
	delete(r.byClient, client)

	last := false
	if sessions, ok := r.byUser[client.UserID]; ok {
		delete(sessions, client)
		if len(sessions) == 0 {
			delete(r.byUser, client.UserID)
			last = true
		}
	}
	if last {
		r.enqueuePresence(client.UserID, false)
	}
	r.mu.Unlock()

	client.closeSend()
	logger.Info("Session unregistered: user=%s (last=%v)", client.UserID, last)

	if last {
		r.flushPresence(client.UserID)
	}
}

// IsOnline reports whether the user has at least one live session.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// OnlineUsers returns the IDs of every user with at least one live session.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]string, 0, len(r.byUser))
	for userID := range r.byUser {
		users = append(users, userID)
	}
	return users
}

// JoinRoom subscribes the session to a room. Authorization happens before
// this call; the registry only tracks membership.
func (r *Registry) JoinRoom(client *Client, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, known := r.byClient[client]; !known {
		// Connection already torn down; never leave state for a dead session.
		return
	}
	r.joinLocked(client, room)
}

func (r *Registry) LeaveRoom(client *Client, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(client, room)
}

// LeaveRoomAllSessions unsubscribes every session of a user from a room.
// Used server-side when a user is removed from a conversation.
func (r *Registry) LeaveRoomAllSessions(userID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for client := range r.byUser[userID] {
		r.leaveLocked(client, room)
	}
}

// InRoom reports whether the session is currently subscribed to the room.
func (r *Registry) InRoom(client *Client, room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room][client]
	return ok
}

// RoomsOf returns the rooms the session is currently subscribed to.
func (r *Registry) RoomsOf(client *Client) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rooms := make([]string, 0, len(r.byClient[client]))
	for room := range r.byClient[client] {
		rooms = append(rooms, room)
	}
	return rooms
}

// Broadcast delivers payload to every session in the room, except the
// excluded one if non-nil. Delivery is at-least-once best-effort: a session
// whose send buffer is full is dropped and torn down rather than blocking
// the rest of the room.
func (r *Registry) Broadcast(room string, payload []byte, except *Client) {
	r.mu.RLock()
	targets := make([]*Client, 0, len(r.rooms[room]))
	for client := range r.rooms[room] {
		if client != except {
			targets = append(targets, client)
		}
	}
	r.mu.RUnlock()

	for _, client := range targets {
		r.send(client, payload)
	}
}

// SendToUser delivers payload to every session of one user.
func (r *Registry) SendToUser(userID string, payload []byte) {
	r.Broadcast(PersonalRoom(userID), payload, nil)
}

// SendToClient delivers payload to a single session.
func (r *Registry) SendToClient(client *Client, payload []byte) {
	r.send(client, payload)
}

func (r *Registry) send(client *Client, payload []byte) {
	if !client.enqueue(payload) {
		logger.Warn("Send buffer full for user %s, dropping session", client.UserID)
		r.Unregister(client)
	}
}

func (r *Registry) joinLocked(client *Client, room string) {
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		r.rooms[room] = members
	}
	members[client] = struct{}{}
	if rooms, ok := r.byClient[client]; ok {
		rooms[room] = struct{}{}
	}
}

func (r *Registry) leaveLocked(client *Client, room string) {
	if members, ok := r.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	if rooms, ok := r.byClient[client]; ok {
		delete(rooms, room)
	}
}

// enqueuePresence records a decided transition. Callers must hold r.mu so
// overlapping connects and disconnects cannot reorder the queue relative to
// the decisions themselves.
func (r *Registry) enqueuePresence(userID string, online bool) {
	if r.presence == nil {
		return
	}
	r.presenceMu.Lock()
	r.presencePending[userID] = append(r.presencePending[userID], online)
	r.presenceMu.Unlock()
}

// flushPresence starts the user's drainer if none is running. Writes are
// best-effort: a failed write is logged and dropped, never retried and never
// surfaced to the connection path, but later writes still apply in order.
func (r *Registry) flushPresence(userID string) {
	if r.presence == nil {
		return
	}
	r.presenceMu.Lock()
	if r.presenceActive[userID] || len(r.presencePending[userID]) == 0 {
		r.presenceMu.Unlock()
		return
	}
	r.presenceActive[userID] = true
	r.presenceMu.Unlock()

	go func() {
		for {
			r.presenceMu.Lock()
			queue := r.presencePending[userID]
			if len(queue) == 0 {
				delete(r.presencePending, userID)
				delete(r.presenceActive, userID)
				r.presenceMu.Unlock()
				return
			}
			online := queue[0]
			r.presencePending[userID] = queue[1:]
			r.presenceMu.Unlock()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := r.presence.SetOnlineStatus(ctx, userID, online, time.Now()); err != nil {
				logger.LogPresenceError(userID, online, err)
			}
			cancel()
		}
	}()
}
