package websocket

import (
	"encoding/json"
	"time"
)

// Inbound event types
const (
	EventPing        = "ping"
	EventSendMessage = "send_message"
	EventTyping      = "typing"
	EventMarkRead    = "mark_read"
	EventJoinChat    = "join_chat"
	EventLeaveChat   = "leave_chat"
)

// Outbound event types
const (
	EventPong         = "pong"
	EventNewMessage   = "new_message"
	EventUserTyping   = "user_typing"
	EventMessagesRead = "messages_read"
	EventUserOnline   = "user_online"
	EventUserOffline  = "user_offline"
	EventChatCreated  = "chat_created"
	EventError        = "error"
)

// Envelope is the wire frame for every event in both directions. Inbound
// data is decoded into the per-type payload structs below; an envelope whose
// data does not fit its type is rejected before any authorization logic runs.
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// Inbound payloads, one per event type.

type SendMessagePayload struct {
	ChatID   string `json:"chat_id" validate:"required"`
	Content  string `json:"content" validate:"required,max=4000"`
	Type     string `json:"type" validate:"omitempty,oneof=text image file audio video"`
	MediaURL string `json:"media_url" validate:"omitempty,url"`
	ReplyTo  string `json:"reply_to" validate:"omitempty"`
}

type TypingPayload struct {
	ChatID   string `json:"chat_id" validate:"required"`
	IsTyping bool   `json:"is_typing"`
}

type MarkReadPayload struct {
	ChatID    string `json:"chat_id" validate:"required"`
	MessageID string `json:"message_id" validate:"omitempty"`
}

type JoinChatPayload struct {
	ChatID string `json:"chat_id" validate:"required"`
}

// Outbound payloads.

type TypingEvent struct {
	ChatID   string `json:"chat_id"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	IsTyping bool   `json:"is_typing"`
}

type MessagesReadEvent struct {
	ChatID   string `json:"chat_id"`
	ReaderID string `json:"reader_id"`
}

type PresenceEvent struct {
	UserID   string    `json:"user_id"`
	IsOnline bool      `json:"is_online"`
	LastSeen time.Time `json:"last_seen"`
}

type ErrorEvent struct {
	Event   string `json:"event"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Marshal wraps data in an envelope and encodes it. Marshalling is over our
// own types; an error here is a programming bug, so it is swallowed after
// logging at the call sites that can do anything about it.
func Marshal(eventType string, data interface{}) []byte {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	payload, err := json.Marshal(Envelope{
		Type:      eventType,
		Data:      raw,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil
	}
	return payload
}
