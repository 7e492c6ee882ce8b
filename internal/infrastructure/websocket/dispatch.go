package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"

	"chatwave/internal/infrastructure/ratelimit"
	apperrors "chatwave/pkg/errors"
	"chatwave/pkg/logger"
)

// RelayService covers the persistence side-effects of inbound events. The
// implementation is responsible for the authoritative participant checks
// (against the conversation store, never the room table) and for
// broadcasting the resulting events.
type RelayService interface {
	RelaySendMessage(ctx context.Context, senderID string, p SendMessagePayload) error
	RelayMarkRead(ctx context.Context, userID, chatID, messageID string) error
	CanSubscribe(ctx context.Context, userID, chatID string) error
}

type handlerFunc func(ctx context.Context, c *Client, data json.RawMessage) error

// Dispatcher routes inbound events through an explicit dispatch table built
// once at construction. Handlers run synchronously on the owning
// connection's read pump, so events from one connection are processed and
// broadcast in arrival order.
type Dispatcher struct {
	registry *Registry
	relay    RelayService
	validate *validator.Validate
	limiter  *ratelimit.RateLimiter
	handlers map[string]handlerFunc
}

func NewDispatcher(registry *Registry, relay RelayService) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		relay:    relay,
		validate: validator.New(),
		limiter:  ratelimit.NewRateLimiter(),
	}

	d.handlers = map[string]handlerFunc{
		EventPing:        d.handlePing,
		EventSendMessage: d.handleSendMessage,
		EventTyping:      d.handleTyping,
		EventMarkRead:    d.handleMarkRead,
		EventJoinChat:    d.handleJoinChat,
		EventLeaveChat:   d.handleLeaveChat,
	}

	return d
}

// Dispatch decodes one inbound frame and runs its handler. Every failure is
// scoped to this event and reported only to the originating connection.
func (d *Dispatcher) Dispatch(c *Client, raw []byte) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		logger.Debug("Malformed frame from user %s: %v", c.UserID, err)
		d.sendError(c, "", apperrors.Validation("Invalid message format", err))
		return
	}

	handler, ok := d.handlers[envelope.Type]
	if !ok {
		d.sendError(c, envelope.Type, apperrors.Validation("Unknown event type", nil))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := handler(ctx, c, envelope.Data); err != nil {
		d.sendError(c, envelope.Type, err)
	}
}

func (d *Dispatcher) handlePing(ctx context.Context, c *Client, data json.RawMessage) error {
	d.registry.SendToClient(c, Marshal(EventPong, map[string]string{"status": "alive"}))
	return nil
}

func (d *Dispatcher) handleSendMessage(ctx context.Context, c *Client, data json.RawMessage) error {
	var p SendMessagePayload
	if err := d.decode(data, &p); err != nil {
		return err
	}
	return d.relay.RelaySendMessage(ctx, c.UserID, p)
}

// Typing is gated on room membership only: it is low-stakes, never persisted
// and never queued for offline delivery. The origin session is excluded from
// the broadcast.
func (d *Dispatcher) handleTyping(ctx context.Context, c *Client, data json.RawMessage) error {
	var p TypingPayload
	if err := d.decode(data, &p); err != nil {
		return err
	}

	if allowed, waitTime := d.limiter.Allow(c.UserID, "typing"); !allowed {
		return apperrors.TooManyRequests("Typing too fast. Please slow down", waitTime)
	}

	room := ChatRoom(p.ChatID)
	if !d.registry.InRoom(c, room) {
		return apperrors.Forbidden("Not subscribed to this conversation", nil)
	}

	d.registry.Broadcast(room, Marshal(EventUserTyping, TypingEvent{
		ChatID:   p.ChatID,
		UserID:   c.UserID,
		Username: c.Username,
		IsTyping: p.IsTyping,
	}), c)
	return nil
}

func (d *Dispatcher) handleMarkRead(ctx context.Context, c *Client, data json.RawMessage) error {
	var p MarkReadPayload
	if err := d.decode(data, &p); err != nil {
		return err
	}
	return d.relay.RelayMarkRead(ctx, c.UserID, p.ChatID, p.MessageID)
}

func (d *Dispatcher) handleJoinChat(ctx context.Context, c *Client, data json.RawMessage) error {
	var p JoinChatPayload
	if err := d.decode(data, &p); err != nil {
		return err
	}

	if err := d.relay.CanSubscribe(ctx, c.UserID, p.ChatID); err != nil {
		return err
	}

	d.registry.JoinRoom(c, ChatRoom(p.ChatID))
	logger.Debug("User %s joined room for chat %s", c.UserID, p.ChatID)
	return nil
}

func (d *Dispatcher) handleLeaveChat(ctx context.Context, c *Client, data json.RawMessage) error {
	var p JoinChatPayload
	if err := d.decode(data, &p); err != nil {
		return err
	}

	d.registry.LeaveRoom(c, ChatRoom(p.ChatID))
	logger.Debug("User %s left room for chat %s", c.UserID, p.ChatID)
	return nil
}

// decode unmarshals and validates a typed payload. Shape failures are a
// distinct validation failure, rejected before any authorization logic.
func (d *Dispatcher) decode(data json.RawMessage, out interface{}) error {
	if len(data) == 0 {
		return apperrors.Validation("Missing event payload", nil)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.Validation("Invalid event payload", err)
	}
	if err := d.validate.Struct(out); err != nil {
		return apperrors.Validation("Invalid event payload", err)
	}
	return nil
}

// sendError reports a failure to the originating connection only, with a
// coarse reason. Missing resources surface as authorization failures so the
// response does not leak whether a conversation exists.
func (d *Dispatcher) sendError(c *Client, eventType string, err error) {
	code := apperrors.Code(err)
	message := "Unable to process event"
	if appErr, ok := err.(*apperrors.AppError); ok {
		message = appErr.Message
	}
	if code == "NOT_FOUND" {
		code = "FORBIDDEN"
		message = "Not a participant of this conversation"
	}

	d.registry.SendToClient(c, Marshal(EventError, ErrorEvent{
		Event:   eventType,
		Code:    code,
		Message: message,
	}))
}
