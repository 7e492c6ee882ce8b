package entity

import (
	"sort"
	"strings"
	"time"
)

const (
	ChatTypeDirect = "direct"
	ChatTypeGroup  = "group"
)

// DirectChatID derives the document ID of the direct chat between two users.
// The ID is the same regardless of argument order, so concurrent creates for
// the same pair converge on one document instead of racing a find-then-create.
func DirectChatID(userID1, userID2 string) string {
	pair := []string{userID1, userID2}
	sort.Strings(pair)
	return "dm-" + strings.Join(pair, "-")
}

type Chat struct {
	ID            string         `json:"id" firestore:"id"`
	Participants  []string       `json:"participants" firestore:"participants"`
	Type          string         `json:"type" firestore:"type"` // "direct", "group"
	GroupName     string         `json:"group_name,omitempty" firestore:"groupName,omitempty"`
	GroupAvatar   string         `json:"group_avatar,omitempty" firestore:"groupAvatar,omitempty"`
	GroupAdminID  string         `json:"group_admin_id,omitempty" firestore:"groupAdminId,omitempty"`
	LastMessageID string         `json:"last_message_id,omitempty" firestore:"lastMessageId,omitempty"`
	LastMessage   string         `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageAt time.Time      `json:"last_message_at" firestore:"lastMessageAt"`
	UnreadCount   map[string]int `json:"unread_count" firestore:"unreadCount"` // Map of userID to unread count
	IsActive      bool           `json:"is_active" firestore:"isActive"`
	CreatedAt     time.Time      `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time      `json:"updated_at" firestore:"updatedAt"`
}

// HasParticipant reports whether userID is a current participant of the chat.
func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
