package entity

import "time"

const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeFile   = "file"
	MessageTypeAudio  = "audio"
	MessageTypeVideo  = "video"
	MessageTypeSystem = "system"
)

type Message struct {
	ID       string `json:"id" firestore:"id"`
	ChatID   string `json:"chat_id" firestore:"chatId"`
	SenderID string `json:"sender_id,omitempty" firestore:"senderId,omitempty"` // empty for system messages
	Content  string `json:"content" firestore:"content"`
	Type     string `json:"type" firestore:"type"` // "text", "image", "file", "audio", "video", "system"

	MediaURL string `json:"media_url,omitempty" firestore:"mediaUrl,omitempty"`
	FileName string `json:"file_name,omitempty" firestore:"fileName,omitempty"`
	FileSize int64  `json:"file_size,omitempty" firestore:"fileSize,omitempty"`
	FileType string `json:"file_type,omitempty" firestore:"fileType,omitempty"`

	ReplyTo string `json:"reply_to,omitempty" firestore:"replyTo,omitempty"`

	// Map of readerID to read timestamp; grows monotonically until the message is deleted
	ReadBy map[string]time.Time `json:"read_by" firestore:"readBy"`

	IsEdited bool      `json:"is_edited" firestore:"isEdited"`
	EditedAt time.Time `json:"edited_at,omitempty" firestore:"editedAt,omitempty"`

	IsDeleted bool      `json:"is_deleted" firestore:"isDeleted"`
	DeletedAt time.Time `json:"deleted_at,omitempty" firestore:"deletedAt,omitempty"`
	DeletedBy string    `json:"deleted_by,omitempty" firestore:"deletedBy,omitempty"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// ReadByUser reports whether userID has a read receipt on the message.
func (m *Message) ReadByUser(userID string) bool {
	_, ok := m.ReadBy[userID]
	return ok
}
