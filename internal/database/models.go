package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id           uuid.UUID
	Username     string
	PasswordHash string
	Bio          sql.NullString
	AvatarUrl    sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Message struct {
	Id          uuid.UUID
	ThreadId    uuid.UUID
	SenderId    uuid.NullUUID
	RecipientId uuid.UUID
	Content     string
	IsRead      bool
	Pinned      bool
	// Reactions is the json_object_agg(emoji, count) aggregate computed on
	// read; nil when the message has no reactions.
	Reactions []byte
	CreatedAt time.Time
	EditedAt  sql.NullTime
	DeletedAt sql.NullTime
}

// Conversation is one row of a user's thread list: the latest message in the
// thread plus caller-scoped summary columns.
type Conversation struct {
	Message
	UnreadCount int
	// RecipientUsername is only non-null when the caller authored the latest
	// message. The query never exposes a sender's name to a recipient.
	RecipientUsername sql.NullString
	ThreadPinned      bool
}

type Broadcast struct {
	Id             uuid.UUID
	ExternalId     string
	SenderId       uuid.NullUUID
	SenderUsername sql.NullString
	Content        string
	IsAnonymous    bool
	ViewCount      int64
	CreatedAt      time.Time
}

type Comment struct {
	Id              uuid.UUID
	BroadcastId     uuid.UUID
	UserId          uuid.UUID
	Username        string
	Content         string
	ParentCommentId uuid.NullUUID
	Reactions       []byte
	CreatedAt       time.Time
	DeletedAt       sql.NullTime
}

type Preferences struct {
	UserId               uuid.UUID
	Theme                string
	NotificationSound    bool
	BrowserNotifications bool
	ShowReadReceipts     bool
	ShowTypingIndicators bool
}

type CreateAccountParams struct {
	Username     string
	PasswordHash string
}

type UpdateProfileParams struct {
	UserId    uuid.UUID
	Username  *string
	Bio       *string
	AvatarUrl *string
}

type UpsertPreferencesParams struct {
	UserId               uuid.UUID
	Theme                *string
	NotificationSound    *bool
	BrowserNotifications *bool
	ShowReadReceipts     *bool
	ShowTypingIndicators *bool
}
