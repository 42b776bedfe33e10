package types

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the resolved caller handed to the core by the auth layer. The
// core never inspects credentials or provider data, only this value.
type Identity struct {
	Id       uuid.UUID
	Username string
}

type User struct {
	Id        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Bio       string    `json:"bio,omitempty"`
	AvatarUrl string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// MessageState is the lifecycle of a message row. Deleted messages are
// tombstoned, never removed, and are excluded from every read path.
type MessageState string

const (
	MessageActive  MessageState = "active"
	MessageEdited  MessageState = "edited"
	MessageDeleted MessageState = "deleted"
)

// Message is the viewer-shaped form of a stored message. It intentionally
// carries no sender id: whether the message is the viewer's own is computed
// server side and exposed only as IsMine.
type Message struct {
	Id        uuid.UUID      `json:"id"`
	ThreadId  uuid.UUID      `json:"thread_id"`
	Content   string         `json:"content"`
	IsMine    bool           `json:"is_mine"`
	IsRead    bool           `json:"is_read"`
	Pinned    bool           `json:"pinned,omitempty"`
	State     MessageState   `json:"state"`
	Reactions map[string]int `json:"reactions,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	EditedAt  *time.Time     `json:"edited_at,omitempty"`
}

// ThreadSummary is one row of a user's conversation list: the latest message
// of a thread plus the caller's unread count. ToUsername is populated only
// when the caller authored the latest message; recipients always see null.
type ThreadSummary struct {
	ThreadId    uuid.UUID `json:"thread_id"`
	Latest      Message   `json:"latest_message"`
	UnreadCount int       `json:"unread_count"`
	ToUsername  *string   `json:"to_username,omitempty"`
	Pinned      bool      `json:"pinned,omitempty"`
}

type Broadcast struct {
	Id             uuid.UUID `json:"id"`
	ExternalId     string    `json:"external_id"`
	SenderUsername *string   `json:"sender_username,omitempty"`
	Content        string    `json:"content"`
	IsAnonymous    bool      `json:"is_anonymous"`
	ViewCount      int64     `json:"view_count"`
	CreatedAt      time.Time `json:"created_at"`
}

type Comment struct {
	Id              uuid.UUID      `json:"id"`
	BroadcastId     uuid.UUID      `json:"broadcast_id"`
	UserId          uuid.UUID      `json:"user_id"`
	Username        string         `json:"username"`
	Content         string         `json:"content"`
	ParentCommentId *uuid.UUID     `json:"parent_comment_id,omitempty"`
	Reactions       map[string]int `json:"reactions,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

type Preferences struct {
	Theme                string `json:"theme"`
	NotificationSound    bool   `json:"notification_sound"`
	BrowserNotifications bool   `json:"browser_notifications"`
	ShowReadReceipts     bool   `json:"show_read_receipts"`
	ShowTypingIndicators bool   `json:"show_typing_indicators"`
}

// DefaultPreferences are returned for users who never saved preferences.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:                "dark",
		NotificationSound:    true,
		BrowserNotifications: true,
		ShowReadReceipts:     true,
		ShowTypingIndicators: true,
	}
}
