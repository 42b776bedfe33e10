package database

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Ping(ctx context.Context) error

	// accounts
	CreateAccount(ctx context.Context, params CreateAccountParams) (User, error)
	GetAccountById(ctx context.Context, id uuid.UUID) (User, error)
	GetAccountByUsername(ctx context.Context, username string) (User, error)
	ListAccounts(ctx context.Context) ([]User, error)
	UpdateProfile(ctx context.Context, params UpdateProfileParams) (User, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error

	// messages and threads
	CreateMessage(ctx context.Context, senderId uuid.NullUUID, recipientId uuid.UUID, content string) (Message, error)
	CreateReply(ctx context.Context, threadId uuid.UUID, senderId, recipientId uuid.UUID, content string) (Message, error)
	GetMessageById(ctx context.Context, id uuid.UUID) (Message, error)
	LatestThreadMessage(ctx context.Context, threadId uuid.UUID) (Message, error)
	ThreadMessages(ctx context.Context, threadId uuid.UUID) ([]Message, error)
	MarkThreadRead(ctx context.Context, threadId, userId uuid.UUID) error
	ListConversations(ctx context.Context, userId uuid.UUID) ([]Conversation, error)
	ListInbox(ctx context.Context, userId uuid.UUID) ([]Message, error)
	EditMessage(ctx context.Context, id uuid.UUID, content string) error
	SoftDeleteMessage(ctx context.Context, id uuid.UUID) error
	SoftDeleteThread(ctx context.Context, threadId, userId uuid.UUID) (int64, error)
	SearchMessages(ctx context.Context, userId uuid.UUID, query string, limit int) ([]Message, error)
	ToggleMessagePin(ctx context.Context, id uuid.UUID) (bool, error)
	ToggleThreadPin(ctx context.Context, threadId, userId uuid.UUID) (bool, error)
	ThreadCounterpart(ctx context.Context, threadId, userId uuid.UUID) (uuid.UUID, error)

	// reactions
	UpsertMessageReaction(ctx context.Context, messageId, userId uuid.UUID, emoji string) error
	MessageReactionCounts(ctx context.Context, messageId uuid.UUID) (map[string]int, error)
	UpsertCommentReaction(ctx context.Context, commentId, userId uuid.UUID, emoji string) error

	// broadcasts and comments
	CreateBroadcast(ctx context.Context, senderId uuid.NullUUID, externalId, content string, anonymous bool) (Broadcast, error)
	GetBroadcastById(ctx context.Context, id uuid.UUID) (Broadcast, error)
	ListBroadcasts(ctx context.Context, limit int) ([]Broadcast, error)
	TrackBroadcastView(ctx context.Context, broadcastId, userId uuid.UUID) error
	CreateComment(ctx context.Context, broadcastId, userId uuid.UUID, content string, parentId uuid.NullUUID) (Comment, error)
	GetCommentById(ctx context.Context, id uuid.UUID) (Comment, error)
	ListComments(ctx context.Context, broadcastId uuid.UUID) ([]Comment, error)
	SoftDeleteComment(ctx context.Context, id uuid.UUID) error

	// blocks
	BlockUser(ctx context.Context, blockerId, blockedId uuid.UUID) error
	UnblockUser(ctx context.Context, blockerId, blockedId uuid.UUID) error
	ListBlockedUsers(ctx context.Context, blockerId uuid.UUID) ([]uuid.UUID, error)
	IsBlocked(ctx context.Context, blockerId, blockedId uuid.UUID) (bool, error)

	// preferences
	GetPreferences(ctx context.Context, userId uuid.UUID) (Preferences, bool, error)
	UpsertPreferences(ctx context.Context, params UpsertPreferencesParams) error
}
