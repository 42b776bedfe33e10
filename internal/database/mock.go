package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a testify mock of Repository for handler and store tests.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRepository) CreateAccount(ctx context.Context, params CreateAccountParams) (User, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(User), args.Error(1)
}

func (m *MockRepository) GetAccountById(ctx context.Context, id uuid.UUID) (User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(User), args.Error(1)
}

func (m *MockRepository) GetAccountByUsername(ctx context.Context, username string) (User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(User), args.Error(1)
}

func (m *MockRepository) ListAccounts(ctx context.Context) ([]User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]User), args.Error(1)
}

func (m *MockRepository) UpdateProfile(ctx context.Context, params UpdateProfileParams) (User, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(User), args.Error(1)
}

func (m *MockRepository) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) CreateMessage(ctx context.Context, senderId uuid.NullUUID, recipientId uuid.UUID, content string) (Message, error) {
	args := m.Called(ctx, senderId, recipientId, content)
	return args.Get(0).(Message), args.Error(1)
}

func (m *MockRepository) CreateReply(ctx context.Context, threadId uuid.UUID, senderId, recipientId uuid.UUID, content string) (Message, error) {
	args := m.Called(ctx, threadId, senderId, recipientId, content)
	return args.Get(0).(Message), args.Error(1)
}

func (m *MockRepository) GetMessageById(ctx context.Context, id uuid.UUID) (Message, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Message), args.Error(1)
}

func (m *MockRepository) LatestThreadMessage(ctx context.Context, threadId uuid.UUID) (Message, error) {
	args := m.Called(ctx, threadId)
	return args.Get(0).(Message), args.Error(1)
}

func (m *MockRepository) ThreadMessages(ctx context.Context, threadId uuid.UUID) ([]Message, error) {
	args := m.Called(ctx, threadId)
	return args.Get(0).([]Message), args.Error(1)
}

func (m *MockRepository) MarkThreadRead(ctx context.Context, threadId, userId uuid.UUID) error {
	args := m.Called(ctx, threadId, userId)
	return args.Error(0)
}

func (m *MockRepository) ListConversations(ctx context.Context, userId uuid.UUID) ([]Conversation, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).([]Conversation), args.Error(1)
}

func (m *MockRepository) ListInbox(ctx context.Context, userId uuid.UUID) ([]Message, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).([]Message), args.Error(1)
}

func (m *MockRepository) EditMessage(ctx context.Context, id uuid.UUID, content string) error {
	args := m.Called(ctx, id, content)
	return args.Error(0)
}

func (m *MockRepository) SoftDeleteMessage(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) SoftDeleteThread(ctx context.Context, threadId, userId uuid.UUID) (int64, error) {
	args := m.Called(ctx, threadId, userId)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) SearchMessages(ctx context.Context, userId uuid.UUID, query string, limit int) ([]Message, error) {
	args := m.Called(ctx, userId, query, limit)
	return args.Get(0).([]Message), args.Error(1)
}

func (m *MockRepository) ToggleMessagePin(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ToggleThreadPin(ctx context.Context, threadId, userId uuid.UUID) (bool, error) {
	args := m.Called(ctx, threadId, userId)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ThreadCounterpart(ctx context.Context, threadId, userId uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, threadId, userId)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockRepository) UpsertMessageReaction(ctx context.Context, messageId, userId uuid.UUID, emoji string) error {
	args := m.Called(ctx, messageId, userId, emoji)
	return args.Error(0)
}

func (m *MockRepository) MessageReactionCounts(ctx context.Context, messageId uuid.UUID) (map[string]int, error) {
	args := m.Called(ctx, messageId)
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockRepository) UpsertCommentReaction(ctx context.Context, commentId, userId uuid.UUID, emoji string) error {
	args := m.Called(ctx, commentId, userId, emoji)
	return args.Error(0)
}

func (m *MockRepository) CreateBroadcast(ctx context.Context, senderId uuid.NullUUID, externalId, content string, anonymous bool) (Broadcast, error) {
	args := m.Called(ctx, senderId, externalId, content, anonymous)
	return args.Get(0).(Broadcast), args.Error(1)
}

func (m *MockRepository) GetBroadcastById(ctx context.Context, id uuid.UUID) (Broadcast, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Broadcast), args.Error(1)
}

func (m *MockRepository) ListBroadcasts(ctx context.Context, limit int) ([]Broadcast, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]Broadcast), args.Error(1)
}

func (m *MockRepository) TrackBroadcastView(ctx context.Context, broadcastId, userId uuid.UUID) error {
	args := m.Called(ctx, broadcastId, userId)
	return args.Error(0)
}

func (m *MockRepository) CreateComment(ctx context.Context, broadcastId, userId uuid.UUID, content string, parentId uuid.NullUUID) (Comment, error) {
	args := m.Called(ctx, broadcastId, userId, content, parentId)
	return args.Get(0).(Comment), args.Error(1)
}

func (m *MockRepository) GetCommentById(ctx context.Context, id uuid.UUID) (Comment, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Comment), args.Error(1)
}

func (m *MockRepository) ListComments(ctx context.Context, broadcastId uuid.UUID) ([]Comment, error) {
	args := m.Called(ctx, broadcastId)
	return args.Get(0).([]Comment), args.Error(1)
}

func (m *MockRepository) SoftDeleteComment(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) BlockUser(ctx context.Context, blockerId, blockedId uuid.UUID) error {
	args := m.Called(ctx, blockerId, blockedId)
	return args.Error(0)
}

func (m *MockRepository) UnblockUser(ctx context.Context, blockerId, blockedId uuid.UUID) error {
	args := m.Called(ctx, blockerId, blockedId)
	return args.Error(0)
}

func (m *MockRepository) ListBlockedUsers(ctx context.Context, blockerId uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, blockerId)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockRepository) IsBlocked(ctx context.Context, blockerId, blockedId uuid.UUID) (bool, error) {
	args := m.Called(ctx, blockerId, blockedId)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) GetPreferences(ctx context.Context, userId uuid.UUID) (Preferences, bool, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).(Preferences), args.Bool(1), args.Error(2)
}

func (m *MockRepository) UpsertPreferences(ctx context.Context, params UpsertPreferencesParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}
