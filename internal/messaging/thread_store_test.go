package messaging

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/murmur-chat/murmur/internal/database"
	"github.com/murmur-chat/murmur/internal/testutil"
	"github.com/murmur-chat/murmur/internal/types"
)

var (
	alice = types.Identity{Id: uuid.New(), Username: "alice"}
	bob   = types.Identity{Id: uuid.New(), Username: "bob"}
	carol = types.Identity{Id: uuid.New(), Username: "carol"}
)

func nullId(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: true}
}

func TestSend(t *testing.T) {
	threadId := uuid.New()

	tt := []struct {
		name        string
		params      SendParams
		setupMock   func(*database.MockRepository)
		wantErr     error
		wantIsMine  bool
		wantContent string
	}{
		{
			name:   "authenticated send",
			params: SendParams{Sender: &alice, ToUsername: "bob", Content: "  hello bob  "},
			setupMock: func(m *database.MockRepository) {
				m.On("GetAccountByUsername", mock.Anything, "bob").
					Return(database.User{Id: bob.Id, Username: "bob"}, nil).Once()
				m.On("IsBlocked", mock.Anything, bob.Id, alice.Id).
					Return(false, nil).Once()
				m.On("CreateMessage", mock.Anything, nullId(alice.Id), bob.Id, "hello bob").
					Return(database.Message{
						Id:          uuid.New(),
						ThreadId:    threadId,
						SenderId:    nullId(alice.Id),
						RecipientId: bob.Id,
						Content:     "hello bob",
						CreatedAt:   time.Now().UTC(),
					}, nil).Once()
			},
			wantIsMine:  true,
			wantContent: "hello bob",
		},
		{
			name:   "anonymous send",
			params: SendParams{ToUsername: "bob", Content: "guess who"},
			setupMock: func(m *database.MockRepository) {
				m.On("GetAccountByUsername", mock.Anything, "bob").
					Return(database.User{Id: bob.Id, Username: "bob"}, nil).Once()
				m.On("CreateMessage", mock.Anything, uuid.NullUUID{}, bob.Id, "guess who").
					Return(database.Message{
						Id:          uuid.New(),
						ThreadId:    threadId,
						RecipientId: bob.Id,
						Content:     "guess who",
						CreatedAt:   time.Now().UTC(),
					}, nil).Once()
			},
			wantIsMine:  false,
			wantContent: "guess who",
		},
		{
			name:   "blocked sender",
			params: SendParams{Sender: &alice, ToUsername: "bob", Content: "hi"},
			setupMock: func(m *database.MockRepository) {
				m.On("GetAccountByUsername", mock.Anything, "bob").
					Return(database.User{Id: bob.Id, Username: "bob"}, nil).Once()
				m.On("IsBlocked", mock.Anything, bob.Id, alice.Id).
					Return(true, nil).Once()
			},
			wantErr: ErrForbidden,
		},
		{
			name:   "unknown recipient",
			params: SendParams{ToUsername: "nobody", Content: "hi"},
			setupMock: func(m *database.MockRepository) {
				m.On("GetAccountByUsername", mock.Anything, "nobody").
					Return(database.User{}, sql.ErrNoRows).Once()
			},
			wantErr: ErrNotFound,
		},
		{
			name:      "empty content",
			params:    SendParams{ToUsername: "bob", Content: "   "},
			setupMock: func(m *database.MockRepository) {},
			wantErr:   ErrInvalidInput,
		},
		{
			name:      "oversized content",
			params:    SendParams{ToUsername: "bob", Content: strings.Repeat("a", maxContentLength+1)},
			setupMock: func(m *database.MockRepository) {},
			wantErr:   ErrInvalidInput,
		},
		{
			name:      "message to self",
			params:    SendParams{Sender: &bob, ToUsername: "bob", Content: "hi me"},
			wantErr:   ErrInvalidInput,
			setupMock: func(m *database.MockRepository) {
				m.On("GetAccountByUsername", mock.Anything, "bob").
					Return(database.User{Id: bob.Id, Username: "bob"}, nil).Once()
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockRepository{}
			tc.setupMock(mockRepo)

			store := NewThreadStore(testutil.TestLogger(), mockRepo)
			res, err := store.Send(context.Background(), tc.params)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.wantIsMine, res.Message.IsMine)
				assert.Equal(t, tc.wantContent, res.Message.Content)
				assert.Equal(t, bob.Id, res.RecipientId)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestReplyRouting(t *testing.T) {
	threadId := uuid.New()

	tt := []struct {
		name          string
		caller        types.Identity
		latest        database.Message
		wantRecipient uuid.UUID
		wantErr       error
	}{
		{
			name:          "recipient replies to sender",
			caller:        bob,
			latest:        database.Message{ThreadId: threadId, SenderId: nullId(alice.Id), RecipientId: bob.Id},
			wantRecipient: alice.Id,
		},
		{
			name:          "sender replies to recipient",
			caller:        alice,
			latest:        database.Message{ThreadId: threadId, SenderId: nullId(alice.Id), RecipientId: bob.Id},
			wantRecipient: bob.Id,
		},
		{
			name:    "recipient cannot reply to anonymous sender",
			caller:  bob,
			latest:  database.Message{ThreadId: threadId, RecipientId: bob.Id},
			wantErr: ErrAnonymousSender,
		},
		{
			name:    "outsider cannot reply",
			caller:  carol,
			latest:  database.Message{ThreadId: threadId, SenderId: nullId(alice.Id), RecipientId: bob.Id},
			wantErr: ErrNotAParticipant,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockRepository{}
			mockRepo.On("LatestThreadMessage", mock.Anything, threadId).
				Return(tc.latest, nil).Once()

			if tc.wantErr == nil {
				mockRepo.On("CreateReply", mock.Anything, threadId, tc.caller.Id, tc.wantRecipient, "on it").
					Return(database.Message{
						Id:          uuid.New(),
						ThreadId:    threadId,
						SenderId:    nullId(tc.caller.Id),
						RecipientId: tc.wantRecipient,
						Content:     "on it",
						CreatedAt:   time.Now().UTC(),
					}, nil).Once()
			}

			store := NewThreadStore(testutil.TestLogger(), mockRepo)
			res, err := store.Reply(context.Background(), tc.caller, threadId, "on it")

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.wantRecipient, res.RecipientId)
				assert.True(t, res.Message.IsMine)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestReplyMissingThread(t *testing.T) {
	mockRepo := &database.MockRepository{}
	mockRepo.On("LatestThreadMessage", mock.Anything, mock.Anything).
		Return(database.Message{}, sql.ErrNoRows).Once()

	store := NewThreadStore(testutil.TestLogger(), mockRepo)
	_, err := store.Reply(context.Background(), bob, uuid.New(), "hello?")

	assert.ErrorIs(t, err, ErrNotFound)
	mockRepo.AssertExpectations(t)
}

func TestThreadMessages(t *testing.T) {
	threadId := uuid.New()
	msgs := []database.Message{
		{Id: uuid.New(), ThreadId: threadId, RecipientId: bob.Id, Content: "first", CreatedAt: time.Now().UTC()},
		{Id: uuid.New(), ThreadId: threadId, SenderId: nullId(bob.Id), RecipientId: alice.Id, Content: "second", CreatedAt: time.Now().UTC()},
	}

	mockRepo := &database.MockRepository{}
	mockRepo.On("ThreadMessages", mock.Anything, threadId).Return(msgs, nil).Once()
	mockRepo.On("MarkThreadRead", mock.Anything, threadId, bob.Id).Return(nil).Once()

	store := NewThreadStore(testutil.TestLogger(), mockRepo)
	views, err := store.ThreadMessages(context.Background(), bob, threadId)

	assert.NoError(t, err)
	assert.Len(t, views, 2)

	// the anonymous first message is not bob's and reveals no sender
	assert.False(t, views[0].IsMine)
	// reading the thread flips the receipt on messages addressed to bob
	assert.True(t, views[0].IsRead)
	assert.True(t, views[1].IsMine)
	assert.False(t, views[1].IsRead)

	mockRepo.AssertExpectations(t)
}

func TestThreadMessagesMarkReadFailureIsNotFatal(t *testing.T) {
	threadId := uuid.New()
	msgs := []database.Message{
		{Id: uuid.New(), ThreadId: threadId, RecipientId: bob.Id, Content: "hi", CreatedAt: time.Now().UTC()},
	}

	mockRepo := &database.MockRepository{}
	mockRepo.On("ThreadMessages", mock.Anything, threadId).Return(msgs, nil).Once()
	mockRepo.On("MarkThreadRead", mock.Anything, threadId, bob.Id).
		Return(errors.New("connection reset")).Once()

	store := NewThreadStore(testutil.TestLogger(), mockRepo)
	views, err := store.ThreadMessages(context.Background(), bob, threadId)

	assert.NoError(t, err)
	assert.Len(t, views, 1)
	mockRepo.AssertExpectations(t)
}

func TestThreadMessagesAccess(t *testing.T) {
	threadId := uuid.New()

	t.Run("outsider", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		mockRepo.On("ThreadMessages", mock.Anything, threadId).Return([]database.Message{
			{ThreadId: threadId, SenderId: nullId(alice.Id), RecipientId: bob.Id},
		}, nil).Once()

		store := NewThreadStore(testutil.TestLogger(), mockRepo)
		_, err := store.ThreadMessages(context.Background(), carol, threadId)

		assert.ErrorIs(t, err, ErrNotAParticipant)
		mockRepo.AssertExpectations(t)
	})

	t.Run("empty thread", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		mockRepo.On("ThreadMessages", mock.Anything, threadId).Return([]database.Message{}, nil).Once()

		store := NewThreadStore(testutil.TestLogger(), mockRepo)
		_, err := store.ThreadMessages(context.Background(), bob, threadId)

		assert.ErrorIs(t, err, ErrNotFound)
		mockRepo.AssertExpectations(t)
	})
}

func TestConversations(t *testing.T) {
	threadId := uuid.New()
	convs := []database.Conversation{
		{
			Message: database.Message{
				Id:          uuid.New(),
				ThreadId:    threadId,
				SenderId:    nullId(alice.Id),
				RecipientId: bob.Id,
				Content:     "latest",
				CreatedAt:   time.Now().UTC(),
			},
			UnreadCount:       0,
			RecipientUsername: sql.NullString{String: "bob", Valid: true},
			ThreadPinned:      true,
		},
		{
			Message: database.Message{
				Id:          uuid.New(),
				ThreadId:    uuid.New(),
				RecipientId: alice.Id,
				Content:     "from a stranger",
				CreatedAt:   time.Now().UTC(),
			},
			UnreadCount: 3,
		},
	}

	mockRepo := &database.MockRepository{}
	mockRepo.On("ListConversations", mock.Anything, alice.Id).Return(convs, nil).Once()

	store := NewThreadStore(testutil.TestLogger(), mockRepo)
	summaries, err := store.Conversations(context.Background(), alice)

	assert.NoError(t, err)
	assert.Len(t, summaries, 2)

	// alice sent the latest message of the first thread, so she sees who it
	// went to
	assert.NotNil(t, summaries[0].ToUsername)
	assert.Equal(t, "bob", *summaries[0].ToUsername)
	assert.True(t, summaries[0].Pinned)

	// the second thread's latest message was sent to alice anonymously
	assert.Nil(t, summaries[1].ToUsername)
	assert.Equal(t, 3, summaries[1].UnreadCount)
	assert.False(t, summaries[1].Latest.IsMine)

	mockRepo.AssertExpectations(t)
}

func TestEdit(t *testing.T) {
	messageId := uuid.New()
	stored := database.Message{
		Id:          messageId,
		ThreadId:    uuid.New(),
		SenderId:    nullId(alice.Id),
		RecipientId: bob.Id,
		Content:     "typo",
		CreatedAt:   time.Now().UTC(),
	}

	t.Run("author edits", func(t *testing.T) {
		edited := stored
		edited.Content = "fixed"
		edited.EditedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

		mockRepo := &database.MockRepository{}
		mockRepo.On("GetMessageById", mock.Anything, messageId).Return(stored, nil).Once()
		mockRepo.On("EditMessage", mock.Anything, messageId, "fixed").Return(nil).Once()
		mockRepo.On("GetMessageById", mock.Anything, messageId).Return(edited, nil).Once()

		store := NewThreadStore(testutil.TestLogger(), mockRepo)
		view, err := store.Edit(context.Background(), alice, messageId, "fixed")

		assert.NoError(t, err)
		assert.Equal(t, "fixed", view.Content)
		assert.Equal(t, types.MessageEdited, view.State)
		assert.NotNil(t, view.EditedAt)
		mockRepo.AssertExpectations(t)
	})

	t.Run("recipient cannot edit", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		mockRepo.On("GetMessageById", mock.Anything, messageId).Return(stored, nil).Once()

		store := NewThreadStore(testutil.TestLogger(), mockRepo)
		_, err := store.Edit(context.Background(), bob, messageId, "rewritten")

		assert.ErrorIs(t, err, ErrForbidden)
		mockRepo.AssertExpectations(t)
	})

	t.Run("anonymous message cannot be edited", func(t *testing.T) {
		anon := stored
		anon.SenderId = uuid.NullUUID{}

		mockRepo := &database.MockRepository{}
		mockRepo.On("GetMessageById", mock.Anything, messageId).Return(anon, nil).Once()

		store := NewThreadStore(testutil.TestLogger(), mockRepo)
		_, err := store.Edit(context.Background(), alice, messageId, "rewritten")

		assert.ErrorIs(t, err, ErrForbidden)
		mockRepo.AssertExpectations(t)
	})
}

func TestDeleteThread(t *testing.T) {
	threadId := uuid.New()

	t.Run("participant deletes", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		mockRepo.On("SoftDeleteThread", mock.Anything, threadId, bob.Id).
			Return(int64(4), nil).Once()

		store := NewThreadStore(testutil.TestLogger(), mockRepo)
		assert.NoError(t, store.DeleteThread(context.Background(), bob, threadId))
		mockRepo.AssertExpectations(t)
	})

	t.Run("nothing to delete", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		mockRepo.On("SoftDeleteThread", mock.Anything, threadId, carol.Id).
			Return(int64(0), nil).Once()

		store := NewThreadStore(testutil.TestLogger(), mockRepo)
		err := store.DeleteThread(context.Background(), carol, threadId)

		assert.ErrorIs(t, err, ErrNotFound)
		mockRepo.AssertExpectations(t)
	})
}

func TestSearch(t *testing.T) {
	t.Run("empty query matches nothing", func(t *testing.T) {
		mockRepo := &database.MockRepository{}

		store := NewThreadStore(testutil.TestLogger(), mockRepo)
		views, err := store.Search(context.Background(), alice, "   ", 10)

		assert.NoError(t, err)
		assert.Empty(t, views)
		mockRepo.AssertExpectations(t)
	})

	t.Run("limit is clamped", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		mockRepo.On("SearchMessages", mock.Anything, alice.Id, "hello", 50).
			Return([]database.Message{}, nil).Once()

		store := NewThreadStore(testutil.TestLogger(), mockRepo)
		_, err := store.Search(context.Background(), alice, "hello", 0)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})
}

func TestMessageViewTombstone(t *testing.T) {
	m := database.Message{
		Id:          uuid.New(),
		ThreadId:    uuid.New(),
		SenderId:    nullId(alice.Id),
		RecipientId: bob.Id,
		Content:     "gone soon",
		CreatedAt:   time.Now().UTC(),
		DeletedAt:   sql.NullTime{Time: time.Now().UTC(), Valid: true},
	}

	v := messageView(m, bob.Id)

	assert.Equal(t, types.MessageDeleted, v.State)
	assert.Empty(t, v.Content)
}
