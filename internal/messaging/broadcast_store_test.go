package messaging

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/murmur-chat/murmur/internal/database"
	"github.com/murmur-chat/murmur/internal/testutil"
)

func TestCreateBroadcast(t *testing.T) {
	t.Run("signed post carries the username", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		mockRepo.On("CreateBroadcast", mock.Anything, nullId(alice.Id), mock.AnythingOfType("string"), "big news", false).
			Return(database.Broadcast{
				Id:         uuid.New(),
				ExternalId: "abc123",
				SenderId:   nullId(alice.Id),
				Content:    "big news",
				CreatedAt:  time.Now().UTC(),
			}, nil).Once()

		store := NewBroadcastStore(testutil.TestLogger(), mockRepo)
		b, err := store.Create(context.Background(), CreateBroadcastParams{
			Sender:  &alice,
			Content: "big news",
		})

		assert.NoError(t, err)
		assert.NotNil(t, b.SenderUsername)
		assert.Equal(t, "alice", *b.SenderUsername)
		assert.Equal(t, "abc123", b.ExternalId)
		mockRepo.AssertExpectations(t)
	})

	t.Run("anonymous flag hides a known sender", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		mockRepo.On("CreateBroadcast", mock.Anything, nullId(alice.Id), mock.AnythingOfType("string"), "psst", true).
			Return(database.Broadcast{
				Id:          uuid.New(),
				ExternalId:  "xyz789",
				SenderId:    nullId(alice.Id),
				Content:     "psst",
				IsAnonymous: true,
				CreatedAt:   time.Now().UTC(),
			}, nil).Once()

		store := NewBroadcastStore(testutil.TestLogger(), mockRepo)
		b, err := store.Create(context.Background(), CreateBroadcastParams{
			Sender:    &alice,
			Content:   "psst",
			Anonymous: true,
		})

		assert.NoError(t, err)
		assert.Nil(t, b.SenderUsername)
		assert.True(t, b.IsAnonymous)
		mockRepo.AssertExpectations(t)
	})

	t.Run("no sender forces anonymity", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		mockRepo.On("CreateBroadcast", mock.Anything, uuid.NullUUID{}, mock.AnythingOfType("string"), "hello world", true).
			Return(database.Broadcast{
				Id:          uuid.New(),
				ExternalId:  "qrs456",
				Content:     "hello world",
				IsAnonymous: true,
				CreatedAt:   time.Now().UTC(),
			}, nil).Once()

		store := NewBroadcastStore(testutil.TestLogger(), mockRepo)
		b, err := store.Create(context.Background(), CreateBroadcastParams{Content: "hello world"})

		assert.NoError(t, err)
		assert.True(t, b.IsAnonymous)
		mockRepo.AssertExpectations(t)
	})
}

func TestGetBroadcastTracksView(t *testing.T) {
	id := uuid.New()
	stored := database.Broadcast{
		Id:             id,
		ExternalId:     "abc123",
		SenderId:       nullId(alice.Id),
		SenderUsername: sql.NullString{String: "alice", Valid: true},
		Content:        "news",
		ViewCount:      7,
		CreatedAt:      time.Now().UTC(),
	}

	t.Run("authenticated viewer", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		mockRepo.On("TrackBroadcastView", mock.Anything, id, bob.Id).Return(nil).Once()
		mockRepo.On("GetBroadcastById", mock.Anything, id).Return(stored, nil).Once()

		store := NewBroadcastStore(testutil.TestLogger(), mockRepo)
		b, err := store.Get(context.Background(), &bob, id)

		assert.NoError(t, err)
		assert.Equal(t, int64(7), b.ViewCount)
		assert.Equal(t, "alice", *b.SenderUsername)
		mockRepo.AssertExpectations(t)
	})

	t.Run("anonymous viewer is not tracked", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		mockRepo.On("GetBroadcastById", mock.Anything, id).Return(stored, nil).Once()

		store := NewBroadcastStore(testutil.TestLogger(), mockRepo)
		_, err := store.Get(context.Background(), nil, id)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("missing broadcast", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		mockRepo.On("GetBroadcastById", mock.Anything, id).
			Return(database.Broadcast{}, sql.ErrNoRows).Once()

		store := NewBroadcastStore(testutil.TestLogger(), mockRepo)
		_, err := store.Get(context.Background(), nil, id)

		assert.ErrorIs(t, err, ErrNotFound)
		mockRepo.AssertExpectations(t)
	})
}

func TestComment(t *testing.T) {
	broadcastId := uuid.New()
	stored := database.Broadcast{Id: broadcastId, ExternalId: "abc123", Content: "news"}

	t.Run("top level comment", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		mockRepo.On("GetBroadcastById", mock.Anything, broadcastId).Return(stored, nil).Once()
		mockRepo.On("CreateComment", mock.Anything, broadcastId, bob.Id, "nice", uuid.NullUUID{}).
			Return(database.Comment{
				Id:          uuid.New(),
				BroadcastId: broadcastId,
				UserId:      bob.Id,
				Content:     "nice",
				CreatedAt:   time.Now().UTC(),
			}, nil).Once()

		store := NewBroadcastStore(testutil.TestLogger(), mockRepo)
		c, err := store.Comment(context.Background(), bob, broadcastId, "nice", nil)

		assert.NoError(t, err)
		assert.Equal(t, "bob", c.Username)
		assert.Nil(t, c.ParentCommentId)
		mockRepo.AssertExpectations(t)
	})

	t.Run("reply to comment on another broadcast", func(t *testing.T) {
		parentId := uuid.New()

		mockRepo := &database.MockRepository{}
		mockRepo.On("GetBroadcastById", mock.Anything, broadcastId).Return(stored, nil).Once()
		mockRepo.On("GetCommentById", mock.Anything, parentId).
			Return(database.Comment{Id: parentId, BroadcastId: uuid.New()}, nil).Once()

		store := NewBroadcastStore(testutil.TestLogger(), mockRepo)
		_, err := store.Comment(context.Background(), bob, broadcastId, "re", &parentId)

		assert.ErrorIs(t, err, ErrInvalidInput)
		mockRepo.AssertExpectations(t)
	})
}

func TestDeleteComment(t *testing.T) {
	commentId := uuid.New()
	stored := database.Comment{Id: commentId, BroadcastId: uuid.New(), UserId: bob.Id}

	t.Run("author deletes", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		mockRepo.On("GetCommentById", mock.Anything, commentId).Return(stored, nil).Once()
		mockRepo.On("SoftDeleteComment", mock.Anything, commentId).Return(nil).Once()

		store := NewBroadcastStore(testutil.TestLogger(), mockRepo)
		assert.NoError(t, store.DeleteComment(context.Background(), bob, commentId))
		mockRepo.AssertExpectations(t)
	})

	t.Run("non-author is rejected", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		mockRepo.On("GetCommentById", mock.Anything, commentId).Return(stored, nil).Once()

		store := NewBroadcastStore(testutil.TestLogger(), mockRepo)
		err := store.DeleteComment(context.Background(), carol, commentId)

		assert.ErrorIs(t, err, ErrForbidden)
		mockRepo.AssertExpectations(t)
	})
}
