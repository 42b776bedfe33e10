package messaging

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/teris-io/shortid"

	"github.com/murmur-chat/murmur/internal/database"
	"github.com/murmur-chat/murmur/internal/types"
)

// BroadcastStore handles public one-to-many posts, their view tracking and
// their comment tree.
type BroadcastStore struct {
	log  *log.Logger
	repo database.Repository
}

func NewBroadcastStore(logger *log.Logger, repo database.Repository) *BroadcastStore {
	return &BroadcastStore{
		log:  logger,
		repo: repo,
	}
}

type CreateBroadcastParams struct {
	// Sender is nil for fully anonymous posts.
	Sender    *types.Identity
	Content   string
	Anonymous bool
}

// Create publishes a broadcast. The generated external id is the shareable
// handle; anonymous posts never expose the sender, even if one is known.
func (s *BroadcastStore) Create(ctx context.Context, params CreateBroadcastParams) (types.Broadcast, error) {
	content, err := validateContent(params.Content)
	if err != nil {
		return types.Broadcast{}, err
	}

	externalId, err := shortid.Generate()
	if err != nil {
		return types.Broadcast{}, fmt.Errorf("generate external id: %w", err)
	}

	var senderId uuid.NullUUID
	anonymous := params.Anonymous
	if params.Sender != nil {
		senderId = uuid.NullUUID{UUID: params.Sender.Id, Valid: true}
	} else {
		anonymous = true
	}

	b, err := s.repo.CreateBroadcast(ctx, senderId, externalId, content, anonymous)
	if err != nil {
		return types.Broadcast{}, fmt.Errorf("create broadcast: %w", err)
	}

	view := broadcastView(b)
	if params.Sender != nil && !anonymous {
		view.SenderUsername = &params.Sender.Username
	}

	return view, nil
}

// Get returns a broadcast and records the caller's view. Each viewer counts
// once, so repeat visits do not inflate the count.
func (s *BroadcastStore) Get(ctx context.Context, caller *types.Identity, id uuid.UUID) (types.Broadcast, error) {
	if caller != nil {
		if err := s.repo.TrackBroadcastView(ctx, id, caller.Id); err != nil {
			s.log.Printf("failed to track view of broadcast %s: %s", id, err)
		}
	}

	b, err := s.repo.GetBroadcastById(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Broadcast{}, fmt.Errorf("broadcast %s: %w", id, ErrNotFound)
		}
		return types.Broadcast{}, fmt.Errorf("load broadcast: %w", err)
	}

	return broadcastView(b), nil
}

func (s *BroadcastStore) List(ctx context.Context, limit int) ([]types.Broadcast, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	broadcasts, err := s.repo.ListBroadcasts(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list broadcasts: %w", err)
	}

	views := make([]types.Broadcast, 0, len(broadcasts))
	for _, b := range broadcasts {
		views = append(views, broadcastView(b))
	}

	return views, nil
}

// Comment adds a comment to a broadcast, optionally replying to another
// comment on the same broadcast.
func (s *BroadcastStore) Comment(ctx context.Context, caller types.Identity, broadcastId uuid.UUID, rawContent string, parentId *uuid.UUID) (types.Comment, error) {
	content, err := validateContent(rawContent)
	if err != nil {
		return types.Comment{}, err
	}

	if _, err := s.repo.GetBroadcastById(ctx, broadcastId); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Comment{}, fmt.Errorf("broadcast %s: %w", broadcastId, ErrNotFound)
		}
		return types.Comment{}, fmt.Errorf("load broadcast: %w", err)
	}

	var parent uuid.NullUUID
	if parentId != nil {
		parentComment, err := s.repo.GetCommentById(ctx, *parentId)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return types.Comment{}, fmt.Errorf("parent comment %s: %w", *parentId, ErrNotFound)
			}
			return types.Comment{}, fmt.Errorf("load parent comment: %w", err)
		}
		if parentComment.BroadcastId != broadcastId {
			return types.Comment{}, fmt.Errorf("parent comment belongs to another broadcast: %w", ErrInvalidInput)
		}
		parent = uuid.NullUUID{UUID: *parentId, Valid: true}
	}

	c, err := s.repo.CreateComment(ctx, broadcastId, caller.Id, content, parent)
	if err != nil {
		return types.Comment{}, fmt.Errorf("create comment: %w", err)
	}

	view := commentView(c)
	view.Username = caller.Username

	return view, nil
}

func (s *BroadcastStore) Comments(ctx context.Context, broadcastId uuid.UUID) ([]types.Comment, error) {
	comments, err := s.repo.ListComments(ctx, broadcastId)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	views := make([]types.Comment, 0, len(comments))
	for _, c := range comments {
		views = append(views, commentView(c))
	}

	return views, nil
}

// DeleteComment tombstones a comment. Author only.
func (s *BroadcastStore) DeleteComment(ctx context.Context, caller types.Identity, commentId uuid.UUID) error {
	c, err := s.repo.GetCommentById(ctx, commentId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("comment %s: %w", commentId, ErrNotFound)
		}
		return fmt.Errorf("load comment: %w", err)
	}

	if c.UserId != caller.Id {
		return ErrForbidden
	}

	if err := s.repo.SoftDeleteComment(ctx, commentId); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	return nil
}

func broadcastView(b database.Broadcast) types.Broadcast {
	view := types.Broadcast{
		Id:          b.Id,
		ExternalId:  b.ExternalId,
		Content:     b.Content,
		IsAnonymous: b.IsAnonymous,
		ViewCount:   b.ViewCount,
		CreatedAt:   b.CreatedAt,
	}

	if !b.IsAnonymous && b.SenderUsername.Valid {
		view.SenderUsername = &b.SenderUsername.String
	}

	return view
}

func commentView(c database.Comment) types.Comment {
	view := types.Comment{
		Id:          c.Id,
		BroadcastId: c.BroadcastId,
		UserId:      c.UserId,
		Username:    c.Username,
		Content:     c.Content,
		CreatedAt:   c.CreatedAt,
	}

	if c.ParentCommentId.Valid {
		id := c.ParentCommentId.UUID
		view.ParentCommentId = &id
	}

	if counts, err := database.ReactionCounts(c.Reactions); err == nil {
		view.Reactions = counts
	}

	return view
}
