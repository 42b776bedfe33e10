package messaging

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/murmur-chat/murmur/internal/database"
	"github.com/murmur-chat/murmur/internal/types"
)

const maxEmojiLength = 16

// Reactions maintains one reaction per user per message. Reacting again with
// the same emoji is a no-op; reacting with a different emoji replaces the
// previous one.
type Reactions struct {
	log  *log.Logger
	repo database.Repository
}

func NewReactions(logger *log.Logger, repo database.Repository) *Reactions {
	return &Reactions{
		log:  logger,
		repo: repo,
	}
}

// ReactionResult is the aggregate after a reaction lands, plus the thread
// it belongs to so callers can notify the other participant.
type ReactionResult struct {
	ThreadId uuid.UUID
	Counts   map[string]int
}

// React records the caller's reaction to a message and returns the updated
// emoji counts for that message.
func (r *Reactions) React(ctx context.Context, caller types.Identity, messageId uuid.UUID, emoji string) (ReactionResult, error) {
	emoji, err := validateEmoji(emoji)
	if err != nil {
		return ReactionResult{}, err
	}

	msg, err := r.repo.GetMessageById(ctx, messageId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ReactionResult{}, fmt.Errorf("message %s: %w", messageId, ErrNotFound)
		}
		return ReactionResult{}, fmt.Errorf("load message: %w", err)
	}

	if !isParticipant([]database.Message{msg}, caller.Id) {
		return ReactionResult{}, ErrNotAParticipant
	}

	if err := r.repo.UpsertMessageReaction(ctx, messageId, caller.Id, emoji); err != nil {
		return ReactionResult{}, fmt.Errorf("save reaction: %w", err)
	}

	counts, err := r.repo.MessageReactionCounts(ctx, messageId)
	if err != nil {
		return ReactionResult{}, fmt.Errorf("count reactions: %w", err)
	}

	return ReactionResult{ThreadId: msg.ThreadId, Counts: counts}, nil
}

// ReactToComment records the caller's reaction to a broadcast comment.
func (r *Reactions) ReactToComment(ctx context.Context, caller types.Identity, commentId uuid.UUID, emoji string) error {
	emoji, err := validateEmoji(emoji)
	if err != nil {
		return err
	}

	if _, err := r.repo.GetCommentById(ctx, commentId); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("comment %s: %w", commentId, ErrNotFound)
		}
		return fmt.Errorf("load comment: %w", err)
	}

	if err := r.repo.UpsertCommentReaction(ctx, commentId, caller.Id, emoji); err != nil {
		return fmt.Errorf("save reaction: %w", err)
	}

	return nil
}

func validateEmoji(emoji string) (string, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return "", fmt.Errorf("emoji must not be empty: %w", ErrInvalidInput)
	}
	if utf8.RuneCountInString(emoji) > maxEmojiLength {
		return "", fmt.Errorf("emoji too long: %w", ErrInvalidInput)
	}

	return emoji, nil
}
