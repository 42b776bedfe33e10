package messaging

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/murmur-chat/murmur/internal/database"
	"github.com/murmur-chat/murmur/internal/types"
)

const maxContentLength = 5000

// ThreadStore implements anonymous two-party messaging on top of the
// repository. Every read it returns is shaped for a specific viewer so that
// sender identity never crosses the API boundary.
type ThreadStore struct {
	log  *log.Logger
	repo database.Repository
}

func NewThreadStore(logger *log.Logger, repo database.Repository) *ThreadStore {
	return &ThreadStore{
		log:  logger,
		repo: repo,
	}
}

type SendParams struct {
	// Sender is nil for anonymous messages.
	Sender     *types.Identity
	ToUsername string
	Content    string
}

type SendResult struct {
	// Message is the new message as the sender sees it.
	Message     types.Message
	RecipientId uuid.UUID
	// RecipientView is the same message shaped for the recipient, ready to
	// be published to their event channel.
	RecipientView types.Message
}

// Send starts a new thread with a single message to the named recipient.
// Anonymous sends are allowed; blocked senders are rejected.
func (s *ThreadStore) Send(ctx context.Context, params SendParams) (SendResult, error) {
	content, err := validateContent(params.Content)
	if err != nil {
		return SendResult{}, err
	}

	recipient, err := s.repo.GetAccountByUsername(ctx, strings.TrimSpace(params.ToUsername))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SendResult{}, fmt.Errorf("recipient %q: %w", params.ToUsername, ErrNotFound)
		}
		return SendResult{}, fmt.Errorf("lookup recipient: %w", err)
	}

	var senderId uuid.NullUUID
	if params.Sender != nil {
		if params.Sender.Id == recipient.Id {
			return SendResult{}, fmt.Errorf("cannot message yourself: %w", ErrInvalidInput)
		}

		blocked, err := s.repo.IsBlocked(ctx, recipient.Id, params.Sender.Id)
		if err != nil {
			return SendResult{}, fmt.Errorf("check block: %w", err)
		}
		if blocked {
			return SendResult{}, fmt.Errorf("recipient has blocked you: %w", ErrForbidden)
		}

		senderId = uuid.NullUUID{UUID: params.Sender.Id, Valid: true}
	}

	msg, err := s.repo.CreateMessage(ctx, senderId, recipient.Id, content)
	if err != nil {
		return SendResult{}, fmt.Errorf("create message: %w", err)
	}

	var viewer uuid.UUID
	if params.Sender != nil {
		viewer = params.Sender.Id
	}

	return SendResult{
		Message:       messageView(msg, viewer),
		RecipientId:   recipient.Id,
		RecipientView: messageView(msg, recipient.Id),
	}, nil
}

// Reply appends a message to an existing thread. Routing is derived from the
// latest message: a recipient replies to the sender, a sender replies to the
// recipient, and anyone else is rejected. Replying to an anonymous sender is
// impossible because there is no one to address.
func (s *ThreadStore) Reply(ctx context.Context, caller types.Identity, threadId uuid.UUID, rawContent string) (SendResult, error) {
	content, err := validateContent(rawContent)
	if err != nil {
		return SendResult{}, err
	}

	latest, err := s.repo.LatestThreadMessage(ctx, threadId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SendResult{}, fmt.Errorf("thread %s: %w", threadId, ErrNotFound)
		}
		return SendResult{}, fmt.Errorf("load thread: %w", err)
	}

	var recipientId uuid.UUID
	switch {
	case latest.RecipientId == caller.Id:
		if !latest.SenderId.Valid {
			return SendResult{}, ErrAnonymousSender
		}
		recipientId = latest.SenderId.UUID
	case latest.SenderId.Valid && latest.SenderId.UUID == caller.Id:
		recipientId = latest.RecipientId
	default:
		return SendResult{}, ErrNotAParticipant
	}

	msg, err := s.repo.CreateReply(ctx, threadId, caller.Id, recipientId, content)
	if err != nil {
		return SendResult{}, fmt.Errorf("create reply: %w", err)
	}

	return SendResult{
		Message:       messageView(msg, caller.Id),
		RecipientId:   recipientId,
		RecipientView: messageView(msg, recipientId),
	}, nil
}

// ThreadMessages returns the thread in chronological order, shaped for the
// caller, and marks messages addressed to the caller as read. This is the
// only operation that flips read state.
func (s *ThreadStore) ThreadMessages(ctx context.Context, caller types.Identity, threadId uuid.UUID) ([]types.Message, error) {
	msgs, err := s.repo.ThreadMessages(ctx, threadId)
	if err != nil {
		return nil, fmt.Errorf("load thread: %w", err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("thread %s: %w", threadId, ErrNotFound)
	}

	if !isParticipant(msgs, caller.Id) {
		return nil, ErrNotAParticipant
	}

	// Read receipts are best effort. A failed update must not hide the
	// thread from the caller.
	if err := s.repo.MarkThreadRead(ctx, threadId, caller.Id); err != nil {
		s.log.Printf("failed to mark thread %s read: %s", threadId, err)
	}

	views := make([]types.Message, 0, len(msgs))
	for _, m := range msgs {
		v := messageView(m, caller.Id)
		if m.RecipientId == caller.Id {
			v.IsRead = true
		}
		views = append(views, v)
	}

	return views, nil
}

// Conversations lists the caller's threads, newest first, pinned threads
// leading. ToUsername is only present on threads whose latest message the
// caller sent.
func (s *ThreadStore) Conversations(ctx context.Context, caller types.Identity) ([]types.ThreadSummary, error) {
	convs, err := s.repo.ListConversations(ctx, caller.Id)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	summaries := make([]types.ThreadSummary, 0, len(convs))
	for _, c := range convs {
		summary := types.ThreadSummary{
			ThreadId:    c.ThreadId,
			Latest:      messageView(c.Message, caller.Id),
			UnreadCount: c.UnreadCount,
			Pinned:      c.ThreadPinned,
		}
		if c.RecipientUsername.Valid {
			summary.ToUsername = &c.RecipientUsername.String
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// Inbox lists every message addressed to the caller, newest first, without
// touching read state.
func (s *ThreadStore) Inbox(ctx context.Context, caller types.Identity) ([]types.Message, error) {
	msgs, err := s.repo.ListInbox(ctx, caller.Id)
	if err != nil {
		return nil, fmt.Errorf("list inbox: %w", err)
	}

	views := make([]types.Message, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, messageView(m, caller.Id))
	}

	return views, nil
}

// Edit replaces a message's content, keeping a snapshot of the prior text.
// Only the author may edit, which also rules out anonymous messages.
func (s *ThreadStore) Edit(ctx context.Context, caller types.Identity, messageId uuid.UUID, rawContent string) (types.Message, error) {
	content, err := validateContent(rawContent)
	if err != nil {
		return types.Message{}, err
	}

	msg, err := s.authoredMessage(ctx, caller, messageId)
	if err != nil {
		return types.Message{}, err
	}

	if err := s.repo.EditMessage(ctx, messageId, content); err != nil {
		return types.Message{}, fmt.Errorf("edit message: %w", err)
	}

	msg, err = s.repo.GetMessageById(ctx, messageId)
	if err != nil {
		return types.Message{}, fmt.Errorf("reload message: %w", err)
	}

	return messageView(msg, caller.Id), nil
}

// Delete tombstones a single message and returns its thread id. Author only.
func (s *ThreadStore) Delete(ctx context.Context, caller types.Identity, messageId uuid.UUID) (uuid.UUID, error) {
	msg, err := s.authoredMessage(ctx, caller, messageId)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.repo.SoftDeleteMessage(ctx, messageId); err != nil {
		return uuid.Nil, fmt.Errorf("delete message: %w", err)
	}

	return msg.ThreadId, nil
}

// DeleteThread tombstones every message in a thread the caller participates
// in. Threads the caller has no part in are indistinguishable from missing
// ones.
func (s *ThreadStore) DeleteThread(ctx context.Context, caller types.Identity, threadId uuid.UUID) error {
	affected, err := s.repo.SoftDeleteThread(ctx, threadId, caller.Id)
	if err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("thread %s: %w", threadId, ErrNotFound)
	}

	return nil
}

// Search finds the caller's messages matching the query, case insensitively.
// An empty query matches nothing.
func (s *ThreadStore) Search(ctx context.Context, caller types.Identity, query string, limit int) ([]types.Message, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []types.Message{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	msgs, err := s.repo.SearchMessages(ctx, caller.Id, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}

	views := make([]types.Message, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, messageView(m, caller.Id))
	}

	return views, nil
}

// PinMessage toggles a message's pin. Either participant may pin.
func (s *ThreadStore) PinMessage(ctx context.Context, caller types.Identity, messageId uuid.UUID) (bool, error) {
	msg, err := s.repo.GetMessageById(ctx, messageId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("message %s: %w", messageId, ErrNotFound)
		}
		return false, fmt.Errorf("load message: %w", err)
	}

	if !isParticipant([]database.Message{msg}, caller.Id) {
		return false, ErrNotAParticipant
	}

	pinned, err := s.repo.ToggleMessagePin(ctx, messageId)
	if err != nil {
		return false, fmt.Errorf("toggle pin: %w", err)
	}

	return pinned, nil
}

// PinThread toggles the caller's personal pin on a thread.
func (s *ThreadStore) PinThread(ctx context.Context, caller types.Identity, threadId uuid.UUID) (bool, error) {
	latest, err := s.repo.LatestThreadMessage(ctx, threadId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("thread %s: %w", threadId, ErrNotFound)
		}
		return false, fmt.Errorf("load thread: %w", err)
	}

	if !isParticipant([]database.Message{latest}, caller.Id) {
		return false, ErrNotAParticipant
	}

	pinned, err := s.repo.ToggleThreadPin(ctx, threadId, caller.Id)
	if err != nil {
		return false, fmt.Errorf("toggle thread pin: %w", err)
	}

	return pinned, nil
}

// Counterpart resolves the other participant of a thread, if one is known.
func (s *ThreadStore) Counterpart(ctx context.Context, threadId, userId uuid.UUID) (uuid.UUID, error) {
	other, err := s.repo.ThreadCounterpart(ctx, threadId, userId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("thread %s: %w", threadId, ErrNotFound)
		}
		return uuid.Nil, fmt.Errorf("thread counterpart: %w", err)
	}

	return other, nil
}

func (s *ThreadStore) authoredMessage(ctx context.Context, caller types.Identity, messageId uuid.UUID) (database.Message, error) {
	msg, err := s.repo.GetMessageById(ctx, messageId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.Message{}, fmt.Errorf("message %s: %w", messageId, ErrNotFound)
		}
		return database.Message{}, fmt.Errorf("load message: %w", err)
	}

	if !msg.SenderId.Valid || msg.SenderId.UUID != caller.Id {
		return database.Message{}, ErrForbidden
	}

	return msg, nil
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("content must not be empty: %w", ErrInvalidInput)
	}
	if len(content) > maxContentLength {
		return "", fmt.Errorf("content exceeds %d characters: %w", maxContentLength, ErrInvalidInput)
	}

	return content, nil
}

func isParticipant(msgs []database.Message, userId uuid.UUID) bool {
	for _, m := range msgs {
		if m.RecipientId == userId {
			return true
		}
		if m.SenderId.Valid && m.SenderId.UUID == userId {
			return true
		}
	}

	return false
}

// messageView shapes a stored message for a viewer. Sender identity never
// leaves this function; the viewer only learns whether the message is theirs.
func messageView(m database.Message, viewer uuid.UUID) types.Message {
	v := types.Message{
		Id:        m.Id,
		ThreadId:  m.ThreadId,
		Content:   m.Content,
		IsMine:    m.SenderId.Valid && m.SenderId.UUID == viewer,
		IsRead:    m.IsRead,
		Pinned:    m.Pinned,
		State:     types.MessageActive,
		CreatedAt: m.CreatedAt,
	}

	if m.EditedAt.Valid {
		t := m.EditedAt.Time
		v.EditedAt = &t
		v.State = types.MessageEdited
	}
	if m.DeletedAt.Valid {
		v.State = types.MessageDeleted
		v.Content = ""
	}

	if counts, err := database.ReactionCounts(m.Reactions); err == nil {
		v.Reactions = counts
	}

	return v
}
