package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const messageColumns = "m.id, m.thread_id, m.sender_id, m.recipient_id, m.content, m.is_read, m.pinned, m.created_at, m.edited_at, m.deleted_at"

// reactionsAgg computes the emoji -> count aggregate for a message on read.
// NULL (not an empty object) when the message has no reactions.
const reactionsAgg = "(SELECT json_object_agg(emoji, cnt) FROM " +
	"(SELECT emoji, count(*) AS cnt FROM message_reactions WHERE message_id = m.id GROUP BY emoji) agg)"

// notDeleted is the single tombstone filter applied to every message read.
const notDeleted = "m.deleted_at IS NULL"

func (db *PgRepository) CreateAccount(ctx context.Context, params CreateAccountParams) (User, error) {
	now := time.Now().UTC()
	row := db.conn.QueryRowContext(ctx,
		"INSERT INTO accounts (id, username, password_hash, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $4) RETURNING id, username, created_at, updated_at",
		uuid.New(),
		params.Username,
		params.PasswordHash,
		now,
	)

	var u User
	err := row.Scan(&u.Id, &u.Username, &u.CreatedAt, &u.UpdatedAt)

	return u, err
}

func (db *PgRepository) GetAccountById(ctx context.Context, id uuid.UUID) (User, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, username, password_hash, bio, avatar_url, created_at, updated_at "+
			"FROM accounts WHERE id = $1 LIMIT 1",
		id,
	)

	var u User
	err := row.Scan(&u.Id, &u.Username, &u.PasswordHash, &u.Bio, &u.AvatarUrl, &u.CreatedAt, &u.UpdatedAt)

	return u, err
}

func (db *PgRepository) GetAccountByUsername(ctx context.Context, username string) (User, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, username, password_hash, bio, avatar_url, created_at, updated_at "+
			"FROM accounts WHERE LOWER(username) = LOWER($1) LIMIT 1",
		username,
	)

	var u User
	err := row.Scan(&u.Id, &u.Username, &u.PasswordHash, &u.Bio, &u.AvatarUrl, &u.CreatedAt, &u.UpdatedAt)

	return u, err
}

func (db *PgRepository) ListAccounts(ctx context.Context) ([]User, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, username, password_hash, bio, avatar_url, created_at, updated_at "+
			"FROM accounts ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Id, &u.Username, &u.PasswordHash, &u.Bio, &u.AvatarUrl, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (db *PgRepository) UpdateProfile(ctx context.Context, params UpdateProfileParams) (User, error) {
	row := db.conn.QueryRowContext(ctx,
		"UPDATE accounts SET username = COALESCE($2, username), bio = COALESCE($3, bio), "+
			"avatar_url = COALESCE($4, avatar_url), updated_at = $5 WHERE id = $1 "+
			"RETURNING id, username, password_hash, bio, avatar_url, created_at, updated_at",
		params.UserId,
		params.Username,
		params.Bio,
		params.AvatarUrl,
		time.Now().UTC(),
	)

	var u User
	err := row.Scan(&u.Id, &u.Username, &u.PasswordHash, &u.Bio, &u.AvatarUrl, &u.CreatedAt, &u.UpdatedAt)

	return u, err
}

func (db *PgRepository) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM accounts WHERE id = $1", id)
	return err
}

func (db *PgRepository) CreateMessage(ctx context.Context, senderId uuid.NullUUID, recipientId uuid.UUID, content string) (Message, error) {
	msg := Message{
		Id:          uuid.New(),
		ThreadId:    uuid.New(),
		SenderId:    senderId,
		RecipientId: recipientId,
		Content:     content,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO messages (id, thread_id, sender_id, recipient_id, content, is_read, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, FALSE, $6)",
		msg.Id,
		msg.ThreadId,
		msg.SenderId,
		msg.RecipientId,
		msg.Content,
		msg.CreatedAt,
	)

	return msg, err
}

func (db *PgRepository) CreateReply(ctx context.Context, threadId uuid.UUID, senderId, recipientId uuid.UUID, content string) (Message, error) {
	msg := Message{
		Id:          uuid.New(),
		ThreadId:    threadId,
		SenderId:    uuid.NullUUID{UUID: senderId, Valid: true},
		RecipientId: recipientId,
		Content:     content,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO messages (id, thread_id, sender_id, recipient_id, content, is_read, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, FALSE, $6)",
		msg.Id,
		msg.ThreadId,
		msg.SenderId,
		msg.RecipientId,
		msg.Content,
		msg.CreatedAt,
	)

	return msg, err
}

func (db *PgRepository) GetMessageById(ctx context.Context, id uuid.UUID) (Message, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+messageColumns+" FROM messages m WHERE m.id = $1 AND "+notDeleted+" LIMIT 1",
		id,
	)

	return scanMessage(row)
}

func (db *PgRepository) LatestThreadMessage(ctx context.Context, threadId uuid.UUID) (Message, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+messageColumns+" FROM messages m "+
			"WHERE m.thread_id = $1 AND "+notDeleted+" ORDER BY m.created_at DESC LIMIT 1",
		threadId,
	)

	return scanMessage(row)
}

func (db *PgRepository) ThreadMessages(ctx context.Context, threadId uuid.UUID) ([]Message, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+messageColumns+", "+reactionsAgg+" AS reactions FROM messages m "+
			"WHERE m.thread_id = $1 AND "+notDeleted+" ORDER BY m.created_at ASC",
		threadId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessagesWithReactions(rows)
}

func (db *PgRepository) MarkThreadRead(ctx context.Context, threadId, userId uuid.UUID) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE messages SET is_read = TRUE "+
			"WHERE thread_id = $1 AND recipient_id = $2 AND NOT is_read AND deleted_at IS NULL",
		threadId,
		userId,
	)

	return err
}

func (db *PgRepository) ListConversations(ctx context.Context, userId uuid.UUID) ([]Conversation, error) {
	query := `
		SELECT * FROM (
			SELECT DISTINCT ON (m.thread_id)
				m.id, m.thread_id, m.sender_id, m.recipient_id, m.content,
				m.is_read, m.pinned, m.created_at, m.edited_at, m.deleted_at,
				(
					SELECT count(*) FROM messages u
					WHERE u.thread_id = m.thread_id AND u.recipient_id = $1
						AND NOT u.is_read AND u.deleted_at IS NULL
				) AS unread_count,
				CASE WHEN m.sender_id = $1 THEN r.username END AS recipient_username,
				EXISTS (
					SELECT 1 FROM thread_pins tp
					WHERE tp.thread_id = m.thread_id AND tp.account_id = $1
				) AS thread_pinned
			FROM messages m
			JOIN accounts r ON r.id = m.recipient_id
			WHERE m.deleted_at IS NULL AND (m.recipient_id = $1 OR m.sender_id = $1)
			ORDER BY m.thread_id, m.created_at DESC
		) t
		ORDER BY t.thread_pinned DESC, t.created_at DESC
	`

	rows, err := db.conn.QueryContext(ctx, query, userId)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var convs []Conversation
	for rows.Next() {
		var c Conversation
		err := rows.Scan(
			&c.Id,
			&c.ThreadId,
			&c.SenderId,
			&c.RecipientId,
			&c.Content,
			&c.IsRead,
			&c.Pinned,
			&c.CreatedAt,
			&c.EditedAt,
			&c.DeletedAt,
			&c.UnreadCount,
			&c.RecipientUsername,
			&c.ThreadPinned,
		)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		convs = append(convs, c)
	}

	return convs, rows.Err()
}

func (db *PgRepository) ListInbox(ctx context.Context, userId uuid.UUID) ([]Message, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+messageColumns+", "+reactionsAgg+" AS reactions FROM messages m "+
			"WHERE m.recipient_id = $1 AND "+notDeleted+" ORDER BY m.created_at DESC",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessagesWithReactions(rows)
}

// EditMessage snapshots the current content into message_edits and overwrites
// the row in one transaction so a partial edit is never observable.
func (db *PgRepository) EditMessage(ctx context.Context, id uuid.UUID, content string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var prior string
	err = tx.QueryRowContext(ctx,
		"SELECT content FROM messages WHERE id = $1 AND deleted_at IS NULL FOR UPDATE",
		id,
	).Scan(&prior)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		"INSERT INTO message_edits (id, message_id, prior_content, edited_at) VALUES ($1, $2, $3, $4)",
		uuid.New(),
		id,
		prior,
		now,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE messages SET content = $2, edited_at = $3 WHERE id = $1",
		id,
		content,
		now,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (db *PgRepository) SoftDeleteMessage(ctx context.Context, id uuid.UUID) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE messages SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL",
		id,
		time.Now().UTC(),
	)

	return err
}

func (db *PgRepository) SoftDeleteThread(ctx context.Context, threadId, userId uuid.UUID) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		"UPDATE messages SET deleted_at = $3 "+
			"WHERE thread_id = $1 AND (sender_id = $2 OR recipient_id = $2) AND deleted_at IS NULL",
		threadId,
		userId,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (db *PgRepository) SearchMessages(ctx context.Context, userId uuid.UUID, query string, limit int) ([]Message, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+messageColumns+", "+reactionsAgg+" AS reactions FROM messages m "+
			"WHERE (m.sender_id = $1 OR m.recipient_id = $1) AND "+notDeleted+" "+
			"AND m.content ILIKE '%' || $2 || '%' ORDER BY m.created_at DESC LIMIT $3",
		userId,
		query,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessagesWithReactions(rows)
}

func (db *PgRepository) ToggleMessagePin(ctx context.Context, id uuid.UUID) (bool, error) {
	row := db.conn.QueryRowContext(ctx,
		"UPDATE messages SET pinned = NOT pinned WHERE id = $1 AND deleted_at IS NULL RETURNING pinned",
		id,
	)

	var pinned bool
	err := row.Scan(&pinned)

	return pinned, err
}

func (db *PgRepository) ToggleThreadPin(ctx context.Context, threadId, userId uuid.UUID) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		"DELETE FROM thread_pins WHERE thread_id = $1 AND account_id = $2",
		threadId,
		userId,
	)
	if err != nil {
		return false, err
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if deleted > 0 {
		return false, nil
	}

	_, err = db.conn.ExecContext(ctx,
		"INSERT INTO thread_pins (thread_id, account_id, created_at) VALUES ($1, $2, $3)",
		threadId,
		userId,
		time.Now().UTC(),
	)

	return err == nil, err
}

// ThreadCounterpart resolves the other participant of a two-party thread.
// Returns sql.ErrNoRows when the thread has no known counterpart (for
// example, a thread whose only other end is an anonymous sender).
func (db *PgRepository) ThreadCounterpart(ctx context.Context, threadId, userId uuid.UUID) (uuid.UUID, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT DISTINCT CASE "+
			"WHEN sender_id IS NOT NULL AND sender_id != $2 THEN sender_id "+
			"WHEN recipient_id != $2 THEN recipient_id "+
			"END AS other_user "+
			"FROM messages WHERE thread_id = $1 AND deleted_at IS NULL "+
			"AND (sender_id IS DISTINCT FROM $2 OR recipient_id != $2) LIMIT 1",
		threadId,
		userId,
	)

	var other uuid.NullUUID
	if err := row.Scan(&other); err != nil {
		return uuid.Nil, err
	}
	if !other.Valid {
		return uuid.Nil, sql.ErrNoRows
	}

	return other.UUID, nil
}

func (db *PgRepository) UpsertMessageReaction(ctx context.Context, messageId, userId uuid.UUID, emoji string) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO message_reactions (message_id, account_id, emoji, created_at) VALUES ($1, $2, $3, $4) "+
			"ON CONFLICT (message_id, account_id) DO UPDATE SET emoji = $3",
		messageId,
		userId,
		emoji,
		time.Now().UTC(),
	)

	return err
}

func (db *PgRepository) MessageReactionCounts(ctx context.Context, messageId uuid.UUID) (map[string]int, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT emoji, count(*) FROM message_reactions WHERE message_id = $1 GROUP BY emoji",
		messageId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts map[string]int
	for rows.Next() {
		var emoji string
		var cnt int
		if err := rows.Scan(&emoji, &cnt); err != nil {
			return nil, err
		}

		if counts == nil {
			counts = make(map[string]int)
		}
		counts[emoji] = cnt
	}

	return counts, rows.Err()
}

func (db *PgRepository) UpsertCommentReaction(ctx context.Context, commentId, userId uuid.UUID, emoji string) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO comment_reactions (comment_id, account_id, emoji, created_at) VALUES ($1, $2, $3, $4) "+
			"ON CONFLICT (comment_id, account_id) DO UPDATE SET emoji = $3",
		commentId,
		userId,
		emoji,
		time.Now().UTC(),
	)

	return err
}

func (db *PgRepository) CreateBroadcast(ctx context.Context, senderId uuid.NullUUID, externalId, content string, anonymous bool) (Broadcast, error) {
	b := Broadcast{
		Id:          uuid.New(),
		ExternalId:  externalId,
		SenderId:    senderId,
		Content:     content,
		IsAnonymous: anonymous,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO broadcasts (id, external_id, sender_id, content, is_anonymous, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6)",
		b.Id,
		b.ExternalId,
		b.SenderId,
		b.Content,
		b.IsAnonymous,
		b.CreatedAt,
	)

	return b, err
}

const broadcastColumns = "b.id, b.external_id, b.sender_id, " +
	"CASE WHEN b.is_anonymous THEN NULL ELSE a.username END AS sender_username, " +
	"b.content, b.is_anonymous, b.created_at, " +
	"(SELECT count(*) FROM broadcast_views v WHERE v.broadcast_id = b.id) AS view_count"

func (db *PgRepository) GetBroadcastById(ctx context.Context, id uuid.UUID) (Broadcast, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+broadcastColumns+" FROM broadcasts b "+
			"LEFT JOIN accounts a ON a.id = b.sender_id WHERE b.id = $1 LIMIT 1",
		id,
	)

	return scanBroadcast(row)
}

func (db *PgRepository) ListBroadcasts(ctx context.Context, limit int) ([]Broadcast, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+broadcastColumns+" FROM broadcasts b "+
			"LEFT JOIN accounts a ON a.id = b.sender_id ORDER BY b.created_at DESC LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var broadcasts []Broadcast
	for rows.Next() {
		b, err := scanBroadcast(rows)
		if err != nil {
			return nil, err
		}
		broadcasts = append(broadcasts, b)
	}

	return broadcasts, rows.Err()
}

func (db *PgRepository) TrackBroadcastView(ctx context.Context, broadcastId, userId uuid.UUID) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO broadcast_views (broadcast_id, account_id, created_at) VALUES ($1, $2, $3) "+
			"ON CONFLICT DO NOTHING",
		broadcastId,
		userId,
		time.Now().UTC(),
	)

	return err
}

const commentReactionsAgg = "(SELECT json_object_agg(emoji, cnt) FROM " +
	"(SELECT emoji, count(*) AS cnt FROM comment_reactions WHERE comment_id = c.id GROUP BY emoji) agg)"

func (db *PgRepository) CreateComment(ctx context.Context, broadcastId, userId uuid.UUID, content string, parentId uuid.NullUUID) (Comment, error) {
	c := Comment{
		Id:              uuid.New(),
		BroadcastId:     broadcastId,
		UserId:          userId,
		Content:         content,
		ParentCommentId: parentId,
		CreatedAt:       time.Now().UTC(),
	}

	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO broadcast_comments (id, broadcast_id, account_id, content, parent_comment_id, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6)",
		c.Id,
		c.BroadcastId,
		c.UserId,
		c.Content,
		c.ParentCommentId,
		c.CreatedAt,
	)

	return c, err
}

func (db *PgRepository) GetCommentById(ctx context.Context, id uuid.UUID) (Comment, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT c.id, c.broadcast_id, c.account_id, a.username, c.content, c.parent_comment_id, c.created_at, c.deleted_at "+
			"FROM broadcast_comments c JOIN accounts a ON a.id = c.account_id "+
			"WHERE c.id = $1 AND c.deleted_at IS NULL LIMIT 1",
		id,
	)

	var c Comment
	err := row.Scan(&c.Id, &c.BroadcastId, &c.UserId, &c.Username, &c.Content, &c.ParentCommentId, &c.CreatedAt, &c.DeletedAt)

	return c, err
}

func (db *PgRepository) ListComments(ctx context.Context, broadcastId uuid.UUID) ([]Comment, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT c.id, c.broadcast_id, c.account_id, a.username, c.content, c.parent_comment_id, c.created_at, c.deleted_at, "+
			commentReactionsAgg+" AS reactions "+
			"FROM broadcast_comments c JOIN accounts a ON a.id = c.account_id "+
			"WHERE c.broadcast_id = $1 AND c.deleted_at IS NULL ORDER BY c.created_at ASC",
		broadcastId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		err := rows.Scan(&c.Id, &c.BroadcastId, &c.UserId, &c.Username, &c.Content, &c.ParentCommentId, &c.CreatedAt, &c.DeletedAt, &c.Reactions)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}

	return comments, rows.Err()
}

func (db *PgRepository) SoftDeleteComment(ctx context.Context, id uuid.UUID) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE broadcast_comments SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL",
		id,
		time.Now().UTC(),
	)

	return err
}

func (db *PgRepository) BlockUser(ctx context.Context, blockerId, blockedId uuid.UUID) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO blocks (blocker_id, blocked_id, created_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING",
		blockerId,
		blockedId,
		time.Now().UTC(),
	)

	return err
}

func (db *PgRepository) UnblockUser(ctx context.Context, blockerId, blockedId uuid.UUID) error {
	_, err := db.conn.ExecContext(ctx,
		"DELETE FROM blocks WHERE blocker_id = $1 AND blocked_id = $2",
		blockerId,
		blockedId,
	)

	return err
}

func (db *PgRepository) ListBlockedUsers(ctx context.Context, blockerId uuid.UUID) ([]uuid.UUID, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT blocked_id FROM blocks WHERE blocker_id = $1 ORDER BY created_at DESC",
		blockerId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (db *PgRepository) IsBlocked(ctx context.Context, blockerId, blockedId uuid.UUID) (bool, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM blocks WHERE blocker_id = $1 AND blocked_id = $2)",
		blockerId,
		blockedId,
	)

	var blocked bool
	err := row.Scan(&blocked)

	return blocked, err
}

func (db *PgRepository) GetPreferences(ctx context.Context, userId uuid.UUID) (Preferences, bool, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT account_id, theme, notification_sound, browser_notifications, show_read_receipts, show_typing_indicators "+
			"FROM preferences WHERE account_id = $1 LIMIT 1",
		userId,
	)

	var p Preferences
	err := row.Scan(&p.UserId, &p.Theme, &p.NotificationSound, &p.BrowserNotifications, &p.ShowReadReceipts, &p.ShowTypingIndicators)
	if err == sql.ErrNoRows {
		return Preferences{}, false, nil
	}
	if err != nil {
		return Preferences{}, false, err
	}

	return p, true, nil
}

func (db *PgRepository) UpsertPreferences(ctx context.Context, params UpsertPreferencesParams) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO preferences (account_id, theme, notification_sound, browser_notifications, show_read_receipts, show_typing_indicators) "+
			"VALUES ($1, COALESCE($2, 'dark'), COALESCE($3, TRUE), COALESCE($4, TRUE), COALESCE($5, TRUE), COALESCE($6, TRUE)) "+
			"ON CONFLICT (account_id) DO UPDATE SET "+
			"theme = COALESCE($2, preferences.theme), "+
			"notification_sound = COALESCE($3, preferences.notification_sound), "+
			"browser_notifications = COALESCE($4, preferences.browser_notifications), "+
			"show_read_receipts = COALESCE($5, preferences.show_read_receipts), "+
			"show_typing_indicators = COALESCE($6, preferences.show_typing_indicators)",
		params.UserId,
		params.Theme,
		params.NotificationSound,
		params.BrowserNotifications,
		params.ShowReadReceipts,
		params.ShowTypingIndicators,
	)

	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(row scanner) (Message, error) {
	var m Message
	err := row.Scan(
		&m.Id,
		&m.ThreadId,
		&m.SenderId,
		&m.RecipientId,
		&m.Content,
		&m.IsRead,
		&m.Pinned,
		&m.CreatedAt,
		&m.EditedAt,
		&m.DeletedAt,
	)

	return m, err
}

func scanMessagesWithReactions(rows *sql.Rows) ([]Message, error) {
	var messages []Message
	for rows.Next() {
		var m Message
		err := rows.Scan(
			&m.Id,
			&m.ThreadId,
			&m.SenderId,
			&m.RecipientId,
			&m.Content,
			&m.IsRead,
			&m.Pinned,
			&m.CreatedAt,
			&m.EditedAt,
			&m.DeletedAt,
			&m.Reactions,
		)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

func scanBroadcast(row scanner) (Broadcast, error) {
	var b Broadcast
	err := row.Scan(
		&b.Id,
		&b.ExternalId,
		&b.SenderId,
		&b.SenderUsername,
		&b.Content,
		&b.IsAnonymous,
		&b.CreatedAt,
		&b.ViewCount,
	)

	return b, err
}

// ReactionCounts decodes a json_object_agg aggregate into a map. A nil or
// empty aggregate yields a nil map so payloads omit the field entirely.
func ReactionCounts(raw []byte) (map[string]int, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var counts map[string]int
	if err := json.Unmarshal(raw, &counts); err != nil {
		return nil, fmt.Errorf("decode reactions: %w", err)
	}
	if len(counts) == 0 {
		return nil, nil
	}

	return counts, nil
}
