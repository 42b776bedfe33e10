package hub

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/murmur-chat/murmur/internal/types"
)

const (
	EventNewMessage      = "message.new"
	EventMessageEdited   = "message.edited"
	EventMessageDeleted  = "message.deleted"
	EventReactionUpdated = "reaction.updated"
	EventTyping          = "typing"
	EventNewBroadcast    = "broadcast.new"
	EventNewComment      = "comment.new"
)

// Event is one unit of fan-out: a kind tag plus a JSON payload ready to be
// written to a live stream.
type Event struct {
	Kind    string
	Payload json.RawMessage
}

func marshal(kind string, v any) Event {
	// The payload types here are plain structs and maps; marshaling them
	// cannot fail.
	data, _ := json.Marshal(v)
	return Event{Kind: kind, Payload: data}
}

func NewMessageEvent(msg types.Message) Event {
	return marshal(EventNewMessage, msg)
}

func MessageEditedEvent(msg types.Message) Event {
	return marshal(EventMessageEdited, msg)
}

func MessageDeletedEvent(threadId, messageId uuid.UUID) Event {
	return marshal(EventMessageDeleted, struct {
		ThreadId  uuid.UUID `json:"thread_id"`
		MessageId uuid.UUID `json:"message_id"`
	}{threadId, messageId})
}

func ReactionUpdatedEvent(messageId uuid.UUID, counts map[string]int) Event {
	return marshal(EventReactionUpdated, struct {
		MessageId uuid.UUID      `json:"message_id"`
		Reactions map[string]int `json:"reactions"`
	}{messageId, counts})
}

func TypingEvent(threadId uuid.UUID, typist types.Identity) Event {
	return marshal(EventTyping, struct {
		ThreadId uuid.UUID `json:"thread_id"`
		UserId   uuid.UUID `json:"user_id"`
		Username string    `json:"username"`
	}{threadId, typist.Id, typist.Username})
}

func NewBroadcastEvent(b types.Broadcast) Event {
	return marshal(EventNewBroadcast, b)
}

func NewCommentEvent(c types.Comment) Event {
	return marshal(EventNewComment, c)
}
