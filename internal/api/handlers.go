package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/murmur-chat/murmur/internal/hub"
	"github.com/murmur-chat/murmur/internal/messaging"
	"github.com/murmur-chat/murmur/internal/stats"
	"github.com/murmur-chat/murmur/internal/types"
)

type sendMessageRequest struct {
	ToUsername string `json:"to_username" validate:"required,min=1,max=64"`
	Content    string `json:"content" validate:"required"`
}

type contentRequest struct {
	Content string `json:"content" validate:"required"`
}

type reactionRequest struct {
	Emoji string `json:"emoji" validate:"required"`
}

func pathId(r *http.Request) (uuid.UUID, *ApiError) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, NewBadRequestError("invalid id", err)
	}
	return id, nil
}

func (app *App) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if apiErr := app.decodeBody(r, &req); apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	res, err := app.threads.Send(r.Context(), messaging.SendParams{
		Sender:     identityFromContext(r.Context()),
		ToUsername: req.ToUsername,
		Content:    req.Content,
	})
	if err != nil {
		app.writeError(w, storeError(err))
		return
	}

	app.stats.Incr(stats.MessagesCreated)
	app.hub.Publish(res.RecipientId, hub.NewMessageEvent(res.RecipientView))

	app.writeJson(w, http.StatusCreated, res.Message)
}

func (app *App) handleReply(w http.ResponseWriter, r *http.Request) {
	threadId, apiErr := pathId(r)
	if apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	var req contentRequest
	if apiErr := app.decodeBody(r, &req); apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	identity := identityFromContext(r.Context())
	res, err := app.threads.Reply(r.Context(), *identity, threadId, req.Content)
	if err != nil {
		app.writeError(w, storeError(err))
		return
	}

	app.stats.Incr(stats.MessagesCreated)
	app.hub.Publish(res.RecipientId, hub.NewMessageEvent(res.RecipientView))

	app.writeJson(w, http.StatusCreated, res.Message)
}

func (app *App) handleThreadMessages(w http.ResponseWriter, r *http.Request) {
	threadId, apiErr := pathId(r)
	if apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	identity := identityFromContext(r.Context())
	msgs, err := app.threads.ThreadMessages(r.Context(), *identity, threadId)
	if err != nil {
		app.writeError(w, storeError(err))
		return
	}

	app.writeJson(w, http.StatusOK, msgs)
}

func (app *App) handleConversations(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	summaries, err := app.threads.Conversations(r.Context(), *identity)
	if err != nil {
		app.writeError(w, storeError(err))
		return
	}

	app.writeJson(w, http.StatusOK, summaries)
}

func (app *App) handleInbox(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	msgs, err := app.threads.Inbox(r.Context(), *identity)
	if err != nil {
		app.writeError(w, storeError(err))
		return
	}

	app.writeJson(w, http.StatusOK, msgs)
}

func (app *App) handleSearchMessages(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			app.writeError(w, NewBadRequestError("invalid limit", err))
			return
		}
		limit = n
	}

	msgs, err := app.threads.Search(r.Context(), *identity, r.URL.Query().Get("q"), limit)
	if err != nil {
		app.writeError(w, storeError(err))
		return
	}

	app.writeJson(w, http.StatusOK, msgs)
}

func (app *App) handleEditMessage(w http.ResponseWriter, r *http.Request) {
	messageId, apiErr := pathId(r)
	if apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	var req contentRequest
	if apiErr := app.decodeBody(r, &req); apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	identity := identityFromContext(r.Context())
	msg, err := app.threads.Edit(r.Context(), *identity, messageId, req.Content)
	if err != nil {
		app.writeError(w, storeError(err))
		return
	}

	app.notifyCounterpart(r, msg.ThreadId, identity.Id, hub.MessageEditedEvent(counterpartView(msg)))

	app.writeJson(w, http.StatusOK, msg)
}

func (app *App) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	messageId, apiErr := pathId(r)
	if apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	identity := identityFromContext(r.Context())
	threadId, err := app.threads.Delete(r.Context(), *identity, messageId)
	if err != nil {
		app.writeError(w, storeError(err))
		return
	}

	app.notifyCounterpart(r, threadId, identity.Id, hub.MessageDeletedEvent(threadId, messageId))

	app.writeJson(w, http.StatusNoContent, nil)
}

func (app *App) handleDeleteThread(w http.ResponseWriter, r *http.Request) {
	threadId, apiErr := pathId(r)
	if apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	identity := identityFromContext(r.Context())
	if err := app.threads.DeleteThread(r.Context(), *identity, threadId); err != nil {
		app.writeError(w, storeError(err))
		return
	}

	app.writeJson(w, http.StatusNoContent, nil)
}

func (app *App) handlePinMessage(w http.ResponseWriter, r *http.Request) {
	messageId, apiErr := pathId(r)
	if apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	identity := identityFromContext(r.Context())
	pinned, err := app.threads.PinMessage(r.Context(), *identity, messageId)
	if err != nil {
		app.writeError(w, storeError(err))
		return
	}

	app.writeJson(w, http.StatusOK, map[string]bool{"pinned": pinned})
}

func (app *App) handlePinThread(w http.ResponseWriter, r *http.Request) {
	threadId, apiErr := pathId(r)
	if apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	identity := identityFromContext(r.Context())
	pinned, err := app.threads.PinThread(r.Context(), *identity, threadId)
	if err != nil {
		app.writeError(w, storeError(err))
		return
	}

	app.writeJson(w, http.StatusOK, map[string]bool{"pinned": pinned})
}

func (app *App) handleReact(w http.ResponseWriter, r *http.Request) {
	messageId, apiErr := pathId(r)
	if apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	var req reactionRequest
	if apiErr := app.decodeBody(r, &req); apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	identity := identityFromContext(r.Context())
	res, err := app.reactions.React(r.Context(), *identity, messageId, req.Emoji)
	if err != nil {
		app.writeError(w, storeError(err))
		return
	}

	app.notifyCounterpart(r, res.ThreadId, identity.Id, hub.ReactionUpdatedEvent(messageId, res.Counts))

	app.writeJson(w, http.StatusOK, map[string]any{"reactions": res.Counts})
}

// notifyCounterpart publishes an event to the other participant of a
// thread, if one is known. Delivery is best effort; a thread whose other
// end is anonymous simply has no one to notify.
func (app *App) notifyCounterpart(r *http.Request, threadId, callerId uuid.UUID, ev hub.Event) {
	other, err := app.threads.Counterpart(r.Context(), threadId, callerId)
	if err != nil {
		return
	}

	app.hub.Publish(other, ev)
}

// counterpartView strips viewer-specific fields from a message before it is
// pushed to the other participant.
func counterpartView(msg types.Message) types.Message {
	msg.IsMine = false
	return msg
}
