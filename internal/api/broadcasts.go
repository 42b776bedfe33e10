package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/murmur-chat/murmur/internal/hub"
	"github.com/murmur-chat/murmur/internal/messaging"
	"github.com/murmur-chat/murmur/internal/stats"
)

type createBroadcastRequest struct {
	Content   string `json:"content" validate:"required"`
	Anonymous bool   `json:"anonymous"`
}

type createCommentRequest struct {
	Content         string     `json:"content" validate:"required"`
	ParentCommentId *uuid.UUID `json:"parent_comment_id"`
}

func (app *App) handleCreateBroadcast(w http.ResponseWriter, r *http.Request) {
	var req createBroadcastRequest
	if apiErr := app.decodeBody(r, &req); apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	b, err := app.broadcasts.Create(r.Context(), messaging.CreateBroadcastParams{
		Sender:    identityFromContext(r.Context()),
		Content:   req.Content,
		Anonymous: req.Anonymous,
	})
	if err != nil {
		app.writeError(w, storeError(err))
		return
	}

	app.stats.Incr(stats.BroadcastsCreated)
	app.hub.PublishAll(hub.NewBroadcastEvent(b))

	app.writeJson(w, http.StatusCreated, b)
}

func (app *App) handleGetBroadcast(w http.ResponseWriter, r *http.Request) {
	id, apiErr := pathId(r)
	if apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	b, err := app.broadcasts.Get(r.Context(), identityFromContext(r.Context()), id)
	if err != nil {
		app.writeError(w, storeError(err))
		return
	}

	app.writeJson(w, http.StatusOK, b)
}

func (app *App) handleListBroadcasts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			app.writeError(w, NewBadRequestError("invalid limit", err))
			return
		}
		limit = n
	}

	broadcasts, err := app.broadcasts.List(r.Context(), limit)
	if err != nil {
		app.writeError(w, storeError(err))
		return
	}

	app.writeJson(w, http.StatusOK, broadcasts)
}

func (app *App) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	broadcastId, apiErr := pathId(r)
	if apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	var req createCommentRequest
	if apiErr := app.decodeBody(r, &req); apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	identity := identityFromContext(r.Context())
	c, err := app.broadcasts.Comment(r.Context(), *identity, broadcastId, req.Content, req.ParentCommentId)
	if err != nil {
		app.writeError(w, storeError(err))
		return
	}

	// notify the broadcast author unless the post is anonymous
	if b, err := app.repo.GetBroadcastById(r.Context(), broadcastId); err == nil {
		if b.SenderId.Valid && !b.IsAnonymous && b.SenderId.UUID != identity.Id {
			app.hub.Publish(b.SenderId.UUID, hub.NewCommentEvent(c))
		}
	}

	app.writeJson(w, http.StatusCreated, c)
}

func (app *App) handleListComments(w http.ResponseWriter, r *http.Request) {
	broadcastId, apiErr := pathId(r)
	if apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	comments, err := app.broadcasts.Comments(r.Context(), broadcastId)
	if err != nil {
		app.writeError(w, storeError(err))
		return
	}

	app.writeJson(w, http.StatusOK, comments)
}

func (app *App) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	commentId, apiErr := pathId(r)
	if apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	identity := identityFromContext(r.Context())
	if err := app.broadcasts.DeleteComment(r.Context(), *identity, commentId); err != nil {
		app.writeError(w, storeError(err))
		return
	}

	app.writeJson(w, http.StatusNoContent, nil)
}

func (app *App) handleReactToComment(w http.ResponseWriter, r *http.Request) {
	commentId, apiErr := pathId(r)
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
	if err := app.reactions.ReactToComment(r.Context(), *identity, commentId, req.Emoji); err != nil {
		app.writeError(w, storeError(err))
		return
	}

	app.writeJson(w, http.StatusNoContent, nil)
}
