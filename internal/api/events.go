package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/murmur-chat/murmur/internal/hub"
	"github.com/murmur-chat/murmur/internal/stream"
	"github.com/murmur-chat/murmur/internal/types"
)

// handleEvents is the server-sent events stream of the caller's channel.
func (app *App) handleEvents(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	rcv := app.hub.Subscribe(identity.Id)
	defer rcv.Close()

	stream.ServeSSE(w, r, app.log, rcv)
}

// handleWebsocket upgrades the connection and bridges it to the caller's
// channel. Typing signals received on the socket are recorded and pushed to
// the thread counterpart.
func (app *App) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	conn, err := app.upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.log.Printf("websocket upgrade failed: %s", err)
		return
	}

	rcv := app.hub.Subscribe(identity.Id)
	defer rcv.Close()

	client := stream.NewClient(app.log, conn, rcv, func(ctx context.Context, threadId uuid.UUID) {
		app.recordTyping(ctx, threadId, *identity)
	})

	client.Run(r.Context())
}

func (app *App) handleMarkTyping(w http.ResponseWriter, r *http.Request) {
	threadId, apiErr := pathId(r)
	if apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	identity := identityFromContext(r.Context())
	app.recordTyping(r.Context(), threadId, *identity)

	app.writeJson(w, http.StatusNoContent, nil)
}

func (app *App) handleListTypists(w http.ResponseWriter, r *http.Request) {
	threadId, apiErr := pathId(r)
	if apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	identity := identityFromContext(r.Context())
	typists, err := app.tracker.Typists(r.Context(), threadId)
	if err != nil {
		app.writeError(w, NewInternalServerError(err))
		return
	}

	// only report whether someone else is typing; user ids stay private so
	// anonymous senders are not unmasked by their typing markers
	others := 0
	for _, id := range typists {
		if id != identity.Id {
			others++
		}
	}

	app.writeJson(w, http.StatusOK, map[string]any{"typing": others > 0})
}

// recordTyping stores the caller's typing marker and nudges the thread
// counterpart, when one is known. Both steps are best effort.
func (app *App) recordTyping(ctx context.Context, threadId uuid.UUID, typist types.Identity) {
	if err := app.tracker.MarkTyping(ctx, threadId, typist.Id); err != nil {
		app.log.Printf("failed to record typing marker: %s", err)
		return
	}

	other, err := app.threads.Counterpart(ctx, threadId, typist.Id)
	if err != nil {
		return
	}

	app.hub.Publish(other, hub.TypingEvent(threadId, typist))
}
