package api

import (
	"encoding/json"
	"errors"
	"expvar"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/murmur-chat/murmur/internal/config"
	"github.com/murmur-chat/murmur/internal/database"
	"github.com/murmur-chat/murmur/internal/hub"
	"github.com/murmur-chat/murmur/internal/messaging"
	"github.com/murmur-chat/murmur/internal/presence"
	"github.com/murmur-chat/murmur/internal/stats"
)

// App wires the HTTP surface to the stores, the event hub and the typing
// tracker.
type App struct {
	log     *log.Logger
	repo    database.Repository
	hub     *hub.Hub
	tracker *presence.Tracker
	stats   stats.StatsProvider
	cfg     *config.Config

	threads    *messaging.ThreadStore
	reactions  *messaging.Reactions
	broadcasts *messaging.BroadcastStore

	validate *validator.Validate
	upgrader websocket.Upgrader
}

func NewApp(logger *log.Logger, repo database.Repository, h *hub.Hub, tracker *presence.Tracker, sp stats.StatsProvider, cfg *config.Config) *App {
	return &App{
		log:        logger,
		repo:       repo,
		hub:        h,
		tracker:    tracker,
		stats:      sp,
		cfg:        cfg,
		threads:    messaging.NewThreadStore(logger, repo),
		reactions:  messaging.NewReactions(logger, repo),
		broadcasts: messaging.NewBroadcastStore(logger, repo),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (app *App) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthz", app.handleHealthz)
	mux.Handle("GET /debug/vars", expvar.Handler())

	// accounts
	mux.HandleFunc("POST /api/accounts", app.handleRegister)
	mux.HandleFunc("POST /api/login", app.handleLogin)
	mux.HandleFunc("GET /api/accounts/me", app.authMiddleware(app.handleGetProfile))
	mux.HandleFunc("PATCH /api/accounts/me", app.authMiddleware(app.handleUpdateProfile))
	mux.HandleFunc("DELETE /api/accounts/me", app.authMiddleware(app.handleDeleteAccount))
	mux.HandleFunc("GET /api/users", app.authMiddleware(app.handleListUsers))

	// messages and threads
	mux.HandleFunc("POST /api/messages", app.optionalAuthMiddleware(app.handleSendMessage))
	mux.HandleFunc("GET /api/messages/search", app.authMiddleware(app.handleSearchMessages))
	mux.HandleFunc("PATCH /api/messages/{id}", app.authMiddleware(app.handleEditMessage))
	mux.HandleFunc("DELETE /api/messages/{id}", app.authMiddleware(app.handleDeleteMessage))
	mux.HandleFunc("POST /api/messages/{id}/pin", app.authMiddleware(app.handlePinMessage))
	mux.HandleFunc("POST /api/messages/{id}/reactions", app.authMiddleware(app.handleReact))
	mux.HandleFunc("GET /api/threads/{id}/messages", app.authMiddleware(app.handleThreadMessages))
	mux.HandleFunc("POST /api/threads/{id}/messages", app.authMiddleware(app.handleReply))
	mux.HandleFunc("DELETE /api/threads/{id}", app.authMiddleware(app.handleDeleteThread))
	mux.HandleFunc("POST /api/threads/{id}/pin", app.authMiddleware(app.handlePinThread))
	mux.HandleFunc("POST /api/threads/{id}/typing", app.authMiddleware(app.handleMarkTyping))
	mux.HandleFunc("GET /api/threads/{id}/typing", app.authMiddleware(app.handleListTypists))
	mux.HandleFunc("GET /api/conversations", app.authMiddleware(app.handleConversations))
	mux.HandleFunc("GET /api/inbox", app.authMiddleware(app.handleInbox))

	// broadcasts and comments
	mux.HandleFunc("POST /api/broadcasts", app.optionalAuthMiddleware(app.handleCreateBroadcast))
	mux.HandleFunc("GET /api/broadcasts", app.handleListBroadcasts)
	mux.HandleFunc("GET /api/broadcasts/{id}", app.optionalAuthMiddleware(app.handleGetBroadcast))
	mux.HandleFunc("POST /api/broadcasts/{id}/comments", app.authMiddleware(app.handleCreateComment))
	mux.HandleFunc("GET /api/broadcasts/{id}/comments", app.handleListComments)
	mux.HandleFunc("DELETE /api/comments/{id}", app.authMiddleware(app.handleDeleteComment))
	mux.HandleFunc("POST /api/comments/{id}/reactions", app.authMiddleware(app.handleReactToComment))

	// blocks and preferences
	mux.HandleFunc("POST /api/users/{username}/block", app.authMiddleware(app.handleBlockUser))
	mux.HandleFunc("DELETE /api/users/{username}/block", app.authMiddleware(app.handleUnblockUser))
	mux.HandleFunc("GET /api/blocks", app.authMiddleware(app.handleListBlocks))
	mux.HandleFunc("GET /api/preferences", app.authMiddleware(app.handleGetPreferences))
	mux.HandleFunc("PUT /api/preferences", app.authMiddleware(app.handleUpdatePreferences))

	// live streams
	mux.HandleFunc("GET /api/events", app.authMiddleware(app.handleEvents))
	mux.HandleFunc("GET /api/ws", app.authMiddleware(app.handleWebsocket))

	return app.errorHandler(mux)
}

func (app *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := app.repo.Ping(r.Context()); err != nil {
		app.writeError(w, NewInternalServerError(err))
		return
	}

	app.writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (app *App) writeJson(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.log.Printf("failed to write response: %s", err)
	}
}

func (app *App) writeError(w http.ResponseWriter, apiErr *ApiError) {
	if apiErr.StatusCode >= http.StatusInternalServerError {
		app.log.Printf("server error: %s", apiErr)
	}

	app.writeJson(w, apiErr.StatusCode, apiErr)
}

// decodeBody parses and validates a JSON request body into dst.
func (app *App) decodeBody(r *http.Request, dst any) *ApiError {
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	if err := app.validate.Struct(dst); err != nil {
		return NewBadRequestError(validationMessage(err), err)
	}

	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return "invalid field " + verrs[0].Field()
	}

	return "invalid request body"
}
