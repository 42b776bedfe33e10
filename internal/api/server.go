package api

import (
	"net/http"
	"time"

	"github.com/gorilla/handlers"

	"github.com/murmur-chat/murmur/internal/config"
)

// NewServer builds the HTTP server with CORS applied around the app routes.
// No write timeout is set because the event streams hold their responses
// open indefinitely.
func NewServer(cfg *config.Config, app *App) *http.Server {
	corsOpts := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	}

	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handlers.CORS(corsOpts...)(app.Routes()),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
