package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/murmur-chat/murmur/internal/types"
)

type contextKey string

const identityKey contextKey = "identity"

// identityFromContext returns the authenticated caller, or nil for
// anonymous requests that passed through optionalAuthMiddleware.
func identityFromContext(ctx context.Context) *types.Identity {
	id, _ := ctx.Value(identityKey).(*types.Identity)
	return id
}

// authMiddleware requires a valid bearer token and resolves it to a full
// identity. The account lookup means a deleted user's tokens stop working
// immediately.
func (app *App) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, apiErr := app.resolveIdentity(r)
		if apiErr != nil {
			app.writeError(w, apiErr)
			return
		}
		if identity == nil {
			app.writeError(w, NewUnauthorizedError("authentication required", nil))
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
	}
}

// optionalAuthMiddleware resolves an identity when credentials are present
// but lets anonymous requests through. A present-but-invalid token is still
// rejected rather than silently downgraded to anonymous.
func (app *App) optionalAuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, apiErr := app.resolveIdentity(r)
		if apiErr != nil {
			app.writeError(w, apiErr)
			return
		}

		if identity != nil {
			r = r.WithContext(context.WithValue(r.Context(), identityKey, identity))
		}

		next(w, r)
	}
}

func (app *App) resolveIdentity(r *http.Request) (*types.Identity, *ApiError) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, nil
	}

	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, NewUnauthorizedError("malformed authorization header", nil)
	}

	userId, err := app.parseToken(tokenString)
	if err != nil {
		return nil, NewUnauthorizedError("invalid token", err)
	}

	user, err := app.repo.GetAccountById(r.Context(), userId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewUnauthorizedError("unknown account", err)
		}
		return nil, NewInternalServerError(err)
	}

	return &types.Identity{Id: user.Id, Username: user.Username}, nil
}

// errorHandler turns handler panics into 500s instead of dropped
// connections.
func (app *App) errorHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				app.log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				app.writeJson(w, http.StatusInternalServerError, map[string]string{
					"error": "internal server error",
				})
			}
		}()

		next.ServeHTTP(w, r)
	})
}
