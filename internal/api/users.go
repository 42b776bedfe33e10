package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/lib/pq"

	"github.com/murmur-chat/murmur/internal/database"
	"github.com/murmur-chat/murmur/internal/types"
)

type updateProfileRequest struct {
	Username  *string `json:"username" validate:"omitempty,min=3,max=32,alphanum"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
	AvatarUrl *string `json:"avatar_url" validate:"omitempty,url,max=500"`
}

type updatePreferencesRequest struct {
	Theme                *string `json:"theme" validate:"omitempty,oneof=dark light"`
	NotificationSound    *bool   `json:"notification_sound"`
	BrowserNotifications *bool   `json:"browser_notifications"`
	ShowReadReceipts     *bool   `json:"show_read_receipts"`
	ShowTypingIndicators *bool   `json:"show_typing_indicators"`
}

func (app *App) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	user, err := app.repo.GetAccountById(r.Context(), identity.Id)
	if err != nil {
		app.writeError(w, NewInternalServerError(err))
		return
	}

	app.writeJson(w, http.StatusOK, userView(user))
}

func (app *App) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if apiErr := app.decodeBody(r, &req); apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	identity := identityFromContext(r.Context())
	user, err := app.repo.UpdateProfile(r.Context(), database.UpdateProfileParams{
		UserId:    identity.Id,
		Username:  req.Username,
		Bio:       req.Bio,
		AvatarUrl: req.AvatarUrl,
	})
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			app.writeError(w, NewConflictError("username already taken", err))
			return
		}
		app.writeError(w, NewInternalServerError(err))
		return
	}

	app.writeJson(w, http.StatusOK, userView(user))
}

func (app *App) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	if err := app.repo.DeleteAccount(r.Context(), identity.Id); err != nil {
		app.writeError(w, NewInternalServerError(err))
		return
	}

	app.writeJson(w, http.StatusNoContent, nil)
}

func (app *App) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := app.repo.ListAccounts(r.Context())
	if err != nil {
		app.writeError(w, NewInternalServerError(err))
		return
	}

	// the directory only exposes addressable handles, not full profiles
	views := make([]types.User, 0, len(users))
	for _, u := range users {
		views = append(views, types.User{Id: u.Id, Username: u.Username})
	}

	app.writeJson(w, http.StatusOK, views)
}

func (app *App) handleBlockUser(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	target, err := app.repo.GetAccountByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			app.writeError(w, NewNotFoundError("user not found", err))
			return
		}
		app.writeError(w, NewInternalServerError(err))
		return
	}

	if target.Id == identity.Id {
		app.writeError(w, NewBadRequestError("cannot block yourself", nil))
		return
	}

	if err := app.repo.BlockUser(r.Context(), identity.Id, target.Id); err != nil {
		app.writeError(w, NewInternalServerError(err))
		return
	}

	app.writeJson(w, http.StatusNoContent, nil)
}

func (app *App) handleUnblockUser(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	target, err := app.repo.GetAccountByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			app.writeError(w, NewNotFoundError("user not found", err))
			return
		}
		app.writeError(w, NewInternalServerError(err))
		return
	}

	if err := app.repo.UnblockUser(r.Context(), identity.Id, target.Id); err != nil {
		app.writeError(w, NewInternalServerError(err))
		return
	}

	app.writeJson(w, http.StatusNoContent, nil)
}

func (app *App) handleListBlocks(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	ids, err := app.repo.ListBlockedUsers(r.Context(), identity.Id)
	if err != nil {
		app.writeError(w, NewInternalServerError(err))
		return
	}

	app.writeJson(w, http.StatusOK, map[string]any{"blocked": ids})
}

func (app *App) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	prefs, found, err := app.repo.GetPreferences(r.Context(), identity.Id)
	if err != nil {
		app.writeError(w, NewInternalServerError(err))
		return
	}
	if !found {
		app.writeJson(w, http.StatusOK, types.DefaultPreferences())
		return
	}

	app.writeJson(w, http.StatusOK, types.Preferences{
		Theme:                prefs.Theme,
		NotificationSound:    prefs.NotificationSound,
		BrowserNotifications: prefs.BrowserNotifications,
		ShowReadReceipts:     prefs.ShowReadReceipts,
		ShowTypingIndicators: prefs.ShowTypingIndicators,
	})
}

func (app *App) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req updatePreferencesRequest
	if apiErr := app.decodeBody(r, &req); apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	identity := identityFromContext(r.Context())
	err := app.repo.UpsertPreferences(r.Context(), database.UpsertPreferencesParams{
		UserId:               identity.Id,
		Theme:                req.Theme,
		NotificationSound:    req.NotificationSound,
		BrowserNotifications: req.BrowserNotifications,
		ShowReadReceipts:     req.ShowReadReceipts,
		ShowTypingIndicators: req.ShowTypingIndicators,
	})
	if err != nil {
		app.writeError(w, NewInternalServerError(err))
		return
	}

	app.handleGetPreferences(w, r)
}
