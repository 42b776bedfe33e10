package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/murmur-chat/murmur/internal/database"
	"github.com/murmur-chat/murmur/internal/types"
)

const tokenLifetime = 24 * time.Hour

// uniqueViolation is the postgres error code for duplicate keys.
const uniqueViolation = "23505"

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

func (app *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if apiErr := app.decodeBody(r, &req); apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		app.writeError(w, NewInternalServerError(err))
		return
	}

	user, err := app.repo.CreateAccount(r.Context(), database.CreateAccountParams{
		Username:     req.Username,
		PasswordHash: string(hash),
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

	token, err := app.generateToken(user.Id)
	if err != nil {
		app.writeError(w, NewInternalServerError(err))
		return
	}

	app.writeJson(w, http.StatusCreated, tokenResponse{
		Token: token,
		User:  userView(user),
	})
}

func (app *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if apiErr := app.decodeBody(r, &req); apiErr != nil {
		app.writeError(w, apiErr)
		return
	}

	user, err := app.repo.GetAccountByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			app.writeError(w, NewUnauthorizedError("invalid credentials", err))
			return
		}
		app.writeError(w, NewInternalServerError(err))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		app.writeError(w, NewUnauthorizedError("invalid credentials", err))
		return
	}

	token, err := app.generateToken(user.Id)
	if err != nil {
		app.writeError(w, NewInternalServerError(err))
		return
	}

	app.writeJson(w, http.StatusOK, tokenResponse{
		Token: token,
		User:  userView(user),
	})
}

func (app *App) generateToken(userId uuid.UUID) (string, error) {
	claims := jwt.StandardClaims{
		Subject:   userId.String(),
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(tokenLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(app.cfg.SigningKey)
}

func (app *App) parseToken(tokenString string) (uuid.UUID, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return app.cfg.SigningKey, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	if !token.Valid {
		return uuid.Nil, errors.New("invalid token")
	}

	return uuid.Parse(claims.Subject)
}

func userView(u database.User) types.User {
	return types.User{
		Id:        u.Id,
		Username:  u.Username,
		Bio:       u.Bio.String,
		AvatarUrl: u.AvatarUrl.String,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
