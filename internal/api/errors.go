package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/murmur-chat/murmur/internal/messaging"
)

type ApiError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err)
	}
	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func NewBadRequestError(message string, err error) *ApiError {
	return &ApiError{StatusCode: http.StatusBadRequest, Message: message, Err: err}
}

func NewUnauthorizedError(message string, err error) *ApiError {
	return &ApiError{StatusCode: http.StatusUnauthorized, Message: message, Err: err}
}

func NewForbiddenError(message string, err error) *ApiError {
	return &ApiError{StatusCode: http.StatusForbidden, Message: message, Err: err}
}

func NewNotFoundError(message string, err error) *ApiError {
	return &ApiError{StatusCode: http.StatusNotFound, Message: message, Err: err}
}

func NewConflictError(message string, err error) *ApiError {
	return &ApiError{StatusCode: http.StatusConflict, Message: message, Err: err}
}

func NewInternalServerError(err error) *ApiError {
	return &ApiError{StatusCode: http.StatusInternalServerError, Message: "internal server error", Err: err}
}

// storeError translates messaging errors into HTTP responses. Anything
// unrecognized is a 500 with the detail kept out of the body.
func storeError(err error) *ApiError {
	switch {
	case errors.Is(err, messaging.ErrInvalidInput):
		return NewBadRequestError(err.Error(), err)
	case errors.Is(err, messaging.ErrAnonymousSender):
		return NewBadRequestError("cannot reply to an anonymous sender", err)
	case errors.Is(err, messaging.ErrNotAParticipant):
		return NewForbiddenError("not a participant in this thread", err)
	case errors.Is(err, messaging.ErrForbidden):
		return NewForbiddenError("forbidden", err)
	case errors.Is(err, messaging.ErrNotFound):
		return NewNotFoundError("not found", err)
	default:
		return NewInternalServerError(err)
	}
}
