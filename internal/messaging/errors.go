package messaging

import "errors"

var (
	// ErrInvalidInput rejects empty or oversized content before it reaches
	// storage.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAnonymousSender is returned when a reply would have to be routed to
	// a sender who posted anonymously and therefore cannot be addressed.
	ErrAnonymousSender = errors.New("cannot reply to an anonymous sender")

	// ErrForbidden is returned when the caller is known but not allowed to
	// perform the operation, for example editing someone else's message.
	ErrForbidden = errors.New("forbidden")

	// ErrNotAParticipant is returned when the caller is neither sender nor
	// recipient anywhere in the thread.
	ErrNotAParticipant = errors.New("not a participant in this thread")

	ErrNotFound = errors.New("not found")
)
