package service

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrEventNotFound      = errors.New("event not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidTransition  = errors.New("event has already been reviewed")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidCode        = errors.New("invalid or expired code")
)

// ValidationError is a client-correctable input problem.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErr(msg string) error {
	return &ValidationError{Message: msg}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// parseID rejects malformed identifiers before any store access.
func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, validationErr("invalid " + what + " id")
	}
	return id, nil
}
