package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error a service returns on purpose wraps exactly one of
// them; anything else is treated as an internal failure.
var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrForbidden    = errors.New("access forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrPrecondition = errors.New("precondition failed")
	ErrTooLarge     = errors.New("payload too large")
)

// Error is a failure with a message that is safe to show to API clients.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// Errorf builds an *Error of the given kind.
func Errorf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

var (
	ErrInvalidCredentials = &Error{Kind: ErrUnauthorized, Msg: "invalid credentials"}
	ErrTokenMissing       = &Error{Kind: ErrUnauthorized, Msg: "token is required"}
	ErrTokenExpired       = &Error{Kind: ErrUnauthorized, Msg: "token has expired"}
	ErrTokenRevoked       = &Error{Kind: ErrUnauthorized, Msg: "token has been revoked"}
	ErrAuthHeader         = &Error{Kind: ErrUnauthorized, Msg: "invalid authorization header"}
	ErrIdentityGone       = &Error{Kind: ErrUnauthorized, Msg: "user no longer exists"}
	ErrTokenMalformed     = &Error{Kind: ErrInvalidToken, Msg: "invalid token"}

	ErrAdminRequired = &Error{Kind: ErrForbidden, Msg: "admin access required"}
	ErrAccessDenied  = &Error{Kind: ErrForbidden, Msg: "access denied"}

	ErrUserNotFound  = &Error{Kind: ErrNotFound, Msg: "user not found"}
	ErrUsernameTaken = &Error{Kind: ErrConflict, Msg: "username already exists"}
	ErrEmailTaken    = &Error{Kind: ErrConflict, Msg: "email already exists"}

	ErrCategoryNotFound = &Error{Kind: ErrNotFound, Msg: "category not found"}
	ErrCategoryExists   = &Error{Kind: ErrConflict, Msg: "category name already exists"}
	ErrInvalidCategory  = &Error{Kind: ErrValidation, Msg: "invalid category"}

	ErrDocumentNotFound = &Error{Kind: ErrNotFound, Msg: "document not found"}
	ErrBlobNotFound     = &Error{Kind: ErrNotFound, Msg: "file not found on server"}
	ErrFileTooLarge     = &Error{Kind: ErrTooLarge, Msg: "file too large"}
)

// CategoryNotEmptyError is returned when deleting a category that still
// classifies documents.
type CategoryNotEmptyError struct {
	Count int64
}

func (e *CategoryNotEmptyError) Error() string {
	return fmt.Sprintf("cannot delete category: it contains %d documents", e.Count)
}

func (e *CategoryNotEmptyError) Unwrap() error { return ErrPrecondition }

// Message returns the client-facing text for err: the innermost domain
// message when there is one, otherwise the kind's text.
func Message(err error) string {
	var ne *CategoryNotEmptyError
	if errors.As(err, &ne) {
		return ne.Error()
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Msg
	}
	for _, kind := range []error{ErrValidation, ErrUnauthorized, ErrInvalidToken, ErrForbidden, ErrNotFound, ErrConflict, ErrPrecondition, ErrTooLarge} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "internal server error"
}
