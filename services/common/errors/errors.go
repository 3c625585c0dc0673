package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure. The HTTP layer maps it to a status code and echoes it
// as errorKind in the response body.
type Kind string

const (
	KindValidation   Kind = "ValidationError"
	KindNotFound     Kind = "NotFoundError"
	KindStore        Kind = "StoreError"
	KindEventPublish Kind = "EventPublishError"
	KindInternal     Kind = "InternalError"
)

// Error represents an application error
type Error struct {
	Kind    Kind   `json:"errorKind"`
	Code    int    `json:"-"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Code: StatusFor(kind), Message: message, Err: err}
}

func Validation(message string) *Error {
	return New(KindValidation, message, nil)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message, nil)
}

func Store(message string, err error) *Error {
	return New(KindStore, message, err)
}

func Publish(message string, err error) *Error {
	return New(KindEventPublish, message, err)
}

// Sentinels for errors.Is; they match any message of their kind.
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrStore        = &Error{Kind: KindStore}
	ErrEventPublish = &Error{Kind: KindEventPublish}
)

// StatusFor maps a kind to its HTTP status.
func StatusFor(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindEventPublish:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// As extracts the *Error in err's chain; anything else becomes an InternalError.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return New(KindInternal, "internal error", err)
}
