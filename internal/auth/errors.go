package auth

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindServerError Kind = iota
	KindInvalidInput
	KindConflict
	KindNotFound
	KindInvalidCredentials
	KindAlreadyAuthenticated
	KindGone
	KindProviderError
	KindMissingEmail
)

var kindNames = map[Kind]string{
	KindServerError:          "server_error",
	KindInvalidInput:         "invalid_input",
	KindConflict:             "conflict",
	KindNotFound:             "not_found",
	KindInvalidCredentials:   "invalid_credentials",
	KindAlreadyAuthenticated: "already_authenticated",
	KindGone:                 "gone",
	KindProviderError:        "provider_error",
	KindMissingEmail:         "missing_email",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the only error type the flows return. Message is safe to show to
// the client; Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func fail(k Kind, msg string) *Error { return &Error{Kind: k, Message: msg} }

// KindOf reports the kind of err; errors not produced by this package are server errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServerError
}
