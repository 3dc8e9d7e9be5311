// Package apperror defines the error kinds shared by the calendar, booking and
// record-store layers.
//
// Every failure coming out of a Google API client is converted into an *Error
// at the package boundary, so tool handlers only need to switch on Kind and
// never inspect googleapi or oauth2 error shapes.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for presentation to the tool caller.
type Kind int

const (
	KindUnknown Kind = iota
	// KindInput means the caller supplied malformed or missing arguments.
	KindInput
	// KindAuth means credentials are missing, expired or revoked.
	KindAuth
	// KindProviderUnavailable means a downstream API call failed.
	KindProviderUnavailable
	// KindNotFound means the referenced event or record does not exist.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input_error"
	case KindAuth:
		return "auth_error"
	case KindProviderUnavailable:
		return "provider_unavailable"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is a classified error. Op names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Input returns a KindInput error with a formatted message.
func Input(op, format string, args ...any) error {
	return &Error{Kind: KindInput, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Auth wraps err as a KindAuth error.
func Auth(op string, err error) error {
	return &Error{Kind: KindAuth, Op: op, Msg: "authentication failed", Err: err}
}

// Unavailable wraps err as a KindProviderUnavailable error. An auth error in
// err's chain stays detectable through Is.
func Unavailable(op string, err error) error {
	return &Error{Kind: KindProviderUnavailable, Op: op, Msg: "provider unavailable", Err: err}
}

// NotFound returns a KindNotFound error.
func NotFound(op, format string, args ...any) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Is reports whether any *Error in err's chain has the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var ae *Error
		if !errors.As(err, &ae) {
			return false
		}
		if ae.Kind == kind {
			return true
		}
		err = ae.Err
	}
	return false
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}
