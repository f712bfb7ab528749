package session

import (
	"errors"
	"fmt"
)

// Kind classifies a session failure by the collaborator that caused it.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuth
	KindInference
	KindStore
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "AuthError"
	case KindInference:
		return "InferenceError"
	case KindStore:
		return "StoreError"
	case KindValidation:
		return "ValidationError"
	}
	return "UnknownError"
}

// Error is a tagged failure returned by every Session operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message is the description shown to the user.
func (e *Error) Message() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

var (
	// ErrEmptyMessage is returned when the submitted text is blank.
	ErrEmptyMessage = &Error{Kind: KindValidation, Op: "sendMessage", Err: errors.New("message is empty")}
	// ErrNotSignedIn is returned when a message is sent before authentication.
	ErrNotSignedIn = &Error{Kind: KindValidation, Op: "sendMessage", Err: errors.New("not signed in")}
)

func wrap(kind Kind, op string, err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the Kind of err, or KindUnknown when err is not a session error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is a session error of kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

func describe(err error) string {
	var se *Error
	if errors.As(err, &se) {
		if msg := se.Message(); msg != "" {
			return msg
		}
	} else if err != nil && err.Error() != "" {
		return err.Error()
	}
	return "API call failed. Check the logs or try again."
}
