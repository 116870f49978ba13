package service

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"advisory-api/internal/store"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	}
	return "internal"
}

// Error is what every operation returns on failure. Msg is safe to show to
// callers; Err is for logs only.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

var (
	ErrNoSession = &Error{Kind: KindUnauthorized, Msg: "unauthorized"}
	ErrForbidden = &Error{Kind: KindUnauthorized, Msg: "cannot modify another user"}
	ErrNotClient = &Error{Kind: KindUnauthorized, Msg: "entrepreneur session required"}
)

func invalid(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }

func notFound(msg string) error { return &Error{Kind: KindNotFound, Msg: msg} }

func internal(err error) error {
	return &Error{Kind: KindInternal, Msg: "internal error", Err: err}
}

// KindOf classifies any error; non-service errors are internal.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// Message returns the caller-safe text for err.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Msg
	}
	return "internal error"
}

// fromStore maps storage sentinels onto service kinds.
func fromStore(err error, what string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return notFound(what + " not found")
	case errors.Is(err, store.ErrInvalid):
		return &Error{Kind: KindValidation, Msg: "invalid " + what, Err: err}
	case errors.Is(err, store.ErrConflict):
		return &Error{Kind: KindConflict, Msg: what + " already exists", Err: err}
	}
	return internal(err)
}

// storeErr converts a storage error and logs it when it is not a caller
// mistake.
func (s *Service) storeErr(err error, what, op string) error {
	out := fromStore(err, what)
	if KindOf(out) == KindInternal {
		s.log.Error(op, zap.Error(err))
	}
	return out
}
