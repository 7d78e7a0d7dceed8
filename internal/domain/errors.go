package domain

import (
	"errors"
	"fmt"
)

// Kind classifies failures so callers can switch on the cause instead of messages.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindRateLimited
	KindUpstreamUnavailable
	KindNoStations
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindNoStations:
		return "no_stations"
	default:
		return "internal"
	}
}

// Retryable reports whether a failure of this kind may succeed on a later attempt.
func (k Kind) Retryable() bool {
	return k == KindRateLimited || k == KindUpstreamUnavailable
}

// Error is a classified failure. Msg is safe to show to API callers;
// Err carries internal detail and is never rendered to them.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind and message, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == e.Msg && t.Op == ""
}

var (
	ErrRouteNotFound       = &Error{Kind: KindNotFound, Msg: "route not found"}
	ErrNoStationsAvailable = &Error{Kind: KindNoStations, Msg: "no charging stations found along route"}
)

func NewError(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Msg: msg}
}

// KindOf returns the kind of the first classified error in the chain,
// or KindInternal when none is found.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-safe message of the first classified error.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return "server error"
}
