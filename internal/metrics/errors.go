package metrics

import (
	"errors"

	"github.com/tsilva/sandbox-fastmcp/internal/wandb"
)

// Kind classifies failures so callers can react without string matching.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindConnection
	KindNotFound
	KindEmptySeries
	KindRemote
	KindRender
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindConnection:
		return "connection"
	case KindNotFound:
		return "not_found"
	case KindEmptySeries:
		return "empty_series"
	case KindRemote:
		return "remote"
	case KindRender:
		return "render"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg != "" {
			msg += ": "
		}
		msg += e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func invalid(op, msg string) error {
	return &Error{Kind: KindInvalidArgument, Op: op, Msg: msg}
}

// remote classifies an error surfaced by the tracking API.
func remote(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	kind := KindRemote
	switch {
	case errors.Is(err, wandb.ErrNotFound):
		kind = KindNotFound
	case errors.Is(err, wandb.ErrUnauthorized), errors.Is(err, wandb.ErrNoCredentials):
		kind = KindConnection
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
