package sdk

import (
	"context"
	"errors"
	"strings"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
)

// Status is the outcome of a bridge call.
type Status string

const (
	StatusSuccess Status = "ok"
	StatusFailure Status = "error"
)

// Result is the structured outcome of one call: Success(payload...) or Failure(message).
type Result struct {
	status  Status
	payload []term.Term
	err     error
}

// Success builds a tagged success with zero, one or two payload terms.
func Success(payload ...term.Term) Result {
	p := make([]term.Term, len(payload))
	copy(p, payload)
	return Result{status: StatusSuccess, payload: p}
}

// Failure builds a tagged failure from err.
func Failure(err error) Result {
	if err == nil {
		err = errors.New("unspecified failure")
	}
	return Result{status: StatusFailure, err: err}
}

// Status returns the result status.
func (r Result) Status() Status { return r.status }

// OK reports whether the result is a success.
func (r Result) OK() bool { return r.status == StatusSuccess }

// Payload returns the success payload. It is empty for failures.
func (r Result) Payload() []term.Term {
	out := make([]term.Term, len(r.payload))
	copy(out, r.payload)
	return out
}

// Err returns the failure cause, or nil for successes.
func (r Result) Err() error { return r.err }

// Message returns the failure message, or "" for successes.
func (r Result) Message() string {
	if r.err == nil {
		return ""
	}
	return r.err.Error()
}

// Kind returns the failure category.
func (r Result) Kind() ErrorKind { return KindOf(r.err) }

// Term encodes the result as a tagged tuple: {ok, p1[, p2]} or {error, "message"}.
func (r Result) Term() term.Term {
	if r.OK() {
		elems := append([]term.Term{term.AtomOK}, r.payload...)
		return term.Tuple(elems...)
	}
	return term.Tuple(term.AtomError, term.Binary(r.Message()))
}

// String renders the tagged tuple.
func (r Result) String() string {
	return r.Term().String()
}

// RebuildError reconstructs a typed error from its wire form.
func RebuildError(kind ErrorKind, operation, code, message string) error {
	switch kind {
	case KindDecode:
		return &DecodeError{Operation: operation, Slot: -1, Reason: message}
	case KindNative:
		return &NativeError{Operation: operation, Code: code, Message: message}
	case KindNotFound:
		return &NotFoundError{Operation: operation, Subject: strings.TrimSuffix(message, " not found")}
	case KindInitialization:
		return NewInitializationError(-1, "", message, nil)
	case KindUnknown:
		return &wireError{msg: message, sentinel: ErrUnknownOperation}
	case KindTransport:
		return &wireError{msg: message, sentinel: ErrTransport}
	case KindCanceled:
		return &wireError{msg: message, sentinel: context.Canceled}
	default:
		return errors.New(message)
	}
}

// ErrorCode returns the short native code of err, if any.
func ErrorCode(err error) string {
	var nerr *NativeError
	if errors.As(err, &nerr) {
		return nerr.Code
	}
	return ""
}

// wireError keeps a remote message verbatim while matching its category sentinel.
type wireError struct {
	msg      string
	sentinel error
}

func (e *wireError) Error() string { return e.msg }
func (e *wireError) Unwrap() error { return e.sentinel }

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
