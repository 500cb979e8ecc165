package sdk

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
	"github.com/stretchr/testify/assert"
)

func TestDecodeError(t *testing.T) {
	err := NewDecodeError("state-vector-by-code", 1, "epoch", "expected number, got binary")

	assert.Equal(t, "bad argument 1 (epoch) to state-vector-by-code: expected number, got binary", err.Error())
	assert.True(t, IsDecode(err))
	assert.True(t, errors.Is(err, ErrDecode))
	assert.False(t, IsNative(err))
}

func TestNativeError(t *testing.T) {
	t.Run("long message wins", func(t *testing.T) {
		err := &NativeError{Code: "SPICE(NOLOADEDFILES)", Message: "At least one SPK file needs to be loaded."}
		assert.Equal(t, "At least one SPK file needs to be loaded.", err.Error())
		assert.Equal(t, "SPICE(NOLOADEDFILES)", ErrorCode(err))
	})

	t.Run("falls back to code", func(t *testing.T) {
		err := &NativeError{Code: "SPICE(BADTIMETYPE)"}
		assert.Equal(t, "SPICE(BADTIMETYPE)", err.Error())
	})

	t.Run("wrapped", func(t *testing.T) {
		err := fmt.Errorf("call: %w", &NativeError{Message: "boom"})
		assert.True(t, IsNative(err))
		assert.Equal(t, KindNative, KindOf(err))
	})
}

func TestInitializationError(t *testing.T) {
	cause := NewDecodeError("load", 2, "", "expected binary, got integer")
	err := NewInitializationError(2, "", "bad kernel path", cause)

	assert.True(t, IsInitialization(err))
	assert.True(t, IsDecode(err))
	assert.Contains(t, err.Error(), "kernel 2: bad kernel path")
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindNone},
		{"decode", NewDecodeError("x", 0, "", "r"), KindDecode},
		{"not found", &NotFoundError{Subject: "body"}, KindNotFound},
		{"not ready", ErrNotReady, KindInitialization},
		{"unknown", &UnknownOperationError{Name: "x", Arity: 1}, KindUnknown},
		{"transport", &TransportError{Operation: "call", Err: errors.New("eof")}, KindTransport},
		{"circuit", ErrCircuitOpen, KindTransport},
		{"canceled", context.Canceled, KindCanceled},
		{"other", errors.New("x"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestResultTerm(t *testing.T) {
	t.Run("single payload", func(t *testing.T) {
		r := Success(term.Int(399))
		assert.True(t, r.OK())
		assert.Equal(t, "{ok, 399}", r.String())
	})

	t.Run("pair payload", func(t *testing.T) {
		r := Success(term.Floats(1, 2, 3, 4, 5, 6), term.Float(0.5))
		assert.Equal(t, "{ok, [1.0, 2.0, 3.0, 4.0, 5.0, 6.0], 0.5}", r.String())
	})

	t.Run("failure", func(t *testing.T) {
		r := Failure(&NotFoundError{Subject: "body"})
		assert.False(t, r.OK())
		assert.Empty(t, r.Payload())
		assert.Equal(t, KindNotFound, r.Kind())
		assert.True(t, term.Tuple(term.AtomError, term.Binary("body not found")).Equal(r.Term()))
	})
}

func TestRebuildError(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		msg  string
	}{
		{KindDecode, "bad argument 0 (code) to code-to-name: expected integer, got float"},
		{KindNative, "At least one SPK file needs to be loaded."},
		{KindNotFound, "body not found"},
		{KindInitialization, "kernels not loaded"},
		{KindUnknown, "undefined operation nope/1"},
		{KindTransport, "transport call: connection refused"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := RebuildError(tt.kind, "op", "CODE", tt.msg)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}
