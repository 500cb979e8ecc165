package sdk

import (
	"errors"
	"fmt"
)

// Sentinel errors for bridge failure categories.
var (
	// ErrDecode marks an argument that failed type or shape validation.
	ErrDecode = errors.New("bad argument")

	// ErrNative marks a failure signalled through the native error state.
	ErrNative = errors.New("native error")

	// ErrNotFound marks a lookup that completed without an error but found nothing.
	ErrNotFound = errors.New("not found")

	// ErrInitialization marks a kernel loading failure.
	ErrInitialization = errors.New("initialization failed")

	// ErrNotReady is returned when a computation arrives before kernels are loaded.
	ErrNotReady = errors.New("kernels not loaded")

	// ErrAlreadyInitialized is returned when kernels are loaded a second time.
	ErrAlreadyInitialized = errors.New("kernels already loaded")

	// ErrUnknownOperation is returned for a name/arity pair with no descriptor.
	ErrUnknownOperation = errors.New("undefined operation")

	// ErrTransport marks a failure talking to an out-of-process bridge.
	ErrTransport = errors.New("transport error")

	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrShutdown is returned for calls after Shutdown.
	ErrShutdown = errors.New("bridge has been shut down")
)

// DecodeError describes an argument that failed validation.
type DecodeError struct {
	// Operation is the operation being decoded.
	Operation string

	// Slot is the zero-based argument position.
	Slot int

	// Param is the parameter name of the slot.
	Param string

	// Reason describes the mismatch.
	Reason string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Slot < 0 {
		return e.Reason
	}
	if e.Param != "" {
		return fmt.Sprintf("bad argument %d (%s) to %s: %s", e.Slot, e.Param, e.Operation, e.Reason)
	}
	return fmt.Sprintf("bad argument %d to %s: %s", e.Slot, e.Operation, e.Reason)
}

// Unwrap returns ErrDecode.
func (e *DecodeError) Unwrap() error {
	return ErrDecode
}

// NewDecodeError creates a new decode error.
func NewDecodeError(operation string, slot int, param, reason string) *DecodeError {
	return &DecodeError{
		Operation: operation,
		Slot:      slot,
		Param:     param,
		Reason:    reason,
	}
}

// NativeError carries the diagnostic read from the native error state.
type NativeError struct {
	// Operation is the operation whose native routine failed.
	Operation string

	// Code is the short error message, e.g. SPICE(NOLOADEDFILES).
	Code string

	// Message is the long error message.
	Message string
}

// Error returns the long diagnostic message, falling back to the short code.
func (e *NativeError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return ErrNative.Error()
}

// Unwrap returns ErrNative.
func (e *NativeError) Unwrap() error {
	return ErrNative
}

// NotFoundError reports a lookup that found nothing.
type NotFoundError struct {
	// Operation is the lookup operation.
	Operation string

	// Subject describes what was looked up, e.g. "body".
	Subject string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Subject == "" {
		return "not found"
	}
	return e.Subject + " not found"
}

// Unwrap returns ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// InitializationError reports a kernel path that could not be loaded.
type InitializationError struct {
	// Index is the position of the offending path in the kernel list, or -1.
	Index int

	// Path is the offending path when it decoded as a string.
	Path string

	// Reason describes the failure.
	Reason string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *InitializationError) Error() string {
	msg := e.Reason
	if e.Index >= 0 {
		msg = fmt.Sprintf("kernel %d: %s", e.Index, e.Reason)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error and ErrInitialization.
func (e *InitializationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInitialization, e.Err}
	}
	return []error{ErrInitialization}
}

// NewInitializationError creates a new initialization error.
func NewInitializationError(index int, path, reason string, err error) *InitializationError {
	return &InitializationError{
		Index:  index,
		Path:   path,
		Reason: reason,
		Err:    err,
	}
}

// UnknownOperationError reports a name/arity pair with no descriptor.
type UnknownOperationError struct {
	Name  string
	Arity int
}

// Error implements the error interface.
func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("undefined operation %s/%d", e.Name, e.Arity)
}

// Unwrap returns ErrUnknownOperation.
func (e *UnknownOperationError) Unwrap() error {
	return ErrUnknownOperation
}

// TransportError wraps a failure reaching an out-of-process bridge.
type TransportError struct {
	Operation string
	Err       error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error and ErrTransport.
func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// IsDecode checks if the error is an argument decoding failure.
func IsDecode(err error) bool {
	return errors.Is(err, ErrDecode)
}

// IsNative checks if the error came from the native error state.
func IsNative(err error) bool {
	return errors.Is(err, ErrNative)
}

// IsNotFound checks if the error is a lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInitialization checks if the error is a kernel loading failure
// or a call made before kernels were loaded.
func IsInitialization(err error) bool {
	return errors.Is(err, ErrInitialization) || errors.Is(err, ErrNotReady)
}

// IsTransport checks if the error is a transport failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrCircuitOpen)
}

// IsCircuitOpen checks if the error is due to an open circuit breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// ErrorKind classifies an error for metrics and journaling.
type ErrorKind string

const (
	KindNone           ErrorKind = ""
	KindDecode         ErrorKind = "decode"
	KindNative         ErrorKind = "native"
	KindNotFound       ErrorKind = "not_found"
	KindInitialization ErrorKind = "initialization"
	KindUnknown        ErrorKind = "unknown_operation"
	KindTransport      ErrorKind = "transport"
	KindCanceled       ErrorKind = "canceled"
	KindInternal       ErrorKind = "internal"
)

// KindOf returns the category of err.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case IsInitialization(err):
		return KindInitialization
	case IsDecode(err):
		return KindDecode
	case IsNative(err):
		return KindNative
	case IsNotFound(err):
		return KindNotFound
	case errors.Is(err, ErrUnknownOperation):
		return KindUnknown
	case IsTransport(err):
		return KindTransport
	case isContextErr(err):
		return KindCanceled
	default:
		return KindInternal
	}
}
