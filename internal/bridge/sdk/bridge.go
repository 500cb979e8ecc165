// Package sdk provides the core interfaces and types of the astrodynamics bridge:
// the call surface, structured results and the error taxonomy.
package sdk

import (
	"context"
	"time"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
)

// Bridge is the call surface exposed to callers.
// Implementations serialize all access to the underlying native library.
type Bridge interface {
	// Initialize loads the kernel path list. It runs once, before any computation.
	Initialize(ctx context.Context, kernels []term.Term) error

	// Call dispatches a named operation with positional arguments.
	// Every outcome, including bad arguments, is reported through the Result.
	Call(ctx context.Context, operation string, args []term.Term) Result

	// Operations lists the registered operations.
	Operations() []OperationInfo

	// HealthCheck returns the current health status of the bridge.
	HealthCheck(ctx context.Context) HealthStatus

	// Shutdown stops accepting calls and releases resources.
	Shutdown(ctx context.Context) error
}

// ParamInfo describes one positional parameter.
type ParamInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// OperationInfo describes a registered operation.
type OperationInfo struct {
	// Name is the operation name callers use.
	Name string `json:"name"`

	// Routine is the native routine the operation maps to. It is also accepted as a name.
	Routine string `json:"routine"`

	// Arity is the number of positional arguments.
	Arity int `json:"arity"`

	// Params describes each argument slot.
	Params []ParamInfo `json:"params"`

	// Returns describes the success payload.
	Returns string `json:"returns"`

	// Description is a one-line summary.
	Description string `json:"description,omitempty"`
}

// HealthStatus represents the health of a bridge.
type HealthStatus struct {
	// Healthy indicates the bridge can serve calls.
	Healthy bool `json:"healthy"`

	// Message provides additional context about the health status.
	Message string `json:"message,omitempty"`

	// Details contains bridge-specific health information.
	Details map[string]any `json:"details,omitempty"`

	// CheckedAt is when the health check was performed.
	CheckedAt time.Time `json:"checked_at"`
}

// NewHealthStatus creates a health status stamped with the current time.
func NewHealthStatus(healthy bool, message string) HealthStatus {
	return HealthStatus{
		Healthy:   healthy,
		Message:   message,
		Details:   make(map[string]any),
		CheckedAt: time.Now(),
	}
}
