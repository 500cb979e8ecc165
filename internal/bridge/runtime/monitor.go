package runtime

import (
	"log/slog"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
	"github.com/felixgeelhaar/astrobridge/internal/native"
)

// Monitor inspects and clears the native error state.
// It must only be used while holding the gate.
type Monitor struct {
	logger *slog.Logger
}

// NewMonitor creates a monitor.
func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{logger: logger}
}

// Check reads and clears a pending error after a native call.
// It returns nil when the call completed without signalling.
func (m *Monitor) Check(lib native.Library, operation string) error {
	if !lib.Failed() {
		return nil
	}
	err := &sdk.NativeError{
		Operation: operation,
		Code:      lib.GetMsg(native.MsgShort, native.MaxMessageLength),
		Message:   lib.GetMsg(native.MsgLong, native.MaxMessageLength),
	}
	lib.Reset()

	m.logger.Debug("native error",
		"operation", operation,
		"code", err.Code,
	)
	return err
}

// ClearStale resets an error left pending by an earlier caller so that it
// cannot be attributed to the next call.
func (m *Monitor) ClearStale(lib native.Library, operation string) bool {
	if !lib.Failed() {
		return false
	}
	m.logger.Warn("clearing stale native error",
		"operation", operation,
		"code", lib.GetMsg(native.MsgShort, native.MaxMessageLength),
	)
	lib.Reset()
	return true
}
