package runtime

import (
	"context"
	"time"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
)

// CallRecord describes one finished call.
type CallRecord struct {
	ID        string
	Operation string
	Arity     int
	Status    sdk.Status
	Kind      sdk.ErrorKind
	Code      string
	Message   string
	Cached    bool
	Duration  time.Duration
	At        time.Time
}

// Recorder receives a record of every call. Implementations must not block
// for long and their failures never change a call's result.
type Recorder interface {
	RecordCall(ctx context.Context, rec CallRecord)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, rec CallRecord)

// RecordCall calls f.
func (f RecorderFunc) RecordCall(ctx context.Context, rec CallRecord) { f(ctx, rec) }
