// Package runtime executes bridge calls: it resolves the operation, decodes
// arguments, runs the native routine under the gate, checks the native error
// state and encodes the result.
package runtime

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/cache"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/decode"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/kernel"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/registry"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
	"github.com/felixgeelhaar/astrobridge/internal/native"
)

// Executor is the in-process implementation of sdk.Bridge.
type Executor struct {
	table     *registry.Table
	gate      *native.Gate
	kernels   *kernel.Registry
	monitor   *Monitor
	metrics   *MetricsCollector
	cache     *cache.Cache
	recorders []Recorder
	logger    *slog.Logger
	closed    atomic.Bool
}

var _ sdk.Bridge = (*Executor)(nil)

// Option configures an Executor.
type Option func(*Executor)

// WithMetrics sets the metrics collector.
func WithMetrics(m *MetricsCollector) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithCache enables result caching for cacheable operations.
func WithCache(c *cache.Cache) Option {
	return func(e *Executor) { e.cache = c }
}

// WithRecorder adds a call recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Executor) { e.recorders = append(e.recorders, r) }
}

// NewExecutor creates an executor. The table should be frozen.
func NewExecutor(table *registry.Table, gate *native.Gate, kernels *kernel.Registry, logger *slog.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Executor{
		table:   table,
		gate:    gate,
		kernels: kernels,
		monitor: NewMonitor(logger),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetricsCollector()
	}
	return e
}

// Initialize loads the kernel path list.
func (e *Executor) Initialize(ctx context.Context, kernels []term.Term) error {
	if e.closed.Load() {
		return sdk.ErrShutdown
	}
	return e.kernels.Load(ctx, kernels)
}

// Call runs one operation.
func (e *Executor) Call(ctx context.Context, operation string, args []term.Term) sdk.Result {
	start := time.Now()
	res, op, cached := e.call(ctx, operation, args)
	duration := time.Since(start)

	name := operation
	if op != nil {
		name = op.Name
	}
	e.metrics.RecordCall(name, duration, cached, res.Err())

	if !res.OK() {
		e.logger.Debug("call failed",
			"operation", name,
			"arity", len(args),
			"kind", res.Kind(),
			"error", res.Message(),
		)
	}

	if len(e.recorders) > 0 {
		rec := CallRecord{
			ID:        uuid.NewString(),
			Operation: name,
			Arity:     len(args),
			Status:    res.Status(),
			Kind:      res.Kind(),
			Code:      sdk.ErrorCode(res.Err()),
			Message:   res.Message(),
			Cached:    cached,
			Duration:  duration,
			At:        start,
		}
		for _, r := range e.recorders {
			r.RecordCall(ctx, rec)
		}
	}
	return res
}

func (e *Executor) call(ctx context.Context, name string, raw []term.Term) (sdk.Result, *registry.Operation, bool) {
	if e.closed.Load() {
		return sdk.Failure(sdk.ErrShutdown), nil, false
	}

	op, ok := e.table.Lookup(name, len(raw))
	if !ok {
		return sdk.Failure(&sdk.UnknownOperationError{Name: name, Arity: len(raw)}), nil, false
	}

	if err := e.kernels.Ready(); err != nil {
		if errors.Is(err, sdk.ErrNotReady) {
			err = sdk.NewInitializationError(-1, "", sdk.ErrNotReady.Error(), nil)
		}
		return sdk.Failure(err), &op, false
	}

	args, err := decode.Decode(op.Name, op.Params, raw)
	if err != nil {
		return sdk.Failure(err), &op, false
	}
	defer args.Release()

	var key string
	if e.cache != nil && op.Cacheable {
		key, err = cache.Key(e.kernels.Fingerprint(), op.Name, op.Arity(), raw)
		if err != nil {
			e.logger.Warn("cache key failed", "operation", op.Name, "error", err)
			key = ""
		} else if payload, hit := e.cache.Lookup(ctx, key); hit {
			return sdk.Success(payload...), &op, true
		}
	}

	var (
		frame     registry.Frame
		nativeErr error
	)
	err = e.gate.Do(ctx, func(lib native.Library) {
		if e.monitor.ClearStale(lib, op.Name) {
			e.metrics.RecordStaleError()
		}
		op.Invoke(lib, args, &frame)
		nativeErr = e.monitor.Check(lib, op.Name)
	})
	if err != nil {
		return sdk.Failure(err), &op, false
	}
	if nativeErr != nil {
		return sdk.Failure(nativeErr), &op, false
	}
	if op.Lookup != "" && !frame.Found {
		return sdk.Failure(&sdk.NotFoundError{Operation: op.Name, Subject: op.Lookup}), &op, false
	}

	var payload []term.Term
	if op.Shape != registry.Unit {
		payload = op.Encode(&frame)
	}
	if key != "" {
		e.cache.Save(ctx, key, payload)
	}
	return sdk.Success(payload...), &op, false
}

// Operations lists the registered operations.
func (e *Executor) Operations() []sdk.OperationInfo {
	return e.table.Infos()
}

// HealthCheck reports kernel readiness and the native error state.
func (e *Executor) HealthCheck(ctx context.Context) sdk.HealthStatus {
	if e.closed.Load() {
		return sdk.NewHealthStatus(false, sdk.ErrShutdown.Error())
	}

	ready := e.kernels.Ready()
	status := sdk.NewHealthStatus(ready == nil, "ready")
	if ready != nil {
		status.Message = ready.Error()
	}
	status.Details["kernels"] = string(e.kernels.Status())
	status.Details["kernel_count"] = len(e.kernels.Paths())
	status.Details["fingerprint"] = e.kernels.Fingerprint()
	status.Details["operations"] = e.table.Len()

	// A busy gate means a call is in flight; the flag is only meaningful when idle.
	var pending bool
	if e.gate.TryDo(func(lib native.Library) { pending = lib.Failed() }) {
		status.Details["native_error_pending"] = pending
	} else {
		status.Details["native_busy"] = true
	}

	if e.cache != nil {
		status.Details["cache"] = e.cache.Stats()
	}
	return status
}

// Metrics returns the metrics collector.
func (e *Executor) Metrics() *MetricsCollector {
	return e.metrics
}

// Kernels returns the kernel registry.
func (e *Executor) Kernels() *kernel.Registry {
	return e.kernels
}

// Shutdown rejects new calls and waits for an in-flight native call to finish.
func (e *Executor) Shutdown(ctx context.Context) error {
	if e.closed.Swap(true) {
		return nil
	}
	if err := e.gate.Do(ctx, func(native.Library) {}); err != nil {
		return err
	}
	e.logger.Info("bridge shut down")
	return nil
}
