package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
)

// BreakerConfig configures the circuit breaker around a remote bridge.
type BreakerConfig struct {
	// Enabled turns the breaker on.
	Enabled bool

	// MaxRequests is the maximum number of requests allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state.
	Interval time.Duration

	// Timeout is the period of the open state.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive transport failures that trips the breaker.
	FailureThreshold uint32
}

// DefaultBreakerConfig returns a sensible default configuration.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:          true,
		MaxRequests:      3,
		Interval:         10 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// Guarded wraps a bridge with a circuit breaker that trips on transport
// failures only. Native, decode and lookup failures are deterministic results
// and pass through without counting against the breaker.
type Guarded struct {
	inner   sdk.Bridge
	breaker *gobreaker.CircuitBreaker[sdk.Result]
	metrics *MetricsCollector
	logger  *slog.Logger
}

var _ sdk.Bridge = (*Guarded)(nil)

// NewGuarded wraps inner. With the breaker disabled calls pass straight through.
func NewGuarded(inner sdk.Bridge, config BreakerConfig, metrics *MetricsCollector, logger *slog.Logger) *Guarded {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewMetricsCollector()
	}
	g := &Guarded{inner: inner, metrics: metrics, logger: logger}
	if !config.Enabled {
		return g
	}

	g.breaker = gobreaker.NewCircuitBreaker[sdk.Result](gobreaker.Settings{
		Name:        "native-bridge",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.RecordCircuitBreakerChange(to.String())
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !sdk.IsTransport(err)
		},
	})
	return g
}

// Initialize loads kernels through the inner bridge.
func (g *Guarded) Initialize(ctx context.Context, kernels []term.Term) error {
	if g.breaker == nil {
		return g.inner.Initialize(ctx, kernels)
	}
	_, err := g.breaker.Execute(func() (sdk.Result, error) {
		return sdk.Result{}, g.inner.Initialize(ctx, kernels)
	})
	return translateBreakerErr(err)
}

// Call runs an operation through the breaker.
func (g *Guarded) Call(ctx context.Context, operation string, args []term.Term) sdk.Result {
	if g.breaker == nil {
		return g.inner.Call(ctx, operation, args)
	}
	res, err := g.breaker.Execute(func() (sdk.Result, error) {
		r := g.inner.Call(ctx, operation, args)
		if sdk.IsTransport(r.Err()) {
			return r, r.Err()
		}
		return r, nil
	})
	if err != nil && sdk.IsCircuitOpen(translateBreakerErr(err)) {
		return sdk.Failure(translateBreakerErr(err))
	}
	return res
}

func translateBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", sdk.ErrCircuitOpen, err)
	}
	return err
}

// Operations lists the inner bridge's operations.
func (g *Guarded) Operations() []sdk.OperationInfo {
	return g.inner.Operations()
}

// HealthCheck reports the inner health plus the breaker state.
func (g *Guarded) HealthCheck(ctx context.Context) sdk.HealthStatus {
	status := g.inner.HealthCheck(ctx)
	if status.Details == nil {
		status.Details = make(map[string]any)
	}
	status.Details["circuit_state"] = g.State()
	if g.breaker != nil && g.breaker.State() == gobreaker.StateOpen {
		status.Healthy = false
		status.Message = sdk.ErrCircuitOpen.Error()
	}
	return status
}

// Shutdown shuts down the inner bridge.
func (g *Guarded) Shutdown(ctx context.Context) error {
	return g.inner.Shutdown(ctx)
}

// State returns the breaker state, or "none" when disabled.
func (g *Guarded) State() string {
	if g.breaker == nil {
		return "none"
	}
	return g.breaker.State().String()
}
