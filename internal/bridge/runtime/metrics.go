package runtime

import (
	"sync"
	"time"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
)

// MetricsCollector collects per-operation call metrics.
type MetricsCollector struct {
	mu          sync.RWMutex
	operations  map[string]*OperationMetrics
	staleErrors int64
	breaker     string
	openCount   int64
	exporter    *Exporter
}

// OperationMetrics contains metrics for a single operation.
type OperationMetrics struct {
	// Operation is the operation name.
	Operation string `json:"operation"`

	// TotalCalls is the total number of calls.
	TotalCalls int64 `json:"total_calls"`

	// SuccessfulCalls is the number of successful calls.
	SuccessfulCalls int64 `json:"successful_calls"`

	// FailedCalls is the number of failed calls.
	FailedCalls int64 `json:"failed_calls"`

	// CachedCalls is the number of calls answered from the result cache.
	CachedCalls int64 `json:"cached_calls"`

	// Failures counts failed calls by error kind.
	Failures map[sdk.ErrorKind]int64 `json:"failures,omitempty"`

	TotalDuration   time.Duration `json:"total_duration"`
	AverageDuration time.Duration `json:"average_duration"`
	MinDuration     time.Duration `json:"min_duration"`
	MaxDuration     time.Duration `json:"max_duration"`

	// LastCallAt is the timestamp of the last call.
	LastCallAt time.Time `json:"last_call_at"`

	// LastError is the last failure message, if any.
	LastError string `json:"last_error,omitempty"`
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		operations: make(map[string]*OperationMetrics),
	}
}

// WithExporter mirrors every recording to a Prometheus exporter.
func (m *MetricsCollector) WithExporter(e *Exporter) *MetricsCollector {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exporter = e
	return m
}

// RecordCall records one finished call.
func (m *MetricsCollector) RecordCall(operation string, duration time.Duration, cached bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	om := m.getOrCreate(operation)
	om.TotalCalls++
	om.TotalDuration += duration
	om.LastCallAt = time.Now()
	if cached {
		om.CachedCalls++
	}

	kind := sdk.KindOf(err)
	if err != nil {
		om.FailedCalls++
		om.Failures[kind]++
		om.LastError = err.Error()
	} else {
		om.SuccessfulCalls++
	}

	if om.TotalCalls == 1 {
		om.MinDuration = duration
		om.MaxDuration = duration
	} else {
		om.MinDuration = min(om.MinDuration, duration)
		om.MaxDuration = max(om.MaxDuration, duration)
	}
	om.AverageDuration = om.TotalDuration / time.Duration(om.TotalCalls)

	if m.exporter != nil {
		m.exporter.observeCall(operation, kind, cached, duration)
	}
}

// RecordStaleError records an error state found set on entry to a call.
func (m *MetricsCollector) RecordStaleError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staleErrors++
	if m.exporter != nil {
		m.exporter.staleErrors.Inc()
	}
}

// RecordCircuitBreakerChange records a circuit breaker state change.
func (m *MetricsCollector) RecordCircuitBreakerChange(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.breaker = state
	if state == "open" {
		m.openCount++
	}
	if m.exporter != nil {
		m.exporter.setBreaker(state)
	}
}

// Get returns metrics for one operation, or nil.
func (m *MetricsCollector) Get(operation string) *OperationMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if om, ok := m.operations[operation]; ok {
		return copyMetrics(om)
	}
	return nil
}

// GetAll returns metrics for every operation called so far.
func (m *MetricsCollector) GetAll() map[string]OperationMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]OperationMetrics, len(m.operations))
	for name, om := range m.operations {
		out[name] = *copyMetrics(om)
	}
	return out
}

// Reset clears all metrics.
func (m *MetricsCollector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations = make(map[string]*OperationMetrics)
	m.staleErrors = 0
	m.openCount = 0
}

func (m *MetricsCollector) getOrCreate(operation string) *OperationMetrics {
	if om, ok := m.operations[operation]; ok {
		return om
	}
	om := &OperationMetrics{
		Operation: operation,
		Failures:  make(map[sdk.ErrorKind]int64),
	}
	m.operations[operation] = om
	return om
}

func copyMetrics(om *OperationMetrics) *OperationMetrics {
	c := *om
	c.Failures = make(map[sdk.ErrorKind]int64, len(om.Failures))
	for k, v := range om.Failures {
		c.Failures[k] = v
	}
	return &c
}

// Snapshot contains a point-in-time view of all metrics.
type Snapshot struct {
	Timestamp  time.Time                   `json:"timestamp"`
	Operations map[string]OperationMetrics `json:"operations"`
	Summary    SnapshotSummary             `json:"summary"`
}

// SnapshotSummary contains aggregated statistics.
type SnapshotSummary struct {
	TotalCalls       int64   `json:"total_calls"`
	TotalSuccessful  int64   `json:"total_successful"`
	TotalFailed      int64   `json:"total_failed"`
	TotalCached      int64   `json:"total_cached"`
	SuccessRate      float64 `json:"success_rate"`
	StaleErrors      int64   `json:"stale_errors"`
	CircuitState     string  `json:"circuit_state,omitempty"`
	CircuitOpenCount int64   `json:"circuit_open_count"`
}

// TakeSnapshot returns a snapshot of the current metrics.
func (m *MetricsCollector) TakeSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		Timestamp:  time.Now(),
		Operations: make(map[string]OperationMetrics, len(m.operations)),
		Summary: SnapshotSummary{
			StaleErrors:      m.staleErrors,
			CircuitState:     m.breaker,
			CircuitOpenCount: m.openCount,
		},
	}
	for name, om := range m.operations {
		snap.Operations[name] = *copyMetrics(om)
		snap.Summary.TotalCalls += om.TotalCalls
		snap.Summary.TotalSuccessful += om.SuccessfulCalls
		snap.Summary.TotalFailed += om.FailedCalls
		snap.Summary.TotalCached += om.CachedCalls
	}
	if snap.Summary.TotalCalls > 0 {
		snap.Summary.SuccessRate = float64(snap.Summary.TotalSuccessful) / float64(snap.Summary.TotalCalls)
	}
	return snap
}
