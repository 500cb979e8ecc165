package runtime

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
)

// Exporter publishes call metrics to Prometheus.
type Exporter struct {
	registry    *prometheus.Registry
	calls       *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	cacheHits   *prometheus.CounterVec
	staleErrors prometheus.Counter
	breaker     *prometheus.GaugeVec
}

// NewExporter creates an exporter with its own registry.
func NewExporter() (*Exporter, error) {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "astro",
			Subsystem: "bridge",
			Name:      "calls_total",
			Help:      "Total number of bridge calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "astro",
			Subsystem: "bridge",
			Name:      "call_duration_seconds",
			Help:      "Bridge call duration in seconds",
			Buckets:   []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"operation"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "astro",
			Subsystem: "bridge",
			Name:      "cache_hits_total",
			Help:      "Calls answered from the result cache",
		}, []string{"operation"}),
		staleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "astro",
			Subsystem: "bridge",
			Name:      "stale_errors_total",
			Help:      "Native error states found set on entry to a call",
		}),
		breaker: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "astro",
			Subsystem: "bridge",
			Name:      "circuit_state",
			Help:      "Circuit breaker state, 1 for the current state",
		}, []string{"state"}),
	}

	for _, c := range []prometheus.Collector{e.calls, e.duration, e.cacheHits, e.staleErrors, e.breaker} {
		if err := e.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Registry returns the underlying registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler serves the metrics in the Prometheus text format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

func (e *Exporter) observeCall(operation string, kind sdk.ErrorKind, cached bool, d time.Duration) {
	outcome := "ok"
	if kind != sdk.KindNone {
		outcome = string(kind)
	}
	e.calls.WithLabelValues(operation, outcome).Inc()
	e.duration.WithLabelValues(operation).Observe(d.Seconds())
	if cached {
		e.cacheHits.WithLabelValues(operation).Inc()
	}
}

func (e *Exporter) setBreaker(state string) {
	for _, s := range []string{"closed", "half-open", "open"} {
		v := 0.0
		if s == state {
			v = 1
		}
		e.breaker.WithLabelValues(s).Set(v)
	}
}
