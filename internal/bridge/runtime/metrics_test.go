package runtime

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
)

func TestMetricsCollector(t *testing.T) {
	m := NewMetricsCollector()

	m.RecordCall("tai-to-tt", 2*time.Millisecond, false, nil)
	m.RecordCall("tai-to-tt", 4*time.Millisecond, true, nil)
	m.RecordCall("tai-to-tt", 6*time.Millisecond, false, &sdk.NativeError{Message: "boom"})

	om := m.Get("tai-to-tt")
	require.NotNil(t, om)
	assert.Equal(t, int64(3), om.TotalCalls)
	assert.Equal(t, int64(2), om.SuccessfulCalls)
	assert.Equal(t, int64(1), om.FailedCalls)
	assert.Equal(t, int64(1), om.CachedCalls)
	assert.Equal(t, int64(1), om.Failures[sdk.KindNative])
	assert.Equal(t, 2*time.Millisecond, om.MinDuration)
	assert.Equal(t, 6*time.Millisecond, om.MaxDuration)
	assert.Equal(t, 4*time.Millisecond, om.AverageDuration)
	assert.Equal(t, "boom", om.LastError)

	om.Failures[sdk.KindNative] = 99
	assert.Equal(t, int64(1), m.Get("tai-to-tt").Failures[sdk.KindNative], "Get returns a copy")

	assert.Nil(t, m.Get("other"))

	snap := m.TakeSnapshot()
	assert.Equal(t, int64(3), snap.Summary.TotalCalls)
	assert.InDelta(t, 2.0/3.0, snap.Summary.SuccessRate, 1e-9)

	m.Reset()
	assert.Empty(t, m.GetAll())
}

func TestExporter(t *testing.T) {
	exp, err := NewExporter()
	require.NoError(t, err)
	m := NewMetricsCollector().WithExporter(exp)

	m.RecordCall("name-to-code", time.Millisecond, false, nil)
	m.RecordCall("name-to-code", time.Millisecond, true, nil)
	m.RecordCall("name-to-code", time.Millisecond, false, &sdk.NotFoundError{Subject: "body"})
	m.RecordCall("name-to-code", time.Millisecond, false, errors.New("internal"))
	m.RecordStaleError()
	m.RecordCircuitBreakerChange("open")

	assert.Equal(t, 2.0, testutil.ToFloat64(exp.calls.WithLabelValues("name-to-code", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(exp.calls.WithLabelValues("name-to-code", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(exp.calls.WithLabelValues("name-to-code", "internal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(exp.cacheHits.WithLabelValues("name-to-code")))
	assert.Equal(t, 1.0, testutil.ToFloat64(exp.staleErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(exp.breaker.WithLabelValues("open")))
	assert.Equal(t, 0.0, testutil.ToFloat64(exp.breaker.WithLabelValues("closed")))

	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "astro_bridge_calls_total")
}

func TestMonitor(t *testing.T) {
	stub := newStubWithError(t)
	mon := NewMonitor(testLogger())

	err := mon.Check(stub, "state-vector-by-code")
	require.Error(t, err)
	assert.True(t, sdk.IsNative(err))
	assert.Equal(t, "SPICE(BADTIME)", sdk.ErrorCode(err))
	assert.False(t, stub.Failed())

	assert.NoError(t, mon.Check(stub, "state-vector-by-code"))
	assert.False(t, mon.ClearStale(stub, "x"))

	stub.Poison("SPICE(OLD)", "old")
	assert.True(t, mon.ClearStale(stub, "x"))
	assert.False(t, stub.Failed())
}
