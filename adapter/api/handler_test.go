package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/kernel"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/ops"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/runtime"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
	"github.com/felixgeelhaar/astrobridge/internal/native"
	"github.com/felixgeelhaar/astrobridge/internal/native/nativetest"
	"github.com/felixgeelhaar/astrobridge/pkg/observability"
)

func newTestServer(t *testing.T, load bool) (*Server, *nativetest.Stub) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	exporter, err := runtime.NewExporter()
	require.NoError(t, err)
	metrics := runtime.NewMetricsCollector().WithExporter(exporter)

	stub := nativetest.New()
	table, err := ops.NewTable(logger)
	require.NoError(t, err)
	gate := native.NewGate(stub)
	exec := runtime.NewExecutor(table, gate, kernel.NewRegistry(gate, logger), logger, runtime.WithMetrics(metrics))
	if load {
		require.NoError(t, exec.Initialize(context.Background(), []term.Term{term.Binary("leapseconds.tls")}))
	}

	health := observability.NewHealthRegistry()
	health.Register("bridge", observability.ReportHealthChecker(func(ctx context.Context) (bool, string, map[string]any) {
		s := exec.HealthCheck(ctx)
		return s.Healthy, s.Message, s.Details
	}))

	srv := NewServer(DefaultServerConfig(), NewBridgeHandler(exec, logger), exporter.Handler(), health.Handler(), logger)
	return srv, stub
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func decodeCall(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCall(t *testing.T) {
	srv, stub := newTestServer(t, true)

	t.Run("success", func(t *testing.T) {
		rec := do(t, srv, http.MethodPost, "/api/v1/calls/state-vector-by-code",
			`{"args": [399, 0.0, "J2000", "NONE", 10]}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		out := decodeCall(t, rec)
		assert.Equal(t, "ok", out["status"])
		assert.Equal(t, []any{[]any{1.0, 2.0, 3.0, 4.0, 5.0, 6.0}, 0.5}, out["payload"])
	})

	t.Run("integer slot rejects a float", func(t *testing.T) {
		rec := do(t, srv, http.MethodPost, "/api/v1/calls/code-to-name", `{"args": [399.0]}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		out := decodeCall(t, rec)
		assert.Equal(t, "error", out["status"])
		assert.Equal(t, "decode", out["kind"])
	})

	t.Run("native failure", func(t *testing.T) {
		stub.FailOn("spkgeo", nativetest.Failure{Short: "SPICE(SPKINSUFFDATA)", Long: "Insufficient ephemeris data."})
		defer stub.Clear("spkgeo")

		rec := do(t, srv, http.MethodPost, "/api/v1/calls/spkgeo", `{"args": [499, 0.0, "J2000", 10]}`)
		out := decodeCall(t, rec)
		assert.Equal(t, "native", out["kind"])
		assert.Equal(t, "SPICE(SPKINSUFFDATA)", out["code"])
		assert.Contains(t, out["message"], "Insufficient ephemeris data.")
	})

	t.Run("unknown operation", func(t *testing.T) {
		rec := do(t, srv, http.MethodPost, "/api/v1/calls/nope", "")
		out := decodeCall(t, rec)
		assert.Equal(t, string(sdk.KindUnknown), out["kind"])
	})

	t.Run("bad body", func(t *testing.T) {
		rec := do(t, srv, http.MethodPost, "/api/v1/calls/code-to-name", `{"args": `)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = do(t, srv, http.MethodPost, "/api/v1/calls/code-to-name", `{"args": [null]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "argument 0")
	})

	t.Run("method not allowed", func(t *testing.T) {
		rec := do(t, srv, http.MethodGet, "/api/v1/calls/code-to-name", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestListOperations(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := do(t, srv, http.MethodGet, "/api/v1/operations", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Operations []sdk.OperationInfo `json:"operations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.NotEmpty(t, out.Operations)
}

func TestKernelsAndHealth(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := do(t, srv, http.MethodGet, "/api/v1/kernels", "")
	out := decodeCall(t, rec)
	assert.Equal(t, "unloaded", out["status"])
	assert.Equal(t, false, out["ready"])

	rec = do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetrics(t *testing.T) {
	srv, _ := newTestServer(t, true)
	do(t, srv, http.MethodPost, "/api/v1/calls/seconds-to-day", `{"args": [86400]}`)

	rec := do(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `astro_bridge_calls_total{operation="seconds-to-day",outcome="ok"} 1`)
}
