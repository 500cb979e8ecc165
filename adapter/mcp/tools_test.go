package mcp

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/kernel"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/ops"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/runtime"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
	"github.com/felixgeelhaar/astrobridge/internal/native"
	"github.com/felixgeelhaar/astrobridge/internal/native/nativetest"
)

func newBridge(t *testing.T) *runtime.Executor {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	table, err := ops.NewTable(logger)
	require.NoError(t, err)
	gate := native.NewGate(nativetest.New())
	e := runtime.NewExecutor(table, gate, kernel.NewRegistry(gate, logger), logger)
	require.NoError(t, e.Initialize(context.Background(), []term.Term{term.Binary("leapseconds.tls")}))
	return e
}

func newServer() *mcp.Server {
	return mcp.NewServer(mcp.ServerInfo{
		Name:    "test",
		Version: "1.0.0",
		Capabilities: mcp.Capabilities{
			Tools:     true,
			Resources: true,
		},
	})
}

func TestRegisterTools_ListTools(t *testing.T) {
	srv := newServer()
	bridge := newBridge(t)
	require.NoError(t, RegisterTools(srv, ToolDependencies{Bridge: bridge}))

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)

	names := make(map[any]bool, len(tools))
	for _, tool := range tools {
		names[tool["name"]] = true
	}
	for _, want := range []string{"astro.code-to-name", "astro.state-vector-by-name", "astro.operations", "astro.health", "astro.history"} {
		assert.True(t, names[want], "%s should be registered", want)
	}
	assert.Len(t, tools, len(bridge.Operations())+3)
}

func TestRegisterTools_Validation(t *testing.T) {
	assert.EqualError(t, RegisterTools(nil, ToolDependencies{}), "server is required")
	assert.EqualError(t, RegisterTools(newServer(), ToolDependencies{}), "bridge is required")
	assert.Error(t, RegisterResources(nil, ToolDependencies{}))
}

func TestCallOperation(t *testing.T) {
	bridge := newBridge(t)
	ctx := context.Background()

	out, err := callOperation(ctx, bridge, "code-to-name", callInput{Args: []any{float64(399)}})
	require.NoError(t, err)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, []any{"EARTH"}, out["payload"])
	assert.Equal(t, `{ok, "EARTH"}`, out["term"])

	out, err = callOperation(ctx, bridge, "state-vector-geometric", callInput{Args: []any{399, 0.5, "J2000", 10}})
	require.NoError(t, err)
	assert.Equal(t, "ok", out["status"])
	require.Len(t, out["payload"], 2)
	assert.Equal(t, 0.5, out["payload"].([]any)[1])

	out, err = callOperation(ctx, bridge, "code-to-name", callInput{Args: []any{"EARTH"}})
	require.NoError(t, err)
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, "decode", out["kind"])

	out, err = callOperation(ctx, bridge, "no-such-op", callInput{})
	require.NoError(t, err)
	assert.Equal(t, "unknown_operation", out["kind"])

	_, err = callOperation(ctx, bridge, "code-to-name", callInput{Args: []any{nil}})
	assert.Error(t, err)
}

func TestDescribeOperation(t *testing.T) {
	bridge := newBridge(t)
	for _, info := range bridge.Operations() {
		if info.Name != "code-to-name" {
			continue
		}
		desc := describeOperation(info)
		assert.Contains(t, desc, "bodc2n")
		assert.Contains(t, desc, "code (integer)")
	}
}
