package journal

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/kernel"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/ops"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/runtime"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
	"github.com/felixgeelhaar/astrobridge/internal/native"
	"github.com/felixgeelhaar/astrobridge/internal/native/nativetest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func openMemory(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), MemoryPath, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRecordAndListCalls(t *testing.T) {
	j := openMemory(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	j.RecordCall(ctx, runtime.CallRecord{
		ID: "a", Operation: "state-vector-by-code", Arity: 5,
		Status: sdk.StatusSuccess, Duration: 1500 * time.Microsecond, At: base,
	})
	j.RecordCall(ctx, runtime.CallRecord{
		ID: "b", Operation: "name-to-code", Arity: 1,
		Status: sdk.StatusFailure, Kind: sdk.KindNotFound, Message: "body not found", At: base.Add(time.Second),
	})
	j.RecordCall(ctx, runtime.CallRecord{
		ID: "c", Operation: "state-vector-by-code", Arity: 5,
		Status: sdk.StatusSuccess, Cached: true, At: base.Add(2 * time.Second),
	})

	calls, err := j.RecentCalls(ctx, 10)
	require.NoError(t, err)
	require.Len(t, calls, 3)
	assert.Equal(t, "c", calls[0].ID)
	assert.True(t, calls[0].Cached)
	assert.Equal(t, sdk.KindNotFound, calls[1].Kind)
	assert.Equal(t, "body not found", calls[1].Message)
	assert.Equal(t, 1500*time.Microsecond, calls[2].Duration)
	assert.True(t, base.Equal(calls[2].At))

	limited, err := j.RecentCalls(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	counts, err := j.OutcomeCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"ok": 2, "not_found": 1}, counts)
}

func TestRecordLoads(t *testing.T) {
	j := openMemory(t)

	j.RecordLoad(kernel.LoadEvent{
		Paths: []string{"a.tls", "b.bsp"}, Status: kernel.StatusReady,
		Duration: time.Millisecond, Fingerprint: "abc",
	})
	j.RecordLoad(kernel.LoadEvent{
		Paths: []string{"missing.bsp"}, Status: kernel.StatusFailed, Err: errors.New("kernel 0: load failed"),
	})

	loads, err := j.RecentLoads(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, loads, 2)
	assert.Equal(t, kernel.StatusFailed, loads[0].Status)
	assert.Equal(t, "kernel 0: load failed", loads[0].Error)
	assert.Equal(t, []string{"a.tls", "b.bsp"}, loads[1].Paths)
	assert.Equal(t, "abc", loads[1].Fingerprint)
	assert.Equal(t, time.Millisecond, loads[1].Duration)
}

func TestJournalWiredToExecutor(t *testing.T) {
	j := openMemory(t)
	logger := testLogger()

	stub := nativetest.New()
	table, err := ops.NewTable(logger)
	require.NoError(t, err)
	gate := native.NewGate(stub)
	kernels := kernel.NewRegistry(gate, logger)
	kernels.OnLoad(j.RecordLoad)
	e := runtime.NewExecutor(table, gate, kernels, logger, runtime.WithRecorder(j))

	ctx := context.Background()
	require.NoError(t, e.Initialize(ctx, []term.Term{term.Binary("leapseconds.tls")}))
	e.Call(ctx, "name-to-code", []term.Term{term.Binary("EARTH")})
	e.Call(ctx, "name-to-code", []term.Term{term.Int(3)})

	calls, err := j.RecentCalls(ctx, 10)
	require.NoError(t, err)
	require.Len(t, calls, 2)
	for _, c := range calls {
		assert.NotEmpty(t, c.ID)
		assert.Equal(t, "name-to-code", c.Operation)
	}
	counts, err := j.OutcomeCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["ok"])
	assert.Equal(t, 1, counts["decode"])

	loads, err := j.RecentLoads(ctx, 5)
	require.NoError(t, err)
	require.Len(t, loads, 1)
	assert.Equal(t, kernel.StatusReady, loads[0].Status)
}

func TestJournalFailuresAreSwallowed(t *testing.T) {
	j, err := Open(context.Background(), MemoryPath, testLogger())
	require.NoError(t, err)
	require.NoError(t, j.Close())

	assert.NotPanics(t, func() {
		j.RecordCall(context.Background(), runtime.CallRecord{ID: "x", Operation: "op", At: time.Now()})
		j.RecordLoad(kernel.LoadEvent{Status: kernel.StatusReady})
	})
	assert.Error(t, j.Ping(context.Background()))
}

func TestOpenFileJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	ctx := context.Background()

	j, err := Open(ctx, path, testLogger())
	require.NoError(t, err)
	j.RecordCall(ctx, runtime.CallRecord{ID: "a", Operation: "op", Status: sdk.StatusSuccess, At: time.Now()})
	require.NoError(t, j.Close())

	reopened, err := Open(ctx, path, testLogger())
	require.NoError(t, err)
	defer reopened.Close()
	calls, err := reopened.RecentCalls(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, calls, 1)
}
