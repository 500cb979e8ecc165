package ops

import (
	"log/slog"
	"os"
	"testing"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/decode"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/registry"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
	"github.com/felixgeelhaar/astrobridge/internal/native"
	"github.com/felixgeelhaar/astrobridge/internal/native/emulated"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kernelDir = "../../../testdata/kernels/"

type outcome struct {
	payload  []term.Term
	short    string
	notFound bool
}

// harness runs operations against the emulated library the way the
// executor does, without the gate.
type harness struct {
	t     *testing.T
	table *registry.Table
	lib   native.Library
}

func newHarness(t *testing.T, kernels ...string) *harness {
	t.Helper()
	emulated.Kclear()
	lib := emulated.New()
	lib.Reset()
	t.Cleanup(func() {
		emulated.Kclear()
		lib.Reset()
	})

	table, err := NewTable(slog.New(slog.NewTextHandler(os.Stdout, nil)))
	require.NoError(t, err)

	for _, k := range kernels {
		lib.Furnsh(kernelDir + k)
		require.False(t, lib.Failed(), lib.GetMsg(native.MsgLong, native.MaxMessageLength))
	}
	return &harness{t: t, table: table, lib: lib}
}

func (h *harness) call(name string, args ...term.Term) outcome {
	h.t.Helper()
	op, ok := h.table.Lookup(name, len(args))
	require.True(h.t, ok, "operation %s/%d", name, len(args))

	decoded, err := decode.Decode(op.Name, op.Params, args)
	require.NoError(h.t, err)
	defer decoded.Release()

	var frame registry.Frame
	op.Invoke(h.lib, decoded, &frame)
	if h.lib.Failed() {
		short := h.lib.GetMsg(native.MsgShort, 64)
		h.lib.Reset()
		return outcome{short: short}
	}
	if op.Lookup != "" && !frame.Found {
		return outcome{notFound: true}
	}
	payload := op.Encode(&frame)
	require.Len(h.t, payload, op.Shape.Size())
	return outcome{payload: payload}
}

func (h *harness) float(name string, args ...term.Term) float64 {
	h.t.Helper()
	out := h.call(name, args...)
	require.Empty(h.t, out.short)
	f, ok := out.payload[0].Float()
	require.True(h.t, ok)
	return f
}

func TestCatalogue(t *testing.T) {
	table, err := NewTable(nil)
	require.NoError(t, err)
	assert.True(t, table.Frozen())

	want := map[string]int{
		"state-vector-by-name":   5,
		"state-vector-by-code":   5,
		"state-vector-geometric": 4,
		"osculating-elements":    3,
		"state-from-elements":    2,
		"code-to-name":           1,
		"name-to-code":           1,
		"objects-in-file":        1,
		"body-constant-by-code":  2,
		"body-constant-by-name":  2,
		"calendar-to-epoch":      6,
		"epoch-to-calendar":      1,
		"utc-to-tai":             1,
		"tai-to-utc":             1,
		"tai-to-tt":              1,
		"tt-to-tai":              1,
		"tt-to-tcg":              1,
		"tcg-to-tt":              1,
		"tt-to-tdb":              1,
		"tdb-to-tt":              1,
		"tdb-to-tcb":             1,
		"tcb-to-tdb":             1,
		"string-to-epoch":        1,
		"utc-string-to-epoch":    1,
		"convert-time-scale":     3,
		"seconds-to-day":         1,
		"day-to-seconds":         1,
	}
	assert.Equal(t, len(want), table.Len())

	for name, arity := range want {
		op, ok := table.Lookup(name, arity)
		require.True(t, ok, name)
		alias, ok := table.Lookup(op.Routine, arity)
		require.True(t, ok, "alias %s", op.Routine)
		assert.Equal(t, name, alias.Name)
	}

	for _, routine := range []string{"spkezr", "spkez", "spkgeo", "oscelt", "conics", "bodc2n", "bodn2c", "spkobj", "dtf2d", "jd2dt", "tt2tdb", "unitim", "sec2day"} {
		found := false
		for _, op := range table.List() {
			if op.Routine == routine {
				found = true
			}
		}
		assert.True(t, found, routine)
	}
}

func TestStateVectors(t *testing.T) {
	h := newHarness(t, "conic.tsp")

	tests := []struct {
		name string
		args []term.Term
	}{
		{"state-vector-by-name", []term.Term{term.Binary("EARTH"), term.Float(0), term.Binary("J2000"), term.Binary("LT+S"), term.Binary("SUN")}},
		{"state-vector-by-code", []term.Term{term.Int(399), term.Int(0), term.Binary("J2000"), term.Binary("NONE"), term.Int(10)}},
		{"state-vector-geometric", []term.Term{term.Int(301), term.Float(3600), term.Binary("ECLIPJ2000"), term.Int(399)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := h.call(tt.name, tt.args...)
			require.Empty(t, out.short)
			require.Len(t, out.payload, 2)
			assert.Equal(t, 6, out.payload[0].Len())
			lt, ok := out.payload[1].Float()
			require.True(t, ok)
			assert.Greater(t, lt, 0.0)
		})
	}
}

func TestEphemerisWithoutKernels(t *testing.T) {
	h := newHarness(t)

	out := h.call("state-vector-by-code", term.Int(399), term.Float(0), term.Binary("J2000"), term.Binary("NONE"), term.Int(10))
	assert.Equal(t, "SPICE(NOLOADEDFILES)", out.short)

	assert.InDelta(t, 2451545.0+32.184/86400, h.float("tai-to-tt", term.Float(2451545.0)), 1e-9)
}

func TestErrorStateDoesNotStick(t *testing.T) {
	h := newHarness(t, "conic.tsp")

	out := h.call("state-vector-by-code", term.Int(499), term.Float(0), term.Binary("J2000"), term.Binary("NONE"), term.Int(10))
	require.Equal(t, "SPICE(SPKINSUFFDATA)", out.short)

	out = h.call("state-vector-by-code", term.Int(399), term.Float(0), term.Binary("J2000"), term.Binary("NONE"), term.Int(10))
	assert.Empty(t, out.short)
	assert.Len(t, out.payload, 2)
}

func TestElements(t *testing.T) {
	h := newHarness(t)
	state := term.Floats(-6045, -3490, 2500, -3.457, 6.618, 2.533)

	out := h.call("osculating-elements", state, term.Float(0), term.Float(398600.4418))
	require.Empty(t, out.short)
	elts, _ := out.payload[0].Elems()
	require.Len(t, elts, 8)

	out = h.call("state-from-elements", out.payload[0], term.Float(0))
	require.Empty(t, out.short)
	back, _ := out.payload[0].Elems()
	want, _ := state.Elems()
	for i := range want {
		w, _ := want[i].Number()
		g, _ := back[i].Number()
		assert.InDelta(t, w, g, 1e-6)
	}

	out = h.call("osculating-elements", state, term.Float(0), term.Float(0))
	assert.Equal(t, "SPICE(NONPOSITIVEMASS)", out.short)
}

func TestBodyLookups(t *testing.T) {
	h := newHarness(t, "bodies.tpc")

	out := h.call("name-to-code", term.Binary("EARTH"))
	require.Len(t, out.payload, 1)
	assert.True(t, term.Int(399).Equal(out.payload[0]))

	out = h.call("name-to-code", term.Binary("NOT-A-BODY"))
	assert.True(t, out.notFound)
	assert.Empty(t, out.short)

	out = h.call("code-to-name", term.Int(1234567))
	assert.True(t, out.notFound)

	for _, code := range []int64{0, 10, 301, 399, -999} {
		named := h.call("code-to-name", term.Int(code))
		require.Len(t, named.payload, 1)
		back := h.call("name-to-code", named.payload[0])
		require.Len(t, back.payload, 1)
		assert.True(t, term.Int(code).Equal(back.payload[0]), "round trip of %d", code)
	}
}

func TestBodyConstants(t *testing.T) {
	h := newHarness(t, "bodies.tpc")

	out := h.call("body-constant-by-code", term.Int(399), term.Binary("RADII"))
	require.Len(t, out.payload, 1)
	assert.True(t, term.Floats(6378.1366, 6378.1366, 6356.7519).Equal(out.payload[0]))

	out = h.call("body-constant-by-name", term.Binary("EARTH"), term.Binary("GM"))
	require.Len(t, out.payload, 1)
	assert.Equal(t, 1, out.payload[0].Len())

	out = h.call("body-constant-by-code", term.Int(399), term.Binary("J2"))
	assert.Equal(t, "SPICE(KERNELVARNOTFOUND)", out.short)
}

func TestObjectsInFile(t *testing.T) {
	h := newHarness(t)

	out := h.call("objects-in-file", term.Binary(kernelDir+"conic.tsp"))
	require.Len(t, out.payload, 1)
	assert.True(t, term.Ints(10, 301, 399).Equal(out.payload[0]))

	out = h.call("objects-in-file", term.Binary(kernelDir+"absent.bsp"))
	assert.Equal(t, "SPICE(NOSUCHFILE)", out.short)
}

func TestCalendar(t *testing.T) {
	h := newHarness(t)

	jd := h.float("calendar-to-epoch", term.Int(2000), term.Int(1), term.Int(1), term.Int(12), term.Int(0), term.Float(0))
	assert.InDelta(t, 2451545.0, jd, 1e-9)

	out := h.call("epoch-to-calendar", term.Float(2451545.25))
	require.Len(t, out.payload, 1)
	assert.True(t, term.Tuple(term.Int(2000), term.Int(1), term.Int(1), term.Int(18), term.Int(0), term.Int(0), term.Int(0)).Equal(out.payload[0]),
		out.payload[0].String())

	out = h.call("calendar-to-epoch", term.Int(2000), term.Int(13), term.Int(1), term.Int(0), term.Int(0), term.Float(0))
	assert.Equal(t, "ERFA(BADMONTH)", out.short)
}

func TestTimeScaleInverses(t *testing.T) {
	h := newHarness(t)

	pairs := []struct{ forward, inverse string }{
		{"tt-to-tai", "tai-to-tt"},
		{"utc-to-tai", "tai-to-utc"},
		{"tt-to-tcg", "tcg-to-tt"},
		{"tt-to-tdb", "tdb-to-tt"},
		{"tdb-to-tcb", "tcb-to-tdb"},
	}
	for _, jd := range []float64{2451545.0, 2453750.892, 2460000.5} {
		for _, p := range pairs {
			t.Run(p.forward, func(t *testing.T) {
				there := h.float(p.forward, term.Float(jd))
				back := h.float(p.inverse, term.Float(there))
				assert.InDelta(t, jd, back, 1e-8)
			})
		}
	}
}

func TestTimeScaleOffsets(t *testing.T) {
	h := newHarness(t)

	tai := h.float("utc-to-tai", term.Float(2457754.5))
	assert.InDelta(t, 37.0/86400, tai-2457754.5, 1e-10)

	tdb := h.float("tt-to-tdb", term.Float(2451545.0))
	assert.InDelta(t, 0, (tdb-2451545.0)*86400, 0.002)
}

func TestEpochStrings(t *testing.T) {
	h := newHarness(t, "leapseconds.tls")

	et := h.float("string-to-epoch", term.Binary("2000-01-01T12:00:00"))
	assert.InDelta(t, 64.183927284731, et, 1e-6)

	et = h.float("utc-string-to-epoch", term.Binary("2000 JAN 01 12:00:00"))
	assert.InDelta(t, 64.183927284731, et, 1e-6)

	tai := h.float("convert-time-scale", term.Float(0), term.Binary("TDT"), term.Binary("TAI"))
	assert.InDelta(t, -32.184, tai, 1e-9)

	out := h.call("convert-time-scale", term.Float(0), term.Binary("TDT"), term.Binary("GPS"))
	assert.Equal(t, "SPICE(BADTIMETYPE)", out.short)
}

func TestDaySeconds(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 2451545.5, h.float("seconds-to-day", term.Float(43200)))
	assert.Equal(t, -43200.0, h.float("day-to-seconds", term.Float(2451544.5)))
	assert.Equal(t, 86400.0, h.float("day-to-seconds", h.payloadOf("seconds-to-day", term.Int(86400))))
}

func (h *harness) payloadOf(name string, args ...term.Term) term.Term {
	h.t.Helper()
	out := h.call(name, args...)
	require.Len(h.t, out.payload, 1)
	return out.payload[0]
}

func TestPeriodicTerm(t *testing.T) {
	for _, jd := range []float64{2451545.0, 2451727.6, 2455000.0} {
		assert.LessOrEqual(t, periodicTerm(2451545.0, jd), 0.001672)
		assert.GreaterOrEqual(t, periodicTerm(2451545.0, jd), -0.001672)
	}

	// g = 357.53 degrees at J2000, taken in radians.
	assert.InDelta(t, -7.2659e-5, periodicTerm(2451545.0, 2451545.0), 1e-8)
}
