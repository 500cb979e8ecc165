package emulated

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sunElts   = [8]float64{7.0e5, 0, 0, 0, 0, 0, 0, 1.0e2}
	earthElts = [8]float64{1.471e8, 0.0167, 0, 0, 1.796, 0, 0, 1.32712440018e11}
	moonElts  = [8]float64{3.633e5, 0.0549, 0.0898, 2.18, 5.55, 0, 0, 4.9028e3}
)

func loadEphemeris(t *testing.T) (*Library, string) {
	t.Helper()
	lib := fresh(t)
	path := writeKernel(t, "conic.tsp", conicKernel)
	lib.Furnsh(path)
	requireOK(t, lib)
	return lib, path
}

func TestSpkgeo(t *testing.T) {
	lib, _ := loadEphemeris(t)

	state, lt := lib.Spkgeo(399, 0, "J2000", 10)
	requireOK(t, lib)

	want := conics(earthElts, 0)
	assertStateInDelta(t, want, state, 1e-3)
	r, _ := splitState(state)
	assert.InDelta(t, r.norm()/speedOfLight, lt, 1e-9)
	assert.InDelta(t, 1.471e8*math.Cos(1.796), state[0], 1.0)
}

func TestSpkezChainsThroughCenters(t *testing.T) {
	lib, _ := loadEphemeris(t)

	et := 3600.0
	state, _ := lib.Spkez(399, et, "J2000", "NONE", 0)
	requireOK(t, lib)

	earth := conics(earthElts, et)
	sun := conics(sunElts, et)
	for i := range 6 {
		assert.InDelta(t, earth[i]+sun[i], state[i], 1e-3)
	}

	inverse, _ := lib.Spkez(0, et, "J2000", "NONE", 399)
	for i := range 6 {
		assert.InDelta(t, -state[i], inverse[i], 1e-3)
	}
}

func TestSpkezCommonCenter(t *testing.T) {
	lib, _ := loadEphemeris(t)

	moonEarth, _ := lib.Spkgeo(301, 0, "ECLIPJ2000", 399)
	requireOK(t, lib)
	assertStateInDelta(t, conics(moonElts, 0), moonEarth, 1e-6)

	moonJ2000, _ := lib.Spkgeo(301, 0, "J2000", 399)
	requireOK(t, lib)
	r, v := splitState(moonJ2000)
	back := joinState(toFrame("ECLIPJ2000", r), toFrame("ECLIPJ2000", v))
	assertStateInDelta(t, moonEarth, back, 1e-6)

	sunMoon, _ := lib.Spkgeo(10, 0, "J2000", 301)
	requireOK(t, lib)
	moonSun, _ := lib.Spkgeo(301, 0, "J2000", 10)
	for i := range 6 {
		assert.InDelta(t, -moonSun[i], sunMoon[i], 1e-3)
	}
}

func TestSpkezSameBody(t *testing.T) {
	lib, _ := loadEphemeris(t)

	state, lt := lib.Spkez(399, 0, "J2000", "LT+S", 399)
	requireOK(t, lib)
	assert.Equal(t, [6]float64{}, state)
	assert.Equal(t, 0.0, lt)
}

func TestSpkezAberrationCorrections(t *testing.T) {
	lib, _ := loadEphemeris(t)

	geo, geoLT := lib.Spkez(399, 0, "J2000", "NONE", 10)
	requireOK(t, lib)

	for _, abcorr := range []string{"LT", "LT+S", "CN", "CN+S", "XLT", "XLT+S", "XCN", "XCN+S", " lt + s "} {
		t.Run(abcorr, func(t *testing.T) {
			state, lt := lib.Spkez(399, 0, "J2000", abcorr, 10)
			requireOK(t, lib)
			assert.InDelta(t, geoLT, lt, 1.0)
			assert.NotEqual(t, geo, state)

			r, _ := splitState(state)
			g, _ := splitState(geo)
			assert.InDelta(t, g.norm(), r.norm(), 30*1000.0)
		})
	}

	cn, cnLT := lib.Spkez(399, 0, "J2000", "CN", 10)
	lt, ltLT := lib.Spkez(399, 0, "J2000", "LT", 10)
	requireOK(t, lib)
	assert.InDelta(t, ltLT, cnLT, 1e-3)
	assertStateInDelta(t, lt, cn, 10)
}

func TestSpkezr(t *testing.T) {
	lib, _ := loadEphemeris(t)

	byName, ltName := lib.Spkezr("earth", 0, "J2000", "NONE", "Sun")
	requireOK(t, lib)
	byCode, ltCode := lib.Spkez(399, 0, "J2000", "NONE", 10)
	requireOK(t, lib)
	assert.Equal(t, byCode, byName)
	assert.Equal(t, ltCode, ltName)

	numeric, _ := lib.Spkezr("399", 0, "J2000", "NONE", "10")
	requireOK(t, lib)
	assert.Equal(t, byCode, numeric)
}

func TestEphemerisErrors(t *testing.T) {
	t.Run("no files loaded", func(t *testing.T) {
		lib := fresh(t)
		lib.Spkez(399, 0, "J2000", "NONE", 10)
		requireFailure(t, lib, "SPICE(NOLOADEDFILES)")
	})

	lib, _ := loadEphemeris(t)
	tests := []struct {
		name  string
		call  func()
		short string
	}{
		{"unknown target name", func() { lib.Spkezr("NOT A BODY", 0, "J2000", "NONE", "EARTH") }, "SPICE(IDCODENOTFOUND)"},
		{"unknown observer name", func() { lib.Spkezr("EARTH", 0, "J2000", "NONE", "NOT A BODY") }, "SPICE(IDCODENOTFOUND)"},
		{"bad aberration correction", func() { lib.Spkez(399, 0, "J2000", "FOO", 10) }, "SPICE(INVALIDOPTION)"},
		{"unknown frame", func() { lib.Spkez(399, 0, "IAU_EARTH", "NONE", 10) }, "SPICE(UNKNOWNFRAME)"},
		{"no data for target", func() { lib.Spkez(499, 0, "J2000", "NONE", 10) }, "SPICE(SPKINSUFFDATA)"},
		{"no data for observer", func() { lib.Spkgeo(399, 0, "J2000", 499) }, "SPICE(SPKINSUFFDATA)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.call()
			requireFailure(t, lib, tt.short)
		})
	}
}

func TestSpkobj(t *testing.T) {
	lib, path := loadEphemeris(t)

	codes := lib.Spkobj(path, 10)
	requireOK(t, lib)
	assert.Equal(t, []int32{10, 301, 399}, codes)

	lib.Spkobj(path, 2)
	requireFailure(t, lib, "SPICE(CELLTOOSMALL)")

	lib.Spkobj(writeKernel(t, "naif.tls", leapsecondsKernel), 10)
	requireFailure(t, lib, "SPICE(INVALIDFILETYPE)")

	lib.Spkobj(path+".missing", 10)
	requireFailure(t, lib, "SPICE(NOSUCHFILE)")
}

func TestSpkobjDoesNotNeedLoading(t *testing.T) {
	lib := fresh(t)
	path := writeKernel(t, "conic.tsp", conicKernel)

	codes := lib.Spkobj(path, 10)
	requireOK(t, lib)
	require.Len(t, codes, 3)
	assert.Empty(t, Loaded())
}

func TestLaterFilesTakePrecedence(t *testing.T) {
	lib, _ := loadEphemeris(t)

	lib.Furnsh(writeKernel(t, "override.tsp", `KPL/SPK
\begindata
SPK_CONIC_399_CENTER = 10
SPK_CONIC_399_ELTS   = ( 2.0D8  0.0  0.0  0.0  0.0  0.0  0.0  1.32712440018D11 )
`))
	requireOK(t, lib)

	state, _ := lib.Spkgeo(399, 0, "J2000", 10)
	requireOK(t, lib)
	assert.InDelta(t, 2.0e8, state[0], 1e-3)
}

func TestInvalidConicKernel(t *testing.T) {
	lib := fresh(t)
	lib.Furnsh(writeKernel(t, "bad.tsp", "KPL/SPK\n\\begindata\nSPK_CONIC_399_ELTS = ( 1 2 3 )\n"))
	requireFailure(t, lib, "SPICE(INVALIDFORMAT)")
}
