package emulated

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCal2jd(t *testing.T) {
	djm, status := cal2jd(2003, 6, 1)
	assert.Equal(t, 0, status)
	assert.Equal(t, 52791.0, djm)

	_, status = cal2jd(2003, 13, 1)
	assert.Equal(t, -2, status)
	_, status = cal2jd(2003, 2, 29)
	assert.Equal(t, -3, status)
	_, status = cal2jd(-5000, 1, 1)
	assert.Equal(t, -1, status)
}

func TestJd2cal(t *testing.T) {
	lib := fresh(t)

	iy, im, id, fd := lib.Jd2cal(2400000.5, 50123.9999)
	requireOK(t, lib)
	assert.Equal(t, int32(1996), iy)
	assert.Equal(t, int32(2), im)
	assert.Equal(t, int32(10), id)
	assert.InDelta(t, 0.9999, fd, 1e-7)

	lib.Jd2cal(-1e7, 0)
	requireFailure(t, lib, "ERFA(BADDATE)")
}

func TestD2tf(t *testing.T) {
	lib := fresh(t)

	sign, ihmsf := lib.D2tf(4, -0.987654321)
	assert.Equal(t, byte('-'), sign)
	assert.Equal(t, [4]int32{23, 42, 13, 3333}, ihmsf)

	sign, ihmsf = lib.D2tf(0, 0.5)
	assert.Equal(t, byte('+'), sign)
	assert.Equal(t, [4]int32{12, 0, 0, 0}, ihmsf)
}

func TestDtf2d(t *testing.T) {
	lib := fresh(t)

	t.Run("leap second day", func(t *testing.T) {
		d1, d2 := lib.Dtf2d("UTC", 1994, 6, 30, 23, 59, 60.13599)
		requireOK(t, lib)
		assert.InDelta(t, 2449534.49999, d1+d2, 1e-6)
	})

	t.Run("uniform scale", func(t *testing.T) {
		d1, d2 := lib.Dtf2d("TT", 2000, 1, 1, 12, 0, 0)
		requireOK(t, lib)
		assert.Equal(t, 2451544.5, d1)
		assert.Equal(t, 0.5, d2)
	})

	failures := []struct {
		name   string
		fields [6]int32
		sec    float64
		short  string
	}{
		{"bad month", [6]int32{2000, 13, 1, 0, 0}, 0, "ERFA(BADMONTH)"},
		{"bad day", [6]int32{2001, 2, 29, 0, 0}, 0, "ERFA(BADDAY)"},
		{"bad hour", [6]int32{2000, 1, 1, 24, 0}, 0, "ERFA(BADHOUR)"},
		{"bad minute", [6]int32{2000, 1, 1, 0, 60}, 0, "ERFA(BADMINUTE)"},
		{"negative second", [6]int32{2000, 1, 1, 0, 0}, -1, "ERFA(BADSECOND)"},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.fields
			lib.Dtf2d("UTC", f[0], f[1], f[2], f[3], f[4], tt.sec)
			requireFailure(t, lib, tt.short)
		})
	}
}

func TestTimeScales(t *testing.T) {
	lib := fresh(t)

	tests := []struct {
		name    string
		convert func(a, b float64) (float64, float64)
		in1     float64
		in2     float64
		want2   float64
		delta   float64
	}{
		{"utc to tai", lib.Utctai, 2453750.5, 0.892100694, 0.8924826384444444444, 1e-12},
		{"tai to utc", lib.Taiutc, 2453750.5, 0.892482639, 0.8921006945555555556, 1e-12},
		{"tai to tt", lib.Taitt, 2453750.5, 0.892482639, 0.892855139, 1e-12},
		{"tt to tai", lib.Tttai, 2453750.5, 0.892482639, 0.892110139, 1e-12},
		{"tt to tcg", lib.Tttcg, 2453750.5, 0.892482639, 0.8924900312508587113, 1e-12},
		{"tcg to tt", lib.Tcgtt, 2453750.5, 0.892862531, 0.8928551387488816828, 1e-12},
		{"tdb to tcb", lib.Tdbtcb, 2453750.5, 0.892855137, 0.8930195997253656716, 1e-12},
		{"tcb to tdb", lib.Tcbtdb, 2453750.5, 0.893019599, 0.8928551362746343397, 1e-12},
		{"tt to tdb", func(a, b float64) (float64, float64) { return lib.Tttdb(a, b, -0.000201) }, 2453750.5, 0.892855139, 0.8928551366736111111, 1e-12},
		{"tdb to tt", func(a, b float64) (float64, float64) { return lib.Tdbtt(a, b, -0.000201) }, 2453750.5, 0.892855137, 0.8928551393263888889, 1e-12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o1, o2 := tt.convert(tt.in1, tt.in2)
			requireOK(t, lib)
			assert.InDelta(t, tt.in1, o1, 1e-6)
			assert.InDelta(t, tt.want2, o2, tt.delta)
		})
	}
}

func TestTimeScalesPreserveSplitOrder(t *testing.T) {
	lib := fresh(t)

	a1, a2 := lib.Taitt(0.5, 2451544.5)
	assert.Equal(t, 2451544.5, a2)
	assert.InDelta(t, 0.5+32.184/86400, a1, 1e-15)
}

func TestLeapSecondTable(t *testing.T) {
	d, status := dat(1972, 1, 1, 0)
	assert.Equal(t, 0, status)
	assert.Equal(t, 10.0, d)

	d, _ = dat(2016, 12, 31, 0)
	assert.Equal(t, 36.0, d)
	d, _ = dat(2017, 1, 1, 0)
	assert.Equal(t, 37.0, d)

	d, status = dat(1950, 1, 1, 0)
	assert.Equal(t, 1, status)
	assert.Equal(t, 0.0, d)

	d, _ = dat(1965, 6, 1, 0)
	assert.Greater(t, d, 3.6401300)
}
