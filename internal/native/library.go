// Package native defines the contract of the astrodynamics native library and
// the gate that serializes access to it.
//
// Routines never return Go errors. A failing routine sets the process-wide
// error state, after which its outputs are undefined and, in RETURN mode, every
// routine returns immediately until Reset is called.
package native

// MaxMessageLength is the maximum length of a long error message.
const MaxMessageLength = 1840

// Message selectors accepted by GetMsg.
const (
	MsgShort   = "SHORT"
	MsgLong    = "LONG"
	MsgExplain = "EXPLAIN"
)

// ErrorState is the process-wide error flag and diagnostic message.
type ErrorState interface {
	// Failed reports whether an error has been signalled since the last Reset.
	Failed() bool

	// GetMsg returns the selected message truncated to maxLen characters.
	GetMsg(option string, maxLen int) string

	// Reset clears the flag and the messages.
	Reset()
}

// KernelPool loads kernel files into process-wide state.
type KernelPool interface {
	Furnsh(path string)
}

// Ephemeris computes state vectors from loaded ephemeris data.
type Ephemeris interface {
	Spkezr(target string, et float64, ref, abcorr, observer string) (state [6]float64, lt float64)
	Spkez(target int32, et float64, ref, abcorr string, observer int32) (state [6]float64, lt float64)
	Spkgeo(target int32, et float64, ref string, observer int32) (state [6]float64, lt float64)
	Spkobj(file string, capacity int) []int32
}

// Conics converts between state vectors and two-body conic elements.
type Conics interface {
	Oscelt(state [6]float64, et, mu float64) [8]float64
	Conics(elts [8]float64, et float64) [6]float64
}

// Bodies translates body names and codes and reads body constants.
type Bodies interface {
	Bodc2n(code int32, lenout int) (name string, found bool)
	Bodn2c(name string) (code int32, found bool)
	Bodvcd(code int32, item string, maxn int) []float64
	Bodvrd(name, item string, maxn int) []float64
}

// TimeSystems converts time strings and between uniform time scales.
type TimeSystems interface {
	J2000() float64
	Spd() float64
	Str2et(s string) float64
	Utc2et(s string) float64
	Unitim(epoch float64, insys, outsys string) float64
}

// Erfa holds the two-part Julian date time-scale routines.
type Erfa interface {
	Dtf2d(scale string, iy, im, id, ihr, imn int32, sec float64) (d1, d2 float64)
	Utctai(utc1, utc2 float64) (tai1, tai2 float64)
	Taiutc(tai1, tai2 float64) (utc1, utc2 float64)
	Taitt(tai1, tai2 float64) (tt1, tt2 float64)
	Tttai(tt1, tt2 float64) (tai1, tai2 float64)
	Tttcg(tt1, tt2 float64) (tcg1, tcg2 float64)
	Tcgtt(tcg1, tcg2 float64) (tt1, tt2 float64)
	Tttdb(tt1, tt2, dtr float64) (tdb1, tdb2 float64)
	Tdbtt(tdb1, tdb2, dtr float64) (tt1, tt2 float64)
	Tdbtcb(tdb1, tdb2 float64) (tcb1, tcb2 float64)
	Tcbtdb(tcb1, tcb2 float64) (tdb1, tdb2 float64)
	Jd2cal(dj1, dj2 float64) (iy, im, id int32, fd float64)
	D2tf(ndp int32, days float64) (sign byte, ihmsf [4]int32)
}

// Library is the complete native library.
type Library interface {
	ErrorState
	KernelPool
	Ephemeris
	Conics
	Bodies
	TimeSystems
	Erfa
}
