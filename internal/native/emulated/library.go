// Package emulated is a pure-Go native library. It reads text kernels
// (leapseconds, body constants, name tables, meta-kernels and conic ephemeris
// files), evaluates two-body ephemerides and implements the ERFA time scale
// routines.
//
// Like the shared libraries it stands in for, it keeps the kernel pool and the
// error state in process-wide variables and runs in RETURN mode: once an
// error is signalled every routine returns zero values until Reset.
package emulated

import (
	"strings"

	"github.com/felixgeelhaar/astrobridge/internal/native"
)

// Library implements native.Library. All values share the same process-wide
// state.
type Library struct{}

var _ native.Library = (*Library)(nil)

// New returns the emulated library.
func New() *Library {
	return &Library{}
}

// Failed reports whether a routine has signalled an error since the last Reset.
func (*Library) Failed() bool { return failed() }

// GetMsg returns the SHORT or LONG message of the pending error, cut to maxLen characters.
func (*Library) GetMsg(option string, maxLen int) string { return getMsg(option, maxLen) }

// Reset clears the pending error.
func (*Library) Reset() { reset() }

// Furnsh loads a kernel file, or every file a meta-kernel names.
func (*Library) Furnsh(path string) {
	if failed() {
		return
	}
	furnsh(path, 0)
}

// Spkezr returns the state of target relative to observer and the one-way
// light time. Bodies are given by name or numeric string.
func (*Library) Spkezr(target string, et float64, ref, abcorr, observer string) ([6]float64, float64) {
	if failed() {
		return [6]float64{}, 0
	}
	tcode, ok := bods2c(target)
	if !ok {
		if !failed() {
			signal("SPICE(IDCODENOTFOUND)", "The target, '%s', is not a recognized name for an ephemeris object.", target)
		}
		return [6]float64{}, 0
	}
	ocode, ok := bods2c(observer)
	if !ok {
		if !failed() {
			signal("SPICE(IDCODENOTFOUND)", "The observer, '%s', is not a recognized name for an ephemeris object.", observer)
		}
		return [6]float64{}, 0
	}
	return spkez(tcode, et, ref, abcorr, ocode)
}

// Spkez returns the state of target relative to observer by NAIF code, and the one-way light time.
func (*Library) Spkez(target int32, et float64, ref, abcorr string, observer int32) ([6]float64, float64) {
	if failed() {
		return [6]float64{}, 0
	}
	return spkez(target, et, ref, abcorr, observer)
}

// Spkgeo returns the geometric state of target relative to observer and the light time.
func (*Library) Spkgeo(target int32, et float64, ref string, observer int32) ([6]float64, float64) {
	if failed() {
		return [6]float64{}, 0
	}
	return spkez(target, et, ref, "NONE", observer)
}

// Spkobj returns the sorted body codes covered by an ephemeris file. The file need not be loaded.
func (*Library) Spkobj(file string, capacity int) []int32 {
	if failed() {
		return nil
	}
	return spkobj(file, capacity)
}

// Oscelt returns the osculating conic elements of state about a body with gravitational parameter mu.
func (*Library) Oscelt(state [6]float64, et, mu float64) [8]float64 {
	if failed() {
		return [8]float64{}
	}
	return oscelt(state, et, mu)
}

// Conics propagates conic elements to et and returns the state there.
func (*Library) Conics(elts [8]float64, et float64) [6]float64 {
	if failed() {
		return [6]float64{}
	}
	return conics(elts, et)
}

// Bodc2n translates a body code to its name. The bool is false when the code is unknown.
func (*Library) Bodc2n(code int32, lenout int) (string, bool) {
	if failed() {
		return "", false
	}
	if lenout < 2 {
		signal("SPICE(STRINGTOOSHORT)", "The output string length %d is too short to hold a name.", lenout)
		return "", false
	}
	name, ok := bodc2n(code)
	if !ok {
		return "", false
	}
	return truncateName(name, lenout), true
}

// Bodn2c translates a body name to its code. The bool is false when the name is unknown.
func (*Library) Bodn2c(name string) (int32, bool) {
	if failed() {
		return 0, false
	}
	return bodn2c(name)
}

// Bodvcd returns the constant BODY<code>_<item> from the kernel pool.
func (*Library) Bodvcd(code int32, item string, maxn int) []float64 {
	if failed() {
		return nil
	}
	return bodvcd(code, item, maxn)
}

// Bodvrd is Bodvcd with the body given by name.
func (*Library) Bodvrd(name, item string, maxn int) []float64 {
	if failed() {
		return nil
	}
	return bodvrd(name, item, maxn)
}

// J2000 returns the Julian date of the J2000 epoch.
func (*Library) J2000() float64 { return j2000JD }

// Spd returns the number of seconds in a day.
func (*Library) Spd() float64 { return secondsPerDay }

// Str2et parses a time string to seconds past J2000 TDB.
func (*Library) Str2et(s string) float64 {
	if failed() {
		return 0
	}
	return str2et(s, false)
}

// Utc2et parses an ISO UTC time string to seconds past J2000 TDB.
func (*Library) Utc2et(s string) float64 {
	if failed() {
		return 0
	}
	return str2et(s, true)
}

// Unitim converts an epoch between the uniform time systems.
func (*Library) Unitim(epoch float64, insys, outsys string) float64 {
	if failed() {
		return 0
	}
	return unitim(epoch, insys, outsys)
}

// Dtf2d converts a calendar date and time in scale to a two-part Julian date.
func (*Library) Dtf2d(scale string, iy, im, id, ihr, imn int32, sec float64) (float64, float64) {
	if failed() {
		return 0, 0
	}
	return dtf2d(strings.ToUpper(strings.TrimSpace(scale)), int(iy), int(im), int(id), int(ihr), int(imn), sec)
}

// Utctai and the methods below convert a two-part Julian date between time scales.
func (*Library) Utctai(utc1, utc2 float64) (float64, float64) {
	if failed() {
		return 0, 0
	}
	tai1, tai2, _ := utctai(utc1, utc2)
	return tai1, tai2
}

func (*Library) Taiutc(tai1, tai2 float64) (float64, float64) {
	if failed() {
		return 0, 0
	}
	return taiutc(tai1, tai2)
}

func (*Library) Taitt(tai1, tai2 float64) (float64, float64) {
	if failed() {
		return 0, 0
	}
	return addSmall(tai1, tai2, ttMinusTAI/secondsPerDay)
}

func (*Library) Tttai(tt1, tt2 float64) (float64, float64) {
	if failed() {
		return 0, 0
	}
	return addSmall(tt1, tt2, -ttMinusTAI/secondsPerDay)
}

func (*Library) Tttcg(tt1, tt2 float64) (float64, float64) {
	if failed() {
		return 0, 0
	}
	return tttcg(tt1, tt2)
}

func (*Library) Tcgtt(tcg1, tcg2 float64) (float64, float64) {
	if failed() {
		return 0, 0
	}
	return tcgtt(tcg1, tcg2)
}

// Tttdb converts TT to TDB given TDB-TT in seconds.
func (*Library) Tttdb(tt1, tt2, dtr float64) (float64, float64) {
	if failed() {
		return 0, 0
	}
	return addSmall(tt1, tt2, dtr/secondsPerDay)
}

// Tdbtt converts TDB to TT given TDB-TT in seconds.
func (*Library) Tdbtt(tdb1, tdb2, dtr float64) (float64, float64) {
	if failed() {
		return 0, 0
	}
	return addSmall(tdb1, tdb2, -dtr/secondsPerDay)
}

func (*Library) Tdbtcb(tdb1, tdb2 float64) (float64, float64) {
	if failed() {
		return 0, 0
	}
	return tdbtcb(tdb1, tdb2)
}

func (*Library) Tcbtdb(tcb1, tcb2 float64) (float64, float64) {
	if failed() {
		return 0, 0
	}
	return tcbtdb(tcb1, tcb2)
}

// Jd2cal converts a two-part Julian date to year, month, day and fraction of day.
func (*Library) Jd2cal(dj1, dj2 float64) (int32, int32, int32, float64) {
	if failed() {
		return 0, 0, 0, 0
	}
	iy, im, id, fd, status := jd2cal(dj1, dj2)
	if status != 0 {
		signal("ERFA(BADDATE)", "jd2cal: Julian date %v is outside the supported range", dj1+dj2)
		return 0, 0, 0, 0
	}
	return int32(iy), int32(im), int32(id), fd
}

// D2tf splits a fraction of a day into sign, hours, minutes, seconds and ndp decimal places.
func (*Library) D2tf(ndp int32, days float64) (byte, [4]int32) {
	if failed() {
		return 0, [4]int32{}
	}
	return d2tf(int(ndp), days)
}
