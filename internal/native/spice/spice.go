// Package spice binds the CSPICE and ERFA shared libraries without cgo.
//
// Open sets the CSPICE error subsystem to RETURN mode with no output device,
// so every failure is left in the process-wide error state for the caller to
// read. ERFA status codes are folded into that same state through
// setmsg_c/sigerr_c.
package spice

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"

	"github.com/felixgeelhaar/astrobridge/internal/native"
)

// ErrUnsupported is returned by Open on platforms without dlopen.
var ErrUnsupported = errors.New("spice: shared library loading is not supported on this platform")

// Options names the shared objects to load.
type Options struct {
	// CSPICEPath is the path of libcspice. Defaults to the platform library name.
	CSPICEPath string

	// ERFAPath is the path of liberfa. Defaults to the platform library name.
	ERFAPath string
}

func (o Options) withDefaults() Options {
	ext := ".so"
	if runtime.GOOS == "darwin" {
		ext = ".dylib"
	}
	if o.CSPICEPath == "" {
		o.CSPICEPath = "libcspice" + ext
	}
	if o.ERFAPath == "" {
		o.ERFAPath = "liberfa" + ext
	}
	return o
}

const (
	spiceTrue = 1

	// cellCtrlSize is the number of control slots ahead of cell data.
	cellCtrlSize = 6
	cellTypeInt  = 2
)

// spiceCell mirrors SpiceCell.
type spiceCell struct {
	dtype  int32
	length int32
	size   int32
	card   int32
	isSet  int32
	adjust int32
	init   int32
	_      int32
	base   *int32
	data   *int32
}

type bindings struct {
	failed func() int32
	getmsg func(option string, lenout int32, msg *byte)
	reset  func()
	erract func(op string, lenout int32, action *byte)
	errprt func(op string, lenout int32, list *byte)
	errdev func(op string, lenout int32, device *byte)
	setmsg func(msg string)
	sigerr func(msg string)

	furnsh func(file string)

	spkezr func(targ string, et float64, ref, abcorr, obs string, starg, lt *float64)
	spkez  func(targ int32, et float64, ref, abcorr string, obs int32, starg, lt *float64)
	spkgeo func(targ int32, et float64, ref string, obs int32, state, lt *float64)
	spkobj func(file string, ids *spiceCell)

	oscelt func(state *float64, et, mu float64, elts *float64)
	conics func(elts *float64, et float64, state *float64)

	bodc2n func(code, lenout int32, name *byte, found *int32)
	bodn2c func(name string, code, found *int32)
	bodvcd func(bodyid int32, item string, maxn int32, dim *int32, values *float64)
	bodvrd func(bodynm, item string, maxn int32, dim *int32, values *float64)

	j2000  func() float64
	spd    func() float64
	str2et func(str string, et *float64)
	utc2et func(str string, et *float64)
	unitim func(epoch float64, insys, outsys string) float64

	dtf2d  func(scale string, iy, im, id, ihr, imn int32, sec float64, d1, d2 *float64) int32
	utctai func(a, b float64, c, d *float64) int32
	taiutc func(a, b float64, c, d *float64) int32
	taitt  func(a, b float64, c, d *float64) int32
	tttai  func(a, b float64, c, d *float64) int32
	tttcg  func(a, b float64, c, d *float64) int32
	tcgtt  func(a, b float64, c, d *float64) int32
	tttdb  func(a, b, dtr float64, c, d *float64) int32
	tdbtt  func(a, b, dtr float64, c, d *float64) int32
	tdbtcb func(a, b float64, c, d *float64) int32
	tcbtdb func(a, b float64, c, d *float64) int32
	jd2cal func(dj1, dj2 float64, iy, im, id *int32, fd *float64) int32
	d2tf   func(ndp int32, days float64, sign *byte, ihmsf *int32)
}

// symbol pairs a C symbol with the function pointer it binds.
type symbol struct {
	name string
	fn   any
	erfa bool
}

func (b *bindings) symbols() []symbol {
	return []symbol{
		{"failed_c", &b.failed, false},
		{"getmsg_c", &b.getmsg, false},
		{"reset_c", &b.reset, false},
		{"erract_c", &b.erract, false},
		{"errprt_c", &b.errprt, false},
		{"errdev_c", &b.errdev, false},
		{"setmsg_c", &b.setmsg, false},
		{"sigerr_c", &b.sigerr, false},
		{"furnsh_c", &b.furnsh, false},
		{"spkezr_c", &b.spkezr, false},
		{"spkez_c", &b.spkez, false},
		{"spkgeo_c", &b.spkgeo, false},
		{"spkobj_c", &b.spkobj, false},
		{"oscelt_c", &b.oscelt, false},
		{"conics_c", &b.conics, false},
		{"bodc2n_c", &b.bodc2n, false},
		{"bodn2c_c", &b.bodn2c, false},
		{"bodvcd_c", &b.bodvcd, false},
		{"bodvrd_c", &b.bodvrd, false},
		{"j2000_c", &b.j2000, false},
		{"spd_c", &b.spd, false},
		{"str2et_c", &b.str2et, false},
		{"utc2et_c", &b.utc2et, false},
		{"unitim_c", &b.unitim, false},
		{"eraDtf2d", &b.dtf2d, true},
		{"eraUtctai", &b.utctai, true},
		{"eraTaiutc", &b.taiutc, true},
		{"eraTaitt", &b.taitt, true},
		{"eraTttai", &b.tttai, true},
		{"eraTttcg", &b.tttcg, true},
		{"eraTcgtt", &b.tcgtt, true},
		{"eraTttdb", &b.tttdb, true},
		{"eraTdbtt", &b.tdbtt, true},
		{"eraTdbtcb", &b.tdbtcb, true},
		{"eraTcbtdb", &b.tcbtdb, true},
		{"eraJd2cal", &b.jd2cal, true},
		{"eraD2tf", &b.d2tf, true},
	}
}

// Library implements native.Library over the shared objects.
type Library struct {
	b bindings
}

var _ native.Library = (*Library)(nil)

// configure puts the error subsystem in RETURN mode with no output.
func (l *Library) configure() {
	l.b.errdev("SET", 8, cbuf("NULL", 8))
	l.b.errprt("SET", 8, cbuf("ALL", 8))
	l.b.erract("SET", 8, cbuf("RETURN", 8))
}

// cbuf returns a NUL-terminated buffer holding s with room for n bytes.
func cbuf(s string, n int) *byte {
	buf := make([]byte, max(n, len(s)+1))
	copy(buf, s)
	return &buf[0]
}

// gostring converts a NUL-terminated buffer to a string.
func gostring(buf []byte) string {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		return string(buf[:i])
	}
	return string(buf)
}

// Failed reports whether a routine has signalled an error since the last Reset.
func (l *Library) Failed() bool { return l.b.failed() == spiceTrue }

// GetMsg returns the SHORT or LONG message of the pending error, cut to maxLen characters.
func (l *Library) GetMsg(option string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	buf := make([]byte, maxLen+1)
	var p runtime.Pinner
	defer p.Unpin()
	p.Pin(&buf[0])
	l.b.getmsg(option, int32(len(buf)), &buf[0])
	return gostring(buf)
}

// Reset clears the pending error.
func (l *Library) Reset() { l.b.reset() }

// Furnsh loads a kernel file, or every file a meta-kernel names.
func (l *Library) Furnsh(path string) { l.b.furnsh(path) }

// Spkezr returns the state of target relative to observer and the one-way
// light time. Bodies are given by name or numeric string.
func (l *Library) Spkezr(target string, et float64, ref, abcorr, observer string) ([6]float64, float64) {
	var (
		state [6]float64
		lt    float64
		p     runtime.Pinner
	)
	defer p.Unpin()
	p.Pin(&state[0])
	p.Pin(&lt)
	l.b.spkezr(target, et, ref, abcorr, observer, &state[0], &lt)
	return state, lt
}

// Spkez returns the state of target relative to observer by NAIF code, and the one-way light time.
func (l *Library) Spkez(target int32, et float64, ref, abcorr string, observer int32) ([6]float64, float64) {
	var (
		state [6]float64
		lt    float64
		p     runtime.Pinner
	)
	defer p.Unpin()
	p.Pin(&state[0])
	p.Pin(&lt)
	l.b.spkez(target, et, ref, abcorr, observer, &state[0], &lt)
	return state, lt
}

// Spkgeo returns the geometric state of target relative to observer and the light time.
func (l *Library) Spkgeo(target int32, et float64, ref string, observer int32) ([6]float64, float64) {
	var (
		state [6]float64
		lt    float64
		p     runtime.Pinner
	)
	defer p.Unpin()
	p.Pin(&state[0])
	p.Pin(&lt)
	l.b.spkgeo(target, et, ref, observer, &state[0], &lt)
	return state, lt
}

// Spkobj returns the sorted body codes covered by an ephemeris file. The file need not be loaded.
func (l *Library) Spkobj(file string, capacity int) []int32 {
	base := make([]int32, cellCtrlSize+capacity)
	cell := &spiceCell{
		dtype: cellTypeInt,
		size:  int32(capacity),
		isSet: spiceTrue,
		base:  &base[0],
		data:  &base[cellCtrlSize],
	}
	var p runtime.Pinner
	defer p.Unpin()
	p.Pin(&base[0])
	p.Pin(cell)

	l.b.spkobj(file, cell)
	if l.Failed() {
		return nil
	}
	n := min(int(cell.card), capacity)
	return append([]int32(nil), base[cellCtrlSize:cellCtrlSize+n]...)
}

// Oscelt returns the osculating conic elements of state about a body with gravitational parameter mu.
func (l *Library) Oscelt(state [6]float64, et, mu float64) [8]float64 {
	var (
		elts [8]float64
		p    runtime.Pinner
	)
	defer p.Unpin()
	p.Pin(&state[0])
	p.Pin(&elts[0])
	l.b.oscelt(&state[0], et, mu, &elts[0])
	return elts
}

// Conics propagates conic elements to et and returns the state there.
func (l *Library) Conics(elts [8]float64, et float64) [6]float64 {
	var (
		state [6]float64
		p     runtime.Pinner
	)
	defer p.Unpin()
	p.Pin(&elts[0])
	p.Pin(&state[0])
	l.b.conics(&elts[0], et, &state[0])
	return state
}

// Bodc2n translates a body code to its name. The bool is false when the code is unknown.
func (l *Library) Bodc2n(code int32, lenout int) (string, bool) {
	if lenout <= 0 {
		lenout = 1
	}
	buf := make([]byte, lenout)
	var (
		found int32
		p     runtime.Pinner
	)
	defer p.Unpin()
	p.Pin(&buf[0])
	p.Pin(&found)
	l.b.bodc2n(code, int32(lenout), &buf[0], &found)
	return gostring(buf), found == spiceTrue
}

// Bodn2c translates a body name to its code. The bool is false when the name is unknown.
func (l *Library) Bodn2c(name string) (int32, bool) {
	var (
		code, found int32
		p           runtime.Pinner
	)
	defer p.Unpin()
	p.Pin(&code)
	p.Pin(&found)
	l.b.bodn2c(name, &code, &found)
	return code, found == spiceTrue
}

// Bodvcd returns the constant BODY<code>_<item> from the kernel pool.
func (l *Library) Bodvcd(code int32, item string, maxn int) []float64 {
	return l.bodv(maxn, func(dim *int32, values *float64) {
		l.b.bodvcd(code, item, int32(maxn), dim, values)
	})
}

// Bodvrd is Bodvcd with the body given by name.
func (l *Library) Bodvrd(name, item string, maxn int) []float64 {
	return l.bodv(maxn, func(dim *int32, values *float64) {
		l.b.bodvrd(name, item, int32(maxn), dim, values)
	})
}

func (l *Library) bodv(maxn int, call func(dim *int32, values *float64)) []float64 {
	values := make([]float64, max(maxn, 1))
	var (
		dim int32
		p   runtime.Pinner
	)
	defer p.Unpin()
	p.Pin(&values[0])
	p.Pin(&dim)
	call(&dim, &values[0])
	if l.Failed() {
		return nil
	}
	return values[:min(int(dim), len(values))]
}

// J2000 returns the Julian date of the J2000 epoch.
func (l *Library) J2000() float64 { return l.b.j2000() }

// Spd returns the number of seconds in a day.
func (l *Library) Spd() float64 { return l.b.spd() }

// Str2et parses a time string to seconds past J2000 TDB.
func (l *Library) Str2et(s string) float64 {
	var (
		et float64
		p  runtime.Pinner
	)
	defer p.Unpin()
	p.Pin(&et)
	l.b.str2et(s, &et)
	return et
}

// Utc2et parses an ISO UTC time string to seconds past J2000 TDB.
func (l *Library) Utc2et(s string) float64 {
	var (
		et float64
		p  runtime.Pinner
	)
	defer p.Unpin()
	p.Pin(&et)
	l.b.utc2et(s, &et)
	return et
}

// Unitim converts an epoch between the uniform time systems.
func (l *Library) Unitim(epoch float64, insys, outsys string) float64 {
	return l.b.unitim(epoch, insys, outsys)
}

// signal raises an ERFA failure through the CSPICE error state.
func (l *Library) signal(short, long string) {
	l.b.setmsg(long)
	l.b.sigerr(short)
}

// erfaFailure names a negative ERFA status of routine.
func erfaFailure(routine string, status int32) (string, string) {
	if routine == "dtf2d" {
		switch status {
		case -1:
			return "ERFA(BADYEAR)", "dtf2d: bad year"
		case -2:
			return "ERFA(BADMONTH)", "dtf2d: bad month"
		case -3:
			return "ERFA(BADDAY)", "dtf2d: bad day"
		case -4:
			return "ERFA(BADHOUR)", "dtf2d: bad hour"
		case -5:
			return "ERFA(BADMINUTE)", "dtf2d: bad minute"
		case -6:
			return "ERFA(BADSECOND)", "dtf2d: bad second"
		}
	}
	if status == -1 {
		return "ERFA(BADDATE)", fmt.Sprintf("%s: unacceptable date", routine)
	}
	return "ERFA(INTERNAL)", fmt.Sprintf("%s: status %d", routine, status)
}

// pair runs a two-part Julian date routine. Positive statuses are warnings.
func (l *Library) pair(routine string, a, b float64, fn func(a, b float64, c, d *float64) int32) (float64, float64) {
	if l.Failed() {
		return 0, 0
	}
	var (
		c, d float64
		p    runtime.Pinner
	)
	defer p.Unpin()
	p.Pin(&c)
	p.Pin(&d)
	if status := fn(a, b, &c, &d); status < 0 {
		l.signal(erfaFailure(routine, status))
		return 0, 0
	}
	return c, d
}

// Dtf2d converts a calendar date and time in scale to a two-part Julian date.
func (l *Library) Dtf2d(scale string, iy, im, id, ihr, imn int32, sec float64) (float64, float64) {
	return l.pair("dtf2d", 0, 0, func(_, _ float64, d1, d2 *float64) int32 {
		return l.b.dtf2d(scale, iy, im, id, ihr, imn, sec, d1, d2)
	})
}

// Utctai and the methods below convert a two-part Julian date between time scales.
func (l *Library) Utctai(u1, u2 float64) (float64, float64) { return l.pair("utctai", u1, u2, l.b.utctai) }
func (l *Library) Taiutc(t1, t2 float64) (float64, float64) { return l.pair("taiutc", t1, t2, l.b.taiutc) }
func (l *Library) Taitt(t1, t2 float64) (float64, float64)  { return l.pair("taitt", t1, t2, l.b.taitt) }
func (l *Library) Tttai(t1, t2 float64) (float64, float64)  { return l.pair("tttai", t1, t2, l.b.tttai) }
func (l *Library) Tttcg(t1, t2 float64) (float64, float64)  { return l.pair("tttcg", t1, t2, l.b.tttcg) }
func (l *Library) Tcgtt(t1, t2 float64) (float64, float64)  { return l.pair("tcgtt", t1, t2, l.b.tcgtt) }
func (l *Library) Tdbtcb(t1, t2 float64) (float64, float64) { return l.pair("tdbtcb", t1, t2, l.b.tdbtcb) }
func (l *Library) Tcbtdb(t1, t2 float64) (float64, float64) { return l.pair("tcbtdb", t1, t2, l.b.tcbtdb) }

// Tttdb converts TT to TDB given TDB-TT in seconds.
func (l *Library) Tttdb(t1, t2, dtr float64) (float64, float64) {
	return l.pair("tttdb", t1, t2, func(a, b float64, c, d *float64) int32 { return l.b.tttdb(a, b, dtr, c, d) })
}

// Tdbtt converts TDB to TT given TDB-TT in seconds.
func (l *Library) Tdbtt(t1, t2, dtr float64) (float64, float64) {
	return l.pair("tdbtt", t1, t2, func(a, b float64, c, d *float64) int32 { return l.b.tdbtt(a, b, dtr, c, d) })
}

// Jd2cal converts a two-part Julian date to year, month, day and fraction of day.
func (l *Library) Jd2cal(dj1, dj2 float64) (int32, int32, int32, float64) {
	if l.Failed() {
		return 0, 0, 0, 0
	}
	var (
		iy, im, id int32
		fd         float64
		p          runtime.Pinner
	)
	defer p.Unpin()
	p.Pin(&iy)
	p.Pin(&im)
	p.Pin(&id)
	p.Pin(&fd)
	if status := l.b.jd2cal(dj1, dj2, &iy, &im, &id, &fd); status < 0 {
		l.signal(erfaFailure("jd2cal", status))
		return 0, 0, 0, 0
	}
	return iy, im, id, fd
}

// D2tf splits a fraction of a day into sign, hours, minutes, seconds and ndp decimal places.
func (l *Library) D2tf(ndp int32, days float64) (byte, [4]int32) {
	if l.Failed() {
		return 0, [4]int32{}
	}
	var (
		sign  byte
		ihmsf [4]int32
		p     runtime.Pinner
	)
	defer p.Unpin()
	p.Pin(&sign)
	p.Pin(&ihmsf[0])
	l.b.d2tf(ndp, days, &sign, &ihmsf[0])
	return sign, ihmsf
}
