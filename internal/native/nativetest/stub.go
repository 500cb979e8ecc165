// Package nativetest provides an instrumented native.Library for tests.
package nativetest

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/astrobridge/internal/native"
)

// Failure is a scripted error raised by a routine.
type Failure struct {
	Short string
	Long  string
}

// Stub records calls and concurrency and returns canned outputs.
// Like a real library it runs in RETURN mode: once failed, every routine
// returns zero values until Reset.
type Stub struct {
	// Canned outputs. Set them before use.
	State     [6]float64
	LT        float64
	Elements  [8]float64
	Epoch     float64
	Codes     []int32
	Bodies    map[int32]string
	Constants map[string][]float64

	// Delay is slept inside every routine to widen race windows.
	Delay time.Duration

	mu       sync.Mutex
	calls    map[string]int
	scripted map[string]Failure
	loaded   []string
	failed   bool
	short    string
	long     string

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

var _ native.Library = (*Stub)(nil)

// New returns a stub with a small body table.
func New() *Stub {
	return &Stub{
		State:     [6]float64{1, 2, 3, 4, 5, 6},
		LT:        0.5,
		Elements:  [8]float64{7000, 0.1, 0.2, 0.3, 0.4, 0.5, 0, 398600.4418},
		Epoch:     64.184,
		Codes:     []int32{10, 399},
		Bodies:    map[int32]string{0: "SOLAR SYSTEM BARYCENTER", 10: "SUN", 399: "EARTH", 301: "MOON"},
		Constants: map[string][]float64{"BODY399_RADII": {6378.1366, 6378.1366, 6356.7519}},
		calls:     make(map[string]int),
		scripted:  make(map[string]Failure),
	}
}

// FailOn makes the next calls of routine signal f until cleared with Clear.
func (s *Stub) FailOn(routine string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripted[routine] = f
}

// Clear removes a scripted failure.
func (s *Stub) Clear(routine string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scripted, routine)
}

// Poison sets the error state directly, as if an earlier caller left it set.
func (s *Stub) Poison(short, long string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed, s.short, s.long = true, short, long
}

// Calls returns how many times routine was entered.
func (s *Stub) Calls(routine string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[routine]
}

// TotalCalls returns the number of routine entries, excluding the error
// state accessors.
func (s *Stub) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// MaxConcurrent returns the highest number of routines observed running at once.
func (s *Stub) MaxConcurrent() int32 {
	return s.maxInFlight.Load()
}

// Loaded returns the paths passed to Furnsh that did not fail.
func (s *Stub) Loaded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.loaded...)
}

// enter records a call and reports whether the routine should run.
func (s *Stub) enter(routine string) bool {
	n := s.inFlight.Add(1)
	for {
		cur := s.maxInFlight.Load()
		if n <= cur || s.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	if s.Delay > 0 {
		time.Sleep(s.Delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[routine]++
	if s.failed {
		return false
	}
	if f, ok := s.scripted[routine]; ok {
		s.failed, s.short, s.long = true, f.Short, f.Long
		return false
	}
	return true
}

func (s *Stub) exit() {
	s.inFlight.Add(-1)
}

func (s *Stub) Failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

func (s *Stub) GetMsg(option string, maxLen int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var msg string
	switch option {
	case native.MsgShort:
		msg = s.short
	case native.MsgLong:
		msg = s.long
	}
	if maxLen >= 0 && len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}

func (s *Stub) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed, s.short, s.long = false, "", ""
}

func (s *Stub) Furnsh(path string) {
	defer s.exit()
	if !s.enter("furnsh") {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.Contains(path, "missing") {
		s.failed, s.short, s.long = true, "SPICE(NOSUCHFILE)", "The file '"+path+"' does not exist."
		return
	}
	s.loaded = append(s.loaded, path)
}

func (s *Stub) Spkezr(target string, et float64, ref, abcorr, observer string) ([6]float64, float64) {
	defer s.exit()
	if !s.enter("spkezr") {
		return [6]float64{}, 0
	}
	return s.State, s.LT
}

func (s *Stub) Spkez(target int32, et float64, ref, abcorr string, observer int32) ([6]float64, float64) {
	defer s.exit()
	if !s.enter("spkez") {
		return [6]float64{}, 0
	}
	return s.State, s.LT
}

func (s *Stub) Spkgeo(target int32, et float64, ref string, observer int32) ([6]float64, float64) {
	defer s.exit()
	if !s.enter("spkgeo") {
		return [6]float64{}, 0
	}
	return s.State, s.LT
}

func (s *Stub) Spkobj(file string, capacity int) []int32 {
	defer s.exit()
	if !s.enter("spkobj") {
		return nil
	}
	return append([]int32(nil), s.Codes...)
}

func (s *Stub) Oscelt(state [6]float64, et, mu float64) [8]float64 {
	defer s.exit()
	if !s.enter("oscelt") {
		return [8]float64{}
	}
	out := s.Elements
	out[6], out[7] = et, mu
	return out
}

func (s *Stub) Conics(elts [8]float64, et float64) [6]float64 {
	defer s.exit()
	if !s.enter("conics") {
		return [6]float64{}
	}
	return s.State
}

func (s *Stub) Bodc2n(code int32, lenout int) (string, bool) {
	defer s.exit()
	if !s.enter("bodc2n") {
		return "", false
	}
	name, ok := s.Bodies[code]
	return name, ok
}

func (s *Stub) Bodn2c(name string) (int32, bool) {
	defer s.exit()
	if !s.enter("bodn2c") {
		return 0, false
	}
	for code, n := range s.Bodies {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return code, true
		}
	}
	return 0, false
}

func (s *Stub) Bodvcd(code int32, item string, maxn int) []float64 {
	defer s.exit()
	if !s.enter("bodvcd") {
		return nil
	}
	return s.constant(code, item, maxn)
}

func (s *Stub) Bodvrd(name, item string, maxn int) []float64 {
	defer s.exit()
	if !s.enter("bodvrd") {
		return nil
	}
	for code, n := range s.Bodies {
		if strings.EqualFold(n, name) {
			return s.constant(code, item, maxn)
		}
	}
	s.signal("SPICE(NOTRANSLATION)", "The body name "+name+" could not be translated to a NAIF ID code.")
	return nil
}

func (s *Stub) constant(code int32, item string, maxn int) []float64 {
	key := "BODY" + strconv.Itoa(int(code)) + "_" + strings.ToUpper(item)
	v, ok := s.Constants[key]
	if !ok {
		s.signal("SPICE(KERNELVARNOTFOUND)", "The variable "+key+" could not be found in the kernel pool.")
		return nil
	}
	if len(v) > maxn {
		s.signal("SPICE(ARRAYTOOSMALL)", "The output array is too small for "+key+".")
		return nil
	}
	return append([]float64(nil), v...)
}

func (s *Stub) signal(short, long string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed, s.short, s.long = true, short, long
}

func (s *Stub) J2000() float64 { return 2451545.0 }

func (s *Stub) Spd() float64 { return 86400.0 }

func (s *Stub) Str2et(str string) float64 {
	defer s.exit()
	if !s.enter("str2et") {
		return 0
	}
	return s.Epoch
}

func (s *Stub) Utc2et(str string) float64 {
	defer s.exit()
	if !s.enter("utc2et") {
		return 0
	}
	return s.Epoch
}

func (s *Stub) Unitim(epoch float64, insys, outsys string) float64 {
	defer s.exit()
	if !s.enter("unitim") {
		return 0
	}
	return epoch
}

func (s *Stub) Dtf2d(scale string, iy, im, id, ihr, imn int32, sec float64) (float64, float64) {
	defer s.exit()
	if !s.enter("dtf2d") {
		return 0, 0
	}
	return 2451544.5, (float64(ihr)*3600 + float64(imn)*60 + sec) / 86400
}

// pair implements the two-part ERFA routines as a fixed offset in days.
func (s *Stub) pair(routine string, a, b, offset float64) (float64, float64) {
	defer s.exit()
	if !s.enter(routine) {
		return 0, 0
	}
	return a, b + offset
}

func (s *Stub) Utctai(u1, u2 float64) (float64, float64) { return s.pair("utctai", u1, u2, 37.0/86400) }
func (s *Stub) Taiutc(t1, t2 float64) (float64, float64) { return s.pair("taiutc", t1, t2, -37.0/86400) }
func (s *Stub) Taitt(t1, t2 float64) (float64, float64)  { return s.pair("taitt", t1, t2, 32.184/86400) }
func (s *Stub) Tttai(t1, t2 float64) (float64, float64)  { return s.pair("tttai", t1, t2, -32.184/86400) }
func (s *Stub) Tttcg(t1, t2 float64) (float64, float64)  { return s.pair("tttcg", t1, t2, 1e-8) }
func (s *Stub) Tcgtt(t1, t2 float64) (float64, float64)  { return s.pair("tcgtt", t1, t2, -1e-8) }
func (s *Stub) Tdbtcb(t1, t2 float64) (float64, float64) { return s.pair("tdbtcb", t1, t2, 2e-7) }
func (s *Stub) Tcbtdb(t1, t2 float64) (float64, float64) { return s.pair("tcbtdb", t1, t2, -2e-7) }

func (s *Stub) Tttdb(t1, t2, dtr float64) (float64, float64) {
	return s.pair("tttdb", t1, t2, dtr/86400)
}

func (s *Stub) Tdbtt(t1, t2, dtr float64) (float64, float64) {
	return s.pair("tdbtt", t1, t2, -dtr/86400)
}

func (s *Stub) Jd2cal(dj1, dj2 float64) (int32, int32, int32, float64) {
	defer s.exit()
	if !s.enter("jd2cal") {
		return 0, 0, 0, 0
	}
	return 2000, 1, 1, 0.5
}

func (s *Stub) D2tf(ndp int32, days float64) (byte, [4]int32) {
	defer s.exit()
	if !s.enter("d2tf") {
		return 0, [4]int32{}
	}
	return '+', [4]int32{12, 0, 0, 0}
}
