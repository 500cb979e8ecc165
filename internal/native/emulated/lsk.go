package emulated

import (
	"math"
	"strings"
)

// leapseconds holds the DELTET parameters of a loaded leapseconds kernel.
type leapseconds struct {
	deltaTA float64
	k       float64
	eb      float64
	m       [2]float64
	dats    []float64
	epochs  []float64
}

func loadLeapseconds() (*leapseconds, bool) {
	at, ok := poolGet("DELTET/DELTA_AT")
	if !ok {
		signal("SPICE(NOLEAPSECONDS)", "The variable that points to the leapseconds (DELTET/DELTA_AT) could not be located in the kernel pool. It is likely that the leapseconds kernel has not been loaded via the routine FURNSH.")
		return nil, false
	}
	if at.isStr || len(at.nums) < 2 || len(at.nums)%2 != 0 {
		signal("SPICE(BADDIMENSIONS)", "DELTET/DELTA_AT must hold pairs of numeric values; found %d values.", max(len(at.nums), len(at.strs)))
		return nil, false
	}

	ls := &leapseconds{}
	scalars := []struct {
		name string
		dst  *float64
	}{
		{"DELTET/DELTA_T_A", &ls.deltaTA},
		{"DELTET/K", &ls.k},
		{"DELTET/EB", &ls.eb},
	}
	for _, s := range scalars {
		v, ok := poolNumbers(s.name, "SPICE(MISSINGTIMEINFO)")
		if !ok {
			return nil, false
		}
		if len(v) != 1 {
			signal("SPICE(BADDIMENSIONS)", "%s must hold one value; found %d.", s.name, len(v))
			return nil, false
		}
		*s.dst = v[0]
	}
	m, ok := poolNumbers("DELTET/M", "SPICE(MISSINGTIMEINFO)")
	if !ok {
		return nil, false
	}
	if len(m) != 2 {
		signal("SPICE(BADDIMENSIONS)", "DELTET/M must hold two values; found %d.", len(m))
		return nil, false
	}
	ls.m = [2]float64{m[0], m[1]}

	for i := 0; i < len(at.nums); i += 2 {
		ls.dats = append(ls.dats, at.nums[i])
		ls.epochs = append(ls.epochs, at.nums[i+1])
	}
	return ls, true
}

// deltaAT returns TAI-UTC at formal UTC seconds past J2000.
func (l *leapseconds) deltaAT(formal float64) float64 {
	d := l.dats[0]
	for i, e := range l.epochs {
		if formal >= e {
			d = l.dats[i]
		}
	}
	return d
}

// taiFromUTC converts parsed UTC to TAI seconds past J2000, counting a leap
// second written as second 60.
func (l *leapseconds) taiFromUTC(spec timeSpec) float64 {
	if spec.isJD {
		formal := (spec.jd - j2000JD) * secondsPerDay
		return formal + l.deltaAT(formal)
	}
	formal := spec.formalSeconds()
	if spec.sec >= 60 {
		base := formal - (spec.sec - 59)
		return base + l.deltaAT(base) + (spec.sec - 59)
	}
	return formal + l.deltaAT(formal)
}

func (l *leapseconds) tdtToTDB(tdt float64) float64 {
	m := l.m[0] + l.m[1]*tdt
	e := m + l.eb*math.Sin(m)
	return tdt + l.k*math.Sin(e)
}

func (l *leapseconds) tdbToTDT(tdb float64) float64 {
	tdt := tdb
	for range 3 {
		m := l.m[0] + l.m[1]*tdt
		e := m + l.eb*math.Sin(m)
		tdt = tdb - l.k*math.Sin(e)
	}
	return tdt
}

func str2et(s string, utcOnly bool) float64 {
	spec, err := parseTimeString(s)
	if err != nil {
		signal("SPICE(INVALIDTIMESTRING)", "The time string '%s' could not be parsed: %v", strings.TrimSpace(s), err)
		return 0
	}
	if utcOnly && spec.labeled && spec.system != "UTC" {
		signal("SPICE(INVALIDTIMESTRING)", "The time string '%s' is labeled %s; only UTC is accepted.", strings.TrimSpace(s), spec.system)
		return 0
	}

	formal := spec.formalSeconds()
	if spec.isJD {
		formal = (spec.jd - j2000JD) * secondsPerDay
	}
	if spec.system == "TDB" {
		return formal
	}

	ls, ok := loadLeapseconds()
	if !ok {
		return 0
	}
	if spec.system == "TDT" {
		return ls.tdtToTDB(formal)
	}
	return ls.tdtToTDB(ls.taiFromUTC(spec) + ls.deltaTA)
}

var uniformSystems = map[string]bool{
	"TAI": true, "TDT": true, "TDB": true, "ET": true,
	"JDTDB": true, "JDTDT": true, "JED": true,
}

func unitim(epoch float64, insys, outsys string) float64 {
	in := strings.ToUpper(strings.TrimSpace(insys))
	out := strings.ToUpper(strings.TrimSpace(outsys))
	if !uniformSystems[in] {
		signal("SPICE(BADTIMETYPE)", "The input time system %s is not recognized.", insys)
		return 0
	}
	if !uniformSystems[out] {
		signal("SPICE(BADTIMETYPE)", "The output time system %s is not recognized.", outsys)
		return 0
	}

	ls, ok := loadLeapseconds()
	if !ok {
		return 0
	}

	var tdb float64
	switch in {
	case "TAI":
		tdb = ls.tdtToTDB(epoch + ls.deltaTA)
	case "TDT":
		tdb = ls.tdtToTDB(epoch)
	case "TDB", "ET":
		tdb = epoch
	case "JDTDB", "JED":
		tdb = (epoch - j2000JD) * secondsPerDay
	case "JDTDT":
		tdb = ls.tdtToTDB((epoch - j2000JD) * secondsPerDay)
	}

	switch out {
	case "TAI":
		return ls.tdbToTDT(tdb) - ls.deltaTA
	case "TDT":
		return ls.tdbToTDT(tdb)
	case "JDTDB", "JED":
		return j2000JD + tdb/secondsPerDay
	case "JDTDT":
		return j2000JD + ls.tdbToTDT(tdb)/secondsPerDay
	default:
		return tdb
	}
}
