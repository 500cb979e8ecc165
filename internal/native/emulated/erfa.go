package emulated

import "math"

const (
	ttMinusTAI = 32.184
	elg        = 6.969290134e-10
	elb        = 1.550519768e-8
	tdb0       = -6.55e-5
	mjd1977    = 43144.0
)

type leapStep struct {
	year, month int
	delta       float64
}

// leapSteps is TAI-UTC by date. Entries before 1972 drift as described by
// leapDrift.
var leapSteps = []leapStep{
	{1960, 1, 1.4178180},
	{1961, 1, 1.4228180},
	{1961, 8, 1.3728180},
	{1962, 1, 1.8458580},
	{1963, 11, 1.9458580},
	{1964, 1, 3.2401300},
	{1964, 4, 3.3401300},
	{1964, 9, 3.4401300},
	{1965, 1, 3.5401300},
	{1965, 3, 3.6401300},
	{1965, 7, 3.7401300},
	{1965, 9, 3.8401300},
	{1966, 1, 4.3131700},
	{1968, 2, 4.2131700},
	{1972, 1, 10.0},
	{1972, 7, 11.0},
	{1973, 1, 12.0},
	{1974, 1, 13.0},
	{1975, 1, 14.0},
	{1976, 1, 15.0},
	{1977, 1, 16.0},
	{1978, 1, 17.0},
	{1979, 1, 18.0},
	{1980, 1, 19.0},
	{1981, 7, 20.0},
	{1982, 7, 21.0},
	{1983, 7, 22.0},
	{1985, 7, 23.0},
	{1988, 1, 24.0},
	{1990, 1, 25.0},
	{1991, 1, 26.0},
	{1992, 7, 27.0},
	{1993, 7, 28.0},
	{1994, 7, 29.0},
	{1996, 1, 30.0},
	{1997, 7, 31.0},
	{1999, 1, 32.0},
	{2006, 1, 33.0},
	{2009, 1, 34.0},
	{2012, 7, 35.0},
	{2015, 7, 36.0},
	{2017, 1, 37.0},
}

var leapDrift = [][2]float64{
	{37300.0, 0.0012960},
	{37300.0, 0.0012960},
	{37300.0, 0.0012960},
	{37665.0, 0.0011232},
	{37665.0, 0.0011232},
	{38761.0, 0.0012960},
	{38761.0, 0.0012960},
	{38761.0, 0.0012960},
	{38761.0, 0.0012960},
	{38761.0, 0.0012960},
	{38761.0, 0.0012960},
	{38761.0, 0.0012960},
	{39126.0, 0.0025920},
	{39126.0, 0.0025920},
}

// erfaStatus maps negative ERFA status codes of the calendar routines to
// short error codes.
func erfaStatus(status int) (string, string) {
	switch status {
	case -1:
		return "ERFA(BADYEAR)", "bad year"
	case -2:
		return "ERFA(BADMONTH)", "bad month"
	case -3:
		return "ERFA(BADDAY)", "bad day"
	case -4:
		return "ERFA(BADFRACTION)", "bad fraction"
	default:
		return "ERFA(INTERNAL)", "internal error"
	}
}

// dat returns TAI-UTC for a UTC date. Dates before 1960 report status 1 and
// zero, matching ERFA's "dubious year" warning.
func dat(iy, im, id int, fd float64) (float64, int) {
	if fd < 0 || fd > 1 {
		return 0, -4
	}
	djm, status := cal2jd(iy, im, id)
	if status < 0 {
		return 0, status
	}
	if iy < leapSteps[0].year {
		return 0, 1
	}

	m := 12*iy + im
	i := len(leapSteps) - 1
	for ; i >= 0; i-- {
		if m >= 12*leapSteps[i].year+leapSteps[i].month {
			break
		}
	}
	if i < 0 {
		return 0, -5
	}
	da := leapSteps[i].delta
	if i < len(leapDrift) {
		da += (djm + fd - leapDrift[i][0]) * leapDrift[i][1]
	}
	return da, 0
}

func signalErfa(routine string, status int) {
	short, what := erfaStatus(status)
	signal(short, "%s: %s", routine, what)
}

func dtf2d(scale string, iy, im, id, ihr, imn int, sec float64) (float64, float64) {
	djm, js := cal2jd(iy, im, id)
	if js != 0 {
		signalErfa("dtf2d", js)
		return 0, 0
	}
	dj := mjdZero + djm

	day := secondsPerDay

	if scale == "UTC" {
		dat0, s := dat(iy, im, id, 0)
		if s < 0 {
			signalErfa("dtf2d", s)
			return 0, 0
		}
		dat12, s := dat(iy, im, id, 0.5)
		if s < 0 {
			signalErfa("dtf2d", s)
			return 0, 0
		}
		iy2, im2, id2, _, s := jd2cal(dj, 1.5)
		if s != 0 {
			signal("ERFA(BADDATE)", "dtf2d: Julian date %v is outside the supported range", dj)
			return 0, 0
		}
		dat24, s := dat(iy2, im2, id2, 0)
		if s < 0 {
			signalErfa("dtf2d", s)
			return 0, 0
		}
		day += dat24 - (2*dat12 - dat0)
	}

	switch {
	case ihr < 0 || ihr > 23:
		signal("ERFA(BADHOUR)", "dtf2d: hour %d is outside 0-23", ihr)
		return 0, 0
	case imn < 0 || imn > 59:
		signal("ERFA(BADMINUTE)", "dtf2d: minute %d is outside 0-59", imn)
		return 0, 0
	case sec < 0:
		signal("ERFA(BADSECOND)", "dtf2d: second %g is negative", sec)
		return 0, 0
	}
	t := (60*float64(60*ihr+imn) + sec) / day
	return dj, t
}

func utctai(utc1, utc2 float64) (float64, float64, bool) {
	big1 := math.Abs(utc1) >= math.Abs(utc2)
	u1, u2 := utc1, utc2
	if !big1 {
		u1, u2 = utc2, utc1
	}

	iy, im, id, fd, s := jd2cal(u1, u2)
	if s != 0 {
		signal("ERFA(BADDATE)", "utctai: Julian date %v is outside the supported range", u1+u2)
		return 0, 0, false
	}
	dat0, s := dat(iy, im, id, 0)
	if s < 0 {
		signalErfa("utctai", s)
		return 0, 0, false
	}
	dat12, s := dat(iy, im, id, 0.5)
	if s < 0 {
		signalErfa("utctai", s)
		return 0, 0, false
	}
	iyt, imt, idt, _, s := jd2cal(u1+1.5, u2-fd)
	if s != 0 {
		signal("ERFA(BADDATE)", "utctai: Julian date %v is outside the supported range", u1+u2)
		return 0, 0, false
	}
	dat24, s := dat(iyt, imt, idt, 0)
	if s < 0 {
		signalErfa("utctai", s)
		return 0, 0, false
	}

	dlod := 2 * (dat12 - dat0)
	dleap := dat24 - (dat0 + dlod)
	fd *= (secondsPerDay + dleap) / secondsPerDay
	fd *= (secondsPerDay + dlod) / secondsPerDay

	z, s := cal2jd(iy, im, id)
	if s != 0 {
		signalErfa("utctai", s)
		return 0, 0, false
	}
	a2 := mjdZero - u1
	a2 += z
	a2 += fd + dat0/secondsPerDay

	if big1 {
		return u1, a2, true
	}
	return a2, u1, true
}

func taiutc(tai1, tai2 float64) (float64, float64) {
	big1 := math.Abs(tai1) >= math.Abs(tai2)
	a1, a2 := tai1, tai2
	if !big1 {
		a1, a2 = tai2, tai1
	}

	u1, u2 := a1, a2
	for range 3 {
		g1, g2, ok := utctai(u1, u2)
		if !ok {
			return 0, 0
		}
		u2 += a1 - g1
		u2 += a2 - g2
	}

	if big1 {
		return u1, u2
	}
	return u2, u1
}

// addSmall adds delta days to the smaller of the two parts.
func addSmall(p1, p2, delta float64) (float64, float64) {
	if math.Abs(p1) >= math.Abs(p2) {
		return p1, p2 + delta
	}
	return p1 + delta, p2
}

func tttcg(tt1, tt2 float64) (float64, float64) {
	const (
		t77t = mjd1977 + ttMinusTAI/secondsPerDay
		elgg = elg / (1 - elg)
	)
	if math.Abs(tt1) > math.Abs(tt2) {
		return tt1, tt2 + ((tt1-mjdZero)+(tt2-t77t))*elgg
	}
	return tt1 + ((tt2-mjdZero)+(tt1-t77t))*elgg, tt2
}

func tcgtt(tcg1, tcg2 float64) (float64, float64) {
	const t77t = mjd1977 + ttMinusTAI/secondsPerDay
	if math.Abs(tcg1) > math.Abs(tcg2) {
		return tcg1, tcg2 - ((tcg1-mjdZero)+(tcg2-t77t))*elg
	}
	return tcg1 - ((tcg2-mjdZero)+(tcg1-t77t))*elg, tcg2
}

func tdbtcb(tdb1, tdb2 float64) (float64, float64) {
	const (
		t77td = mjdZero + mjd1977
		t77tf = ttMinusTAI / secondsPerDay
		tdb0d = tdb0 / secondsPerDay
		elbb  = elb / (1 - elb)
	)
	if math.Abs(tdb1) > math.Abs(tdb2) {
		d := t77td - tdb1
		f := tdb2 - tdb0d
		return tdb1, f - (d-(f-t77tf))*elbb
	}
	d := t77td - tdb2
	f := tdb1 - tdb0d
	return f - (d-(f-t77tf))*elbb, tdb2
}

func tcbtdb(tcb1, tcb2 float64) (float64, float64) {
	const (
		t77td = mjdZero + mjd1977
		t77tf = ttMinusTAI / secondsPerDay
		tdb0d = tdb0 / secondsPerDay
	)
	if math.Abs(tcb1) > math.Abs(tcb2) {
		d := tcb1 - t77td
		return tcb1, tcb2 + tdb0d - (d+(tcb2-t77tf))*elb
	}
	d := tcb2 - t77td
	return tcb1 + tdb0d - (d+(tcb1-t77tf))*elb, tcb2
}
