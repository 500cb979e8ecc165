package emulated

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	j2000JD       = 2451545.0
	j2000MJD      = 51544.5
	mjdZero       = 2400000.5
	secondsPerDay = 86400.0
)

var monthNames = [12]string{
	"JANUARY", "FEBRUARY", "MARCH", "APRIL", "MAY", "JUNE",
	"JULY", "AUGUST", "SEPTEMBER", "OCTOBER", "NOVEMBER", "DECEMBER",
}

var monthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func isLeapYear(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

func daysInMonth(y, m int) int {
	if m == 2 && isLeapYear(y) {
		return 29
	}
	return monthDays[m-1]
}

// cal2jd returns the modified Julian date at 0h of a Gregorian calendar date.
// The status follows the ERFA convention: 0 ok, -1 bad year, -2 bad month,
// -3 bad day.
func cal2jd(iy, im, id int) (djm float64, status int) {
	if iy < -4799 {
		return 0, -1
	}
	if im < 1 || im > 12 {
		return 0, -2
	}
	if id < 1 || id > daysInMonth(iy, im) {
		status = -3
	}
	my := (im - 14) / 12
	iypmy := int64(iy + my)
	djm = float64((1461*(iypmy+4800))/4 +
		(367*int64(im-2-12*my))/12 -
		(3*((iypmy+4900)/100))/4 +
		int64(id) - 2432076)
	return djm, status
}

// jd2cal splits a two-part Julian date into a Gregorian date and day fraction.
func jd2cal(dj1, dj2 float64) (iy, im, id int, fd float64, status int) {
	const (
		djMin = -68569.5
		djMax = 1e9
		eps   = 2.220446049250313e-16
	)
	dj := dj1 + dj2
	if dj < djMin || dj > djMax {
		return 0, 0, 0, 0, -1
	}

	d := math.Round(dj1)
	f1 := dj1 - d
	jd := int64(d)
	d = math.Round(dj2)
	f2 := dj2 - d
	jd += int64(d)

	s, cs := 0.5, 0.0
	for _, x := range [2]float64{f1, f2} {
		t := s + x
		if math.Abs(s) >= math.Abs(x) {
			cs += (s - t) + x
		} else {
			cs += (x - t) + s
		}
		s = t
		if s >= 1.0 {
			jd++
			s -= 1.0
		}
	}
	f := s + cs
	cs = f - s

	if f < 0 {
		f = s + 1.0
		cs += (1.0 - f) + s
		s = f
		f = s + cs
		cs = f - s
		jd--
	}

	if f-1.0 >= -eps/4.0 {
		t := s - 1.0
		cs += (s - t) - 1.0
		s = t
		f = s + cs
		if -eps/2.0 < f {
			jd++
			f = math.Max(f, 0)
		}
	}

	l := jd + 68569
	n := (4 * l) / 146097
	l -= (146097*n + 3) / 4
	i := (4000 * (l + 1)) / 1461001
	l -= (1461*i)/4 - 31
	k := (80 * l) / 2447
	id = int(l - (2447*k)/80)
	l = k / 11
	im = int(k + 2 - 12*l)
	iy = int(100*(n-49) + i + l)
	return iy, im, id, f, 0
}

// d2tf decomposes a signed day fraction into hours, minutes, seconds and a
// fraction of a second rounded to ndp decimal places.
func d2tf(ndp int, days float64) (sign byte, ihmsf [4]int32) {
	sign = '+'
	if days < 0 {
		sign = '-'
	}
	a := secondsPerDay * math.Abs(days)

	if ndp < 0 {
		nrs := 1.0
		for n := 1; n <= -ndp; n++ {
			if n == 2 || n == 4 {
				nrs *= 6
			} else {
				nrs *= 10
			}
		}
		a = nrs * math.Round(a/nrs)
	}

	rs := 1.0
	for n := 1; n <= ndp; n++ {
		rs *= 10
	}
	rm := rs * 60
	rh := rm * 60

	a = math.Round(rs * a)
	ah := math.Trunc(a / rh)
	a -= ah * rh
	am := math.Trunc(a / rm)
	a -= am * rm
	as := math.Trunc(a / rs)
	af := a - as*rs

	ihmsf = [4]int32{int32(ah), int32(am), int32(as), int32(af)}
	return sign, ihmsf
}

// timeSpec is a parsed calendar or Julian date time string.
type timeSpec struct {
	system  string
	labeled bool

	isJD bool
	jd   float64

	year, month, day int
	hour, minute     int
	sec              float64
}

// formalSeconds counts seconds past J2000 assuming 86400-second days.
func (t timeSpec) formalSeconds() float64 {
	djm, _ := cal2jd(t.year, t.month, t.day)
	return (djm-j2000MJD)*secondsPerDay + float64(t.hour*3600+t.minute*60) + t.sec
}

var errTimeString = errors.New("unrecognized time string")

const clockPattern = `(?:[ T,]+(\d{1,2}):(\d{1,2})(?::(\d{1,2}(?:\.\d*)?))?)?`

var (
	isoPattern      = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})` + clockPattern + `$`)
	doyPattern      = regexp.MustCompile(`^(\d{4})-(\d{3})` + clockPattern + `$`)
	yearMonPattern  = regexp.MustCompile(`^(\d{3,4})[ -]([A-Z]{3,9})[ -](\d{1,2})` + clockPattern + `$`)
	monDayPattern   = regexp.MustCompile(`^([A-Z]{3,9})[ -](\d{1,2}),?[ -](\d{3,4})` + clockPattern + `$`)
	dayMonPattern   = regexp.MustCompile(`^(\d{1,2})[ -]([A-Z]{3,9})[ -](\d{3,4})` + clockPattern + `$`)
	timeSystemLabel = map[string]bool{"UTC": true, "TDB": true, "TDT": true}
)

// parseTimeString recognizes ISO calendar and day-of-year forms, month-name
// calendar forms and "JD <number>", each with an optional trailing UTC, TDB
// or TDT label.
func parseTimeString(s string) (timeSpec, error) {
	fields := strings.Fields(strings.ToUpper(s))
	if len(fields) == 0 {
		return timeSpec{}, fmt.Errorf("%w: blank", errTimeString)
	}

	spec := timeSpec{system: "UTC"}
	if last := fields[len(fields)-1]; timeSystemLabel[last] {
		spec.system = last
		spec.labeled = true
		fields = fields[:len(fields)-1]
	}
	body := strings.Join(fields, " ")

	if rest, ok := strings.CutPrefix(body, "JD"); ok {
		rest = strings.TrimSpace(rest)
		for _, sys := range []string{"TDB", "TDT", "UTC"} {
			if r, ok := strings.CutPrefix(rest, sys); ok && !spec.labeled {
				spec.system = sys
				spec.labeled = true
				rest = strings.TrimSpace(r)
				break
			}
		}
		jd, err := strconv.ParseFloat(rest, 64)
		if err != nil || math.IsNaN(jd) || math.IsInf(jd, 0) {
			return timeSpec{}, fmt.Errorf("%w: %q", errTimeString, s)
		}
		spec.isJD = true
		spec.jd = jd
		return spec, nil
	}

	var (
		year, month, day int
		clock            []string
		err              error
	)
	switch {
	case isoPattern.MatchString(body):
		m := isoPattern.FindStringSubmatch(body)
		year, _ = strconv.Atoi(m[1])
		month, _ = strconv.Atoi(m[2])
		day, _ = strconv.Atoi(m[3])
		clock = m[4:]
	case doyPattern.MatchString(body):
		m := doyPattern.FindStringSubmatch(body)
		year, _ = strconv.Atoi(m[1])
		doy, _ := strconv.Atoi(m[2])
		if month, day, err = fromDayOfYear(year, doy); err != nil {
			return timeSpec{}, err
		}
		clock = m[3:]
	case yearMonPattern.MatchString(body):
		m := yearMonPattern.FindStringSubmatch(body)
		year, _ = strconv.Atoi(m[1])
		if month, err = monthNumber(m[2]); err != nil {
			return timeSpec{}, err
		}
		day, _ = strconv.Atoi(m[3])
		clock = m[4:]
	case monDayPattern.MatchString(body):
		m := monDayPattern.FindStringSubmatch(body)
		if month, err = monthNumber(m[1]); err != nil {
			return timeSpec{}, err
		}
		day, _ = strconv.Atoi(m[2])
		year, _ = strconv.Atoi(m[3])
		clock = m[4:]
	case dayMonPattern.MatchString(body):
		m := dayMonPattern.FindStringSubmatch(body)
		day, _ = strconv.Atoi(m[1])
		if month, err = monthNumber(m[2]); err != nil {
			return timeSpec{}, err
		}
		year, _ = strconv.Atoi(m[3])
		clock = m[4:]
	default:
		return timeSpec{}, fmt.Errorf("%w: %q", errTimeString, s)
	}

	spec.year, spec.month, spec.day = year, month, day
	if clock[0] != "" {
		spec.hour, _ = strconv.Atoi(clock[0])
		spec.minute, _ = strconv.Atoi(clock[1])
		if clock[2] != "" {
			spec.sec, _ = strconv.ParseFloat(clock[2], 64)
		}
	}
	if err := spec.validate(); err != nil {
		return timeSpec{}, err
	}
	return spec, nil
}

func (t timeSpec) validate() error {
	switch {
	case t.month < 1 || t.month > 12:
		return fmt.Errorf("month %d is out of range", t.month)
	case t.day < 1 || t.day > daysInMonth(t.year, t.month):
		return fmt.Errorf("day %d is out of range for %s %d", t.day, monthNames[t.month-1][:3], t.year)
	case t.hour > 23:
		return fmt.Errorf("hour %d is out of range", t.hour)
	case t.minute > 59:
		return fmt.Errorf("minute %d is out of range", t.minute)
	}
	limit := 60.0
	if t.system == "UTC" && t.hour == 23 && t.minute == 59 {
		limit = 61.0
	}
	if t.sec >= limit {
		return fmt.Errorf("seconds %g are out of range", t.sec)
	}
	return nil
}

func monthNumber(name string) (int, error) {
	for i, full := range monthNames {
		if strings.HasPrefix(full, name) {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown month %q", errTimeString, name)
}

func fromDayOfYear(year, doy int) (month, day int, err error) {
	total := 365
	if isLeapYear(year) {
		total = 366
	}
	if doy < 1 || doy > total {
		return 0, 0, fmt.Errorf("day of year %d is out of range", doy)
	}
	for m := 1; m <= 12; m++ {
		n := daysInMonth(year, m)
		if doy <= n {
			return m, doy, nil
		}
		doy -= n
	}
	return 0, 0, fmt.Errorf("day of year %d is out of range", doy)
}
