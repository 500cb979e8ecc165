package ops

import (
	"math"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/decode"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/registry"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
	"github.com/felixgeelhaar/astrobridge/internal/native"
)

// twoPart is an ERFA routine taking and returning a two-part Julian date.
type twoPart func(lib native.Library, d1, d2 float64) (float64, float64)

// scaleConversion builds a single-argument Julian date conversion. The input
// is split as (J2000, jd - J2000) and the two output parts are summed.
func scaleConversion(name, routine, from, to string, convert twoPart) registry.Operation {
	return registry.Operation{
		Name:        name,
		Routine:     routine,
		Description: "Converts a " + from + " Julian date to " + to,
		Returns:     to + " Julian date",
		Params:      []decode.Slot{decode.Num("jd")},
		Shape:       registry.Single,
		Cacheable:   true,
		Invoke: func(lib native.Library, args *decode.Args, out *registry.Frame) {
			j2000 := lib.J2000()
			jd := args.Number(0)
			a, b := convert(lib, j2000, jd-j2000)
			out.Scalar = a + b
		},
		Encode: encodeScalar,
	}
}

// periodicTerm returns TDB-TT in seconds, from the mean anomaly of the Earth
// at the given Julian date.
func periodicTerm(j2000, jd float64) float64 {
	g := (357.53 + 0.9856003*(jd-j2000)) * math.Pi / 180
	return 0.001658*math.Sin(g) + 0.000014*math.Sin(2*g)
}

func timeScales() []registry.Operation {
	return []registry.Operation{
		{
			Name:        "calendar-to-epoch",
			Routine:     "dtf2d",
			Description: "UTC calendar date and time to a Julian date",
			Returns:     "Julian date",
			Params: []decode.Slot{
				decode.Int("year"),
				decode.Int("month"),
				decode.Int("day"),
				decode.Int("hour"),
				decode.Int("minute"),
				decode.Num("second"),
			},
			Shape:     registry.Single,
			Cacheable: true,
			Invoke: func(lib native.Library, args *decode.Args, out *registry.Frame) {
				d1, d2 := lib.Dtf2d("UTC", args.Int(0), args.Int(1), args.Int(2), args.Int(3), args.Int(4), args.Number(5))
				out.Scalar = d1 + d2
			},
			Encode: encodeScalar,
		},
		{
			Name:        "epoch-to-calendar",
			Routine:     "jd2dt",
			Description: "Julian date to calendar date and time",
			Returns:     "{year, month, day, hour, minute, second, microsecond}",
			Params:      []decode.Slot{decode.Num("jd")},
			Shape:       registry.Single,
			Cacheable:   true,
			Invoke: func(lib native.Library, args *decode.Args, out *registry.Frame) {
				j2000 := lib.J2000()
				iy, im, id, fd := lib.Jd2cal(j2000, args.Number(0)-j2000)
				_, hmsf := lib.D2tf(CalendarPrecision, fd)
				out.Calendar = [7]int32{iy, im, id, hmsf[0], hmsf[1], hmsf[2], hmsf[3]}
			},
			Encode: func(out *registry.Frame) []term.Term {
				fields := make([]term.Term, len(out.Calendar))
				for i, v := range out.Calendar {
					fields[i] = term.Int(int64(v))
				}
				return []term.Term{term.Tuple(fields...)}
			},
		},
		scaleConversion("utc-to-tai", "utc2tai", "UTC", "TAI", func(lib native.Library, a, b float64) (float64, float64) {
			return lib.Utctai(a, b)
		}),
		scaleConversion("tai-to-utc", "tai2utc", "TAI", "UTC", func(lib native.Library, a, b float64) (float64, float64) {
			return lib.Taiutc(a, b)
		}),
		scaleConversion("tai-to-tt", "tai2tt", "TAI", "TT", func(lib native.Library, a, b float64) (float64, float64) {
			return lib.Taitt(a, b)
		}),
		scaleConversion("tt-to-tai", "tt2tai", "TT", "TAI", func(lib native.Library, a, b float64) (float64, float64) {
			return lib.Tttai(a, b)
		}),
		scaleConversion("tt-to-tcg", "tt2tcg", "TT", "TCG", func(lib native.Library, a, b float64) (float64, float64) {
			return lib.Tttcg(a, b)
		}),
		scaleConversion("tcg-to-tt", "tcg2tt", "TCG", "TT", func(lib native.Library, a, b float64) (float64, float64) {
			return lib.Tcgtt(a, b)
		}),
		scaleConversion("tt-to-tdb", "tt2tdb", "TT", "TDB", func(lib native.Library, a, b float64) (float64, float64) {
			return lib.Tttdb(a, b, periodicTerm(a, a+b))
		}),
		scaleConversion("tdb-to-tt", "tdb2tt", "TDB", "TT", func(lib native.Library, a, b float64) (float64, float64) {
			return lib.Tdbtt(a, b, periodicTerm(a, a+b))
		}),
		scaleConversion("tdb-to-tcb", "tdb2tcb", "TDB", "TCB", func(lib native.Library, a, b float64) (float64, float64) {
			return lib.Tdbtcb(a, b)
		}),
		scaleConversion("tcb-to-tdb", "tcb2tdb", "TCB", "TDB", func(lib native.Library, a, b float64) (float64, float64) {
			return lib.Tcbtdb(a, b)
		}),
		{
			Name:        "string-to-epoch",
			Routine:     "str2et",
			Description: "Time string to ephemeris time, seconds past J2000 TDB",
			Returns:     "ephemeris time",
			Params:      []decode.Slot{decode.Str("time")},
			Shape:       registry.Single,
			Cacheable:   true,
			Invoke: func(lib native.Library, args *decode.Args, out *registry.Frame) {
				out.Scalar = lib.Str2et(args.String(0))
			},
			Encode: encodeScalar,
		},
		{
			Name:        "utc-string-to-epoch",
			Routine:     "utc2et",
			Description: "UTC time string to ephemeris time",
			Returns:     "ephemeris time",
			Params:      []decode.Slot{decode.Str("utc")},
			Shape:       registry.Single,
			Cacheable:   true,
			Invoke: func(lib native.Library, args *decode.Args, out *registry.Frame) {
				out.Scalar = lib.Utc2et(args.String(0))
			},
			Encode: encodeScalar,
		},
		{
			Name:        "convert-time-scale",
			Routine:     "unitim",
			Description: "Converts an epoch between uniform time scales",
			Returns:     "epoch in the output scale",
			Params:      []decode.Slot{decode.Num("epoch"), decode.Str("from"), decode.Str("to")},
			Shape:       registry.Single,
			Cacheable:   true,
			Invoke: func(lib native.Library, args *decode.Args, out *registry.Frame) {
				out.Scalar = lib.Unitim(args.Number(0), args.String(1), args.String(2))
			},
			Encode: encodeScalar,
		},
		{
			Name:        "seconds-to-day",
			Routine:     "sec2day",
			Description: "Seconds past J2000 to a Julian date",
			Returns:     "Julian date",
			Params:      []decode.Slot{decode.Num("seconds")},
			Shape:       registry.Single,
			Invoke: func(lib native.Library, args *decode.Args, out *registry.Frame) {
				out.Scalar = args.Number(0)/lib.Spd() + lib.J2000()
			},
			Encode: encodeScalar,
		},
		{
			Name:        "day-to-seconds",
			Routine:     "day2sec",
			Description: "Julian date to seconds past J2000",
			Returns:     "seconds past J2000",
			Params:      []decode.Slot{decode.Num("jd")},
			Shape:       registry.Single,
			Invoke: func(lib native.Library, args *decode.Args, out *registry.Frame) {
				out.Scalar = (args.Number(0) - lib.J2000()) * lib.Spd()
			},
			Encode: encodeScalar,
		},
	}
}
