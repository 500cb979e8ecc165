package ops

import (
	"github.com/felixgeelhaar/astrobridge/internal/bridge/decode"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/registry"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
	"github.com/felixgeelhaar/astrobridge/internal/native"
)

func ephemeris() []registry.Operation {
	return []registry.Operation{
		{
			Name:        "state-vector-by-name",
			Routine:     "spkezr",
			Description: "State of a target body relative to an observer, both named",
			Returns:     "state vector [6], light time",
			Params: []decode.Slot{
				decode.Str("target"),
				decode.Num("epoch"),
				decode.Str("frame"),
				decode.Str("abcorr"),
				decode.Str("observer"),
			},
			Shape:     registry.Pair,
			Cacheable: true,
			Invoke: func(lib native.Library, args *decode.Args, out *registry.Frame) {
				out.State, out.LT = lib.Spkezr(args.String(0), args.Number(1), args.String(2), args.String(3), args.String(4))
			},
			Encode: encodeStateLT,
		},
		{
			Name:        "state-vector-by-code",
			Routine:     "spkez",
			Description: "State of a target body relative to an observer, both by NAIF code",
			Returns:     "state vector [6], light time",
			Params: []decode.Slot{
				decode.Int("target"),
				decode.Num("epoch"),
				decode.Str("frame"),
				decode.Str("abcorr"),
				decode.Int("observer"),
			},
			Shape:     registry.Pair,
			Cacheable: true,
			Invoke: func(lib native.Library, args *decode.Args, out *registry.Frame) {
				out.State, out.LT = lib.Spkez(args.Int(0), args.Number(1), args.String(2), args.String(3), args.Int(4))
			},
			Encode: encodeStateLT,
		},
		{
			Name:        "state-vector-geometric",
			Routine:     "spkgeo",
			Description: "Geometric state of a target body relative to an observer",
			Returns:     "state vector [6], light time",
			Params: []decode.Slot{
				decode.Int("target"),
				decode.Num("epoch"),
				decode.Str("frame"),
				decode.Int("observer"),
			},
			Shape:     registry.Pair,
			Cacheable: true,
			Invoke: func(lib native.Library, args *decode.Args, out *registry.Frame) {
				out.State, out.LT = lib.Spkgeo(args.Int(0), args.Number(1), args.String(2), args.Int(3))
			},
			Encode: encodeStateLT,
		},
		{
			Name:        "osculating-elements",
			Routine:     "oscelt",
			Description: "Osculating conic elements of a state",
			Returns:     "elements [rp, ecc, inc, lnode, argp, m0, t0, mu]",
			Params: []decode.Slot{
				decode.Vec("state", 6),
				decode.Num("epoch"),
				decode.Num("mu"),
			},
			Shape:     registry.Single,
			Cacheable: true,
			Invoke: func(lib native.Library, args *decode.Args, out *registry.Frame) {
				var state [6]float64
				copy(state[:], args.Vector(0))
				out.Elements = lib.Oscelt(state, args.Number(1), args.Number(2))
			},
			Encode: func(out *registry.Frame) []term.Term {
				return []term.Term{term.Floats(out.Elements[:]...)}
			},
		},
		{
			Name:        "state-from-elements",
			Routine:     "conics",
			Description: "State at an epoch propagated from conic elements",
			Returns:     "state vector [6]",
			Params: []decode.Slot{
				decode.Vec("elements", 8),
				decode.Num("epoch"),
			},
			Shape:     registry.Single,
			Cacheable: true,
			Invoke: func(lib native.Library, args *decode.Args, out *registry.Frame) {
				var elts [8]float64
				copy(elts[:], args.Vector(0))
				out.State = lib.Conics(elts, args.Number(1))
			},
			Encode: encodeState,
		},
		{
			Name:        "objects-in-file",
			Routine:     "spkobj",
			Description: "Body codes covered by an ephemeris file",
			Returns:     "list of body codes",
			Params:      []decode.Slot{decode.Str("file")},
			Shape:       registry.Single,
			Invoke: func(lib native.Library, args *decode.Args, out *registry.Frame) {
				out.Codes = lib.Spkobj(args.String(0), MaxObjects)
			},
			Encode: func(out *registry.Frame) []term.Term {
				return []term.Term{term.Ints(out.Codes...)}
			},
		},
	}
}
