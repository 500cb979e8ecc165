package ops

import (
	"github.com/felixgeelhaar/astrobridge/internal/bridge/decode"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/registry"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
	"github.com/felixgeelhaar/astrobridge/internal/native"
)

func bodies() []registry.Operation {
	encodeValues := func(out *registry.Frame) []term.Term {
		return []term.Term{term.Floats(out.Values...)}
	}

	return []registry.Operation{
		{
			Name:        "code-to-name",
			Routine:     "bodc2n",
			Description: "Name of a body from its NAIF code",
			Returns:     "name",
			Params:      []decode.Slot{decode.Int("code")},
			Shape:       registry.Single,
			Lookup:      "body",
			Cacheable:   true,
			Invoke: func(lib native.Library, args *decode.Args, out *registry.Frame) {
				out.Name, out.Found = lib.Bodc2n(args.Int(0), NameLength)
			},
			Encode: func(out *registry.Frame) []term.Term {
				return []term.Term{term.Binary(out.Name)}
			},
		},
		{
			Name:        "name-to-code",
			Routine:     "bodn2c",
			Description: "NAIF code of a body from its name",
			Returns:     "code",
			Params:      []decode.Slot{decode.Str("name")},
			Shape:       registry.Single,
			Lookup:      "body",
			Cacheable:   true,
			Invoke: func(lib native.Library, args *decode.Args, out *registry.Frame) {
				out.Int, out.Found = lib.Bodn2c(args.String(0))
			},
			Encode: func(out *registry.Frame) []term.Term {
				return []term.Term{term.Int(int64(out.Int))}
			},
		},
		{
			Name:        "body-constant-by-code",
			Routine:     "bodvcd",
			Description: "Values of a body constant from the kernel pool",
			Returns:     "list of up to 16 numbers",
			Params:      []decode.Slot{decode.Int("code"), decode.Str("item")},
			Shape:       registry.Single,
			Cacheable:   true,
			Invoke: func(lib native.Library, args *decode.Args, out *registry.Frame) {
				out.Values = lib.Bodvcd(args.Int(0), args.String(1), MaxConstantValues)
			},
			Encode: encodeValues,
		},
		{
			Name:        "body-constant-by-name",
			Routine:     "bodvrd",
			Description: "Values of a body constant, body given by name",
			Returns:     "list of up to 16 numbers",
			Params:      []decode.Slot{decode.Str("body"), decode.Str("item")},
			Shape:       registry.Single,
			Cacheable:   true,
			Invoke: func(lib native.Library, args *decode.Args, out *registry.Frame) {
				out.Values = lib.Bodvrd(args.String(0), args.String(1), MaxConstantValues)
			},
			Encode: encodeValues,
		},
	}
}
