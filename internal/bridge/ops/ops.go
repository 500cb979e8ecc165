// Package ops defines the operation catalogue: every operation the bridge
// exposes, with its parameter slots, native invocation and result encoding.
package ops

import (
	"log/slog"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/registry"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
)

const (
	// NameLength is the output buffer length used for body names.
	NameLength = 36

	// MaxObjects is the capacity of the body code set read from a file.
	MaxObjects = 1000

	// MaxConstantValues is the largest body constant returned.
	MaxConstantValues = 16

	// CalendarPrecision is the number of decimal places of the calendar
	// seconds fraction, giving microseconds.
	CalendarPrecision = 6
)

// Catalogue returns every operation in registration order.
func Catalogue() []registry.Operation {
	var all []registry.Operation
	all = append(all, ephemeris()...)
	all = append(all, bodies()...)
	all = append(all, timeScales()...)
	return all
}

// Register adds the catalogue to table.
func Register(table *registry.Table) error {
	for _, op := range Catalogue() {
		if err := table.Register(op); err != nil {
			return err
		}
	}
	return nil
}

// NewTable returns a frozen table holding the full catalogue.
func NewTable(logger *slog.Logger) (*registry.Table, error) {
	table := registry.NewTable(logger)
	if err := Register(table); err != nil {
		return nil, err
	}
	table.Freeze()
	return table, nil
}

func encodeState(out *registry.Frame) []term.Term {
	return []term.Term{term.Floats(out.State[:]...)}
}

func encodeStateLT(out *registry.Frame) []term.Term {
	return []term.Term{term.Floats(out.State[:]...), term.Float(out.LT)}
}

func encodeScalar(out *registry.Frame) []term.Term {
	return []term.Term{term.Float(out.Scalar)}
}
