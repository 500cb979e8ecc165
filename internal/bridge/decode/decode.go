// Package decode validates positional call arguments against an operation's
// parameter slots and converts them into native-ready values.
//
// Decoded buffers are owned by the returned Args and must be returned with
// Release once the native call has finished, on every path.
package decode

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
)

// Kind is the expected type of an argument slot.
type Kind uint8

const (
	// Number accepts an integer or a float and yields a float64.
	Number Kind = iota + 1
	// Integer accepts an integer in int32 range.
	Integer
	// String accepts a binary and yields an owned copy.
	String
	// Vector accepts a list of exactly Len numbers.
	Vector
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Integer:
		return "integer"
	case String:
		return "string"
	case Vector:
		return "vector"
	default:
		return "unknown"
	}
}

// Slot describes one positional parameter.
type Slot struct {
	Name string
	Kind Kind
	Len  int
}

// Describe renders the slot type, e.g. "vector[6]".
func (s Slot) Describe() string {
	if s.Kind == Vector {
		return fmt.Sprintf("vector[%d]", s.Len)
	}
	return s.Kind.String()
}

// Num declares a number slot.
func Num(name string) Slot { return Slot{Name: name, Kind: Number} }

// Int declares an integer slot.
func Int(name string) Slot { return Slot{Name: name, Kind: Integer} }

// Str declares a string slot.
func Str(name string) Slot { return Slot{Name: name, Kind: String} }

// Vec declares a fixed-length numeric vector slot.
func Vec(name string, n int) Slot { return Slot{Name: name, Kind: Vector, Len: n} }

var (
	vectorPool = sync.Pool{
		New: func() any {
			buf := make([]float64, 0, 8)
			return &buf
		},
	}
	outstanding atomic.Int64
)

// Outstanding returns the number of vector buffers not yet released.
func Outstanding() int64 {
	return outstanding.Load()
}

type value struct {
	kind Kind
	num  float64
	i    int32
	s    string
	vec  *[]float64
}

// Args is a decoded argument set.
type Args struct {
	op       string
	values   []value
	released bool
}

// Decode validates raw against slots.
// On failure no buffers remain outstanding and the error is a *sdk.DecodeError.
func Decode(op string, slots []Slot, raw []term.Term) (*Args, error) {
	if len(raw) != len(slots) {
		return nil, &sdk.DecodeError{
			Operation: op,
			Slot:      -1,
			Reason:    fmt.Sprintf("%s expects %d arguments, got %d", op, len(slots), len(raw)),
		}
	}

	args := &Args{op: op, values: make([]value, len(slots))}
	for i, slot := range slots {
		v, reason := decodeSlot(slot, raw[i])
		if reason != "" {
			args.Release()
			return nil, sdk.NewDecodeError(op, i, slot.Name, reason)
		}
		args.values[i] = v
	}
	return args, nil
}

func decodeSlot(slot Slot, t term.Term) (value, string) {
	switch slot.Kind {
	case Number:
		f, ok := t.Number()
		if !ok {
			return value{}, mismatch("number", t)
		}
		return value{kind: Number, num: f}, ""

	case Integer:
		n, ok := t.Int()
		if !ok {
			return value{}, mismatch("integer", t)
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return value{}, fmt.Sprintf("integer %d out of range", n)
		}
		return value{kind: Integer, i: int32(n)}, ""

	case String:
		s, ok := t.Binary()
		if !ok {
			return value{}, mismatch("binary", t)
		}
		return value{kind: String, s: strings.Clone(s)}, ""

	case Vector:
		elems, ok := t.Elems()
		if !ok || t.Kind() != term.KindList {
			return value{}, mismatch(fmt.Sprintf("list of %d numbers", slot.Len), t)
		}
		if len(elems) != slot.Len {
			return value{}, fmt.Sprintf("expected list of %d numbers, got %d elements", slot.Len, len(elems))
		}
		buf := vectorPool.Get().(*[]float64)
		*buf = (*buf)[:0]
		for j, e := range elems {
			f, ok := e.Number()
			if !ok {
				vectorPool.Put(buf)
				return value{}, fmt.Sprintf("element %d: %s", j, mismatch("number", e))
			}
			*buf = append(*buf, f)
		}
		outstanding.Add(1)
		return value{kind: Vector, vec: buf}, ""

	default:
		return value{}, fmt.Sprintf("unsupported slot kind %d", slot.Kind)
	}
}

func mismatch(want string, got term.Term) string {
	return fmt.Sprintf("expected %s, got %s", want, got.Kind())
}

// Operation returns the operation the arguments were decoded for.
func (a *Args) Operation() string { return a.op }

// Len returns the number of decoded arguments.
func (a *Args) Len() int { return len(a.values) }

// Number returns slot i as a float64.
func (a *Args) Number(i int) float64 {
	a.must(i, Number)
	return a.values[i].num
}

// Int returns slot i as an int32.
func (a *Args) Int(i int) int32 {
	a.must(i, Integer)
	return a.values[i].i
}

// String returns slot i as an owned string.
func (a *Args) String(i int) string {
	a.must(i, String)
	return a.values[i].s
}

// Vector returns slot i as a slice valid until Release.
func (a *Args) Vector(i int) []float64 {
	a.must(i, Vector)
	return *a.values[i].vec
}

// Release returns pooled buffers. It is safe to call more than once.
func (a *Args) Release() {
	if a == nil || a.released {
		return
	}
	a.released = true
	for i := range a.values {
		if buf := a.values[i].vec; buf != nil {
			a.values[i].vec = nil
			vectorPool.Put(buf)
			outstanding.Add(-1)
		}
	}
}

func (a *Args) must(i int, kind Kind) {
	if a.released {
		panic(fmt.Sprintf("decode: %s argument %d read after release", a.op, i))
	}
	if i < 0 || i >= len(a.values) || a.values[i].kind != kind {
		panic(fmt.Sprintf("decode: %s argument %d is not a %s", a.op, i, kind))
	}
}
