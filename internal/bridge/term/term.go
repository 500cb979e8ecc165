// Package term provides the structured dynamic values exchanged with bridge callers.
//
// A Term is one of: integer, float, binary (byte string), list, tuple or atom.
// Terms are immutable once built; constructors copy their inputs.
package term

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Term.
type Kind uint8

const (
	// KindInvalid is the zero Kind; a zero Term holds no value.
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindBinary
	KindList
	KindTuple
	KindAtom
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindBinary:
		return "binary"
	case KindList:
		return "list"
	case KindTuple:
		return "tuple"
	case KindAtom:
		return "atom"
	default:
		return "invalid"
	}
}

// Term is a structured dynamic value.
type Term struct {
	kind  Kind
	i     int64
	f     float64
	s     string
	elems []Term
}

// Common atoms used by result tagging.
var (
	AtomOK    = Atom("ok")
	AtomError = Atom("error")
)

// Int builds an integer term.
func Int(v int64) Term { return Term{kind: KindInt, i: v} }

// Float builds a float term.
func Float(v float64) Term { return Term{kind: KindFloat, f: v} }

// Binary builds a binary term from a string.
func Binary(s string) Term { return Term{kind: KindBinary, s: s} }

// Bytes builds a binary term from a byte slice.
func Bytes(b []byte) Term { return Term{kind: KindBinary, s: string(b)} }

// Atom builds an atom term.
func Atom(name string) Term { return Term{kind: KindAtom, s: name} }

// List builds a list term.
func List(elems ...Term) Term {
	return Term{kind: KindList, elems: cloneTerms(elems)}
}

// Tuple builds a tuple term.
func Tuple(elems ...Term) Term {
	return Term{kind: KindTuple, elems: cloneTerms(elems)}
}

// Floats builds a list of float terms.
func Floats(values ...float64) Term {
	elems := make([]Term, len(values))
	for i, v := range values {
		elems[i] = Float(v)
	}
	return Term{kind: KindList, elems: elems}
}

// Ints builds a list of integer terms.
func Ints[T ~int | ~int32 | ~int64](values ...T) Term {
	elems := make([]Term, len(values))
	for i, v := range values {
		elems[i] = Int(int64(v))
	}
	return Term{kind: KindList, elems: elems}
}

func cloneTerms(elems []Term) []Term {
	if len(elems) == 0 {
		return []Term{}
	}
	out := make([]Term, len(elems))
	copy(out, elems)
	return out
}

// Kind returns the variant held by t.
func (t Term) Kind() Kind { return t.kind }

// IsValid reports whether t holds a value.
func (t Term) IsValid() bool { return t.kind != KindInvalid }

// Int returns the integer value if t is an integer.
func (t Term) Int() (int64, bool) {
	if t.kind != KindInt {
		return 0, false
	}
	return t.i, true
}

// Float returns the float value if t is a float.
func (t Term) Float() (float64, bool) {
	if t.kind != KindFloat {
		return 0, false
	}
	return t.f, true
}

// Number returns the numeric value of an integer or float term.
func (t Term) Number() (float64, bool) {
	switch t.kind {
	case KindInt:
		return float64(t.i), true
	case KindFloat:
		return t.f, true
	default:
		return 0, false
	}
}

// Binary returns the byte string if t is a binary.
func (t Term) Binary() (string, bool) {
	if t.kind != KindBinary {
		return "", false
	}
	return t.s, true
}

// AtomName returns the atom name if t is an atom.
func (t Term) AtomName() (string, bool) {
	if t.kind != KindAtom {
		return "", false
	}
	return t.s, true
}

// Elems returns the elements of a list or tuple. The slice must not be modified.
func (t Term) Elems() ([]Term, bool) {
	if t.kind != KindList && t.kind != KindTuple {
		return nil, false
	}
	return t.elems, true
}

// Len returns the element count of a list or tuple, or the byte length of a binary.
func (t Term) Len() int {
	switch t.kind {
	case KindList, KindTuple:
		return len(t.elems)
	case KindBinary:
		return len(t.s)
	default:
		return 0
	}
}

// Equal reports whether two terms are structurally identical.
// Float comparison is bitwise so NaN equals NaN.
func (t Term) Equal(o Term) bool {
	if t.kind != o.kind {
		return false
	}
	switch t.kind {
	case KindInt:
		return t.i == o.i
	case KindFloat:
		return math.Float64bits(t.f) == math.Float64bits(o.f)
	case KindBinary, KindAtom:
		return t.s == o.s
	case KindList, KindTuple:
		if len(t.elems) != len(o.elems) {
			return false
		}
		for i := range t.elems {
			if !t.elems[i].Equal(o.elems[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String renders the term in a compact tuple/list notation.
func (t Term) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t Term) write(b *strings.Builder) {
	switch t.kind {
	case KindInt:
		b.WriteString(strconv.FormatInt(t.i, 10))
	case KindFloat:
		s := strconv.FormatFloat(t.f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		b.WriteString(s)
	case KindBinary:
		b.WriteString(strconv.Quote(t.s))
	case KindAtom:
		b.WriteString(t.s)
	case KindList, KindTuple:
		open, closing := "[", "]"
		if t.kind == KindTuple {
			open, closing = "{", "}"
		}
		b.WriteString(open)
		for i, e := range t.elems {
			if i > 0 {
				b.WriteString(", ")
			}
			e.write(b)
		}
		b.WriteString(closing)
	default:
		b.WriteString("<invalid>")
	}
}
