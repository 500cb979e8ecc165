package term

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical options so equal terms encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("term: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type wireTerm struct {
	Kind  Kind       `cbor:"k"`
	Int   int64      `cbor:"i,omitempty"`
	Float float64    `cbor:"f"`
	Str   string     `cbor:"s,omitempty"`
	Elems []wireTerm `cbor:"e,omitempty"`
}

func toWire(t Term) wireTerm {
	w := wireTerm{Kind: t.kind, Int: t.i, Float: t.f, Str: t.s}
	if len(t.elems) > 0 {
		w.Elems = make([]wireTerm, len(t.elems))
		for i, e := range t.elems {
			w.Elems[i] = toWire(e)
		}
	}
	return w
}

func fromWire(w wireTerm) (Term, error) {
	switch w.Kind {
	case KindInt:
		return Int(w.Int), nil
	case KindFloat:
		return Float(w.Float), nil
	case KindBinary:
		return Binary(w.Str), nil
	case KindAtom:
		return Atom(w.Str), nil
	case KindList, KindTuple:
		elems := make([]Term, len(w.Elems))
		for i, e := range w.Elems {
			t, err := fromWire(e)
			if err != nil {
				return Term{}, err
			}
			elems[i] = t
		}
		return Term{kind: w.Kind, elems: elems}, nil
	default:
		return Term{}, fmt.Errorf("term: unknown wire kind %d", w.Kind)
	}
}

// MarshalCBOR serializes a sequence of terms to canonical CBOR bytes.
func MarshalCBOR(terms ...Term) ([]byte, error) {
	wire := make([]wireTerm, len(terms))
	for i, t := range terms {
		wire[i] = toWire(t)
	}
	return cborEncMode.Marshal(wire)
}

// UnmarshalCBOR deserializes a sequence of terms from CBOR bytes.
func UnmarshalCBOR(data []byte) ([]Term, error) {
	var wire []wireTerm
	if err := cbor.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("term: unmarshal: %w", err)
	}
	terms := make([]Term, len(wire))
	for i, w := range wire {
		t, err := fromWire(w)
		if err != nil {
			return nil, err
		}
		terms[i] = t
	}
	return terms, nil
}
