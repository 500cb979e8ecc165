package term

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnsupportedValue is returned when a JSON value has no term representation.
var ErrUnsupportedValue = errors.New("unsupported value")

// ParseJSON parses a JSON document into a term.
//
// Numbers written without a fraction or exponent become integers, everything
// else numeric becomes a float. Strings become binaries and arrays become lists.
// The objects {"tuple": [...]} and {"atom": "name"} build tuples and atoms.
func ParseJSON(data []byte) (Term, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Term{}, fmt.Errorf("parse json term: %w", err)
	}
	if dec.More() {
		return Term{}, errors.New("parse json term: trailing data")
	}
	return FromAny(v)
}

// FromAny converts a decoded JSON value into a term.
//
// float64 values with an integral value map to integers, since JSON decoders
// that do not preserve number text cannot tell 1 from 1.0.
func FromAny(v any) (Term, error) {
	switch x := v.(type) {
	case Term:
		return x, nil
	case json.Number:
		s := x.String()
		if !strings.ContainsAny(s, ".eE") {
			if i, err := x.Int64(); err == nil {
				return Int(i), nil
			}
		}
		f, err := x.Float64()
		if err != nil {
			return Term{}, fmt.Errorf("%w: number %q", ErrUnsupportedValue, s)
		}
		return Float(f), nil
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return Int(int64(x)), nil
		}
		return Float(x), nil
	case float32:
		return FromAny(float64(x))
	case int:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case string:
		return Binary(x), nil
	case []byte:
		return Bytes(x), nil
	case bool:
		if x {
			return Atom("true"), nil
		}
		return Atom("false"), nil
	case []any:
		elems := make([]Term, len(x))
		for i, e := range x {
			t, err := FromAny(e)
			if err != nil {
				return Term{}, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = t
		}
		return Term{kind: KindList, elems: elems}, nil
	case map[string]any:
		return fromObject(x)
	case nil:
		return Term{}, fmt.Errorf("%w: null", ErrUnsupportedValue)
	default:
		return Term{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

func fromObject(obj map[string]any) (Term, error) {
	if len(obj) != 1 {
		return Term{}, fmt.Errorf("%w: object must hold exactly one of \"tuple\" or \"atom\"", ErrUnsupportedValue)
	}
	if raw, ok := obj["atom"]; ok {
		name, ok := raw.(string)
		if !ok {
			return Term{}, fmt.Errorf("%w: atom name must be a string", ErrUnsupportedValue)
		}
		return Atom(name), nil
	}
	if raw, ok := obj["tuple"]; ok {
		items, ok := raw.([]any)
		if !ok {
			return Term{}, fmt.Errorf("%w: tuple must be an array", ErrUnsupportedValue)
		}
		list, err := FromAny(items)
		if err != nil {
			return Term{}, err
		}
		list.kind = KindTuple
		return list, nil
	}
	return Term{}, fmt.Errorf("%w: unknown object form", ErrUnsupportedValue)
}

// ToAny converts a term into plain Go values suitable for JSON encoding.
// Tuples and lists both become arrays; atoms and binaries become strings.
func (t Term) ToAny() any {
	switch t.kind {
	case KindInt:
		return t.i
	case KindFloat:
		return t.f
	case KindBinary, KindAtom:
		return t.s
	case KindList, KindTuple:
		out := make([]any, len(t.elems))
		for i, e := range t.elems {
			out[i] = e.ToAny()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler.
func (t Term) MarshalJSON() ([]byte, error) {
	if t.kind == KindFloat && (math.IsNaN(t.f) || math.IsInf(t.f, 0)) {
		return json.Marshal(fmt.Sprint(t.f))
	}
	return json.Marshal(t.ToAny())
}
