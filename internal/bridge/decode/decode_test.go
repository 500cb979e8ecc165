package decode

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateSlots() []Slot {
	return []Slot{Vec("state", 6), Num("epoch"), Num("mu")}
}

func TestDecodeSuccess(t *testing.T) {
	before := Outstanding()

	args, err := Decode("osculating-elements", stateSlots(), []term.Term{
		term.List(term.Int(7000), term.Float(0), term.Float(0), term.Float(0), term.Float(7.5), term.Int(0)),
		term.Int(0),
		term.Float(398600.4418),
	})
	require.NoError(t, err)

	assert.Equal(t, []float64{7000, 0, 0, 0, 7.5, 0}, args.Vector(0))
	assert.Equal(t, 0.0, args.Number(1))
	assert.Equal(t, 398600.4418, args.Number(2))
	assert.Equal(t, before+1, Outstanding())

	args.Release()
	assert.Equal(t, before, Outstanding())

	args.Release()
	assert.Equal(t, before, Outstanding())
}

func TestDecodeScalars(t *testing.T) {
	slots := []Slot{Str("name"), Int("code"), Num("epoch")}

	args, err := Decode("op", slots, []term.Term{term.Binary("EARTH"), term.Int(399), term.Float(1.5)})
	require.NoError(t, err)
	defer args.Release()

	assert.Equal(t, "EARTH", args.String(0))
	assert.Equal(t, int32(399), args.Int(1))
	assert.Equal(t, 1.5, args.Number(2))
	assert.Equal(t, 3, args.Len())
}

func TestDecodeEmptyStringIsValid(t *testing.T) {
	args, err := Decode("op", []Slot{Str("name")}, []term.Term{term.Binary("")})
	require.NoError(t, err)
	defer args.Release()
	assert.Equal(t, "", args.String(0))
}

func TestDecodeFailures(t *testing.T) {
	tests := []struct {
		name  string
		slots []Slot
		args  []term.Term
		slot  int
	}{
		{
			name:  "number rejects binary",
			slots: []Slot{Num("epoch")},
			args:  []term.Term{term.Binary("0.0")},
			slot:  0,
		},
		{
			name:  "integer rejects float",
			slots: []Slot{Int("code")},
			args:  []term.Term{term.Float(399)},
			slot:  0,
		},
		{
			name:  "integer out of range",
			slots: []Slot{Int("code")},
			args:  []term.Term{term.Int(1 << 40)},
			slot:  0,
		},
		{
			name:  "string rejects atom",
			slots: []Slot{Str("name")},
			args:  []term.Term{term.Atom("earth")},
			slot:  0,
		},
		{
			name:  "vector too short",
			slots: []Slot{Vec("state", 6)},
			args:  []term.Term{term.Floats(1, 2, 3, 4, 5)},
			slot:  0,
		},
		{
			name:  "vector too long",
			slots: []Slot{Vec("elts", 8)},
			args:  []term.Term{term.Floats(1, 2, 3, 4, 5, 6, 7, 8, 9)},
			slot:  0,
		},
		{
			name:  "vector rejects tuple",
			slots: []Slot{Vec("state", 2)},
			args:  []term.Term{term.Tuple(term.Float(1), term.Float(2))},
			slot:  0,
		},
		{
			name:  "vector element not numeric",
			slots: []Slot{Num("epoch"), Vec("state", 2)},
			args:  []term.Term{term.Float(0), term.List(term.Float(1), term.Binary("2"))},
			slot:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := Outstanding()

			args, err := Decode("op", tt.slots, tt.args)
			require.Error(t, err)
			assert.Nil(t, args)
			assert.True(t, sdk.IsDecode(err))

			var decErr *sdk.DecodeError
			require.True(t, errors.As(err, &decErr))
			assert.Equal(t, tt.slot, decErr.Slot)
			assert.Equal(t, before, Outstanding())
		})
	}
}

func TestDecodeReleasesEarlierVectorsOnFailure(t *testing.T) {
	before := Outstanding()

	_, err := Decode("op", []Slot{Vec("state", 2), Num("epoch")}, []term.Term{
		term.Floats(1, 2),
		term.Binary("nope"),
	})
	require.Error(t, err)
	assert.Equal(t, before, Outstanding())
}

func TestDecodeArityMismatch(t *testing.T) {
	_, err := Decode("op", []Slot{Num("epoch")}, nil)
	require.Error(t, err)
	assert.True(t, sdk.IsDecode(err))
	assert.Contains(t, err.Error(), "expects 1 arguments, got 0")
}

func TestArgsPanicsOnMisuse(t *testing.T) {
	args, err := Decode("op", []Slot{Num("epoch")}, []term.Term{term.Float(1)})
	require.NoError(t, err)

	assert.Panics(t, func() { args.Int(0) })
	assert.Panics(t, func() { args.Number(1) })

	args.Release()
	assert.Panics(t, func() { args.Number(0) })
}

func TestSlotDescribe(t *testing.T) {
	assert.Equal(t, "vector[6]", Vec("state", 6).Describe())
	assert.Equal(t, "integer", Int("code").Describe())
}
