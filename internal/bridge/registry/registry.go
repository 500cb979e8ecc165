// Package registry provides the operation table: the fixed mapping from an
// operation name and arity to its parameter slots, native invocation and
// result shape.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/decode"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
	"github.com/felixgeelhaar/astrobridge/internal/native"
)

var (
	// ErrDuplicate is returned when a name/arity pair is registered twice.
	ErrDuplicate = errors.New("operation already registered")

	// ErrFrozen is returned when registering into a frozen table.
	ErrFrozen = errors.New("operation table is frozen")

	// ErrInvalidDescriptor is returned for an incomplete descriptor.
	ErrInvalidDescriptor = errors.New("invalid operation descriptor")
)

// Shape is the form of a success payload.
type Shape uint8

const (
	// Single is Success(p).
	Single Shape = iota + 1
	// Pair is Success(p1, p2).
	Pair
	// Unit is a bare tagged success.
	Unit
)

// Size returns the number of payload terms of the shape.
func (s Shape) Size() int {
	switch s {
	case Single:
		return 1
	case Pair:
		return 2
	default:
		return 0
	}
}

// Frame holds the output buffers of one native call.
// It is only read after the error state has been checked.
type Frame struct {
	State    [6]float64
	Elements [8]float64
	LT       float64
	Scalar   float64
	Int      int32
	Name     string
	Found    bool
	Codes    []int32
	Values   []float64
	Calendar [7]int32
}

// Invoke calls the native routine with decoded arguments, writing outputs to out.
type Invoke func(lib native.Library, args *decode.Args, out *Frame)

// Encode converts a frame into payload terms.
type Encode func(out *Frame) []term.Term

// Operation describes one callable operation.
type Operation struct {
	// Name is the operation name callers use.
	Name string

	// Routine is the native routine name, accepted as an alias.
	Routine string

	// Description is a one-line summary.
	Description string

	// Returns describes the success payload.
	Returns string

	// Params lists the argument slots in order; the arity is len(Params).
	Params []decode.Slot

	// Shape is the success payload form.
	Shape Shape

	// Lookup names the subject of a lookup. When set, a call that completes
	// without error but with Frame.Found false yields a not-found failure.
	Lookup string

	// Cacheable marks results that depend only on arguments and loaded kernels.
	Cacheable bool

	Invoke Invoke
	Encode Encode
}

// Arity returns the number of positional arguments.
func (o Operation) Arity() int {
	return len(o.Params)
}

// Info returns the public description of the operation.
func (o Operation) Info() sdk.OperationInfo {
	params := make([]sdk.ParamInfo, len(o.Params))
	for i, p := range o.Params {
		params[i] = sdk.ParamInfo{Name: p.Name, Kind: p.Describe()}
	}
	return sdk.OperationInfo{
		Name:        o.Name,
		Routine:     o.Routine,
		Arity:       o.Arity(),
		Params:      params,
		Returns:     o.Returns,
		Description: o.Description,
	}
}

func (o Operation) validate() error {
	switch {
	case o.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidDescriptor)
	case o.Invoke == nil:
		return fmt.Errorf("%w: %s has no invoke function", ErrInvalidDescriptor, o.Name)
	case o.Encode == nil && o.Shape != Unit:
		return fmt.Errorf("%w: %s has no encode function", ErrInvalidDescriptor, o.Name)
	case o.Shape < Single || o.Shape > Unit:
		return fmt.Errorf("%w: %s has no result shape", ErrInvalidDescriptor, o.Name)
	}
	for i, p := range o.Params {
		if p.Kind == decode.Vector && p.Len <= 0 {
			return fmt.Errorf("%w: %s parameter %d has no vector length", ErrInvalidDescriptor, o.Name, i)
		}
	}
	return nil
}

type key struct {
	name  string
	arity int
}

// Table is the operation table. It becomes immutable once frozen.
type Table struct {
	mu     sync.RWMutex
	ops    map[key]Operation
	order  []Operation
	frozen bool
	logger *slog.Logger
}

// NewTable creates an empty operation table.
func NewTable(logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.Default()
	}
	return &Table{
		ops:    make(map[key]Operation),
		logger: logger,
	}
}

// Register adds an operation under its name and its routine alias.
func (t *Table) Register(op Operation) error {
	if err := op.validate(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen {
		return ErrFrozen
	}

	keys := []key{{op.Name, op.Arity()}}
	if op.Routine != "" && op.Routine != op.Name {
		keys = append(keys, key{op.Routine, op.Arity()})
	}
	for _, k := range keys {
		if _, exists := t.ops[k]; exists {
			return fmt.Errorf("%w: %s/%d", ErrDuplicate, k.name, k.arity)
		}
	}
	for _, k := range keys {
		t.ops[k] = op
	}
	t.order = append(t.order, op)

	t.logger.Debug("operation registered",
		"operation", op.Name,
		"routine", op.Routine,
		"arity", op.Arity(),
	)
	return nil
}

// MustRegister registers every operation and panics on the first error.
func (t *Table) MustRegister(ops ...Operation) {
	for _, op := range ops {
		if err := t.Register(op); err != nil {
			panic(err)
		}
	}
}

// Freeze makes the table immutable.
func (t *Table) Freeze() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frozen = true
}

// Frozen reports whether the table is frozen.
func (t *Table) Frozen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.frozen
}

// Lookup resolves a name or routine alias with the given arity.
func (t *Table) Lookup(name string, arity int) (Operation, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	op, ok := t.ops[key{name, arity}]
	return op, ok
}

// List returns operations in registration order.
func (t *Table) List() []Operation {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Operation, len(t.order))
	copy(out, t.order)
	return out
}

// Infos returns the public descriptions in registration order.
func (t *Table) Infos() []sdk.OperationInfo {
	ops := t.List()
	infos := make([]sdk.OperationInfo, len(ops))
	for i, op := range ops {
		infos[i] = op.Info()
	}
	return infos
}

// Len returns the number of registered operations, not counting aliases.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}
