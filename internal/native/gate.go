package native

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Gate owns a Library and admits one caller at a time.
//
// Waiting for the gate honours context cancellation. Once a function has been
// admitted it runs to completion; native routines cannot be interrupted.
type Gate struct {
	lib Library
	sem *semaphore.Weighted
}

// NewGate wraps lib in a single-slot gate.
func NewGate(lib Library) *Gate {
	return &Gate{
		lib: lib,
		sem: semaphore.NewWeighted(1),
	}
}

// Do runs fn with exclusive access to the library.
func (g *Gate) Do(ctx context.Context, fn func(Library)) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.sem.Release(1)
	fn(g.lib)
	return nil
}

// TryDo runs fn only if the gate is free, reporting whether it ran.
func (g *Gate) TryDo(fn func(Library)) bool {
	if !g.sem.TryAcquire(1) {
		return false
	}
	defer g.sem.Release(1)
	fn(g.lib)
	return true
}
