package symcoro

import "sync/atomic"

// Cell is a write-once slot. It lets coroutine bodies refer to
// handles that do not exist yet when the bodies are created: capture
// the cell, create every coroutine, fill the cells, then await the
// futures.
//
// The zero value is an empty cell. A Cell must not be copied after
// first use.
type Cell[T any] struct {
	p atomic.Pointer[T]
}

// Set fills the cell. It returns ErrCellAlreadySet if the cell was
// filled before.
func (c *Cell[T]) Set(v T) error {
	if !c.p.CompareAndSwap(nil, &v) {
		return ErrCellAlreadySet
	}
	return nil
}

// Get returns the cell's value. It panics with ErrCellEmpty if the
// cell has not been set, which means a body started before the
// orchestration code finished wiring.
func (c *Cell[T]) Get() T {
	p := c.p.Load()
	if p == nil {
		panic(ErrCellEmpty)
	}
	return *p
}

// Lookup returns the value and whether the cell has been set.
func (c *Cell[T]) Lookup() (T, bool) {
	p := c.p.Load()
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}
